package loader

import (
	"bytes"
	"context"

	"github.com/aleksaelezovic/ntstore/pkg/ntriples"
	"github.com/aleksaelezovic/ntstore/pkg/rdf"
	"golang.org/x/sync/errgroup"
)

// ParseChunks parses data like ntriples.Parse, splitting it into chunks of
// roughly chunkSize bytes that are parsed by up to workers goroutines.
//
// Chunks end at line breaks whose line ends with '.'. Such a break can still
// fall inside a multi-line literal, so if any chunk fails the whole buffer is
// parsed again sequentially; results and error positions are always those of
// ntriples.Parse.
func ParseChunks(ctx context.Context, data []byte, chunkSize, workers int) ([]rdf.Statement, error) {
	chunks := splitChunks(data, chunkSize)
	if len(chunks) <= 1 || workers <= 1 {
		return ntriples.Parse(data)
	}

	results := make([][]rdf.Statement, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			statements, err := ntriples.Parse(data[chunk[0]:chunk[1]])
			if err != nil {
				return err
			}
			results[i] = statements
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return ntriples.Parse(data)
	}

	total := 0
	for _, statements := range results {
		total += len(statements)
	}
	statements := make([]rdf.Statement, 0, total)
	for _, chunk := range results {
		statements = append(statements, chunk...)
	}
	return statements, nil
}

// splitChunks returns [start, end) byte ranges covering data.
func splitChunks(data []byte, chunkSize int) [][2]int {
	if chunkSize < 1 {
		chunkSize = 1
	}

	var chunks [][2]int
	start := 0
	for start < len(data) {
		end := len(data)
		for search := start + chunkSize - 1; search < len(data); {
			nl := bytes.IndexByte(data[search:], '\n')
			if nl < 0 {
				break
			}
			nl += search
			line := bytes.TrimRight(data[start:nl], " \t\r")
			if len(line) > 0 && line[len(line)-1] == '.' {
				end = nl + 1
				break
			}
			search = nl + 1
		}
		chunks = append(chunks, [2]int{start, end})
		start = end
	}
	return chunks
}
