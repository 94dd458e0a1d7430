package ntriples

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/aleksaelezovic/ntstore/pkg/rdf"
)

// Decoder reads statements from a stream. It buffers whole lines and hands
// the grammar only line-aligned buffers, reading further lines while a
// statement is still incomplete. Errors carry offsets, lines and columns
// relative to the start of the stream.
type Decoder struct {
	reader *bufio.Reader
	buf    []byte
	base   int // stream offset of buf[0]
	line   int // complete lines before buf[0]
	column int // bytes between the last line start and buf[0]
	eof    bool
	err    error
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: bufio.NewReader(r)}
}

// Next returns the next statement, or io.EOF once the stream is exhausted.
// After a parse or read error every call returns that same error.
func (d *Decoder) Next() (rdf.Statement, error) {
	if d.err != nil {
		return rdf.Statement{}, d.err
	}

	for {
		p := newParser(d.buf, 0)
		p.skipSeparators()

		if p.pos < p.length {
			statement, err := p.parseStatement()
			if err == nil {
				d.advance(p.pos)
				return statement, nil
			}
			var perr *ParseError
			if !errors.As(err, &perr) || !perr.atEnd || d.eof {
				d.err = d.relocate(err)
				return rdf.Statement{}, d.err
			}
		} else {
			if d.eof {
				d.err = io.EOF
				return rdf.Statement{}, d.err
			}
			d.advance(p.pos)
		}

		if err := d.readLine(); err != nil {
			d.err = err
			return rdf.Statement{}, err
		}
	}
}

// All adapts the decoder to a range-over-func sequence. io.EOF ends the
// sequence without being yielded.
func (d *Decoder) All() iter.Seq2[rdf.Statement, error] {
	return func(yield func(rdf.Statement, error) bool) {
		for {
			statement, err := d.Next()
			if err == io.EOF {
				return
			}
			if !yield(statement, err) || err != nil {
				return
			}
		}
	}
}

func (d *Decoder) readLine() error {
	line, err := d.reader.ReadBytes('\n')
	d.buf = append(d.buf, line...)
	if err == io.EOF {
		d.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// advance drops buf[:n], keeping track of where buf starts in the stream.
func (d *Decoder) advance(n int) {
	consumed := d.buf[:n]
	if last := bytes.LastIndexByte(consumed, '\n'); last >= 0 {
		d.line += bytes.Count(consumed, []byte{'\n'})
		d.column = n - last - 1
	} else {
		d.column += n
	}
	d.base += n

	remaining := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:remaining]
}

func (d *Decoder) relocate(err error) error {
	var perr *ParseError
	if errors.As(err, &perr) {
		perr.locate(d.buf)
		if perr.Line == 1 {
			perr.Column += d.column
		}
		perr.Line += d.line
		perr.Offset += d.base
	}
	return err
}
