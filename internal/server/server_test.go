package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aleksaelezovic/ntstore/internal/config"
	"github.com/aleksaelezovic/ntstore/internal/metrics"
	"github.com/aleksaelezovic/ntstore/internal/storage"
	"github.com/aleksaelezovic/ntstore/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const people = `<http://example.org/alice> <http://xmlns.com/foaf/0.1/name> "Alice" .
<http://example.org/alice> <http://xmlns.com/foaf/0.1/knows> _:bob .
_:bob <http://xmlns.com/foaf/0.1/name> "Bob"@en .
`

func newTestServer(t *testing.T) (*Server, *store.TripleStore) {
	t.Helper()
	backend, err := storage.NewBadgerStorage(storage.Options{Path: t.TempDir()})
	require.NoError(t, err)
	tripleStore := store.NewTripleStore(backend)
	t.Cleanup(func() { tripleStore.Close() })

	cfg := config.DefaultConfig()
	cfg.Server.MaxBodyBytes = 4096
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(tripleStore, cfg.Server, cfg.Load, metrics.New(), logger), tripleStore
}

func do(t *testing.T, s *Server, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestInsertStatements(t *testing.T) {
	s, tripleStore := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/statements", people)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response InsertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 3, response.Inserted)
	assert.Nil(t, response.Skipped)

	count, err := tripleStore.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestInsertMalformedDocument(t *testing.T) {
	s, tripleStore := newTestServer(t)

	body := "_:a <http://p> _:b .\n<http://broken <http://p> _:c .\n"
	rec := do(t, s, http.MethodPost, "/statements", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "UnterminatedIdentifier", response.Error.Kind)
	assert.Equal(t, "subject", response.Error.Construct)
	require.NotNil(t, response.Error.Offset)
	assert.Equal(t, 21, *response.Error.Offset)
	assert.Equal(t, 2, response.Error.Line)
	assert.Equal(t, 1, response.Error.Column)
	assert.NotEmpty(t, response.Error.Message)

	count, err := tripleStore.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInsertLenient(t *testing.T) {
	s, _ := newTestServer(t)

	body := "_:a <http://p> _:b .\n<http://broken <http://p> _:c .\n_:d <http://p> _:e .\n"
	rec := do(t, s, http.MethodPost, "/statements?mode=lenient", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response InsertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Inserted)
	require.NotNil(t, response.Skipped)
	assert.Equal(t, 1, *response.Skipped)

	rec = do(t, s, http.MethodPost, "/statements?mode=sloppy", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsertTooLarge(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/statements", strings.Repeat(people, 100))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMatchStatements(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/statements", people).Code)

	tests := []struct {
		name  string
		query url.Values
		lines int
	}{
		{name: "everything", query: url.Values{}, lines: 3},
		{name: "subject", query: url.Values{"subject": {"<http://example.org/alice>"}}, lines: 2},
		{name: "blank subject", query: url.Values{"subject": {"_:bob"}}, lines: 1},
		{name: "predicate", query: url.Values{"predicate": {"<http://xmlns.com/foaf/0.1/name>"}}, lines: 2},
		{name: "language literal", query: url.Values{"object": {`"Bob"@en`}}, lines: 1},
		{name: "no match", query: url.Values{"object": {`"Bob"@de`}}, lines: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/statements?"+tt.query.Encode(), "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/n-triples")

			body := strings.TrimSpace(rec.Body.String())
			lines := 0
			if body != "" {
				lines = len(strings.Split(body, "\n"))
			}
			assert.Equal(t, tt.lines, lines, body)
		})
	}
}

func TestMatchOutputRoundTrips(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/statements", people).Code)

	rec := do(t, s, http.MethodGet, "/statements", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// The listing is itself a valid document
	other, otherStore := newTestServer(t)
	rec = do(t, other, http.MethodPost, "/statements", rec.Body.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	count, err := otherStore.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestMatchJSON(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/statements", people).Code)

	rec := do(t, s, http.MethodGet, "/statements?object="+url.QueryEscape(`"Bob"@en`), "", "Accept", "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var statements []StatementValue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statements))
	require.Len(t, statements, 1)
	assert.Equal(t, TermValue{Type: "bnode", Value: "bob"}, statements[0].Subject)
	assert.Equal(t, TermValue{Type: "uri", Value: "http://xmlns.com/foaf/0.1/name"}, statements[0].Predicate)
	assert.Equal(t, TermValue{Type: "literal", Value: "Bob", Lang: "en"}, statements[0].Object)
}

func TestMatchBadTerm(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/statements?predicate="+url.QueryEscape("_:p"), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "UnrecognizedTerm", response.Error.Kind)
	assert.Equal(t, "predicate", response.Error.Construct)
}

func TestDeleteStatements(t *testing.T) {
	s, tripleStore := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/statements", people).Code)

	rec := do(t, s, http.MethodDelete, "/statements", `_:bob <http://xmlns.com/foaf/0.1/name> "Bob"@en .`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response DeleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Deleted)

	count, err := tripleStore.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	rec = do(t, s, http.MethodDelete, "/statements", `_:bob <http://p`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/statements", people).Code)

	rec := do(t, s, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats.Statements)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodPost, "/stats", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	do(t, s, http.MethodPost, "/statements", `"literal subject" <http://p> _:o .`)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ntstore_parse_errors_total{kind="UnrecognizedTerm"} 1`)
}

func TestRootAndMethods(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Statements stored: 0")

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/nothing", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, s, http.MethodPut, "/statements", "").Code)

	rec = do(t, s, http.MethodOptions, "/statements", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunShutsDown(t *testing.T) {
	s, _ := newTestServer(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.config.Addr = listener.Addr().String()
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + s.config.Addr + "/stats")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
