package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// Mirror is an HTTP server handing out files from a directory, the way a
// repository mirror serves <repo>/<repo>.db.
type Mirror struct {
	*httptest.Server
	hits atomic.Int64
}

// NewMirror serves dir until the test ends.
func NewMirror(t *testing.T, dir string) *Mirror {
	t.Helper()
	m := &Mirror{}
	files := http.FileServer(http.Dir(dir))
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.hits.Add(1)
		files.ServeHTTP(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// Hits counts the requests served so far.
func (m *Mirror) Hits() int64 { return m.hits.Load() }

// NewBrokenMirror answers every request with status.
func NewBrokenMirror(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}
