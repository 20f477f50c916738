package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// DirectoryServer serves an RDAP bootstrap document and counts fetches.
type DirectoryServer struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits returns how many times the directory was requested.
func (s *DirectoryServer) Hits() int64 {
	return s.hits.Load()
}

// NewDirectoryServer starts a server answering with an IANA-shaped document.
// Each service is given as [tlds, urls]. The server is closed on test cleanup.
func NewDirectoryServer(t *testing.T, services ...[2][]string) *DirectoryServer {
	t.Helper()
	wire := make([][][]string, 0, len(services))
	for _, svc := range services {
		wire = append(wire, [][]string{svc[0], svc[1]})
	}
	body, err := json.Marshal(map[string]any{
		"version":     "1.0",
		"publication": "2024-01-01T00:00:00Z",
		"description": "test bootstrap",
		"services":    wire,
	})
	if err != nil {
		t.Fatalf("marshal directory: %v", err)
	}

	ds := &DirectoryServer{}
	ds.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ds.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(ds.Close)
	return ds
}

// Service is a convenience constructor for NewDirectoryServer arguments.
func Service(tlds []string, urls ...string) [2][]string {
	return [2][]string{tlds, urls}
}
