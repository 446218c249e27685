package store

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SnapshotHeader carries the original fetch time on offline responses.
const SnapshotHeader = "X-Finboard-Snapshot"

// OfflineTransport answers GET requests under baseURL from recorded
// snapshots. Unknown paths and every write get 503.
func (s *Store) OfflineTransport(baseURL string) (http.RoundTripper, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	prefix := base.Path
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &offlineTransport{store: s, prefix: prefix}, nil
}

type offlineTransport struct {
	store  *Store
	prefix string
}

func (t *offlineTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
	if req.Method != http.MethodGet {
		return respond(req, http.StatusServiceUnavailable, nil, time.Time{}), nil
	}

	path := strings.TrimPrefix(req.URL.Path, t.prefix)
	snap, ok, err := t.store.LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return respond(req, http.StatusServiceUnavailable, nil, time.Time{}), nil
	}
	return respond(req, http.StatusOK, snap.Body, snap.FetchedAt), nil
}

func respond(req *http.Request, status int, body []byte, fetched time.Time) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	if !fetched.IsZero() {
		h.Set(SnapshotHeader, fetched.Format(time.RFC3339))
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
