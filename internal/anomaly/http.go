package anomaly

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxDocumentSize bounds how much of a response body is read.
const maxDocumentSize = 8 << 20

// HTTPSource fetches an anomaly document from a URL.
type HTTPSource struct {
	name     string
	url      string
	username string
	password string
	client   *http.Client
	limit    int64
}

// NewHTTPSource creates a new HTTP anomaly source.
func NewHTTPSource(name, url, username, password string) *HTTPSource {
	return &HTTPSource{
		name:     name,
		url:      url,
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		limit: maxDocumentSize,
	}
}

// Name returns the display name of this source.
func (s *HTTPSource) Name() string {
	return s.name
}

// Fetch retrieves and decodes the document.
// Network failures, non-200 responses and oversized bodies are returned
// as *TransportError.
func (s *HTTPSource) Fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{Source: s.name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Source: s.name, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.limit+1))
	if err != nil {
		return nil, &TransportError{Source: s.name, Err: err}
	}
	if int64(len(data)) > s.limit {
		return nil, &TransportError{Source: s.name, Err: ErrDocumentTooLarge}
	}

	return Decode(data)
}
