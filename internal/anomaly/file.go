package anomaly

import (
	"context"
	"os"
)

// FileSource reads an anomaly document from the local filesystem.
type FileSource struct {
	name string
	path string
}

// NewFileSource creates a new file anomaly source.
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

// Name returns the display name of this source.
func (s *FileSource) Name() string {
	return s.name
}

// Fetch reads and decodes the document. A read failure is a *TransportError.
func (s *FileSource) Fetch(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &TransportError{Source: s.name, Err: err}
	}
	return Decode(data)
}
