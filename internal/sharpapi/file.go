package sharpapi

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File is a binary payload uploaded under the "file" form field.
type File struct {
	Name   string
	Reader io.Reader
}

// OpenFile opens the file at path for upload. The caller closes the returned
// closer once the request has been sent.
func OpenFile(path string) (*File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open upload file: %w", err)
	}
	return &File{Name: filepath.Base(path), Reader: f}, f, nil
}
