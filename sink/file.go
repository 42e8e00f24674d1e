package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// NewFile creates a sink, which writes documents as files into the given directory.
// The directory is created when the first document is written.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

// File is a file system based [Sink] and [Store].
type File struct {
	dir string
}

func (s *File) Dir() string {
	return s.dir
}

func (s *File) Read(_ context.Context, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", ErrNotFound
	}

	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %v", name, err)
	}

	return string(b), nil
}

func (s *File) Write(ctx context.Context, name string, content string) error {
	if err := ValidateName(name); err != nil {
		return WriteError{Name: name, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return WriteError{Name: name, Err: err}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return WriteError{Name: name, Err: err}
	}

	if err := writeFile(filepath.Join(s.dir, name), content); err != nil {
		return WriteError{Name: name, Err: err}
	}
	return nil
}

func writeFile(fileName string, content string) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
