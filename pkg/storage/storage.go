// Package storage defines the contract shared by the remote file stores and
// the types they exchange with the host application.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Metadata is accepted by Upload for contract compatibility. Remote stores
// do not persist it.
type Metadata map[string]string

// Storage is the contract a file-attachment host expects from a backend.
type Storage interface {
	Upload(ctx context.Context, src Source, id string, meta Metadata) error
	Open(ctx context.Context, id string) (io.ReadCloser, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	URL(id string) string
}

// Source is the input to Upload.
type Source interface {
	io.Reader
}

// LocalPather is implemented by sources that already live on local disk.
// Stores stream such sources from the path instead of the reader.
type LocalPather interface {
	LocalPath() string
}

// File is a Source backed by a local file. It is opened on first read.
type File struct {
	path string
	f    *os.File
}

func LocalFile(path string) *File {
	return &File{path: path}
}

func (f *File) LocalPath() string {
	return f.path
}

func (f *File) Read(p []byte) (int, error) {
	if f.f == nil {
		file, err := os.Open(f.path)
		if err != nil {
			return 0, err
		}
		f.f = file
	}
	return f.f.Read(p)
}

func (f *File) Close() error {
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	return err
}

type readerSource struct {
	io.Reader
}

// FromReader wraps r as a Source.
func FromReader(r io.Reader) Source {
	return readerSource{Reader: r}
}

// OpenSource resolves src to a stream. Sources with a local path are opened
// from disk; anything else is read as-is and never closed by the caller.
func OpenSource(src Source) (io.ReadCloser, error) {
	if src == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if lp, ok := src.(LocalPather); ok {
		if p := lp.LocalPath(); p != "" {
			file, err := os.Open(p)
			if err != nil {
				return nil, fmt.Errorf("failed to open local source: %w", err)
			}
			return file, nil
		}
	}
	return io.NopCloser(src), nil
}
