// Package fileload reads requested files into memory as a whole.
package fileload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/indigo-web/oneshot/http/status"
)

var (
	ErrOutsideRoot = status.NewError(status.Forbidden, "path escapes the served root")
	ErrNotRegular  = status.NewError(status.Forbidden, "not a regular file")
	ErrShortRead   = status.NewError(status.InternalServerError, "file was read partially")
)

// File is a fully loaded file. The data is owned exclusively by the caller.
type File struct {
	Name string
	Data []byte
}

func (f File) Len() int {
	return len(f.Data)
}

// Loader opens files relative to a directory. When confined, files are opened via
// os.Root, so neither `..` segments nor symlinks can reach outside the directory.
type Loader struct {
	dir  string
	root *os.Root
}

func New(dir string, confine bool) (*Loader, error) {
	loader := &Loader{dir: dir}
	if !confine {
		return loader, nil
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}

	loader.root = root

	return loader, nil
}

// Load reads the whole file into memory. The length is taken from the file's stat
// and the file must deliver exactly that many bytes.
func (l *Loader) Load(name string) (File, error) {
	fd, err := l.open(name)
	if err != nil {
		return File{}, err
	}

	defer fd.Close()

	stat, err := fd.Stat()
	if err != nil {
		return File{}, err
	}

	if !stat.Mode().IsRegular() {
		return File{}, fmt.Errorf("%s: %w", name, ErrNotRegular)
	}

	data, err := readAll(fd, stat.Size())
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", name, err)
	}

	return File{Name: name, Data: data}, nil
}

func (l *Loader) open(name string) (*os.File, error) {
	if len(name) == 0 {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	if l.root == nil {
		path := name
		if !filepath.IsAbs(name) {
			path = filepath.Join(l.dir, name)
		}

		return os.Open(path)
	}

	if !filepath.IsLocal(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrOutsideRoot)
	}

	return l.root.Open(name)
}

// Close releases the root directory handle, if any.
func (l *Loader) Close() error {
	if l.root == nil {
		return nil
	}

	return l.root.Close()
}

func readAll(r io.Reader, size int64) ([]byte, error) {
	data := make([]byte, size)

	n, err := io.ReadFull(r, data)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return nil, fmt.Errorf("%w: got %d out of %d bytes", ErrShortRead, n, size)
	default:
		return nil, err
	}
}
