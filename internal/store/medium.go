package store

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Medium is the removable storage holding the config file and duty logs.
// Files are opened and closed within a single operation.
type Medium interface {
	Present() bool
	Open(name string) (io.ReadCloser, error)
	Create(name string) (io.WriteCloser, error)
	Append(name string) (io.WriteCloser, error)
}

// DirMedium is a medium mounted at a directory.
type DirMedium struct {
	Root string
}

func (d DirMedium) Present() bool {
	fi, err := os.Stat(d.Root)
	return err == nil && fi.IsDir()
}

func (d DirMedium) Open(name string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.Root, name))
}

func (d DirMedium) Create(name string) (io.WriteCloser, error) {
	return os.Create(filepath.Join(d.Root, name))
}

func (d DirMedium) Append(name string) (io.WriteCloser, error) {
	return os.OpenFile(filepath.Join(d.Root, name), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
}

// MemMedium is an in-memory medium for tests.
type MemMedium struct {
	Files map[string][]byte
	// Absent makes Present report false.
	Absent bool
	// WriteErr is returned by Create and Append.
	WriteErr error
}

func NewMemMedium() *MemMedium {
	return &MemMedium{Files: make(map[string][]byte)}
}

func (m *MemMedium) Present() bool {
	return !m.Absent
}

func (m *MemMedium) Open(name string) (io.ReadCloser, error) {
	data, ok := m.Files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemMedium) Create(name string) (io.WriteCloser, error) {
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	return &memFile{m: m, name: name}, nil
}

func (m *MemMedium) Append(name string) (io.WriteCloser, error) {
	if m.WriteErr != nil {
		return nil, m.WriteErr
	}
	f := &memFile{m: m, name: name}
	f.buf.Write(m.Files[name])
	return f, nil
}

// Names returns the stored file names in order.
func (m *MemMedium) Names() []string {
	names := make([]string, 0, len(m.Files))
	for n := range m.Files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type memFile struct {
	m    *MemMedium
	name string
	buf  bytes.Buffer
}

func (f *memFile) Write(p []byte) (int, error) {
	return f.buf.Write(p)
}

func (f *memFile) Close() error {
	f.m.Files[f.name] = bytes.Clone(f.buf.Bytes())
	return nil
}
