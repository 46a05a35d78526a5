package shell

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

//go:embed fragments/*.html
var embedded embed.FS

// layoutHTML is the page skeleton holding the content region
//
//go:embed layout.html
var layoutHTML string

// Loader returns the markup of a named fragment
type Loader interface {
	Load(ctx context.Context, name string) (string, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context, name string) (string, error)

// Load calls f
func (f LoaderFunc) Load(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// FSLoader reads fragments from a filesystem
type FSLoader struct {
	fsys fs.FS
}

// NewFSLoader creates a loader over fsys
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys}
}

// EmbeddedLoader serves the fragments compiled into the binary
func EmbeddedLoader() *FSLoader {
	sub, err := fs.Sub(embedded, "fragments")
	if err != nil {
		panic(err)
	}
	return NewFSLoader(sub)
}

// Load reads name from the filesystem
func (l *FSLoader) Load(_ context.Context, name string) (string, error) {
	name = path.Clean(name)
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%w: %s", ErrUnknownFragment, name)
	}
	data, err := fs.ReadFile(l.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrUnknownFragment, name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read fragment %s: %w", name, err)
	}
	return string(data), nil
}
