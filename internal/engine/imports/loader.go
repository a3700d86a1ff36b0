package imports

import (
	kerrors "kite/internal/core/errors"
	"kite/internal/engine/symbols"
	"kite/internal/engine/syntax"

	"github.com/spf13/afero"
	"github.com/zeebo/xxh3"
)

// Unit is one analysed file: its text, token index, declarations and imports.
type Unit struct {
	Path  string
	Hash  uint64
	File  *syntax.File
	Table *symbols.Table
	Edges []Edge
}

// NewUnit analyses text as the contents of path.
func NewUnit(path, text string) *Unit {
	return FromFile(syntax.Parse(path, text))
}

// FromFile analyses an already indexed file, such as one rebuilt from a
// resumed token stream.
func FromFile(f *syntax.File) *Unit {
	return &Unit{
		Path:  f.Path,
		Hash:  xxh3.HashString(f.Text),
		File:  f,
		Table: symbols.Build(f),
		Edges: Edges(f),
	}
}

// Loader supplies analysed files to the resolver. Implementations may cache.
type Loader interface {
	Load(path string) (*Unit, error)
	Exists(path string) bool
}

// FSLoader reads straight from a filesystem without caching.
type FSLoader struct {
	fs afero.Fs
}

func NewFSLoader(fs afero.Fs) *FSLoader {
	return &FSLoader{fs: fs}
}

func (l *FSLoader) Load(path string) (*Unit, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, kerrors.ReadFailure(err, "read kite file", path)
	}
	return NewUnit(path, string(data)), nil
}

func (l *FSLoader) Exists(path string) bool {
	return IsFile(l.fs, path)
}

// IsFile reports whether path names a regular file on fs.
func IsFile(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}
