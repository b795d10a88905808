package recsrc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source gives indexed access to the records of one collection.
// Implementations are not safe for concurrent use.
type Source interface {
	// Count returns the number of records in the collection.
	Count() int64
	// Load reads the record at index, 0 <= index < Count().
	// Failures are reported as *ReadError.
	Load(ctx context.Context, index int64) (*Record, error)
	Close() error
}

// Opener opens a Source. Failures are reported as *OpenError.
type Opener interface {
	Open(ctx context.Context, env *Environment, path, collection string) (Source, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, env *Environment, path, collection string) (Source, error)

func (f OpenerFunc) Open(ctx context.Context, env *Environment, path, collection string) (Source, error) {
	return f(ctx, env, path, collection)
}

// DefaultOpener selects a format by file extension.
type DefaultOpener struct{}

// Open implements Opener.
func (DefaultOpener) Open(ctx context.Context, env *Environment, path, collection string) (Source, error) {
	if env == nil {
		env = NewEnvironment(EnvironmentOptions{})
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &OpenError{Path: path, Collection: collection, Err: err}
	}
	if info.IsDir() {
		return OpenCSV(env, filepath.Join(path, collection+".csv"), collection)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return OpenCSV(env, path, collection)
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(ctx, env, path, collection)
	case ".yaml", ".yml":
		return OpenYAML(env, path, collection)
	default:
		return nil, &OpenError{Path: path, Collection: collection, Err: fmt.Errorf("unsupported file type %q", ext)}
	}
}
