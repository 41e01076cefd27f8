// Package file serves worlds from world files on disk.
//
// The DSN path names either one world file or a directory of them. In a
// directory, the world "eldoria" is read from the first of eldoria.json,
// eldoria.toml, eldoria.yaml and eldoria.yml that exists.
package file

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/graph"
	"github.com/worldloom/worldloom/pkg/source"
	"github.com/worldloom/worldloom/pkg/world"
)

// Kind is the source kind reported by Source.
const Kind = "file"

var extensions = []string{".json", ".toml", ".yaml", ".yml"}

func init() {
	source.Register("file", func(_ context.Context, dsn *url.URL) (source.Source, error) {
		path := dsn.Path
		if dsn.Host != "" {
			// file://relative/path parses "relative" as the host.
			path = dsn.Host + path
		}
		return Open(path)
	})
}

// Source reads world files from a file or directory.
type Source struct {
	path string
	dir  bool
}

// Open checks that path exists.
func Open(path string) (*Source, error) {
	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "file source path cannot be empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "file source %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "stat %s", path)
	}
	if !info.IsDir() {
		if err := errors.ValidateWorldFilename(filepath.Base(path)); err != nil {
			return nil, err
		}
	}
	return &Source{path: path, dir: info.IsDir()}, nil
}

// Kind returns "file".
func (s *Source) Kind() string { return Kind }

// List returns the world ids in the directory, or the id of the single file.
func (s *Source) List(ctx context.Context) ([]string, error) {
	if !s.dir {
		w, err := graph.ReadWorldFile(s.path)
		if err != nil {
			return nil, err
		}
		return []string{w.ID}, nil
	}

	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list %s", s.path)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || errors.ValidateWorldFilename(e.Name()) != nil {
			continue
		}
		id := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Load reads one world. For a single-file source, id must be empty or match
// the world's id.
func (s *Source) Load(ctx context.Context, id string) (*world.World, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.dir {
		w, err := graph.ReadWorldFile(s.path)
		if err != nil {
			return nil, err
		}
		if id != "" && id != w.ID {
			return nil, source.NotFound(Kind, id)
		}
		return &w, nil
	}

	if err := errors.ValidateWorldID(id); err != nil {
		return nil, err
	}
	if strings.ContainsAny(id, `/\`) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "world id %q cannot contain path separators", id)
	}
	for _, ext := range extensions {
		path := filepath.Join(s.path, id+ext)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		w, err := graph.ReadWorldFile(path)
		if err != nil {
			return nil, err
		}
		return &w, nil
	}
	return nil, source.NotFound(Kind, id)
}

// Save writes w as JSON into the directory. Single-file sources overwrite
// their file in its own format.
func (s *Source) Save(ctx context.Context, w *world.World) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if !s.dir {
		return graph.WriteWorldFile(*w, s.path)
	}
	if err := errors.ValidateWorldID(w.ID); err != nil {
		return err
	}
	return graph.WriteWorldFile(*w, filepath.Join(s.path, w.ID+".json"))
}

// Close does nothing.
func (s *Source) Close() error { return nil }

var (
	_ source.Source = (*Source)(nil)
	_ source.Writer = (*Source)(nil)
)
