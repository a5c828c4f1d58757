package warc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nao1215/warcscan/internal/model"
)

// ErrNoArchives is returned when a directory holds no WARC archive.
var ErrNoArchives = errors.New("no WARC archives found")

// Open opens the archive at path. The caller must Close the Reader.
func Open(path string, opts ...ReaderOption) (*Reader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	opts = append([]ReaderOption{WithName(filepath.Base(path))}, opts...)
	r, err := NewReader(f, opts...)
	if err != nil {
		_ = f.Close() //nolint:errcheck // already returning the read error
		return nil, err
	}
	r.closers = append([]io.Closer{f}, r.closers...)
	return r, nil
}

// IsArchive reports whether path names a WARC archive by its extension.
func IsArchive(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(name, ".warc") || strings.HasSuffix(name, ".warc.gz")
}

// FindArchives returns the archives in dir, recursively, sorted by path.
func FindArchives(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsArchive(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoArchives, dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// ExpandPaths turns command line arguments into a sorted list of archives.
// Directories are searched; files are taken as given.
func ExpandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", arg, err)
		}
		if info.IsDir() {
			found, err := FindArchives(arg)
			if err != nil {
				return nil, err
			}
			paths = append(paths, found...)
			continue
		}
		paths = append(paths, arg)
	}
	sort.Strings(paths)
	return paths, nil
}

// MultiSource reads several archives back to back as one RecordSource.
// Archives are opened lazily, one at a time, in the given order.
type MultiSource struct {
	paths   []string
	opts    []ReaderOption
	current *Reader
	next    int
	logger  *slog.Logger
}

// NewMultiSource creates a source over paths.
func NewMultiSource(paths []string, opts ...ReaderOption) *MultiSource {
	m := &MultiSource{
		paths:  paths,
		opts:   opts,
		logger: slog.Default(),
	}
	applied := &Reader{}
	for _, opt := range opts {
		opt(applied)
	}
	if applied.logger != nil {
		m.logger = applied.logger
	}
	return m
}

// Next implements model.RecordSource.
func (m *MultiSource) Next(ctx context.Context) (*model.Record, error) {
	for {
		if m.current == nil {
			if m.next >= len(m.paths) {
				return nil, io.EOF
			}
			path := m.paths[m.next]
			m.next++

			r, err := Open(path, m.opts...)
			if err != nil {
				return nil, err
			}
			m.logger.Info("reading archive", "archive", path)
			m.current = r
		}

		rec, err := m.current.Next(ctx)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, io.EOF) {
			return nil, err
		}

		m.logger.Debug("archive exhausted",
			"archive", m.current.Name(),
			"records", m.current.Records,
			"skipped", m.current.Skipped,
		)
		if cerr := m.current.Close(); cerr != nil {
			m.logger.Warn("failed to close archive", "archive", m.current.Name(), "error", cerr)
		}
		m.current = nil
	}
}

// Close closes the archive being read, if any.
func (m *MultiSource) Close() error {
	if m.current == nil {
		return nil
	}
	err := m.current.Close()
	m.current = nil
	return err
}

// Paths returns the archives of the source in reading order.
func (m *MultiSource) Paths() []string {
	return m.paths
}
