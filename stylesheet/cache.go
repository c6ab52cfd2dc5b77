// Package stylesheet loads and memoizes content of local stylesheets
// referenced by generated pages.
package stylesheet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrNotFound is returned when referenced stylesheet is absent from
	// output directory.
	ErrNotFound = errors.New("stylesheet not found")
	// ErrIO is returned for any other failure to read stylesheet.
	ErrIO = errors.New("unable to read stylesheet")
)

// Entry is a single cached stylesheet. ID is the reference as it appears in
// markup, Content is decoded text of the file.
type Entry struct {
	ID      string
	Content string
}

// Cache keeps stylesheet content for the duration of a single build. Entries
// are never evicted or re-read, first stored entry for an id wins.
type Cache struct {
	log     *zap.Logger
	entries sync.Map // id -> *Entry

	// replaced in tests
	read func(name string) ([]byte, error)
}

// NewCache creates empty cache.
func NewCache(log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		log:  log.Named("stylesheet"),
		read: os.ReadFile,
	}
}

// Get returns content of stylesheet referenced as id, reading it from
// outputDir on first request.
func (c *Cache) Get(id, outputDir string) (string, error) {
	if e, ok := c.entries.Load(id); ok {
		return e.(*Entry).Content, nil
	}

	path := Path(id, outputDir)
	data, err := c.read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s (%s): %w", ErrNotFound, id, path, err)
		}
		return "", fmt.Errorf("%w: %s (%s): %w", ErrIO, id, path, err)
	}

	content, err := decode(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s (%s): %w", ErrIO, id, path, err)
	}

	e, loaded := c.entries.LoadOrStore(id, &Entry{ID: id, Content: content})
	if !loaded {
		c.log.Debug("Stylesheet cached", zap.String("id", id), zap.String("path", path), zap.Int("bytes", len(content)))
	}
	return e.(*Entry).Content, nil
}

// Lookup returns cached content without touching the filesystem.
func (c *Cache) Lookup(id string) (string, bool) {
	if e, ok := c.entries.Load(id); ok {
		return e.(*Entry).Content, true
	}
	return "", false
}

// Len returns number of cached entries.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Path maps stylesheet reference to the file under output directory. Query
// and fragment parts of the reference are not part of the file name.
func Path(id, outputDir string) string {
	name := id
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	return filepath.Join(outputDir, filepath.FromSlash(strings.TrimPrefix(name, "/")))
}

// decode interprets stylesheet as UTF-8, dropping BOM if present. UTF-16
// files with proper BOM are converted as well.
func decode(data []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
