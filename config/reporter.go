package config

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"

	"critcss/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates empty report archive at configured destination, falling
// back to a temporary file.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{
		entries: make(map[string]entry),
		pages:   make(map[string]int),
	}
	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entryKind int

const (
	entryFile entryKind = iota // read from disk when report is closed
	entryCopy                  // snapshot taken when stored
	entryData                  // kept in memory
)

func (k entryKind) String() string {
	switch k {
	case entryCopy:
		return "copy"
	case entryData:
		return "data"
	}
	return "file"
}

type entry struct {
	kind   entryKind
	source string // path given by caller
	path   string // path read when archive is written
	stamp  time.Time
	data   []byte
}

// Report collects debug artifacts: configuration, logs, build manifest and
// per page skeletons, critical css and purge traces. Nothing is written
// until Close. All methods are safe for concurrent use and on nil Report,
// which means no report was requested.
type Report struct {
	mu      sync.Mutex
	entries map[string]entry
	pages   map[string]int // page directory -> times used
	temps   []string       // snapshot directories removed on Close
	file    *os.File
}

// Name returns absolute name of report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// PageDir returns archive directory (with trailing slash) for artifacts of
// a page. Page transformed more than once gets a new directory every time:
// "pages/name/", "pages/name-2/" and so on.
func (r *Report) PageDir(name string) string {
	if r == nil {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pages == nil {
		r.pages = make(map[string]int)
	}
	r.pages[name]++
	if n := r.pages[name]; n > 1 {
		return fmt.Sprintf("pages/%s-%d/", name, n)
	}
	return "pages/" + name + "/"
}

// add registers entry, name is versioned on collision. Must be called with
// mutex held.
func (r *Report) add(name string, e entry) {
	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, time.Now().UnixNano())
	}
	r.entries[name] = e
}

// Store puts file into archive as it is when report is closed.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	e := entry{kind: entryFile, source: path, path: path}
	if p, err := filepath.Abs(path); err == nil {
		e.path = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(name, e)
}

// StoreData puts data into archive under name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	e := entry{kind: entryData, data: data, stamp: time.Now()}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(name, e)
}

// StoreCopy puts file into archive as it is now. Pages are rewritten in
// place, so inputs have to be captured before that happens.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}

	src, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("unable to store copy of %s: not a regular file", path)
	}

	dir, err := os.MkdirTemp("", misc.GetAppName()+"-r-")
	if err != nil {
		return err
	}
	dst, err := copyFile(dir, src, info.ModTime())
	if err != nil {
		return multierr.Append(err, os.RemoveAll(dir))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.temps = append(r.temps, dir)
	r.add(name, entry{kind: entryCopy, source: path, path: dst, stamp: time.Now()})
	return nil
}

// Close writes report archive and removes snapshots.
func (r *Report) Close() (err error) {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, dir := range r.temps {
		defer func() { err = multierr.Append(err, os.RemoveAll(dir)) }()
	}
	r.temps = nil

	if r.file == nil {
		return nil
	}
	defer func() { err = multierr.Append(err, r.file.Close()) }()
	return r.write()
}

// write puts MANIFEST followed by all entries in name order into archive.
func (r *Report) write() (err error) {
	arc := zip.NewWriter(r.file)
	defer func() { err = multierr.Append(err, arc.Close()) }()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()
	if err := saveFile(arc, "MANIFEST", now, manifest(names, r.entries, now)); err != nil {
		return err
	}
	for _, name := range names {
		if err := r.writeEntry(arc, name, r.entries[name]); err != nil {
			return fmt.Errorf("unable to put %s into report: %w", name, err)
		}
	}
	return nil
}

func (r *Report) writeEntry(arc *zip.Writer, name string, e entry) error {
	if e.kind == entryData {
		return saveFile(arc, name, e.stamp, bytes.NewReader(e.data))
	}

	f, err := os.Open(e.path)
	if errors.Is(err, os.ErrNotExist) {
		// log files may never be created
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return saveFile(arc, name, info.ModTime(), f)
}

func manifest(names []string, entries map[string]entry, now time.Time) io.Reader {
	buf := new(bytes.Buffer)
	for _, name := range names {
		e := entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s", stamp.UTC().Format(time.UnixDate), e.kind, name)
		if len(e.source) > 0 {
			fmt.Fprintf(buf, "\t%s", e.source)
		}
		buf.WriteByte('\n')
	}
	return buf
}

func copyFile(dir, src string, modTime time.Time) (string, error) {
	dst := filepath.Join(dir, filepath.Base(src))

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	if err := os.Chtimes(dst, modTime, modTime); err != nil {
		return "", err
	}
	return dst, nil
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
