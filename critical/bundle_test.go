package critical

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const manifest = `{
  "index.html": {
    "file": "assets/index-B1x.js",
    "name": "index",
    "src": "index.html",
    "isEntry": true,
    "imports": ["_shared-C2y.js"],
    "css": ["assets/index-D3z.css"]
  },
  "_shared-C2y.js": {
    "file": "assets/shared-C2y.js",
    "css": ["assets/shared-E4w.css"]
  },
  "style.css": {
    "file": "assets/style-F5v.css",
    "src": "style.css"
  }
}`

func TestLoadBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	b, err := LoadBundle(path)
	if err != nil {
		t.Fatalf("LoadBundle() error = %v", err)
	}
	if len(b.Chunks) != 3 || !b.Chunks["index.html"].IsEntry {
		t.Errorf("Chunks = %+v", b.Chunks)
	}
	if b.Stylesheets() != 3 {
		t.Errorf("Stylesheets() = %d, want 3", b.Stylesheets())
	}

	tests := []struct {
		id   string
		want bool
	}{
		{"/assets/index-D3z.css", true},
		{"assets/shared-E4w.css", true},
		{"/assets/style-F5v.css?v=1", true},
		{"/assets/other.css", false},
		{"https://cdn.example.com/assets/index-D3z.css", false},
	}
	for _, tt := range tests {
		if got := b.Produced(tt.id); got != tt.want {
			t.Errorf("Produced(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestLoadBundle_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadBundle(filepath.Join(dir, "absent.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("LoadBundle(absent) error = %v, want not exist", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("[1,2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBundle(bad); err == nil {
		t.Error("expected error for malformed manifest")
	}
}

func TestBundle_Nil(t *testing.T) {
	var b *Bundle
	if b.Produced("/a.css") || b.Stylesheets() != 0 {
		t.Error("nil bundle must not produce anything")
	}
}
