package critical

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Chunk is a single entry of Vite build manifest.
type Chunk struct {
	File           string   `json:"file"`
	Name           string   `json:"name,omitempty"`
	Src            string   `json:"src,omitempty"`
	CSS            []string `json:"css,omitempty"`
	IsEntry        bool     `json:"isEntry,omitempty"`
	IsDynamicEntry bool     `json:"isDynamicEntry,omitempty"`
	Imports        []string `json:"imports,omitempty"`
	DynamicImports []string `json:"dynamicImports,omitempty"`
}

// Bundle describes build output pages belong to.
type Bundle struct {
	Chunks map[string]Chunk

	// css files produced by the build, relative to output directory
	stylesheets map[string]struct{}
}

// LoadBundle reads Vite manifest.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vite manifest: %w", err)
	}
	b := &Bundle{}
	if err := json.Unmarshal(data, &b.Chunks); err != nil {
		return nil, fmt.Errorf("failed to parse vite manifest: %w", err)
	}

	b.stylesheets = make(map[string]struct{})
	for _, c := range b.Chunks {
		for _, f := range c.CSS {
			b.stylesheets[f] = struct{}{}
		}
		if strings.HasSuffix(c.File, ".css") {
			b.stylesheets[c.File] = struct{}{}
		}
	}
	return b, nil
}

// Produced reports if stylesheet referenced from markup was emitted by the
// build. References are compared without leading slash, query and fragment.
func (b *Bundle) Produced(id string) bool {
	if b == nil {
		return false
	}
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		id = id[:i]
	}
	_, ok := b.stylesheets[strings.TrimPrefix(id, "/")]
	return ok
}

// Stylesheets returns number of distinct css files in the bundle.
func (b *Bundle) Stylesheets() int {
	if b == nil {
		return 0
	}
	return len(b.stylesheets)
}
