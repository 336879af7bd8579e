package prayer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a prayer id is not in the catalog.
var ErrNotFound = errors.New("prayer not found")

//go:embed prayers.json
var bundled []byte

// Catalog is an immutable collection of prayers indexed by id.
// The zero value is an empty catalog.
type Catalog struct {
	prayers []Prayer
	byID    map[string]int
}

// Bundled returns the catalog shipped with the binary.
func Bundled() (*Catalog, error) {
	return Load(bytes.NewReader(bundled))
}

// LoadFile reads a catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	return Load(file)
}

// Load decodes a catalog document. Duplicate ids are rejected.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	c := &Catalog{
		prayers: make([]Prayer, 0, len(doc.Prayers)),
		byID:    make(map[string]int, len(doc.Prayers)),
	}
	for _, p := range doc.Prayers {
		if p.ID == "" {
			return nil, fmt.Errorf("prayer %q has no id", p.Title)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate prayer id %q", p.ID)
		}
		if _, ok := p.Translations[FallbackLanguage]; !ok {
			logrus.WithField("prayer", p.ID).Warn("Prayer has no English text")
		}
		c.byID[p.ID] = len(c.prayers)
		c.prayers = append(c.prayers, p)
	}

	logrus.WithField("prayers", len(c.prayers)).Debug("Loaded prayer catalog")
	return c, nil
}

// Lookup returns the prayer with the given id.
func (c *Catalog) Lookup(id string) (Prayer, bool) {
	if c == nil {
		return Prayer{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Prayer{}, false
	}
	return c.prayers[i], true
}

// Get is Lookup with an error for callers that report it.
func (c *Catalog) Get(id string) (Prayer, error) {
	p, ok := c.Lookup(id)
	if !ok {
		return Prayer{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// All returns the prayers in document order.
func (c *Catalog) All() []Prayer {
	if c == nil {
		return nil
	}
	out := make([]Prayer, len(c.prayers))
	copy(out, c.prayers)
	return out
}

// Len reports the number of prayers.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.prayers)
}

// Languages lists every translation language present, sorted.
func (c *Catalog) Languages() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, p := range c.prayers {
		for lang := range p.Translations {
			seen[lang] = struct{}{}
		}
	}
	langs := make([]string, 0, len(seen))
	for lang := range seen {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
