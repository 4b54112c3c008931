// Package catalog holds the fixed table of installable items, their
// categories and the per-platform methods used to install them.
//
// The table is read once from an embedded YAML document and never changes
// afterwards, so a *Catalog can be shared freely between goroutines.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
)

//go:embed catalog.yaml
var defaultData []byte

var (
	// ErrNotFound is returned when an id is not in the catalog.
	ErrNotFound = errors.New("catalog: entry not found")
	// ErrUnsupported is returned when an entry has no install method usable on a platform.
	ErrUnsupported = errors.New("catalog: no install method for platform")
	// ErrUnknownPreset is returned for a preset name the catalog does not define.
	ErrUnknownPreset = errors.New("catalog: unknown preset")
)

// Category groups entries for display.
type Category struct {
	ID   string
	Name string
	Icon string
}

// Entry is one installable item.
type Entry struct {
	ID          string
	Name        string
	Description string
	Category    string
	URL         string
	Tags        []string
	// Binary is the executable used by path probes. Empty means the entry
	// installs nothing that can be looked up on PATH.
	Binary  string
	Methods []Method
}

// HasTag reports whether the entry carries tag.
func (e Entry) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}

func (e Entry) clone() Entry {
	e.Tags = slices.Clone(e.Tags)
	e.Methods = slices.Clone(e.Methods)
	return e
}

// Preset is a named, fixed subset of the catalog.
type Preset struct {
	Name string
	IDs  []string
	Tags []string
	All  bool
}

// Catalog is the immutable table. The zero value is empty; use Load or Default.
type Catalog struct {
	categories []Category
	entries    []Entry
	index      map[string]int
	presets    []Preset
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Load(defaultData)
})

// Default returns the built-in catalog. It is parsed on first use and shared
// afterwards.
func Default() (*Catalog, error) {
	return loadDefault()
}

// Categories returns the categories in display order.
func (c *Catalog) Categories() []Category {
	return slices.Clone(c.categories)
}

// Category looks up a category by id.
func (c *Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Entries returns every entry in catalog order: grouped by category in
// category order, and in declaration order inside a category.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

// Len is the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entry returns the entry with the given id.
func (c *Catalog) Entry(id string) (Entry, error) {
	i, ok := c.index[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.entries[i].clone(), nil
}

// Has reports whether id names an entry.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// ByCategory returns the entries in one category.
func (c *Catalog) ByCategory(category string) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Category == category {
			out = append(out, e.clone())
		}
	}
	return out
}

// ByTag returns the entries carrying tag.
func (c *Catalog) ByTag(tag string) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.HasTag(tag) {
			out = append(out, e.clone())
		}
	}
	return out
}

// Essentials returns the ids tagged "essential".
func (c *Catalog) Essentials() []string {
	var ids []string
	for _, e := range c.ByTag("essential") {
		ids = append(ids, e.ID)
	}
	return ids
}

// Order returns the position of id in catalog order, or -1.
func (c *Catalog) Order(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// SortIDs sorts ids into catalog order. Unknown ids go last, alphabetically.
func (c *Catalog) SortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		oi, oj := c.Order(ids[i]), c.Order(ids[j])
		switch {
		case oi < 0 && oj < 0:
			return ids[i] < ids[j]
		case oi < 0:
			return false
		case oj < 0:
			return true
		}
		return oi < oj
	})
}

// Presets returns the preset definitions.
func (c *Catalog) Presets() []Preset {
	return slices.Clone(c.presets)
}

// PresetIDs resolves a preset to its entry ids in catalog order.
func (c *Catalog) PresetIDs(name string) ([]string, error) {
	for _, p := range c.presets {
		if p.Name != name {
			continue
		}
		var ids []string
		for _, e := range c.entries {
			if p.All || slices.Contains(p.IDs, e.ID) || slices.ContainsFunc(p.Tags, e.HasTag) {
				ids = append(ids, e.ID)
			}
		}
		return ids, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// InstallMethod picks the first method of entry id usable on p.
func (c *Catalog) InstallMethod(id string, p Platform) (Method, error) {
	e, err := c.Entry(id)
	if err != nil {
		return Method{}, err
	}
	return e.MethodFor(p)
}

// MethodFor picks the first of the entry's methods usable on p. A package
// method is usable when its manager is present or can be bootstrapped there.
func (e Entry) MethodFor(p Platform) (Method, error) {
	for _, m := range e.Methods {
		if m.OS != "" && m.OS != p.OS {
			continue
		}
		if m.Kind == MethodPackage && !p.Has(m.Manager) && !m.Manager.Bootstrappable(p.OS) {
			continue
		}
		return m, nil
	}
	return Method{}, fmt.Errorf("%w: %s on %s", ErrUnsupported, e.ID, p.OS)
}
