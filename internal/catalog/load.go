package catalog

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Document layout of catalog.yaml.
type document struct {
	Categories []categoryDoc `yaml:"categories"`
	Entries    []entryDoc    `yaml:"entries"`
	Presets    []presetDoc   `yaml:"presets"`
}

type categoryDoc struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

type entryDoc struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Category    string      `yaml:"category"`
	URL         string      `yaml:"url"`
	Tags        []string    `yaml:"tags"`
	Binary      *string     `yaml:"binary"`
	Methods     []methodDoc `yaml:"methods"`
}

type methodDoc struct {
	OS      string `yaml:"os"`
	Manager string `yaml:"manager"`
	Package string `yaml:"package"`
	Script  string `yaml:"script"`
	Manual  string `yaml:"manual"`
}

type presetDoc struct {
	Name string   `yaml:"name"`
	IDs  []string `yaml:"ids"`
	Tags []string `yaml:"tags"`
	All  bool     `yaml:"all"`
}

// Load parses and validates a catalog document. Unknown fields, duplicate
// ids, entries without a usable method and dangling references are errors.
func Load(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}

	c := &Catalog{index: make(map[string]int, len(doc.Entries))}
	catOrder := make(map[string]int, len(doc.Categories))
	for i, cd := range doc.Categories {
		if cd.ID == "" || cd.Name == "" {
			return nil, fmt.Errorf("catalog: category %d: id and name are required", i)
		}
		if _, dup := catOrder[cd.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate category %q", cd.ID)
		}
		catOrder[cd.ID] = i
		c.categories = append(c.categories, Category(cd))
	}

	seen := make(map[string]bool, len(doc.Entries))
	for _, ed := range doc.Entries {
		e, err := ed.entry()
		if err != nil {
			return nil, err
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("catalog: duplicate entry id %q", e.ID)
		}
		seen[e.ID] = true
		if _, ok := catOrder[e.Category]; !ok {
			return nil, fmt.Errorf("catalog: entry %q: unknown category %q", e.ID, e.Category)
		}
		c.entries = append(c.entries, e)
	}

	sort.SliceStable(c.entries, func(i, j int) bool {
		return catOrder[c.entries[i].Category] < catOrder[c.entries[j].Category]
	})
	for i, e := range c.entries {
		c.index[e.ID] = i
	}

	for _, pd := range doc.Presets {
		for _, id := range pd.IDs {
			if !seen[id] {
				return nil, fmt.Errorf("catalog: preset %q: unknown entry %q", pd.Name, id)
			}
		}
		c.presets = append(c.presets, Preset(pd))
	}
	return c, nil
}

func (ed entryDoc) entry() (Entry, error) {
	if ed.ID == "" {
		return Entry{}, fmt.Errorf("catalog: entry without id (name %q)", ed.Name)
	}
	if ed.Name == "" {
		return Entry{}, fmt.Errorf("catalog: entry %q: name is required", ed.ID)
	}
	if len(ed.Methods) == 0 {
		return Entry{}, fmt.Errorf("catalog: entry %q: at least one install method is required", ed.ID)
	}
	e := Entry{
		ID:          ed.ID,
		Name:        ed.Name,
		Description: ed.Description,
		Category:    ed.Category,
		URL:         ed.URL,
		Tags:        ed.Tags,
		Binary:      ed.ID,
	}
	if ed.Binary != nil {
		e.Binary = *ed.Binary
	}
	for i, md := range ed.Methods {
		m, err := md.method()
		if err != nil {
			return Entry{}, fmt.Errorf("catalog: entry %q: method %d: %w", ed.ID, i, err)
		}
		e.Methods = append(e.Methods, m)
	}
	return e, nil
}

func (md methodDoc) method() (Method, error) {
	switch md.OS {
	case "", Darwin, Linux:
	default:
		return Method{}, fmt.Errorf("unsupported os %q", md.OS)
	}
	set := 0
	for _, s := range []string{md.Manager, md.Script, md.Manual} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return Method{}, fmt.Errorf("exactly one of manager, script or manual must be set")
	}
	switch {
	case md.Manager != "":
		mgr := Manager(md.Manager)
		if mgr.Program() == "" {
			return Method{}, fmt.Errorf("unknown manager %q", md.Manager)
		}
		if md.Package == "" {
			return Method{}, fmt.Errorf("manager %q needs a package", md.Manager)
		}
		if mgr == Cask && md.OS != Darwin {
			return Method{}, fmt.Errorf("cask methods must be restricted to darwin")
		}
		return Method{Kind: MethodPackage, OS: md.OS, Manager: mgr, Package: md.Package}, nil
	case md.Script != "":
		return Method{Kind: MethodScript, OS: md.OS, Script: md.Script}, nil
	default:
		return Method{Kind: MethodManual, OS: md.OS, Note: md.Manual}, nil
	}
}
