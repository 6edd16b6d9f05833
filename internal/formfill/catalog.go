package formfill

import "strings"

// CatalogEntry pairs a physical field name with its matching key.
type CatalogEntry struct {
	Name       string
	Normalized string
}

// Catalog is the ordered list of fields found in a template. It is built once
// per fill and never changes afterwards.
type Catalog struct {
	entries []CatalogEntry
}

// NewCatalog builds a catalog from field names, keeping their order.
func NewCatalog(names []string) *Catalog {
	entries := make([]CatalogEntry, len(names))
	for i, n := range names {
		entries[i] = CatalogEntry{Name: n, Normalized: Normalize(n)}
	}
	return &Catalog{entries: entries}
}

// Entries returns a copy of the catalog entries.
func (c *Catalog) Entries() []CatalogEntry {
	return append([]CatalogEntry(nil), c.entries...)
}

// Names returns the physical field names in document order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

func (c *Catalog) Len() int { return len(c.entries) }

// Lookup finds the first field whose name equals key ignoring case.
func (c *Catalog) Lookup(key string) (string, bool) {
	for _, e := range c.entries {
		if strings.EqualFold(e.Name, key) {
			return e.Name, true
		}
	}
	return "", false
}

// FirstContaining finds the first field whose normalized name contains fragment.
func (c *Catalog) FirstContaining(fragment string) (string, bool) {
	if fragment == "" {
		return "", false
	}
	for _, e := range c.entries {
		if strings.Contains(e.Normalized, fragment) {
			return e.Name, true
		}
	}
	return "", false
}

// NamesWithAny returns, in catalog order, the fields whose lower-cased name
// contains any of the keywords.
func (c *Catalog) NamesWithAny(keywords ...string) []string {
	var out []string
	for _, e := range c.entries {
		if containsAny(strings.ToLower(e.Name), keywords) {
			out = append(out, e.Name)
		}
	}
	return out
}

// Normalize lower-cases s and drops everything that is not a-z or 0-9.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
