package formfill

import "sort"

// Mapping resolves logical keys to physical field names. A key with no entry
// is tried as a literal field name instead.
type Mapping map[string]string

// Field returns the mapped physical field for key.
func (m Mapping) Field(key string) (string, bool) {
	f, ok := m[key]
	return f, ok
}

// BuildMapping resolves every key in the pattern table against the catalog.
//
// For each key an exact case-insensitive name match wins outright. Otherwise
// the key's fragments are tried in table order and the first catalog entry
// whose normalized name contains the fragment is taken. Catalog order decides
// between several entries matching the same fragment.
func BuildMapping(catalog *Catalog, patterns *Patterns) Mapping {
	m := make(Mapping, len(patterns.Fields))
	for _, fp := range patterns.Fields {
		if name, ok := resolveKey(catalog, fp); ok {
			m[fp.Key] = name
		}
	}
	return m
}

func resolveKey(catalog *Catalog, fp FieldPattern) (string, bool) {
	if name, ok := catalog.Lookup(fp.Key); ok {
		return name, true
	}
	for _, frag := range fp.Fragments {
		if name, ok := catalog.FirstContaining(frag); ok {
			return name, true
		}
	}
	return "", false
}

// Reverse groups logical keys by the physical field they resolved to.
func (m Mapping) Reverse() map[string][]string {
	out := make(map[string][]string, len(m))
	for k, f := range m {
		out[f] = append(out[f], k)
	}
	for _, keys := range out {
		sort.Strings(keys)
	}
	return out
}
