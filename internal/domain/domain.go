package domain

type Category string

const (
	Location     Category = "LOC"
	Organization Category = "ORG"
	Person       Category = "PER"
)

// Categories lists the categories every backend knows about, in a stable order.
var Categories = []Category{Location, Organization, Person}

// EntityMap maps a category to its entity mentions in the order they were found.
// Duplicates are meaningful (repeated mentions) and are never removed implicitly.
type EntityMap map[Category][]string

// Clone returns a deep copy so callers can keep merging without aliasing slices.
func (m EntityMap) Clone() EntityMap {
	if m == nil {
		return nil
	}

	out := make(EntityMap, len(m))
	for category, mentions := range m {
		if mentions == nil {
			out[category] = nil
			continue
		}

		out[category] = append(make([]string, 0, len(mentions)), mentions...)
	}

	return out
}

// Len returns the number of mentions across all categories.
func (m EntityMap) Len() int {
	n := 0
	for _, mentions := range m {
		n += len(mentions)
	}

	return n
}

// FullEmptyEntityMap returns the shape of a result with every category present
// and nothing found.
func FullEmptyEntityMap() EntityMap {
	m := make(EntityMap, len(Categories))
	for _, category := range Categories {
		m[category] = []string{}
	}

	return m
}

// IsFullEmpty reports whether m is exactly the FullEmptyEntityMap shape.
func (m EntityMap) IsFullEmpty() bool {
	if len(m) != len(Categories) {
		return false
	}

	for _, category := range Categories {
		mentions, ok := m[category]
		if !ok || len(mentions) != 0 {
			return false
		}
	}

	return true
}
