package tree

import "slices"

// Tagged returns registered entities carrying tag.
func (t *Tree) Tagged(tag string) []*Entity {
	var out []*Entity
	for _, e := range t.nodes {
		if e.HasTag(tag) {
			out = append(out, e)
		}
	}
	return out
}

// AllTags returns the sorted set of tags used by registered entities.
func (t *Tree) AllTags() []string {
	var out []string
	for _, e := range t.nodes {
		for _, tag := range e.tags {
			if i, found := slices.BinarySearch(out, tag); !found {
				out = slices.Insert(out, i, tag)
			}
		}
	}
	return out
}
