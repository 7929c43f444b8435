package engine

import "bytes"

// Target classifies what a key resolves to.
type Target uint8

const (
	TargetUnknown Target = iota
	TargetLeaf
	TargetNested
)

// Resolution is the outcome of resolving one key. Index is meaningful only for
// TargetLeaf.
type Resolution struct {
	Target Target
	Index  int
}

// NestedSeparator joins a nested group prefix and a member key.
const NestedSeparator = '.'

// Resolver maps object keys to column positions. Objects usually repeat their
// key order row after row, so each key position remembers the last key seen
// there and its resolution; the name map is consulted only on a mismatch.
//
// A Resolver is not safe for concurrent use.
type Resolver struct {
	names map[string]Resolution
	slots []slot
}

type slot struct {
	key []byte
	res Resolution
	set bool
}

// NewResolver builds the name map for the given leaf column names. With nested
// enabled every dotted prefix of a leaf name ("a" and "a.b" for "a.b.c") is
// registered as a nested group, unless the same text is itself a leaf.
func NewResolver(names []string, nested bool) *Resolver {
	r := &Resolver{
		names: make(map[string]Resolution, len(names)),
		slots: make([]slot, len(names)),
	}
	for i, name := range names {
		r.names[name] = Resolution{Target: TargetLeaf, Index: i}
	}
	if !nested {
		return r
	}
	for _, name := range names {
		for i := 0; i < len(name); i++ {
			if name[i] != NestedSeparator || i == 0 {
				continue
			}
			prefix := name[:i]
			if _, ok := r.names[prefix]; !ok {
				r.names[prefix] = Resolution{Target: TargetNested}
			}
		}
	}
	return r
}

// Resolve returns the resolution for key, using hint (the key's ordinal inside
// its object) to try the position cache first. A hit in the name map refreshes
// the slot; an unknown key leaves the cache untouched.
func (r *Resolver) Resolve(key []byte, hint int) Resolution {
	if hint < len(r.slots) {
		if s := &r.slots[hint]; s.set && bytes.Equal(s.key, key) {
			return s.res
		}
	}
	res, ok := r.names[string(key)]
	if !ok {
		return Resolution{Target: TargetUnknown}
	}
	for hint >= len(r.slots) {
		r.slots = append(r.slots, slot{})
	}
	s := &r.slots[hint]
	s.key = append(s.key[:0], key...)
	s.res = res
	s.set = true
	return res
}
