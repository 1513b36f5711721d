package jsontree

import (
	"strings"
)

// PathSeparator joins object field names into a dot-path.
const PathSeparator = "."

// FlatMap maps dot-paths to the string form of their leaf values,
// remembering the depth-first order in which paths were found.
type FlatMap struct {
	keys   []string
	values map[string]string
}

// NewFlatMap returns an empty FlatMap.
func NewFlatMap() *FlatMap {
	return &FlatMap{values: make(map[string]string)}
}

// Put records a path. Re-putting an existing path keeps its position.
func (f *FlatMap) Put(path, value string) {
	if _, ok := f.values[path]; !ok {
		f.keys = append(f.keys, path)
	}
	f.values[path] = value
}

// Get returns the value at path.
func (f *FlatMap) Get(path string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[path]
	return v, ok
}

// Keys returns the paths in insertion order.
func (f *FlatMap) Keys() []string {
	if f == nil {
		return nil
	}
	return f.keys
}

// Len returns the number of paths.
func (f *FlatMap) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Map returns a copy of the path -> value mapping.
func (f *FlatMap) Map() map[string]string {
	out := make(map[string]string, f.Len())
	if f == nil {
		return out
	}
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// Traversal
// ---------------------------------------------------------------------------

// Flatten walks doc depth-first and records every leaf under its dot-path.
// Only objects are recursed into; arrays and null are leaves. Empty objects
// contribute no paths.
func Flatten(doc *Node) *FlatMap {
	fm := NewFlatMap()
	walk(doc, "", func(path string, leaf *Node) {
		fm.Put(path, leaf.Text())
	})
	return fm
}

// AllKeys returns the dot-paths of every leaf in doc, in Flatten order.
func AllKeys(doc *Node) []string {
	var keys []string
	walk(doc, "", func(path string, _ *Node) {
		keys = append(keys, path)
	})
	return keys
}

// CountKeys returns len(AllKeys(doc)) without allocating the paths.
func CountKeys(doc *Node) int {
	n := 0
	walk(doc, "", func(string, *Node) { n++ })
	return n
}

func walk(n *Node, prefix string, visit func(path string, leaf *Node)) {
	if !n.IsObject() {
		return
	}
	for _, k := range n.keys {
		path := k
		if prefix != "" {
			path = prefix + PathSeparator + k
		}
		child := n.fields[k]
		if child.IsObject() {
			walk(child, path, visit)
			continue
		}
		visit(path, child)
	}
}

// ---------------------------------------------------------------------------
// Path access
// ---------------------------------------------------------------------------

// Get resolves a dot-path. The boolean is false when any segment is absent
// or an intermediate segment is not an object; a present null leaf returns
// a KindNull node and true.
func Get(doc *Node, path string) (*Node, bool) {
	cur := doc
	for _, seg := range strings.Split(path, PathSeparator) {
		next, ok := cur.Field(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Set stores value at a dot-path, creating intermediate objects as needed.
// A non-object found at an intermediate segment is replaced by an object.
// If doc itself is not an object it is turned into an empty one first.
func Set(doc *Node, path string, value *Node) {
	if !doc.IsObject() {
		*doc = *NewObject()
	}
	segs := strings.Split(path, PathSeparator)
	cur := doc
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.Field(seg)
		if !ok || !next.IsObject() {
			next = NewObject()
			cur.SetField(seg, next)
		}
		cur = next
	}
	cur.SetField(segs[len(segs)-1], value)
}
