// Package jsontree models a JSON locale document as an ordered tree.
//
// A document is a tree of Nodes. Objects are the only containers that are
// walked: arrays are kept whole as opaque leaves, like strings, numbers,
// booleans and null. Object key order is preserved from the input so that
// rewritten locale files stay diff-friendly.
//
// Leaf positions are addressed by dot-paths ("app.menu.title").
package jsontree

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Node.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Node is one value of a locale document.
type Node struct {
	kind Kind

	// text holds the string value, or the literal of a number.
	text    string
	boolean bool
	items   []*Node

	keys   []string
	fields map[string]*Node
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{kind: KindObject, fields: make(map[string]*Node)}
}

// String returns a string leaf.
func String(s string) *Node {
	return &Node{kind: KindString, text: s}
}

// Number returns a number leaf from its JSON literal (e.g. "3", "1.5e3").
func Number(literal string) *Node {
	return &Node{kind: KindNumber, text: literal}
}

// Bool returns a boolean leaf.
func Bool(b bool) *Node {
	return &Node{kind: KindBool, boolean: b}
}

// Null returns a null leaf.
func Null() *Node {
	return &Node{kind: KindNull}
}

// Array returns an array leaf holding items.
func Array(items ...*Node) *Node {
	return &Node{kind: KindArray, items: items}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Kind returns the variant of n. A nil node reports KindNull.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

// IsObject reports whether n is a container that flattening recurses into.
func (n *Node) IsObject() bool {
	return n != nil && n.kind == KindObject
}

// IsLeaf reports whether n is anything but an object.
func (n *Node) IsLeaf() bool {
	return !n.IsObject()
}

// StringValue returns the value of a string leaf.
func (n *Node) StringValue() (string, bool) {
	if n == nil || n.kind != KindString {
		return "", false
	}
	return n.text, true
}

// Items returns the elements of an array leaf.
func (n *Node) Items() []*Node {
	if n == nil || n.kind != KindArray {
		return nil
	}
	return n.items
}

// Keys returns the field names of an object in document order.
func (n *Node) Keys() []string {
	if !n.IsObject() {
		return nil
	}
	return n.keys
}

// Len returns the number of fields of an object, or 0 for leaves.
func (n *Node) Len() int {
	if !n.IsObject() {
		return 0
	}
	return len(n.keys)
}

// Field returns the direct child named key.
func (n *Node) Field(key string) (*Node, bool) {
	if !n.IsObject() {
		return nil, false
	}
	child, ok := n.fields[key]
	return child, ok
}

// SetField sets a direct child. Existing fields keep their position,
// new fields are appended.
func (n *Node) SetField(key string, child *Node) {
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = child
}

// Text coerces a leaf to its string form the way a JavaScript String()
// call does: numbers in shortest decimal form ("1.0" and "1e2" become "1"
// and "100"), arrays as their elements joined with commas, null and
// booleans by their JSON spelling. Objects coerce to "[object Object]";
// they never appear at a flattened path.
func (n *Node) Text() string {
	switch n.Kind() {
	case KindString:
		return n.text
	case KindNumber:
		return numberText(n.text)
	case KindBool:
		if n.boolean {
			return "true"
		}
		return "false"
	case KindNull:
		return "null"
	case KindArray:
		parts := make([]string, len(n.Items()))
		for i, it := range n.Items() {
			// null elements join as empty strings
			if it.Kind() != KindNull {
				parts[i] = it.Text()
			}
		}
		return strings.Join(parts, ",")
	}
	return "[object Object]"
}

func numberText(literal string) string {
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return literal
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// IsEmpty reports whether a leaf counts as missing content: null, absent
// (nil) or the empty string.
func (n *Node) IsEmpty() bool {
	switch n.Kind() {
	case KindNull:
		return true
	case KindString:
		return n.text == ""
	}
	return false
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{kind: n.kind, text: n.text, boolean: n.boolean}
	if n.items != nil {
		c.items = make([]*Node, len(n.items))
		for i, it := range n.items {
			c.items[i] = it.Clone()
		}
	}
	if n.kind == KindObject {
		c.keys = make([]string, len(n.keys))
		copy(c.keys, n.keys)
		c.fields = make(map[string]*Node, len(n.fields))
		for k, v := range n.fields {
			c.fields[k] = v.Clone()
		}
	}
	return c
}

// Equal reports deep equality. Object field order is not significant.
func Equal(a, b *Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindString:
		return a.text == b.text
	case KindNumber:
		return numberText(a.text) == numberText(b.text)
	case KindBool:
		return a.boolean == b.boolean
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for k, av := range a.fields {
			bv, ok := b.fields[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}
