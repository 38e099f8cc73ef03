// Package subsonic builds protocol response trees and renders them as XML,
// JSON or JSONP.
//
// A Node has ordered, typed attributes and children. Children added with
// Append are grouped by name into JSON arrays; a child set with Set is
// rendered as a single JSON object. XML output is identical for both.
package subsonic

import "strconv"

type kind uint8

const (
	kindString kind = iota
	kindInt
	kindBool
	kindNull
)

// Attr is one scalar field of a node. Null attributes are omitted from
// every output format.
type Attr struct {
	Key  string
	kind kind
	s    string
	i    int64
	b    bool
}

func String(key, v string) Attr { return Attr{Key: key, kind: kindString, s: v} }
func Int(key string, v int64) Attr { return Attr{Key: key, kind: kindInt, i: v} }
func Bool(key string, v bool) Attr { return Attr{Key: key, kind: kindBool, b: v} }
func Null(key string) Attr         { return Attr{Key: key, kind: kindNull} }

// StringOrNull is String unless ok is false.
func StringOrNull(key, v string, ok bool) Attr {
	if !ok {
		return Null(key)
	}
	return String(key, v)
}

func (a Attr) IsNull() bool { return a.kind == kindNull }

// text is the attribute value as XML attribute text.
func (a Attr) text() string {
	switch a.kind {
	case kindInt:
		return strconv.FormatInt(a.i, 10)
	case kindBool:
		return strconv.FormatBool(a.b)
	default:
		return a.s
	}
}

// value is the attribute value for JSON.
func (a Attr) value() any {
	switch a.kind {
	case kindInt:
		return a.i
	case kindBool:
		return a.b
	default:
		return a.s
	}
}

// Node 响应树中的一个元素
type Node struct {
	Name     string
	Attrs    []Attr
	children []*Node
	single   bool
}

func NewNode(name string, attrs ...Attr) *Node {
	return &Node{Name: name, Attrs: attrs}
}

// Append adds list children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.children = append(n.children, children...)
	return n
}

// Set makes child the only, non-list child of n.
func (n *Node) Set(child *Node) *Node {
	n.children = []*Node{child}
	n.single = true
	return n
}

func (n *Node) Children() []*Node { return n.children }

// Attr returns the attribute named key.
func (n *Node) Attr(key string) (Attr, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a, true
		}
	}
	return Attr{}, false
}

// Lookup returns the attribute as text, false when missing or null.
func (n *Node) Lookup(key string) (string, bool) {
	a, ok := n.Attr(key)
	if !ok || a.IsNull() {
		return "", false
	}
	return a.text(), true
}
