// Package xmltree provides a small navigable view over an XML document.
package xmltree

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Node is an element in a parsed document. A nil *Node behaves as an empty subtree.
type Node struct {
	el *etree.Element
}

// Parse reads a whole document from r.
func Parse(r io.Reader) (*Node, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return documentNode(doc)
}

// ParseBytes parses a document held in memory.
func ParseBytes(data []byte) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return documentNode(doc)
}

// ParseFile parses the document stored at path.
func ParseFile(path string) (*Node, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return documentNode(doc)
}

// The returned node is the document itself, so searches include the root element.
func documentNode(doc *etree.Document) (*Node, error) {
	if doc.Root() == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	return &Node{el: &doc.Element}, nil
}

// Tag returns the element name without namespace prefix.
func (n *Node) Tag() string {
	if n == nil {
		return ""
	}
	return n.el.Tag
}

// Elements returns every descendant named tag in document order.
func (n *Node) Elements(tag string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	walk(n.el, func(e *etree.Element) bool {
		if e.Tag == tag {
			out = append(out, &Node{el: e})
		}
		return true
	})
	return out
}

// Children returns the direct children named tag.
func (n *Node) Children(tag string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, e := range n.el.ChildElements() {
		if e.Tag == tag {
			out = append(out, &Node{el: e})
		}
	}
	return out
}

// First returns the first descendant named tag, or nil.
func (n *Node) First(tag string) *Node {
	return n.find(func(e *etree.Element) bool { return e.Tag == tag })
}

// FirstWithAttr returns the first descendant matching tag[attr=value], or nil.
func (n *Node) FirstWithAttr(tag, attr, value string) *Node {
	return n.find(func(e *etree.Element) bool {
		if e.Tag != tag {
			return false
		}
		a := e.SelectAttr(attr)
		return a != nil && a.Value == value
	})
}

// Child returns the first direct child named tag, or nil.
func (n *Node) Child(tag string) *Node {
	if n == nil {
		return nil
	}
	if e := n.el.SelectElement(tag); e != nil {
		return &Node{el: e}
	}
	return nil
}

// Attr reads a named attribute.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	a := n.el.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// AttrOr reads a named attribute, falling back to def when it is absent.
func (n *Node) AttrOr(name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// Text returns the concatenated character data of the whole subtree.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	appendText(&b, n.el)
	return b.String()
}

func (n *Node) find(match func(*etree.Element) bool) *Node {
	if n == nil {
		return nil
	}
	var found *etree.Element
	walk(n.el, func(e *etree.Element) bool {
		if match(e) {
			found = e
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return &Node{el: found}
}

// walk visits descendants of root (not root itself) depth first until visit returns false.
func walk(root *etree.Element, visit func(*etree.Element) bool) bool {
	for _, child := range root.ChildElements() {
		if !visit(child) {
			return false
		}
		if !walk(child, visit) {
			return false
		}
	}
	return true
}

func appendText(b *strings.Builder, e *etree.Element) {
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			b.WriteString(t.Data)
		case *etree.Element:
			appendText(b, t)
		}
	}
}
