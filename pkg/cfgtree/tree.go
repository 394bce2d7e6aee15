package cfgtree

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrEmptyConfig indicates the config has no line that opens a node.
var ErrEmptyConfig = errors.New("empty config")

// Node is one element of a config tree. A node with a value is a leaf.
type Node struct {
	Tag      Tag
	Value    string
	HasValue bool
	Children []*Node
}

// Build parses config lines into a tree. Nesting is inferred only from
// tag reuse: a line carrying the tag of the node being built terminates
// that node. Input that ends before a node is terminated stops the
// recursion without error.
func Build(lines []string) (*Node, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyConfig
	}
	root, _ := build(lines, 0)
	if root == nil {
		return nil, ErrEmptyConfig
	}
	return root, nil
}

// build returns the node opened at lines[pos] and the position of the
// last line it consumed.
func build(lines []string, pos int) (*Node, int) {
	cur := Tokenize(lines[pos])
	if cur.Close && !cur.HasValue {
		return nil, pos
	}
	node := &Node{Tag: cur.Tag}
	if cur.HasValue {
		node.Value, node.HasValue = cur.Value, true
	}
	for pos+1 < len(lines) {
		next := Tokenize(lines[pos+1])
		if next.Tag == cur.Tag {
			pos++
			break
		}
		if cur.HasValue {
			break
		}
		var child *Node
		if child, pos = build(lines, pos+1); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node, pos
}

// Find returns the first node tagged t in depth-first order, or nil.
func (n *Node) Find(t Tag) *Node {
	if n == nil {
		return nil
	}
	if n.Tag == t {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(t); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits n and its descendants depth first. code is the register
// code accumulated from the root down to and including each node.
// Returning an error from fn stops the walk of that branch and the error
// is returned to the caller.
func (n *Node) Walk(code Code, fn func(n *Node, code Code) error) error {
	code = code.With(n.Tag)
	if err := fn(n, code); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.Walk(code, fn); err != nil {
			return err
		}
	}
	return nil
}

// String renders the tree one node per line, indented by depth.
func (n *Node) String() string {
	var buf bytes.Buffer
	n.dump(&buf, 0)
	return buf.String()
}

func (n *Node) dump(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
	if n.HasValue {
		fmt.Fprintf(buf, "%s = %q\n", n.Tag, n.Value)
	} else {
		fmt.Fprintf(buf, "%s\n", n.Tag)
	}
	for _, c := range n.Children {
		c.dump(buf, depth+1)
	}
}
