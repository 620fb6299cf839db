package tree

import (
	"sort"
	"strings"

	"github.com/Akashdeep-Patra/gitsync/internal/git"
)

// Kind discriminates folder and file nodes.
type Kind uint8

const (
	KindFolder Kind = iota
	KindFile
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// Node is an immutable snapshot of a tree node. ID is stable for as long
// as the path stays in the tree.
type Node struct {
	ID       uint64
	Kind     Kind
	Path     string
	Name     string
	Depth    int
	Flags    git.Flags // Files only.
	Expanded bool      // Folders only.
}

// IsFolder reports whether the snapshot is of a folder.
func (n Node) IsFolder() bool { return n.Kind == KindFolder }

type node struct {
	id       uint64
	kind     Kind
	path     string
	name     string
	flags    git.Flags
	expanded bool

	parent   *node
	children []*node // sorted by name
	size     int     // nodes in this subtree, self included
}

func (n *node) snapshot() Node {
	return Node{
		ID:       n.id,
		Kind:     n.kind,
		Path:     n.path,
		Name:     n.name,
		Depth:    strings.Count(n.path, "/"),
		Flags:    n.flags,
		Expanded: n.expanded,
	}
}

// childIndex returns the position of name among n's children and whether
// a child with that name exists.
func (n *node) childIndex(name string) (int, bool) {
	i := sort.Search(len(n.children), func(i int) bool {
		return n.children[i].name >= name
	})
	return i, i < len(n.children) && n.children[i].name == name
}

func (n *node) addChild(c *node) {
	i, _ := n.childIndex(c.name)
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
	c.parent = n
	for p := n; p != nil; p = p.parent {
		p.size += c.size
	}
}

func (n *node) removeChild(c *node) {
	i, ok := n.childIndex(c.name)
	if !ok {
		return
	}
	n.children = append(n.children[:i], n.children[i+1:]...)
	for p := n; p != nil; p = p.parent {
		p.size -= c.size
	}
	c.parent = nil
}

// index returns the pre-order position of n, the root excluded.
func (n *node) index() int {
	idx := 0
	for c := n; c.parent != nil; c = c.parent {
		p := c.parent
		i, _ := p.childIndex(c.name)
		for _, s := range p.children[:i] {
			idx += s.size
		}
		if p.parent != nil {
			idx++
		}
	}
	return idx
}

// walk visits the subtree below n in pre-order.
func (n *node) walk(fn func(*node)) {
	for _, c := range n.children {
		fn(c)
		c.walk(fn)
	}
}

// at returns the node at pre-order position idx below n.
func (n *node) at(idx int) *node {
	for _, c := range n.children {
		if idx < c.size {
			if idx == 0 {
				return c
			}
			return c.at(idx - 1)
		}
		idx -= c.size
	}
	return nil
}
