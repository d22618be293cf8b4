// Package namespace turns the flat list of loaded class names enumerated from
// a target process into a package/class hierarchy.
package namespace

import (
	"sort"
	"strings"

	"github.com/user/fridacode/internal/types"
)

type Kind int

const (
	KindPackage Kind = iota
	KindClass
)

func (k Kind) String() string {
	if k == KindClass {
		return "class"
	}
	return "package"
}

// Node is one package or class. Parent holds the parent's qualified path and
// is empty for roots; children are owned by the node.
type Node struct {
	Kind     Kind
	Name     string
	Path     string
	Parent   string
	Children []*Node
}

func (n *Node) IsRoot() bool { return n.Parent == "" }

// TreeIndex is the result of one Build. It is never mutated after Build
// returns; a new enumeration produces a new index.
type TreeIndex struct {
	nodes map[string]*Node
	order []*Node
}

// Build validates names and materializes one node per distinct qualified
// prefix. Names are processed in sorted order so sibling order is stable.
func Build(names []string) (*TreeIndex, error) {
	for _, name := range names {
		if err := Validate(name); err != nil {
			return nil, err
		}
	}

	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	idx := &TreeIndex{nodes: make(map[string]*Node)}
	for _, name := range sorted {
		parts := strings.Split(name, ".")
		for i := range parts {
			path := strings.Join(parts[:i+1], ".")
			if _, ok := idx.nodes[path]; ok {
				continue
			}

			n := &Node{Kind: KindPackage, Name: parts[i], Path: path}
			if i == len(parts)-1 {
				n.Kind = KindClass
			}
			idx.nodes[path] = n
			idx.order = append(idx.order, n)

			if i > 0 {
				parentPath := strings.Join(parts[:i], ".")
				parent := idx.nodes[parentPath]
				parent.Children = append(parent.Children, n)
				n.Parent = parentPath
			}
		}
	}
	return idx, nil
}

// Validate rejects names with empty segments.
func Validate(name string) error {
	switch {
	case name == "":
		return &types.ValidationError{Name: name, Reason: "empty name"}
	case strings.HasPrefix(name, "."):
		return &types.ValidationError{Name: name, Reason: "leading dot"}
	case strings.HasSuffix(name, "."):
		return &types.ValidationError{Name: name, Reason: "trailing dot"}
	case strings.Contains(name, ".."):
		return &types.ValidationError{Name: name, Reason: "empty segment"}
	}
	return nil
}

// Roots returns the nodes that have no parent, in creation order.
func (t *TreeIndex) Roots() []*Node {
	var roots []*Node
	for _, n := range t.order {
		if n.IsRoot() {
			roots = append(roots, n)
		}
	}
	return roots
}

// ChildrenOf returns the children of path from the index. Unknown paths have
// no children.
func (t *TreeIndex) ChildrenOf(path string) []*Node {
	n, ok := t.nodes[path]
	if !ok {
		return nil
	}
	return n.Children
}

func (t *TreeIndex) Lookup(path string) (*Node, bool) {
	n, ok := t.nodes[path]
	return n, ok
}

// Nodes returns every node in creation order.
func (t *TreeIndex) Nodes() []*Node {
	return t.order
}

func (t *TreeIndex) Len() int {
	return len(t.order)
}

// Walk visits the subtree under each root depth first, stopping descent below
// maxDepth when maxDepth > 0.
func Walk(roots []*Node, maxDepth int, fn func(n *Node, depth int)) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		fn(n, depth)
		if maxDepth > 0 && depth+1 >= maxDepth {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, r := range roots {
		visit(r, 0)
	}
}
