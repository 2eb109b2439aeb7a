// Package tree provides the call-graph snapshot built from region events.
package tree

// Node is one region in the call graph.
type Node struct {
	Name string `json:"name"`
	// Parent is empty for the root and for nodes only ever seen as a parent.
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`
}

// Tree maps region names to nodes. A tree only grows during one build
// cycle and is then discarded wholesale; there is no node removal.
type Tree struct {
	nodes map[string]*Node
	root  string
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{nodes: make(map[string]*Node)}
}

// SetRoot marks name as the root, creating its node if absent.
// Calling it again with the same name changes nothing.
func (t *Tree) SetRoot(name string) {
	if _, ok := t.nodes[name]; !ok {
		t.nodes[name] = &Node{Name: name}
	}
	t.root = name
}

// AddChild appends child to parent's children, creating either node if
// absent. Children keep their call order.
func (t *Tree) AddChild(parent, child string) {
	p, ok := t.nodes[parent]
	if !ok {
		p = &Node{Name: parent}
		t.nodes[parent] = p
	}
	if _, ok := t.nodes[child]; !ok {
		t.nodes[child] = &Node{Name: child, Parent: parent}
	}
	p.Children = append(p.Children, child)
}

// Clear removes every node and the root.
func (t *Tree) Clear() {
	t.nodes = make(map[string]*Node)
	t.root = ""
}

// Root returns the root name and whether one is set.
func (t *Tree) Root() (string, bool) {
	if t == nil || t.root == "" {
		return "", false
	}
	return t.root, true
}

// Node returns the node for name, or nil.
func (t *Tree) Node(name string) *Node {
	if t == nil {
		return nil
	}
	return t.nodes[name]
}

// Children returns name's children in call order.
func (t *Tree) Children(name string) []string {
	n := t.Node(name)
	if n == nil {
		return nil
	}
	return n.Children
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Walk visits the tree depth-first from the root, children in call order.
// Returning false from fn skips the node's subtree. A name repeated among
// siblings is visited once per occurrence; cycles are cut.
func (t *Tree) Walk(fn func(name string, depth int) bool) {
	root, ok := t.Root()
	if !ok {
		return
	}
	onPath := make(map[string]bool)
	var visit func(name string, depth int)
	visit = func(name string, depth int) {
		if onPath[name] {
			return
		}
		if !fn(name, depth) {
			return
		}
		onPath[name] = true
		for _, c := range t.Children(name) {
			visit(c, depth+1)
		}
		onPath[name] = false
	}
	visit(root, 0)
}

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	out := New()
	if t == nil {
		return out
	}
	out.root = t.root
	for name, n := range t.nodes {
		cp := *n
		cp.Children = append([]string(nil), n.Children...)
		out.nodes[name] = &cp
	}
	return out
}

// Nodes returns a copy of every node keyed by name.
func (t *Tree) Nodes() map[string]Node {
	out := make(map[string]Node, t.Len())
	if t == nil {
		return out
	}
	for name, n := range t.nodes {
		cp := *n
		cp.Children = append([]string(nil), n.Children...)
		out[name] = cp
	}
	return out
}
