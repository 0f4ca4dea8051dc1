// Package dom defines the capability set the view engine uses to touch the
// document tree.
//
// The engine never manipulates nodes directly. Regions and collection views
// call an Adapter, and the Adapter owns the concrete node representation.
// HTMLDocument is an in-memory implementation over golang.org/x/net/html,
// used by the CLI and by tests.
package dom

// Node is an opaque handle to a node owned by an Adapter.
type Node any

// Adapter is the set of DOM primitives consumed by the view engine.
type Adapter interface {
	// Root returns the document root. Nodes connected to it are attached.
	Root() Node

	// CreateElement returns a new detached element.
	CreateElement(tag string, attrs ...Attr) Node

	// CreateBuffer returns an empty fragment. Appending a fragment into a
	// parent moves the fragment's children and leaves the fragment empty.
	CreateBuffer() Node

	// AppendInto appends node as the last child of parent, moving it if it
	// already has a parent.
	AppendInto(parent, node Node)

	// Detach removes node from its parent. Detached nodes are left intact.
	Detach(node Node)

	// DetachContents removes every child of node.
	DetachContents(node Node)

	// HasContents reports whether node has any children.
	HasContents(node Node) bool

	// Parent returns the parent of node, or nil.
	Parent(node Node) Node

	// Replace puts newNode where oldNode is and detaches oldNode. Nothing
	// happens when oldNode has no parent.
	Replace(newNode, oldNode Node)

	// Swap exchanges the positions of a and b in the tree.
	Swap(a, b Node)

	// IsDescendant reports whether node is root or is contained by root.
	IsDescendant(root, node Node) bool

	// SetContents replaces the children of node with the parsed markup.
	SetContents(node Node, markup string) error

	// FindByID returns the descendant of root whose id attribute is id,
	// or nil.
	FindByID(root Node, id string) Node
}

// Attr is an element attribute.
type Attr struct {
	Key string
	Val string
}

// IsAttached reports whether node is connected to the adapter's document.
func IsAttached(a Adapter, node Node) bool {
	if a == nil || node == nil {
		return false
	}
	return a.IsDescendant(a.Root(), node)
}
