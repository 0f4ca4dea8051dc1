package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// fragmentData marks a DocumentNode used as a detached fragment.
const fragmentData = "#fragment"

// HTMLDocument is an Adapter over an in-memory golang.org/x/net/html tree.
//
// The zero value is not usable; create documents with NewHTMLDocument.
type HTMLDocument struct {
	doc  *html.Node
	body *html.Node
}

// NewHTMLDocument returns a document holding an empty html/head/body skeleton.
func NewHTMLDocument() *HTMLDocument {
	doc := &html.Node{Type: html.DocumentNode}
	root := &html.Node{Type: html.ElementNode, Data: "html", DataAtom: atom.Html}
	head := &html.Node{Type: html.ElementNode, Data: "head", DataAtom: atom.Head}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	doc.AppendChild(root)
	root.AppendChild(head)
	root.AppendChild(body)
	return &HTMLDocument{doc: doc, body: body}
}

// Root returns the document node.
func (d *HTMLDocument) Root() Node {
	return d.doc
}

// Body returns the body element.
func (d *HTMLDocument) Body() Node {
	return d.body
}

// CreateElement returns a new detached element.
func (d *HTMLDocument) CreateElement(tag string, attrs ...Attr) Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, a := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	return n
}

// CreateBuffer returns an empty fragment.
func (d *HTMLDocument) CreateBuffer() Node {
	return &html.Node{Type: html.DocumentNode, Data: fragmentData}
}

// AppendInto appends node as the last child of parent.
func (d *HTMLDocument) AppendInto(parent, node Node) {
	p, n := asHTML(parent), asHTML(node)
	if p == nil || n == nil {
		return
	}
	if isFragment(n) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			p.AppendChild(c)
			c = next
		}
		return
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	p.AppendChild(n)
}

// Detach removes node from its parent.
func (d *HTMLDocument) Detach(node Node) {
	n := asHTML(node)
	if n == nil || n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// DetachContents removes every child of node.
func (d *HTMLDocument) DetachContents(node Node) {
	n := asHTML(node)
	if n == nil {
		return
	}
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// HasContents reports whether node has any children.
func (d *HTMLDocument) HasContents(node Node) bool {
	n := asHTML(node)
	return n != nil && n.FirstChild != nil
}

// Parent returns the parent of node, or nil.
func (d *HTMLDocument) Parent(node Node) Node {
	n := asHTML(node)
	if n == nil || n.Parent == nil {
		return nil
	}
	return n.Parent
}

// Replace puts newNode where oldNode is and detaches oldNode.
func (d *HTMLDocument) Replace(newNode, oldNode Node) {
	nn, on := asHTML(newNode), asHTML(oldNode)
	if nn == nil || on == nil || nn == on || on.Parent == nil {
		return
	}
	if nn.Parent != nil {
		nn.Parent.RemoveChild(nn)
	}
	parent := on.Parent
	parent.InsertBefore(nn, on)
	parent.RemoveChild(on)
}

// Swap exchanges the positions of a and b. Either node may be detached, in
// which case the other one ends up detached.
func (d *HTMLDocument) Swap(a, b Node) {
	na, nb := asHTML(a), asHTML(b)
	if na == nil || nb == nil || na == nb {
		return
	}
	pa, pb := na.Parent, nb.Parent
	markA := placeholder(na)
	markB := placeholder(nb)
	if pa != nil {
		pa.InsertBefore(nb, markA)
		pa.RemoveChild(markA)
	}
	if pb != nil {
		pb.InsertBefore(na, markB)
		pb.RemoveChild(markB)
	}
}

// placeholder swaps n out of its parent for a comment node and returns it.
func placeholder(n *html.Node) *html.Node {
	if n.Parent == nil {
		return nil
	}
	mark := &html.Node{Type: html.CommentNode}
	parent := n.Parent
	parent.InsertBefore(mark, n)
	parent.RemoveChild(n)
	return mark
}

// IsDescendant reports whether node is root or is contained by root.
func (d *HTMLDocument) IsDescendant(root, node Node) bool {
	r, n := asHTML(root), asHTML(node)
	if r == nil || n == nil {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == r {
			return true
		}
	}
	return false
}

// SetContents replaces the children of node with the parsed markup.
func (d *HTMLDocument) SetContents(node Node, markup string) error {
	n := asHTML(node)
	if n == nil {
		return fmt.Errorf("dom: set contents on %T", node)
	}
	context := n
	if n.Type != html.ElementNode {
		context = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return fmt.Errorf("dom: parse markup: %w", err)
	}
	d.DetachContents(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// FindByID returns the descendant of root whose id attribute is id.
func (d *HTMLDocument) FindByID(root Node, id string) Node {
	r := asHTML(root)
	if r == nil || id == "" {
		return nil
	}
	if found := findByID(r, id); found != nil {
		return found
	}
	return nil
}

func findByID(n *html.Node, id string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && attr(c, "id") == id {
			return c
		}
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// Render returns the markup of node and its descendants.
func Render(node Node) string {
	n := asHTML(node)
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if n.Type == html.DocumentNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			_ = html.Render(&buf, c)
		}
		return buf.String()
	}
	_ = html.Render(&buf, n)
	return buf.String()
}

// Children returns the element children of node in document order.
func Children(node Node) []Node {
	n := asHTML(node)
	if n == nil {
		return nil
	}
	var out []Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the concatenated text content of node.
func Text(node Node) string {
	n := asHTML(node)
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Attribute returns the value of the key attribute on node.
func Attribute(node Node, key string) string {
	n := asHTML(node)
	if n == nil {
		return ""
	}
	return attr(n, key)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func asHTML(node Node) *html.Node {
	n, _ := node.(*html.Node)
	return n
}

func isFragment(n *html.Node) bool {
	return n.Type == html.DocumentNode && n.Data == fragmentData
}
