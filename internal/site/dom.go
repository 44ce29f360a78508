package site

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func newElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

// appendElement creates an element, attaches it as the last child of parent
// and returns it.
func appendElement(parent *html.Node, a atom.Atom, attrs ...html.Attribute) *html.Node {
	child := newElement(a, attrs...)
	parent.AppendChild(child)
	return child
}

func appendText(parent *html.Node, s string) {
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// NewDocument returns an empty HTML5 document with head and body.
func NewDocument() *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := appendElement(doc, atom.Html)
	appendElement(root, atom.Head)
	appendElement(root, atom.Body)
	return doc
}

// ParseDocument parses a layout document.
func ParseDocument(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// RenderDocument serializes doc as HTML.
func RenderDocument(w io.Writer, doc *html.Node) error {
	return html.Render(w, doc)
}

// findElement returns the first element of kind a in document order.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// need returns the document's head or body, creating it (and the html root)
// when absent.
func need(doc *html.Node, a atom.Atom) *html.Node {
	if n := findElement(doc, a); n != nil {
		return n
	}
	root := findElement(doc, atom.Html)
	if root == nil {
		root = appendElement(doc, atom.Html)
	}
	if a == atom.Head && root.FirstChild != nil {
		head := newElement(atom.Head)
		root.InsertBefore(head, root.FirstChild)
		return head
	}
	return appendElement(root, a)
}

// setTitle replaces the text of the document's <title>, creating the element
// under <head> when there is none.
func setTitle(doc *html.Node, title string) {
	t := findElement(doc, atom.Title)
	if t == nil {
		t = appendElement(need(doc, atom.Head), atom.Title)
	}
	for t.FirstChild != nil {
		t.RemoveChild(t.FirstChild)
	}
	appendText(t, title)
}

// DocumentTitle returns the text of the document's <title>, or "".
func DocumentTitle(doc *html.Node) string {
	t := findElement(doc, atom.Title)
	if t == nil {
		return ""
	}
	var sb strings.Builder
	for c := t.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
