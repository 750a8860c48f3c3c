package render

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// previewStyle normalizes visual chrome inside the sandboxed frame so the
// markup fills the card's preview box edge to edge.
const previewStyle = "html,body{margin:0;padding:0;width:100%;height:100%;overflow:hidden}img{image-rendering:pixelated}"

// NormalizeMarkup parses untrusted markup and rewrites it for the sandboxed
// frame: <meta http-equiv="refresh"> is removed (it would navigate without a
// user gesture) and a style reset is injected into <head>. Script elements
// are left alone; confinement is the sandbox's job, not the rewriter's.
func NormalizeMarkup(payload []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}

	stripMetaRefresh(doc)

	head := findElement(doc, atom.Head)
	if head == nil {
		// html.Parse synthesizes html/head/body for any input, so a missing
		// head means the tree is not usable.
		return "", fmt.Errorf("markup has no head element")
	}
	style := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
	}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: previewStyle})
	head.AppendChild(style)

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return "", fmt.Errorf("render markup: %w", err)
	}
	return sb.String(), nil
}

// stripMetaRefresh removes every <meta http-equiv="refresh"> from the tree.
func stripMetaRefresh(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isMetaRefresh(c) {
			n.RemoveChild(c)
		} else {
			stripMetaRefresh(c)
		}
		c = next
	}
}

func isMetaRefresh(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Meta {
		return false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "http-equiv") && strings.EqualFold(strings.TrimSpace(a.Val), "refresh") {
			return true
		}
	}
	return false
}

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
