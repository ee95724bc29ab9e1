package statement

import (
	"strings"

	"golang.org/x/net/html"
)

// noiseElements never carry statement text. Statement pages render TeX
// twice, once as text and once inside a script element.
var noiseElements = map[string]bool{
	"script": true, "style": true, "noscript": true,
}

// keptWhenEmpty are elements that mean something without content.
var keptWhenEmpty = map[string]bool{
	"area": true, "br": true, "col": true, "embed": true, "hr": true,
	"img": true, "input": true, "source": true, "wbr": true,
	"pre": true, "td": true, "th": true, "tr": true,
}

// sanitize strips noise elements from node, then empty elements innermost
// first. node itself is never removed.
func sanitize(node *html.Node) {
	removeNoise(node)
	for _, child := range children(node) {
		removeEmptyBottomUp(child)
	}
}

func removeNoise(node *html.Node) {
	for _, child := range children(node) {
		if child.Type == html.ElementNode && noiseElements[child.Data] {
			node.RemoveChild(child)
			continue
		}
		if child.Type == html.CommentNode {
			node.RemoveChild(child)
			continue
		}
		removeNoise(child)
	}
}

func removeEmptyBottomUp(node *html.Node) {
	for _, child := range children(node) {
		removeEmptyBottomUp(child)
	}
	if node.Type == html.ElementNode && !keptWhenEmpty[node.Data] && isEmpty(node) && node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
}

func isEmpty(node *html.Node) bool {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.ElementNode:
			return false
		case html.TextNode:
			if strings.TrimSpace(child.Data) != "" {
				return false
			}
		}
	}
	return true
}

// children snapshots the child list so callers can remove while iterating.
func children(node *html.Node) []*html.Node {
	var out []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		out = append(out, child)
	}
	return out
}
