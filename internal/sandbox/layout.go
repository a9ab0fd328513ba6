package sandbox

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BlockLayout is a deterministic block-flow approximation: each run of
// inline content is one line box, block elements stack vertically.
type BlockLayout struct {
	LineHeight   int
	ListMargin   int // top and bottom margin of ul/ol
	BlockMargin  int // top and bottom margin of p and pre
	BlockPadding int // padding of elements with class "blob"
	BorderWidth  int // border of elements with class "blob"
}

// DefaultLayout returns a layout close to browser defaults at 16px text.
func DefaultLayout() BlockLayout {
	return BlockLayout{
		LineHeight:   18,
		ListMargin:   16,
		BlockMargin:  16,
		BlockPadding: 10,
		BorderWidth:  1,
	}
}

// WithLineHeight returns the layout with a different line height.
func (l BlockLayout) WithLineHeight(px int) BlockLayout {
	if px > 0 {
		l.LineHeight = px
	}
	return l
}

// ScrollHeight implements Layout.
func (l BlockLayout) ScrollHeight(body *html.Node) int {
	return l.flow(body)
}

func (l BlockLayout) flow(n *html.Node) int {
	height := 0
	inlineOpen := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlock(c) {
			if inlineOpen {
				height += l.LineHeight
				inlineOpen = false
			}
			height += l.block(c)
			continue
		}
		if hasVisibleInline(c) {
			inlineOpen = true
		}
	}
	if inlineOpen {
		height += l.LineHeight
	}
	return height
}

func (l BlockLayout) block(n *html.Node) int {
	var h int
	switch n.DataAtom {
	case atom.Pre:
		h = l.preformatted(n) + 2*l.BlockMargin
	case atom.Ul, atom.Ol:
		h = l.flow(n) + 2*l.ListMargin
	case atom.P:
		h = l.flow(n) + 2*l.BlockMargin
	default:
		h = l.flow(n)
	}
	if hasClass(n, "blob") {
		h += 2*l.BlockPadding + 2*l.BorderWidth
	}
	return h
}

func (l BlockLayout) preformatted(n *html.Node) int {
	text := textContent(n)
	if text == "" {
		return 0
	}
	text = strings.TrimSuffix(text, "\n")
	return (strings.Count(text, "\n") + 1) * l.LineHeight
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Div, atom.P, atom.Pre, atom.Ul, atom.Ol, atom.Li, atom.Section, atom.Nav, atom.H1, atom.H2, atom.H3:
		return true
	}
	return false
}

func hasVisibleInline(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data) != ""
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if hasVisibleInline(c) {
				return true
			}
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
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
