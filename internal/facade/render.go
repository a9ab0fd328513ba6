package facade

import (
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LoadingText is the placeholder shown while a navigation is pending.
const LoadingText = "Loading…"

const blobStyle = "border: 1px solid black; padding: 10px;"

// Render builds the body content for s. It is pure: equal states give
// structurally equal trees, and text is carried in text nodes so content
// is escaped when serialised.
func Render(s State) []*html.Node {
	switch s.Phase {
	case PhaseLoaded:
		return renderLoaded(s)
	case PhaseFailed:
		return renderFailed(s)
	default:
		return []*html.Node{text(LoadingText)}
	}
}

func renderLoaded(s State) []*html.Node {
	var out []*html.Node
	if !s.Path.IsRoot() {
		out = append(out, link(s.Path.Parent(), "Back"))
	}

	switch {
	case s.Entry.IsTree():
		ul := element(atom.Ul)
		for _, e := range s.Entry.Tree.Entries {
			li := element(atom.Li)
			li.AppendChild(link(s.Path.Child(e.Filename), e.Filename))
			ul.AppendChild(li)
		}
		out = append(out, ul)
	case s.Entry.IsBlob():
		pre := element(atom.Pre,
			html.Attribute{Key: "class", Val: "blob"},
			html.Attribute{Key: "style", Val: blobStyle},
			html.Attribute{Key: "data-mime", Val: mimetype.Detect([]byte(s.Content)).String()},
		)
		pre.AppendChild(text(s.Content))
		out = append(out, pre)
	}
	return out
}

func renderFailed(s State) []*html.Node {
	var out []*html.Node
	if !s.Path.IsRoot() {
		out = append(out, link(s.Path.Parent(), "Back"))
	}

	kind := FailureKind(s.Err)
	box := element(atom.Div,
		html.Attribute{Key: "class", Val: "error error-" + kind},
		html.Attribute{Key: "role", Val: "alert"},
	)
	msg := element(atom.P)
	box.AppendChild(msg)

	switch kind {
	case "network":
		msg.AppendChild(text("Could not load this location from the repository."))
		retry := link(s.Path, "Retry")
		retry.Attr = append(retry.Attr, html.Attribute{Key: "class", Val: "retry"})
		box.AppendChild(retry)
	case "decode":
		msg.AppendChild(text("The repository sent a response that could not be read."))
	default:
		msg.AppendChild(text("Something went wrong while loading this location."))
	}
	return append(out, box)
}

func link(target Path, label string) *html.Node {
	a := element(atom.A, html.Attribute{Key: "href", Val: string(target)})
	a.AppendChild(text(label))
	return a
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
