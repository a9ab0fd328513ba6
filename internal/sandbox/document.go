package sandbox

import (
	"bytes"
	"sort"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is the single mutable body of a frame. Mutations happen under
// the document lock; observers and listeners run after it is released, on
// the mutating goroutine.
//
// Nodes handed to listeners and observers must be treated as read-only.
type Document struct {
	mu        sync.Mutex
	body      *html.Node
	layout    Layout
	observers map[int]*observer
	nextID    int
	listeners []ClickListener
}

type observer struct {
	id   int
	opts ObserverOptions
	fn   MutationCallback
}

// NewDocument creates an empty document measured with layout. A nil layout
// uses DefaultLayout.
func NewDocument(layout Layout) *Document {
	if layout == nil {
		layout = DefaultLayout()
	}
	return &Document{
		body:      &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body},
		layout:    layout,
		observers: make(map[int]*observer),
	}
}

// Observe registers fn for mutations matching opts and returns a function
// that removes it.
func (d *Document) Observe(opts ObserverOptions, fn MutationCallback) (cancel func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.observers[id] = &observer{id: id, opts: opts, fn: fn}

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.observers, id)
	}
}

// AddClickListener registers a document-level click listener.
func (d *Document) AddClickListener(fn ClickListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// ReplaceBody swaps the entire body content for nodes. Nodes must not be
// attached elsewhere.
func (d *Document) ReplaceBody(nodes ...*html.Node) {
	d.mu.Lock()
	removed := 0
	for c := d.body.FirstChild; c != nil; {
		next := c.NextSibling
		d.body.RemoveChild(c)
		c = next
		removed++
	}
	for _, n := range nodes {
		d.body.AppendChild(n)
	}
	rec := MutationRecord{Type: MutationChildList, Target: d.body, Added: len(nodes), Removed: removed}
	d.mu.Unlock()

	d.notify(rec)
}

// SetText replaces the text of a node inside the body. Element nodes have
// their children replaced by a single text node.
func (d *Document) SetText(n *html.Node, text string) {
	d.mu.Lock()
	if !d.contains(n) {
		d.mu.Unlock()
		return
	}
	var rec MutationRecord
	if n.Type == html.TextNode {
		n.Data = text
		rec = MutationRecord{Type: MutationCharacterData, Target: n}
	} else {
		removed := 0
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			n.RemoveChild(c)
			c = next
			removed++
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		rec = MutationRecord{Type: MutationChildList, Target: n, Added: 1, Removed: removed}
	}
	d.mu.Unlock()

	d.notify(rec)
}

// SetAttribute sets an attribute on an element inside the body.
func (d *Document) SetAttribute(n *html.Node, key, val string) {
	d.mu.Lock()
	if !d.contains(n) || n.Type != html.ElementNode {
		d.mu.Unlock()
		return
	}
	found := false
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			found = true
			break
		}
	}
	if !found {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	}
	rec := MutationRecord{Type: MutationAttributes, Target: n, AttributeName: key}
	d.mu.Unlock()

	d.notify(rec)
}

// Click dispatches a click on target to the document listeners. It returns
// false when a listener prevented the default action.
func (d *Document) Click(target *html.Node) bool {
	d.mu.Lock()
	listeners := append([]ClickListener(nil), d.listeners...)
	d.mu.Unlock()

	ev := &ClickEvent{Target: target}
	for _, fn := range listeners {
		fn(ev)
	}
	return !ev.DefaultPrevented()
}

// ClickHref clicks the first link whose href attribute equals href. It
// reports whether such a link exists.
func (d *Document) ClickHref(href string) bool {
	d.mu.Lock()
	target := findLink(d.body, href)
	d.mu.Unlock()

	if target == nil {
		return false
	}
	d.Click(target)
	return true
}

// XPath evaluates expr against the body and returns the matching nodes,
// in document order. The nodes are live; mutate them only through the
// Document methods.
func (d *Document) XPath(expr string) ([]*html.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return htmlquery.QueryAll(d.body, expr)
}

// Find returns the first element inside the body matching pred.
func (d *Document) Find(pred func(*html.Node) bool) *html.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return find(d.body, pred)
}

// ScrollHeight measures the body with the document layout.
func (d *Document) ScrollHeight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.layout.ScrollHeight(d.body)
}

// HTML serialises the body content.
func (d *Document) HTML() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	for c := d.body.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// Text returns the visible text of the body.
func (d *Document) Text() string {
	return strings.TrimSpace(d.Selection().Text())
}

// Selection returns a goquery view over a snapshot of the body.
func (d *Document) Selection() *goquery.Selection {
	d.mu.Lock()
	snapshot := cloneNode(d.body)
	d.mu.Unlock()

	return goquery.NewDocumentFromNode(snapshot).Selection
}

func (d *Document) notify(rec MutationRecord) {
	d.mu.Lock()
	inBody := rec.Target == d.body
	var targets []*observer
	for _, o := range d.observers {
		if o.opts.matches(rec, inBody) {
			targets = append(targets, o)
		}
	}
	d.mu.Unlock()

	// Registration order.
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })
	for _, o := range targets {
		o.fn([]MutationRecord{rec})
	}
}

func (o ObserverOptions) matches(rec MutationRecord, onBody bool) bool {
	if !onBody && !o.Subtree {
		return false
	}
	switch rec.Type {
	case MutationChildList:
		return o.ChildList
	case MutationAttributes:
		return o.Attributes
	case MutationCharacterData:
		return o.CharacterData
	}
	return false
}

// contains must be called with d.mu held.
func (d *Document) contains(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.body {
			return true
		}
	}
	return false
}

// findLink must be called with d.mu held.
func findLink(root *html.Node, href string) *html.Node {
	for _, a := range htmlquery.Find(root, "//a[@href]") {
		if v, _ := Attr(a, "href"); v == href {
			return a
		}
	}
	return nil
}

func find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pred(c) {
			return c
		}
		if found := find(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// Attr returns the value of an attribute of n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func cloneNode(n *html.Node) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(cloneNode(c))
	}
	return out
}
