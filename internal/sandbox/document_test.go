package sandbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parseFragment(t *testing.T, src string) []*html.Node {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	require.NoError(t, err)
	return nodes
}

func TestReplaceBody(t *testing.T) {
	doc := NewDocument(nil)
	doc.ReplaceBody(parseFragment(t, `<p>one</p>`)...)
	doc.ReplaceBody(parseFragment(t, `<a href="x">two</a>`)...)

	assert.Equal(t, `<a href="x">two</a>`, doc.HTML())
	assert.Equal(t, "two", doc.Text())
}

func TestObserverOptions(t *testing.T) {
	doc := NewDocument(nil)
	doc.ReplaceBody(parseFragment(t, `<div id="d">text</div>`)...)
	div := doc.Find(func(n *html.Node) bool { return n.DataAtom == atom.Div })
	require.NotNil(t, div)

	var all, bodyOnly, attrsOnly []MutationType
	doc.Observe(AllMutations, func(recs []MutationRecord) {
		for _, r := range recs {
			all = append(all, r.Type)
		}
	})
	doc.Observe(ObserverOptions{ChildList: true, Attributes: true, CharacterData: true}, func(recs []MutationRecord) {
		for _, r := range recs {
			bodyOnly = append(bodyOnly, r.Type)
		}
	})
	stop := doc.Observe(ObserverOptions{Attributes: true, Subtree: true}, func(recs []MutationRecord) {
		for _, r := range recs {
			attrsOnly = append(attrsOnly, r.Type)
		}
	})

	doc.SetAttribute(div, "class", "x")
	doc.SetText(div.FirstChild, "changed")
	doc.ReplaceBody(parseFragment(t, `<p>new</p>`)...)
	stop()
	doc.SetAttribute(doc.Find(func(n *html.Node) bool { return n.DataAtom == atom.P }), "id", "p")

	assert.Equal(t, []MutationType{MutationAttributes, MutationCharacterData, MutationChildList, MutationAttributes}, all)
	assert.Equal(t, []MutationType{MutationChildList}, bodyOnly)
	assert.Equal(t, []MutationType{MutationAttributes}, attrsOnly)
}

func TestMutationOutsideBodyIgnored(t *testing.T) {
	doc := NewDocument(nil)
	calls := 0
	doc.Observe(AllMutations, func([]MutationRecord) { calls++ })

	detached := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	doc.SetAttribute(detached, "id", "x")
	doc.SetText(detached, "y")
	assert.Zero(t, calls)
}

func TestClickDispatch(t *testing.T) {
	doc := NewDocument(nil)
	doc.ReplaceBody(parseFragment(t, `<ul><li><a href="docs">docs</a></li></ul>`)...)

	var targets []string
	doc.AddClickListener(func(ev *ClickEvent) {
		href, _ := Attr(ev.Target, "href")
		targets = append(targets, href)
		ev.PreventDefault()
	})

	assert.True(t, doc.ClickHref("docs"))
	assert.False(t, doc.ClickHref("missing"))
	assert.Equal(t, []string{"docs"}, targets)

	li := doc.Find(func(n *html.Node) bool { return n.DataAtom == atom.Li })
	assert.False(t, doc.Click(li), "listener prevented default")
}

func TestXPath(t *testing.T) {
	doc := NewDocument(nil)
	doc.ReplaceBody(parseFragment(t, `<a href="">Back</a><ul><li><a href="a">a</a></li><li><a href="b">b</a></li></ul><a>bare</a>`)...)

	links, err := doc.XPath("//ul//a")
	require.NoError(t, err)
	require.Len(t, links, 2)
	href, _ := Attr(links[1], "href")
	assert.Equal(t, "b", href)

	withHref, err := doc.XPath("//a[@href]")
	require.NoError(t, err)
	assert.Len(t, withHref, 3)

	// Empty href still counts as a link target.
	assert.True(t, doc.ClickHref(""))

	_, err = doc.XPath("//[")
	assert.Error(t, err)
}

func TestSelectionIsSnapshot(t *testing.T) {
	doc := NewDocument(nil)
	doc.ReplaceBody(parseFragment(t, `<a href="a">a</a><a href="b">b</a>`)...)
	sel := doc.Selection()
	doc.ReplaceBody()

	assert.Equal(t, 2, sel.Find("a").Length())
	assert.Empty(t, doc.HTML())
}

func TestBlockLayout(t *testing.T) {
	l := BlockLayout{LineHeight: 10, ListMargin: 5, BlockMargin: 3, BlockPadding: 10, BorderWidth: 1}

	tests := []struct {
		name string
		src  string
		want int
	}{
		{name: "empty", src: ``, want: 0},
		{name: "single line", src: `Loading…`, want: 10},
		{name: "whitespace only", src: "  \n ", want: 0},
		{name: "link then list", src: `<a href="">Back</a><ul><li><a href="a">a</a></li><li><a href="b">b</a></li></ul>`, want: 10 + 5 + 20 + 5},
		{name: "blob", src: `<a href="docs">Back</a><pre class="blob">one
two
</pre>`, want: 10 + 3 + 20 + 3 + 20 + 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument(l)
			doc.ReplaceBody(parseFragment(t, tt.src)...)
			assert.Equal(t, tt.want, doc.ScrollHeight())
		})
	}
}

func TestScrollHeightGrowsWithContent(t *testing.T) {
	doc := NewDocument(DefaultLayout().WithLineHeight(20))
	doc.ReplaceBody(parseFragment(t, `<ul><li>a</li></ul>`)...)
	short := doc.ScrollHeight()
	doc.ReplaceBody(parseFragment(t, `<ul><li>a</li><li>b</li><li>c</li></ul>`)...)
	assert.Equal(t, short+40, doc.ScrollHeight())
}
