package facade

import (
	"bytes"
	"errors"
	"testing"

	"github.com/GriffinCanCode/basket-facade/internal/providers/repository"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func renderDoc(t *testing.T, s State) (*goquery.Selection, string) {
	t.Helper()
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	var buf bytes.Buffer
	for _, n := range Render(s) {
		body.AppendChild(n)
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		require.NoError(t, html.Render(&buf, c))
	}
	return goquery.NewDocumentFromNode(body).Selection, buf.String()
}

func treeEntry(names ...string) *repository.Entry {
	tree := &repository.Tree{}
	for _, n := range names {
		tree.Entries = append(tree.Entries, repository.TreeEntry{Filename: n})
	}
	return &repository.Entry{Tree: tree}
}

func TestRenderLoading(t *testing.T) {
	_, out := renderDoc(t, State{Phase: PhaseLoading, Path: "docs"})
	assert.Equal(t, LoadingText, out)
}

func TestRenderRootTree(t *testing.T) {
	sel, _ := renderDoc(t, State{Phase: PhaseLoaded, Entry: treeEntry("zeta", "alpha", "docs")})

	links := sel.Find("a")
	require.Equal(t, 3, links.Length(), "no Back link at root")

	var hrefs, labels []string
	links.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		hrefs = append(hrefs, href)
		labels = append(labels, a.Text())
	})
	assert.Equal(t, []string{"zeta", "alpha", "docs"}, hrefs)
	assert.Equal(t, []string{"zeta", "alpha", "docs"}, labels)
	assert.Equal(t, 3, sel.Find("ul > li > a").Length())
}

func TestRenderNestedTree(t *testing.T) {
	sel, _ := renderDoc(t, State{Phase: PhaseLoaded, Path: "a/b", Entry: treeEntry("c", "d")})

	first := sel.Find("a").First()
	assert.Equal(t, "Back", first.Text())
	assert.Equal(t, "a", first.AttrOr("href", "?"))

	var hrefs []string
	sel.Find("li a").Each(func(_ int, a *goquery.Selection) {
		hrefs = append(hrefs, a.AttrOr("href", ""))
	})
	assert.Equal(t, []string{"a/b/c", "a/b/d"}, hrefs)
}

func TestRenderBlob(t *testing.T) {
	sel, _ := renderDoc(t, State{
		Phase:   PhaseLoaded,
		Path:    "docs/readme.txt",
		Entry:   &repository.Entry{Blob: &repository.Blob{Content: "aGVsbG8="}},
		Content: "hello",
	})

	assert.Equal(t, "docs", sel.Find("a").First().AttrOr("href", ""))
	pre := sel.Find("pre.blob")
	require.Equal(t, 1, pre.Length())
	assert.Equal(t, "hello", pre.Text())
	assert.Contains(t, pre.AttrOr("style", ""), "border")
	assert.Contains(t, pre.AttrOr("data-mime", ""), "text/plain")
}

func TestRenderBlobEscapesMarkup(t *testing.T) {
	content := `<script>alert("x")</script><a href="evil">x</a>`
	sel, out := renderDoc(t, State{
		Phase:   PhaseLoaded,
		Path:    "x.html",
		Entry:   &repository.Entry{Blob: &repository.Blob{}},
		Content: content,
	})

	assert.Equal(t, 0, sel.Find("script").Length())
	assert.Equal(t, 1, sel.Find("a").Length(), "only the Back link")
	assert.Equal(t, content, sel.Find("pre").Text())
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderFailures(t *testing.T) {
	netErr := &repository.NetworkError{Op: "GET", URL: "u", Status: 502}
	decErr := &repository.DecodeError{Op: "tree entry", Err: errors.New("bad")}

	t.Run("network has retry", func(t *testing.T) {
		sel, _ := renderDoc(t, State{Phase: PhaseFailed, Path: "docs/a", Err: netErr})
		assert.Equal(t, 1, sel.Find(".error-network").Length())
		retry := sel.Find("a.retry")
		require.Equal(t, 1, retry.Length())
		assert.Equal(t, "docs/a", retry.AttrOr("href", ""))
		assert.Equal(t, "docs", sel.Find("a").First().AttrOr("href", ""))
	})

	t.Run("decode is distinct from empty", func(t *testing.T) {
		failed, _ := renderDoc(t, State{Phase: PhaseFailed, Err: decErr})
		empty, _ := renderDoc(t, State{Phase: PhaseLoaded, Entry: treeEntry()})

		assert.Equal(t, 1, failed.Find(".error-decode").Length())
		assert.Equal(t, 0, failed.Find("a.retry").Length())
		assert.Equal(t, 0, empty.Find(".error").Length())
		assert.Equal(t, 1, empty.Find("ul").Length())
	})

	t.Run("unknown", func(t *testing.T) {
		sel, _ := renderDoc(t, State{Phase: PhaseFailed, Err: errors.New("boom")})
		assert.Equal(t, 1, sel.Find(".error-unknown").Length())
	})
}

func TestRenderIsDeterministic(t *testing.T) {
	s := State{Phase: PhaseLoaded, Path: "a/b", Entry: treeEntry("x", "y")}
	_, first := renderDoc(t, s)
	_, second := renderDoc(t, s)
	assert.Equal(t, first, second)
}
