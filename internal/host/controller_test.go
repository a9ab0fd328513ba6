package host

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/basket-facade/internal/bridge"
	"github.com/GriffinCanCode/basket-facade/internal/facade"
	"github.com/GriffinCanCode/basket-facade/internal/frame"
	"github.com/GriffinCanCode/basket-facade/internal/providers/repository"
	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu      sync.Mutex
	entries map[string]*repository.Entry
	calls   map[string]int
}

func newMemRepo() *memRepo {
	tree := func(names ...string) *repository.Entry {
		t := &repository.Tree{}
		for _, n := range names {
			t.Entries = append(t.Entries, repository.TreeEntry{Filename: n})
		}
		return &repository.Entry{Tree: t}
	}
	return &memRepo{
		entries: map[string]*repository.Entry{
			"":     tree("docs", "src"),
			"docs": tree("readme.txt"),
			"src":  tree("main.go"),
			"docs/readme.txt": {Blob: &repository.Blob{
				Content: base64.StdEncoding.EncodeToString([]byte("hello")),
			}},
		},
		calls: map[string]int{},
	}
}

func (r *memRepo) TreeEntry(_ context.Context, _, _, path string) (*repository.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[path]++
	if e, ok := r.entries[path]; ok {
		return e, nil
	}
	return nil, &repository.NetworkError{Op: "GET", URL: path, Status: 404}
}

func (r *memRepo) Calls(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[path]
}

type harness struct {
	page    *Page
	ctrl    *Controller
	runtime *frame.Runtime
	el      *FrameElement
	repo    *memRepo
	done    chan error

	mu      sync.Mutex
	renders []string
}

func start(t *testing.T, hash string) *harness {
	t.Helper()
	h := &harness{repo: newMemRepo(), done: make(chan error, 1)}

	hostEnd, frameEnd := bridge.Pipe()
	h.runtime = frame.New(frameEnd, frame.Options{
		Facade:  facade.FactoryName,
		Readers: func(string, string) repository.Reader { return h.repo },
	})

	h.page = NewPage(NewLocation(hash))
	h.el = NewFrameElement(DefaultFrameID, hostEnd)
	h.page.Mount(h.el)
	h.ctrl = NewController(h.page, Options{OnRender: func(html string, _ uint64) {
		h.mu.Lock()
		h.renders = append(h.renders, html)
		h.mu.Unlock()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.runtime.Run(ctx) }()
	go func() { h.done <- h.ctrl.Initialize(ctx, "alice", "notes") }()
	h.page.MarkReady()

	t.Cleanup(func() {
		cancel()
		_ = hostEnd.Close()
	})
	return h
}

// settle waits until the frame shows path as loaded and the host height
// matches the frame body.
func (h *harness) settle(t *testing.T, path string) {
	t.Helper()
	require.Eventually(t, func() bool {
		m := h.runtime.Module()
		if m == nil {
			return false
		}
		s := m.State()
		return s.Path == facade.Path(path) && s.Phase != facade.PhaseLoading &&
			h.el.Height() == h.runtime.Document().ScrollHeight()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestInitialRootRender(t *testing.T) {
	h := start(t, "#")
	h.settle(t, "")

	sel := h.runtime.Document().Selection()
	assert.Equal(t, 0, sel.Find("a:contains('Back')").Length())
	assert.Equal(t, 2, sel.Find("li a").Length())
	assert.Greater(t, h.el.Height(), 0)
	assert.Equal(t, 1, h.repo.Calls(""))
}

func TestDeepLinkBlob(t *testing.T) {
	h := start(t, "#docs/readme.txt")
	h.settle(t, "docs/readme.txt")

	sel := h.runtime.Document().Selection()
	assert.Equal(t, "hello", sel.Find("pre.blob").Text())
	assert.Equal(t, "docs", sel.Find("a").First().AttrOr("href", ""))
	assert.Equal(t, "#docs/readme.txt", h.page.Location.Hash())
}

func TestClickUpdatesAddressBarOnce(t *testing.T) {
	h := start(t, "")
	h.settle(t, "")

	require.True(t, h.runtime.Document().ClickHref("docs"))
	h.settle(t, "docs")
	assert.Equal(t, "#docs", h.page.Location.Hash())

	require.True(t, h.runtime.Document().ClickHref("docs/readme.txt"))
	h.settle(t, "docs/readme.txt")
	assert.Equal(t, "#docs/readme.txt", h.page.Location.Hash())

	// Back link to the parent, then to the root.
	require.True(t, h.runtime.Document().ClickHref("docs"))
	h.settle(t, "docs")
	require.True(t, h.runtime.Document().ClickHref(""))
	h.settle(t, "")
	assert.Equal(t, "", h.page.Location.Hash())

	assert.Equal(t, 2, h.repo.Calls("docs"))
	assert.Equal(t, 1, h.repo.Calls("docs/readme.txt"))
}

func TestUserHashChangeIsForwarded(t *testing.T) {
	h := start(t, "")
	h.settle(t, "")

	h.page.Location.SetHash("src")
	h.settle(t, "src")

	require.True(t, h.page.Location.Back())
	h.settle(t, "")
	assert.Equal(t, 1, h.repo.Calls("src"))
}

func TestControllerClick(t *testing.T) {
	h := start(t, "")
	h.settle(t, "")
	<-h.ctrl.Ready()

	require.NoError(t, h.ctrl.Click(context.Background(), "src"))
	h.settle(t, "src")
	assert.Equal(t, "#src", h.page.Location.Hash())
}

func TestReloadRefetches(t *testing.T) {
	h := start(t, "#src")
	h.settle(t, "src")
	require.Equal(t, 1, h.repo.Calls("src"))

	require.NoError(t, h.ctrl.Reload(context.Background()))
	assert.Eventually(t, func() bool { return h.repo.Calls("src") == 2 }, time.Second, 5*time.Millisecond)
	h.settle(t, "src")
	assert.Equal(t, "#src", h.page.Location.Hash())
}

func TestRenderSnapshots(t *testing.T) {
	h := start(t, "")
	h.settle(t, "")

	assert.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		n := len(h.renders)
		if n == 0 {
			return false
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(h.renders[n-1]))
		return err == nil && doc.Find("li a").Length() == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestInitializeTwice(t *testing.T) {
	h := start(t, "#")
	h.settle(t, "")

	err := h.ctrl.Initialize(context.Background(), "alice", "notes")
	assert.ErrorIs(t, err, ErrStarted)

	// The running session is unaffected.
	require.True(t, h.runtime.Document().ClickHref("docs"))
	h.settle(t, "docs")
}

func TestMissingFrameIsNoop(t *testing.T) {
	page := NewPage(nil)
	page.MarkReady()
	err := NewController(page, Options{}).Initialize(context.Background(), "alice", "notes")
	assert.NoError(t, err)
}

func TestFrameWithoutFacade(t *testing.T) {
	hostEnd, frameEnd := bridge.Pipe()
	defer hostEnd.Close()

	rt := frame.New(frameEnd, frame.Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = rt.Run(ctx) }()

	page := NewPage(nil)
	page.Mount(NewFrameElement(DefaultFrameID, hostEnd))
	page.MarkReady()

	err := NewController(page, Options{}).Initialize(ctx, "alice", "notes")
	assert.ErrorIs(t, err, ErrNoFacade)
}

func TestStartupOrdering(t *testing.T) {
	hostEnd, frameEnd := bridge.Pipe()
	defer hostEnd.Close()

	page := NewPage(NewLocation("#docs"))
	page.Mount(NewFrameElement(DefaultFrameID, hostEnd))
	page.MarkReady()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = NewController(page, Options{}).Initialize(ctx, "alice", "notes") }()

	require.NoError(t, frameEnd.Send(ctx, bridge.Ready(facade.FactoryName)))

	var kinds []bridge.Kind
	for len(kinds) < 3 {
		m, err := frameEnd.Receive(ctx)
		require.NoError(t, err)
		kinds = append(kinds, m.Kind)
		if m.Kind == bridge.KindHashChange {
			assert.Equal(t, "#docs", m.Hash)
		}
	}
	assert.Equal(t, []bridge.Kind{bridge.KindInit, bridge.KindHashChange, bridge.KindLoad}, kinds)

	// The resize contract: height follows every report.
	require.NoError(t, frameEnd.Send(ctx, bridge.Resize(123)))
	assert.Eventually(t, func() bool { return page.Element(DefaultFrameID).Height() == 123 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "height: 123px", page.Element(DefaultFrameID).Style())
}

func TestInitializeReturnsWhenFrameCloses(t *testing.T) {
	h := start(t, "")
	h.settle(t, "")

	require.NoError(t, h.el.Conn.Close())
	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Initialize did not return")
	}
}
