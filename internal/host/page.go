package host

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/basket-facade/internal/bridge"
)

// FrameElement is the host-side element embedding a frame. Its only
// channel to the frame is Conn.
type FrameElement struct {
	ID   string
	Conn bridge.Conn

	mu     sync.Mutex
	height int
}

// NewFrameElement creates an element wired to a frame over conn.
func NewFrameElement(id string, conn bridge.Conn) *FrameElement {
	return &FrameElement{ID: id, Conn: conn}
}

// Height returns the element height in pixels.
func (f *FrameElement) Height() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height
}

// SetHeight sets the element's height style.
func (f *FrameElement) SetHeight(px int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.height = px
}

// Style renders the element's inline style.
func (f *FrameElement) Style() string {
	return fmt.Sprintf("height: %dpx", f.Height())
}

// Page is the top-level host document.
type Page struct {
	Location *Location

	mu       sync.Mutex
	elements map[string]*FrameElement
	ready    chan struct{}
	once     sync.Once
}

// NewPage creates a page at loc. A nil loc starts at the root hash.
func NewPage(loc *Location) *Page {
	if loc == nil {
		loc = NewLocation("")
	}
	return &Page{Location: loc, elements: make(map[string]*FrameElement), ready: make(chan struct{})}
}

// Mount adds an element to the page.
func (p *Page) Mount(el *FrameElement) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[el.ID] = el
}

// Element looks an element up by id; nil when absent.
func (p *Page) Element(id string) *FrameElement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements[id]
}

// MarkReady signals that the page's DOM is complete. Later calls are no-ops.
func (p *Page) MarkReady() {
	p.once.Do(func() { close(p.ready) })
}

// Ready is closed once MarkReady has been called.
func (p *Page) Ready() <-chan struct{} {
	return p.ready
}
