package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/basket-facade/internal/bridge"
	"github.com/GriffinCanCode/basket-facade/internal/facade"
	"go.uber.org/zap"
)

// DefaultFrameID is the id of the element hosting the facade frame.
const DefaultFrameID = "facade-iframe"

// ErrNoFacade is returned when the frame loads without a facade module.
// The host page is unaffected.
var ErrNoFacade = errors.New("host: frame does not provide a facade")

// ErrStarted is returned by a second Initialize on the same Controller.
var ErrStarted = errors.New("host: controller already initialized")

// Options configures a Controller.
type Options struct {
	FrameID string
	Logger  *zap.Logger
	// OnRender receives sanitized body snapshots from the frame.
	OnRender func(html string, generation uint64)
}

// Controller wires a page to the facade in its frame: it relays hash
// navigation both ways and keeps the frame element sized to its content.
type Controller struct {
	page     *Page
	frameID  string
	logger   *zap.Logger
	onRender func(string, uint64)

	mu      sync.Mutex
	frame   *FrameElement
	ready   chan struct{}
	started atomic.Bool

	// selfHash is the hash the controller itself is writing, so the
	// resulting location event is not forwarded a second time.
	selfHash atomic.Pointer[string]
}

// NewController creates a controller for page.
func NewController(page *Page, opts Options) *Controller {
	if opts.FrameID == "" {
		opts.FrameID = DefaultFrameID
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		page:     page,
		frameID:  opts.FrameID,
		logger:   opts.Logger,
		onRender: opts.OnRender,
		ready:    make(chan struct{}),
	}
}

// Initialize waits for the page to be ready, then drives the frame until
// ctx is cancelled or the frame connection closes. A page without the frame
// element is left alone.
func (c *Controller) Initialize(ctx context.Context, owner, basket string) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrStarted
	}
	select {
	case <-c.page.Ready():
	case <-ctx.Done():
		return nil
	}

	frame := c.page.Element(c.frameID)
	if frame == nil {
		c.logger.Debug("no facade frame on page", zap.String("id", c.frameID))
		return nil
	}
	c.mu.Lock()
	c.frame = frame
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	msgs := c.receive(ctx, frame.Conn)

	if err := c.awaitFrame(ctx, msgs, owner, basket); err != nil {
		return err
	}
	close(c.ready)

	events := make(chan string, 64)
	hash, unsubscribe := c.page.Location.Watch(func(h string) {
		if self := c.selfHash.Load(); self != nil && *self == h {
			return
		}
		select {
		case events <- h:
		case <-ctx.Done():
		}
	})
	defer unsubscribe()

	if err := c.send(ctx, frame, bridge.HashChange(hash)); err != nil {
		return nil
	}
	if err := c.send(ctx, frame, bridge.Load()); err != nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case h := <-events:
			if err := c.send(ctx, frame, bridge.HashChange(h)); err != nil {
				return nil
			}
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := c.handle(ctx, frame, msg); err != nil {
				return nil
			}
		}
	}
}

// awaitFrame waits for the frame's ready message and initialises the
// facade in it.
func (c *Controller) awaitFrame(ctx context.Context, msgs <-chan bridge.Message, owner, basket string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if msg.Kind != bridge.KindReady {
				c.logger.Debug("message before ready", zap.String("kind", string(msg.Kind)))
				continue
			}
			if msg.Facade != facade.FactoryName {
				c.logger.Warn("frame loaded without facade", zap.String("facade", msg.Facade))
				return ErrNoFacade
			}
			if err := c.frame.Conn.Send(ctx, bridge.Init(owner, basket)); err != nil {
				return fmt.Errorf("host: init facade: %w", err)
			}
			return nil
		}
	}
}

func (c *Controller) handle(ctx context.Context, frame *FrameElement, msg bridge.Message) error {
	switch msg.Kind {
	case bridge.KindNavigate:
		return c.setHash(ctx, frame, msg.Path)
	case bridge.KindResize:
		frame.SetHeight(msg.Height)
	case bridge.KindRender:
		if c.onRender != nil {
			c.onRender(msg.HTML, msg.Generation)
		}
	case bridge.KindError:
		c.logger.Warn("frame reported error", zap.String("error", msg.Error))
	default:
		c.logger.Debug("ignoring message", zap.String("kind", string(msg.Kind)))
	}
	return nil
}

// setHash is the parent capability: update the address bar, then tell the
// facade directly.
func (c *Controller) setHash(ctx context.Context, frame *FrameElement, path string) error {
	self := normalize(path)
	c.selfHash.Store(&self)
	c.page.Location.SetHash(path)
	c.selfHash.Store(nil)

	return c.send(ctx, frame, bridge.HashChange("#"+path))
}

func (c *Controller) send(ctx context.Context, frame *FrameElement, msg bridge.Message) error {
	err := frame.Conn.Send(ctx, msg)
	if err != nil && !errors.Is(err, bridge.ErrClosed) && ctx.Err() == nil {
		c.logger.Warn("send to frame failed", zap.String("kind", string(msg.Kind)), zap.Error(err))
	}
	return err
}

// receive pumps frame messages into a channel closed when the connection
// ends.
func (c *Controller) receive(ctx context.Context, conn bridge.Conn) <-chan bridge.Message {
	out := make(chan bridge.Message)
	go func() {
		defer close(out)
		for {
			msg, err := conn.Receive(ctx)
			if errors.Is(err, bridge.ErrMalformed) {
				c.logger.Warn("dropping malformed frame message", zap.Error(err))
				continue
			}
			if err != nil {
				return
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Ready is closed once the facade has been initialised in the frame.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Click forwards a click on a rendered link into the frame.
func (c *Controller) Click(ctx context.Context, href string) error {
	c.mu.Lock()
	frame := c.frame
	c.mu.Unlock()
	if frame == nil {
		return errors.New("host: no frame")
	}
	return frame.Conn.Send(ctx, bridge.Click(href))
}

// Reload asks the facade to navigate to the current hash again. Setting an
// unchanged hash fires no event, so this is how a page re-fetches.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	frame := c.frame
	c.mu.Unlock()
	if frame == nil {
		return errors.New("host: no frame")
	}
	return c.send(ctx, frame, bridge.HashChange(c.page.Location.Hash()))
}
