package facade

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/basket-facade/internal/providers/repository"
	"github.com/GriffinCanCode/basket-facade/internal/sandbox"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parent is the capability the host hands the module.
type Parent interface {
	SetHash(path string)
}

// ParentFunc adapts a function to Parent.
type ParentFunc func(path string)

func (f ParentFunc) SetHash(path string) { f(path) }

// Handle is what the host drives.
type Handle interface {
	OnHashChange(hash string)
	OnLoad()
}

// Options carries optional collaborators.
type Options struct {
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	// OnLoad runs when the host reports the initial render was requested.
	OnLoad func()
}

// Module renders a navigable repository tree into a document.
type Module struct {
	owner   string
	basket  string
	parent  Parent
	repo    repository.Reader
	doc     *sandbox.Document
	logger  *zap.Logger
	metrics *monitoring.Metrics
	onLoad  func()

	ctx      context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	// renderMu orders body replacement; it is taken before mu.
	renderMu sync.Mutex

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	state      State
	done       chan struct{}
	closed     bool
}

var _ Handle = (*Module)(nil)

// New installs the module into doc: link clicks are turned into
// parent.SetHash calls and the body shows the loading placeholder.
func New(owner, basket string, parent Parent, repo repository.Reader, doc *sandbox.Document, opts Options) *Module {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, shutdown := context.WithCancel(context.Background())

	settled := make(chan struct{})
	close(settled)

	m := &Module{
		owner:    owner,
		basket:   basket,
		parent:   parent,
		repo:     repo,
		doc:      doc,
		logger:   logger.With(zap.String("owner", owner), zap.String("basket", basket)),
		metrics:  opts.Metrics,
		onLoad:   opts.OnLoad,
		ctx:      ctx,
		shutdown: shutdown,
		state:    State{Phase: PhaseLoading},
		done:     settled,
	}

	doc.AddClickListener(m.intercept)
	doc.ReplaceBody(Render(m.state)...)
	return m
}

// intercept turns a click on a link into a hash change request.
func (m *Module) intercept(ev *sandbox.ClickEvent) {
	t := ev.Target
	if t == nil || t.Type != html.ElementNode || t.DataAtom != atom.A {
		return
	}
	href, ok := sandbox.Attr(t, "href")
	if !ok {
		return
	}
	ev.PreventDefault()
	m.parent.SetHash(href)
}

// OnHashChange starts a navigation to the path in hash. Any navigation
// still in flight is cancelled and its result will be discarded.
func (m *Module) OnHashChange(hash string) {
	path := PathFromHash(hash)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.generation++
	gen := m.generation
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	done := make(chan struct{})
	m.done = done
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Debug("navigation started", zap.Uint64("generation", gen), zap.String("path", path.String()))
	m.apply(State{Generation: gen, Path: path, Phase: PhaseLoading})

	go func() {
		defer m.wg.Done()
		defer close(done)
		defer cancel()
		m.fetch(ctx, gen, path)
	}()
}

func (m *Module) fetch(ctx context.Context, gen uint64, path Path) {
	start := time.Now()
	entry, err := m.repo.TreeEntry(ctx, m.owner, m.basket, path.String())
	next := settle(gen, path, entry, err)

	if !m.apply(next) {
		m.metrics.RecordNavigation(monitoring.OutcomeDiscarded)
		m.logger.Debug("navigation discarded",
			zap.Uint64("generation", gen),
			zap.String("path", path.String()),
			zap.NamedError("reason", ErrNavigationRace))
		return
	}

	if next.Phase == PhaseFailed {
		m.metrics.RecordNavigation(monitoring.OutcomeFailed)
		m.logger.Warn("navigation failed",
			zap.String("path", path.String()),
			zap.String("kind", FailureKind(next.Err)),
			zap.Error(next.Err))
		return
	}
	m.metrics.RecordNavigation(monitoring.OutcomeLoaded)
	m.logger.Debug("navigation loaded",
		zap.String("path", path.String()),
		zap.Duration("elapsed", time.Since(start)))
}

// apply renders s if it still belongs to the current navigation.
func (m *Module) apply(s State) bool {
	m.renderMu.Lock()
	defer m.renderMu.Unlock()

	m.mu.Lock()
	if m.closed || s.Generation != m.generation {
		m.mu.Unlock()
		return false
	}
	m.state = s
	m.mu.Unlock()

	m.doc.ReplaceBody(Render(s)...)
	return true
}

// OnLoad runs the optional load hook. It has no other effect.
func (m *Module) OnLoad() {
	if m.onLoad != nil {
		m.onLoad()
	}
}

// State returns the current navigation state.
func (m *Module) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Wait blocks until the latest navigation has settled and returns its
// state.
func (m *Module) Wait(ctx context.Context) (State, error) {
	for {
		m.mu.Lock()
		done, gen := m.done, m.generation
		m.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return State{}, ctx.Err()
		}

		m.mu.Lock()
		current, s := m.generation == gen, m.state
		m.mu.Unlock()
		if current {
			return s, nil
		}
	}
}

// Close cancels in-flight work and waits for it to stop. Later hash
// changes are ignored.
func (m *Module) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("facade: already closed")
	}
	m.closed = true
	m.mu.Unlock()

	m.shutdown()
	m.wg.Wait()
	return nil
}
