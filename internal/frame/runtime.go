package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/basket-facade/internal/bridge"
	"github.com/GriffinCanCode/basket-facade/internal/facade"
	"github.com/GriffinCanCode/basket-facade/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/basket-facade/internal/providers/repository"
	"github.com/GriffinCanCode/basket-facade/internal/sandbox"
	"github.com/GriffinCanCode/basket-facade/internal/shared/utils"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// ReaderFactory builds the repository reader for one owner/basket pair.
type ReaderFactory func(owner, basket string) repository.Reader

// Options configures a Runtime.
type Options struct {
	Readers ReaderFactory
	Layout  sandbox.Layout
	Policy  *bluemonday.Policy
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	// Facade is the factory name announced in the ready message. Empty
	// announces a frame without a facade.
	Facade string
}

// Snapshot describes a runtime for session listings.
type Snapshot struct {
	Owner      string `json:"owner,omitempty"`
	Basket     string `json:"basket,omitempty"`
	Path       string `json:"path"`
	Phase      string `json:"phase"`
	Generation uint64 `json:"generation"`
	Height     int    `json:"height"`
}

// Runtime is the frame side of a bridge: it owns the document and the
// facade module and turns bridge messages into module calls.
type Runtime struct {
	conn    bridge.Conn
	doc     *sandbox.Document
	readers ReaderFactory
	policy  *bluemonday.Policy
	logger  *zap.Logger
	metrics *monitoring.Metrics
	name    string

	ctx    context.Context
	module atomic.Pointer[facade.Module]

	mu     sync.Mutex
	owner  string
	basket string
	height int
}

// New creates a runtime over conn. Run starts it.
func New(conn bridge.Conn, opts Options) *Runtime {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := opts.Policy
	if policy == nil {
		policy = SnapshotPolicy()
	}
	return &Runtime{
		conn:    conn,
		doc:     sandbox.NewDocument(opts.Layout),
		readers: opts.Readers,
		policy:  policy,
		logger:  logger,
		metrics: opts.Metrics,
		name:    opts.Facade,
		ctx:     context.Background(),
	}
}

// Document exposes the frame document.
func (r *Runtime) Document() *sandbox.Document { return r.doc }

// Module returns the facade once init has been received.
func (r *Runtime) Module() *facade.Module { return r.module.Load() }

// Run announces the frame and serves host messages until the connection
// closes or ctx is cancelled.
func (r *Runtime) Run(ctx context.Context) error {
	r.ctx = ctx
	r.metrics.IncFrames()
	defer r.metrics.DecFrames()

	stop := r.doc.Observe(sandbox.AllMutations, r.onMutation)
	defer stop()
	defer func() {
		if m := r.module.Load(); m != nil {
			_ = m.Close()
		}
	}()

	if err := r.conn.Send(ctx, bridge.Ready(r.name)); err != nil {
		return fmt.Errorf("frame: announce: %w", err)
	}

	for {
		msg, err := r.conn.Receive(ctx)
		switch {
		case err == nil:
		case errors.Is(err, bridge.ErrMalformed):
			r.logger.Warn("dropping malformed message", zap.Error(err))
			continue
		case errors.Is(err, bridge.ErrClosed), errors.Is(err, context.Canceled):
			return nil
		default:
			return fmt.Errorf("frame: receive: %w", err)
		}

		if err := r.dispatch(msg); err != nil {
			r.logger.Warn("message rejected", zap.String("kind", string(msg.Kind)), zap.Error(err))
			if sendErr := r.conn.Send(ctx, bridge.Failure(err)); sendErr != nil {
				return nil
			}
		}
	}
}

func (r *Runtime) dispatch(msg bridge.Message) error {
	if !msg.Kind.FromHost() {
		return fmt.Errorf("unexpected %s message from host", msg.Kind)
	}
	if msg.Kind == bridge.KindInit {
		return r.init(msg.Owner, msg.Basket)
	}

	m := r.module.Load()
	if m == nil {
		return fmt.Errorf("%s before init", msg.Kind)
	}
	switch msg.Kind {
	case bridge.KindHashChange:
		m.OnHashChange(msg.Hash)
	case bridge.KindLoad:
		m.OnLoad()
	case bridge.KindClick:
		if !r.doc.ClickHref(msg.Path) {
			r.logger.Debug("click on missing link", zap.String("href", msg.Path))
		}
	}
	return nil
}

func (r *Runtime) init(owner, basket string) error {
	if r.name == "" {
		return errors.New("frame hosts no facade")
	}
	if r.module.Load() != nil {
		return errors.New("facade already initialised")
	}
	if r.readers == nil {
		return errors.New("no repository configured")
	}
	if err := utils.ValidateName("owner", owner); err != nil {
		return err
	}
	if err := utils.ValidateName("basket", basket); err != nil {
		return err
	}

	r.mu.Lock()
	r.owner, r.basket = owner, basket
	r.mu.Unlock()

	parent := facade.ParentFunc(func(path string) {
		if err := r.conn.Send(r.ctx, bridge.Navigate(path)); err != nil {
			r.logger.Debug("navigate not delivered", zap.Error(err))
		}
	})
	m := facade.New(owner, basket, parent, r.readers(owner, basket), r.doc, facade.Options{
		Logger:  r.logger,
		Metrics: r.metrics,
	})
	r.module.Store(m)
	r.logger.Info("facade initialised", zap.String("owner", owner), zap.String("basket", basket))
	return nil
}

// onMutation reports the new height and a sanitized snapshot to the host.
func (r *Runtime) onMutation([]sandbox.MutationRecord) {
	height := r.doc.ScrollHeight()
	r.mu.Lock()
	r.height = height
	r.mu.Unlock()

	var gen uint64
	if m := r.module.Load(); m != nil {
		gen = m.State().Generation
	}

	if err := r.conn.Send(r.ctx, bridge.Resize(height)); err != nil {
		r.logger.Debug("resize not delivered", zap.Error(err))
		return
	}
	if err := r.conn.Send(r.ctx, bridge.Render(r.policy.Sanitize(r.doc.HTML()), gen)); err != nil {
		r.logger.Debug("render not delivered", zap.Error(err))
	}
}

// Snapshot returns the runtime's current state.
func (r *Runtime) Snapshot() Snapshot {
	r.mu.Lock()
	s := Snapshot{Owner: r.owner, Basket: r.basket, Height: r.height, Phase: "waiting"}
	r.mu.Unlock()

	if m := r.module.Load(); m != nil {
		st := m.State()
		s.Path = st.Path.String()
		s.Phase = st.Phase.String()
		s.Generation = st.Generation
	}
	return s
}
