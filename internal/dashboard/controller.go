package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrSuperseded is returned when a newer refresh was issued before this one resolved.
var ErrSuperseded = errors.New("dashboard: refresh superseded by a newer request")

// Builder runs one refresh cycle. Implemented by Aggregator.
type Builder interface {
	Build(ctx context.Context, q Query, opts Options) (Cycle, error)
}

type inflight struct {
	token  uint64
	cancel context.CancelFunc
}

// Controller owns the displayed model of one viewer. Each refresh takes a generation
// token; a result whose token is no longer the latest is discarded.
type Controller struct {
	builder  Builder
	store    *Store
	gen      atomic.Uint64
	inflight atomic.Pointer[inflight]
	now      func() time.Time
}

// NewController wires a controller around builder.
func NewController(builder Builder) *Controller {
	return &Controller{builder: builder, store: NewStore(), now: time.Now}
}

// WithNow overrides the controller clock for testing.
func (c *Controller) WithNow(fn func() time.Time) {
	if fn != nil {
		c.now = fn
	}
}

// Current returns the displayed snapshot, or nil before the first refresh.
func (c *Controller) Current() *Snapshot {
	return c.store.Load()
}

// Refresh runs a cycle and publishes its result. Transport, malformed-payload and
// cancellation failures keep the previously displayed model (marked Retained); any other
// failure replaces it with the empty model.
func (c *Controller) Refresh(ctx context.Context, q Query, opts Options) (Snapshot, error) {
	token := c.gen.Add(1)
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	mine := &inflight{token: token, cancel: cancel}
	if prev := c.inflight.Swap(mine); prev != nil {
		prev.cancel()
	}
	defer c.inflight.CompareAndSwap(mine, nil)

	cycle, err := c.builder.Build(cctx, q, opts)
	if c.gen.Load() != token {
		return c.snapshotOrEmpty(q.Range, opts), ErrSuperseded
	}

	next := &Snapshot{Generation: token, CycleID: cycle.ID, UpdatedAt: c.now().UTC()}
	switch {
	case err == nil:
		next.Status = StatusReady
		next.Model = cycle.Model
	case holdsDisplayedModel(err):
		next.Status = StatusError
		next.Error = err.Error()
		if prev := c.store.Load(); prev != nil {
			next.Model = prev.Model
			next.Retained = true
		} else {
			next.Model = EmptyModel(q.Range, opts)
		}
	default:
		next.Status = StatusError
		next.Error = err.Error()
		next.Model = EmptyModel(q.Range, opts)
	}
	if !c.store.Commit(next) {
		return c.snapshotOrEmpty(q.Range, opts), ErrSuperseded
	}
	return *next, err
}

// Clear cancels any in-flight cycle and resets the displayed model to empty.
func (c *Controller) Clear(r DateRange, opts Options) Snapshot {
	token := c.gen.Add(1)
	if prev := c.inflight.Swap(nil); prev != nil {
		prev.cancel()
	}
	next := &Snapshot{
		Generation: token,
		Status:     StatusEmpty,
		UpdatedAt:  c.now().UTC(),
		Model:      EmptyModel(r, opts),
	}
	c.store.Commit(next)
	return *next
}

func (c *Controller) snapshotOrEmpty(r DateRange, opts Options) Snapshot {
	if snap := c.store.Load(); snap != nil {
		return *snap
	}
	return Snapshot{Status: StatusEmpty, Model: EmptyModel(r, opts)}
}

func holdsDisplayedModel(err error) bool {
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrMalformedPayload) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Registry hands out one Controller per viewer key.
type Registry struct {
	builder     Builder
	controllers sync.Map
}

// NewRegistry builds a registry whose controllers share builder.
func NewRegistry(builder Builder) *Registry {
	return &Registry{builder: builder}
}

// For returns the controller for key, creating it on first use.
func (r *Registry) For(key string) *Controller {
	if ctrl, ok := r.controllers.Load(key); ok {
		return ctrl.(*Controller)
	}
	ctrl, _ := r.controllers.LoadOrStore(key, NewController(r.builder))
	return ctrl.(*Controller)
}
