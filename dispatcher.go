package routekit

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/bjaus/routekit"

// Dispatcher is the entry point of the routing engine. It owns the root
// routers, the dependency map and the run policy, and is called once per
// incoming update.
//
// Usage:
//  1. Create a dispatcher with New
//  2. Attach root routers with AddRouter
//  3. Call FeedUpdate for every update, or Run with a Source
//
// Dispatcher is safe for concurrent use. Each FeedUpdate call keeps its own
// per-event state, so many updates can be dispatched at the same time.
type Dispatcher struct {
	client      Client
	deps        Deps
	policy      RunPolicy
	concurrency int
	logger      watermill.LoggerAdapter
	tracer      trace.Tracer
	hooks       hooks
	gates       [kindCount]*Gate

	// guarded by treeMu
	routers []*Router
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// New creates a Dispatcher passing client to every callback.
//
// By default the dispatcher uses the OneRunPerEvent policy, an empty
// dependency map, a no-op logger and the global OpenTelemetry tracer provider.
//
// Example:
//
//	d := routekit.New(client,
//	    routekit.WithDependencies(routekit.Deps{"db": db}),
//	    routekit.WithRunPolicy(routekit.OneRunPerRouter),
//	    routekit.WithLogger(watermill.NewSlogLogger(slog.Default())),
//	)
func New(client Client, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client:      client,
		deps:        Deps{},
		policy:      OneRunPerEvent,
		concurrency: 1,
		logger:      watermill.NopLogger{},
	}
	for _, k := range Kinds() {
		d.gates[k] = &Gate{kind: k}
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.tracer == nil {
		d.tracer = otel.GetTracerProvider().Tracer(tracerName)
	}
	return d
}

// WithDependencies sets the dependency map. The map is copied; later changes
// to deps are not seen by the dispatcher.
func WithDependencies(deps Deps) Option {
	return func(d *Dispatcher) {
		d.deps = cloneDeps(deps)
	}
}

// WithRunPolicy sets the run policy.
func WithRunPolicy(p RunPolicy) Option {
	return func(d *Dispatcher) {
		d.policy = p
	}
}

// WithConcurrency sets how many updates Run dispatches at once. Values below
// 1 are treated as 1, which keeps the source order.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		d.concurrency = max(n, 1)
	}
}

// WithLogger sets the logger. Dispatches are logged at debug level, holder
// and handler decisions at trace level and failures at error level.
func WithLogger(l watermill.LoggerAdapter) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithTracerProvider sets the provider of the tracer used for dispatch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Dispatcher) {
		if tp != nil {
			d.tracer = tp.Tracer(tracerName)
		}
	}
}

// RunPolicy returns the run policy.
func (d *Dispatcher) RunPolicy() RunPolicy { return d.policy }

// Deps returns a copy of the dependency map.
func (d *Dispatcher) Deps() Deps { return cloneDeps(d.deps) }

// Gate returns the gate guarding every dispatch of kind. It panics for
// unknown kinds.
func (d *Dispatcher) Gate(kind Kind) *Gate {
	if !kind.valid() {
		panic(fmt.Sprintf("routekit: unknown update kind %v", kind))
	}
	return d.gates[kind]
}

// Routers returns the root routers in attachment order.
func (d *Dispatcher) Routers() []*Router {
	treeMu.RLock()
	defer treeMu.RUnlock()
	return slices.Clone(d.routers)
}

// AddRouter attaches a root router.
func (d *Dispatcher) AddRouter(r *Router) error {
	return d.AddRouters(r)
}

// AddRouters attaches root routers in order. A root must not have a parent
// and must not be attached to any dispatcher yet. Either all routers are
// attached or none is.
func (d *Dispatcher) AddRouters(routers ...*Router) error {
	treeMu.Lock()
	defer treeMu.Unlock()

	for i, r := range routers {
		switch {
		case r == nil:
			return fmt.Errorf("add root: nil router: %w", ErrAlreadyAttached)
		case r.parent != nil:
			return fmt.Errorf("add root %s: already a child of %s: %w", r, r.parent, ErrAlreadyAttached)
		case r.root != nil, slices.Contains(routers[:i], r):
			return fmt.Errorf("add root %s: %w", r, ErrAlreadyAttached)
		}
	}
	for _, r := range routers {
		r.root = d
		d.routers = append(d.routers, r)
	}
	return nil
}

// FeedUpdate dispatches one update through the root routers and reports
// whether any handler triggered.
//
// A *Message with an EditDate is dispatched as an *EditedMessage, so it reaches
// the EditedMessage holders.
//
// The processing flow:
//  1. Build a fresh Event from the client, the update and the dependencies
//  2. Call OnReceive hooks
//  3. Pass the event through the Gate of its kind
//  4. Offer the event to each root router in order, stopping after the first
//     one that triggered under OneRunPerEvent
//  5. Call OnHandled, OnUnhandled or OnFailure hooks
//  6. Drop all per-event state
//
// Handler and filter errors are returned as *ProcessingError, which names the
// router and handler that failed. ErrInterrupt never escapes a holder.
func (d *Dispatcher) FeedUpdate(ctx context.Context, update Update) (bool, error) {
	return d.dispatch(ctx, update, false)
}

func (d *Dispatcher) dispatch(ctx context.Context, update Update, recoverPanics bool) (triggered bool, err error) {
	if update == nil {
		return false, fmt.Errorf("%w: nil update", ErrUnknownKind)
	}
	if m, ok := update.(*Message); ok {
		update = ResolveMessage(m)
	}

	ev := newEvent(d.client, update, d.deps, d.logger)
	ev.hooks = &d.hooks
	defer ev.reset()

	ctx, span := d.tracer.Start(ctx, "routekit.FeedUpdate", trace.WithAttributes(
		attribute.String("routekit.event_id", ev.ID),
		attribute.String("routekit.kind", ev.Kind().String()),
		attribute.String("routekit.run_policy", d.policy.String()),
	))
	defer span.End()

	ctx = ContextWithEvent(ctx, ev)
	ctx = d.hooks.callOnReceive(ctx, ev)

	start := time.Now()
	if recoverPanics {
		triggered, err = d.feedRecovered(ctx, ev)
	} else {
		triggered, err = d.feed(ctx, ev)
	}
	if err == nil && !triggered {
		err = d.hooks.callOnUnhandled(ctx, ev)
	}
	duration := time.Since(start)

	span.SetAttributes(attribute.Bool("routekit.triggered", triggered))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ev.logger.Error("update processing failed", err, watermill.LogFields{"duration": duration})
		d.hooks.callOnFailure(ctx, ev, err, duration)
		return triggered, err
	}

	ev.logger.Debug("update dispatched", watermill.LogFields{"triggered": triggered, "duration": duration})
	if triggered {
		d.hooks.callOnHandled(ctx, ev, duration)
	}
	return triggered, nil
}

func (d *Dispatcher) feedRoots(ctx context.Context, ev *Event) (bool, error) {
	var triggered bool
	for _, r := range d.Routers() {
		ok, err := r.feedUpdate(ctx, ev, d.policy)
		if err != nil {
			return triggered || ok, err
		}
		if !ok {
			continue
		}
		triggered = true
		if d.policy.stopsSiblings() {
			break
		}
	}
	return triggered, nil
}

func (d *Dispatcher) feed(ctx context.Context, ev *Event) (bool, error) {
	return d.gates[ev.Kind()].run(ctx, ev, d.feedRoots)
}

// feedRecovered is feed with panics turned into ErrPanic. Pending middleware
// exits have already run when the panic reaches it.
func (d *Dispatcher) feedRecovered(ctx context.Context, ev *Event) (triggered bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return d.feed(ctx, ev)
}
