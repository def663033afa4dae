package routekit

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Client is the handle of the connection that produced an update. The
// dispatcher passes it through untouched.
type Client any

// Event is the context of one dispatch. It carries the update, the client
// handle and the dependency map, and records what happened while the update
// travelled through the router tree: which routers and handlers triggered and
// the lifecycle state of every middleware.
//
// An Event belongs to a single FeedUpdate call and is not safe for use from
// other goroutines.
type Event struct {
	// ID is a time-sortable identifier unique to this dispatch.
	ID string

	Client Client
	Update Update
	Deps   Deps

	logger      watermill.LoggerAdapter
	hooks       *hooks
	middlewares map[Middleware]MiddlewareState
	routers     map[*Router]struct{}
	handlers    map[*Handler]struct{}
}

func newEvent(client Client, update Update, deps Deps, logger watermill.LoggerAdapter) *Event {
	id := newEventID()
	return &Event{
		ID:          id,
		Client:      client,
		Update:      update,
		Deps:        deps,
		logger:      logger.With(watermill.LogFields{"event_id": id, "kind": update.Kind().String()}),
		middlewares: make(map[Middleware]MiddlewareState),
		routers:     make(map[*Router]struct{}),
		handlers:    make(map[*Handler]struct{}),
	}
}

// Kind returns the kind the update is routed by.
func (e *Event) Kind() Kind { return e.Update.Kind() }

// MiddlewareState returns the lifecycle state of m for this event.
func (e *Event) MiddlewareState(m Middleware) MiddlewareState {
	return e.middlewares[m]
}

// RouterTriggered reports whether r's holder accepted the update.
func (e *Event) RouterTriggered(r *Router) bool {
	_, ok := e.routers[r]
	return ok
}

// HandlerTriggered reports whether h ran to completion for this update.
func (e *Event) HandlerTriggered(h *Handler) bool {
	_, ok := e.handlers[h]
	return ok
}

// Triggered reports whether any handler ran.
func (e *Event) Triggered() bool { return len(e.handlers) > 0 }

// TriggeredRouters returns the routers whose holder accepted the update.
func (e *Event) TriggeredRouters() []*Router {
	out := make([]*Router, 0, len(e.routers))
	for r := range e.routers {
		out = append(out, r)
	}
	return out
}

// observeHandler reports a finished handler callback to the hooks and the
// dispatch span.
func (e *Event) observeHandler(ctx context.Context, h *Handler, err error, d time.Duration) {
	trace.SpanFromContext(ctx).AddEvent("handler", trace.WithAttributes(
		attribute.String("routekit.router", h.router.name),
		attribute.String("routekit.handler", h.name),
		attribute.Bool("routekit.failed", err != nil),
	))
	if e.hooks != nil {
		e.hooks.callOnHandler(ctx, e, h, err, d)
	}
}

func (e *Event) markRouter(r *Router)   { e.routers[r] = struct{}{} }
func (e *Event) markHandler(h *Handler) { e.handlers[h] = struct{}{} }

// reset drops all per-event state so nothing leaks into later dispatches.
func (e *Event) reset() {
	clear(e.middlewares)
	clear(e.routers)
	clear(e.handlers)
}

type eventKey struct{}

// ContextWithEvent returns a context carrying ev.
func ContextWithEvent(ctx context.Context, ev *Event) context.Context {
	return context.WithValue(ctx, eventKey{}, ev)
}

// EventFromContext returns the Event being dispatched, if any. Filters,
// handlers and middlewares receive a context that carries it.
func EventFromContext(ctx context.Context) (*Event, bool) {
	ev, ok := ctx.Value(eventKey{}).(*Event)
	return ev, ok && ev != nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newEventID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
