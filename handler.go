package routekit

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"
)

// HandlerFunc processes an update. deps holds the dependencies the handler
// declared with WithDeps, or the whole map when it declared none.
type HandlerFunc func(ctx context.Context, client Client, update Update, deps Deps) error

// On adapts a handler written against one concrete update type. Updates of
// other types are passed over without error.
//
//	r.Message().Register(routekit.On(func(ctx context.Context, c routekit.Client, m *routekit.Message, deps routekit.Deps) error {
//	    return reply(ctx, c, m.Chat.ID, "pong")
//	}))
func On[T Update](fn func(ctx context.Context, client Client, update T, deps Deps) error) HandlerFunc {
	return func(ctx context.Context, client Client, update Update, deps Deps) error {
		u, ok := update.(T)
		if !ok {
			return nil
		}
		return fn(ctx, client, u, deps)
	}
}

// PriorityFactory assigns the priority of handlers registered without
// WithPriority. It receives the handler being registered and its router.
// The handler is not part of the router yet and has no default name; the
// factory may read the router, including its handlers.
type PriorityFactory func(h *Handler, r *Router) int

// DefaultPriority is the priority of handlers when no factory is set.
const DefaultPriority = 1

var priorityFactory atomic.Pointer[PriorityFactory]

// SetPriorityFactory replaces the process-wide priority factory. Passing nil
// restores DefaultPriority for every handler. Handlers already registered keep
// their priority.
func SetPriorityFactory(fn PriorityFactory) {
	if fn == nil {
		priorityFactory.Store(nil)
		return
	}
	priorityFactory.Store(&fn)
}

func defaultPriority(h *Handler, r *Router) int {
	if fn := priorityFactory.Load(); fn != nil {
		return (*fn)(h, r)
	}
	return DefaultPriority
}

// Handler is a callback bound to a holder with a priority and a filter.
// Lower priorities run first; handlers with equal priority run in
// registration order.
type Handler struct {
	name     string
	priority int
	filter   Filter
	fn       HandlerFunc
	deps     []string
	kind     Kind
	router   *Router
}

// Name returns the display name of the handler.
func (h *Handler) Name() string { return h.name }

// Priority returns the handler priority.
func (h *Handler) Priority() int { return h.priority }

// Kind returns the update kind the handler is registered for.
func (h *Handler) Kind() Kind { return h.kind }

// Router returns the router the handler belongs to.
func (h *Handler) Router() *Router { return h.router }

// Filter returns the handler's own filter.
func (h *Handler) Filter() Filter { return h.filter }

func (h *Handler) String() string {
	return fmt.Sprintf("handler %q (priority %d)", h.name, h.priority)
}

// run evaluates the handler filter and, if it matches, the callback. ran
// reports whether the callback completed without error.
func (h *Handler) run(ctx context.Context, ev *Event) (ran bool, err error) {
	ok, err := h.filter.Evaluate(ctx, ev.Client, ev.Update, ev.Deps)
	if err != nil {
		return false, wrapProcessing(err, h.router.name, h.name, h.kind, StageFilter)
	}
	if !ok {
		ev.logger.Trace("handler filter rejected update", handlerFields(h))
		return false, nil
	}
	start := time.Now()
	err = wrapProcessing(h.fn(ctx, ev.Client, ev.Update, ev.Deps.Pick(h.deps)), h.router.name, h.name, h.kind, StageHandler)
	ev.observeHandler(ctx, h, err, time.Since(start))
	if err != nil {
		return false, err
	}
	ev.markHandler(h)
	return true, nil
}

// HandlerOption configures a handler registration.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	name         string
	priority     int
	hasPriority  bool
	filter       Filter
	deps         []string
	allowedType  string
	allowedTypes []string
}

// WithName sets the display name used in logs, metrics and errors.
func WithName(name string) HandlerOption {
	return func(c *handlerConfig) { c.name = name }
}

// WithPriority sets the handler priority. 1 is the highest priority.
func WithPriority(p int) HandlerOption {
	return func(c *handlerConfig) {
		c.priority = p
		c.hasPriority = true
	}
}

// WithFilter sets the handler filter. Calling it more than once ANDs the
// filters together.
func WithFilter(f Filter) HandlerOption {
	return func(c *handlerConfig) { c.filter = c.filter.And(f) }
}

// WithDeps declares the dependencies the handler receives.
func WithDeps(names ...string) HandlerOption {
	return func(c *handlerConfig) { c.deps = append(c.deps, names...) }
}

// WithAllowedType restricts a raw update handler to one raw sub-kind.
func WithAllowedType(t string) HandlerOption {
	return func(c *handlerConfig) { c.allowedType = t }
}

// WithAllowedTypes restricts a raw update handler to a set of raw sub-kinds.
func WithAllowedTypes(types ...string) HandlerOption {
	return func(c *handlerConfig) { c.allowedTypes = append(c.allowedTypes, types...) }
}

func (c *handlerConfig) allowList(kind Kind) (Filter, error) {
	switch {
	case c.allowedType != "" && len(c.allowedTypes) > 0:
		return Filter{}, ErrConflictingAllowList
	case c.allowedType == "" && len(c.allowedTypes) == 0:
		return Filter{}, nil
	case kind != KindRawUpdate:
		return Filter{}, ErrAllowListNotRaw
	}
	allowed := c.allowedTypes
	if c.allowedType != "" {
		allowed = []string{c.allowedType}
	}
	allowed = slices.Clone(allowed)
	return NewFilter(When(func(_ context.Context, _ Client, u *RawUpdate, _ Deps) (bool, error) {
		return slices.Contains(allowed, u.Type), nil
	})), nil
}
