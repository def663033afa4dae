package routekit

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
)

// HandlerHolder groups the handlers of one update kind on one router together
// with the filter and the middlewares that guard them.
//
// Holders are safe for concurrent use: handlers and middlewares may be
// registered while other goroutines dispatch. A dispatch uses the lists as
// they were when it reached the holder.
type HandlerHolder struct {
	router *Router
	kind   Kind

	mu       sync.RWMutex
	filter   Filter
	outer    []Middleware
	inner    []Middleware
	handlers []*Handler
}

func newHandlerHolder(r *Router, kind Kind) *HandlerHolder {
	return &HandlerHolder{router: r, kind: kind}
}

// Kind returns the update kind served by the holder.
func (h *HandlerHolder) Kind() Kind { return h.kind }

// Router returns the router owning the holder.
func (h *HandlerHolder) Router() *Router { return h.router }

// Filter ANDs f into the holder filter. The holder filter is checked after the
// outer middlewares entered and before the inner ones.
func (h *HandlerHolder) Filter(f Filter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.filter = h.filter.And(f)
}

// Use appends inner middlewares. They wrap only this holder's handlers and are
// entered once the holder filter accepted the update.
func (h *HandlerHolder) Use(mws ...Middleware) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inner = append(h.inner, mws...)
}

// UseOuter appends outer middlewares. They are entered before the holder
// filter is evaluated, so they also see updates the filter rejects.
func (h *HandlerHolder) UseOuter(mws ...Middleware) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outer = append(h.outer, mws...)
}

// Register adds a handler to the holder and returns it.
//
// Example:
//
//	r.Message().Register(pingHandler,
//	    routekit.WithName("ping"),
//	    routekit.WithFilter(routekit.Command("ping", ".")),
//	    routekit.WithPriority(2),
//	)
func (h *HandlerHolder) Register(fn HandlerFunc, opts ...HandlerOption) (*Handler, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}

	var cfg handlerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	allow, err := cfg.allowList(h.kind)
	if err != nil {
		return nil, fmt.Errorf("register %s handler on %s: %w", h.kind, h.router, err)
	}

	hd := &Handler{
		name:   cfg.name,
		filter: allow.And(cfg.filter),
		fn:     fn,
		deps:   cfg.deps,
		kind:   h.kind,
		router: h.router,
	}

	// The factory may inspect the router, so it runs without h.mu held.
	if cfg.hasPriority {
		hd.priority = cfg.priority
	} else {
		hd.priority = defaultPriority(hd, h.router)
	}
	if hd.priority < 1 {
		return nil, fmt.Errorf("register %s handler on %s: %w: %d", h.kind, h.router, ErrInvalidPriority, hd.priority)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if hd.name == "" {
		hd.name = fmt.Sprintf("%s#%d", h.kind, len(h.handlers)+1)
	}
	h.handlers = append(h.handlers, hd)
	return hd, nil
}

// Handlers returns the registered handlers in registration order.
func (h *HandlerHolder) Handlers() []*Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.handlers)
}

// Ordered returns the handlers in execution order: ascending priority, ties
// in registration order.
func (h *HandlerHolder) Ordered() []*Handler {
	handlers := h.Handlers()
	sortHandlers(handlers)
	return handlers
}

func sortHandlers(handlers []*Handler) {
	slices.SortStableFunc(handlers, func(a, b *Handler) int {
		return cmp.Compare(a.priority, b.priority)
	})
}

type holderSnapshot struct {
	filter   Filter
	outer    []Middleware
	inner    []Middleware
	handlers []*Handler
}

func (h *HandlerHolder) snapshot() holderSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return holderSnapshot{
		filter:   h.filter,
		outer:    slices.Clone(h.outer),
		inner:    slices.Clone(h.inner),
		handlers: slices.Clone(h.handlers),
	}
}

// feedUpdate runs the holder for one event and reports whether at least one of
// its handlers triggered.
//
// The processing flow:
//  1. Enter outer middlewares
//  2. Evaluate the holder filter
//  3. Enter inner middlewares and mark the router triggered
//  4. Run handlers by priority, stopping after the first one that triggered
//     unless the policy is Unlimited
//  5. Exit inner then outer middlewares, last entered first
//
// Step 5 is deferred so it also happens on rejection, error, interrupt and
// panic. ErrInterrupt from steps 1 to 4 is turned into "not triggered"; errors
// returned by Exit hooks are always reported, with stage StageExit.
func (h *HandlerHolder) feedUpdate(ctx context.Context, ev *Event, policy RunPolicy) (triggered bool, err error) {
	snap := h.snapshot()
	routerName := h.router.name
	sc := &scope{ev: ev}

	defer func() {
		// Only the processing error can interrupt; exit errors always surface.
		if errors.Is(err, ErrInterrupt) {
			ev.logger.Debug("holder processing interrupted", watermill.LogFields{"router": routerName, "error": err.Error()})
			triggered, err = false, nil
		}
		if rerr := sc.release(ctx); rerr != nil {
			err = errors.Join(err, wrapProcessing(rerr, routerName, "", h.kind, StageExit))
		}
	}()

	for _, m := range snap.outer {
		if err := sc.enter(ctx, m); err != nil {
			return false, wrapProcessing(err, routerName, "", h.kind, StageEnter)
		}
	}

	ok, err := snap.filter.Evaluate(ctx, ev.Client, ev.Update, ev.Deps)
	if err != nil {
		return false, wrapProcessing(err, routerName, "", h.kind, StageFilter)
	}
	if !ok {
		ev.logger.Trace("holder filter rejected update", watermill.LogFields{"router": routerName})
		return false, nil
	}

	for _, m := range snap.inner {
		if err := sc.enter(ctx, m); err != nil {
			return false, wrapProcessing(err, routerName, "", h.kind, StageEnter)
		}
	}

	ev.markRouter(h.router)

	sortHandlers(snap.handlers)
	for _, hd := range snap.handlers {
		ran, err := hd.run(ctx, ev)
		if err != nil {
			return false, err
		}
		if !ran {
			continue
		}
		triggered = true
		ev.logger.Trace("handler triggered", handlerFields(hd))
		if policy.stopsHolder() {
			break
		}
	}
	return triggered, nil
}

func handlerFields(h *Handler) watermill.LogFields {
	return watermill.LogFields{"router": h.router.name, "handler": h.name, "priority": h.priority}
}
