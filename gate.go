package routekit

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
)

// Gate guards the whole dispatch of one update kind. It works like the
// filter and middleware part of a HandlerHolder, one level up: outer
// middlewares are entered first, then the filter decides whether the update
// reaches the root routers at all, and inner middlewares wrap the routers.
//
//	d.Gate(routekit.KindMessage).Filter(routekit.Not(routekit.FromUsers(bannedIDs...)))
//	d.Gate(routekit.KindMessage).Use(rateLimiter)
//
// A middleware that is entered by the gate is not entered again by holders
// for the same update.
type Gate struct {
	kind Kind

	mu     sync.RWMutex
	filter Filter
	outer  []Middleware
	inner  []Middleware
}

// Kind returns the update kind the gate guards.
func (g *Gate) Kind() Kind { return g.kind }

// Filter ANDs f into the gate filter.
func (g *Gate) Filter(f Filter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.filter = g.filter.And(f)
}

// Use appends middlewares entered once the gate filter accepted the update.
func (g *Gate) Use(mws ...Middleware) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inner = append(g.inner, mws...)
}

// UseOuter appends middlewares entered before the gate filter runs.
func (g *Gate) UseOuter(mws ...Middleware) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outer = append(g.outer, mws...)
}

// run passes ev through the gate and calls next when the filter accepts it.
// Middlewares are released the same way holders release them.
func (g *Gate) run(ctx context.Context, ev *Event, next func(context.Context, *Event) (bool, error)) (triggered bool, err error) {
	g.mu.RLock()
	filter := g.filter
	outer := slices.Clone(g.outer)
	inner := slices.Clone(g.inner)
	g.mu.RUnlock()

	sc := &scope{ev: ev}
	defer func() {
		if errors.Is(err, ErrInterrupt) {
			ev.logger.Debug("dispatch interrupted", watermill.LogFields{"error": err.Error()})
			triggered, err = false, nil
		}
		if rerr := sc.release(ctx); rerr != nil {
			err = errors.Join(err, wrapProcessing(rerr, "", "", g.kind, StageExit))
		}
	}()

	for _, m := range outer {
		if err := sc.enter(ctx, m); err != nil {
			return false, wrapProcessing(err, "", "", g.kind, StageEnter)
		}
	}

	ok, err := filter.Evaluate(ctx, ev.Client, ev.Update, ev.Deps)
	if err != nil {
		return false, wrapProcessing(err, "", "", g.kind, StageFilter)
	}
	if !ok {
		ev.logger.Trace("gate filter rejected update", nil)
		return false, nil
	}

	for _, m := range inner {
		if err := sc.enter(ctx, m); err != nil {
			return false, wrapProcessing(err, "", "", g.kind, StageEnter)
		}
	}

	return next(ctx, ev)
}
