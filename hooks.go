package routekit

import (
	"context"
	"time"
)

// OnReceiveFunc is called when an update enters the dispatcher, before any
// router sees it. Use this to enrich the context with logging fields or trace
// spans. The returned context is used for the rest of the dispatch.
type OnReceiveFunc func(ctx context.Context, ev *Event) context.Context

// OnHandlerFunc is called after a handler callback returned. err is the
// callback error, already located in a ProcessingError.
type OnHandlerFunc func(ctx context.Context, ev *Event, h *Handler, err error, duration time.Duration)

// OnHandledFunc is called after a dispatch in which at least one handler
// triggered.
type OnHandledFunc func(ctx context.Context, ev *Event, duration time.Duration)

// OnUnhandledFunc is called after a dispatch in which no handler triggered.
// Return nil to accept, return an error to fail the dispatch.
type OnUnhandledFunc func(ctx context.Context, ev *Event) error

// OnFailureFunc is called once when a dispatch fails.
type OnFailureFunc func(ctx context.Context, ev *Event, err error, duration time.Duration)

// hooks holds all configured hook functions.
type hooks struct {
	onReceive   []OnReceiveFunc
	onHandler   []OnHandlerFunc
	onHandled   []OnHandledFunc
	onUnhandled []OnUnhandledFunc
	onFailure   []OnFailureFunc
}

// WithOnReceive adds a hook called when an update enters the dispatcher.
// Multiple hooks are called in order, with context chaining through each.
//
// Example:
//
//	routekit.WithOnReceive(func(ctx context.Context, ev *routekit.Event) context.Context {
//	    return logx.WithCtx(ctx, slog.String("event_id", ev.ID))
//	})
func WithOnReceive(fn OnReceiveFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onReceive = append(d.hooks.onReceive, fn)
	}
}

// WithOnHandler adds a hook called after every handler callback.
// Multiple hooks are called in order.
//
// Example:
//
//	routekit.WithOnHandler(func(ctx context.Context, ev *routekit.Event, h *routekit.Handler, err error, d time.Duration) {
//	    metrics.Timing("handler."+h.Name(), d)
//	})
func WithOnHandler(fn OnHandlerFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onHandler = append(d.hooks.onHandler, fn)
	}
}

// WithOnHandled adds a hook called after a dispatch that triggered a handler.
// Multiple hooks are called in order.
func WithOnHandled(fn OnHandledFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onHandled = append(d.hooks.onHandled, fn)
	}
}

// WithOnUnhandled adds a hook called when no handler triggered.
// Return nil to accept the update, return an error to fail.
// Multiple hooks are called in order; first error wins.
//
// Example:
//
//	routekit.WithOnUnhandled(func(ctx context.Context, ev *routekit.Event) error {
//	    logger.Warn(ctx, "unhandled update", "kind", ev.Kind())
//	    return nil
//	})
func WithOnUnhandled(fn OnUnhandledFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onUnhandled = append(d.hooks.onUnhandled, fn)
	}
}

// WithOnFailure adds a hook called when a dispatch fails.
// Multiple hooks are called in order.
//
// Example:
//
//	routekit.WithOnFailure(func(ctx context.Context, ev *routekit.Event, err error, d time.Duration) {
//	    var perr *routekit.ProcessingError
//	    if errors.As(err, &perr) {
//	        logger.Error(ctx, "handler failed", "router", perr.Router, "handler", perr.Handler)
//	    }
//	})
func WithOnFailure(fn OnFailureFunc) Option {
	return func(d *Dispatcher) {
		d.hooks.onFailure = append(d.hooks.onFailure, fn)
	}
}

func (h *hooks) callOnReceive(ctx context.Context, ev *Event) context.Context {
	for _, fn := range h.onReceive {
		ctx = fn(ctx, ev)
	}
	return ctx
}

func (h *hooks) callOnHandler(ctx context.Context, ev *Event, hd *Handler, err error, duration time.Duration) {
	for _, fn := range h.onHandler {
		fn(ctx, ev, hd, err, duration)
	}
}

func (h *hooks) callOnHandled(ctx context.Context, ev *Event, duration time.Duration) {
	for _, fn := range h.onHandled {
		fn(ctx, ev, duration)
	}
}

func (h *hooks) callOnUnhandled(ctx context.Context, ev *Event) error {
	for _, fn := range h.onUnhandled {
		if err := fn(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (h *hooks) callOnFailure(ctx context.Context, ev *Event, err error, duration time.Duration) {
	for _, fn := range h.onFailure {
		fn(ctx, ev, err, duration)
	}
}
