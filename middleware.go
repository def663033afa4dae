package routekit

import (
	"context"
	"errors"
)

// Middleware wraps the matching and handling done by a holder. Enter runs
// before the holder (or an inner part of it) and Exit runs after it.
//
// For a given event a middleware instance receives at most one Enter and, if
// Enter succeeded, exactly one Exit, even when it is attached to several
// holders that see the same event. Exit is called however the holder stops:
// filter rejection, handler error, ErrInterrupt, panic or normal completion.
// Exits run in the reverse order of the Enters.
//
// A middleware whose Enter returns an error is not considered entered and its
// Exit is not called. Returning ErrInterrupt from Enter stops the holder
// without failing the dispatch.
//
// Implementations are used as map keys and must be comparable; pointer types
// are the usual choice.
type Middleware interface {
	Enter(ctx context.Context, ev *Event) error
	Exit(ctx context.Context, ev *Event) error
}

// MiddlewareState is the per-event lifecycle state of a middleware.
type MiddlewareState uint8

// Middleware lifecycle states.
const (
	Unactive MiddlewareState = iota
	Entered
	Exited
)

func (s MiddlewareState) String() string {
	switch s {
	case Unactive:
		return "unactive"
	case Entered:
		return "entered"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}

// BaseMiddleware provides no-op hooks. Embed it to implement only one of them.
type BaseMiddleware struct{}

// Enter implements Middleware.
func (BaseMiddleware) Enter(context.Context, *Event) error { return nil }

// Exit implements Middleware.
func (BaseMiddleware) Exit(context.Context, *Event) error { return nil }

// MiddlewareFunc is one lifecycle hook.
type MiddlewareFunc func(ctx context.Context, ev *Event) error

// NewMiddleware builds a Middleware from two hooks. Either may be nil.
//
//	timing := routekit.NewMiddleware(
//	    func(ctx context.Context, ev *routekit.Event) error { start = time.Now(); return nil },
//	    func(ctx context.Context, ev *routekit.Event) error { observe(time.Since(start)); return nil },
//	)
func NewMiddleware(enter, exit MiddlewareFunc) Middleware {
	return &funcMiddleware{enter: enter, exit: exit}
}

type funcMiddleware struct {
	enter MiddlewareFunc
	exit  MiddlewareFunc
}

func (m *funcMiddleware) Enter(ctx context.Context, ev *Event) error {
	if m.enter == nil {
		return nil
	}
	return m.enter(ctx, ev)
}

func (m *funcMiddleware) Exit(ctx context.Context, ev *Event) error {
	if m.exit == nil {
		return nil
	}
	return m.exit(ctx, ev)
}

// handle advances m one step through its lifecycle for ev. The first call
// enters, the second exits and any further call does nothing. entered reports
// whether this call moved m into Entered.
func (e *Event) handle(ctx context.Context, m Middleware) (entered bool, err error) {
	switch e.middlewares[m] {
	case Unactive:
		e.middlewares[m] = Entered
		if err := m.Enter(ctx, e); err != nil {
			e.middlewares[m] = Exited
			return false, err
		}
		return true, nil
	case Entered:
		e.middlewares[m] = Exited
		return false, m.Exit(ctx, e)
	default:
		return false, nil
	}
}

// scope tracks the middlewares a holder entered so they can be released in
// reverse order on every exit path.
type scope struct {
	ev      *Event
	entered []Middleware
}

// enter skips middlewares an enclosing scope already entered for this event.
func (s *scope) enter(ctx context.Context, m Middleware) error {
	if s.ev.middlewares[m] != Unactive {
		return nil
	}
	entered, err := s.ev.handle(ctx, m)
	if entered {
		s.entered = append(s.entered, m)
	}
	return err
}

// release exits every entered middleware, last entered first. All exits run
// even when some fail; their errors are joined.
func (s *scope) release(ctx context.Context) error {
	var errs []error
	for i := len(s.entered) - 1; i >= 0; i-- {
		if _, err := s.ev.handle(ctx, s.entered[i]); err != nil {
			errs = append(errs, err)
		}
	}
	s.entered = s.entered[:0]
	return errors.Join(errs...)
}
