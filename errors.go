package routekit

import (
	"errors"
	"fmt"
)

// Registration errors. They are returned before any structure is mutated.
var (
	// ErrSelfAttach is returned when a router is attached to itself.
	ErrSelfAttach = errors.New("routekit: router cannot be attached to itself")

	// ErrAlreadyAttached is returned when a router already has a parent or is
	// already a dispatcher root.
	ErrAlreadyAttached = errors.New("routekit: router is already attached")

	// ErrCycle is returned when an attachment would make a router its own
	// ancestor.
	ErrCycle = errors.New("routekit: circular router reference")

	// ErrConflictingAllowList is returned when both WithAllowedType and
	// WithAllowedTypes are given to one registration.
	ErrConflictingAllowList = errors.New("routekit: allowed type and allowed types are mutually exclusive")

	// ErrAllowListNotRaw is returned when an allow-list is given to a holder
	// other than the raw update holder.
	ErrAllowListNotRaw = errors.New("routekit: allow-list is only supported for raw updates")

	// ErrInvalidPriority is returned for priorities below 1.
	ErrInvalidPriority = errors.New("routekit: priority must be a positive integer")

	// ErrNilHandler is returned when a nil callback is registered.
	ErrNilHandler = errors.New("routekit: handler function is required")
)

// Processing errors.
var (
	// ErrInterrupt aborts processing of the current holder without failing
	// the dispatch. Filters, handlers and middleware Enter hooks may return it
	// (wrapped or not); the holder reports "not triggered" and still runs the
	// pending middleware exits.
	ErrInterrupt = errors.New("routekit: processing interrupted")

	// ErrPanic indicates a handler panicked while Run was dispatching.
	ErrPanic = errors.New("routekit: handler panic")

	// ErrUnknownKind is returned for unknown update kind names.
	ErrUnknownKind = errors.New("routekit: unknown update kind")

	// ErrUnknownRunPolicy is returned for unknown run policy names.
	ErrUnknownRunPolicy = errors.New("routekit: unknown run policy")
)

// Stage names the step of holder processing that failed.
type Stage string

// Processing stages reported by ProcessingError.
const (
	StageEnter   Stage = "enter"
	StageFilter  Stage = "filter"
	StageHandler Stage = "handler"
	StageExit    Stage = "exit"
)

// ProcessingError locates a failure inside the router tree. It is created once,
// where the failure happens, and is not wrapped again on the way up. Router is
// empty for failures in a dispatcher Gate.
type ProcessingError struct {
	Router  string
	Handler string
	Kind    Kind
	Stage   Stage
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Handler != "" {
		return fmt.Sprintf("routekit: %s %s (router %s, handler %s): %v", e.Kind, e.Stage, e.Router, e.Handler, e.Err)
	}
	if e.Router != "" {
		return fmt.Sprintf("routekit: %s %s (router %s): %v", e.Kind, e.Stage, e.Router, e.Err)
	}
	return fmt.Sprintf("routekit: %s %s (gate): %v", e.Kind, e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// wrapProcessing wraps err unless it is nil or already located.
func wrapProcessing(err error, router string, handler string, kind Kind, stage Stage) error {
	if err == nil {
		return nil
	}
	var perr *ProcessingError
	if errors.As(err, &perr) {
		return err
	}
	return &ProcessingError{Router: router, Handler: handler, Kind: kind, Stage: stage, Err: err}
}
