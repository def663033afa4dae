package routekit

import "context"

// PredicateFunc decides whether an update matches. Returning ErrInterrupt
// aborts the current holder instead of meaning "false".
type PredicateFunc func(ctx context.Context, client Client, update Update, deps Deps) (bool, error)

// Predicate is a filter from an external filter system. It receives only the
// client and the update.
type Predicate interface {
	Match(client Client, update Update) bool
}

type filterOp uint8

const (
	opLeaf filterOp = iota
	opAnd
	opOr
	opNot
)

type filterNode struct {
	op    filterOp
	fn    PredicateFunc
	deps  []string
	left  *filterNode
	right *filterNode
}

// Filter is an immutable boolean expression over predicates. The zero Filter
// always matches and is the identity of And.
//
// Evaluation is left to right and short-circuits: the right side of And is not
// evaluated when the left side is false, and the right side of Or is not
// evaluated when the left side is true.
type Filter struct {
	root *filterNode
}

// NewFilter returns a leaf filter calling fn. Deps named in needs are passed
// to fn; with no names fn receives the whole dependency map.
func NewFilter(fn PredicateFunc, needs ...string) Filter {
	if fn == nil {
		return Filter{}
	}
	return Filter{root: &filterNode{op: opLeaf, fn: fn, deps: needs}}
}

// FromPredicate wraps an external predicate as a leaf filter.
func FromPredicate(p Predicate) Filter {
	if p == nil {
		return Filter{}
	}
	fn := func(_ context.Context, client Client, update Update, _ Deps) (bool, error) {
		return p.Match(client, update), nil
	}
	return Filter{root: &filterNode{op: opLeaf, fn: fn}}
}

// Always returns the identity filter.
func Always() Filter { return Filter{} }

// Never returns a filter that never matches.
func Never() Filter { return Not(Filter{}) }

// And returns a filter matching when every filter matches.
func And(filters ...Filter) Filter {
	var out Filter
	for _, f := range filters {
		out = out.And(f)
	}
	return out
}

// Or returns a filter matching when any filter matches. Or() never matches.
func Or(filters ...Filter) Filter {
	if len(filters) == 0 {
		return Never()
	}
	out := filters[0]
	for _, f := range filters[1:] {
		out = out.Or(f)
	}
	return out
}

// Not returns the negation of f. Not(Not(f)) is f.
func Not(f Filter) Filter {
	if f.root != nil && f.root.op == opNot {
		return Filter{root: f.root.left}
	}
	return Filter{root: &filterNode{op: opNot, left: f.root}}
}

// And returns f AND other.
func (f Filter) And(other Filter) Filter {
	switch {
	case f.root == nil:
		return other
	case other.root == nil:
		return f
	}
	return Filter{root: &filterNode{op: opAnd, left: f.root, right: other.root}}
}

// Or returns f OR other.
func (f Filter) Or(other Filter) Filter {
	if f.root == nil {
		// the identity always matches, so other would never run
		return f
	}
	return Filter{root: &filterNode{op: opOr, left: f.root, right: other.root}}
}

// Not returns NOT f.
func (f Filter) Not() Filter { return Not(f) }

// IsIdentity reports whether f is the always-matching identity filter.
func (f Filter) IsIdentity() bool { return f.root == nil }

// Evaluate runs the filter against an update.
func (f Filter) Evaluate(ctx context.Context, client Client, update Update, deps Deps) (bool, error) {
	return f.root.eval(ctx, client, update, deps)
}

func (n *filterNode) eval(ctx context.Context, client Client, update Update, deps Deps) (bool, error) {
	if n == nil {
		return true, nil
	}
	switch n.op {
	case opAnd:
		ok, err := n.left.eval(ctx, client, update, deps)
		if err != nil || !ok {
			return false, err
		}
		return n.right.eval(ctx, client, update, deps)
	case opOr:
		ok, err := n.left.eval(ctx, client, update, deps)
		if err != nil || ok {
			return ok, err
		}
		return n.right.eval(ctx, client, update, deps)
	case opNot:
		ok, err := n.left.eval(ctx, client, update, deps)
		if err != nil {
			return false, err
		}
		return !ok, nil
	default:
		return n.fn(ctx, client, update, deps.Pick(n.deps))
	}
}

// When adapts a predicate over one concrete update type. Updates of other
// types do not match.
func When[T Update](fn func(ctx context.Context, client Client, update T, deps Deps) (bool, error)) PredicateFunc {
	return func(ctx context.Context, client Client, update Update, deps Deps) (bool, error) {
		u, ok := update.(T)
		if !ok {
			return false, nil
		}
		return fn(ctx, client, u, deps)
	}
}
