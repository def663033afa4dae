package routekit

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// treeMu guards the links between routers and dispatchers. Attaching a router
// touches two nodes and walks a whole branch, so one lock covers the forest.
var treeMu sync.RWMutex

// Router is a node of the routing tree. It owns one HandlerHolder per update
// kind and an ordered list of child routers.
//
// Usage:
//  1. Create a router with NewRouter
//  2. Register handlers on its holders (Message, CallbackQuery, ...)
//  3. Attach child routers with AddRouter
//  4. Attach the root to a Dispatcher
//
// A router has at most one parent and can never become its own ancestor.
type Router struct {
	name    string
	holders [kindCount]*HandlerHolder

	// guarded by treeMu
	parent   *Router
	children []*Router
	root     *Dispatcher
}

// NewRouter creates a router. The name shows up in logs, metrics and errors.
func NewRouter(name string) *Router {
	if name == "" {
		name = "unnamed_router"
	}
	r := &Router{name: name}
	for _, k := range Kinds() {
		r.holders[k] = newHandlerHolder(r, k)
	}
	return r
}

// Name returns the router name.
func (r *Router) Name() string { return r.name }

func (r *Router) String() string { return fmt.Sprintf("router %q", r.name) }

// Holder returns the holder for kind. It panics for unknown kinds.
func (r *Router) Holder(kind Kind) *HandlerHolder {
	if !kind.valid() {
		panic(fmt.Sprintf("routekit: unknown update kind %v", kind))
	}
	return r.holders[kind]
}

// Message returns the holder for new messages.
func (r *Router) Message() *HandlerHolder { return r.holders[KindMessage] }

// EditedMessage returns the holder for edited messages.
func (r *Router) EditedMessage() *HandlerHolder { return r.holders[KindEditedMessage] }

// CallbackQuery returns the holder for callback queries.
func (r *Router) CallbackQuery() *HandlerHolder { return r.holders[KindCallbackQuery] }

// InlineQuery returns the holder for inline queries.
func (r *Router) InlineQuery() *HandlerHolder { return r.holders[KindInlineQuery] }

// ChosenInlineResult returns the holder for chosen inline results.
func (r *Router) ChosenInlineResult() *HandlerHolder { return r.holders[KindChosenInlineResult] }

// Poll returns the holder for poll updates.
func (r *Router) Poll() *HandlerHolder { return r.holders[KindPoll] }

// ChatMemberUpdated returns the holder for membership changes.
func (r *Router) ChatMemberUpdated() *HandlerHolder { return r.holders[KindChatMemberUpdated] }

// DeletedMessages returns the holder for deleted message batches.
func (r *Router) DeletedMessages() *HandlerHolder { return r.holders[KindDeletedMessages] }

// UserStatus returns the holder for presence updates.
func (r *Router) UserStatus() *HandlerHolder { return r.holders[KindUserStatus] }

// RawUpdate returns the holder for raw updates.
func (r *Router) RawUpdate() *HandlerHolder { return r.holders[KindRawUpdate] }

// Handlers returns the handlers of every holder, grouped by kind.
func (r *Router) Handlers() []*Handler {
	var out []*Handler
	for _, h := range r.holders {
		out = append(out, h.Handlers()...)
	}
	return out
}

// Parent returns the parent router, or nil.
func (r *Router) Parent() *Router {
	treeMu.RLock()
	defer treeMu.RUnlock()
	return r.parent
}

// Children returns the child routers in attachment order.
func (r *Router) Children() []*Router {
	treeMu.RLock()
	defer treeMu.RUnlock()
	return slices.Clone(r.children)
}

// AddRouter attaches child below r. The attachment is rejected, with nothing
// changed, when child is r, already has a parent, is a dispatcher root, or is
// an ancestor of r.
func (r *Router) AddRouter(child *Router) error {
	return r.AddRouters(child)
}

// AddRouters attaches children in order. Either all of them are attached or,
// on error, none is.
func (r *Router) AddRouters(children ...*Router) error {
	treeMu.Lock()
	defer treeMu.Unlock()

	for i, child := range children {
		if err := r.canAttach(child); err != nil {
			return err
		}
		if slices.Contains(children[:i], child) {
			return fmt.Errorf("attach %s to %s: %w", child, r, ErrAlreadyAttached)
		}
	}
	for _, child := range children {
		child.parent = r
		r.children = append(r.children, child)
	}
	return nil
}

// canAttach validates one attachment. Caller holds treeMu.
func (r *Router) canAttach(child *Router) error {
	switch {
	case child == nil:
		return fmt.Errorf("attach nil router to %s: %w", r, ErrAlreadyAttached)
	case child == r:
		return fmt.Errorf("attach %s: %w", r, ErrSelfAttach)
	case child.parent != nil:
		return fmt.Errorf("attach %s to %s: already a child of %s: %w", child, r, child.parent, ErrAlreadyAttached)
	case child.root != nil:
		return fmt.Errorf("attach %s to %s: already a dispatcher root: %w", child, r, ErrAlreadyAttached)
	}
	for p := r.parent; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("attach %s to %s: %w", child, r, ErrCycle)
		}
	}
	if child.hasDescendant(r) {
		return fmt.Errorf("attach %s to %s: %w", child, r, ErrCycle)
	}
	return nil
}

// hasDescendant walks the subtree below r. Caller holds treeMu.
func (r *Router) hasDescendant(target *Router) bool {
	for _, c := range r.children {
		if c == target || c.hasDescendant(target) {
			return true
		}
	}
	return false
}

// feedUpdate offers the event to r's holder and, unless the holder triggered,
// to r's children in order. It reports whether r or a descendant triggered.
func (r *Router) feedUpdate(ctx context.Context, ev *Event, policy RunPolicy) (bool, error) {
	triggered, err := r.holders[ev.Kind()].feedUpdate(ctx, ev, policy)
	if err != nil {
		return triggered, err
	}
	if triggered && policy.stopsDescent() {
		return true, nil
	}

	for _, child := range r.Children() {
		ok, err := child.feedUpdate(ctx, ev, policy)
		if err != nil {
			return triggered || ok, err
		}
		if !ok {
			continue
		}
		triggered = true
		if policy.stopsSiblings() {
			break
		}
	}
	return triggered, nil
}
