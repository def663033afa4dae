package routekit

import "context"

// RouterTriggered returns a filter matching when r's holder has already
// accepted the current update. Combine it with Not to run a handler only when
// another branch of the tree did not.
//
//	fallback.Message().Filter(routekit.Not(routekit.RouterTriggered(commands)))
//
// Outside a dispatch the filter never matches.
func RouterTriggered(r *Router) Filter {
	return NewFilter(func(ctx context.Context, _ Client, _ Update, _ Deps) (bool, error) {
		ev, ok := EventFromContext(ctx)
		return ok && ev.RouterTriggered(r), nil
	})
}

// RouterNameTriggered is RouterTriggered for routers identified by name. It
// matches when any triggered router has that name.
func RouterNameTriggered(name string) Filter {
	return NewFilter(func(ctx context.Context, _ Client, _ Update, _ Deps) (bool, error) {
		ev, ok := EventFromContext(ctx)
		if !ok {
			return false, nil
		}
		for r := range ev.routers {
			if r.name == name {
				return true, nil
			}
		}
		return false, nil
	})
}
