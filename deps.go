package routekit

// Deps is the dependency map shared by every filter, handler and middleware
// that processes an event. Values are looked up by name. Callbacks must treat
// the map as read-only.
type Deps map[string]any

// Pick returns the entries named in names. A nil names slice selects the
// whole map. Names missing from d are left out.
func (d Deps) Pick(names []string) Deps {
	if names == nil {
		return d
	}
	picked := make(Deps, len(names))
	for _, name := range names {
		if v, ok := d[name]; ok {
			picked[name] = v
		}
	}
	return picked
}

// Lookup returns the dependency stored under name as a T. The boolean is
// false when the name is absent or holds a value of another type.
func Lookup[T any](d Deps, name string) (T, bool) {
	v, ok := d[name]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func cloneDeps(d Deps) Deps {
	out := make(Deps, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
