package routekit

import (
	"context"
	"slices"

	"github.com/ThreeDotsLabs/watermill"
)

// Discriminator checks fields of a raw update payload. Discriminators only
// look at a View and are cheap compared to decoding the payload.
type Discriminator interface {
	Match(v View) bool
}

// DiscriminatorFunc adapts a function to the Discriminator interface.
type DiscriminatorFunc func(v View) bool

// Match implements Discriminator.
func (f DiscriminatorFunc) Match(v View) bool { return f(v) }

// HasFields returns a Discriminator that matches when all paths exist.
func HasFields(paths ...string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		for _, p := range paths {
			if !v.HasField(p) {
				return false
			}
		}
		return true
	})
}

// FieldEquals returns a Discriminator that matches when the path holds the
// given string.
func FieldEquals(path, value string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		s, ok := v.GetString(path)
		return ok && s == value
	})
}

// FieldIn returns a Discriminator that matches when the path holds one of the
// given strings.
func FieldIn(path string, values ...string) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		s, ok := v.GetString(path)
		return ok && slices.Contains(values, s)
	})
}

// IntEquals returns a Discriminator that matches when the path holds the
// given integer.
func IntEquals(path string, value int64) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		n, ok := v.GetInt(path)
		return ok && n == value
	})
}

// AllOf returns a Discriminator that matches when all discriminators match.
func AllOf(ds ...Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		for _, d := range ds {
			if !d.Match(v) {
				return false
			}
		}
		return true
	})
}

// AnyOf returns a Discriminator that matches when any discriminator matches.
func AnyOf(ds ...Discriminator) Discriminator {
	return DiscriminatorFunc(func(v View) bool {
		for _, d := range ds {
			if d.Match(v) {
				return true
			}
		}
		return false
	})
}

// Payload turns a Discriminator into a filter over RawUpdate payloads read
// with JSONInspector. Other update kinds, empty payloads and payloads that
// are not valid JSON do not match.
//
//	r.RawUpdate().Register(onReaction,
//	    routekit.WithAllowedType("reaction"),
//	    routekit.WithFilter(routekit.Payload(routekit.FieldEquals("emoji", "🔥"))),
//	)
func Payload(d Discriminator) Filter {
	return PayloadWith(JSONInspector(), d)
}

// PayloadWith is Payload with a custom Inspector.
func PayloadWith(in Inspector, d Discriminator) Filter {
	return NewFilter(When(func(ctx context.Context, _ Client, u *RawUpdate, _ Deps) (bool, error) {
		if len(u.Payload) == 0 {
			return false, nil
		}
		view, err := in.Inspect(u.Payload)
		if err != nil {
			if ev, ok := EventFromContext(ctx); ok {
				ev.logger.Trace("raw payload not inspectable", watermill.LogFields{"type": u.Type, "error": err.Error()})
			}
			return false, nil
		}
		return d.Match(view), nil
	}))
}
