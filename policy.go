package routekit

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RunPolicy decides how many handlers and routers may fire for one update.
type RunPolicy uint8

const (
	// OneRunPerEvent stops the whole dispatch at the first handler that
	// triggers, wherever it is in the tree.
	OneRunPerEvent RunPolicy = iota

	// OneRunPerRouter lets each router's holder trigger at most one handler.
	// Sibling routers and other root routers still see the update, but a
	// router whose holder triggered does not pass it to its children.
	// Siblings keep being visited after one of them triggered.
	OneRunPerRouter

	// Unlimited never stops early: every router is visited and every
	// matching handler runs.
	Unlimited
)

var policyNames = map[RunPolicy]string{
	OneRunPerEvent:  "one_run_per_event",
	OneRunPerRouter: "one_run_per_router",
	Unlimited:       "unlimited",
}

func (p RunPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("run_policy(%d)", uint8(p))
}

// ParseRunPolicy parses the name of a run policy.
func ParseRunPolicy(s string) (RunPolicy, error) {
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRunPolicy, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p RunPolicy) MarshalText() ([]byte, error) {
	name, ok := policyNames[p]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRunPolicy, uint8(p))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *RunPolicy) UnmarshalText(b []byte) error {
	parsed, err := ParseRunPolicy(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *RunPolicy) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return p.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler.
func (p RunPolicy) MarshalYAML() (any, error) {
	b, err := p.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// stopsHolder reports whether a holder stops after its first triggered handler.
func (p RunPolicy) stopsHolder() bool { return p != Unlimited }

// stopsDescent reports whether a router whose holder triggered skips its
// children.
func (p RunPolicy) stopsDescent() bool { return p != Unlimited }

// stopsSiblings reports whether a trigger stops visiting further routers at
// the same level.
func (p RunPolicy) stopsSiblings() bool { return p == OneRunPerEvent }
