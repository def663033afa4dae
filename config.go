package routekit

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide dispatcher configuration. It is fixed for the
// lifetime of a Dispatcher.
//
//	run_policy: one_run_per_router
//	concurrency: 8
type Config struct {
	RunPolicy   RunPolicy `yaml:"run_policy"`
	Concurrency int       `yaml:"concurrency"`
}

// DefaultConfig returns the configuration New uses without options.
func DefaultConfig() Config {
	return Config{RunPolicy: OneRunPerEvent, Concurrency: 1}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if _, ok := policyNames[c.RunPolicy]; !ok {
		return fmt.Errorf("config: %w: %d", ErrUnknownRunPolicy, uint8(c.RunPolicy))
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("config: concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

// LoadConfig reads a YAML configuration. Missing keys keep their defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithConfig applies a configuration.
func WithConfig(cfg Config) Option {
	return func(d *Dispatcher) {
		d.policy = cfg.RunPolicy
		d.concurrency = max(cfg.Concurrency, 1)
	}
}
