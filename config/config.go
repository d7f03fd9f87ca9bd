// Package config holds the optimiser configuration the core recognises
// (spec §6 "Configuration"): the load normal-form toggles, the unroll
// factor, and the pass ordering. Invalid configuration is rejected at parse time,
// before any pass runs.
package config

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/jlm-go/rvsdgc/ir/diag"
)

// Config enumerates the options that affect the core.
type Config struct {
	EnableLoadMux         bool `yaml:"enable_load_mux"`
	EnableLoadAlloca      bool `yaml:"enable_load_alloca"`
	EnableMultipleOrigin  bool `yaml:"enable_multiple_origin"`
	EnableLoadStoreState  bool `yaml:"enable_load_store_state"`
	EnableLoadStoreAlloca bool `yaml:"enable_load_store_alloca"`

	// UnrollFactor below two disables unrolling.
	UnrollFactor int `yaml:"unroll_factor"`

	// Passes is applied in list order, with possible repetition.
	Passes []string `yaml:"passes"`
}

// passNames is the closed set of pass identifiers the driver accepts.
var passNames = map[string]bool{
	"cne": true, "dne": true, "iln": true, "inv": true, "pll": true,
	"psh": true, "ivt": true, "url": true, "red": true,
}

// PassNames returns the closed set of recognised pass identifiers.
func PassNames() []string {
	return []string{"cne", "dne", "iln", "inv", "pll", "psh", "ivt", "url", "red"}
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithUnrollFactor sets the loop unrolling factor.
func WithUnrollFactor(factor int) Option {
	return func(c *Config) {
		c.UnrollFactor = factor
	}
}

// WithPasses sets the pass ordering.
func WithPasses(passes ...string) Option {
	return func(c *Config) {
		c.Passes = passes
	}
}

// WithLoadReductions toggles every load normal-form rule at once.
func WithLoadReductions(enable bool) Option {
	return func(c *Config) {
		c.EnableLoadMux = enable
		c.EnableLoadAlloca = enable
		c.EnableMultipleOrigin = enable
		c.EnableLoadStoreState = enable
		c.EnableLoadStoreAlloca = enable
	}
}

// New builds a validated configuration from options.
func New(options ...Option) (*Config, error) {
	c := &Config{}
	for _, opt := range options {
		opt(c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a YAML configuration document from URL through fs and
// validates it.
func Load(ctx context.Context, fs afs.Service, URL string) (*Config, error) {
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration from %v: %w", URL, err)
	}
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, diag.Config("yaml", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects configurations the core cannot honour.
func (c *Config) Validate() error {
	if c.UnrollFactor < 0 {
		return diag.Config("unroll_factor", fmt.Errorf("must not be negative, got %d", c.UnrollFactor))
	}
	for _, p := range c.Passes {
		if !passNames[p] {
			return diag.Config("passes", fmt.Errorf("unknown pass %q", p))
		}
	}
	return nil
}
