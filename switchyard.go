package switchyard

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/switchyard-io/switchyard/internal/logging"
	"github.com/switchyard-io/switchyard/pkg/domain"
	"github.com/switchyard-io/switchyard/pkg/dsl"
	"github.com/switchyard-io/switchyard/pkg/registry"
)

// Version is the release version reported by the CLI and HTTP API.
var Version = "0.3.0"

// Option configures the registry built by New.
type Option func(*config)

type config struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// WithLogger sets a custom structured logger for the registry.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithLogLevel builds a default stderr logger at the given level.
// Ignored when WithLogger is also provided.
func WithLogLevel(level slog.Level) Option {
	return func(c *config) {
		if c.logger == nil {
			c.logger = logging.New(level)
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

// New initializes a machine registry. Without options the registry logs
// warnings and above to stderr.
func New(opts ...Option) *registry.Registry {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.New(slog.LevelWarn)
	}
	return registry.New(
		registry.WithLogger(cfg.logger),
		registry.WithHooks(cfg.hooks),
	)
}

// LoadDir reads every YAML definition in dir and registers the machines.
// It returns the registered machine IDs in sorted order.
func LoadDir(reg *registry.Registry, dir string) ([]string, error) {
	defs, err := dsl.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}

	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		reg.Register(id, defs[id])
	}
	return ids, nil
}
