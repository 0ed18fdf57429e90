package xcontext

import (
	"context"

	"github.com/questx-lab/poolwidget/config"
	"github.com/questx-lab/poolwidget/pkg/logger"
)

type (
	loggerKey  struct{}
	configsKey struct{}
)

// WithLogger returns a copy of ctx carrying the logger.
func WithLogger(ctx context.Context, l logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Logger returns the logger stored in ctx. A context without one gets a silent logger, so
// library code can always log.
func Logger(ctx context.Context) logger.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(logger.Logger); ok && l != nil {
			return l
		}
	}

	return logger.NewNopLogger()
}

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

// Configs returns the configurations stored in ctx, or the built-in defaults.
func Configs(ctx context.Context) config.Configs {
	if ctx != nil {
		if cfg, ok := ctx.Value(configsKey{}).(config.Configs); ok {
			return cfg
		}
	}

	return config.Default()
}
