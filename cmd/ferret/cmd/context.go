package cmd

import (
	"context"

	"github.com/ferret-go/ferret/internal/config"
)

type contextKey int

const (
	configKey contextKey = iota
	cleanupKey
)

func withConfig(ctx context.Context, cfg *config.Config, cleanup func()) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, cleanupKey, cleanup)
}

func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	return config.NewConfig()
}

func cleanupFrom(ctx context.Context) func() {
	cleanup, _ := ctx.Value(cleanupKey).(func())
	return cleanup
}
