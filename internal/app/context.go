package app

import (
	"context"
	"errors"
	"fmt"

	"lairkeep/internal/config"
	"lairkeep/internal/repo"
)

// ResolveConfig returns the effective rule tunables for a workspace: the
// stored settings row when present, otherwise the workspace lairkeep.yml,
// otherwise the stock defaults seeded into the store on first use.
func ResolveConfig(ctx context.Context, workspace string, r repo.Repo) (*config.Config, error) {
	cfg, err := r.GetSettings(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	cfg, err = config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := r.UpsertSettings(ctx, cfg); err != nil {
		return nil, fmt.Errorf("seed settings: %w", err)
	}
	return cfg, nil
}
