package main

import (
	"context"
	"os"

	"github.com/vehicletag/registration-node/internal/config"
	"github.com/vehicletag/registration-node/internal/db/schema"
	"github.com/vehicletag/registration-node/internal/log"

	_ "github.com/lib/pq"
)

// Applies pending database migrations and exits.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load("")
	if err != nil {
		log.Error(ctx, "cannot load config", "err", err)
		os.Exit(1)
	}

	log.Config(cfg.Log.Level, cfg.Log.Mode, os.Stdout)

	if err := schema.Migrate(cfg.Database.URL); err != nil {
		log.Error(ctx, "migrating database", "err", err)
		os.Exit(1)
	}

	log.Info(ctx, "migrations applied")
}
