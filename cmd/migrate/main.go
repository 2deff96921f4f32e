package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"split-service/internal/config"
	"split-service/internal/database"
	"split-service/internal/repository"
	"split-service/internal/service"
)

// Operator tool: schema migration, the one-time legacy status backfill,
// and the privileged hard-delete purge. None of these are reachable from
// the public API.
func main() {
	backfill := flag.Bool("backfill-status", false, "assign friend status to legacy relationship rows with no status")
	purge := flag.Uint("purge-account", 0, "hard delete an account and everything it owns")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresConnection(cfg.Database.URI)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Schema migration complete")

	ctx := context.Background()

	if *backfill {
		relationshipRepo := repository.NewRelationshipRepository(db)
		n, err := relationshipRepo.BackfillLegacyStatus(ctx)
		if err != nil {
			slog.Error("Status backfill failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Status backfill complete", "rows", n)
	}

	if *purge != 0 {
		lifecycle := service.NewLifecycleService(
			db,
			repository.NewMemberRepository(db),
			repository.NewAliasRepository(db),
			repository.NewRelationshipRepository(db),
			repository.NewFriendRequestRepository(db),
			repository.NewGroupRepository(db),
			repository.NewExpenseRepository(db),
			repository.NewUserRepository(db),
			nil,
		)
		if err := lifecycle.PurgeAccount(ctx, *purge); err != nil {
			slog.Error("Account purge failed", "userId", *purge, "error", err)
			os.Exit(1)
		}
		slog.Info("Account purged", "userId", *purge)
	}
}
