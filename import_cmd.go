package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/eventmealsbackend/assistant"
	"github.com/camden-git/eventmealsbackend/cache"
	"github.com/camden-git/eventmealsbackend/importer"
	"github.com/camden-git/eventmealsbackend/repository"
)

var (
	importLunchCSV   string
	importOtherCSV   string
	importResetUsers bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load delegates from the registration CSV exports",
	Long: `Merge the lunch and other-events registration exports into the registry.

Existing people are matched by registration ID or name and keep their
remaining allowances. Pass --reset-users to empty the registry first.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importLunchCSV, "lunch-csv", "", "path to the lunch registration export")
	importCmd.Flags().StringVar(&importOtherCSV, "other-csv", "", "path to the other events registration export")
	importCmd.Flags().BoolVar(&importResetUsers, "reset-users", false, "delete every person before importing")
	_ = importCmd.MarkFlagRequired("lunch-csv")
	_ = importCmd.MarkFlagRequired("other-csv")
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, logger, db, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	lunch, err := os.Open(importLunchCSV)
	if err != nil {
		return fmt.Errorf("failed to open lunch export: %w", err)
	}
	defer lunch.Close()
	other, err := os.Open(importOtherCSV)
	if err != nil {
		return fmt.Errorf("failed to open other events export: %w", err)
	}
	defer other.Close()

	delegates, err := importer.ParseEventRows(lunch, other)
	if err != nil {
		return err
	}
	result, err := importer.Apply(cmd.Context(), db, delegates, importResetUsers, time.Now(), logger)
	if err != nil {
		return err
	}

	// a running server on the same Redis would otherwise serve stale lookups
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(cmd.Context(), cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}, logger)
		if err != nil {
			logger.Warn("Could not reach Redis to clear cached lookups", zap.Error(err))
		} else {
			defer redisCache.Close()
			if err := invalidateLookups(cmd.Context(), db, redisCache); err != nil {
				logger.Warn("Failed to clear cached lookups", zap.Error(err))
			}
		}
	}

	logger.Info("Import finished",
		zap.Int("delegates", len(delegates)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int64("deleted", result.Deleted))
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d delegates: %d created, %d updated, %d skipped\n",
		len(delegates), result.Created, result.Updated, result.Skipped)
	return nil
}

// invalidateLookups drops every registry lookup remembered in c.
func invalidateLookups(ctx context.Context, db *gorm.DB, c cache.Cache) error {
	lookup := assistant.NewLookup(repository.NewPersonRepository(db), assistant.WithLookupCache(c, 0))
	return lookup.Invalidate(ctx)
}
