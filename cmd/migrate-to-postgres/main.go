// migrate-to-postgres copies saved floors from SQLite to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-to-postgres \
//	    -sqlite data/floors.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user delvegen \
//	    -pg-password delvegen \
//	    -pg-database delvegen
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/lawnchairsociety/delvegen/internal/database"
	"github.com/lawnchairsociety/delvegen/internal/logger"
)

// copyStats counts the outcome of a migration
type copyStats struct {
	Copied  int
	Skipped int
	Partial int
	Rooms   int
}

func main() {
	sqlitePath := flag.String("sqlite", "data/floors.db", "Path to SQLite database")
	pg := database.DefaultPostgresConfig()
	flag.StringVar(&pg.Host, "pg-host", pg.Host, "PostgreSQL host")
	flag.IntVar(&pg.Port, "pg-port", pg.Port, "PostgreSQL port")
	flag.StringVar(&pg.User, "pg-user", "delvegen", "PostgreSQL user")
	flag.StringVar(&pg.Password, "pg-password", "delvegen", "PostgreSQL password")
	flag.StringVar(&pg.Database, "pg-database", "delvegen", "PostgreSQL database name")
	flag.StringVar(&pg.SSLMode, "pg-sslmode", pg.SSLMode, "PostgreSQL SSL mode")
	batchSize := flag.Int("batch", 500, "Rows per write batch")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	flag.Parse()

	logConfig, _ := logger.LoadConfig(*loggingConfig)
	if err := logger.Initialize(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialise logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("Opening SQLite database", "path", *sqlitePath)
	src, err := database.Open(*sqlitePath)
	if err != nil {
		logger.Error("Failed to open SQLite database", "error", err)
		os.Exit(1)
	}
	defer src.Close()

	logger.Info("Opening PostgreSQL database", "user", pg.User, "host", pg.Host, "port", pg.Port, "database", pg.Database)
	dst, err := database.OpenWithConfig(database.Config{Driver: "postgres", Postgres: pg})
	if err != nil {
		logger.Error("Failed to open PostgreSQL database", "error", err)
		os.Exit(1)
	}
	defer dst.Close()

	if *dryRun {
		logger.Info("DRY RUN MODE - No changes will be made")
	}

	stats, err := copyFloors(ctx, src, dst, *batchSize, *dryRun)
	if err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}

	logger.Report("Migration complete",
		"copied", stats.Copied,
		"skipped", stats.Skipped,
		"partial", stats.Partial,
		"rooms", stats.Rooms,
		"dry_run", *dryRun)

	if stats.Partial > 0 {
		os.Exit(2)
	}
}

// copyOutcome is the result of copying one floor
type copyOutcome int

const (
	outcomeCopied copyOutcome = iota
	outcomeSkipped
	outcomePartial
)

// copyFloors copies every floor in src that dst does not have yet. A floor
// whose batches partly fail is purged from dst so a rerun retries it.
func copyFloors(ctx context.Context, src, dst *database.Database, batchSize int, dryRun bool) (copyStats, error) {
	var stats copyStats

	floors, err := src.ListFloors(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list floors: %w", err)
	}

	for _, f := range floors {
		exists, err := dst.FloorExists(ctx, f.GenerationID)
		if err != nil {
			return stats, err
		}
		if exists {
			stats.Skipped++
			continue
		}

		if dryRun {
			stats.Copied++
			stats.Rooms += f.RoomCount
			continue
		}

		outcome, err := copyFloor(ctx, src, dst, f, batchSize)
		if err != nil {
			return stats, err
		}
		switch outcome {
		case outcomeSkipped:
			stats.Skipped++
		case outcomePartial:
			stats.Partial++
		default:
			stats.Copied++
			stats.Rooms += f.RoomCount
		}
	}

	return stats, nil
}

// copyFloor writes one generation to dst. A generation that another run
// stored first counts as skipped.
func copyFloor(ctx context.Context, src, dst *database.Database, f database.FloorSummary, batchSize int) (copyOutcome, error) {
	rec, err := src.LoadFloor(ctx, f.GenerationID)
	if err != nil {
		return 0, err
	}

	report, err := dst.SaveFloor(ctx, rec, batchSize)
	if errors.Is(err, database.ErrFloorExists) {
		logger.Info("Floor already copied", "floor", f.Number, "generation_id", f.GenerationID)
		return outcomeSkipped, nil
	}
	if err != nil {
		return 0, fmt.Errorf("floor %d (%s): %w", f.Number, f.GenerationID, err)
	}

	if !report.Complete() {
		logger.Warning("Floor copy incomplete, purging", "floor", f.Number, "generation_id", f.GenerationID, "error", report.Err())
		if err := dst.PurgeGeneration(ctx, f.GenerationID); err != nil {
			return 0, err
		}
		return outcomePartial, nil
	}

	logger.Info("Floor copied", "floor", f.Number, "generation_id", f.GenerationID, "rooms", len(rec.Rooms))
	return outcomeCopied, nil
}
