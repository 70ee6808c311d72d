// floorgen generates dungeon floors with faction territory and writes them
// to YAML files and/or a database.
//
// Usage:
//
//	go run ./cmd/floorgen -floors 1-10 -seed 42 -out data/floors -db data/floors.db
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lawnchairsociety/delvegen/internal/config"
	"github.com/lawnchairsociety/delvegen/internal/database"
	"github.com/lawnchairsociety/delvegen/internal/export"
	"github.com/lawnchairsociety/delvegen/internal/faction"
	"github.com/lawnchairsociety/delvegen/internal/floorgen"
	"github.com/lawnchairsociety/delvegen/internal/logger"
	"github.com/lawnchairsociety/delvegen/internal/rng"
	"github.com/lawnchairsociety/delvegen/internal/world"
)

// options are the parsed command line settings
type options struct {
	floors       string
	seed         int64
	configPath   string
	factionsPath string
	outDir       string
	dbPath       string
	driver       string
	batchSize    int
	purgePartial bool
}

// summary counts what a run produced
type summary struct {
	Generated int
	Exported  int
	Saved     int
	Partial   int
	Purged    int
}

func main() {
	var opts options
	flag.StringVar(&opts.floors, "floors", "", "Floor range to generate (e.g., 1-25 or 5)")
	flag.Int64Var(&opts.seed, "seed", 0, "Base seed for generation (default: random based on current time)")
	flag.StringVar(&opts.configPath, "config", "data/generator.yaml", "Path to generator config YAML file")
	flag.StringVar(&opts.factionsPath, "factions", "data/factions.yaml", "Path to factions YAML file")
	loggingConfig := flag.String("logging", "data/logging.yaml", "Path to logging config YAML file")
	flag.StringVar(&opts.outDir, "out", "", "Directory for floor YAML files (optional)")
	flag.StringVar(&opts.dbPath, "db", "", "Path to SQLite database (optional)")
	flag.StringVar(&opts.driver, "driver", "", "Database driver: sqlite or postgres (default: from config when -db is not set)")
	flag.IntVar(&opts.batchSize, "batch", 0, "Rows per write batch (default: from config)")
	flag.BoolVar(&opts.purgePartial, "purge-partial", false, "Delete floors whose batches partly failed")
	flag.Parse()

	logConfig, _ := logger.LoadConfig(*loggingConfig)
	if err := logger.Initialize(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialise logging: %v\n", err)
		os.Exit(1)
	}

	if opts.floors == "" {
		fmt.Fprintln(os.Stderr, "Error: --floors is required (e.g., --floors=1-25 or --floors=5)")
		flag.Usage()
		os.Exit(1)
	}

	if opts.seed == 0 {
		opts.seed = time.Now().UnixNano()
		logger.Info("Generation seed selected", "seed", opts.seed, "random", true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sum, err := run(ctx, opts)
	if err != nil {
		logger.Error("Floor generation failed", "error", err)
		os.Exit(1)
	}

	logger.Report("Floor generation complete",
		"generated", sum.Generated,
		"exported", sum.Exported,
		"saved", sum.Saved,
		"partial", sum.Partial,
		"purged", sum.Purged)

	if sum.Partial > 0 {
		os.Exit(2)
	}
}

// run generates every requested floor and writes it to the configured sinks
func run(ctx context.Context, opts options) (summary, error) {
	var sum summary

	start, end, err := parseFloorRange(opts.floors)
	if err != nil {
		return sum, fmt.Errorf("invalid floor range: %w", err)
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return sum, fmt.Errorf("failed to load config %s: %w", opts.configPath, err)
	}
	if opts.batchSize > 0 {
		cfg.Batch.Size = opts.batchSize
	}
	if err := cfg.Validate(); err != nil {
		return sum, fmt.Errorf("invalid config: %w", err)
	}

	factions, err := faction.LoadFactions(opts.factionsPath)
	if err != nil {
		return sum, err
	}
	logger.Info("Factions loaded", "count", len(factions), "path", opts.factionsPath)

	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0755); err != nil {
			return sum, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	db, err := openDatabase(opts, cfg.Database)
	if err != nil {
		return sum, err
	}
	if db != nil {
		defer db.Close()
	}

	logger.Info("Generating floors", "from", start, "to", end, "seed", opts.seed)

	for n := start; n <= end; n++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		gen := floorgen.NewGenerator(cfg, rng.NewSeeded(rng.FloorSeed(opts.seed, n)))
		floor, err := gen.Generate(floorgen.ParamsFromConfig(n, cfg.Generation), factions)
		if err != nil {
			return sum, fmt.Errorf("floor %d: %w", n, err)
		}
		sum.Generated++

		if floor.Classification.StairsOmitted() > 0 {
			logger.Warning("Floor is missing staircases",
				"floor", n, "placed", len(floor.Stairs()), "requested", floor.Classification.StairsRequested)
		}

		if opts.outDir != "" {
			path := filepath.Join(opts.outDir, fmt.Sprintf("floor_%d.yaml", n))
			if err := export.WriteFloor(floor, opts.seed, path); err != nil {
				return sum, fmt.Errorf("floor %d: %w", n, err)
			}
			sum.Exported++
		}

		if db == nil {
			continue
		}

		report, err := db.SaveFloor(ctx, toRecord(floor, factions), cfg.Batch.Size)
		if err != nil {
			return sum, fmt.Errorf("floor %d: %w", n, err)
		}
		if report.Complete() {
			sum.Saved++
			continue
		}

		sum.Partial++
		logger.Warning("Floor partially saved", "floor", n, "generation_id", floor.GenerationID.String(), "error", report.Err())
		if opts.purgePartial {
			if err := db.PurgeGeneration(ctx, floor.GenerationID.String()); err != nil {
				return sum, fmt.Errorf("floor %d: %w", n, err)
			}
			sum.Purged++
		}
	}

	return sum, nil
}

// openDatabase returns nil when no database sink was requested. -db always
// means SQLite; -driver postgres uses the connection settings from config.
func openDatabase(opts options, cfg config.DatabaseConfig) (*database.Database, error) {
	switch {
	case opts.dbPath != "":
		return database.Open(opts.dbPath)
	case opts.driver == "":
		return nil, nil
	}

	dbConfig := databaseConfig(cfg)
	dbConfig.Driver = opts.driver
	db, err := database.OpenWithConfig(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.driver, err)
	}
	return db, nil
}

func databaseConfig(cfg config.DatabaseConfig) database.Config {
	return database.Config{
		Driver:     cfg.Driver,
		SQLitePath: cfg.SQLitePath,
		Postgres: database.PostgresConfig{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			Database:        cfg.Postgres.Database,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		},
	}
}

func toRecord(floor *floorgen.Floor, factions []world.Faction) database.FloorRecord {
	return database.FloorRecord{
		GenerationID: floor.GenerationID.String(),
		Number:       floor.Number,
		Width:        floor.Width,
		Height:       floor.Height,
		Entrance:     floor.Entrance,
		Rooms:        floor.Rooms,
		Connections:  floor.Connections,
		Factions:     factions,
	}
}

// parseFloorRange parses a floor range string like "1-25" or "5"
func parseFloorRange(s string) (start, end int, err error) {
	if strings.Contains(s, "-") {
		parts := strings.Split(s, "-")
		if len(parts) != 2 {
			return 0, 0, fmt.Errorf("invalid range format, expected 'start-end'")
		}
		start, err = strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid start floor: %w", err)
		}
		end, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid end floor: %w", err)
		}
	} else {
		start, err = strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, 0, fmt.Errorf("invalid floor number: %w", err)
		}
		end = start
	}

	if start < 1 {
		return 0, 0, fmt.Errorf("floor numbers must be >= 1")
	}
	if end < start {
		return 0, 0, fmt.Errorf("end floor must be >= start floor")
	}

	return start, end, nil
}
