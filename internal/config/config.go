package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds floor generation settings.
type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Factions   FactionsConfig   `yaml:"factions"`
	Batch      BatchConfig      `yaml:"batch"`
	Database   DatabaseConfig   `yaml:"database"`
}

// GenerationConfig holds layout and room typing settings.
type GenerationConfig struct {
	// GridSize is the width and height of the square floor grid.
	GridSize int `yaml:"grid_size"`

	// TargetRooms is the number of rooms scattered before connectivity repair.
	TargetRooms int `yaml:"target_rooms"`

	// ClusterBias is the chance that a new room grows from an existing one
	// instead of landing on a random empty cell.
	ClusterBias float64 `yaml:"cluster_bias"`

	// TreasureThreshold and OutdoorThreshold are cumulative probabilities.
	TreasureThreshold float64 `yaml:"treasure_threshold"`
	OutdoorThreshold  float64 `yaml:"outdoor_threshold"`

	StaircasesPerFloor int `yaml:"staircases_per_floor"`
	SafeRoomsPerFloor  int `yaml:"safe_rooms_per_floor"`

	// AttemptsPerPlacement bounds retries for one staircase or safe room.
	AttemptsPerPlacement int `yaml:"attempts_per_placement"`

	// GlobalAttemptCap bounds retries across all placements of one kind.
	GlobalAttemptCap int `yaml:"global_attempt_cap"`

	// BossFloorInterval puts a boss room on every Nth floor. 0 disables bosses.
	BossFloorInterval int `yaml:"boss_floor_interval"`
}

// FactionsConfig holds territory assignment settings.
type FactionsConfig struct {
	// Scaling selects AssignByInfluence instead of the basic assigner.
	Scaling          bool    `yaml:"scaling"`
	UnclaimedPercent float64 `yaml:"unclaimed_percent"`
	MinFactions      int     `yaml:"min_factions"`
	MaxFactions      int     `yaml:"max_factions"`
	RoomsPerFaction  int     `yaml:"rooms_per_faction"`

	// Selection is "influence" or "random".
	Selection string `yaml:"selection"`
}

// BatchConfig holds persistence chunking settings.
type BatchConfig struct {
	Size int `yaml:"size"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DefaultConfig returns a Config with the standard generation settings.
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			GridSize:             30,
			TargetRooms:          200,
			ClusterBias:          0.75,
			TreasureThreshold:    0.08,
			OutdoorThreshold:     0.12,
			StaircasesPerFloor:   3,
			SafeRoomsPerFloor:    1,
			AttemptsPerPlacement: 100,
			GlobalAttemptCap:     300,
			BossFloorInterval:    10,
		},
		Factions: FactionsConfig{
			Scaling:          true,
			UnclaimedPercent: 0.05,
			MinFactions:      3,
			MaxFactions:      8,
			RoomsPerFaction:  80,
			Selection:        "influence",
		},
		Batch: BatchConfig{
			Size: 100,
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/floors.db",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				SSLMode:         "disable",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
	}
}

// LoadConfig loads generation settings from a YAML file.
// Missing keys keep their defaults; a missing file returns the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	g := c.Generation

	if g.GridSize <= 0 {
		errs = append(errs, fmt.Errorf("generation.grid_size must be positive, got %d", g.GridSize))
	}
	if g.TargetRooms <= 0 {
		errs = append(errs, fmt.Errorf("generation.target_rooms must be positive, got %d", g.TargetRooms))
	}
	if g.GridSize > 0 && g.TargetRooms > g.GridSize*g.GridSize {
		errs = append(errs, fmt.Errorf("generation.target_rooms %d exceeds %d grid cells", g.TargetRooms, g.GridSize*g.GridSize))
	}
	if !inUnitRange(g.ClusterBias) {
		errs = append(errs, fmt.Errorf("generation.cluster_bias must be in [0,1], got %v", g.ClusterBias))
	}
	if !inUnitRange(g.TreasureThreshold) || !inUnitRange(g.OutdoorThreshold) || g.TreasureThreshold > g.OutdoorThreshold {
		errs = append(errs, fmt.Errorf("generation thresholds must satisfy 0 <= treasure (%v) <= outdoor (%v) <= 1",
			g.TreasureThreshold, g.OutdoorThreshold))
	}
	if g.StaircasesPerFloor < 0 || g.SafeRoomsPerFloor < 0 {
		errs = append(errs, errors.New("generation staircase and safe room counts must not be negative"))
	}
	if g.AttemptsPerPlacement <= 0 || g.GlobalAttemptCap <= 0 {
		errs = append(errs, errors.New("generation attempt budgets must be positive"))
	}
	if g.BossFloorInterval < 0 {
		errs = append(errs, fmt.Errorf("generation.boss_floor_interval must not be negative, got %d", g.BossFloorInterval))
	}

	f := c.Factions
	if !inUnitRange(f.UnclaimedPercent) {
		errs = append(errs, fmt.Errorf("factions.unclaimed_percent must be in [0,1], got %v", f.UnclaimedPercent))
	}
	if f.MinFactions < 1 || f.MaxFactions < f.MinFactions {
		errs = append(errs, fmt.Errorf("factions require 1 <= min_factions (%d) <= max_factions (%d)", f.MinFactions, f.MaxFactions))
	}
	if f.RoomsPerFaction <= 0 {
		errs = append(errs, fmt.Errorf("factions.rooms_per_faction must be positive, got %d", f.RoomsPerFaction))
	}
	if f.Selection != "influence" && f.Selection != "random" {
		errs = append(errs, fmt.Errorf("factions.selection must be influence or random, got %q", f.Selection))
	}

	if c.Batch.Size < 0 {
		errs = append(errs, fmt.Errorf("batch.size must not be negative, got %d", c.Batch.Size))
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		errs = append(errs, fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver))
	}

	return errors.Join(errs...)
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
