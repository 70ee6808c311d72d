package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.Generation.StaircasesPerFloor != 3 {
		t.Errorf("expected 3 staircases per floor, got %d", cfg.Generation.StaircasesPerFloor)
	}

	if cfg.Generation.TreasureThreshold != 0.08 || cfg.Generation.OutdoorThreshold != 0.12 {
		t.Errorf("unexpected thresholds %v/%v", cfg.Generation.TreasureThreshold, cfg.Generation.OutdoorThreshold)
	}

	if cfg.Batch.Size != 100 {
		t.Errorf("expected batch size 100, got %d", cfg.Batch.Size)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/generator.yaml")

	if err != nil {
		t.Errorf("expected no error for missing file, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected default config for missing file, got nil")
	}

	if cfg.Factions.RoomsPerFaction != 80 {
		t.Errorf("expected default rooms per faction 80, got %d", cfg.Factions.RoomsPerFaction)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "generator.yaml")

	content := `
generation:
  grid_size: 40
  target_rooms: 500
  staircases_per_floor: 2
factions:
  selection: random
  min_factions: 2
batch:
  size: 250
database:
  driver: postgres
  postgres:
    host: db.internal
    conn_max_lifetime: 90s
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Generation.GridSize != 40 || cfg.Generation.TargetRooms != 500 {
		t.Errorf("expected 40x40 grid with 500 rooms, got %d/%d", cfg.Generation.GridSize, cfg.Generation.TargetRooms)
	}

	if cfg.Generation.StaircasesPerFloor != 2 {
		t.Errorf("expected 2 staircases, got %d", cfg.Generation.StaircasesPerFloor)
	}

	// Keys absent from the file keep their defaults
	if cfg.Generation.SafeRoomsPerFloor != 1 {
		t.Errorf("expected default safe rooms 1, got %d", cfg.Generation.SafeRoomsPerFloor)
	}

	if cfg.Factions.Selection != "random" || cfg.Factions.MinFactions != 2 || cfg.Factions.MaxFactions != 8 {
		t.Errorf("unexpected factions config %+v", cfg.Factions)
	}

	if cfg.Batch.Size != 250 {
		t.Errorf("expected batch size 250, got %d", cfg.Batch.Size)
	}

	if cfg.Database.Driver != "postgres" || cfg.Database.Postgres.Host != "db.internal" || cfg.Database.Postgres.Port != 5432 {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}

	if cfg.Database.Postgres.ConnMaxLifetime != 90*time.Second {
		t.Errorf("expected conn lifetime 90s, got %v", cfg.Database.Postgres.ConnMaxLifetime)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "generator.yaml")

	if err := os.WriteFile(configPath, []byte("generation: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
	if cfg == nil || cfg.Generation.GridSize != 30 {
		t.Error("expected defaults returned alongside parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"zero grid", func(c *Config) { c.Generation.GridSize = 0 }, "grid_size"},
		{"too many rooms", func(c *Config) { c.Generation.GridSize = 5; c.Generation.TargetRooms = 26 }, "exceeds 25 grid cells"},
		{"inverted thresholds", func(c *Config) { c.Generation.TreasureThreshold = 0.5 }, "thresholds"},
		{"bias out of range", func(c *Config) { c.Generation.ClusterBias = 1.5 }, "cluster_bias"},
		{"negative stairs", func(c *Config) { c.Generation.StaircasesPerFloor = -1 }, "staircase"},
		{"no attempts", func(c *Config) { c.Generation.GlobalAttemptCap = 0 }, "attempt budgets"},
		{"unclaimed above one", func(c *Config) { c.Factions.UnclaimedPercent = 1.2 }, "unclaimed_percent"},
		{"min above max", func(c *Config) { c.Factions.MinFactions = 9 }, "min_factions"},
		{"bad selection", func(c *Config) { c.Factions.Selection = "oldest" }, "selection"},
		{"negative batch", func(c *Config) { c.Batch.Size = -1 }, "batch.size"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generation.GridSize = -1
	cfg.Batch.Size = -5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "grid_size") || !strings.Contains(err.Error(), "batch.size") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}
