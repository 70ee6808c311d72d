package faction

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/delvegen/internal/world"
)

// FactionsFile is the YAML layout of a faction roster
type FactionsFile struct {
	Factions []world.Faction `yaml:"factions"`
}

// LoadFactions reads a faction roster from a YAML file
func LoadFactions(path string) ([]world.Faction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read factions file: %w", err)
	}

	var file FactionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse factions YAML: %w", err)
	}

	if err := Validate(file.Factions); err != nil {
		return nil, err
	}
	return file.Factions, nil
}

// Validate checks that faction IDs are present, unique and not the
// reserved UnclaimedKey, and that influence is a finite non-negative number
func Validate(factions []world.Faction) error {
	seen := make(map[string]bool, len(factions))
	for i, f := range factions {
		if f.ID == "" {
			return fmt.Errorf("faction %d has no id", i)
		}
		if f.ID == UnclaimedKey {
			return fmt.Errorf("faction id %q is reserved", f.ID)
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate faction id %q", f.ID)
		}
		seen[f.ID] = true
		if math.IsNaN(f.Influence) || math.IsInf(f.Influence, 0) {
			return fmt.Errorf("faction %q has non-finite influence %v", f.ID, f.Influence)
		}
		if f.Influence < 0 {
			return fmt.Errorf("faction %q has negative influence %v", f.ID, f.Influence)
		}
	}
	return nil
}
