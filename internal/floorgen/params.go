package floorgen

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/delvegen/internal/config"
	"github.com/lawnchairsociety/delvegen/internal/world"
)

// ErrInvalidParams is returned when floor parameters cannot describe a floor
var ErrInvalidParams = errors.New("invalid floor parameters")

// Params describes one floor to generate
type Params struct {
	Number      int            // Floor number, 1-indexed
	GridSize    int            // Width and height of the square grid
	TargetRooms int            // Rooms scattered before connectivity repair
	Entrance    world.Position // Cell of the entrance room
}

// DefaultParams returns parameters for a floor using the default generation
// settings, with the entrance in the middle of the grid
func DefaultParams(number int) Params {
	return ParamsFromConfig(number, config.DefaultConfig().Generation)
}

// ParamsFromConfig returns parameters for a floor using gen, with the
// entrance in the middle of the grid
func ParamsFromConfig(number int, gen config.GenerationConfig) Params {
	return Params{
		Number:      number,
		GridSize:    gen.GridSize,
		TargetRooms: gen.TargetRooms,
		Entrance:    world.Position{X: gen.GridSize / 2, Y: gen.GridSize / 2},
	}
}

// Validate checks that the grid can hold the entrance and the target rooms
func (p Params) Validate() error {
	if p.GridSize <= 0 {
		return fmt.Errorf("%w: grid size %d", ErrInvalidParams, p.GridSize)
	}
	if p.TargetRooms <= 0 {
		return fmt.Errorf("%w: target rooms %d", ErrInvalidParams, p.TargetRooms)
	}
	if p.TargetRooms > p.GridSize*p.GridSize {
		return fmt.Errorf("%w: %d rooms do not fit a %dx%d grid", ErrInvalidParams, p.TargetRooms, p.GridSize, p.GridSize)
	}
	if !p.inBounds(p.Entrance) {
		return fmt.Errorf("%w: entrance %s outside %dx%d grid", ErrInvalidParams, p.Entrance, p.GridSize, p.GridSize)
	}
	return nil
}

func (p Params) inBounds(pos world.Position) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < p.GridSize && pos.Y < p.GridSize
}
