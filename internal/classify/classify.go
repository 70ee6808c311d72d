// Package classify assigns semantic room types to generated room slots.
package classify

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/delvegen/internal/grid"
	"github.com/lawnchairsociety/delvegen/internal/logger"
	"github.com/lawnchairsociety/delvegen/internal/rng"
	"github.com/lawnchairsociety/delvegen/internal/world"
)

// Thresholds are cumulative probabilities compared against one uniform
// draw in [0,1): below Treasure is a treasure room, below Outdoor an outdoor
// room, anything else a normal room.
type Thresholds struct {
	Treasure float64
	Outdoor  float64
}

// DefaultThresholds returns 8% treasure, 4% outdoor, 88% normal
func DefaultThresholds() Thresholds {
	return Thresholds{
		Treasure: 0.08,
		Outdoor:  0.12,
	}
}

// Draw picks a room type with a single uniform draw
func (th Thresholds) Draw(src rng.Source) world.RoomType {
	roll := src.Float64()
	switch {
	case roll < th.Treasure:
		return world.RoomTypeTreasure
	case roll < th.Outdoor:
		return world.RoomTypeOutdoor
	default:
		return world.RoomTypeNormal
	}
}

// Options controls classification of a floor
type Options struct {
	Thresholds         Thresholds
	StaircasesPerFloor int
	SafeRoomsPerFloor  int
	// AttemptsPerPlacement bounds retries for a single staircase or safe room
	AttemptsPerPlacement int
	// GlobalAttemptCap bounds retries across all placements of one kind
	GlobalAttemptCap int
}

// DefaultOptions returns the standard floor classification settings
func DefaultOptions() Options {
	return Options{
		Thresholds:           DefaultThresholds(),
		StaircasesPerFloor:   3,
		SafeRoomsPerFloor:    1,
		AttemptsPerPlacement: 100,
		GlobalAttemptCap:     300,
	}
}

// Report summarises the constrained placements made on a floor
type Report struct {
	Entrance        string
	StairsRequested int
	Stairs          []string
	SafeRequested   int
	SafeRooms       []string
	Boss            string
}

// StairsOmitted returns how many staircases could not be placed
func (r Report) StairsOmitted() int {
	return r.StairsRequested - len(r.Stairs)
}

// Classifier assigns types to room slots
type Classifier struct {
	opts Options
	src  rng.Source
}

// New creates a Classifier drawing from src
func New(opts Options, src rng.Source) *Classifier {
	return &Classifier{opts: opts, src: src}
}

// Classify returns typed copies of rooms. The room at entrance becomes the
// entrance; every other slot gets a weighted draw, then staircases and safe
// rooms are placed at unique non-entrance positions. On boss floors the
// reachable room farthest from the entrance becomes the boss room.
func (c *Classifier) Classify(rooms []world.Room, entrance world.Position, bossFloor bool) ([]world.Room, Report) {
	out := make([]world.Room, len(rooms))
	copy(out, rooms)

	report := Report{
		StairsRequested: c.opts.StaircasesPerFloor,
		SafeRequested:   c.opts.SafeRoomsPerFloor,
	}

	blocked := mapset.New[int]()
	for i := range out {
		if out[i].Position == entrance {
			out[i].Type = world.RoomTypeEntrance
			report.Entrance = out[i].ID
			blocked.Put(i)
			continue
		}
		out[i].Type = c.opts.Thresholds.Draw(c.src)
	}

	for _, i := range c.place(len(out), c.opts.StaircasesPerFloor, blocked, "stairs") {
		out[i].Type = world.RoomTypeStairs
		report.Stairs = append(report.Stairs, out[i].ID)
	}

	for _, i := range c.place(len(out), c.opts.SafeRoomsPerFloor, blocked, "safe") {
		out[i].Type = world.RoomTypeSafe
		report.SafeRooms = append(report.SafeRooms, out[i].ID)
	}

	if bossFloor {
		if i := farthestFree(out, entrance, blocked); i >= 0 {
			out[i].Type = world.RoomTypeBoss
			report.Boss = out[i].ID
		}
	}

	return out, report
}

func (c *Classifier) place(n, count int, blocked mapset.Set[int], kind string) []int {
	chosen := PlaceUnique(n, count, blocked, c.opts.AttemptsPerPlacement, c.opts.GlobalAttemptCap, c.src)
	if len(chosen) < count {
		logger.Warning("Placement attempts exhausted, omitting rooms",
			"kind", kind, "requested", count, "placed", len(chosen))
	}
	return chosen
}

// PlaceUnique picks up to count distinct indices in [0,n) uniformly at
// random, never choosing a blocked index. Each pick gets perItem attempts
// and all picks share globalCap attempts; a pick that runs out is omitted.
// Chosen indices are added to blocked.
func PlaceUnique(n, count int, blocked mapset.Set[int], perItem, globalCap int, src rng.Source) []int {
	if n <= 0 || count <= 0 {
		return nil
	}

	var chosen []int
	total := 0
	for placed := 0; placed < count; placed++ {
		for attempt := 0; attempt < perItem && total < globalCap; attempt++ {
			total++
			i := src.Intn(n)
			if blocked.Has(i) {
				continue
			}
			blocked.Put(i)
			chosen = append(chosen, i)
			break
		}
	}
	return chosen
}

// farthestFree returns the index of the reachable, unblocked room with the
// greatest BFS distance from the entrance, or -1 if there is none.
func farthestFree(rooms []world.Room, entrance world.Position, blocked mapset.Set[int]) int {
	dist := grid.Distances(rooms, entrance)

	best, bestDist := -1, -1
	for i, r := range rooms {
		if blocked.Has(i) {
			continue
		}
		d, ok := dist[r.Position]
		if !ok {
			continue
		}
		if d > bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		blocked.Put(best)
	}
	return best
}
