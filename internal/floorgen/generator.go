// Package floorgen produces complete floors: room layout, connectivity
// repair, room types, connections and faction territory.
package floorgen

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/delvegen/internal/classify"
	"github.com/lawnchairsociety/delvegen/internal/config"
	"github.com/lawnchairsociety/delvegen/internal/faction"
	"github.com/lawnchairsociety/delvegen/internal/grid"
	"github.com/lawnchairsociety/delvegen/internal/logger"
	"github.com/lawnchairsociety/delvegen/internal/rng"
	"github.com/lawnchairsociety/delvegen/internal/world"
)

// Generator handles floor generation with the configured tuning
type Generator struct {
	gen      config.GenerationConfig
	factions config.FactionsConfig
	src      rng.Source
}

// NewGenerator creates a generator drawing every random choice from src
func NewGenerator(cfg *config.Config, src rng.Source) *Generator {
	return &Generator{
		gen:      cfg.Generation,
		factions: cfg.Factions,
		src:      src,
	}
}

// IsBossFloor reports whether floor number carries a boss room
func (g *Generator) IsBossFloor(number int) bool {
	interval := g.gen.BossFloorInterval
	return interval > 0 && number > 0 && number%interval == 0
}

// Generate creates a floor. Only invalid params are errors; shortfalls such
// as staircases that could not be placed are logged and reported on the
// floor's Classification.
func (g *Generator) Generate(params Params, factions []world.Faction) (*Floor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	newRoom := func(pos world.Position) world.Room {
		return world.NewRoom(world.RoomID(params.Number, pos.X, pos.Y), pos, world.RoomTypeNormal)
	}

	rooms := g.scatter(params, newRoom)

	bridged := grid.Bridge(rooms, newRoom)
	rooms = append(rooms, bridged...)

	classifier := classify.New(g.classifyOptions(), g.src)
	typed, report := classifier.Classify(rooms, params.Entrance, g.IsBossFloor(params.Number))

	assignment := g.assign(claimableIDs(typed), factions)

	floor := newFloor(params.Number, params)
	floor.Rooms = assignment.Apply(typed)
	floor.Connections = grid.SynthesizeConnections(floor.Rooms)
	floor.Assignment = assignment
	floor.Classification = report
	for _, r := range bridged {
		floor.BridgeRooms = append(floor.BridgeRooms, r.ID)
	}
	floor.index()

	logger.Info("Generated floor",
		"floor", params.Number,
		"generation_id", floor.GenerationID.String(),
		"rooms", len(floor.Rooms),
		"bridge_rooms", len(bridged),
		"connections", len(floor.Connections),
		"stairs", len(report.Stairs),
		"unclaimed", len(assignment.Unclaimed))

	return floor, nil
}

// scatter places the entrance and then TargetRooms-1 further rooms. With
// probability ClusterBias a room grows out of a random existing room;
// otherwise, or when that cell is taken, it lands on a random free cell.
func (g *Generator) scatter(params Params, newRoom grid.NewRoomFunc) []world.Room {
	free := newCellPool(params.GridSize)
	free.take(params.Entrance)

	rooms := make([]world.Room, 0, params.TargetRooms)
	rooms = append(rooms, newRoom(params.Entrance))

	directions := world.AllDirections()
	for len(rooms) < params.TargetRooms {
		if g.src.Float64() < g.gen.ClusterBias {
			from := rooms[g.src.Intn(len(rooms))].Position
			pos := from.Step(directions[g.src.Intn(len(directions))])
			if params.inBounds(pos) && free.has(pos) {
				free.take(pos)
				rooms = append(rooms, newRoom(pos))
				continue
			}
		}
		rooms = append(rooms, newRoom(free.takeRandom(g.src)))
	}
	return rooms
}

func (g *Generator) assign(roomIDs []string, factions []world.Faction) faction.Assignment {
	if !g.factions.Scaling {
		return faction.Assign(roomIDs, factions, g.factions.UnclaimedPercent, g.src)
	}
	return faction.AssignByInfluence(roomIDs, factions, g.factionOptions(), g.src)
}

func (g *Generator) classifyOptions() classify.Options {
	return classify.Options{
		Thresholds: classify.Thresholds{
			Treasure: g.gen.TreasureThreshold,
			Outdoor:  g.gen.OutdoorThreshold,
		},
		StaircasesPerFloor:   g.gen.StaircasesPerFloor,
		SafeRoomsPerFloor:    g.gen.SafeRoomsPerFloor,
		AttemptsPerPlacement: g.gen.AttemptsPerPlacement,
		GlobalAttemptCap:     g.gen.GlobalAttemptCap,
	}
}

func (g *Generator) factionOptions() faction.Options {
	return faction.Options{
		UnclaimedPercent: g.factions.UnclaimedPercent,
		MinFactions:      g.factions.MinFactions,
		MaxFactions:      g.factions.MaxFactions,
		RoomsPerFaction:  g.factions.RoomsPerFaction,
		Selection:        faction.SelectionPolicy(g.factions.Selection),
	}
}

// cellPool tracks the free cells of a grid and supports uniform draws
type cellPool struct {
	cells []world.Position
	slot  map[world.Position]int
	taken mapset.Set[world.Position]
}

func newCellPool(size int) *cellPool {
	p := &cellPool{
		cells: make([]world.Position, 0, size*size),
		slot:  make(map[world.Position]int, size*size),
		taken: mapset.New[world.Position](),
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			pos := world.Position{X: x, Y: y}
			p.slot[pos] = len(p.cells)
			p.cells = append(p.cells, pos)
		}
	}
	return p
}

func (p *cellPool) has(pos world.Position) bool {
	_, ok := p.slot[pos]
	return ok && !p.taken.Has(pos)
}

// take removes pos from the pool by swapping it with the last free cell
func (p *cellPool) take(pos world.Position) {
	i, ok := p.slot[pos]
	if !ok || p.taken.Has(pos) {
		return
	}
	last := len(p.cells) - 1
	moved := p.cells[last]
	p.cells[i] = moved
	p.slot[moved] = i
	p.cells = p.cells[:last]
	delete(p.slot, pos)
	p.taken.Put(pos)
}

func (p *cellPool) takeRandom(src rng.Source) world.Position {
	pos := p.cells[src.Intn(len(p.cells))]
	p.take(pos)
	return pos
}
