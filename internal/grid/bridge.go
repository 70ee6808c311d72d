package grid

import (
	"github.com/lawnchairsociety/delvegen/internal/logger"
	"github.com/lawnchairsociety/delvegen/internal/world"
)

// NewRoomFunc builds the room placed on a cell carved while bridging
type NewRoomFunc func(pos world.Position) world.Room

// Bridge merges all components into one by carving L-shaped paths of new
// rooms. The component holding the first room is grown each round towards
// the nearest room of any other component. Only the carved rooms are
// returned; the input slice is not modified.
func Bridge(rooms []world.Room, newRoom NewRoomFunc) []world.Room {
	current := make([]world.Room, len(rooms))
	copy(current, rooms)
	index := NewIndex(current)

	var added []world.Room
	for {
		components := ConnectedComponents(current)
		if len(components) <= 1 {
			return added
		}

		from, to := closestPair(components[0], components[1:])
		for _, pos := range pathBetween(from, to) {
			if index.Occupied(pos) {
				continue
			}
			r := newRoom(pos)
			r.Position = pos
			index[pos] = r
			current = append(current, r)
			added = append(added, r)
		}

		logger.Debug("Bridged floor components",
			"from", from.String(), "to", to.String(), "components", len(components))
	}
}

// closestPair finds the nearest pair of positions between the main component
// and any other component. Ties keep the first pair found.
func closestPair(main []world.Room, others [][]world.Room) (world.Position, world.Position) {
	best := -1
	var from, to world.Position
	for _, a := range main {
		for _, component := range others {
			for _, b := range component {
				d := a.Position.Manhattan(b.Position)
				if best == -1 || d < best {
					best = d
					from, to = a.Position, b.Position
				}
			}
		}
	}
	return from, to
}

// pathBetween returns the cells strictly between two positions along an L
// path: horizontal first, then vertical.
func pathBetween(from, to world.Position) []world.Position {
	var path []world.Position

	x, y := from.X, from.Y
	for x != to.X {
		x += sign(to.X - x)
		path = append(path, world.Position{X: x, Y: y})
	}
	for y != to.Y {
		y += sign(to.Y - y)
		path = append(path, world.Position{X: x, Y: y})
	}

	// The last cell is the destination itself
	if len(path) > 0 {
		path = path[:len(path)-1]
	}
	return path
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
