// Package grid analyses room layouts on the integer floor grid: connected
// components over 4-directional adjacency, bridging of disconnected pockets,
// and synthesis of room-to-room connections.
package grid

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/lawnchairsociety/delvegen/internal/world"
)

// Index maps grid positions to rooms. The first room at a position wins.
type Index map[world.Position]world.Room

// NewIndex builds a position index for the given rooms
func NewIndex(rooms []world.Room) Index {
	index := make(Index, len(rooms))
	for _, r := range rooms {
		if _, exists := index[r.Position]; !exists {
			index[r.Position] = r
		}
	}
	return index
}

// Occupied returns true if a room exists at the position
func (ix Index) Occupied(pos world.Position) bool {
	_, ok := ix[pos]
	return ok
}

// ConnectedComponents groups rooms into maximal sets reachable through
// north/south/east/west neighbours. Diagonal neighbours are not connected.
// Components come out in the order their first room appears in the input.
func ConnectedComponents(rooms []world.Room) [][]world.Room {
	index := NewIndex(rooms)
	visited := mapset.New[world.Position]()

	var components [][]world.Room
	for _, start := range rooms {
		if visited.Has(start.Position) {
			continue
		}
		visited.Put(start.Position)

		var component []world.Room
		queue := []world.Position{start.Position}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			component = append(component, index[current])

			for _, dir := range world.AllDirections() {
				next := current.Step(dir)
				if visited.Has(next) || !index.Occupied(next) {
					continue
				}
				visited.Put(next)
				queue = append(queue, next)
			}
		}

		components = append(components, component)
	}

	return components
}

// IsConnected returns true if all rooms form a single component
func IsConnected(rooms []world.Room) bool {
	return len(ConnectedComponents(rooms)) <= 1
}

// Distances returns the BFS step count from the given position to every
// reachable room. Unreachable rooms are absent from the result.
func Distances(rooms []world.Room, from world.Position) map[world.Position]int {
	index := NewIndex(rooms)
	dist := make(map[world.Position]int)
	if !index.Occupied(from) {
		return dist
	}

	dist[from] = 0
	queue := []world.Position{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dir := range world.AllDirections() {
			next := current.Step(dir)
			if _, seen := dist[next]; seen || !index.Occupied(next) {
				continue
			}
			dist[next] = dist[current] + 1
			queue = append(queue, next)
		}
	}

	return dist
}
