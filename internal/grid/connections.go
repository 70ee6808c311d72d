package grid

import "github.com/lawnchairsociety/delvegen/internal/world"

// SynthesizeConnections emits one directed connection for every room and
// every cardinal direction in which another room exists. Each adjacency
// therefore yields two records, one per room, in opposite directions.
func SynthesizeConnections(rooms []world.Room) []world.Connection {
	index := NewIndex(rooms)

	var connections []world.Connection
	for _, room := range rooms {
		for _, dir := range world.AllDirections() {
			neighbor, ok := index[room.Position.Step(dir)]
			if !ok {
				continue
			}
			connections = append(connections, world.Connection{
				FromRoomID: room.ID,
				ToRoomID:   neighbor.ID,
				Direction:  dir,
			})
		}
	}

	return connections
}

// ExitsByRoom groups connections into direction -> target room ID per room
func ExitsByRoom(connections []world.Connection) map[string]map[world.Direction]string {
	exits := make(map[string]map[world.Direction]string)
	for _, c := range connections {
		if exits[c.FromRoomID] == nil {
			exits[c.FromRoomID] = make(map[world.Direction]string)
		}
		exits[c.FromRoomID][c.Direction] = c.ToRoomID
	}
	return exits
}
