package world

import "fmt"

// Position is a cell on the integer floor grid
type Position struct {
	X, Y int
}

// Step returns the neighbouring position in the given direction
func (p Position) Step(d Direction) Position {
	dx, dy := d.Offset()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Manhattan returns the grid distance between two positions
func (p Position) Manhattan(o Position) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Room is a single generated room on a floor.
// Rooms are values: generation steps return modified copies.
type Room struct {
	ID        string
	Position  Position
	Type      RoomType
	FactionID string // Empty when no faction owns the room
	Explored  bool
	Looted    bool
}

// NewRoom creates an unexplored room of the given type
func NewRoom(id string, pos Position, roomType RoomType) Room {
	return Room{
		ID:       id,
		Position: pos,
		Type:     roomType,
	}
}

// IsClaimable returns true if a faction may own this room
func (r Room) IsClaimable() bool {
	return r.Type.IsClaimable()
}

// Connection is a directed exit from one room to a grid-adjacent room
type Connection struct {
	FromRoomID string
	ToRoomID   string
	Direction  Direction
}

// Reverse returns the matching connection in the opposite direction
func (c Connection) Reverse() Connection {
	return Connection{
		FromRoomID: c.ToRoomID,
		ToRoomID:   c.FromRoomID,
		Direction:  c.Direction.Opposite(),
	}
}

// Faction is a political group that can own rooms.
// Influence is a relative, non-negative weight.
type Faction struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Influence float64 `yaml:"influence"`
}

// IsActive returns true if the faction takes part in weighted distribution
func (f Faction) IsActive() bool {
	return f.Influence > 0
}

// RoomID generates a unique room ID for a grid cell on a floor
func RoomID(floorNumber, x, y int) string {
	return fmt.Sprintf("f%d_r%d_%d", floorNumber, x, y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
