package floorgen

import (
	"github.com/google/uuid"

	"github.com/lawnchairsociety/delvegen/internal/classify"
	"github.com/lawnchairsociety/delvegen/internal/faction"
	"github.com/lawnchairsociety/delvegen/internal/world"
)

// Floor is a fully generated floor: typed rooms with faction owners and
// the connections between them
type Floor struct {
	Number       int
	GenerationID uuid.UUID // identifies one generation run, used to purge partial writes
	Width        int
	Height       int
	Entrance     world.Position

	Rooms       []world.Room
	Connections []world.Connection
	Assignment  faction.Assignment

	// Classification records where stairs, safe rooms and the boss landed
	Classification classify.Report

	// BridgeRooms lists the IDs of rooms carved to join disconnected areas
	BridgeRooms []string

	byID  map[string]int
	byPos map[world.Position]int
}

func newFloor(number int, params Params) *Floor {
	return &Floor{
		Number:       number,
		GenerationID: uuid.New(),
		Width:        params.GridSize,
		Height:       params.GridSize,
		Entrance:     params.Entrance,
	}
}

func (f *Floor) index() {
	f.byID = make(map[string]int, len(f.Rooms))
	f.byPos = make(map[world.Position]int, len(f.Rooms))
	for i, r := range f.Rooms {
		f.byID[r.ID] = i
		f.byPos[r.Position] = i
	}
}

// Room returns the room with the given ID
func (f *Floor) Room(id string) (world.Room, bool) {
	if f.byID == nil {
		f.index()
	}
	i, ok := f.byID[id]
	if !ok {
		return world.Room{}, false
	}
	return f.Rooms[i], true
}

// RoomAt returns the room at pos
func (f *Floor) RoomAt(pos world.Position) (world.Room, bool) {
	if f.byPos == nil {
		f.index()
	}
	i, ok := f.byPos[pos]
	if !ok {
		return world.Room{}, false
	}
	return f.Rooms[i], true
}

// RoomsOfType returns the rooms of type t in floor order
func (f *Floor) RoomsOfType(t world.RoomType) []world.Room {
	var rooms []world.Room
	for _, r := range f.Rooms {
		if r.Type == t {
			rooms = append(rooms, r)
		}
	}
	return rooms
}

// EntranceRoom returns the entrance room
func (f *Floor) EntranceRoom() world.Room {
	r, _ := f.RoomAt(f.Entrance)
	return r
}

// Stairs returns the IDs of the staircase rooms
func (f *Floor) Stairs() []string {
	return f.Classification.Stairs
}

// Boss returns the boss room ID, or "" on floors without a boss
func (f *Floor) Boss() string {
	return f.Classification.Boss
}

// ClaimableRoomIDs returns the IDs of rooms factions may own
func (f *Floor) ClaimableRoomIDs() []string {
	return claimableIDs(f.Rooms)
}

func claimableIDs(rooms []world.Room) []string {
	ids := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if r.IsClaimable() {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
