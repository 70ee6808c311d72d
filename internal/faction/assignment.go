// Package faction partitions claimable rooms among factions in proportion
// to their influence.
package faction

import (
	"sort"

	"github.com/lawnchairsociety/delvegen/internal/world"
)

// UnclaimedKey is the reserved key for unowned rooms in Assignment.Map
const UnclaimedKey = "unclaimed"

// Assignment is the result of territory assignment. Every input room is in
// exactly one faction list or in Unclaimed.
type Assignment struct {
	ByFaction map[string][]string
	Unclaimed []string
}

// newAssignment returns an empty assignment with a list for every faction,
// including zero-influence ones
func newAssignment(factions []world.Faction) Assignment {
	a := Assignment{
		ByFaction: make(map[string][]string, len(factions)),
		Unclaimed: []string{},
	}
	for _, f := range factions {
		a.ByFaction[f.ID] = []string{}
	}
	return a
}

// Map returns faction ID -> room IDs with unclaimed rooms under UnclaimedKey
func (a Assignment) Map() map[string][]string {
	m := make(map[string][]string, len(a.ByFaction)+1)
	for id, rooms := range a.ByFaction {
		m[id] = rooms
	}
	m[UnclaimedKey] = a.Unclaimed
	return m
}

// Total returns the number of rooms in the assignment
func (a Assignment) Total() int {
	total := len(a.Unclaimed)
	for _, rooms := range a.ByFaction {
		total += len(rooms)
	}
	return total
}

// Counts returns the number of rooms claimed per faction
func (a Assignment) Counts() map[string]int {
	counts := make(map[string]int, len(a.ByFaction))
	for id, rooms := range a.ByFaction {
		counts[id] = len(rooms)
	}
	return counts
}

// OwnerOf returns room ID -> owning faction ID for claimed rooms
func (a Assignment) OwnerOf() map[string]string {
	owners := make(map[string]string)
	for id, rooms := range a.ByFaction {
		for _, roomID := range rooms {
			owners[roomID] = id
		}
	}
	return owners
}

// FactionIDs returns the faction IDs in sorted order
func (a Assignment) FactionIDs() []string {
	ids := make([]string, 0, len(a.ByFaction))
	for id := range a.ByFaction {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Apply returns copies of rooms with FactionID set from the assignment.
// Rooms not claimed by any faction get an empty FactionID.
func (a Assignment) Apply(rooms []world.Room) []world.Room {
	owners := a.OwnerOf()
	out := make([]world.Room, len(rooms))
	for i, r := range rooms {
		r.FactionID = owners[r.ID]
		out[i] = r
	}
	return out
}
