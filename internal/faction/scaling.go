package faction

import (
	"sort"

	"github.com/lawnchairsociety/delvegen/internal/rng"
	"github.com/lawnchairsociety/delvegen/internal/world"
)

// SelectionPolicy decides which factions participate when more candidates
// exist than the computed faction count
type SelectionPolicy string

const (
	// SelectByInfluence takes the highest influence first, ties by ID
	SelectByInfluence SelectionPolicy = "influence"
	// SelectRandom takes a uniform random sample
	SelectRandom SelectionPolicy = "random"
)

// Options tunes AssignByInfluence
type Options struct {
	UnclaimedPercent float64
	MinFactions      int
	MaxFactions      int
	RoomsPerFaction  int
	Selection        SelectionPolicy
	// MinRooms computes the guaranteed rooms per participant; nil uses MinRoomsFloor
	MinRooms func(totalRooms, factionCount int) int
}

// DefaultOptions returns the standard scaling settings
func DefaultOptions() Options {
	return Options{
		UnclaimedPercent: 0.05,
		MinFactions:      3,
		MaxFactions:      8,
		RoomsPerFaction:  80,
		Selection:        SelectByInfluence,
	}
}

// ActiveFactionCount returns floor(rooms / RoomsPerFaction) clamped to
// [MinFactions, MaxFactions]
func ActiveFactionCount(rooms int, opts Options) int {
	count := 0
	if opts.RoomsPerFaction > 0 {
		count = rooms / opts.RoomsPerFaction
	}
	if count < opts.MinFactions {
		count = opts.MinFactions
	}
	if opts.MaxFactions >= opts.MinFactions && count > opts.MaxFactions {
		count = opts.MaxFactions
	}
	return count
}

// MinRoomsFloor is the guaranteed territory per participating faction:
// max(5, floor(totalRooms / (factionCount * 3)))
func MinRoomsFloor(totalRooms, factionCount int) int {
	if factionCount <= 0 {
		return 0
	}
	floor := totalRooms / (factionCount * 3)
	if floor < 5 {
		return 5
	}
	return floor
}

// AssignByInfluence is the faction-count scaling variant of Assign. The
// number of participants grows with the room count; participants are chosen
// by opts.Selection from the positive-influence factions. Each participant is
// guaranteed MinRooms rooms (limited by supply) before the rest are
// distributed by weighted draw. Non-participants keep empty lists.
func AssignByInfluence(roomIDs []string, factions []world.Faction, opts Options, src rng.Source) Assignment {
	result := newAssignment(factions)
	if len(roomIDs) == 0 {
		return result
	}

	d := newDistributor(roomIDs, src, &result)
	active := activeFactions(factions)
	if len(active) == 0 {
		d.release()
		return result
	}

	claimableCount := len(roomIDs) - UnclaimedCount(len(roomIDs), opts.UnclaimedPercent)
	selected := selectFactions(active, ActiveFactionCount(len(roomIDs), opts), opts.Selection, src)

	minRooms := opts.MinRooms
	if minRooms == nil {
		minRooms = MinRoomsFloor
	}
	perFaction := minRooms(len(roomIDs), len(selected))
	if supply := claimableCount / len(selected); perFaction > supply {
		perFaction = supply
	}
	if perFaction < 1 {
		perFaction = 1
	}

	for round := 0; round < perFaction; round++ {
		for _, f := range selected {
			if d.assigned >= claimableCount || d.empty() {
				break
			}
			d.give(f.ID)
		}
	}

	d.fill(selected, claimableCount)
	d.release()
	return result
}

// selectFactions picks count participants, keeping input order in the result
func selectFactions(active []world.Faction, count int, policy SelectionPolicy, src rng.Source) []world.Faction {
	if count >= len(active) {
		return active
	}
	if count < 1 {
		count = 1
	}

	order := make([]int, len(active))
	for i := range order {
		order[i] = i
	}

	switch policy {
	case SelectRandom:
		for i := 0; i < count; i++ {
			j := i + src.Intn(len(order)-i)
			order[i], order[j] = order[j], order[i]
		}
	default:
		sort.SliceStable(order, func(a, b int) bool {
			fa, fb := active[order[a]], active[order[b]]
			if fa.Influence != fb.Influence {
				return fa.Influence > fb.Influence
			}
			return fa.ID < fb.ID
		})
	}

	chosen := order[:count]
	sort.Ints(chosen)

	selected := make([]world.Faction, 0, count)
	for _, i := range chosen {
		selected = append(selected, active[i])
	}
	return selected
}
