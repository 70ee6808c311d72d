package faction

import (
	"math"

	"github.com/lawnchairsociety/delvegen/internal/rng"
	"github.com/lawnchairsociety/delvegen/internal/world"
)

// UnclaimedCount returns floor(roomCount * unclaimedPercent), with the
// percentage clamped to [0,1]
func UnclaimedCount(roomCount int, unclaimedPercent float64) int {
	if unclaimedPercent <= 0 || math.IsNaN(unclaimedPercent) {
		return 0
	}
	if unclaimedPercent > 1 {
		unclaimedPercent = 1
	}
	return int(math.Floor(float64(roomCount) * unclaimedPercent))
}

// Assign partitions roomIDs among factions. Every faction with positive
// influence first receives one random room, then the remaining claimable
// rooms go one at a time to an influence-weighted faction. A share of
// floor(len(roomIDs)*unclaimedPercent) rooms, plus anything left in the pool,
// stays unclaimed. Assign never fails: with no rooms every list is empty,
// and with no positive influence every room is unclaimed.
func Assign(roomIDs []string, factions []world.Faction, unclaimedPercent float64, src rng.Source) Assignment {
	result := newAssignment(factions)
	if len(roomIDs) == 0 {
		return result
	}

	active := activeFactions(factions)
	d := newDistributor(roomIDs, src, &result)
	if len(active) == 0 {
		d.release()
		return result
	}

	claimableCount := len(roomIDs) - UnclaimedCount(len(roomIDs), unclaimedPercent)

	for _, f := range active {
		if d.assigned >= claimableCount || d.empty() {
			break
		}
		d.give(f.ID)
	}

	d.fill(active, claimableCount)
	d.release()
	return result
}

// activeFactions returns the factions with positive influence, in input order
func activeFactions(factions []world.Faction) []world.Faction {
	var active []world.Faction
	for _, f := range factions {
		if f.IsActive() {
			active = append(active, f)
		}
	}
	return active
}

// distributor draws rooms out of a working copy of the input pool
type distributor struct {
	pool     []string
	src      rng.Source
	result   *Assignment
	assigned int
}

func newDistributor(roomIDs []string, src rng.Source, result *Assignment) *distributor {
	pool := make([]string, len(roomIDs))
	copy(pool, roomIDs)
	return &distributor{pool: pool, src: src, result: result}
}

func (d *distributor) empty() bool {
	return len(d.pool) == 0
}

// give removes a uniformly random room from the pool and assigns it
func (d *distributor) give(factionID string) {
	i := d.src.Intn(len(d.pool))
	roomID := d.pool[i]
	d.pool = append(d.pool[:i], d.pool[i+1:]...)

	d.result.ByFaction[factionID] = append(d.result.ByFaction[factionID], roomID)
	d.assigned++
}

// fill hands out rooms by weighted draw until target rooms are assigned
func (d *distributor) fill(factions []world.Faction, target int) {
	total := totalInfluence(factions)
	for d.assigned < target && !d.empty() {
		d.give(pickWeighted(factions, total, d.src).ID)
	}
}

// release moves everything left in the pool to unclaimed
func (d *distributor) release() {
	d.result.Unclaimed = append(d.result.Unclaimed, d.pool...)
	d.pool = nil
}

func totalInfluence(factions []world.Faction) float64 {
	total := 0.0
	for _, f := range factions {
		total += f.Influence
	}
	return total
}

// pickWeighted walks cumulative influence: a uniform draw over the total is
// reduced by each faction's influence until it is no longer positive.
func pickWeighted(factions []world.Faction, total float64, src rng.Source) world.Faction {
	remaining := src.Float64() * total
	for _, f := range factions {
		remaining -= f.Influence
		if remaining <= 0 {
			return f
		}
	}
	// Rounding can leave a sliver above zero
	return factions[len(factions)-1]
}
