package grid

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/lawnchairsociety/delvegen/internal/world"
)

func corridor(pos world.Position) world.Room {
	return world.NewRoom(world.RoomID(1, pos.X, pos.Y), pos, world.RoomTypeNormal)
}

func TestBridgeJoinsTwoComponents(t *testing.T) {
	rooms := roomsAt([2]int{0, 0}, [2]int{1, 0}, [2]int{5, 3})

	added := Bridge(rooms, corridor)
	if len(added) == 0 {
		t.Fatal("expected carved rooms")
	}

	all := append(append([]world.Room{}, rooms...), added...)
	if !IsConnected(all) {
		t.Errorf("layout still has %d components after bridging", len(ConnectedComponents(all)))
	}

	// (1,0) -> (5,3): 3 cells east then 3 cells south minus the destination
	if len(added) != 6 {
		t.Errorf("carved %d rooms, want 6", len(added))
	}

	if len(rooms) != 3 {
		t.Error("Bridge must not modify its input")
	}
}

func TestBridgeConnectedLayoutUnchanged(t *testing.T) {
	rooms := roomsAt([2]int{0, 0}, [2]int{0, 1}, [2]int{0, 2})
	if added := Bridge(rooms, corridor); len(added) != 0 {
		t.Errorf("connected layout got %d carved rooms", len(added))
	}
	if added := Bridge(nil, corridor); len(added) != 0 {
		t.Error("empty layout should not carve")
	}
}

func TestPathBetween(t *testing.T) {
	path := pathBetween(world.Position{X: 0, Y: 0}, world.Position{X: 2, Y: -2})
	want := []world.Position{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: -1}}
	if len(path) != len(want) {
		t.Fatalf("path = %v, want %v", path, want)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("path[%d] = %v, want %v", i, path[i], want[i])
		}
	}
}

func TestBridgeAlwaysConnectsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rooms := genLayout(t)
		added := Bridge(rooms, corridor)

		all := append(append([]world.Room{}, rooms...), added...)
		if !IsConnected(all) {
			t.Fatalf("%d components remain after bridging", len(ConnectedComponents(all)))
		}

		index := NewIndex(rooms)
		seen := make(map[world.Position]bool)
		for _, r := range added {
			if index.Occupied(r.Position) {
				t.Fatalf("carved room at occupied cell %v", r.Position)
			}
			if seen[r.Position] {
				t.Fatalf("carved the same cell twice: %v", r.Position)
			}
			seen[r.Position] = true
		}
	})
}
