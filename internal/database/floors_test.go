package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/lawnchairsociety/delvegen/internal/world"
)

// testFloor builds a width x height block of rooms with connections between
// horizontal and vertical neighbours, alternating faction owners.
func testFloor(generationID string, width, height int) FloorRecord {
	rec := FloorRecord{
		GenerationID: generationID,
		Number:       1,
		Width:        width,
		Height:       height,
		Factions: []world.Faction{
			{ID: "iron_legion", Name: "Iron Legion", Influence: 60},
			{ID: "ash_cult", Name: "Ash Cult", Influence: 40},
		},
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := world.NewRoom(world.RoomID(1, x, y), world.Position{X: x, Y: y}, world.RoomTypeNormal)
			switch (x + y) % 3 {
			case 0:
				r.FactionID = "iron_legion"
			case 1:
				r.FactionID = "ash_cult"
			}
			rec.Rooms = append(rec.Rooms, r)
		}
	}
	rec.Rooms[0].Type = world.RoomTypeEntrance
	rec.Rooms[0].FactionID = ""

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x+1 < width {
				a, b := world.RoomID(1, x, y), world.RoomID(1, x+1, y)
				rec.Connections = append(rec.Connections,
					world.Connection{FromRoomID: a, ToRoomID: b, Direction: world.East},
					world.Connection{FromRoomID: b, ToRoomID: a, Direction: world.West})
			}
			if y+1 < height {
				a, b := world.RoomID(1, x, y), world.RoomID(1, x, y+1)
				rec.Connections = append(rec.Connections,
					world.Connection{FromRoomID: a, ToRoomID: b, Direction: world.South},
					world.Connection{FromRoomID: b, ToRoomID: a, Direction: world.North})
			}
		}
	}
	return rec
}

func TestSaveFloor(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rec := testFloor("gen-1", 10, 25)

	report, err := db.SaveFloor(ctx, rec, 100)
	if err != nil {
		t.Fatalf("SaveFloor failed: %v", err)
	}
	if !report.Complete() {
		t.Fatalf("expected complete save, got %v", report.Err())
	}
	if report.FloorID == 0 {
		t.Error("FloorID should not be 0")
	}

	// 250 rooms in batches of 100
	if len(report.Rooms.Results) != 3 {
		t.Errorf("rooms written in %d batches, want 3", len(report.Rooms.Results))
	}
	if report.Rooms.Items() != 250 {
		t.Errorf("rooms written = %d, want 250", report.Rooms.Items())
	}
	if report.Connections.Items() != len(rec.Connections) {
		t.Errorf("connections written = %d, want %d", report.Connections.Items(), len(rec.Connections))
	}
	if report.Claims.Items() != len(rec.Claims()) {
		t.Errorf("claims written = %d, want %d", report.Claims.Items(), len(rec.Claims()))
	}

	exists, err := db.FloorExists(ctx, "gen-1")
	if err != nil || !exists {
		t.Errorf("FloorExists = %v, %v", exists, err)
	}
}

func TestSaveFloorRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rec := testFloor("gen-rt", 4, 3)
	rec.Rooms[5].Type = world.RoomTypeTreasure
	rec.Rooms[6].Explored = true

	if _, err := db.SaveFloor(ctx, rec, 5); err != nil {
		t.Fatalf("SaveFloor failed: %v", err)
	}

	rooms, err := db.LoadRooms(ctx, "gen-rt")
	if err != nil {
		t.Fatalf("LoadRooms failed: %v", err)
	}
	if len(rooms) != len(rec.Rooms) {
		t.Fatalf("loaded %d rooms, want %d", len(rooms), len(rec.Rooms))
	}
	// testFloor emits rooms in y, x order, matching the load order
	for i := range rooms {
		if rooms[i] != rec.Rooms[i] {
			t.Errorf("room %d = %+v, want %+v", i, rooms[i], rec.Rooms[i])
		}
	}

	conns, err := db.LoadConnections(ctx, "gen-rt")
	if err != nil {
		t.Fatalf("LoadConnections failed: %v", err)
	}
	if len(conns) != len(rec.Connections) {
		t.Fatalf("loaded %d connections, want %d", len(conns), len(rec.Connections))
	}
	want := make(map[world.Connection]bool)
	for _, c := range rec.Connections {
		want[c] = true
	}
	for _, c := range conns {
		if !want[c] {
			t.Errorf("unexpected connection %+v", c)
		}
	}

	counts, err := db.ClaimCounts(ctx, "gen-rt")
	if err != nil {
		t.Fatalf("ClaimCounts failed: %v", err)
	}
	wantCounts := make(map[string]int)
	for _, c := range rec.Claims() {
		wantCounts[c.FactionID]++
	}
	for id, n := range wantCounts {
		if counts[id] != n {
			t.Errorf("claims for %s = %d, want %d", id, counts[id], n)
		}
	}
}

func TestSaveFloorPartialFailure(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rec := testFloor("gen-partial", 10, 3)

	// A duplicate position inside the second batch violates UNIQUE(generation_id, x, y)
	rec.Rooms[15].Position = rec.Rooms[14].Position

	report, err := db.SaveFloor(ctx, rec, 10)
	if err != nil {
		t.Fatalf("SaveFloor returned header error: %v", err)
	}
	if report.Complete() {
		t.Fatal("expected an incomplete save")
	}

	failed := report.Rooms.Failed()
	if len(failed) != 1 || failed[0].Index != 1 {
		t.Fatalf("failed room batches = %+v, want only batch 1", failed)
	}
	if report.Rooms.Succeeded() != 2 {
		t.Errorf("succeeded room batches = %d, want 2", report.Rooms.Succeeded())
	}

	rooms, err := db.LoadRooms(ctx, "gen-partial")
	if err != nil {
		t.Fatalf("LoadRooms failed: %v", err)
	}
	if len(rooms) != 20 {
		t.Errorf("loaded %d rooms, want 20 from the committed batches", len(rooms))
	}
}

func TestSaveFloorDuplicateGeneration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	rec := testFloor("gen-dup", 2, 2)

	if _, err := db.SaveFloor(ctx, rec, 100); err != nil {
		t.Fatalf("first SaveFloor failed: %v", err)
	}
	_, err := db.SaveFloor(ctx, rec, 100)
	if !errors.Is(err, ErrFloorExists) {
		t.Errorf("second SaveFloor error = %v, want ErrFloorExists", err)
	}
}

func TestSaveFloorFactionFailureLeavesNoHeader(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := testFloor("gen-bad-faction", 2, 2)
	// SQLite binds NaN as NULL, which the NOT NULL influence column rejects
	rec.Factions[0].Influence = math.NaN()

	if _, err := db.SaveFloor(ctx, rec, 100); err == nil {
		t.Fatal("expected faction write error")
	}

	exists, err := db.FloorExists(ctx, "gen-bad-faction")
	if err != nil {
		t.Fatalf("FloorExists failed: %v", err)
	}
	if exists {
		t.Fatal("floor header left behind after a failed faction write")
	}

	// A corrected rerun of the same generation succeeds
	rec.Factions[0].Influence = 60
	report, err := db.SaveFloor(ctx, rec, 100)
	if err != nil {
		t.Fatalf("retry SaveFloor failed: %v", err)
	}
	if !report.Complete() {
		t.Errorf("retry save incomplete: %v", report.Err())
	}
}

func TestSaveFloorLargeBatchStaysWithinBindLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// 4800 rooms x 8 columns in one statement would exceed SQLite's 32766 variables
	rec := testFloor("gen-large", 80, 60)
	report, err := db.SaveFloor(ctx, rec, 5000)
	if err != nil {
		t.Fatalf("SaveFloor failed: %v", err)
	}
	if !report.Complete() {
		t.Fatalf("save incomplete: %v", report.Err())
	}
	if got := len(report.Rooms.Results); got != 2 {
		t.Errorf("room statements = %d, want 2", got)
	}

	rooms, err := db.LoadRooms(ctx, "gen-large")
	if err != nil {
		t.Fatalf("LoadRooms failed: %v", err)
	}
	if len(rooms) != 4800 {
		t.Errorf("loaded %d rooms, want 4800", len(rooms))
	}
}

func TestStatementRows(t *testing.T) {
	sqlite := &Database{dialect: &SQLiteDialect{}}
	postgres := &Database{dialect: &PostgresDialect{}}

	tests := []struct {
		name      string
		db        *Database
		batchSize int
		columns   int
		want      int
	}{
		{"under limit", sqlite, 100, 8, 100},
		{"default size", sqlite, 0, 8, 100},
		{"sqlite rooms capped", sqlite, 5000, 8, 4095},
		{"sqlite claims fit", sqlite, 5000, 3, 5000},
		{"postgres rooms capped", postgres, 10000, 8, 8191},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.db.statementRows(tt.batchSize, tt.columns); got != tt.want {
				t.Errorf("statementRows(%d, %d) = %d, want %d", tt.batchSize, tt.columns, got, tt.want)
			}
		})
	}
}

func TestSaveFloorUpdatesFactions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := testFloor("gen-a", 2, 2)
	if _, err := db.SaveFloor(ctx, rec, 100); err != nil {
		t.Fatalf("SaveFloor failed: %v", err)
	}

	rec = testFloor("gen-b", 2, 2)
	rec.Factions[0].Influence = 75
	if _, err := db.SaveFloor(ctx, rec, 100); err != nil {
		t.Fatalf("second SaveFloor failed: %v", err)
	}

	var influence float64
	if err := db.db.QueryRow("SELECT influence FROM factions WHERE id = ?", "iron_legion").Scan(&influence); err != nil {
		t.Fatal(err)
	}
	if influence != 75 {
		t.Errorf("influence = %v, want 75", influence)
	}
}

func TestPurgeGeneration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	keep := testFloor("gen-keep", 3, 3)
	drop := testFloor("gen-drop", 3, 3)
	for _, rec := range []FloorRecord{keep, drop} {
		if _, err := db.SaveFloor(ctx, rec, 4); err != nil {
			t.Fatalf("SaveFloor(%s) failed: %v", rec.GenerationID, err)
		}
	}

	if err := db.PurgeGeneration(ctx, "gen-drop"); err != nil {
		t.Fatalf("PurgeGeneration failed: %v", err)
	}

	if exists, _ := db.FloorExists(ctx, "gen-drop"); exists {
		t.Error("purged floor still exists")
	}
	for _, table := range []string{"rooms", "room_connections", "faction_claims"} {
		var n int
		if err := db.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE generation_id = ?", table), "gen-drop").Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("%d %s rows left after purge", n, table)
		}
	}

	rooms, err := db.LoadRooms(ctx, "gen-keep")
	if err != nil || len(rooms) != 9 {
		t.Errorf("other generation affected: %d rooms, %v", len(rooms), err)
	}

	// Purging an unknown generation is a no-op
	if err := db.PurgeGeneration(ctx, "gen-unknown"); err != nil {
		t.Errorf("PurgeGeneration(unknown) = %v", err)
	}
}

func TestLatestGeneration(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	id, err := db.LatestGeneration(ctx, 1)
	if err != nil || id != "" {
		t.Fatalf("LatestGeneration on empty db = %q, %v", id, err)
	}

	for _, gen := range []string{"gen-old", "gen-new"} {
		if _, err := db.SaveFloor(ctx, testFloor(gen, 2, 2), 100); err != nil {
			t.Fatal(err)
		}
	}

	id, err = db.LatestGeneration(ctx, 1)
	if err != nil || id != "gen-new" {
		t.Errorf("LatestGeneration = %q, %v, want gen-new", id, err)
	}
}

func TestSaveFloorCancelledContext(t *testing.T) {
	db := setupTestDB(t)
	rec := testFloor("gen-cancel", 2, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := db.SaveFloor(ctx, rec, 100); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFloorRecordClaims(t *testing.T) {
	rec := testFloor("gen", 3, 1)
	claims := rec.Claims()

	// (0,0) is the unowned entrance, (1,0) ash_cult, (2,0) unowned
	if len(claims) != 1 || claims[0].RoomID != world.RoomID(1, 1, 0) || claims[0].FactionID != "ash_cult" {
		t.Errorf("Claims() = %+v", claims)
	}
}

func TestListAndLoadFloor(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, gen := range []string{"gen-1", "gen-2"} {
		if _, err := db.SaveFloor(ctx, testFloor(gen, 3, 2), 4); err != nil {
			t.Fatal(err)
		}
	}

	floors, err := db.ListFloors(ctx)
	if err != nil {
		t.Fatalf("ListFloors failed: %v", err)
	}
	if len(floors) != 2 || floors[0].GenerationID != "gen-1" || floors[1].GenerationID != "gen-2" {
		t.Fatalf("ListFloors = %+v", floors)
	}
	if floors[0].RoomCount != 6 || floors[0].Width != 3 || floors[0].Height != 2 {
		t.Errorf("summary = %+v", floors[0])
	}

	rec, err := db.LoadFloor(ctx, "gen-2")
	if err != nil {
		t.Fatalf("LoadFloor failed: %v", err)
	}
	want := testFloor("gen-2", 3, 2)
	if len(rec.Rooms) != len(want.Rooms) || len(rec.Connections) != len(want.Connections) {
		t.Errorf("loaded %d rooms / %d connections, want %d / %d",
			len(rec.Rooms), len(rec.Connections), len(want.Rooms), len(want.Connections))
	}
	if len(rec.Claims()) != len(want.Claims()) {
		t.Errorf("loaded %d claims, want %d", len(rec.Claims()), len(want.Claims()))
	}
	if len(rec.Factions) != 2 || rec.Factions[0].ID != "ash_cult" {
		t.Errorf("factions = %+v", rec.Factions)
	}

	if _, err := db.LoadFloor(ctx, "gen-missing"); err == nil {
		t.Error("expected error loading unknown generation")
	}
}
