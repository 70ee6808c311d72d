package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lawnchairsociety/delvegen/internal/batch"
	"github.com/lawnchairsociety/delvegen/internal/logger"
	"github.com/lawnchairsociety/delvegen/internal/world"
)

// FloorRecord is everything written for one generated floor.
type FloorRecord struct {
	GenerationID string
	Number       int
	Width        int
	Height       int
	Entrance     world.Position
	Rooms        []world.Room
	Connections  []world.Connection
	Factions     []world.Faction
}

// Claim ties a room to its owning faction.
type Claim struct {
	RoomID    string
	FactionID string
}

// Claims returns one claim per room with a faction owner, in room order.
func (r FloorRecord) Claims() []Claim {
	var claims []Claim
	for _, room := range r.Rooms {
		if room.FactionID != "" {
			claims = append(claims, Claim{RoomID: room.ID, FactionID: room.FactionID})
		}
	}
	return claims
}

// SaveReport holds the per-batch outcome of SaveFloor.
type SaveReport struct {
	FloorID     int64
	Rooms       *batch.Report
	Connections *batch.Report
	Claims      *batch.Report
}

// Complete reports whether every batch was written.
func (r *SaveReport) Complete() bool {
	return r.Err() == nil && r.Rooms.Skipped == 0 && r.Connections.Skipped == 0 && r.Claims.Skipped == 0
}

// Err joins the failures of every batch, or returns nil.
func (r *SaveReport) Err() error {
	var errs []error
	if err := r.Rooms.Err(); err != nil {
		errs = append(errs, fmt.Errorf("rooms: %w", err))
	}
	if err := r.Connections.Err(); err != nil {
		errs = append(errs, fmt.Errorf("connections: %w", err))
	}
	if err := r.Claims.Err(); err != nil {
		errs = append(errs, fmt.Errorf("faction claims: %w", err))
	}
	return errors.Join(errs...)
}

var (
	roomColumns       = []string{"generation_id", "id", "floor_number", "x", "y", "room_type", "explored", "looted"}
	connectionColumns = []string{"generation_id", "from_room_id", "to_room_id", "direction"}
	claimColumns      = []string{"generation_id", "room_id", "faction_id"}
)

// SaveFloor upserts the floor's factions, writes the floor header, then
// writes rooms, connections and faction claims in batches of batchSize
// rows. Each batch is its own transaction: a failed batch is logged and
// reported while the others still commit. The returned error covers only
// the faction and header writes, and when it is non-nil no floor row
// exists for the generation. A generation that is already stored returns
// an error wrapping ErrFloorExists.
func (d *Database) SaveFloor(ctx context.Context, rec FloorRecord, batchSize int) (*SaveReport, error) {
	if err := d.upsertFactions(ctx, rec.Factions); err != nil {
		return nil, err
	}

	floorID, err := d.insertFloor(ctx, rec)
	if err != nil {
		return nil, err
	}

	report := &SaveReport{FloorID: floorID}

	report.Rooms = batch.Run(ctx, rec.Rooms, d.statementRows(batchSize, len(roomColumns)), func(ctx context.Context, rooms []world.Room) error {
		args := make([]any, 0, len(rooms)*len(roomColumns))
		for _, r := range rooms {
			args = append(args, rec.GenerationID, r.ID, rec.Number, r.Position.X, r.Position.Y,
				r.Type.String(), boolToInt(r.Explored), boolToInt(r.Looted))
		}
		return d.execBatch(ctx, "rooms", roomColumns, len(rooms), args)
	})

	report.Connections = batch.Run(ctx, rec.Connections, d.statementRows(batchSize, len(connectionColumns)), func(ctx context.Context, conns []world.Connection) error {
		args := make([]any, 0, len(conns)*len(connectionColumns))
		for _, c := range conns {
			args = append(args, rec.GenerationID, c.FromRoomID, c.ToRoomID, c.Direction.String())
		}
		return d.execBatch(ctx, "room_connections", connectionColumns, len(conns), args)
	})

	report.Claims = batch.Run(ctx, rec.Claims(), d.statementRows(batchSize, len(claimColumns)), func(ctx context.Context, claims []Claim) error {
		args := make([]any, 0, len(claims)*len(claimColumns))
		for _, c := range claims {
			args = append(args, rec.GenerationID, c.RoomID, c.FactionID)
		}
		return d.execBatch(ctx, "faction_claims", claimColumns, len(claims), args)
	})

	if err := report.Err(); err != nil {
		logger.Warning("Floor saved with failed batches",
			"floor", rec.Number, "generation_id", rec.GenerationID, "error", err)
	} else {
		logger.Info("Floor saved",
			"floor", rec.Number,
			"generation_id", rec.GenerationID,
			"rooms", report.Rooms.Items(),
			"connections", report.Connections.Items(),
			"claims", report.Claims.Items())
	}

	return report, nil
}

func (d *Database) insertFloor(ctx context.Context, rec FloorRecord) (int64, error) {
	query := d.qb.BuildWithReturning(`
		INSERT INTO floors (generation_id, floor_number, width, height, entrance_x, entrance_y, room_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, "id")
	args := []any{rec.GenerationID, rec.Number, rec.Width, rec.Height, rec.Entrance.X, rec.Entrance.Y, len(rec.Rooms)}

	if !d.dialect.SupportsLastInsertID() {
		var id int64
		if err := d.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, d.floorInsertError(rec, err)
		}
		return id, nil
	}

	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, d.floorInsertError(rec, err)
	}
	return result.LastInsertId()
}

func (d *Database) floorInsertError(rec FloorRecord, err error) error {
	if d.dialect.IsDuplicateKeyError(err) {
		return fmt.Errorf("floor %d (%s): %w", rec.Number, rec.GenerationID, ErrFloorExists)
	}
	return fmt.Errorf("failed to insert floor %d: %w", rec.Number, err)
}

// statementRows caps the rows of one multi-row INSERT so that
// rows*columns stays within the driver's bind variable limit.
func (d *Database) statementRows(batchSize, columns int) int {
	if batchSize <= 0 {
		batchSize = batch.DefaultSize
	}
	if limit := d.dialect.MaxBindVars() / columns; batchSize > limit {
		return limit
	}
	return batchSize
}

func (d *Database) upsertFactions(ctx context.Context, factions []world.Faction) error {
	if len(factions) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin faction transaction: %w", err)
	}
	defer tx.Rollback()

	query := d.qb.Build(`
		INSERT INTO factions (id, name, influence) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, influence = excluded.influence`)
	for _, f := range factions {
		if _, err := tx.ExecContext(ctx, query, f.ID, f.Name, f.Influence); err != nil {
			return fmt.Errorf("failed to save faction %s: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

// execBatch inserts rows value tuples in one statement and one transaction.
func (d *Database) execBatch(ctx context.Context, table string, columns []string, rows int, args []any) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, d.qb.BuildMultiInsert(table, columns, rows), args...); err != nil {
		return fmt.Errorf("failed to insert %d %s: %w", rows, table, err)
	}

	return tx.Commit()
}

// PurgeGeneration deletes every row written for a generation run, so a
// partially saved floor can be regenerated.
func (d *Database) PurgeGeneration(ctx context.Context, generationID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin purge transaction: %w", err)
	}
	defer tx.Rollback()

	// Children first; cascades are not relied on
	for _, table := range []string{"faction_claims", "room_connections", "rooms", "floors"} {
		query := d.qb.Build(fmt.Sprintf("DELETE FROM %s WHERE generation_id = ?", table))
		if _, err := tx.ExecContext(ctx, query, generationID); err != nil {
			return fmt.Errorf("failed to purge %s for generation %s: %w", table, generationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logger.Info("Purged floor generation", "generation_id", generationID)
	return nil
}

// FloorExists reports whether a floor row exists for generationID.
func (d *Database) FloorExists(ctx context.Context, generationID string) (bool, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		d.qb.Build("SELECT COUNT(*) FROM floors WHERE generation_id = ?"),
		generationID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LatestGeneration returns the most recent generation ID saved for a
// floor number, or "" if the floor was never saved.
func (d *Database) LatestGeneration(ctx context.Context, floorNumber int) (string, error) {
	var id string
	err := d.db.QueryRowContext(ctx,
		d.qb.Build("SELECT generation_id FROM floors WHERE floor_number = ? ORDER BY id DESC LIMIT 1"),
		floorNumber,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// LoadRooms returns the rooms of a generation ordered by position, with
// faction owners filled from the claims table.
func (d *Database) LoadRooms(ctx context.Context, generationID string) ([]world.Room, error) {
	rows, err := d.db.QueryContext(ctx, d.qb.Build(`
		SELECT r.id, r.x, r.y, r.room_type, r.explored, r.looted, COALESCE(c.faction_id, '')
		FROM rooms r
		LEFT JOIN faction_claims c ON c.generation_id = r.generation_id AND c.room_id = r.id
		WHERE r.generation_id = ?
		ORDER BY r.y, r.x`), generationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []world.Room
	for rows.Next() {
		var (
			r                world.Room
			roomType         string
			explored, looted int
		)
		if err := rows.Scan(&r.ID, &r.Position.X, &r.Position.Y, &roomType, &explored, &looted, &r.FactionID); err != nil {
			return nil, err
		}
		t, ok := world.ParseRoomType(roomType)
		if !ok {
			return nil, fmt.Errorf("room %s has unknown type %q", r.ID, roomType)
		}
		r.Type = t
		r.Explored = explored != 0
		r.Looted = looted != 0
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

// LoadConnections returns the connections of a generation ordered by
// source room and direction.
func (d *Database) LoadConnections(ctx context.Context, generationID string) ([]world.Connection, error) {
	rows, err := d.db.QueryContext(ctx, d.qb.Build(`
		SELECT from_room_id, to_room_id, direction
		FROM room_connections
		WHERE generation_id = ?
		ORDER BY from_room_id, direction`), generationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []world.Connection
	for rows.Next() {
		var c world.Connection
		var dir string
		if err := rows.Scan(&c.FromRoomID, &c.ToRoomID, &dir); err != nil {
			return nil, err
		}
		parsed, ok := world.ParseDirection(dir)
		if !ok {
			return nil, fmt.Errorf("connection %s->%s has unknown direction %q", c.FromRoomID, c.ToRoomID, dir)
		}
		c.Direction = parsed
		conns = append(conns, c)
	}

	return conns, rows.Err()
}

// ClaimCounts returns faction ID -> number of rooms claimed in a generation.
func (d *Database) ClaimCounts(ctx context.Context, generationID string) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx, d.qb.Build(`
		SELECT faction_id, COUNT(*) FROM faction_claims
		WHERE generation_id = ?
		GROUP BY faction_id`), generationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// FloorSummary is the header row of a saved floor.
type FloorSummary struct {
	ID           int64
	GenerationID string
	Number       int
	Width        int
	Height       int
	Entrance     world.Position
	RoomCount    int
}

// ListFloors returns every saved floor header in save order.
func (d *Database) ListFloors(ctx context.Context) ([]FloorSummary, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, generation_id, floor_number, width, height, entrance_x, entrance_y, room_count
		FROM floors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var floors []FloorSummary
	for rows.Next() {
		var f FloorSummary
		if err := rows.Scan(&f.ID, &f.GenerationID, &f.Number, &f.Width, &f.Height,
			&f.Entrance.X, &f.Entrance.Y, &f.RoomCount); err != nil {
			return nil, err
		}
		floors = append(floors, f)
	}
	return floors, rows.Err()
}

// LoadFactions returns every stored faction ordered by ID.
func (d *Database) LoadFactions(ctx context.Context) ([]world.Faction, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT id, name, influence FROM factions ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var factions []world.Faction
	for rows.Next() {
		var f world.Faction
		if err := rows.Scan(&f.ID, &f.Name, &f.Influence); err != nil {
			return nil, err
		}
		factions = append(factions, f)
	}
	return factions, rows.Err()
}

// LoadFloor reassembles the record saved for generationID, with every
// stored faction attached.
func (d *Database) LoadFloor(ctx context.Context, generationID string) (FloorRecord, error) {
	rec := FloorRecord{GenerationID: generationID}

	err := d.db.QueryRowContext(ctx, d.qb.Build(`
		SELECT floor_number, width, height, entrance_x, entrance_y
		FROM floors WHERE generation_id = ?`), generationID,
	).Scan(&rec.Number, &rec.Width, &rec.Height, &rec.Entrance.X, &rec.Entrance.Y)
	if err != nil {
		return rec, fmt.Errorf("failed to load floor %s: %w", generationID, err)
	}

	if rec.Rooms, err = d.LoadRooms(ctx, generationID); err != nil {
		return rec, fmt.Errorf("failed to load rooms of %s: %w", generationID, err)
	}
	if rec.Connections, err = d.LoadConnections(ctx, generationID); err != nil {
		return rec, fmt.Errorf("failed to load connections of %s: %w", generationID, err)
	}
	if rec.Factions, err = d.LoadFactions(ctx); err != nil {
		return rec, fmt.Errorf("failed to load factions: %w", err)
	}
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
