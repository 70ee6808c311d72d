// Package export writes generated floors as human-readable YAML.
package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/delvegen/internal/faction"
	"github.com/lawnchairsociety/delvegen/internal/floorgen"
	"github.com/lawnchairsociety/delvegen/internal/grid"
	"github.com/lawnchairsociety/delvegen/internal/world"
)

// FloorFile is the YAML layout of an exported floor
type FloorFile struct {
	Floor        int                  `yaml:"floor"`
	GenerationID string               `yaml:"generation_id"`
	Seed         int64                `yaml:"seed"`
	Width        int                  `yaml:"width"`
	Height       int                  `yaml:"height"`
	Entrance     string               `yaml:"entrance"`
	Stairs       []string             `yaml:"stairs,omitempty"`
	SafeRooms    []string             `yaml:"safe_rooms,omitempty"`
	Boss         string               `yaml:"boss,omitempty"`
	Territory    map[string]int       `yaml:"territory"`
	Rooms        map[string]*RoomFile `yaml:"rooms"`
}

// RoomFile is the YAML layout of one room
type RoomFile struct {
	X       int               `yaml:"x"`
	Y       int               `yaml:"y"`
	Type    string            `yaml:"type"`
	Faction string            `yaml:"faction,omitempty"`
	Exits   map[string]string `yaml:"exits,omitempty"`
}

// exitOrder lists exits north, south, east, west
var exitOrder = []world.Direction{world.North, world.South, world.East, world.West}

// WriteFloor writes floor to a YAML file at path
func WriteFloor(floor *floorgen.Floor, seed int64, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := Encode(f, floor, seed); err != nil {
		return err
	}
	return f.Close()
}

// Encode writes floor as YAML with a comment header. Rooms are sorted by ID
// and territory by faction ID so output is stable across runs.
func Encode(w io.Writer, floor *floorgen.Floor, seed int64) error {
	fmt.Fprintf(w, "# Floor %d\n", floor.Number)
	fmt.Fprintf(w, "# Generated with seed: %d\n", seed)
	fmt.Fprintf(w, "# Room count: %d\n\n", len(floor.Rooms))

	doc := yaml.Node{Kind: yaml.MappingNode}
	addIntField(&doc, "floor", floor.Number)
	addStringField(&doc, "generation_id", floor.GenerationID.String())
	addScalarField(&doc, "seed", strconv.FormatInt(seed, 10))
	addIntField(&doc, "width", floor.Width)
	addIntField(&doc, "height", floor.Height)
	addStringField(&doc, "entrance", floor.EntranceRoom().ID)
	if len(floor.Stairs()) > 0 {
		addSequenceField(&doc, "stairs", floor.Stairs())
	}
	if len(floor.Classification.SafeRooms) > 0 {
		addSequenceField(&doc, "safe_rooms", floor.Classification.SafeRooms)
	}
	if floor.Boss() != "" {
		addStringField(&doc, "boss", floor.Boss())
	}
	doc.Content = append(doc.Content, scalar("territory"), territoryNode(floor.Assignment))
	doc.Content = append(doc.Content, scalar("rooms"), roomsNode(floor))

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// ReadFloor loads an exported floor file
func ReadFloor(path string) (*FloorFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read floor file: %w", err)
	}

	var file FloorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse floor YAML: %w", err)
	}
	return &file, nil
}

// territoryNode maps faction ID -> room count, with the unclaimed count last
func territoryNode(a faction.Assignment) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range a.FactionIDs() {
		addIntField(node, id, len(a.ByFaction[id]))
	}
	addIntField(node, faction.UnclaimedKey, len(a.Unclaimed))
	return node
}

func roomsNode(floor *floorgen.Floor) *yaml.Node {
	rooms := make([]world.Room, len(floor.Rooms))
	copy(rooms, floor.Rooms)
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })

	exits := grid.ExitsByRoom(floor.Connections)

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, room := range rooms {
		value := &yaml.Node{Kind: yaml.MappingNode}
		addIntField(value, "x", room.Position.X)
		addIntField(value, "y", room.Position.Y)
		addStringField(value, "type", room.Type.String())
		if room.FactionID != "" {
			addStringField(value, "faction", room.FactionID)
		}

		if roomExits := exits[room.ID]; len(roomExits) > 0 {
			exitNode := &yaml.Node{Kind: yaml.MappingNode}
			for _, d := range exitOrder {
				if to, ok := roomExits[d]; ok {
					addStringField(exitNode, d.String(), to)
				}
			}
			value.Content = append(value.Content, scalar("exits"), exitNode)
		}

		node.Content = append(node.Content, scalar(room.ID), value)
	}
	return node
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

func addScalarField(node *yaml.Node, key, value string) {
	node.Content = append(node.Content, scalar(key), scalar(value))
}

// addStringField quotes values that would otherwise read back as non-strings
func addStringField(node *yaml.Node, key, value string) {
	node.Content = append(node.Content,
		scalar(key),
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}

func addIntField(node *yaml.Node, key string, value int) {
	node.Content = append(node.Content,
		scalar(key),
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(value)},
	)
}

func addSequenceField(node *yaml.Node, key string, values []string) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range values {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v})
	}
	node.Content = append(node.Content, scalar(key), seq)
}
