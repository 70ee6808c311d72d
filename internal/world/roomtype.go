package world

// RoomType represents the semantic category of a generated room
type RoomType int

const (
	RoomTypeNormal   RoomType = iota // Ordinary dungeon room
	RoomTypeEntrance                 // Where players arrive on the floor
	RoomTypeStairs                   // Staircase to the next floor
	RoomTypeSafe                     // Rest area, no combat
	RoomTypeTreasure                 // Loot room
	RoomTypeOutdoor                  // Open-air room
	RoomTypeBoss                     // Boss chamber (every 10th floor)
	RoomTypeExit                     // Floor exit
	RoomTypeTrap                     // Trapped room
)

var roomTypeNames = map[RoomType]string{
	RoomTypeNormal:   "normal",
	RoomTypeEntrance: "entrance",
	RoomTypeStairs:   "stairs",
	RoomTypeSafe:     "safe",
	RoomTypeTreasure: "treasure",
	RoomTypeOutdoor:  "outdoor",
	RoomTypeBoss:     "boss",
	RoomTypeExit:     "exit",
	RoomTypeTrap:     "trap",
}

// String returns the string representation of a RoomType
func (t RoomType) String() string {
	if name, ok := roomTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsClaimable returns true if a faction may own rooms of this type.
// Only normal and treasure rooms can be claimed.
func (t RoomType) IsClaimable() bool {
	return t == RoomTypeNormal || t == RoomTypeTreasure
}

// IsSpecial returns true for types placed by constraint rather than weighted draw
func (t RoomType) IsSpecial() bool {
	switch t {
	case RoomTypeEntrance, RoomTypeStairs, RoomTypeSafe, RoomTypeBoss, RoomTypeExit:
		return true
	default:
		return false
	}
}

// ParseRoomType converts a string to a RoomType
func ParseRoomType(s string) (RoomType, bool) {
	for t, name := range roomTypeNames {
		if name == s {
			return t, true
		}
	}
	return RoomTypeNormal, false
}
