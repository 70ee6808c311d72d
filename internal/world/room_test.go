package world

import "testing"

func TestDirectionOpposite(t *testing.T) {
	for _, d := range AllDirections() {
		if d.Opposite().Opposite() != d {
			t.Errorf("%s.Opposite().Opposite() = %s", d, d.Opposite().Opposite())
		}
		dx, dy := d.Offset()
		ox, oy := d.Opposite().Offset()
		if dx+ox != 0 || dy+oy != 0 {
			t.Errorf("offsets of %s and its opposite do not cancel", d)
		}
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range AllDirections() {
		got, ok := ParseDirection(d.String())
		if !ok || got != d {
			t.Errorf("ParseDirection(%q) = (%v, %v)", d.String(), got, ok)
		}
	}
	if _, ok := ParseDirection("up"); ok {
		t.Error("ParseDirection(up) should fail")
	}
}

func TestPositionStep(t *testing.T) {
	p := Position{X: 2, Y: 2}
	if got := p.Step(North); got != (Position{2, 1}) {
		t.Errorf("Step(North) = %v", got)
	}
	if got := p.Step(East); got != (Position{3, 2}) {
		t.Errorf("Step(East) = %v", got)
	}
	if got := p.Manhattan(Position{0, 5}); got != 5 {
		t.Errorf("Manhattan = %d, want 5", got)
	}
}

func TestConnectionReverse(t *testing.T) {
	c := Connection{FromRoomID: "a", ToRoomID: "b", Direction: East}
	r := c.Reverse()
	if r.FromRoomID != "b" || r.ToRoomID != "a" || r.Direction != West {
		t.Errorf("Reverse() = %+v", r)
	}
}

func TestRoomID(t *testing.T) {
	if got := RoomID(3, 4, 5); got != "f3_r4_5" {
		t.Errorf("RoomID(3,4,5) = %q", got)
	}
}

func TestFactionIsActive(t *testing.T) {
	if (Faction{Influence: 0}).IsActive() {
		t.Error("zero influence faction should not be active")
	}
	if !(Faction{Influence: 0.5}).IsActive() {
		t.Error("positive influence faction should be active")
	}
}
