package model

import "strings"

// ShipName identifies a ship class from the fleet catalogue
type ShipName string

const (
	ShipCarrier    ShipName = "Carrier"
	ShipBattleship ShipName = "Battleship"
	ShipCruiser    ShipName = "Cruiser"
	ShipSubmarine  ShipName = "Submarine"
	ShipDestroyer  ShipName = "Destroyer"
)

// Fleet is the fixed catalogue of ships every player places, in placement order
var Fleet = []ShipSpec{
	{Name: ShipCarrier, Length: 5},
	{Name: ShipBattleship, Length: 4},
	{Name: ShipCruiser, Length: 3},
	{Name: ShipSubmarine, Length: 3},
	{Name: ShipDestroyer, Length: 2},
}

// ShipSpec is a catalogue entry
type ShipSpec struct {
	Name   ShipName
	Length int
}

// LookupShip finds a catalogue entry by name, case-insensitively
func LookupShip(name string) (ShipSpec, bool) {
	for _, spec := range Fleet {
		if strings.EqualFold(string(spec.Name), name) {
			return spec, true
		}
	}
	return ShipSpec{}, false
}

// Orientation is the direction a ship extends from its origin
type Orientation string

const (
	Horizontal Orientation = "H"
	Vertical   Orientation = "V"
)

// ParseOrientation accepts "H"/"V" in any case
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "H":
		return Horizontal, nil
	case "V":
		return Vertical, nil
	default:
		return "", ErrInvalidOrientation
	}
}

// Ship is a placed ship on a board
type Ship struct {
	Name        ShipName
	Origin      Coordinate
	Orientation Orientation
	Length      int
	Hits        map[Coordinate]bool // cells of this ship that have been hit
}

// Cells returns the coordinates the ship occupies, derived from
// origin, orientation and length
func (s *Ship) Cells() []Coordinate {
	cells := make([]Coordinate, s.Length)
	for i := 0; i < s.Length; i++ {
		if s.Orientation == Horizontal {
			cells[i] = Coordinate{Row: s.Origin.Row, Col: s.Origin.Col + i}
		} else {
			cells[i] = Coordinate{Row: s.Origin.Row + i, Col: s.Origin.Col}
		}
	}
	return cells
}

// Occupies returns true if the ship covers the given coordinate
func (s *Ship) Occupies(c Coordinate) bool {
	for _, cell := range s.Cells() {
		if cell == c {
			return true
		}
	}
	return false
}

// Sunk returns true once every cell of the ship has been hit
func (s *Ship) Sunk() bool {
	return len(s.Hits) == s.Length
}
