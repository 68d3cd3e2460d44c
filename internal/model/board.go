package model

import (
	"fmt"
	"strings"
)

// DefaultBoardSize is the standard grid dimension
const DefaultBoardSize = 10

// CellMark is the cumulative shot record for a cell
type CellMark byte

const (
	MarkUnknown CellMark = iota
	MarkMiss
	MarkHit
)

// FireOutcome classifies the result of a shot
type FireOutcome string

const (
	FireMiss            FireOutcome = "MISS"
	FireHit             FireOutcome = "HIT"
	FireSunk            FireOutcome = "SUNK"
	FireAlreadyTargeted FireOutcome = "ALREADY_SHOT"
)

// FireResult is the outcome of a single shot. SunkShip is set only when
// Outcome is FireSunk.
type FireResult struct {
	Outcome  FireOutcome
	SunkShip ShipName
}

// Board is one player's grid: placed ships plus the marks accumulated from
// the opponent's shots. Owned exclusively by its session.
type Board struct {
	Size  int
	Ships []*Ship
	Marks map[Coordinate]CellMark
}

// NewBoard creates an empty board of the given size
func NewBoard(size int) *Board {
	return &Board{
		Size:  size,
		Marks: make(map[Coordinate]CellMark),
	}
}

// ShipAt returns the ship covering the coordinate, or nil
func (b *Board) ShipAt(c Coordinate) *Ship {
	for _, ship := range b.Ships {
		if ship.Occupies(c) {
			return ship
		}
	}
	return nil
}

// Placed returns the placed ship with the given name, or nil
func (b *Board) Placed(name ShipName) *Ship {
	for _, ship := range b.Ships {
		if ship.Name == name {
			return ship
		}
	}
	return nil
}

// FleetComplete returns true once every catalogue ship is placed
func (b *Board) FleetComplete() bool {
	return len(b.Ships) == len(Fleet)
}

// Place validates and adds a ship to the board. Rejections are returned as
// *PlacementError; the board is unchanged on any error.
func (b *Board) Place(name string, origin Coordinate, orientation Orientation) error {
	spec, ok := LookupShip(name)
	if !ok {
		return &PlacementError{Kind: PlacementUnknownShip, Ship: ShipName(name)}
	}
	if b.Placed(spec.Name) != nil {
		return &PlacementError{Kind: PlacementAlreadyPlaced, Ship: spec.Name}
	}

	ship := &Ship{
		Name:        spec.Name,
		Origin:      origin,
		Orientation: orientation,
		Length:      spec.Length,
		Hits:        make(map[Coordinate]bool),
	}

	for _, cell := range ship.Cells() {
		if !cell.InBounds(b.Size) {
			return &PlacementError{Kind: PlacementOutOfBounds, Ship: spec.Name}
		}
		if b.ShipAt(cell) != nil {
			return &PlacementError{Kind: PlacementOverlap, Ship: spec.Name}
		}
	}

	b.Ships = append(b.Ships, ship)
	return nil
}

// Fire resolves a shot at the coordinate. Repeat shots at a marked cell
// return FireAlreadyTargeted without mutating anything.
func (b *Board) Fire(c Coordinate) FireResult {
	if b.Marks[c] != MarkUnknown {
		return FireResult{Outcome: FireAlreadyTargeted}
	}

	ship := b.ShipAt(c)
	if ship == nil {
		b.Marks[c] = MarkMiss
		return FireResult{Outcome: FireMiss}
	}

	b.Marks[c] = MarkHit
	ship.Hits[c] = true
	if ship.Sunk() {
		return FireResult{Outcome: FireSunk, SunkShip: ship.Name}
	}
	return FireResult{Outcome: FireHit}
}

// AllSunk is the win-condition predicate: true once every placed ship is
// sunk. A board with no ships placed yet is not considered sunk.
func (b *Board) AllSunk() bool {
	if len(b.Ships) == 0 {
		return false
	}
	for _, ship := range b.Ships {
		if !ship.Sunk() {
			return false
		}
	}
	return true
}

// RenderOwn renders the owner's view: ship cells as 'S', hits 'X',
// misses 'o', open water '.'
func (b *Board) RenderOwn() string {
	return b.render(true)
}

// RenderTracking renders the opponent-facing view: marks only, no ships
func (b *Board) RenderTracking() string {
	return b.render(false)
}

func (b *Board) render(showShips bool) string {
	var sb strings.Builder

	sb.WriteString("   ")
	for col := 0; col < b.Size; col++ {
		if col > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteRune(rune('A' + col))
	}
	sb.WriteByte('\n')

	for row := 0; row < b.Size; row++ {
		sb.WriteString(fmt.Sprintf("%-3d", row+1))
		for col := 0; col < b.Size; col++ {
			c := Coordinate{Row: row, Col: col}
			cell := "."
			switch b.Marks[c] {
			case MarkHit:
				cell = "X"
			case MarkMiss:
				cell = "o"
			default:
				if showShips && b.ShipAt(c) != nil {
					cell = "S"
				}
			}
			if col > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(cell)
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
