package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinate identifies a cell on the board
type Coordinate struct {
	Row int // 0-indexed, displayed as a 1-based number
	Col int // 0-indexed, displayed as a letter (A..)
}

// ParseCoordinate converts text like "B5" into a zero-based coordinate:
// column letter then row number. "A1" => col 0 row 0, "C10" => col 2
// row 9. Bounds are checked by the caller against the board size.
func ParseCoordinate(s string) (Coordinate, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}

	colLetter := s[0]
	if colLetter < 'A' || colLetter > 'Z' {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}

	row, err := strconv.Atoi(s[1:])
	if err != nil || row < 1 {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}

	return Coordinate{Row: row - 1, Col: int(colLetter - 'A')}, nil
}

// String renders the coordinate in wire format, e.g. "B5"
func (c Coordinate) String() string {
	return fmt.Sprintf("%c%d", rune('A'+c.Col), c.Row+1)
}

// InBounds returns true if the coordinate fits a size x size grid
func (c Coordinate) InBounds(size int) bool {
	return c.Row >= 0 && c.Row < size && c.Col >= 0 && c.Col < size
}

// MarshalText lets coordinates serve as JSON map keys in snapshots
func (c Coordinate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText is the inverse of MarshalText
func (c *Coordinate) UnmarshalText(text []byte) error {
	parsed, err := ParseCoordinate(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
