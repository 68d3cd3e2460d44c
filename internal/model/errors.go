package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Protocol errors
	ErrIntegrity       = errors.New("packet checksum mismatch")
	ErrMalformedPacket = errors.New("malformed packet")
	ErrReplay          = errors.New("packet sequence replayed or reordered")

	// Command errors
	ErrInvalidCoordinate  = errors.New("invalid coordinate")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrUnknownCommand     = errors.New("unknown command")

	// Board errors
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrSessionNotActive = errors.New("session is not active")
	ErrAlreadyTargeted  = errors.New("cell already targeted")
	ErrFleetNotComplete = errors.New("fleet not fully placed")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFinished  = errors.New("session already finished")
	ErrNotInSession     = errors.New("player is not in this session")
	ErrUsernameInUse    = errors.New("username already bound to a live connection")
	ErrUsernameRequired = errors.New("first command must be join")

	// Store errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// PlacementErrorKind distinguishes the ways a place command can be rejected
type PlacementErrorKind string

const (
	PlacementOutOfBounds   PlacementErrorKind = "out_of_bounds"
	PlacementOverlap       PlacementErrorKind = "overlap"
	PlacementUnknownShip   PlacementErrorKind = "unknown_ship"
	PlacementAlreadyPlaced PlacementErrorKind = "already_placed"
)

// PlacementError is an expected rejection of a place command. The player
// stays in the placement phase; nothing about the board changes.
type PlacementError struct {
	Kind PlacementErrorKind
	Ship ShipName
}

func (e *PlacementError) Error() string {
	switch e.Kind {
	case PlacementOutOfBounds:
		return fmt.Sprintf("cannot place %s: out of bounds", e.Ship)
	case PlacementOverlap:
		return fmt.Sprintf("cannot place %s: overlaps another ship", e.Ship)
	case PlacementUnknownShip:
		return fmt.Sprintf("unknown ship %q", e.Ship)
	case PlacementAlreadyPlaced:
		return fmt.Sprintf("%s is already placed", e.Ship)
	default:
		return fmt.Sprintf("cannot place %s", e.Ship)
	}
}

// AsPlacementError unwraps err into a PlacementError if it is one
func AsPlacementError(err error) (*PlacementError, bool) {
	var pe *PlacementError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
