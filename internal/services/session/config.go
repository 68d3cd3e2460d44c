package session

import "time"

// Config holds the tunable parameters of a session
type Config struct {
	// BoardSize is the grid dimension for both players
	BoardSize int

	// TurnTimeout is how long the turn owner has to act while active;
	// expiry forfeits the game, it does not skip the turn
	TurnTimeout time.Duration

	// ReconnectWindow is how long a disconnected player has to return
	// before the session finishes against them
	ReconnectWindow time.Duration

	// ActiveSnapshotTTL is the retention for crash-safety snapshots taken
	// while the session is active
	ActiveSnapshotTTL time.Duration

	// InboxSize is the event queue depth
	InboxSize int
}

// DefaultConfig returns the standard session parameters
func DefaultConfig() Config {
	return Config{
		BoardSize:         10,
		TurnTimeout:       30 * time.Second,
		ReconnectWindow:   60 * time.Second,
		ActiveSnapshotTTL: 5 * time.Minute,
		InboxSize:         64,
	}
}
