package model

import (
	"sort"
	"strings"
	"time"
)

// SessionID uniquely identifies a session
type SessionID string

// Mode selects solo play against the server or a two-player match
type Mode string

const (
	ModeSolo Mode = "solo"
	ModeDuo  Mode = "duo"
)

// ParseMode accepts "solo"/"duo" in any case
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "solo":
		return ModeSolo, true
	case "duo":
		return ModeDuo, true
	default:
		return "", false
	}
}

// SessionState is the phase of a match
type SessionState string

const (
	StateLobbyWait        SessionState = "lobby_wait"
	StatePlacement        SessionState = "placement"
	StateActive           SessionState = "active"
	StatePausedDisconnect SessionState = "paused_disconnect"
	StateFinished         SessionState = "finished"
)

// Outcome records how a finished session ended
type Outcome string

const (
	OutcomeAllSunk          Outcome = "all_sunk"
	OutcomeQuit             Outcome = "quit"
	OutcomeTurnTimeout      Outcome = "turn_timeout"
	OutcomeReconnectTimeout Outcome = "reconnect_timeout"
	OutcomeAbandoned        Outcome = "abandoned"
)

// SnapshotKey derives the store key for a set of participants: the username
// for solo sessions, the sorted username pair for duo
func SnapshotKey(usernames ...string) string {
	sorted := make([]string, len(usernames))
	copy(sorted, usernames)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// PlayerSnapshot is one participant's persisted state
type PlayerSnapshot struct {
	Username string
	Board    *Board
}

// SessionSnapshot holds everything needed to reconstruct a session after a
// disconnect or a process restart
type SessionSnapshot struct {
	ID        SessionID
	Mode      Mode
	State     SessionState
	Players   []PlayerSnapshot // in seat order
	TurnOwner string           // username; duo only

	// ServerBoard is the hidden target board of a solo session
	ServerBoard *Board `json:",omitempty"`

	SavedAt   time.Time
	ExpiresAt time.Time
}

// Key returns the snapshot's store key
func (s *SessionSnapshot) Key() string {
	usernames := make([]string, len(s.Players))
	for i, p := range s.Players {
		usernames[i] = p.Username
	}
	return SnapshotKey(usernames...)
}
