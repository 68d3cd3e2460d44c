package session

import "github.com/portside/battleship/internal/model"

// MessageSink is where a session delivers outbound messages for one player.
// Implementations must not block; the connection layer buffers and drops
// rather than stalling the session loop.
type MessageSink interface {
	Send(msg model.ServerMessage)
}

// Event is anything posted into a session's serialized inbox. All session
// state mutation happens in the session goroutine consuming these.
type Event interface {
	isEvent()
}

// CommandEvent carries a decoded player command into the session
type CommandEvent struct {
	Username string
	Command  model.Command
}

// DisconnectEvent reports that a player's socket dropped
type DisconnectEvent struct {
	Username string
}

// ReconnectEvent re-binds a returning player's connection
type ReconnectEvent struct {
	Username string
	Sink     MessageSink
}

// TimerKind distinguishes the session's two timers
type TimerKind string

const (
	TimerTurn      TimerKind = "turn"
	TimerReconnect TimerKind = "reconnect"
)

// TimerExpiredEvent is posted by an armed timer. Generation tags the arming
// that scheduled it; the session discards events from stale generations, so
// a timer racing its own cancellation is harmless.
type TimerExpiredEvent struct {
	Kind       TimerKind
	Generation uint64
}

// viewRequest reads a consistent snapshot of session state without racing
// the loop
type viewRequest struct {
	reply chan View
}

// shutdownEvent stops the session loop without a game outcome
type shutdownEvent struct{}

func (CommandEvent) isEvent()      {}
func (DisconnectEvent) isEvent()   {}
func (ReconnectEvent) isEvent()    {}
func (TimerExpiredEvent) isEvent() {}
func (viewRequest) isEvent()       {}
func (shutdownEvent) isEvent()     {}

// View is a read-only summary of a session for operational endpoints
type View struct {
	ID        model.SessionID    `json:"id"`
	Mode      model.Mode         `json:"mode"`
	State     model.SessionState `json:"state"`
	Players   []string           `json:"players"`
	Connected []string           `json:"connected"`
	TurnOwner string             `json:"turn_owner,omitempty"`

	// TimerGeneration identifies the currently armed timer; stale
	// TimerExpiredEvents are discarded against it
	TimerGeneration uint64 `json:"-"`
}
