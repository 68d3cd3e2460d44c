// Package lobby pairs players requesting duo matches. Waiting players share
// no session yet, so lobby chat is broadcast across the whole pool.
package lobby

import (
	"log/slog"
	"sync"

	"github.com/portside/battleship/internal/model"
	"github.com/portside/battleship/internal/services/session"
)

// Factory creates a session for a freshly matched pair. Seat order is
// pairing order: the player who waited longest becomes player 1.
type Factory func(username1 string, sink1 session.MessageSink, username2 string, sink2 session.MessageSink) *session.Session

type waiter struct {
	username string
	sink     session.MessageSink
}

// Lobby holds the ordered pool of players waiting for a duo opponent
type Lobby struct {
	mu      sync.Mutex
	waiting []waiter
	factory Factory
	logger  *slog.Logger
}

// New creates an empty lobby
func New(factory Factory, logger *slog.Logger) *Lobby {
	return &Lobby{
		factory: factory,
		logger:  logger.With(slog.String("component", "lobby")),
	}
}

// Join either pairs the player with the earliest waiter and returns the new
// session, or enqueues them and returns nil
func (l *Lobby) Join(username string, sink session.MessageSink) *session.Session {
	l.mu.Lock()
	if len(l.waiting) == 0 {
		l.waiting = append(l.waiting, waiter{username: username, sink: sink})
		count := len(l.waiting)
		l.mu.Unlock()

		sink.Send(model.GameMsg("WAITING"))
		sink.Send(model.InfoMsg("waiting for an opponent"))
		l.logger.Info("player queued", slog.String("username", username), slog.Int("waiting", count))
		return nil
	}

	opponent := l.waiting[0]
	l.waiting = l.waiting[1:]
	l.mu.Unlock()

	l.logger.Info("players paired",
		slog.String("player1", opponent.username),
		slog.String("player2", username),
	)
	return l.factory(opponent.username, opponent.sink, username, sink)
}

// Leave removes a waiting player from the queue; returns false if they were
// not waiting
func (l *Lobby) Leave(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, w := range l.waiting {
		if w.username == username {
			l.waiting = append(l.waiting[:i], l.waiting[i+1:]...)
			l.logger.Info("player left queue", slog.String("username", username))
			return true
		}
	}
	return false
}

// Chat broadcasts a lobby message to every other waiting player
func (l *Lobby) Chat(from, text string) {
	l.mu.Lock()
	recipients := make([]waiter, 0, len(l.waiting))
	for _, w := range l.waiting {
		if w.username != from {
			recipients = append(recipients, w)
		}
	}
	l.mu.Unlock()

	for _, w := range recipients {
		w.sink.Send(model.ChatMsg(from, text))
	}
}

// Waiting returns the usernames currently queued, in arrival order
func (l *Lobby) Waiting() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	usernames := make([]string, len(l.waiting))
	for i, w := range l.waiting {
		usernames[i] = w.username
	}
	return usernames
}
