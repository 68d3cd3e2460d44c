package lobby

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/portside/battleship/internal/model"
	"github.com/portside/battleship/internal/services/session"
	"github.com/portside/battleship/internal/testutil"
)

type stubSink struct {
	mu   sync.Mutex
	msgs []model.ServerMessage
}

func (s *stubSink) Send(msg model.ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func (s *stubSink) has(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.msgs {
		if m.Text == prefix || len(m.Text) > len(prefix) && m.Text[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// pairing captures one factory invocation
type pairing struct {
	username1, username2 string
}

type LobbySuite struct {
	suite.Suite

	lobby    *Lobby
	pairings []pairing
}

func TestLobbySuite(t *testing.T) {
	suite.Run(t, new(LobbySuite))
}

func (s *LobbySuite) SetupTest() {
	s.pairings = nil
	factory := func(username1 string, sink1 session.MessageSink, username2 string, sink2 session.MessageSink) *session.Session {
		s.pairings = append(s.pairings, pairing{username1: username1, username2: username2})
		return nil
	}
	s.lobby = New(factory, testutil.NopLogger())
}

func (s *LobbySuite) TestFirstJoinerWaits() {
	sink := &stubSink{}
	sess := s.lobby.Join("alice", sink)

	s.Nil(sess)
	s.Empty(s.pairings)
	s.True(sink.has("WAITING"))
	s.Equal([]string{"alice"}, s.lobby.Waiting())
}

func (s *LobbySuite) TestSecondJoinerPairsFIFO() {
	s.lobby.Join("alice", &stubSink{})
	s.lobby.Join("bob", &stubSink{})
	s.lobby.Join("carol", &stubSink{})

	// first waiter is matched first; earliest joiner takes seat one
	s.Require().Len(s.pairings, 1)
	s.Equal(pairing{username1: "alice", username2: "bob"}, s.pairings[0])
	s.Equal([]string{"carol"}, s.lobby.Waiting())
}

func (s *LobbySuite) TestLeave() {
	s.lobby.Join("alice", &stubSink{})

	s.True(s.lobby.Leave("alice"))
	s.False(s.lobby.Leave("alice"), "leaving twice is a no-op")
	s.Empty(s.lobby.Waiting())

	// a leaver must not be matched
	s.lobby.Join("bob", &stubSink{})
	s.Empty(s.pairings)
}

func (s *LobbySuite) TestChatReachesOtherWaiters() {
	sinkA := &stubSink{}
	s.lobby.Join("alice", sinkA)

	s.lobby.Chat("ghost", "hello waiters")
	s.True(sinkA.has("CHAT ghost: hello waiters"))

	// the sender does not hear their own message
	s.lobby.Chat("alice", "echo?")
	s.False(sinkA.has("CHAT alice"))
}
