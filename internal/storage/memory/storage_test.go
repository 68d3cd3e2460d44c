package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/portside/battleship/internal/dependencies/mocks"
	"github.com/portside/battleship/internal/model"
)

type MemoryStorageSuite struct {
	suite.Suite

	clock *mocks.MockClock
	store *Storage
	ctx   context.Context
}

func TestMemoryStorageSuite(t *testing.T) {
	suite.Run(t, new(MemoryStorageSuite))
}

func (s *MemoryStorageSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.store = New(s.clock)
	s.ctx = context.Background()
}

func (s *MemoryStorageSuite) TearDownTest() {
	_ = s.store.Close()
}

func (s *MemoryStorageSuite) snapshot(usernames ...string) *model.SessionSnapshot {
	board := model.NewBoard(model.DefaultBoardSize)
	s.Require().NoError(board.Place("Destroyer", model.Coordinate{}, model.Horizontal))
	board.Fire(model.Coordinate{})

	snap := &model.SessionSnapshot{
		ID:        "session-1",
		Mode:      model.ModeDuo,
		State:     model.StateActive,
		TurnOwner: usernames[0],
		SavedAt:   s.clock.Now(),
		ExpiresAt: s.clock.Now().Add(time.Minute),
	}
	for _, username := range usernames {
		snap.Players = append(snap.Players, model.PlayerSnapshot{Username: username, Board: board})
	}
	return snap
}

func (s *MemoryStorageSuite) TestSaveAndLoad() {
	snap := s.snapshot("alice", "bob")
	s.Require().NoError(s.store.Save(s.ctx, snap))

	loaded, err := s.store.Load(s.ctx, model.SnapshotKey("alice", "bob"))
	s.Require().NoError(err)
	s.Equal(snap.ID, loaded.ID)
	s.Equal(model.StateActive, loaded.State)
	s.Require().Len(loaded.Players, 2)

	// the stored board carries the hit mark through
	board := loaded.Players[0].Board
	s.Equal(model.MarkHit, board.Marks[model.Coordinate{}])
	s.NotNil(board.Placed(model.ShipDestroyer))
}

func (s *MemoryStorageSuite) TestLoadMissing() {
	_, err := s.store.Load(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *MemoryStorageSuite) TestDelete() {
	snap := s.snapshot("alice")
	s.Require().NoError(s.store.Save(s.ctx, snap))
	s.Require().NoError(s.store.Delete(s.ctx, "alice"))

	_, err := s.store.Load(s.ctx, "alice")
	s.ErrorIs(err, model.ErrSnapshotNotFound)

	// deleting a missing key is not an error
	s.NoError(s.store.Delete(s.ctx, "alice"))
}

func (s *MemoryStorageSuite) TestExpiredSnapshotInvisible() {
	snap := s.snapshot("alice")
	s.Require().NoError(s.store.Save(s.ctx, snap))

	s.clock.Advance(time.Minute)

	_, err := s.store.Load(s.ctx, "alice")
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *MemoryStorageSuite) TestSweepReclaimsExpired() {
	s.Require().NoError(s.store.Save(s.ctx, s.snapshot("alice")))

	fresh := s.snapshot("bob")
	fresh.ExpiresAt = s.clock.Now().Add(time.Hour)
	s.Require().NoError(s.store.Save(s.ctx, fresh))

	s.clock.Advance(time.Minute)
	s.Equal(1, s.store.Sweep())

	_, err := s.store.Load(s.ctx, "bob")
	s.NoError(err)
}

func (s *MemoryStorageSuite) TestSaveDetachesFromCaller() {
	snap := s.snapshot("alice")
	s.Require().NoError(s.store.Save(s.ctx, snap))

	// the caller keeps playing on its live board
	snap.Players[0].Board.Fire(model.Coordinate{Row: 9, Col: 9})

	loaded, err := s.store.Load(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.MarkUnknown, loaded.Players[0].Board.Marks[model.Coordinate{Row: 9, Col: 9}])
}
