// Package session implements the per-match state machine. Each session runs
// one goroutine consuming a serialized event queue; player commands, socket
// drops, reconnects and timer expiries all arrive as events, so every state
// mutation for a match happens on a single logical thread of control.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/portside/battleship/internal/dependencies/clock"
	"github.com/portside/battleship/internal/dependencies/random"
	"github.com/portside/battleship/internal/model"
	"github.com/portside/battleship/internal/services/board"
	"github.com/portside/battleship/internal/storage"
)

// Deps are the collaborators injected into every session
type Deps struct {
	Store  storage.SnapshotStore
	Clock  clock.Clock
	Random random.Random
	Logger *slog.Logger

	// OnFinish is called once, after the session loop has stopped
	OnFinish func(s *Session)
}

// seat is one player's binding inside a session. sink is nil while the
// player is disconnected.
type seat struct {
	username string
	sink     MessageSink
	board    *model.Board
}

// Session is one in-progress match. All fields below inbox are owned by the
// run goroutine and must not be touched from outside it.
type Session struct {
	id        model.SessionID
	mode      model.Mode
	usernames []string
	cfg       Config
	deps      Deps
	logger    *slog.Logger

	inbox chan Event
	done  chan struct{}
	once  sync.Once

	state       model.SessionState
	resumeState model.SessionState // phase to return to after a reconnect
	seats       []*seat
	serverBoard *model.Board // solo target board
	turnIdx     int

	timerGen  uint64
	timerKind TimerKind
	timer     *time.Timer
}

// NewSolo creates a single-player session: the player places their fleet,
// then fires at a randomly placed server board
func NewSolo(username string, sink MessageSink, cfg Config, deps Deps) (*Session, error) {
	s := newSession(model.ModeSolo, cfg, deps)
	s.seats = []*seat{{username: username, sink: sink, board: model.NewBoard(cfg.BoardSize)}}
	s.usernames = []string{username}

	s.serverBoard = model.NewBoard(cfg.BoardSize)
	if err := board.RandomFleet(s.serverBoard, deps.Random); err != nil {
		return nil, err
	}

	s.state = model.StatePlacement
	s.sendTo(0, model.GameMsg("WELCOME PLAYER 1"))
	s.sendTo(0, model.GameMsg("PLACE_SHIPS"))

	s.start()
	return s, nil
}

// NewDuo creates a two-player session in the placement phase. Seat order is
// pairing order; the first seat owns the opening turn.
func NewDuo(username1 string, sink1 MessageSink, username2 string, sink2 MessageSink, cfg Config, deps Deps) *Session {
	s := newSession(model.ModeDuo, cfg, deps)
	s.seats = []*seat{
		{username: username1, sink: sink1, board: model.NewBoard(cfg.BoardSize)},
		{username: username2, sink: sink2, board: model.NewBoard(cfg.BoardSize)},
	}
	s.usernames = []string{username1, username2}

	s.state = model.StatePlacement
	for i := range s.seats {
		s.sendTo(i, model.GameMsg("WELCOME PLAYER %d", i+1))
		s.sendTo(i, model.GameMsg("PLACE_SHIPS"))
	}

	s.start()
	return s
}

// Restore rebuilds a session from a snapshot, binding the returning player.
// Seats whose players have not returned yet stay disconnected and the
// reconnect clock runs against them. The snapshot is consumed.
func Restore(snapshot *model.SessionSnapshot, username string, sink MessageSink, cfg Config, deps Deps) (*Session, error) {
	s := newSession(snapshot.Mode, cfg, deps)
	s.id = snapshot.ID

	found := false
	allBound := true
	for _, p := range snapshot.Players {
		st := &seat{username: p.Username, board: p.Board}
		if p.Username == username {
			st.sink = sink
			found = true
		} else {
			allBound = false
		}
		s.seats = append(s.seats, st)
		s.usernames = append(s.usernames, p.Username)
	}
	if !found {
		return nil, model.ErrNotInSession
	}

	s.serverBoard = snapshot.ServerBoard
	s.resumeState = snapshot.State
	for i, st := range s.seats {
		if st.username == snapshot.TurnOwner {
			s.turnIdx = i
		}
	}

	if err := s.deps.Store.Delete(context.Background(), snapshot.Key()); err != nil {
		s.logger.Warn("could not delete consumed snapshot", slog.String("error", err.Error()))
	}

	if allBound {
		s.state = s.resumeState
		s.announceResume()
	} else {
		s.state = model.StatePausedDisconnect
		s.sendTo(s.seatOf(username), model.InfoMsg("session restored, waiting for opponent to reconnect"))
		s.armReconnectTimer()
	}

	s.start()
	return s, nil
}

func newSession(mode model.Mode, cfg Config, deps Deps) *Session {
	id := model.SessionID(uuid.NewString())
	return &Session{
		id:     id,
		mode:   mode,
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With(slog.String("session_id", string(id)), slog.String("mode", string(mode))),
		inbox:  make(chan Event, cfg.InboxSize),
		done:   make(chan struct{}),
	}
}

func (s *Session) start() {
	s.logger.Info("session started", slog.Any("players", s.usernames))
	go s.run()
}

// ID returns the session identifier
func (s *Session) ID() model.SessionID { return s.id }

// Mode returns solo or duo
func (s *Session) Mode() model.Mode { return s.mode }

// Usernames returns the participants in seat order
func (s *Session) Usernames() []string { return s.usernames }

// Done is closed once the session loop has stopped
func (s *Session) Done() <-chan struct{} { return s.done }

// Post delivers an event to the session loop. It returns false once the
// session has finished.
func (s *Session) Post(ev Event) bool {
	select {
	case <-s.done:
		// the buffered inbox would still accept the send; check first
		return false
	default:
	}
	select {
	case s.inbox <- ev:
		return true
	case <-s.done:
		return false
	}
}

// View returns a consistent read of session state. Because it round-trips
// through the event queue it also acts as a barrier: every event posted
// before View has been applied when it returns.
func (s *Session) View() View {
	req := viewRequest{reply: make(chan View, 1)}
	if !s.Post(req) {
		return View{ID: s.id, Mode: s.mode, State: model.StateFinished, Players: s.usernames}
	}
	select {
	case v := <-req.reply:
		return v
	case <-s.done:
		return View{ID: s.id, Mode: s.mode, State: model.StateFinished, Players: s.usernames}
	}
}

func (s *Session) run() {
	for {
		ev := <-s.inbox
		switch e := ev.(type) {
		case CommandEvent:
			s.handleCommand(e)
		case DisconnectEvent:
			s.handleDisconnect(e.Username)
		case ReconnectEvent:
			s.handleReconnect(e)
		case TimerExpiredEvent:
			s.handleTimer(e)
		case viewRequest:
			e.reply <- s.view()
		case shutdownEvent:
			s.finish(model.OutcomeAbandoned)
		}

		if s.state == model.StateFinished {
			s.once.Do(func() { close(s.done) })
			if s.deps.OnFinish != nil {
				s.deps.OnFinish(s)
			}
			return
		}
	}
}

// Shutdown abandons the session without a game outcome (server stopping)
func (s *Session) Shutdown() {
	s.Post(shutdownEvent{})
}

func (s *Session) view() View {
	v := View{
		ID:      s.id,
		Mode:    s.mode,
		State:   s.state,
		Players: s.usernames,
	}
	for _, st := range s.seats {
		if st.sink != nil {
			v.Connected = append(v.Connected, st.username)
		}
	}
	if s.mode == model.ModeDuo && s.state == model.StateActive {
		v.TurnOwner = s.seats[s.turnIdx].username
	}
	v.TimerGeneration = s.timerGen
	return v
}

// seatOf returns the seat index for a username, or -1
func (s *Session) seatOf(username string) int {
	for i, st := range s.seats {
		if st.username == username {
			return i
		}
	}
	return -1
}

func (s *Session) sendTo(idx int, msg model.ServerMessage) {
	if idx < 0 || idx >= len(s.seats) {
		return
	}
	if sink := s.seats[idx].sink; sink != nil {
		sink.Send(msg)
	}
}

func (s *Session) handleCommand(e CommandEvent) {
	idx := s.seatOf(e.Username)
	if idx < 0 {
		s.logger.Warn("command from player not in session", slog.String("username", e.Username))
		return
	}

	switch cmd := e.Command.(type) {
	case model.ChatCommand:
		s.relayChat(idx, cmd.Text)
	case model.QuitCommand:
		s.handleQuit(idx)
	case model.PlaceCommand:
		s.handlePlace(idx, cmd)
	case model.FireCommand:
		s.handleFire(idx, cmd)
	default:
		s.sendTo(idx, model.InfoMsg("unexpected command"))
	}
}

// relayChat forwards chat to the other bound player(s); it never changes
// session state
func (s *Session) relayChat(fromIdx int, text string) {
	delivered := false
	for i := range s.seats {
		if i == fromIdx {
			continue
		}
		if s.seats[i].sink != nil {
			s.sendTo(i, model.ChatMsg(s.seats[fromIdx].username, text))
			delivered = true
		}
	}
	if s.mode == model.ModeDuo && !delivered {
		s.sendTo(fromIdx, model.InfoMsg("opponent is disconnected, message not delivered"))
	}
}

func (s *Session) handleQuit(idx int) {
	s.sendTo(idx, model.InfoMsg("you forfeited the game"))
	s.sendTo(idx, model.GameMsg("LOSE"))
	if other := s.otherIdx(idx); other >= 0 {
		s.sendTo(other, model.InfoMsg("opponent quit"))
		s.sendTo(other, model.GameMsg("WIN"))
	}
	s.finish(model.OutcomeQuit)
}

func (s *Session) handlePlace(idx int, cmd model.PlaceCommand) {
	if s.state != model.StatePlacement {
		s.sendTo(idx, model.InfoMsg("fleet already placed"))
		return
	}

	st := s.seats[idx]
	if err := st.board.Place(cmd.Ship, cmd.Origin, cmd.Orientation); err != nil {
		s.sendTo(idx, model.InfoMsg("%s", err.Error()))
		return
	}

	s.sendTo(idx, model.GameMsg("PLACED %s", cmd.Ship))
	s.sendTo(idx, model.GameMsg("OWN_BOARD\n%s", st.board.RenderOwn()))

	if !st.board.FleetComplete() {
		return
	}

	s.sendTo(idx, model.InfoMsg("all ships placed"))
	for _, other := range s.seats {
		if !other.board.FleetComplete() {
			s.sendTo(idx, model.GameMsg("WAITING"))
			return
		}
	}
	s.beginActive()
}

// beginActive fires the placement -> active transition: the first seat owns
// the opening turn and the turn clock starts
func (s *Session) beginActive() {
	s.state = model.StateActive
	s.turnIdx = 0
	s.sendBoards()
	s.sendTurnPrompts()
	s.armTurnTimer()
	s.saveSnapshot(s.deps.Clock.Now().Add(s.cfg.ActiveSnapshotTTL))
	s.logger.Info("session active", slog.String("turn_owner", s.seats[s.turnIdx].username))
}

func (s *Session) handleFire(idx int, cmd model.FireCommand) {
	switch s.state {
	case model.StateActive:
	case model.StatePausedDisconnect:
		s.sendTo(idx, model.InfoMsg("game paused, waiting for opponent to reconnect"))
		return
	case model.StatePlacement:
		s.sendTo(idx, model.InfoMsg("place your ships first"))
		return
	default:
		s.sendTo(idx, model.InfoMsg("session is not active"))
		return
	}

	if s.mode == model.ModeDuo && idx != s.turnIdx {
		s.sendTo(idx, model.InfoMsg("not your turn"))
		return
	}

	if !cmd.Target.InBounds(s.cfg.BoardSize) {
		s.sendTo(idx, model.InfoMsg("coordinate %s is out of bounds", cmd.Target))
		return
	}

	defender := s.defenderBoard(idx)
	result := defender.Fire(cmd.Target)

	switch result.Outcome {
	case model.FireAlreadyTargeted:
		// no state change, no turn flip, clock keeps running
		s.sendTo(idx, model.GameMsg("RESULT ALREADY_SHOT"))
		return
	case model.FireSunk:
		s.sendTo(idx, model.GameMsg("RESULT SUNK %s", result.SunkShip))
		if other := s.otherIdx(idx); other >= 0 {
			s.sendTo(other, model.GameMsg("YOUR_SHIP_SUNK %s", result.SunkShip))
		}
	case model.FireHit:
		s.sendTo(idx, model.GameMsg("RESULT HIT"))
		if other := s.otherIdx(idx); other >= 0 {
			s.sendTo(other, model.GameMsg("OPPONENT_HIT %s", cmd.Target))
		}
	case model.FireMiss:
		s.sendTo(idx, model.GameMsg("RESULT MISS"))
		if other := s.otherIdx(idx); other >= 0 {
			s.sendTo(other, model.GameMsg("OPPONENT_MISS %s", cmd.Target))
		}
	}

	if defender.AllSunk() {
		s.sendTo(idx, model.GameMsg("GRID\n%s", defender.RenderTracking()))
		s.sendTo(idx, model.GameMsg("WIN"))
		if other := s.otherIdx(idx); other >= 0 {
			s.sendTo(other, model.GameMsg("LOSE"))
		}
		s.finish(model.OutcomeAllSunk)
		return
	}

	if s.mode == model.ModeDuo {
		s.turnIdx = s.otherIdx(idx)
		s.sendBoards()
		s.sendTurnPrompts()
	} else {
		s.sendTo(idx, model.GameMsg("GRID\n%s", defender.RenderTracking()))
		s.sendTo(idx, model.GameMsg("READY"))
	}
	s.armTurnTimer()
	s.saveSnapshot(s.deps.Clock.Now().Add(s.cfg.ActiveSnapshotTTL))
}

// defenderBoard is the board the seat fires at
func (s *Session) defenderBoard(idx int) *model.Board {
	if s.mode == model.ModeSolo {
		return s.serverBoard
	}
	return s.seats[s.otherIdx(idx)].board
}

// otherIdx returns the opponent's seat index, or -1 in solo mode
func (s *Session) otherIdx(idx int) int {
	if s.mode == model.ModeSolo {
		return -1
	}
	return 1 - idx
}

func (s *Session) sendBoards() {
	for i, st := range s.seats {
		s.sendTo(i, model.GameMsg("OWN_BOARD\n%s", st.board.RenderOwn()))
		s.sendTo(i, model.GameMsg("GRID\n%s", s.defenderBoard(i).RenderTracking()))
	}
}

func (s *Session) sendTurnPrompts() {
	s.sendTo(s.turnIdx, model.GameMsg("READY"))
	if other := s.otherIdx(s.turnIdx); other >= 0 {
		s.sendTo(other, model.GameMsg("WAITING"))
	}
}

func (s *Session) handleDisconnect(username string) {
	idx := s.seatOf(username)
	if idx < 0 || s.state == model.StateFinished {
		return
	}

	s.seats[idx].sink = nil
	s.logger.Info("player disconnected", slog.String("username", username), slog.String("state", string(s.state)))

	if s.state != model.StatePausedDisconnect {
		s.resumeState = s.state
		s.state = model.StatePausedDisconnect
		s.armReconnectTimer()
		if other := s.otherIdx(idx); other >= 0 {
			s.sendTo(other, model.InfoMsg("opponent disconnected, waiting up to %s for them to return", s.cfg.ReconnectWindow))
		}
	}

	s.saveSnapshot(s.deps.Clock.Now().Add(s.cfg.ReconnectWindow))
}

func (s *Session) handleReconnect(e ReconnectEvent) {
	idx := s.seatOf(e.Username)
	if idx < 0 {
		return
	}
	if s.state != model.StatePausedDisconnect || s.seats[idx].sink != nil {
		s.sendTo(idx, model.InfoMsg("nothing to resume"))
		return
	}

	s.seats[idx].sink = e.Sink
	s.logger.Info("player reconnected", slog.String("username", e.Username))

	for _, st := range s.seats {
		if st.sink == nil {
			// the other player is still gone; keep waiting
			s.sendTo(idx, model.InfoMsg("welcome back, still waiting for opponent"))
			return
		}
	}

	s.state = s.resumeState
	s.cancelTimer()
	if err := s.deps.Store.Delete(context.Background(), s.snapshotKey()); err != nil {
		s.logger.Warn("could not delete consumed snapshot", slog.String("error", err.Error()))
	}

	if other := s.otherIdx(idx); other >= 0 {
		s.sendTo(other, model.InfoMsg("opponent reconnected"))
	}
	s.sendTo(idx, model.InfoMsg("session resumed"))
	s.announceResume()
}

// announceResume re-sends the prompts appropriate to the restored phase.
// The turn timer restarts with a fresh full window on resume and the
// players are told so.
func (s *Session) announceResume() {
	switch s.state {
	case model.StatePlacement:
		for i, st := range s.seats {
			if !st.board.FleetComplete() {
				s.sendTo(i, model.GameMsg("PLACE_SHIPS"))
			} else {
				s.sendTo(i, model.GameMsg("WAITING"))
			}
		}
	case model.StateActive:
		s.sendBoards()
		s.sendTurnPrompts()
		s.sendTo(s.turnIdx, model.InfoMsg("turn timer restarted, you have %s to move", s.cfg.TurnTimeout))
		s.armTurnTimer()
	}
}

func (s *Session) handleTimer(e TimerExpiredEvent) {
	if e.Generation != s.timerGen || e.Kind != s.timerKind {
		// stale timer from a cancelled arming; ignore
		return
	}

	switch e.Kind {
	case TimerTurn:
		if s.state != model.StateActive {
			return
		}
		idle := s.turnIdx
		s.logger.Info("turn timer expired", slog.String("username", s.seats[idle].username))
		s.sendTo(idle, model.GameMsg("TIMEOUT"))
		s.sendTo(idle, model.GameMsg("LOSE"))
		if other := s.otherIdx(idle); other >= 0 {
			s.sendTo(other, model.InfoMsg("opponent timed out"))
			s.sendTo(other, model.GameMsg("WIN"))
		}
		s.finish(model.OutcomeTurnTimeout)

	case TimerReconnect:
		if s.state != model.StatePausedDisconnect {
			return
		}
		s.logger.Info("reconnect window expired")
		anyConnected := false
		for i, st := range s.seats {
			if st.sink != nil {
				anyConnected = true
				s.sendTo(i, model.InfoMsg("opponent did not return in time"))
				s.sendTo(i, model.GameMsg("WIN"))
			}
		}
		if anyConnected {
			s.finish(model.OutcomeReconnectTimeout)
		} else {
			s.finish(model.OutcomeAbandoned)
		}
	}
}

// finish moves the session to its terminal state. The run loop closes
// done and invokes OnFinish right after the current event is handled.
func (s *Session) finish(outcome model.Outcome) {
	if s.state == model.StateFinished {
		return
	}
	s.state = model.StateFinished
	s.cancelTimer()
	if err := s.deps.Store.Delete(context.Background(), s.snapshotKey()); err != nil {
		s.logger.Warn("could not delete snapshot", slog.String("error", err.Error()))
	}
	s.logger.Info("session finished", slog.String("outcome", string(outcome)))
}

// Timers. Each arming bumps the generation; a timer that fires after being
// cancelled posts a stale generation and the loop discards it.

func (s *Session) armTurnTimer() {
	s.armTimer(TimerTurn, s.cfg.TurnTimeout)
}

func (s *Session) armReconnectTimer() {
	s.armTimer(TimerReconnect, s.cfg.ReconnectWindow)
}

func (s *Session) armTimer(kind TimerKind, d time.Duration) {
	s.cancelTimer()
	s.timerGen++
	s.timerKind = kind
	gen := s.timerGen
	s.timer = time.AfterFunc(d, func() {
		s.Post(TimerExpiredEvent{Kind: kind, Generation: gen})
	})
}

func (s *Session) cancelTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Session) snapshotKey() string {
	return model.SnapshotKey(s.usernames...)
}

func (s *Session) saveSnapshot(expiresAt time.Time) {
	state := s.state
	if state == model.StatePausedDisconnect {
		state = s.resumeState
	}

	snapshot := &model.SessionSnapshot{
		ID:        s.id,
		Mode:      s.mode,
		State:     state,
		TurnOwner: s.seats[s.turnIdx].username,
		SavedAt:   s.deps.Clock.Now(),
		ExpiresAt: expiresAt,
	}
	for _, st := range s.seats {
		snapshot.Players = append(snapshot.Players, model.PlayerSnapshot{
			Username: st.username,
			Board:    st.board,
		})
	}
	snapshot.ServerBoard = s.serverBoard

	if err := s.deps.Store.Save(context.Background(), snapshot); err != nil {
		s.logger.Error("could not save snapshot",
			slog.String("key", snapshot.Key()),
			slog.String("error", err.Error()),
		)
	}
}

// String implements fmt.Stringer for logs
func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s)", s.id, s.mode)
}
