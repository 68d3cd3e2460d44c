package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/portside/battleship/internal/model"
	"github.com/portside/battleship/internal/protocol"
	"github.com/portside/battleship/internal/services/session"
)

// Conn is one client connection: a blocking read loop decoding frames into
// commands, and a write loop draining a buffered send channel. Sending
// never blocks the session loop; a full buffer drops the message.
type Conn struct {
	server *Server
	sock   net.Conn
	logger *slog.Logger

	// independent codecs per direction; each is used by exactly one
	// goroutine
	enc *protocol.Codec
	dec *protocol.Codec

	send   chan model.ServerMessage
	closed chan struct{}
	once   sync.Once

	// fields below are only touched by the read loop
	username string
	sess     *session.Session
	inLobby  bool
	strikes  int
}

var _ session.MessageSink = (*Conn)(nil)

func newConn(server *Server, sock net.Conn) (*Conn, error) {
	enc, err := protocol.NewCodec(server.cfg.Keys)
	if err != nil {
		return nil, err
	}
	dec, err := protocol.NewCodec(server.cfg.Keys)
	if err != nil {
		return nil, err
	}

	return &Conn{
		server: server,
		sock:   sock,
		logger: server.logger.With(slog.String("remote", sock.RemoteAddr().String())),
		enc:    enc,
		dec:    dec,
		send:   make(chan model.ServerMessage, server.cfg.SendBuffer),
		closed: make(chan struct{}),
	}, nil
}

// Send queues an outbound message. It implements session.MessageSink and
// must not block; a slow client loses messages rather than stalling a
// session.
func (c *Conn) Send(msg model.ServerMessage) {
	select {
	case c.send <- msg:
	case <-c.closed:
	default:
		c.logger.Warn("send buffer full, dropping message")
	}
}

// Close shuts the socket down; both loops exit
func (c *Conn) Close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.sock.Close()
	})
}

func (c *Conn) writeLoop() {
	for {
		select {
		case msg := <-c.send:
			frame, err := c.enc.Encode(msg.Type, []byte(msg.Text))
			if err != nil {
				c.logger.Error("encode failed", slog.String("error", err.Error()))
				continue
			}
			if _, err := c.sock.Write(frame); err != nil {
				c.logger.Info("write failed, closing", slog.String("error", err.Error()))
				c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *Conn) readLoop() {
	defer c.teardown()

	for {
		frame, err := protocol.ReadFrame(c.sock)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.logger.Info("read failed", slog.String("error", err.Error()))
			}
			return
		}

		pktType, payload, err := c.dec.Decode(frame)
		if err != nil {
			switch {
			case errors.Is(err, model.ErrIntegrity):
				// drop silently; repeated corruption counts as abuse
				c.strikes++
				c.logger.Warn("checksum mismatch", slog.Int("strikes", c.strikes))
				if c.strikes >= c.server.cfg.IntegrityStrikeLimit {
					c.logger.Warn("integrity strike limit reached, closing")
					return
				}
				continue
			default:
				// malformed or replayed: corrupted or hostile peer
				c.logger.Warn("protocol violation, closing", slog.String("error", err.Error()))
				return
			}
		}

		cmd, err := model.ParseCommand(pktType, string(payload))
		if err != nil {
			c.Send(model.InfoMsg("%s", err.Error()))
			continue
		}

		c.dispatch(cmd)
	}
}

// dispatch routes a decoded command. The first game command has to be join;
// afterwards everything flows to the bound session or the lobby.
func (c *Conn) dispatch(cmd model.Command) {
	if c.username == "" {
		join, ok := cmd.(model.JoinCommand)
		if !ok {
			c.Send(model.InfoMsg("%s", model.ErrUsernameRequired.Error()))
			return
		}
		c.handleJoin(join)
		return
	}

	if _, ok := cmd.(model.JoinCommand); ok {
		c.Send(model.InfoMsg("already joined as %s", c.username))
		return
	}

	// adopt the session if the lobby paired us since the last command
	if c.sess == nil {
		c.sess = c.server.registry.SessionFor(c.username)
		if c.sess != nil {
			c.inLobby = false
		}
	}

	if c.sess != nil {
		c.sess.Post(session.CommandEvent{Username: c.username, Command: cmd})
		return
	}

	if c.inLobby {
		switch lc := cmd.(type) {
		case model.ChatCommand:
			c.server.lobby.Chat(c.username, lc.Text)
		case model.QuitCommand:
			c.server.lobby.Leave(c.username)
			c.Send(model.InfoMsg("left the lobby"))
			c.Close()
		default:
			c.Send(model.InfoMsg("waiting for an opponent"))
		}
		return
	}

	c.Send(model.InfoMsg("no active session"))
}

func (c *Conn) handleJoin(join model.JoinCommand) {
	if err := c.server.registry.BindConn(join.Username, c); err != nil {
		c.Send(model.InfoMsg("%s", err.Error()))
		c.Close()
		return
	}
	c.username = join.Username
	c.logger = c.logger.With(slog.String("username", c.username))

	// a live session for this username means we are a reconnect
	if sess := c.server.registry.SessionFor(c.username); sess != nil {
		c.sess = sess
		sess.Post(session.ReconnectEvent{Username: c.username, Sink: c})
		return
	}

	// a stored snapshot means the process restarted under us; resume it
	snapshot, err := c.server.store.Load(context.Background(), c.username)
	if err == nil {
		sess, err := session.Restore(snapshot, c.username, c, c.server.cfg.Session, c.server.sessionDeps())
		if err == nil {
			c.sess = sess
			c.server.registry.BindSession(sess)
			return
		}
		c.logger.Warn("snapshot restore failed, starting fresh", slog.String("error", err.Error()))
	} else if !errors.Is(err, model.ErrSnapshotNotFound) {
		c.logger.Error("snapshot lookup failed", slog.String("error", err.Error()))
	}

	switch join.Mode {
	case model.ModeSolo:
		sess, err := session.NewSolo(c.username, c, c.server.cfg.Session, c.server.sessionDeps())
		if err != nil {
			c.logger.Error("could not start solo session", slog.String("error", err.Error()))
			c.Send(model.InfoMsg("could not start game"))
			c.Close()
			return
		}
		c.sess = sess
		c.server.registry.BindSession(sess)
	case model.ModeDuo:
		if sess := c.server.lobby.Join(c.username, c); sess != nil {
			c.sess = sess
		} else {
			c.inLobby = true
		}
	}
}

// teardown runs when the read loop exits for any reason: route the
// disconnect and release the username binding. The session itself survives
// in its paused state.
func (c *Conn) teardown() {
	c.Close()
	if c.username == "" {
		return
	}

	if sess := c.server.registry.SessionFor(c.username); sess != nil {
		sess.Post(session.DisconnectEvent{Username: c.username})
	} else if c.inLobby {
		c.server.lobby.Leave(c.username)
	}

	c.server.registry.ReleaseConn(c.username, c)
	c.logger.Info("connection closed")
}
