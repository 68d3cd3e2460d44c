// Package server accepts client sockets, binds them to usernames, and
// routes decoded commands to the lobby or the owning session.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/portside/battleship/internal/dependencies/clock"
	"github.com/portside/battleship/internal/dependencies/random"
	"github.com/portside/battleship/internal/protocol"
	"github.com/portside/battleship/internal/services/lobby"
	"github.com/portside/battleship/internal/services/session"
	"github.com/portside/battleship/internal/storage"
)

// Config holds the server's listen and protocol settings
type Config struct {
	// Addr is the TCP listen address for game traffic
	Addr string

	// AdminAddr serves the HTTP admin endpoint; empty disables it
	AdminAddr string

	// Keys provisions the symmetric key shared with clients
	Keys protocol.KeyProvider

	// Session configures every session this server creates
	Session session.Config

	// IntegrityStrikeLimit closes a connection after this many dropped
	// corrupt packets
	IntegrityStrikeLimit int

	// SendBuffer is the per-connection outbound queue depth
	SendBuffer int
}

// DefaultConfig returns the standard server settings
func DefaultConfig() Config {
	return Config{
		Addr:                 "127.0.0.1:5000",
		Keys:                 protocol.PassphraseKey("battleship-dev"),
		Session:              session.DefaultConfig(),
		IntegrityStrikeLimit: 10,
		SendBuffer:           64,
	}
}

// Server is the connection manager
type Server struct {
	cfg      Config
	logger   *slog.Logger
	store    storage.SnapshotStore
	clock    clock.Clock
	random   random.Random
	lobby    *lobby.Lobby
	registry *Registry

	ln    net.Listener
	admin *http.Server
	done  chan struct{}
}

// New wires a server around its collaborators
func New(cfg Config, store storage.SnapshotStore, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		clock:    clk,
		random:   rnd,
		registry: NewRegistry(),
		done:     make(chan struct{}),
	}
	s.lobby = lobby.New(s.newDuoSession, logger)
	return s
}

// sessionDeps builds the collaborator set injected into every session
func (s *Server) sessionDeps() session.Deps {
	return session.Deps{
		Store:    s.store,
		Clock:    s.clock,
		Random:   s.random,
		Logger:   s.logger,
		OnFinish: s.registry.ReleaseSession,
	}
}

// newDuoSession is the lobby's pairing factory
func (s *Server) newDuoSession(username1 string, sink1 session.MessageSink, username2 string, sink2 session.MessageSink) *session.Session {
	sess := session.NewDuo(username1, sink1, username2, sink2, s.cfg.Session, s.sessionDeps())
	s.registry.BindSession(sess)
	return sess
}

// Start begins accepting connections. It returns once the listener is
// bound; serving continues in the background until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))

	go s.acceptLoop()

	if s.cfg.AdminAddr != "" {
		s.admin = &http.Server{
			Addr:              s.cfg.AdminAddr,
			Handler:           newAdminRouter(s.registry, s.lobby, s.logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			s.logger.Info("admin endpoint listening", slog.String("addr", s.cfg.AdminAddr))
			if err := s.admin.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				s.logger.Error("admin endpoint failed", slog.String("error", err.Error()))
			}
		}()
	}

	return nil
}

// Addr returns the bound listen address
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.cfg.Addr
	}
	return s.ln.Addr().String()
}

func (s *Server) acceptLoop() {
	for {
		sock, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			s.logger.Warn("accept failed", slog.String("error", err.Error()))
			continue
		}

		conn, err := newConn(s, sock)
		if err != nil {
			s.logger.Error("could not set up connection", slog.String("error", err.Error()))
			_ = sock.Close()
			continue
		}

		s.logger.Info("client connected", slog.String("remote", sock.RemoteAddr().String()))
		go conn.readLoop()
		go conn.writeLoop()
	}
}

// Shutdown stops accepting, abandons live sessions and closes every
// connection
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)
	if s.ln != nil {
		_ = s.ln.Close()
	}

	for _, sess := range s.registry.Sessions() {
		sess.Shutdown()
	}
	for _, conn := range s.registry.Conns() {
		conn.Close()
	}

	if s.admin != nil {
		return s.admin.Shutdown(ctx)
	}
	return nil
}
