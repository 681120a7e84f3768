package socket

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"micros-shell/internal/config"
	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
	"micros-shell/internal/usecase"
)

// HardClose tells the client the session is over.
const HardClose = "\x00"

// LED is the status indicator toggled per received command.
type LED interface {
	Toggle()
}

// Deps are the collaborators of the shell server.
type Deps struct {
	Shell    usecase.ShellUseCase
	Config   domain.ConfigGateway
	LED      LED
	Rebooter domain.Rebooter
}

// Server is a primary adapter that exposes the device shell over TCP.
// Sessions are served one at a time; further clients wait in the backlog.
type Server struct {
	deps Deps
	addr string
	idle time.Duration
	log  zerolog.Logger

	mu     sync.Mutex
	ln     net.Listener
	active net.Conn
	done   chan struct{}
}

// NewServer creates the shell server bound to addr. A zero idle timeout
// keeps idle sessions open forever.
func NewServer(deps Deps, addr string, idle time.Duration) *Server {
	return &Server{
		deps: deps,
		addr: addr,
		idle: idle,
		log:  logging.For("socket"),
		done: make(chan struct{}),
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start listens when needed and serves sessions until Shutdown.
func (s *Server) Start() error {
	if s.Addr() == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	defer close(s.done)

	s.log.Info().Str("addr", s.Addr().String()).Msg("shell server listening")
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.serve(conn)
	}
}

// Shutdown closes the listener and the active session, then waits for the
// serve loop to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ln, active := s.ln, s.active
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	_ = ln.Close()
	if active != nil {
		_ = active.Close()
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) serve(conn net.Conn) {
	s.mu.Lock()
	s.active = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
		_ = conn.Close()
	}()

	log := s.log.With().Str("remote", conn.RemoteAddr().String()).Logger()
	log.Info().Msg("session opened")

	sess := &session{server: s, conn: conn, state: &domain.SessionState{}, log: log}
	reboot, err := sess.run()
	switch {
	case err == nil:
		log.Info().Msg("session closed")
	case isIdle(err):
		log.Info().Dur("idle", s.idle).Msg("session idle timeout")
	default:
		log.Warn().Err(err).Msg("session aborted")
	}
	if reboot && s.deps.Rebooter != nil {
		s.deps.Rebooter.Reboot()
	}
}

type session struct {
	server *Server
	conn   net.Conn
	state  *domain.SessionState
	log    zerolog.Logger
	err    error
}

func (ss *session) prompt() string {
	fid := domain.NotApplicable
	if v, ok := ss.server.deps.Config.Get(domain.KeyFriendlyID); ok {
		fid = config.String(v)
	}
	return ss.state.PromptPrefix + fid + " $ "
}

func (ss *session) write(s string) {
	if ss.err != nil {
		return
	}
	_, ss.err = io.WriteString(ss.conn, s)
}

// Reply writes one message line prefixed with the current prompt.
func (ss *session) Reply(msg string) {
	ss.write(ss.prompt() + msg + "\n")
}

func (ss *session) configValue(key string) string {
	v, _ := ss.server.deps.Config.Get(key)
	return config.String(v)
}

// run reads command lines until exit, reboot or a transport error.
func (ss *session) run() (reboot bool, err error) {
	r := bufio.NewReader(ss.conn)
	ss.write(ss.prompt())
	for ss.err == nil {
		if ss.server.idle > 0 {
			_ = ss.conn.SetReadDeadline(time.Now().Add(ss.server.idle))
		}
		line, readErr := r.ReadString('\n')
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return false, nil
			}
			return false, readErr
		}
		line = strings.TrimSpace(line)
		if ss.server.deps.LED != nil {
			ss.server.deps.LED.Toggle()
		}
		ss.log.Debug().Str("cmd", line).Msg("command")

		switch line {
		case domain.GreetingCommand:
			ss.Reply(domain.FormatGreeting(ss.configValue(domain.KeyFriendlyID), ss.configValue(domain.KeyUniqueID)))
		case "version":
			ss.Reply(ss.configValue(domain.KeyVersion))
		case "exit":
			ss.write(HardClose)
			return false, ss.err
		case "reboot":
			ss.Reply("Reboot micrOS system.")
			ss.write(HardClose)
			return true, ss.err
		case "webrepl":
			ss.Reply("WebREPL is not available in this build")
		default:
			ss.server.deps.Shell.Handle(line, ss.state, ss)
		}
		ss.write(ss.prompt())
	}
	return false, ss.err
}

func isIdle(err error) bool {
	return errors.Is(err, os.ErrDeadlineExceeded)
}
