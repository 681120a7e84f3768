package usecase

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
)

// AbsentValue is replied when a configuration key has no value.
const AbsentValue = "None"

// ShellUseCase is the primary port for the device command shell.
type ShellUseCase interface {
	// Handle interprets one input line. The result is diagnostic only:
	// true means healthy, false faulty; the session continues either way.
	Handle(line string, session *domain.SessionState, out domain.Replier) bool
}

// ShellInterpreter routes command lines to the configuration gateway or the
// capability dispatcher, depending on the session state.
type ShellInterpreter struct {
	config   domain.ConfigGateway
	executor domain.DispatchExecutor
	catalog  domain.ModuleCatalog
	guard    *MemoryGuard
	log      zerolog.Logger
}

var _ ShellUseCase = (*ShellInterpreter)(nil)

// NewShellInterpreter creates the interpreter. catalog may be nil.
func NewShellInterpreter(
	config domain.ConfigGateway,
	executor domain.DispatchExecutor,
	catalog domain.ModuleCatalog,
	guard *MemoryGuard,
) *ShellInterpreter {
	return &ShellInterpreter{
		config:   config,
		executor: executor,
		catalog:  catalog,
		guard:    guard,
		log:      logging.For("shell"),
	}
}

// Handle implements ShellUseCase. Panics are reported as runtime errors.
func (s *ShellInterpreter) Handle(line string, session *domain.SessionState, out domain.Replier) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("line", line).Msg("shell runtime error")
			out.Reply(fmt.Sprintf("[SHELL] Runtime error: %v", r))
			ok = false
		}
	}()
	return s.handle(line, session, out)
}

func (s *ShellInterpreter) handle(line string, session *domain.SessionState, out domain.Replier) bool {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return true
	}

	switch {
	case strings.HasPrefix(tokens[0], "conf"):
		session.EnterConfigure()
		return true
	case strings.HasPrefix(tokens[0], "noconf"):
		session.LeaveConfigure()
		return true
	}

	if tokens[0] == "help" {
		s.help(out)
		return true
	}

	if session.ConfigureMode {
		return s.configure(tokens, out)
	}

	if len(tokens) > 1 {
		return s.dispatch(tokens, out)
	}

	out.Reply(fmt.Sprintf("[SHELL] unknown command: %s (type help)", tokens[0]))
	return false
}

func (s *ShellInterpreter) dispatch(tokens []string, out domain.Replier) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out.Reply(fmt.Sprintf("[ERROR] dispatch internal error: %v", domain.Recovered(r)))
			ok = false
		}
	}()

	done, err := s.executor.Execute(tokens, out)
	if err != nil {
		s.log.Warn().Err(err).Strs("args", tokens).Msg("dispatch failed")
		out.Reply(fmt.Sprintf("[ERROR] dispatch internal error: %v", err))
		return false
	}
	return done
}

// configure handles get/set/dump. Write problems are user-visible text, so
// it always reports healthy.
func (s *ShellInterpreter) configure(tokens []string, out domain.Replier) bool {
	if len(tokens) == 1 {
		if tokens[0] == "dump" {
			for _, e := range s.config.Dump() {
				out.Reply(fmt.Sprintf("  %-10s:        %v", e.Key, e.Value))
			}
			return true
		}
		v, found := s.config.Get(tokens[0])
		if !found || v == nil {
			out.Reply(AbsentValue)
			return true
		}
		out.Reply(fmt.Sprint(v))
		return true
	}

	key := tokens[0]
	value := strings.Join(tokens[1:], " ")

	if strings.Contains(key, "irq") && strings.EqualFold(tokens[1], "true") && s.guard != nil {
		res := s.guard.Check(key)
		if !res.OK {
			out.Reply(fmt.Sprintf("Skip ... feature requires %d byte, available %d byte (short by %d byte)",
				res.Required, res.Available, res.Shortfall()))
			return true
		}
	}

	saved, err := s.config.Put(key, value, true)
	if err != nil {
		out.Reply(fmt.Sprintf("node_config write error: %v", err))
		saved = false
	}
	if saved {
		out.Reply("Saved")
		return true
	}
	if v, found := s.config.Get(key); !found || v == nil {
		out.Reply("Invalid key")
	} else {
		out.Reply("Failed to save")
	}
	return true
}
