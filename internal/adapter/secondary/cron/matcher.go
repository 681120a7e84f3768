// Package cron runs time-tagged tasks from a task list of the form
//
//	WD:H:M:S!module function args;WD:H:M:S!module function args
//
// Each field is "*", a number or an inclusive "a-b" range. Weekdays count
// from Monday = 0.
package cron

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
)

// MaxWindow bounds the look-back window in seconds.
const MaxWindow = 3600

// Matcher implements domain.CronMatcher on top of a DispatchExecutor.
type Matcher struct {
	executor domain.DispatchExecutor
	now      func() time.Time
	log      zerolog.Logger
}

var _ domain.CronMatcher = (*Matcher)(nil)

// Option customizes a Matcher.
type Option func(*Matcher)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) { m.now = now }
}

// NewMatcher creates a matcher dispatching due tasks through executor.
func NewMatcher(executor domain.DispatchExecutor, opts ...Option) *Matcher {
	m := &Matcher{
		executor: executor,
		now:      time.Now,
		log:      logging.For("cron"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Task is one parsed entry of a task list.
type Task struct {
	Weekday field
	Hour    field
	Minute  field
	Second  field
	Command []string
}

type field struct {
	wild     bool
	from, to int
}

func (f field) match(v int) bool {
	return f.wild || (v >= f.from && v <= f.to)
}

// Parse splits a task list into tasks. Malformed entries are reported in the
// returned error while the valid ones are still returned.
func Parse(tasks string) ([]Task, error) {
	var (
		out  []Task
		errs []error
	)
	for _, raw := range strings.Split(tasks, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		t, err := parseTask(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, t)
	}
	return out, errors.Join(errs...)
}

var fieldLimits = [4]struct {
	name string
	max  int
}{{"weekday", 6}, {"hour", 23}, {"minute", 59}, {"second", 59}}

func parseTask(raw string) (Task, error) {
	pattern, command, ok := strings.Cut(raw, "!")
	if !ok {
		return Task{}, fmt.Errorf("task %q: missing '!' separator", raw)
	}
	cmd := strings.Fields(command)
	if len(cmd) == 0 {
		return Task{}, fmt.Errorf("task %q: empty command", raw)
	}
	parts := strings.Split(strings.TrimSpace(pattern), ":")
	if len(parts) != 4 {
		return Task{}, fmt.Errorf("task %q: want WD:H:M:S, got %d fields", raw, len(parts))
	}

	var fs [4]field
	for i, p := range parts {
		f, err := parseField(strings.TrimSpace(p), fieldLimits[i].max)
		if err != nil {
			return Task{}, fmt.Errorf("task %q: %s: %w", raw, fieldLimits[i].name, err)
		}
		fs[i] = f
	}
	return Task{Weekday: fs[0], Hour: fs[1], Minute: fs[2], Second: fs[3], Command: cmd}, nil
}

func parseField(s string, limit int) (field, error) {
	if s == "*" {
		return field{wild: true}, nil
	}
	lo, hi, isRange := strings.Cut(s, "-")
	from, err := strconv.Atoi(lo)
	if err != nil {
		return field{}, fmt.Errorf("invalid value %q", s)
	}
	to := from
	if isRange {
		if to, err = strconv.Atoi(hi); err != nil {
			return field{}, fmt.Errorf("invalid range %q", s)
		}
	}
	if from < 0 || to > limit || from > to {
		return field{}, fmt.Errorf("%q out of range 0..%d", s, limit)
	}
	return field{from: from, to: to}, nil
}

// Due reports whether t matches any second in (now-window, now].
func (t Task) Due(now time.Time, window int) bool {
	if window < 1 {
		window = 1
	}
	if window > MaxWindow {
		window = MaxWindow
	}
	for i := 0; i < window; i++ {
		at := now.Add(-time.Duration(i) * time.Second)
		wd := (int(at.Weekday()) + 6) % 7
		if t.Weekday.match(wd) && t.Hour.match(at.Hour()) && t.Minute.match(at.Minute()) && t.Second.match(at.Second()) {
			return true
		}
	}
	return false
}

// Match runs every task of tasks that is due within the last periodSeconds.
// One failing task does not stop the others.
func (m *Matcher) Match(tasks string, periodSeconds int) error {
	parsed, err := Parse(tasks)
	errs := []error{err}

	now := m.now()
	for _, t := range parsed {
		if !t.Due(now, periodSeconds) {
			continue
		}
		if err := m.run(t.Command); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Matcher) run(cmd []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cron task %v: %w", cmd, domain.Recovered(r))
		}
	}()

	out := domain.ReplierFunc(func(msg string) {
		m.log.Debug().Strs("task", cmd).Msg(msg)
	})
	ok, err := m.executor.Execute(cmd, out)
	if err != nil {
		return fmt.Errorf("cron task %v: %w", cmd, err)
	}
	if !ok {
		return fmt.Errorf("cron task %v: execution failed", cmd)
	}
	m.log.Debug().Strs("task", cmd).Msg("cron task done")
	return nil
}
