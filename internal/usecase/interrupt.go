package usecase

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"micros-shell/internal/config"
	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
)

// EventPinRole is the logical pin the event channel listens on.
const EventPinRole = "pwm_4"

// InterruptDrivers bundles the hardware ports the scheduler arms.
type InterruptDrivers struct {
	Timer  domain.TimerDriver
	Pins   domain.PinDriver
	Lookup domain.PinResolver
	Buffer domain.EmergencyBuffer
}

// ChannelView is the read-only handle interrupt callbacks receive. It always
// yields the snapshot stored by the last arm call.
type ChannelView struct {
	state *atomic.Pointer[domain.InterruptChannelState]
}

// Snapshot returns a copy of the current channel state.
func (v ChannelView) Snapshot() domain.InterruptChannelState {
	if st := v.state.Load(); st != nil {
		return *st
	}
	return domain.InterruptChannelState{}
}

// InterruptScheduler owns the timer and event channels. Arm calls run in the
// foreground and are the only writers of the channel snapshots; hardware
// callbacks read them through a ChannelView and never block.
type InterruptScheduler struct {
	config   domain.ConfigGateway
	executor domain.DispatchExecutor
	cron     domain.CronMatcher
	drivers  InterruptDrivers
	log      zerolog.Logger

	mu        sync.Mutex
	timer     atomic.Pointer[domain.InterruptChannelState]
	event     atomic.Pointer[domain.InterruptChannelState]
	stopTimer func()
	stopEvent func()
}

// NewInterruptScheduler creates a scheduler with both channels disabled.
func NewInterruptScheduler(
	cfg domain.ConfigGateway,
	executor domain.DispatchExecutor,
	cron domain.CronMatcher,
	drivers InterruptDrivers,
) *InterruptScheduler {
	s := &InterruptScheduler{
		config:   cfg,
		executor: executor,
		cron:     cron,
		drivers:  drivers,
		log:      logging.For("irq"),
	}
	s.timer.Store(&domain.InterruptChannelState{Channel: domain.ChannelTimer})
	s.event.Store(&domain.InterruptChannelState{Channel: domain.ChannelEvent})
	return s
}

// Init reserves the emergency buffer and arms both channels, in that order.
func (s *InterruptScheduler) Init() error {
	if err := s.ReserveEmergencyBuffer(); err != nil {
		return err
	}
	_, timerErr := s.ArmTimer()
	_, eventErr := s.ArmEvent()
	return errors.Join(timerErr, eventErr)
}

// ReserveEmergencyBuffer sizes the interrupt fault buffer from irqmembuf when
// either channel is enabled.
func (s *InterruptScheduler) ReserveEmergencyBuffer() error {
	if !s.flag(domain.KeyTimerIRQ) && !s.flag(domain.KeyEventIRQ) {
		s.log.Info().Msg("interrupts disabled, skip emergency buffer")
		return nil
	}
	size := s.number(domain.KeyIRQBuffer)
	if err := s.drivers.Buffer.Reserve(size); err != nil {
		return fmt.Errorf("reserve emergency buffer: %w", err)
	}
	s.log.Info().Int("bytes", size).Msg("interrupts enabled, emergency buffer reserved")
	return nil
}

// TimerState returns the current timer channel snapshot.
func (s *InterruptScheduler) TimerState() domain.InterruptChannelState {
	return ChannelView{state: &s.timer}.Snapshot()
}

// EventState returns the current event channel snapshot.
func (s *InterruptScheduler) EventState() domain.InterruptChannelState {
	return ChannelView{state: &s.event}.Snapshot()
}

// ArmTimer reads the timer flags and registers the matching periodic callback.
// A previously armed callback is stopped first.
func (s *InterruptScheduler) ArmTimer() (domain.InterruptChannelState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := domain.PlanTimer(domain.TimerSettings{
		Enabled:        s.flag(domain.KeyTimerIRQ),
		PeriodMS:       s.number(domain.KeyTimerPeriod),
		SimpleCallback: s.text(domain.KeyTimerCallback),
		CronEnabled:    s.flag(domain.KeyCron),
		CronTasks:      s.text(domain.KeyCronTasks),
	})
	s.log.Info().
		Bool("timirq", plan.Enabled).
		Dur("period", plan.Period).
		Str("mode", plan.Mode.String()).
		Msg("timer irq setup")

	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
	s.timer.Store(&plan)

	view := ChannelView{state: &s.timer}
	var fire func()
	switch plan.Mode {
	case domain.ModeScheduled:
		fire = scheduledHandler(view, s.cron, s.log)
	case domain.ModeSimple:
		fire = dispatchHandler(view, s.executor, s.log)
	default:
		s.log.Info().Str("reason", plan.Reason).Msg("timer irq not armed")
		return plan, nil
	}

	stop, err := s.drivers.Timer.StartPeriodic(plan.Period, fire)
	if err != nil {
		failed := disarmed(plan, err)
		s.timer.Store(&failed)
		return failed, fmt.Errorf("arm timer: %w", err)
	}
	s.stopTimer = stop
	return plan, nil
}

// ArmEvent reads the event flags and registers the rising-edge callback on
// the event pin.
func (s *InterruptScheduler) ArmEvent() (domain.InterruptChannelState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := domain.PlanEvent(domain.EventSettings{
		Enabled:  s.flag(domain.KeyEventIRQ),
		Callback: s.text(domain.KeyEventCallback),
	})

	if s.stopEvent != nil {
		s.stopEvent()
		s.stopEvent = nil
	}

	if plan.Mode != domain.ModeArmed {
		s.event.Store(&plan)
		s.log.Info().Bool("extirq", plan.Enabled).Str("reason", plan.Reason).Msg("event irq not armed")
		return plan, nil
	}

	pin, err := s.drivers.Lookup.Lookup(EventPinRole)
	if err != nil {
		failed := disarmed(plan, err)
		s.event.Store(&failed)
		return failed, fmt.Errorf("resolve event pin: %w", err)
	}
	plan.Pin = pin
	s.event.Store(&plan)

	stop, err := s.drivers.Pins.WatchRising(pin, dispatchHandler(ChannelView{state: &s.event}, s.executor, s.log))
	if err != nil {
		failed := disarmed(plan, err)
		s.event.Store(&failed)
		return failed, fmt.Errorf("arm event pin %d: %w", pin, err)
	}
	s.stopEvent = stop
	s.log.Info().Int("pin", pin).Str("cbf", plan.CallbackSpec).Msg("event irq enabled")
	return plan, nil
}

// Stop releases both hardware callbacks.
func (s *InterruptScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
	if s.stopEvent != nil {
		s.stopEvent()
		s.stopEvent = nil
	}
}

func (s *InterruptScheduler) flag(key string) bool {
	v, _ := s.config.Get(key)
	return config.Bool(v)
}

func (s *InterruptScheduler) number(key string) int {
	v, _ := s.config.Get(key)
	return config.Int(v)
}

func (s *InterruptScheduler) text(key string) string {
	v, ok := s.config.Get(key)
	if !ok {
		return domain.NotApplicable
	}
	return config.String(v)
}

func disarmed(plan domain.InterruptChannelState, err error) domain.InterruptChannelState {
	plan.Mode = domain.ModeDisabled
	plan.Reason = err.Error()
	return plan
}

// dispatchHandler runs the cached command line. Failures are logged and the
// channel keeps firing.
func dispatchHandler(view ChannelView, executor domain.DispatchExecutor, log zerolog.Logger) func() {
	return func() {
		st := view.Snapshot()
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Err(fmt.Errorf("%w: %v", domain.ErrInterruptCallback, r)).
					Str("channel", string(st.Channel)).
					Str("cbf", st.CallbackSpec).
					Msg("irq callback panic")
			}
		}()

		out := domain.ReplierFunc(func(msg string) {
			log.Debug().Str("channel", string(st.Channel)).Msg(msg)
		})
		ok, err := executor.Execute(st.Tokens(), out)
		switch {
		case err != nil:
			log.Error().Err(err).Str("channel", string(st.Channel)).Str("cbf", st.CallbackSpec).Msg("irq callback error")
		case !ok:
			log.Warn().Str("channel", string(st.Channel)).Str("cbf", st.CallbackSpec).Msg("irq execute error")
		}
	}
}

// scheduledHandler hands the cached task list to the cron matcher.
func scheduledHandler(view ChannelView, cron domain.CronMatcher, log zerolog.Logger) func() {
	return func() {
		st := view.Snapshot()
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Err(fmt.Errorf("%w: %v", domain.ErrInterruptCallback, r)).
					Str("channel", string(st.Channel)).
					Msg("irq cron callback panic")
			}
		}()

		if err := cron.Match(st.CallbackSpec, st.PeriodSeconds); err != nil {
			log.Error().Err(err).Str("tasks", st.CallbackSpec).Msg("irq cron callback error")
		}
	}
}
