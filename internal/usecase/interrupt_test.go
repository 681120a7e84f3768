package usecase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"micros-shell/internal/config"
	"micros-shell/internal/domain"
	"micros-shell/internal/domain/mocks"
)

type mapConfig map[string]any

func (m mapConfig) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapConfig) Put(key, value string, _ bool) (bool, error) {
	if _, ok := m[key]; !ok {
		return false, nil
	}
	m[key] = value
	return true, nil
}

func (m mapConfig) Dump() []domain.ConfigEntry { return nil }

func nodeConfig(overrides map[string]any) mapConfig {
	cfg := mapConfig(config.DefaultNode())
	for k, v := range overrides {
		cfg[k] = v
	}
	return cfg
}

// fakeHardware records registrations and lets tests fire callbacks by hand.
type fakeHardware struct {
	mu       sync.Mutex
	events   []string
	timerFn  func()
	period   time.Duration
	pinFn    func()
	pin      int
	stopped  int
	reserved int
	timerErr error
}

func (h *fakeHardware) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *fakeHardware) StartPeriodic(period time.Duration, fire func()) (func(), error) {
	if h.timerErr != nil {
		return nil, h.timerErr
	}
	h.record("timer")
	h.timerFn, h.period = fire, period
	return func() { h.stopped++ }, nil
}

func (h *fakeHardware) WatchRising(pin int, handler func()) (func(), error) {
	h.record("pin")
	h.pinFn, h.pin = handler, pin
	return func() { h.stopped++ }, nil
}

func (h *fakeHardware) Lookup(role string) (int, error) {
	if role != EventPinRole {
		return 0, errors.New("unknown role")
	}
	return 4, nil
}

func (h *fakeHardware) Reserve(size int) error {
	h.record("buffer")
	h.reserved = size
	return nil
}

func newScheduler(t *testing.T, cfg mapConfig) (*InterruptScheduler, *mocks.MockDispatchExecutor, *mocks.MockCronMatcher, *fakeHardware) {
	t.Helper()
	ctrl := gomock.NewController(t)
	exec := mocks.NewMockDispatchExecutor(ctrl)
	cron := mocks.NewMockCronMatcher(ctrl)
	hw := &fakeHardware{}
	s := NewInterruptScheduler(cfg, exec, cron, InterruptDrivers{Timer: hw, Pins: hw, Lookup: hw, Buffer: hw})
	return s, exec, cron, hw
}

func TestArmTimerScheduledWhenCronHasTasks(t *testing.T) {
	s, _, cron, hw := newScheduler(t, nodeConfig(map[string]any{
		domain.KeyTimerIRQ:      true,
		domain.KeyTimerPeriod:   5000,
		domain.KeyCron:          true,
		domain.KeyCronTasks:     "*:*:*:0!LM_led toggle",
		domain.KeyTimerCallback: "LM_commands heartbeat",
	}))

	st, err := s.ArmTimer()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeScheduled, st.Mode)
	assert.Equal(t, 5, st.PeriodSeconds)
	assert.Equal(t, 5*time.Second, hw.period)

	cron.EXPECT().Match("*:*:*:0!LM_led toggle", 5).Return(nil)
	hw.timerFn()
}

func TestArmTimerSimpleWhenCronDisabled(t *testing.T) {
	s, exec, _, hw := newScheduler(t, nodeConfig(map[string]any{
		domain.KeyTimerIRQ:      true,
		domain.KeyCronTasks:     "*:*:*:0!LM_led toggle",
		domain.KeyTimerCallback: "LM_commands heartbeat",
	}))

	st, err := s.ArmTimer()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeSimple, st.Mode)
	assert.Equal(t, domain.ModeSimple, s.TimerState().Mode)

	exec.EXPECT().Execute([]string{"LM_commands", "heartbeat"}, gomock.Any()).Return(true, nil).Times(2)
	hw.timerFn()
	hw.timerFn()
}

func TestArmTimerDisabledWithSentinels(t *testing.T) {
	s, _, _, hw := newScheduler(t, nodeConfig(map[string]any{
		domain.KeyTimerIRQ: true,
		domain.KeyCron:     true,
	}))

	st, err := s.ArmTimer()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDisabled, st.Mode)
	assert.NotEmpty(t, st.Reason)
	assert.Nil(t, hw.timerFn)
}

func TestArmTimerDriverFailure(t *testing.T) {
	s, _, _, hw := newScheduler(t, nodeConfig(map[string]any{
		domain.KeyTimerIRQ:      true,
		domain.KeyTimerCallback: "LM_commands heartbeat",
	}))
	hw.timerErr = errors.New("no timer")

	st, err := s.ArmTimer()
	require.Error(t, err)
	assert.Equal(t, domain.ModeDisabled, st.Mode)
	assert.Equal(t, domain.ModeDisabled, s.TimerState().Mode)
}

func TestRearmStopsPreviousTimer(t *testing.T) {
	cfg := nodeConfig(map[string]any{
		domain.KeyTimerIRQ:      true,
		domain.KeyTimerCallback: "LM_commands heartbeat",
	})
	s, _, _, hw := newScheduler(t, cfg)

	_, err := s.ArmTimer()
	require.NoError(t, err)
	cfg[domain.KeyTimerIRQ] = false
	st, err := s.ArmTimer()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDisabled, st.Mode)
	assert.Equal(t, 1, hw.stopped)
}

func TestCallbackFailuresDoNotPropagate(t *testing.T) {
	s, exec, _, hw := newScheduler(t, nodeConfig(map[string]any{
		domain.KeyTimerIRQ:      true,
		domain.KeyTimerCallback: "LM_commands heartbeat",
		domain.KeyEventIRQ:      true,
		domain.KeyEventCallback: "LM_led toggle",
	}))
	require.NoError(t, s.Init())

	exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(
		func([]string, domain.Replier) (bool, error) { panic("callback exploded") }).Times(1)
	exec.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(false, errors.New("bad module")).Times(1)
	exec.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(false, nil).Times(1)

	require.NotPanics(t, hw.timerFn)
	require.NotPanics(t, hw.pinFn)
	require.NotPanics(t, hw.timerFn)
}

func TestCronPanicDoesNotPropagate(t *testing.T) {
	s, _, cron, hw := newScheduler(t, nodeConfig(map[string]any{
		domain.KeyTimerIRQ:  true,
		domain.KeyCron:      true,
		domain.KeyCronTasks: "*:*:*:*!LM_led toggle",
	}))
	_, err := s.ArmTimer()
	require.NoError(t, err)

	cron.EXPECT().Match(gomock.Any(), gomock.Any()).DoAndReturn(func(string, int) error { panic("bad pattern") })
	assert.NotPanics(t, hw.timerFn)
}

func TestInitReservesBufferBeforeArming(t *testing.T) {
	s, _, _, hw := newScheduler(t, nodeConfig(map[string]any{
		domain.KeyTimerIRQ:      true,
		domain.KeyTimerCallback: "LM_commands heartbeat",
		domain.KeyEventIRQ:      true,
		domain.KeyEventCallback: "LM_led toggle",
		domain.KeyIRQBuffer:     2048,
	}))

	require.NoError(t, s.Init())
	assert.Equal(t, []string{"buffer", "timer", "pin"}, hw.events)
	assert.Equal(t, 2048, hw.reserved)

	ev := s.EventState()
	assert.Equal(t, domain.ModeArmed, ev.Mode)
	assert.Equal(t, 4, ev.Pin)
	assert.Equal(t, 4, hw.pin)
	assert.Equal(t, "LM_led toggle", ev.CallbackSpec)
}

func TestInitWithInterruptsOffSkipsBuffer(t *testing.T) {
	s, _, _, hw := newScheduler(t, nodeConfig(nil))

	require.NoError(t, s.Init())
	assert.Empty(t, hw.events)
	assert.Equal(t, domain.ModeDisabled, s.TimerState().Mode)
	assert.Equal(t, domain.ModeDisabled, s.EventState().Mode)
}

func TestEventDisabledWithoutCallback(t *testing.T) {
	s, _, _, hw := newScheduler(t, nodeConfig(map[string]any{domain.KeyEventIRQ: true}))

	st, err := s.ArmEvent()
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDisabled, st.Mode)
	assert.Nil(t, hw.pinFn)
}

func TestStopReleasesCallbacks(t *testing.T) {
	s, _, _, hw := newScheduler(t, nodeConfig(map[string]any{
		domain.KeyTimerIRQ:      true,
		domain.KeyTimerCallback: "LM_commands heartbeat",
		domain.KeyEventIRQ:      true,
		domain.KeyEventCallback: "LM_led toggle",
	}))
	require.NoError(t, s.Init())

	s.Stop()
	s.Stop()
	assert.Equal(t, 2, hw.stopped)
}
