package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultEventRatio scales the timer memory requirement for the event channel.
const DefaultEventRatio = 0.7

// GreetingCommand is the identification command every device answers.
const GreetingCommand = "hello"

// MemoryPolicy decides whether free memory is enough to enable a channel.
// It has no side effects.
type MemoryPolicy struct {
	EventRatio float64
}

// NewMemoryPolicy returns a policy using ratio for the event channel, or the
// default when ratio is not positive.
func NewMemoryPolicy(ratio float64) MemoryPolicy {
	if ratio <= 0 {
		ratio = DefaultEventRatio
	}
	return MemoryPolicy{EventRatio: ratio}
}

// Evaluate compares available bytes against the channel threshold derived
// from required. Keys other than the timer and event channels always pass.
func (p MemoryPolicy) Evaluate(key string, available, required int64) MemoryCheckResult {
	res := MemoryCheckResult{OK: true, Available: available}
	switch Channel(key) {
	case ChannelTimer:
		res.Required = required
	case ChannelEvent:
		res.Required = int64(float64(required) * p.EventRatio)
	default:
		return res
	}
	res.OK = available >= res.Required
	return res
}

// TimerSettings are the configuration flags that drive timer arming.
type TimerSettings struct {
	Enabled        bool
	PeriodMS       int
	SimpleCallback string
	CronEnabled    bool
	CronTasks      string
}

// PlanTimer decides the timer channel state. The cron scheduler has priority
// over the simple periodic callback.
func PlanTimer(s TimerSettings) InterruptChannelState {
	st := InterruptChannelState{Channel: ChannelTimer, Enabled: s.Enabled, Mode: ModeDisabled}
	if !s.Enabled {
		st.Reason = "timer interrupt disabled"
		return st
	}
	if s.PeriodMS <= 0 {
		st.Reason = fmt.Sprintf("invalid timer period %dms", s.PeriodMS)
		return st
	}
	st.Period = time.Duration(s.PeriodMS) * time.Millisecond
	switch {
	case s.CronEnabled && !IsNotApplicable(s.CronTasks):
		st.Mode = ModeScheduled
		st.CallbackSpec = strings.TrimSpace(s.CronTasks)
		st.PeriodSeconds = s.PeriodMS / 1000
		if st.PeriodSeconds < 1 {
			st.PeriodSeconds = 1
		}
	case !IsNotApplicable(s.SimpleCallback):
		st.Mode = ModeSimple
		st.CallbackSpec = strings.TrimSpace(s.SimpleCallback)
	default:
		st.Reason = fmt.Sprintf("no usable callback: cron=%t crontasks=%q timirqcbf=%q",
			s.CronEnabled, s.CronTasks, s.SimpleCallback)
	}
	return st
}

// EventSettings are the configuration flags that drive event arming.
type EventSettings struct {
	Enabled  bool
	Callback string
}

// PlanEvent decides the event channel state. The pin is resolved later.
func PlanEvent(s EventSettings) InterruptChannelState {
	st := InterruptChannelState{Channel: ChannelEvent, Enabled: s.Enabled, Mode: ModeDisabled}
	switch {
	case !s.Enabled:
		st.Reason = "event interrupt disabled"
	case IsNotApplicable(s.Callback):
		st.Reason = fmt.Sprintf("no usable callback: extirqcbf=%q", s.Callback)
	default:
		st.Mode = ModeArmed
		st.CallbackSpec = strings.TrimSpace(s.Callback)
	}
	return st
}

// FormatGreeting builds the reply to the greeting command.
func FormatGreeting(friendlyID, uniqueID string) string {
	return GreetingCommand + ":" + friendlyID + ":" + uniqueID
}

// ParseGreeting extracts the friendly and unique id from a greeting reply.
// Any line of the reply may carry the greeting.
func ParseGreeting(reply string) (friendlyID, uniqueID string, ok bool) {
	for _, line := range strings.Split(reply, "\n") {
		idx := strings.Index(line, GreetingCommand+":")
		if idx < 0 {
			continue
		}
		fields := strings.Split(strings.TrimSpace(line[idx:]), ":")
		if len(fields) < 3 {
			continue
		}
		fid, uid := strings.TrimSpace(fields[1]), strings.TrimSpace(fields[2])
		if fid == "" || uid == "" {
			continue
		}
		return fid, uid, true
	}
	return "", "", false
}
