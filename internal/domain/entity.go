package domain

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// NotApplicable is the configuration placeholder meaning "no callback configured".
const NotApplicable = "n/a"

// ConfigurePrompt is prepended to the device prompt while configure mode is active.
const ConfigurePrompt = "[configure] "

// IsNotApplicable reports whether a callback spec is unusable: the sentinel or blank.
func IsNotApplicable(spec string) bool {
	spec = strings.TrimSpace(spec)
	return spec == "" || strings.EqualFold(spec, NotApplicable)
}

// SessionState is the shell state of one connection.
// Only the conf/noconf commands mutate it.
type SessionState struct {
	ConfigureMode bool
	PromptPrefix  string
}

// EnterConfigure switches the session into configure mode.
func (s *SessionState) EnterConfigure() {
	s.ConfigureMode = true
	s.PromptPrefix = ConfigurePrompt
}

// LeaveConfigure returns the session to command mode.
func (s *SessionState) LeaveConfigure() {
	s.ConfigureMode = false
	s.PromptPrefix = ""
}

// Channel names a hardware interrupt source. The values double as the
// configuration keys that enable the channel.
type Channel string

const (
	ChannelTimer Channel = "timirq"
	ChannelEvent Channel = "extirq"
)

// ChannelMode is the armed state of an interrupt channel.
type ChannelMode int

const (
	ModeDisabled ChannelMode = iota
	ModeSimple
	ModeScheduled
	ModeArmed
)

func (m ChannelMode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeSimple:
		return "simple"
	case ModeScheduled:
		return "scheduled"
	case ModeArmed:
		return "armed"
	default:
		return "unknown"
	}
}

// InterruptChannelState is the cached callback specification of one channel.
// It is written at arm time and only read from interrupt context.
type InterruptChannelState struct {
	Channel      Channel
	Enabled      bool
	Mode         ChannelMode
	CallbackSpec string
	// Period is the timer period (timer channel only).
	Period time.Duration
	// PeriodSeconds is the period handed to the cron matcher.
	PeriodSeconds int
	// Pin is the resolved platform pin (event channel only).
	Pin int
	// Reason explains a disabled state.
	Reason string
}

// Tokens splits the cached callback line into dispatch arguments.
func (s InterruptChannelState) Tokens() []string {
	return strings.Fields(s.CallbackSpec)
}

// MemoryCheckResult is the outcome of one memory guard pass.
type MemoryCheckResult struct {
	OK        bool
	Available int64
	Required  int64
}

// Shortfall returns how many bytes are missing, or zero.
func (r MemoryCheckResult) Shortfall() int64 {
	if r.OK || r.Required <= r.Available {
		return 0
	}
	return r.Required - r.Available
}

// ConfigEntry is a single key/value pair of the node configuration.
type ConfigEntry struct {
	Key   string
	Value any
}

// ModuleDescriptor is the static description of a capability module.
type ModuleDescriptor struct {
	Name        string
	Functions   []string
	Precompiled bool
}

// DeviceRecord identifies one discovered device.
type DeviceRecord struct {
	UniqueID   string
	Address    string
	Metadata   string
	FriendlyID string
}

// DeviceCache is an ordered unique_id -> DeviceRecord mapping.
// The zero value is ready to use.
type DeviceCache struct {
	order   []string
	records map[string]DeviceRecord
}

// NewDeviceCache creates an empty cache.
func NewDeviceCache() *DeviceCache {
	return &DeviceCache{records: make(map[string]DeviceRecord)}
}

// Put stores rec under its unique id, replacing any previous record.
func (c *DeviceCache) Put(rec DeviceRecord) {
	if c.records == nil {
		c.records = make(map[string]DeviceRecord)
	}
	if _, ok := c.records[rec.UniqueID]; !ok {
		c.order = append(c.order, rec.UniqueID)
	}
	c.records[rec.UniqueID] = rec
}

// Get returns the record for uid.
func (c *DeviceCache) Get(uid string) (DeviceRecord, bool) {
	rec, ok := c.records[uid]
	return rec, ok
}

// Len returns the number of records.
func (c *DeviceCache) Len() int {
	return len(c.order)
}

// Records returns all records in insertion order.
func (c *DeviceCache) Records() []DeviceRecord {
	out := make([]DeviceRecord, 0, len(c.order))
	for _, uid := range c.order {
		out = append(out, c.records[uid])
	}
	return out
}

// ScanHit is one reachable address reported by a network scanner.
type ScanHit struct {
	Address  string
	Metadata string
}

// ConnectionTarget is the resolved device endpoint.
type ConnectionTarget struct {
	Host string
	Port int
}

// Address returns host:port.
func (t ConnectionTarget) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}
