package hardware

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"micros-shell/internal/domain"
)

// PinTable maps logical pin roles to platform pin numbers.
type PinTable struct {
	platform string
	roles    map[string]int
}

var _ domain.PinResolver = PinTable{}

var platformPins = map[string]map[string]int{
	"esp8266": {"progressled": 16, "pwm_0": 15, "pwm_1": 13, "pwm_2": 12, "pwm_3": 14, "pwm_4": 0, "i2c_sda": 4, "i2c_scl": 5},
	"esp32":   {"progressled": 2, "pwm_0": 26, "pwm_1": 25, "pwm_2": 33, "pwm_3": 32, "pwm_4": 27, "i2c_sda": 21, "i2c_scl": 22},
	"sim":     {"progressled": 16, "pwm_0": 0, "pwm_1": 1, "pwm_2": 2, "pwm_3": 3, "pwm_4": 4, "i2c_sda": 10, "i2c_scl": 11},
}

// Platforms lists the platforms with a pin map.
func Platforms() []string {
	out := make([]string, 0, len(platformPins))
	for p := range platformPins {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NewPinTable returns the pin map of platform.
func NewPinTable(platform string) (PinTable, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	roles, ok := platformPins[platform]
	if !ok {
		return PinTable{}, fmt.Errorf("unknown platform %q (known: %s)", platform, strings.Join(Platforms(), ", "))
	}
	return PinTable{platform: platform, roles: roles}, nil
}

// Platform returns the platform name.
func (t PinTable) Platform() string { return t.platform }

// Lookup returns the pin number assigned to role.
func (t PinTable) Lookup(role string) (int, error) {
	pin, ok := t.roles[strings.ToLower(role)]
	if !ok {
		return 0, fmt.Errorf("no pin for role %q on %s", role, t.platform)
	}
	return pin, nil
}

// SimPins implements domain.PinDriver for the host simulator. Edges are
// injected with Trigger.
type SimPins struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]map[int]func()
}

var _ domain.PinDriver = (*SimPins)(nil)

// NewSimPins creates a simulated pin bank.
func NewSimPins() *SimPins {
	return &SimPins{handlers: make(map[int]map[int]func())}
}

// WatchRising registers handler for rising edges on pin.
func (p *SimPins) WatchRising(pin int, handler func()) (func(), error) {
	if handler == nil {
		return nil, fmt.Errorf("pin %d: handler is required", pin)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handlers[pin] == nil {
		p.handlers[pin] = make(map[int]func())
	}
	id := p.nextID
	p.nextID++
	p.handlers[pin][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.handlers[pin], id)
		})
	}, nil
}

// Trigger simulates a rising edge on pin and returns how many handlers ran.
func (p *SimPins) Trigger(pin int) int {
	p.mu.RLock()
	hs := make([]func(), 0, len(p.handlers[pin]))
	for _, h := range p.handlers[pin] {
		hs = append(hs, h)
	}
	p.mu.RUnlock()

	for _, h := range hs {
		h()
	}
	return len(hs)
}

// Watched returns the pins that have at least one handler.
func (p *SimPins) Watched() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []int
	for pin, hs := range p.handlers {
		if len(hs) > 0 {
			out = append(out, pin)
		}
	}
	sort.Ints(out)
	return out
}
