package hardware

import (
	"sync"

	"micros-shell/internal/logging"
)

// StatusLED is the progress indicator toggled on every received command.
// The daemon owns one instance and passes it to the server and the led
// capability module. The output is active low like the board LED: level 0
// means lit.
type StatusLED struct {
	pin int

	mu    sync.Mutex
	level int
}

// NewStatusLED creates an LED on pin, initially off.
func NewStatusLED(pin int) *StatusLED {
	return &StatusLED{pin: pin, level: 1}
}

// Pin returns the output pin.
func (l *StatusLED) Pin() int { return l.pin }

// Toggle flips the output level.
func (l *StatusLED) Toggle() {
	l.mu.Lock()
	l.level ^= 1
	lvl := l.level
	l.mu.Unlock()
	logging.Tracef("led pin %d level %d", l.pin, lvl)
}

// On lights the LED.
func (l *StatusLED) On() { l.set(0) }

// Off turns the LED off.
func (l *StatusLED) Off() { l.set(1) }

// Lit reports whether the LED is on.
func (l *StatusLED) Lit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level == 0
}

func (l *StatusLED) set(level int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}
