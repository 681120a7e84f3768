package hardware

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"micros-shell/internal/domain"
)

// SoftTimer implements domain.TimerDriver with a ticker goroutine per
// periodic callback. This is a secondary adapter.
type SoftTimer struct{}

var _ domain.TimerDriver = SoftTimer{}

// NewSoftTimer creates a software timer driver.
func NewSoftTimer() SoftTimer {
	return SoftTimer{}
}

// StartPeriodic calls fire every period until stop is called. Fires never
// overlap; a tick arriving while fire still runs is dropped.
func (SoftTimer) StartPeriodic(period time.Duration, fire func()) (func(), error) {
	if period <= 0 {
		return nil, fmt.Errorf("timer period must be positive, got %s", period)
	}
	if fire == nil {
		return nil, errors.New("timer callback is required")
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fire()
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
	return stop, nil
}
