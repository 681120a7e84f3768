package hardware

import (
	"fmt"
	"sync"

	"micros-shell/internal/domain"
)

// MaxEmergencyBuffer caps the reserved interrupt fault buffer.
const MaxEmergencyBuffer = 1 << 20

// Buffer implements domain.EmergencyBuffer by holding a preallocated slice.
type Buffer struct {
	mu  sync.Mutex
	buf []byte
}

var _ domain.EmergencyBuffer = (*Buffer)(nil)

// NewBuffer creates an empty emergency buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Reserve allocates size bytes, replacing any earlier reservation.
func (b *Buffer) Reserve(size int) error {
	if size <= 0 || size > MaxEmergencyBuffer {
		return fmt.Errorf("emergency buffer size %d out of range 1..%d", size, MaxEmergencyBuffer)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = make([]byte, size)
	return nil
}

// Size returns the reserved byte count.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}
