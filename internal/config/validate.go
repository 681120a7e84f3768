package config

import (
	"fmt"

	"micros-shell/internal/domain"
)

// Normalize fills missing keys from the defaults and restores int types lost
// by JSON decoding. It returns a safe copy.
func Normalize(values map[string]any) (map[string]any, error) {
	out := DefaultNode()
	for k, v := range values {
		out[k] = normalizeNumber(v)
	}
	if port := Int(out[domain.KeySocketPort]); port <= 0 || port > 65535 {
		return out, fmt.Errorf("socport must be between 1 and 65535, got %v", out[domain.KeySocketPort])
	}
	return out, nil
}
