package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"micros-shell/internal/domain"
)

var (
	// DefaultPort is the device shell port when nothing else is configured.
	DefaultPort = 9008
	// DefaultVersion is reported by the version built-in.
	DefaultVersion = "0.1.0"
)

// DefaultNode returns the initial node configuration.
func DefaultNode() map[string]any {
	return map[string]any{
		domain.KeyFriendlyID:    "node01",
		domain.KeyUniqueID:      "",
		domain.KeySocketPort:    DefaultPort,
		domain.KeyTimerIRQ:      false,
		domain.KeyTimerPeriod:   3000,
		domain.KeyTimerCallback: domain.NotApplicable,
		domain.KeyCron:          false,
		domain.KeyCronTasks:     domain.NotApplicable,
		domain.KeyEventIRQ:      false,
		domain.KeyEventCallback: domain.NotApplicable,
		domain.KeyIRQBuffer:     1000,
		domain.KeyIRQMemReq:     6000,
		domain.KeyVersion:       DefaultVersion,
		domain.KeyNetworkMode:   "n/a",
		domain.KeyDeviceIP:      "n/a",
	}
}

// Coerce parses raw into the type of current so a stored value keeps its type.
func Coerce(current any, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch current.(type) {
	case bool:
		switch strings.ToLower(raw) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not a bool", raw)
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not an int", raw)
		}
		return v, nil
	case float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// Bool reads v as a bool; strings "true"/"false" are accepted.
func Bool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	default:
		return false
	}
}

// Int reads v as an int.
func Int(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	default:
		return 0
	}
}

// String reads v as a string.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// normalizeNumber turns JSON float64 values into ints when they are whole.
func normalizeNumber(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
		return int(f)
	}
	return f
}
