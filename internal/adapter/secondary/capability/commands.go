package capability

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"micros-shell/internal/domain"
)

// CommandsDeps are the collaborators of the commands module.
type CommandsDeps struct {
	Probe    domain.MemoryProbe
	Rebooter domain.Rebooter
	Clock    func() time.Time
}

// CommandsModule returns the general purpose "commands" module.
func CommandsModule(deps CommandsDeps) Module {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return Module{
		Name: "commands",
		Functions: []Function{
			{Name: "mem_free", Call: func([]string) (string, error) { return memFree(deps.Probe) }},
			{Name: "addnumbs", Call: addNumbers},
			{Name: "time", Call: func([]string) (string, error) { return localTime(deps.Clock()), nil }},
			{Name: "reboot", Call: func([]string) (string, error) { return reboot(deps.Rebooter) }},
			{Name: "heartbeat", Call: func([]string) (string, error) { return "<3 heartbeat <3", nil }},
		},
	}
}

func memFree(probe domain.MemoryProbe) (string, error) {
	if probe == nil {
		return "", fmt.Errorf("no memory probe")
	}
	probe.Collect()
	free, err := probe.Free()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CPU[cores]: %d\nGC MemFree[byte]: %d", runtime.NumCPU(), free), nil
}

func addNumbers(args []string) (string, error) {
	var sum float64
	terms := make([]string, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return "", fmt.Errorf("addnumbs: %q is not a number", a)
		}
		sum += v
		terms = append(terms, strconv.FormatFloat(v, 'f', -1, 64))
	}
	return fmt.Sprintf("%s = %s", strings.Join(terms, "+"), strconv.FormatFloat(sum, 'f', -1, 64)), nil
}

// localTime renders t as (year, month, mday, hour, minute, second, weekday,
// yearday) with weekdays counted from Monday = 0.
func localTime(t time.Time) string {
	wd := (int(t.Weekday()) + 6) % 7
	return fmt.Sprintf("(%d, %d, %d, %d, %d, %d, %d, %d)",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), wd, t.YearDay())
}

func reboot(r domain.Rebooter) (string, error) {
	if r == nil {
		return "", fmt.Errorf("reboot not supported")
	}
	r.Reboot()
	return "Reboot", nil
}
