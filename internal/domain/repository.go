package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks micros-shell/internal/domain ConfigGateway,DispatchExecutor,MemoryProbe,CronMatcher,DeviceQuerier,Prompter

// ConfigGateway is a secondary port for the node key/value configuration.
type ConfigGateway interface {
	// Get returns the value stored under key.
	Get(key string) (any, bool)
	// Put stores value under key, coercing it to the stored type when typeCheck is set.
	// It reports false when nothing was written.
	Put(key, value string, typeCheck bool) (bool, error)
	// Dump returns every configured key/value pair.
	Dump() []ConfigEntry
}

// Replier receives reply lines for the current command.
type Replier interface {
	Reply(msg string)
}

// ReplierFunc adapts a function to Replier.
type ReplierFunc func(msg string)

// Reply calls f(msg).
func (f ReplierFunc) Reply(msg string) { f(msg) }

// DispatchExecutor resolves args[0] to a capability module and the rest to a
// function call. A false result is a reported failure; an error is an
// internal fault of the executor itself.
type DispatchExecutor interface {
	Execute(args []string, out Replier) (bool, error)
}

// ModuleCatalog lists the installed capability modules.
type ModuleCatalog interface {
	Modules() []ModuleDescriptor
}

// MemoryProbe reads free memory after forcing a collection pass.
type MemoryProbe interface {
	Collect()
	Free() (int64, error)
}

// CronMatcher runs the tasks of a cron task list that are due within the
// last periodSeconds.
type CronMatcher interface {
	Match(tasks string, periodSeconds int) error
}

// TimerDriver registers a periodic hardware callback.
type TimerDriver interface {
	StartPeriodic(period time.Duration, fire func()) (stop func(), err error)
}

// PinDriver registers a rising-edge callback on an input pin.
type PinDriver interface {
	WatchRising(pin int, handler func()) (stop func(), err error)
}

// PinResolver maps a logical pin role to the platform pin number.
type PinResolver interface {
	Lookup(role string) (int, error)
}

// EmergencyBuffer reserves memory used by interrupt fault handling.
type EmergencyBuffer interface {
	Reserve(size int) error
}

// NetworkScanner lists reachable addresses on the local network.
type NetworkScanner interface {
	Scan(ctx context.Context) ([]ScanHit, error)
}

// DeviceCacheRepository persists the discovered device mapping.
type DeviceCacheRepository interface {
	Exists() bool
	Load() (*DeviceCache, error)
	Save(cache *DeviceCache) error
}

// DeviceQuerier sends one command to a device and returns the batch reply.
type DeviceQuerier interface {
	Query(ctx context.Context, target ConnectionTarget, command string) (string, error)
}

// Prompter asks the user to pick one of the listed options.
type Prompter interface {
	Choose(options []string) (int, error)
}

// PortSource reads the socket port from the local device configuration.
// It returns an error satisfying errors.Is(err, fs.ErrNotExist) when the
// source is absent.
type PortSource interface {
	ReadPort() (int, error)
}

// Rebooter restarts the device runtime.
type Rebooter interface {
	Reboot()
}

// RebootFunc adapts a function to Rebooter.
type RebootFunc func()

// Reboot calls f.
func (f RebootFunc) Reboot() { f() }
