package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/rs/zerolog"

	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
)

// ConnectionRegistry discovers devices, keeps the identity cache and resolves
// the target a client session connects to.
type ConnectionRegistry struct {
	scanner  domain.NetworkScanner
	querier  domain.DeviceQuerier
	cache    domain.DeviceCacheRepository
	prompter domain.Prompter
	ports    domain.PortSource
	log      zerolog.Logger

	port int
}

// RegistryDeps are the ports a ConnectionRegistry needs.
type RegistryDeps struct {
	Scanner  domain.NetworkScanner
	Querier  domain.DeviceQuerier
	Cache    domain.DeviceCacheRepository
	Prompter domain.Prompter
	Ports    domain.PortSource
}

// NewConnectionRegistry creates a registry that falls back to defaultPort
// when no local device configuration can be read.
func NewConnectionRegistry(deps RegistryDeps, defaultPort int) *ConnectionRegistry {
	return &ConnectionRegistry{
		scanner:  deps.Scanner,
		querier:  deps.Querier,
		cache:    deps.Cache,
		prompter: deps.Prompter,
		ports:    deps.Ports,
		log:      logging.For("registry"),
		port:     defaultPort,
	}
}

// Port returns the port discovery and connections use.
func (r *ConnectionRegistry) Port() int { return r.port }

// ResolvePort reads the socket port from the local device configuration and
// keeps the default when it is unavailable.
func (r *ConnectionRegistry) ResolvePort() int {
	if r.ports == nil {
		return r.port
	}
	port, err := r.ports.ReadPort()
	switch {
	case err == nil:
		r.port = port
		r.log.Debug().Int("port", port).Msg("port from node config")
	case errors.Is(err, fs.ErrNotExist):
		r.log.Warn().Int("port", r.port).Msg("no local node config, default port may be stale")
	default:
		r.log.Warn().Err(err).Int("port", r.port).Msg("node config unreadable, default port may be stale")
	}
	return r.port
}

// Discover sweeps the network, greets every IPv4 hit and rewrites the cache
// with the devices that answered. The cache is written even when nothing was
// found or the scan itself failed.
func (r *ConnectionRegistry) Discover(ctx context.Context) (*domain.DeviceCache, error) {
	found := domain.NewDeviceCache()

	hits, scanErr := r.scanner.Scan(ctx)
	if scanErr != nil {
		r.log.Error().Err(scanErr).Msg("network scan failed")
	}

	for _, hit := range hits {
		if !strings.Contains(hit.Address, ".") {
			continue
		}
		target := domain.ConnectionTarget{Host: hit.Address, Port: r.port}
		reply, err := r.querier.Query(ctx, target, domain.GreetingCommand)
		if err != nil {
			r.log.Debug().Err(err).Str("addr", target.Address()).Msg("no shell on host")
			continue
		}
		fid, uid, ok := domain.ParseGreeting(reply)
		if !ok {
			r.log.Debug().Str("addr", target.Address()).Str("reply", reply).Msg("not a device")
			continue
		}
		r.log.Info().Str("device", fid).Str("uid", uid).Str("addr", hit.Address).Msg("device found")
		found.Put(domain.DeviceRecord{
			UniqueID:   uid,
			Address:    hit.Address,
			Metadata:   hit.Metadata,
			FriendlyID: fid,
		})
	}

	if err := r.cache.Save(found); err != nil {
		return found, errors.Join(scanErr, fmt.Errorf("save device cache: %w", err))
	}
	return found, scanErr
}

// LoadCache returns the persisted devices, or an empty cache when none exists.
func (r *ConnectionRegistry) LoadCache() (*domain.DeviceCache, error) {
	if !r.cache.Exists() {
		return domain.NewDeviceCache(), nil
	}
	c, err := r.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("load device cache: %w", err)
	}
	return c, nil
}

// Select picks a device from cache. A single record is chosen without asking.
func (r *ConnectionRegistry) Select(cache *domain.DeviceCache) (domain.DeviceRecord, error) {
	records := cache.Records()
	switch len(records) {
	case 0:
		return domain.DeviceRecord{}, domain.ErrNoDevices
	case 1:
		return records[0], nil
	}
	if r.prompter == nil {
		return domain.DeviceRecord{}, fmt.Errorf("%w: %d devices and no prompt", domain.ErrInvalidSelection, len(records))
	}

	options := make([]string, 0, len(records))
	for i, rec := range records {
		options = append(options, fmt.Sprintf("[%d] Device: %s - %s - %s", i, rec.FriendlyID, rec.Address, rec.UniqueID))
	}
	idx, err := r.prompter.Choose(options)
	if err != nil {
		return domain.DeviceRecord{}, err
	}
	if idx < 0 || idx >= len(records) {
		return domain.DeviceRecord{}, fmt.Errorf("%w: index %d", domain.ErrInvalidSelection, idx)
	}
	return records[idx], nil
}

// SelectByID picks the device whose friendly or unique id equals id.
func (r *ConnectionRegistry) SelectByID(cache *domain.DeviceCache, id string) (domain.DeviceRecord, error) {
	if rec, ok := cache.Get(id); ok {
		return rec, nil
	}
	for _, rec := range cache.Records() {
		if rec.FriendlyID == id {
			return rec, nil
		}
	}
	return domain.DeviceRecord{}, fmt.Errorf("%w: no device %q", domain.ErrInvalidSelection, id)
}

// AutoExecute returns the connection target for a session. It scans when
// forced or when no cache exists yet, otherwise it reuses the cache. A non
// empty device id skips the interactive selection.
func (r *ConnectionRegistry) AutoExecute(ctx context.Context, forceScan bool, deviceID string) (domain.ConnectionTarget, error) {
	r.ResolvePort()

	var (
		cache *domain.DeviceCache
		err   error
	)
	if forceScan || !r.cache.Exists() {
		cache, err = r.Discover(ctx)
		if err != nil && cache.Len() == 0 {
			return domain.ConnectionTarget{}, err
		}
	} else {
		cache, err = r.LoadCache()
		if err != nil {
			return domain.ConnectionTarget{}, err
		}
	}

	var rec domain.DeviceRecord
	if deviceID != "" {
		rec, err = r.SelectByID(cache, deviceID)
	} else {
		rec, err = r.Select(cache)
	}
	if err != nil {
		return domain.ConnectionTarget{}, err
	}
	r.log.Info().Str("device", rec.FriendlyID).Str("addr", rec.Address).Int("port", r.port).Msg("target selected")
	return domain.ConnectionTarget{Host: rec.Address, Port: r.port}, nil
}
