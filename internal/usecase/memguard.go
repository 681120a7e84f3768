package usecase

import (
	"github.com/rs/zerolog"

	"micros-shell/internal/config"
	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
)

// MemoryGuard checks free memory before an interrupt channel is enabled.
// It is advisory and runs only when a channel is being switched on.
type MemoryGuard struct {
	probe  domain.MemoryProbe
	config domain.ConfigGateway
	policy domain.MemoryPolicy
	log    zerolog.Logger
}

// NewMemoryGuard creates a guard reading the requirement from irqmreq.
func NewMemoryGuard(probe domain.MemoryProbe, cfg domain.ConfigGateway, policy domain.MemoryPolicy) *MemoryGuard {
	return &MemoryGuard{
		probe:  probe,
		config: cfg,
		policy: policy,
		log:    logging.For("memguard"),
	}
}

// Check forces a collection pass and evaluates the threshold for channelKey.
func (g *MemoryGuard) Check(channelKey string) domain.MemoryCheckResult {
	g.probe.Collect()
	available, err := g.probe.Free()
	if err != nil {
		g.log.Warn().Err(err).Msg("free memory unavailable, assuming none")
		available = 0
	}

	var required int64
	if v, ok := g.config.Get(domain.KeyIRQMemReq); ok {
		required = int64(config.Int(v))
	}

	res := g.policy.Evaluate(channelKey, available, required)
	g.log.Debug().
		Str("channel", channelKey).
		Int64("available", res.Available).
		Int64("required", res.Required).
		Bool("ok", res.OK).
		Msg("memory check")
	return res
}
