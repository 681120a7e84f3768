package scanner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
)

const (
	defaultTimeout     = 500 * time.Millisecond
	defaultConcurrency = 64
)

// Target is one host to probe and the interface it was derived from.
type Target struct {
	Host      string
	Interface string
}

// TCPSweeper implements domain.NetworkScanner by dialing the shell port on
// every address of the local IPv4 /24 networks.
type TCPSweeper struct {
	port        int
	timeout     time.Duration
	concurrency int
	targets     func() ([]Target, error)
	log         zerolog.Logger
}

var _ domain.NetworkScanner = (*TCPSweeper)(nil)

// Option customizes a TCPSweeper.
type Option func(*TCPSweeper)

// WithTimeout sets the per-host dial timeout.
func WithTimeout(d time.Duration) Option { return func(s *TCPSweeper) { s.timeout = d } }

// WithConcurrency sets the number of dial workers.
func WithConcurrency(n int) Option { return func(s *TCPSweeper) { s.concurrency = n } }

// WithTargets replaces local subnet enumeration.
func WithTargets(targets []Target) Option {
	return func(s *TCPSweeper) {
		s.targets = func() ([]Target, error) { return targets, nil }
	}
}

// NewTCPSweeper creates a sweeper probing port.
func NewTCPSweeper(port int, opts ...Option) *TCPSweeper {
	s := &TCPSweeper{
		port:        port,
		timeout:     defaultTimeout,
		concurrency: defaultConcurrency,
		targets:     LocalTargets,
		log:         logging.For("scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.concurrency <= 0 {
		s.concurrency = defaultConcurrency
	}
	return s
}

// Port returns the probed port.
func (s *TCPSweeper) Port() int { return s.port }

// Scan returns the hosts accepting connections, sorted by address.
func (s *TCPSweeper) Scan(ctx context.Context) ([]domain.ScanHit, error) {
	targets, err := s.targets()
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errors.New("no local IPv4 networks to scan")
	}
	s.log.Info().Int("hosts", len(targets)).Int("port", s.port).Msg("network sweep started")

	workCh := make(chan Target, s.concurrency*2)
	resultCh := make(chan domain.ScanHit, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, workCh, resultCh)
		}()
	}

	go func() {
		defer close(workCh)
		for _, t := range targets {
			select {
			case <-ctx.Done():
				return
			case workCh <- t:
			}
		}
	}()

	wg.Wait()
	close(resultCh)

	var hits []domain.ScanHit
	for h := range resultCh {
		hits = append(hits, h)
	}
	sort.Slice(hits, func(i, j int) bool {
		return compareIP(hits[i].Address, hits[j].Address) < 0
	})
	s.log.Info().Int("open", len(hits)).Msg("network sweep finished")
	return hits, ctx.Err()
}

func (s *TCPSweeper) worker(ctx context.Context, workCh <-chan Target, resultCh chan<- domain.ScanHit) {
	for t := range workCh {
		if ctx.Err() != nil {
			continue
		}
		rtt, err := s.checkPort(ctx, t.Host)
		if err != nil {
			s.log.Trace().Err(err).Str("host", t.Host).Msg("closed")
			continue
		}
		resultCh <- domain.ScanHit{Address: t.Host, Metadata: fmt.Sprintf("%s rtt=%s", t.Interface, rtt.Round(time.Microsecond))}
	}
}

func (s *TCPSweeper) checkPort(ctx context.Context, host string) (time.Duration, error) {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	var dialer net.Dialer
	conn, err := dialer.DialContext(probeCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(s.port)))
	if err != nil {
		return 0, err
	}
	if err := conn.Close(); err != nil {
		s.log.Debug().Err(err).Str("host", host).Msg("failed to close probe connection")
	}
	return time.Since(start), nil
}

// LocalTargets lists every host address of the /24 around each non-loopback
// IPv4 interface address.
func LocalTargets() ([]Target, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	seen := make(map[string]bool)
	var out []Target
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}
			for _, host := range subnetHosts(ip4) {
				if seen[host] {
					continue
				}
				seen[host] = true
				out = append(out, Target{Host: host, Interface: iface.Name})
			}
		}
	}
	return out, nil
}

// subnetHosts returns x.y.z.1 .. x.y.z.254 for ip. The host itself is kept
// so a simulator running locally is found too.
func subnetHosts(ip net.IP) []string {
	hosts := make([]string, 0, 254)
	for i := 1; i < 255; i++ {
		hosts = append(hosts, net.IPv4(ip[0], ip[1], ip[2], byte(i)).String())
	}
	return hosts
}

func compareIP(a, b string) int {
	ia, ib := net.ParseIP(a).To4(), net.ParseIP(b).To4()
	if ia == nil || ib == nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	for i := range ia {
		if ia[i] != ib[i] {
			return int(ia[i]) - int(ib[i])
		}
	}
	return 0
}
