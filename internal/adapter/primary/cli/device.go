package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"micros-shell/internal/adapter/primary/socket"
	"micros-shell/internal/adapter/secondary/capability"
	"micros-shell/internal/adapter/secondary/cron"
	"micros-shell/internal/adapter/secondary/hardware"
	"micros-shell/internal/adapter/secondary/memory"
	"micros-shell/internal/adapter/secondary/repository"
	"micros-shell/internal/config"
	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
	"micros-shell/internal/usecase"
)

func newDeviceCmd() *cobra.Command {
	var (
		daemonPath string
		nodePath   string
		platform   string
	)
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Run the device shell daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDaemon(daemonPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("node-config") {
				cfg.NodeConfig = nodePath
			}
			if cmd.Flags().Changed("platform") {
				cfg.Platform = platform
			}
			if cfg.LogLevel != "" && !cmd.Flags().Changed("verbose") {
				_, count, err := logging.ParseLevel(cfg.LogLevel)
				if err != nil {
					return err
				}
				logging.SetVerbosity(count)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDevice(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&daemonPath, "config", config.DefaultDaemonPath(), "daemon settings (TOML)")
	cmd.Flags().StringVar(&nodePath, "node-config", config.DefaultNodePath(), "node configuration file (JSON)")
	cmd.Flags().StringVar(&platform, "platform", "sim", "pin map platform (esp32|esp8266|sim)")
	return cmd
}

// device is the wired daemon.
type device struct {
	node      *repository.NodeConfigFile
	pins      hardware.PinTable
	sim       *hardware.SimPins
	scheduler *usecase.InterruptScheduler
	server    *socket.Server
	reboots   chan struct{}
}

func buildDevice(cfg config.Daemon) (*device, error) {
	node, err := repository.NewNodeConfigFile(cfg.NodeConfig)
	if err != nil {
		return nil, err
	}
	uid, err := node.EnsureUniqueID()
	if err != nil {
		return nil, err
	}

	pins, err := hardware.NewPinTable(cfg.Platform)
	if err != nil {
		return nil, err
	}
	ledPin, err := pins.Lookup("progressled")
	if err != nil {
		return nil, err
	}
	led := hardware.NewStatusLED(ledPin)

	probe, err := memory.New(cfg.MemoryProbe)
	if err != nil {
		return nil, err
	}

	d := &device{node: node, pins: pins, sim: hardware.NewSimPins(), reboots: make(chan struct{}, 1)}
	rebooter := domain.RebootFunc(func() {
		select {
		case d.reboots <- struct{}{}:
		default:
		}
	})

	registry, err := capability.NewRegistry(
		capability.CommandsModule(capability.CommandsDeps{Probe: probe, Rebooter: rebooter}),
		capability.LEDModule(led),
	)
	if err != nil {
		return nil, err
	}

	d.scheduler = usecase.NewInterruptScheduler(node, registry, cron.NewMatcher(registry), usecase.InterruptDrivers{
		Timer:  hardware.NewSoftTimer(),
		Pins:   d.sim,
		Lookup: pins,
		Buffer: hardware.NewBuffer(),
	})

	guard := usecase.NewMemoryGuard(probe, node, domain.NewMemoryPolicy(cfg.EventMemRatio))
	shell := usecase.NewShellInterpreter(node, registry, registry, guard)

	addr := cfg.Listen
	if addr == "" {
		v, _ := node.Get(domain.KeySocketPort)
		addr = net.JoinHostPort("", strconv.Itoa(config.Int(v)))
	}
	d.server = socket.NewServer(socket.Deps{Shell: shell, Config: node, LED: led, Rebooter: rebooter}, addr, cfg.IdleTimeout)

	fid, _ := node.Get(domain.KeyFriendlyID)
	logging.Infof("device %v (%s) on %s, platform %s", fid, uid, addr, pins.Platform())
	return d, nil
}

func (d *device) initInterrupts() {
	if err := d.scheduler.Init(); err != nil {
		logging.Errorf("interrupt setup: %v", err)
	}
}

func runDevice(ctx context.Context, cfg config.Daemon) error {
	d, err := buildDevice(cfg)
	if err != nil {
		return err
	}
	d.initInterrupts()
	defer d.scheduler.Stop()

	if err := d.server.Listen(); err != nil {
		return err
	}
	fmt.Printf("micros-shell device listening on %s\n", d.server.Addr())

	edges, stopEdges := notifyEdges()
	defer stopEdges()

	errCh := make(chan error, 1)
	go func() { errCh <- d.server.Start() }()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Device shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return d.server.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		case <-d.reboots:
			logging.Warnf("reboot requested, re-initialising interrupts")
			d.scheduler.Stop()
			d.initInterrupts()
		case <-edges:
			pin, err := d.pins.Lookup(usecase.EventPinRole)
			if err != nil {
				logging.Errorf("simulated edge: %v", err)
				continue
			}
			n := d.sim.Trigger(pin)
			logging.Infof("simulated rising edge on pin %d (%d handlers)", pin, n)
		}
	}
}
