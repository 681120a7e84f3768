package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"micros-shell/internal/adapter/secondary/repository"
	"micros-shell/internal/adapter/secondary/scanner"
	"micros-shell/internal/adapter/secondary/socketclient"
	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
	"micros-shell/internal/usecase"
)

func newConnectCmd() *cobra.Command {
	var (
		settings clientSettings
		scan     bool
		deviceID string
		info     bool
	)
	cmd := &cobra.Command{
		Use:   "connect [command...]",
		Short: "Open a session with a device; run command in batch mode when given",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.applyEnv(cmd); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			opts := socketclient.DefaultOptions()
			if info {
				opts.Info = os.Stdout
			}

			target, err := resolveTarget(ctx, settings, scan, deviceID)
			if err != nil {
				return reportStartFailure(err)
			}
			client, err := socketclient.Dial(ctx, target, opts)
			if err != nil {
				return reportStartFailure(err)
			}
			defer client.Close()

			if len(args) > 0 {
				return runBatch(client, args, os.Stdout)
			}
			return runInteractive(ctx, client)
		},
	}
	settings.bind(cmd)
	cmd.Flags().BoolVar(&scan, "scan", false, "rescan the network before connecting")
	cmd.Flags().StringVar(&deviceID, "dev", "", "select a cached device by friendly or unique id")
	cmd.Flags().BoolVar(&info, "info", false, "print raw replies and their length")
	return cmd
}

func newScanCmd() *cobra.Command {
	var settings clientSettings
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover devices on the local network and rewrite the device cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.applyEnv(cmd); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			reg := newRegistry(settings)
			reg.ResolvePort()
			cache, err := reg.Discover(ctx)
			printRecords(os.Stdout, cache)
			return err
		},
	}
	settings.bind(cmd)
	return cmd
}

func newDevicesCmd() *cobra.Command {
	var settings clientSettings
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the cached devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.applyEnv(cmd); err != nil {
				return err
			}
			cache, err := newRegistry(settings).LoadCache()
			if err != nil {
				return err
			}
			printRecords(os.Stdout, cache)
			return nil
		},
	}
	settings.bind(cmd)
	return cmd
}

func newRegistry(s clientSettings) *usecase.ConnectionRegistry {
	return usecase.NewConnectionRegistry(usecase.RegistryDeps{
		Scanner:  scanner.NewTCPSweeper(s.port),
		Querier:  socketclient.Querier{Options: socketclient.DefaultOptions()},
		Cache:    repository.NewDeviceCacheFile(s.cachePath),
		Prompter: newLinePrompter(os.Stdout),
		Ports:    repository.NodePortSource{Path: s.nodeConfig},
	}, s.port)
}

func resolveTarget(ctx context.Context, s clientSettings, scan bool, deviceID string) (domain.ConnectionTarget, error) {
	if s.host != "" {
		return domain.ConnectionTarget{Host: s.host, Port: s.port}, nil
	}
	return newRegistry(s).AutoExecute(ctx, scan, deviceID)
}

func printRecords(w io.Writer, cache *domain.DeviceCache) {
	if cache == nil || cache.Len() == 0 {
		fmt.Fprintln(w, "no devices")
		return
	}
	for i, rec := range cache.Records() {
		fmt.Fprintf(w, "[%d] %s\t%s\t%s\t%s\n", i, rec.FriendlyID, rec.Address, rec.UniqueID, rec.Metadata)
	}
}

func reportStartFailure(err error) error {
	fmt.Fprintf(os.Stderr, "FAILED TO START: %v\n", err)
	return ErrReported
}

// runBatch sends args as one command line and prints the stripped reply.
func runBatch(client *socketclient.Client, args []string, out io.Writer) error {
	reply, err := client.RunCommand(strings.Join(args, " "), socketclient.Batch)
	if text := reply.Text(); text != "" {
		fmt.Fprintln(out, text)
	}
	if errors.Is(err, domain.ErrSessionClosed) {
		return nil
	}
	return err
}

func runInteractive(ctx context.Context, client *socketclient.Client) error {
	greeting, err := client.Greeting()
	if err != nil {
		return reportStartFailure(err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "",
		HistoryFile:     filepath.Join(os.TempDir(), "micros-shell.history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()
	stop := context.AfterFunc(ctx, func() { _ = rl.Close() })
	defer stop()

	rl.SetPrompt(present(rl.Stdout(), greeting))
	sessionVerbosity := verbosity

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)

		if tokens, perr := shlex.Split(line); perr == nil && len(tokens) > 0 && tokens[0] == "log" {
			if err := handleShellLog(tokens[1:], &sessionVerbosity); err != nil {
				fmt.Fprintf(rl.Stdout(), "log: %v\n", err)
			}
			continue
		}

		reply, err := client.RunCommand(line, socketclient.Interactive)
		if errors.Is(err, domain.ErrSessionClosed) {
			fmt.Fprintln(rl.Stdout(), "exiting...")
			return nil
		}
		if err != nil {
			return err
		}
		if prompt := present(rl.Stdout(), reply); prompt != "" {
			rl.SetPrompt(prompt)
		}
	}
}

// present prints every reply line but the last and returns the last one,
// which is the device prompt.
func present(w io.Writer, reply socketclient.Reply) string {
	if len(reply.Lines) == 0 {
		return ""
	}
	last := len(reply.Lines) - 1
	for _, l := range reply.Lines[:last] {
		fmt.Fprintln(w, l)
	}
	return reply.Lines[last]
}

func handleShellLog(args []string, sessionVerbosity *int) error {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var vcount int
	var level string
	var show bool
	fs.CountVarP(&vcount, "verbose", "v", "Increase verbosity (-v... up to 4)")
	fs.StringVar(&level, "level", "", "set level (error|warn|info|debug|trace)")
	fs.BoolVarP(&show, "show", "s", false, "show the current level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case show && vcount == 0 && level == "":
		fmt.Printf("log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
		return nil
	case level != "":
		_, count, err := logging.ParseLevel(level)
		if err != nil {
			return err
		}
		*sessionVerbosity = count
	case vcount > 0:
		*sessionVerbosity = vcount
	default:
		fmt.Printf("log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
		return nil
	}

	verbosity = *sessionVerbosity
	logging.SetVerbosity(verbosity)
	fmt.Printf("log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
	return nil
}
