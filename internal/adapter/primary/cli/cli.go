package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"micros-shell/internal/config"
	"micros-shell/internal/logging"
)

// Environment overrides for the client side.
const (
	EnvHost        = "MICROS_HOST"
	EnvPort        = "MICROS_PORT"
	EnvDeviceCache = "MICROS_DEVICE_CACHE"
	EnvNodeConfig  = "MICROS_NODE_CONFIG"
)

// ErrReported is returned once a failure was already printed for the user.
var ErrReported = errors.New("failure reported")

var (
	envPath   string
	verbosity int
)

// NewRootCmd creates the root CLI command.
// This is the primary adapter that translates CLI inputs to use case calls.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "micros-shell",
		Short:         "Device shell daemon and line protocol client",
		Long:          "Runs a device command shell with timer and pin interrupts, and discovers and talks to such devices over TCP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&envPath, "env", ".env", "dotenv file with MICROS_* overrides")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v, -vv, ... up to 4)")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		logging.SetVerbosity(verbosity)
		return loadDotEnv(envPath)
	}

	cmd.AddCommand(
		newDeviceCmd(),
		newConnectCmd(),
		newScanCmd(),
		newDevicesCmd(),
	)
	return cmd
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// clientSettings are the connection settings shared by the client commands.
type clientSettings struct {
	host       string
	port       int
	cachePath  string
	nodeConfig string
}

func (s *clientSettings) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.host, "host", "", "connect to this host and skip discovery ($"+EnvHost+")")
	cmd.Flags().IntVar(&s.port, "port", config.DefaultPort, "device shell port ($"+EnvPort+")")
	cmd.Flags().StringVar(&s.cachePath, "cache", config.DefaultCachePath(), "device cache file ($"+EnvDeviceCache+")")
	cmd.Flags().StringVar(&s.nodeConfig, "node-config", config.DefaultNodePath(), "local node config to read socport from ($"+EnvNodeConfig+")")
}

// applyEnv fills the flags the user did not set from the environment.
func (s *clientSettings) applyEnv(cmd *cobra.Command) error {
	if v, ok := os.LookupEnv(EnvHost); ok && !cmd.Flags().Changed("host") {
		s.host = v
	}
	if v, ok := os.LookupEnv(EnvPort); ok && !cmd.Flags().Changed("port") {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvPort, v, err)
		}
		s.port = port
	}
	if v, ok := os.LookupEnv(EnvDeviceCache); ok && !cmd.Flags().Changed("cache") {
		s.cachePath = v
	}
	if v, ok := os.LookupEnv(EnvNodeConfig); ok && !cmd.Flags().Changed("node-config") {
		s.nodeConfig = v
	}
	return nil
}
