package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"micros-shell/internal/adapter/secondary/socketclient"
	"micros-shell/internal/domain"
)

func TestLoadDotEnvIgnoresMissingFile(t *testing.T) {
	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, loadDotEnv(""))
}

func TestLoadDotEnvSetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MICROS_TEST_ONLY=192.168.1.7\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("MICROS_TEST_ONLY") })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "192.168.1.7", os.Getenv("MICROS_TEST_ONLY"))
}

func TestApplyEnvKeepsExplicitFlags(t *testing.T) {
	t.Setenv(EnvHost, "10.0.0.9")
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvDeviceCache, "/tmp/devices.yaml")

	var s clientSettings
	cmd := &cobra.Command{Use: "x"}
	s.bind(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--port", "9200"}))
	require.NoError(t, s.applyEnv(cmd))

	assert.Equal(t, "10.0.0.9", s.host)
	assert.Equal(t, 9200, s.port)
	assert.Equal(t, "/tmp/devices.yaml", s.cachePath)
}

func TestApplyEnvRejectsBadPort(t *testing.T) {
	t.Setenv(EnvPort, "nine")

	var s clientSettings
	cmd := &cobra.Command{Use: "x"}
	s.bind(cmd)
	require.Error(t, s.applyEnv(cmd))
}

func TestLinePrompterChoose(t *testing.T) {
	var out bytes.Buffer
	var gotPrompt string
	p := &linePrompter{out: &out, readLine: func(prompt string) (string, error) {
		gotPrompt = prompt
		return " 1\n", nil
	}}

	idx, err := p.Choose([]string{"[0] Device: a", "[1] Device: b"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, choosePrompt, gotPrompt)
	assert.Equal(t, "[0] Device: a\n[1] Device: b\n", out.String())
}

func TestLinePrompterRejectsNonNumber(t *testing.T) {
	p := &linePrompter{out: &bytes.Buffer{}, readLine: func(string) (string, error) { return "first", nil }}
	_, err := p.Choose([]string{"[0] Device: a"})
	assert.ErrorIs(t, err, domain.ErrInvalidSelection)

	readErr := errors.New("eof")
	p.readLine = func(string) (string, error) { return "", readErr }
	_, err = p.Choose(nil)
	assert.ErrorIs(t, err, readErr)
}

func TestPresentReturnsPrompt(t *testing.T) {
	var out bytes.Buffer
	prompt := present(&out, socketclient.Reply{Lines: []string{"node01 $ 1+2 = 3", "node01 $ "}})
	assert.Equal(t, "node01 $ ", prompt)
	assert.Equal(t, "node01 $ 1+2 = 3\n", out.String())

	assert.Empty(t, present(&out, socketclient.Reply{}))
}

func TestPrintRecords(t *testing.T) {
	var out bytes.Buffer
	printRecords(&out, domain.NewDeviceCache())
	assert.Equal(t, "no devices\n", out.String())

	cache := domain.NewDeviceCache()
	cache.Put(domain.DeviceRecord{UniqueID: "u1", Address: "10.0.0.2", Metadata: "eth0", FriendlyID: "node01"})
	out.Reset()
	printRecords(&out, cache)
	assert.Equal(t, "[0] node01\t10.0.0.2\tu1\teth0\n", out.String())
}

// fakeDevice greets with a prompt and answers each line with its echo.
func fakeDevice(t *testing.T) domain.ConnectionTarget {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte("node01 $ "))
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			line := sc.Text()
			if line == "exit" {
				_, _ = conn.Write([]byte("\x00"))
				return
			}
			_, _ = conn.Write([]byte("node01 $ " + line + "\nnode01 $ "))
		}
	}()
	return domain.ConnectionTarget{Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port}
}

func TestRunBatchJoinsArguments(t *testing.T) {
	target := fakeDevice(t)
	client, err := socketclient.Dial(context.Background(), target, socketclient.Options{
		FlushDelay:  time.Millisecond,
		PollTimeout: 50 * time.Millisecond,
		MaxWait:     time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	var out bytes.Buffer
	require.NoError(t, runBatch(client, []string{"commands", "addnumbs", "1", "2"}, &out))
	assert.Equal(t, "commands addnumbs 1 2", strings.TrimSpace(out.String()))
}

func TestReportStartFailure(t *testing.T) {
	err := reportStartFailure(domain.ErrNoDevices)
	assert.ErrorIs(t, err, ErrReported)
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"device", "connect", "scan", "devices"})
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}
