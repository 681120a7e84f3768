package socketclient

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"micros-shell/internal/domain"
)

const prompt = "node01 $ "

func fastOptions() Options {
	return Options{
		DialTimeout: time.Second,
		FlushDelay:  2 * time.Millisecond,
		PollTimeout: 50 * time.Millisecond,
		MaxWait:     500 * time.Millisecond,
	}
}

// fakeDevice serves one connection with handle and returns its address and
// the commands it received.
func fakeDevice(t *testing.T, handle func(conn net.Conn, lines <-chan string)) (domain.ConnectionTarget, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	seen := make(chan string, 16)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		lines := make(chan string, 16)
		go func() {
			defer close(lines)
			sc := bufio.NewScanner(conn)
			for sc.Scan() {
				seen <- sc.Text()
				lines <- sc.Text()
			}
		}()
		handle(conn, lines)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return domain.ConnectionTarget{Host: "127.0.0.1", Port: addr.Port}, seen
}

// shell answers every command with reply(cmd) followed by the prompt.
func shell(reply func(cmd string) string) func(net.Conn, <-chan string) {
	return func(conn net.Conn, lines <-chan string) {
		_, _ = io.WriteString(conn, prompt)
		for cmd := range lines {
			if cmd == ExitCommand {
				_, _ = io.WriteString(conn, HardClose)
				return
			}
			_, _ = io.WriteString(conn, reply(cmd)+prompt)
		}
	}
}

func dial(t *testing.T, target domain.ConnectionTarget, opts Options) *Client {
	t.Helper()
	c, err := Dial(context.Background(), target, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBatchStripsPrompts(t *testing.T) {
	target, _ := fakeDevice(t, shell(func(cmd string) string {
		return prompt + "hello:node01:uid-1\n" + prompt + "second line\n"
	}))
	c := dial(t, target, fastOptions())

	reply, err := c.RunCommand("hello", Batch)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello:node01:uid-1", "second line"}, reply.Lines)
	assert.True(t, strings.HasSuffix(reply.Raw, prompt))
}

func TestBatchWaitsPastIdlePrompt(t *testing.T) {
	target, _ := fakeDevice(t, func(conn net.Conn, lines <-chan string) {
		_, _ = io.WriteString(conn, prompt)
		<-lines
		time.Sleep(120 * time.Millisecond)
		_, _ = io.WriteString(conn, prompt+"late")
		time.Sleep(60 * time.Millisecond)
		_, _ = io.WriteString(conn, " reply\n"+prompt)
		<-lines
	})
	c := dial(t, target, fastOptions())

	reply, err := c.RunCommand("version", Batch)
	require.NoError(t, err)
	assert.Equal(t, []string{"late reply"}, reply.Lines)
}

func TestBatchPromptOnlyReply(t *testing.T) {
	target, _ := fakeDevice(t, func(conn net.Conn, lines <-chan string) {
		_, _ = io.WriteString(conn, prompt)
		<-lines
		_, _ = io.WriteString(conn, "[configure] "+prompt)
		<-lines
	})
	c := dial(t, target, fastOptions())

	reply, err := c.Greeting()
	require.NoError(t, err)
	assert.Equal(t, []string{prompt}, reply.Lines)

	reply, err = c.RunCommand("conf", Batch)
	require.NoError(t, err)
	assert.Empty(t, reply.Lines)
	assert.Equal(t, "[configure] "+prompt, reply.Raw)
}

func TestBatchPromptOnlyReplyJoinedWithGreeting(t *testing.T) {
	target, _ := fakeDevice(t, func(conn net.Conn, lines <-chan string) {
		<-lines
		_, _ = io.WriteString(conn, prompt+"[configure] "+prompt)
		<-lines
	})
	c := dial(t, target, fastOptions())

	start := time.Now()
	reply, err := c.RunCommand("conf", Batch)
	require.NoError(t, err)
	assert.Empty(t, reply.Lines)
	assert.Less(t, time.Since(start), fastOptions().MaxWait)
}

func TestBatchTimeoutInsteadOfHang(t *testing.T) {
	target, _ := fakeDevice(t, func(conn net.Conn, lines <-chan string) {
		_, _ = io.WriteString(conn, prompt)
		for range lines {
		}
	})
	opts := fastOptions()
	opts.MaxWait = 150 * time.Millisecond
	c := dial(t, target, opts)

	_, err := c.RunCommand("hello", Batch)
	assert.ErrorIs(t, err, domain.ErrReplyTimeout)
}

func TestInteractiveShowsRawLines(t *testing.T) {
	target, _ := fakeDevice(t, shell(func(cmd string) string { return prompt + "Saved\n" }))
	c := dial(t, target, fastOptions())

	greet, err := c.Greeting()
	require.NoError(t, err)
	assert.Equal(t, prompt, greet.Raw)

	reply, err := c.RunCommand("devfid x", Interactive)
	require.NoError(t, err)
	assert.Equal(t, []string{prompt + "Saved", prompt}, reply.Lines)
}

func TestHardCloseEndsSession(t *testing.T) {
	target, _ := fakeDevice(t, shell(func(string) string { return "" }))
	c := dial(t, target, fastOptions())

	_, err := c.RunCommand(ExitCommand, Batch)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = c.RunCommand("hello", Batch)
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.NoError(t, c.Close())
}

func TestCloseSendsExit(t *testing.T) {
	target, seen := fakeDevice(t, shell(func(string) string { return "" }))
	c, err := Dial(context.Background(), target, fastOptions())
	require.NoError(t, err)

	require.NoError(t, c.Close())
	select {
	case cmd := <-seen:
		assert.Equal(t, ExitCommand, cmd)
	case <-time.After(time.Second):
		t.Fatal("exit not received")
	}
}

func TestInvalidUTF8IsDecodeError(t *testing.T) {
	target, _ := fakeDevice(t, func(conn net.Conn, lines <-chan string) {
		<-lines
		_, _ = conn.Write([]byte{0xff, 0xfe, '\n'})
		_, _ = io.WriteString(conn, prompt)
		<-lines
	})
	c := dial(t, target, fastOptions())

	_, err := c.RunCommand("hello", Interactive)
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestInfoWriterGetsRawReply(t *testing.T) {
	target, _ := fakeDevice(t, shell(func(string) string { return prompt + "0.1.0\n" }))
	var info bytes.Buffer
	opts := fastOptions()
	opts.Info = &info
	c := dial(t, target, opts)

	_, err := c.RunCommand("version", Batch)
	require.NoError(t, err)
	assert.Contains(t, info.String(), "got: ")
	assert.Contains(t, info.String(), "received: ")
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), domain.ConnectionTarget{Host: "127.0.0.1", Port: port}, fastOptions())
	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestQuerierReturnsCleanReply(t *testing.T) {
	target, seen := fakeDevice(t, shell(func(cmd string) string {
		return prompt + domain.FormatGreeting("node01", "uid-1") + "\n"
	}))

	text, err := Querier{Options: fastOptions()}.Query(context.Background(), target, domain.GreetingCommand)
	require.NoError(t, err)
	assert.Equal(t, "hello:node01:uid-1", text)
	assert.Equal(t, domain.GreetingCommand, <-seen)
	assert.Equal(t, ExitCommand, <-seen)
}

func TestStripPrompts(t *testing.T) {
	raw := "node01 $ node01 $ first\n[configure] node01 $ second\nplain\n\nnode01 $ "
	assert.Equal(t, []string{"first", "second", "plain"}, StripPrompts(raw))
}
