package socketclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"micros-shell/internal/domain"
	"micros-shell/internal/logging"
)

const (
	// HardClose is the reply a device sends when it ends the session.
	HardClose = "\x00"
	// PromptSeparator separates the device prompt from the message on each line.
	PromptSeparator = " $"
	// PromptTerminator ends every prompt; a reply is complete once the buffer
	// ends with it.
	PromptTerminator = "$ "
	// ExitCommand releases the remote session.
	ExitCommand = "exit"
)

// Mode selects how replies are drained.
type Mode int

const (
	// Batch accumulates until the prompt terminator and strips prompts.
	Batch Mode = iota
	// Interactive reads once per command and shows the raw lines.
	Interactive
)

// Options tune the connection timing.
type Options struct {
	DialTimeout time.Duration
	// FlushDelay is waited before each read to let the peer flush.
	FlushDelay time.Duration
	// PollTimeout bounds a single read.
	PollTimeout time.Duration
	// MaxWait bounds a whole batch reply.
	MaxWait time.Duration
	BufSize int
	// Info receives the raw reply and its length when set.
	Info io.Writer
}

// DefaultOptions returns the timings used by the command line client.
func DefaultOptions() Options {
	return Options{
		DialTimeout: 3 * time.Second,
		FlushDelay:  100 * time.Millisecond,
		PollTimeout: 2 * time.Second,
		MaxWait:     10 * time.Second,
		BufSize:     4096,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DialTimeout <= 0 {
		o.DialTimeout = d.DialTimeout
	}
	if o.FlushDelay < 0 {
		o.FlushDelay = 0
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = d.PollTimeout
	}
	if o.MaxWait <= 0 {
		o.MaxWait = d.MaxWait
	}
	if o.BufSize <= 0 {
		o.BufSize = d.BufSize
	}
	return o
}

// Reply is one drained response.
type Reply struct {
	// Raw is the received text as is.
	Raw string
	// Lines are the presented lines: raw lines in interactive mode, prompt
	// stripped lines in batch mode.
	Lines []string
}

// Text joins Lines with newlines.
func (r Reply) Text() string { return strings.Join(r.Lines, "\n") }

// Client is a line protocol session with one device. The connection is
// opened by Dial and used by one goroutine at a time.
type Client struct {
	conn net.Conn
	opts Options
	log  zerolog.Logger
	buf  []byte

	mu      sync.Mutex
	closed  bool
	greeted bool
}

// Dial opens a session with target.
func Dial(ctx context.Context, target domain.ConnectionTarget, opts Options) (*Client, error) {
	opts = opts.withDefaults()
	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", target.Address())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	return newClient(conn, opts), nil
}

func newClient(conn net.Conn, opts Options) *Client {
	return &Client{
		conn: conn,
		opts: opts,
		log:  logging.For("client").With().Str("remote", conn.RemoteAddr().String()).Logger(),
		buf:  make([]byte, opts.BufSize),
	}
}

// Greeting reads the prompt the device sends on connect.
func (c *Client) Greeting() (Reply, error) {
	raw, err := c.readOnce()
	if err != nil {
		return Reply{}, err
	}
	if strings.HasSuffix(raw, PromptTerminator) {
		c.greeted = true
	}
	return c.finish(raw, Interactive)
}

// RunCommand sends cmd and drains the reply according to mode. It returns
// domain.ErrSessionClosed after the device sent the hard-close marker; the
// connection is closed at that point.
func (c *Client) RunCommand(cmd string, mode Mode) (Reply, error) {
	if c.isClosed() {
		return Reply{}, domain.ErrSessionClosed
	}
	if err := c.send(cmd); err != nil {
		return Reply{}, err
	}

	var (
		raw string
		err error
	)
	if mode == Interactive {
		raw, err = c.readOnce()
	} else {
		raw, err = c.readBatch()
	}
	if err != nil && !errors.Is(err, domain.ErrReplyTimeout) {
		return Reply{}, err
	}
	reply, ferr := c.finish(raw, mode)
	if ferr != nil {
		return reply, ferr
	}
	return reply, err
}

func (c *Client) send(cmd string) error {
	line := strings.TrimRight(cmd, "\r\n") + "\n"
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.PollTimeout)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	if _, err := io.WriteString(c.conn, line); err != nil {
		return fmt.Errorf("%w: send %q: %v", domain.ErrConnection, cmd, err)
	}
	return nil
}

// readOnce waits for the flush delay and reads whatever arrived. A silent
// peer yields an empty string.
func (c *Client) readOnce() (string, error) {
	time.Sleep(c.opts.FlushDelay)
	chunk, err := c.read()
	if err != nil && !isTimeout(err) {
		if errors.Is(err, io.EOF) && chunk != "" {
			return chunk, nil
		}
		return chunk, fmt.Errorf("%w: %v", domain.ErrConnection, err)
	}
	return chunk, nil
}

// readBatch accumulates until new content ends with the prompt terminator.
// Until the greeting was seen, everything up to the first terminator is the
// connect greeting when it carries no content; it does not end the reply.
func (c *Client) readBatch() (string, error) {
	var acc strings.Builder
	skip := 0
	deadline := time.Now().Add(c.opts.MaxWait)

	for {
		if time.Now().After(deadline) {
			return acc.String(), fmt.Errorf("%w after %s", domain.ErrReplyTimeout, c.opts.MaxWait)
		}
		time.Sleep(c.opts.FlushDelay)
		chunk, err := c.read()
		acc.WriteString(chunk)
		s := acc.String()
		c.log.Trace().Str("buffer", s).Msg("batch read")

		if !c.greeted {
			if idx := strings.Index(s, PromptTerminator); idx >= 0 {
				c.greeted = true
				if head := s[:idx+len(PromptTerminator)]; len(StripPrompts(head)) == 0 {
					skip = len(head)
				}
			}
		}

		if strings.Contains(s, HardClose) {
			return s, nil
		}
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, io.EOF) && len(s) > skip {
				return s, nil
			}
			return s, fmt.Errorf("%w: %v", domain.ErrConnection, err)
		}
		if len(s) > skip && strings.HasSuffix(s, PromptTerminator) {
			return s, nil
		}
	}
}

func (c *Client) read() (string, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.PollTimeout)); err != nil {
		return "", err
	}
	n, err := c.conn.Read(c.buf)
	return string(c.buf[:n]), err
}

func (c *Client) finish(raw string, mode Mode) (Reply, error) {
	if c.opts.Info != nil {
		fmt.Fprintf(c.opts.Info, "got: %q\nreceived: %d\n", raw, len(raw))
	}
	if !utf8.ValidString(raw) {
		return Reply{Raw: raw}, fmt.Errorf("%w: %d bytes", domain.ErrDecode, len(raw))
	}
	if strings.Contains(raw, HardClose) {
		c.log.Debug().Msg("device closed the session")
		c.closeNow()
		return Reply{Raw: raw}, domain.ErrSessionClosed
	}

	if mode == Interactive {
		return Reply{Raw: raw, Lines: strings.Split(raw, "\n")}, nil
	}
	return Reply{Raw: raw, Lines: StripPrompts(raw)}, nil
}

// Close sends the exit command and closes the connection.
func (c *Client) Close() error {
	if c.isClosed() {
		return nil
	}
	if err := c.send(ExitCommand); err != nil {
		c.log.Debug().Err(err).Msg("exit not delivered")
	}
	return c.closeNow()
}

func (c *Client) closeNow() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// StripPrompts splits raw into lines, removes everything up to the last
// prompt separator of each line, and drops lines left empty.
func StripPrompts(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if idx := strings.LastIndex(line, PromptSeparator); idx >= 0 {
			line = line[idx+len(PromptSeparator):]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout())
}

// Querier implements domain.DeviceQuerier with one short-lived session per
// query.
type Querier struct {
	Options Options
}

var _ domain.DeviceQuerier = Querier{}

// Query dials target, runs command in batch mode and closes the session.
func (q Querier) Query(ctx context.Context, target domain.ConnectionTarget, command string) (string, error) {
	c, err := Dial(ctx, target, q.Options)
	if err != nil {
		return "", err
	}
	stop := context.AfterFunc(ctx, func() { _ = c.closeNow() })
	defer stop()
	defer c.Close()

	reply, err := c.RunCommand(command, Batch)
	if err != nil {
		return reply.Text(), err
	}
	return reply.Text(), nil
}
