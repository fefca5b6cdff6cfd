// Package transporttest provides an in-memory transport.Dialer whose
// connections are driven by the test acting as the remote gateway.
package transporttest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/gatewayctl/internal/transport"
)

const defaultWait = 2 * time.Second

// Dialer records every dial and hands the resulting Conn to the test.
type Dialer struct {
	mu       sync.Mutex
	urls     []string
	failures []error
	conns    chan *Conn
}

func NewDialer() *Dialer {
	return &Dialer{conns: make(chan *Conn, 32)}
}

// FailNext makes the next dial return err.
func (d *Dialer) FailNext(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = append(d.failures, err)
}

func (d *Dialer) Dial(ctx context.Context, url string) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.urls = append(d.urls, url)
	if len(d.failures) > 0 {
		err := d.failures[0]
		d.failures = d.failures[1:]
		d.mu.Unlock()
		return nil, err
	}
	d.mu.Unlock()

	c := newConn(url)
	d.conns <- c
	return c, nil
}

// URLs returns every URL dialed so far, including failed dials.
func (d *Dialer) URLs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.urls))
	copy(out, d.urls)
	return out
}

// Next waits for the next successfully dialed connection.
func (d *Dialer) Next(t testing.TB) *Conn {
	t.Helper()
	select {
	case c := <-d.conns:
		return c
	case <-time.After(defaultWait):
		t.Fatalf("transporttest: no dial within %v", defaultWait)
		return nil
	}
}

// ExpectNoDial fails the test if a connection is dialed within wait.
func (d *Dialer) ExpectNoDial(t testing.TB, wait time.Duration) {
	t.Helper()
	select {
	case c := <-d.conns:
		t.Fatalf("transporttest: unexpected dial to %s", c.URL)
	case <-time.After(wait):
	}
}

// LocalClose records a close initiated by the client side.
type LocalClose struct {
	Code   int
	Reason string
}

// Conn is one in-memory connection. The test plays the remote end.
type Conn struct {
	URL string

	inbound  chan []byte
	outbound chan []byte
	closed   chan struct{}

	mu         sync.Mutex
	closeErr   *transport.CloseError
	localClose *LocalClose
}

func newConn(url string) *Conn {
	return &Conn{
		URL:      url,
		inbound:  make(chan []byte, 64),
		outbound: make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
}

func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	default:
	}
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.closed:
		c.mu.Lock()
		defer c.mu.Unlock()
		return nil, c.closeErr
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Conn) Write(ctx context.Context, data []byte) error {
	select {
	case <-c.closed:
		return transport.ErrClosed
	default:
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	select {
	case c.outbound <- buf:
		return nil
	case <-c.closed:
		return transport.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) Close(code int, reason string) error {
	c.mu.Lock()
	if c.localClose == nil {
		c.localClose = &LocalClose{Code: code, Reason: reason}
	}
	c.mu.Unlock()
	c.finish(&transport.CloseError{Code: code, Reason: reason, Clean: true})
	return nil
}

func (c *Conn) finish(err *transport.CloseError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return
	default:
	}
	c.closeErr = err
	close(c.closed)
}

// Push delivers one raw text frame to the client.
func (c *Conn) Push(t testing.TB, raw string) {
	t.Helper()
	select {
	case c.inbound <- []byte(raw):
	case <-time.After(defaultWait):
		t.Fatalf("transporttest: inbound buffer full")
	}
}

// PushJSON marshals v and delivers it to the client.
func (c *Conn) PushJSON(t testing.TB, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("transporttest: marshal: %v", err)
	}
	c.Push(t, string(raw))
}

// Expect waits for the next frame the client wrote.
func (c *Conn) Expect(t testing.TB) []byte {
	t.Helper()
	return c.ExpectWithin(t, defaultWait)
}

func (c *Conn) ExpectWithin(t testing.TB, wait time.Duration) []byte {
	t.Helper()
	select {
	case data := <-c.outbound:
		return data
	case <-time.After(wait):
		t.Fatalf("transporttest: no frame written within %v", wait)
		return nil
	}
}

// ExpectNothing fails if the client writes a frame within wait.
func (c *Conn) ExpectNothing(t testing.TB, wait time.Duration) {
	t.Helper()
	select {
	case data := <-c.outbound:
		t.Fatalf("transporttest: unexpected frame %s", data)
	case <-time.After(wait):
	}
}

// DropUnclean ends the connection without a close frame.
func (c *Conn) DropUnclean() {
	c.finish(&transport.CloseError{
		Code:  transport.StatusAbnormalClosure,
		Clean: false,
		Err:   errors.New("transporttest: connection reset"),
	})
}

// CloseRemote ends the connection with a close frame from the remote.
func (c *Conn) CloseRemote(code int, reason string) {
	c.finish(&transport.CloseError{Code: code, Reason: reason, Clean: true})
}

// Closed is closed once either side closed the connection.
func (c *Conn) Closed() <-chan struct{} {
	return c.closed
}

// WaitClosed waits for the connection to close and returns the client's
// close, if the client initiated it.
func (c *Conn) WaitClosed(t testing.TB) *LocalClose {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(defaultWait):
		t.Fatalf("transporttest: connection not closed within %v", defaultWait)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.localClose
}
