// Package streamtest provides an in-memory stream.Dialer for tests.
package streamtest

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rusenback/docker-console/internal/stream"
)

// ErrConnClosed is returned by reads and writes on a closed Conn.
var ErrConnClosed = errors.New("streamtest: connection closed")

// Dial records one Dial call.
type Dial struct {
	Target string
	Mode   stream.Mode
	Conn   *Conn
}

// Dialer hands out Conns and records every dial.
type Dialer struct {
	mu    sync.Mutex
	dials []Dial
	err   error
	block chan struct{}
	// stall is handed to new Conns to hold their writes.
	stall chan struct{}
}

// NewDialer creates a Dialer whose dials succeed immediately.
func NewDialer() *Dialer {
	return &Dialer{}
}

// FailWith makes subsequent dials fail with err.
func (d *Dialer) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// Block makes subsequent dials wait until Release is called or the dial
// context is cancelled.
func (d *Dialer) Block() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.block = make(chan struct{})
}

// Release unblocks pending and future dials.
func (d *Dialer) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.block != nil {
		close(d.block)
		d.block = nil
	}
}

// StallWrites makes writes on Conns dialed from now on wait until
// ResumeWrites is called.
func (d *Dialer) StallWrites() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stall = make(chan struct{})
}

// ResumeWrites releases stalled writes.
func (d *Dialer) ResumeWrites() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stall != nil {
		close(d.stall)
		d.stall = nil
	}
}

// Dial implements stream.Dialer.
func (d *Dialer) Dial(ctx context.Context, target string, mode stream.Mode) (stream.Conn, error) {
	d.mu.Lock()
	block := d.block
	d.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		d.dials = append(d.dials, Dial{Target: target, Mode: mode})
		return nil, d.err
	}

	conn := NewConn()
	conn.stall = d.stall
	d.dials = append(d.dials, Dial{Target: target, Mode: mode, Conn: conn})
	return conn, nil
}

// Dials returns the recorded dials in call order.
func (d *Dialer) Dials() []Dial {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Dial, len(d.dials))
	copy(out, d.dials)
	return out
}

// Last returns the Conn of the most recent successful dial, or nil.
func (d *Dialer) Last() *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.dials) - 1; i >= 0; i-- {
		if d.dials[i].Conn != nil {
			return d.dials[i].Conn
		}
	}
	return nil
}

type read struct {
	msg stream.Message
	err error
}

// Conn is an in-memory stream.Conn driven by the test. Pushed messages and
// End/Fail are observed by the reader in the order they were queued.
type Conn struct {
	inbound chan read
	closed  chan struct{}

	mu        sync.Mutex
	written   []stream.Message
	isClosed  bool
	gate      chan struct{}
	inFlight  int
	stall     chan struct{}
	stalled   int
	closeOnce sync.Once
}

// NewConn creates an open Conn.
func NewConn() *Conn {
	return &Conn{
		inbound: make(chan read, 64),
		closed:  make(chan struct{}),
	}
}

// Push queues an inbound message.
func (c *Conn) Push(msg stream.Message) {
	c.inbound <- read{msg: msg}
}

// End makes the next read report a clean remote close.
func (c *Conn) End() {
	c.inbound <- read{err: io.EOF}
}

// Fail makes the next read fail with err.
func (c *Conn) Fail(err error) {
	c.inbound <- read{err: err}
}

// Hold makes reads stop after taking a message off the queue until Unhold is
// called, so a test can close the handle while a message is in flight.
func (c *Conn) Hold() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gate = make(chan struct{})
}

// Unhold releases held reads.
func (c *Conn) Unhold() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gate != nil {
		close(c.gate)
		c.gate = nil
	}
}

// InFlight returns the number of reads currently held.
func (c *Conn) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// ReadMessage implements stream.Conn.
func (c *Conn) ReadMessage() (stream.Message, error) {
	select {
	case r := <-c.inbound:
		if r.err != nil {
			return stream.Message{}, r.err
		}
		return c.release(r.msg), nil
	case <-c.closed:
		return stream.Message{}, ErrConnClosed
	}
}

func (c *Conn) release(msg stream.Message) stream.Message {
	c.mu.Lock()
	gate := c.gate
	if gate != nil {
		c.inFlight++
	}
	c.mu.Unlock()

	if gate == nil {
		return msg
	}

	<-gate

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
	return msg
}

// Stalled returns the number of writes waiting on StallWrites.
func (c *Conn) Stalled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stalled
}

// WriteMessage implements stream.Conn.
func (c *Conn) WriteMessage(msg stream.Message) error {
	c.mu.Lock()
	stall := c.stall
	if stall != nil {
		c.stalled++
	}
	c.mu.Unlock()

	if stall != nil {
		select {
		case <-stall:
		case <-c.closed:
		}
		c.mu.Lock()
		c.stalled--
		c.mu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isClosed {
		return ErrConnClosed
	}
	c.written = append(c.written, msg)
	return nil
}

// Close implements stream.Conn.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.isClosed = true
		c.mu.Unlock()
		close(c.closed)
	})
	return nil
}

// Closed reports whether Close has been called.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isClosed
}

// Written returns the messages written so far.
func (c *Conn) Written() []stream.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]stream.Message, len(c.written))
	copy(out, c.written)
	return out
}

// WaitFor polls cond until it holds or the timeout elapses.
func WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
