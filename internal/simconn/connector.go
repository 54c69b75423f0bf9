package simconn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
)

// State is the connection lifecycle state.
//
//	Disconnected --Connect--> Connecting --dial ok--> Connected
//	     ^                        |                       |
//	     +------ dial failed -----+------- closed --------+
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EventKind identifies a connector event.
type EventKind int

const (
	EventOpened EventKind = iota
	EventMessage
	EventClosed
)

// Event is delivered to the connector's handler. Events of one connection
// are delivered sequentially from a single goroutine, in arrival order.
type Event struct {
	Kind EventKind
	Text string // EventMessage only
	Err  error  // EventClosed only; nil for a normal or locally requested close
}

// ErrNotConnected is returned by Send when no connection is open.
var ErrNotConnected = errors.New("simconn: not connected")

// Handler receives connector events.
type Handler func(Event)

// Connector owns the single simulation connection slot.
type Connector struct {
	url     string
	dialer  Dialer
	handler Handler

	mu     sync.Mutex
	state  State
	conn   Conn
	cancel context.CancelFunc

	writeMu sync.Mutex
}

// New creates a disconnected connector. A nil dialer uses WebsocketDialer.
func New(url string, dialer Dialer, handler Handler) *Connector {
	if dialer == nil {
		dialer = WebsocketDialer{}
	}
	if handler == nil {
		handler = func(Event) {}
	}
	return &Connector{
		url:     url,
		dialer:  dialer,
		handler: handler,
	}
}

// URL returns the simulation endpoint.
func (c *Connector) URL() string { return c.url }

// State returns the current lifecycle state.
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts opening a connection and returns immediately. It reports
// false, doing nothing, when a connection is already open or in progress.
// Completion is signalled by EventOpened or, on failure, EventClosed.
func (c *Connector) Connect(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	c.state = Connecting
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx)
	return true
}

// Close closes the open connection or abandons one in progress. The
// EventClosed for that connection is still delivered.
func (c *Connector) Close() error {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Send writes one text frame. Without an open connection the frame is
// dropped and ErrNotConnected returned. Failed writes are not retried.
func (c *Connector) Send(text string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(text); err != nil {
		return fmt.Errorf("simconn: send: %w", err)
	}
	return nil
}

func (c *Connector) run(ctx context.Context) {
	conn, err := c.dialer.Dial(ctx, c.url)
	if err != nil {
		c.reset(nil)
		if ctx.Err() != nil {
			err = nil
		} else {
			log.Printf("simconn: connect %s: %v", c.url, err)
		}
		c.handler(Event{Kind: EventClosed, Err: err})
		return
	}

	c.mu.Lock()
	if ctx.Err() != nil {
		// Close was requested while the handshake was in flight.
		c.mu.Unlock()
		conn.Close()
		c.reset(nil)
		c.handler(Event{Kind: EventClosed})
		return
	}
	c.conn = conn
	c.state = Connected
	c.mu.Unlock()

	log.Printf("simconn: connected to %s", c.url)
	c.handler(Event{Kind: EventOpened})

	var readErr error
	for {
		text, err := conn.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		c.handler(Event{Kind: EventMessage, Text: text})
	}

	requested := ctx.Err() != nil
	c.reset(conn)
	conn.Close()

	if requested || isNormalClose(readErr) {
		readErr = nil
	} else {
		log.Printf("simconn: connection lost: %v", readErr)
	}
	log.Printf("simconn: closing websocket connection")
	c.handler(Event{Kind: EventClosed, Err: readErr})
}

// reset returns the slot to Disconnected if it still belongs to conn.
func (c *Connector) reset(conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.conn = nil
	c.cancel = nil
	c.state = Disconnected
}

func isNormalClose(err error) bool {
	return err == nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
