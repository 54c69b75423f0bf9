package simconn

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// DefaultHandshakeTimeout bounds the websocket opening handshake.
	DefaultHandshakeTimeout = 5 * time.Second

	// DefaultWriteTimeout bounds a single outbound frame.
	DefaultWriteTimeout = 10 * time.Second

	// maxFrameSize caps inbound frames; simulation frames are one short line.
	maxFrameSize = 4096
)

// Conn is one established simulation connection.
type Conn interface {
	// ReadMessage blocks for the next text frame. It returns io.EOF when the
	// peer closed the connection normally.
	ReadMessage() (string, error)
	WriteMessage(text string) error
	Close() error
}

// Dialer opens simulation connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials simulations over gorilla/websocket.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// Dial opens a websocket to url.
func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	handshake := d.HandshakeTimeout
	if handshake <= 0 {
		handshake = DefaultHandshakeTimeout
	}
	write := d.WriteTimeout
	if write <= 0 {
		write = DefaultWriteTimeout
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshake,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("simconn: dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxFrameSize)

	return &wsConn{conn: conn, writeTimeout: write}, nil
}

type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (c *wsConn) ReadMessage() (string, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return "", io.EOF
		}
		return "", err
	}
	return string(data), nil
}

func (c *wsConn) WriteMessage(text string) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Close sends a best-effort close frame before dropping the socket.
func (c *wsConn) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	// Peer may already be gone; the socket is released either way.
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
