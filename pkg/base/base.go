// Package base speaks the mobile base's websocket protocol: binary
// protobuf frames, ApiDown going out and ApiUp coming back.
package base

import (
	"fmt"
	"net"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/zhishengyifeng/community-robot-demos/pkg/basepb"
)

const writeWait = 10 * time.Second

// Base is a live connection to the mobile base. Receive may run
// concurrently with Send; a single mutex serializes all writes.
type Base struct {
	writeMu sync.Mutex
	conn    *ws.Conn
	closed  bool
}

// Dial connects to the base's websocket endpoint.
func Dial(rawURL string) (*Base, error) {
	conn, _, err := ws.DefaultDialer.Dial(rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial base: %w", err)
	}

	// Command frames are tiny and latency-sensitive, don't let the
	// kernel batch them.
	if tcp, ok := conn.NetConn().(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	return &Base{conn: conn}, nil
}

// Send encodes and writes a single command frame.
func (b *Base) Send(m *basepb.ApiDown) error {
	raw := basepb.MarshalApiDown(m)

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.closed {
		return fmt.Errorf("send: connection closed")
	}
	if err := b.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := b.conn.WriteMessage(ws.BinaryMessage, raw); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// Receive blocks until the next status frame arrives and decodes it.
// Non-binary frames are skipped; a frame that fails to decode is an
// error, the stream is not trustworthy past it.
func (b *Base) Receive() (*basepb.ApiUp, error) {
	for {
		msgType, raw, err := b.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		if msgType != ws.BinaryMessage {
			continue
		}
		up, err := basepb.UnmarshalApiUp(raw)
		if err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
		return up, nil
	}
}

// Close sends a best-effort close frame and tears down the connection.
func (b *Base) Close() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = b.conn.WriteMessage(
		ws.CloseMessage,
		ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
	)
	return b.conn.Close()
}
