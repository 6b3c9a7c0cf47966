package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

// DefaultReadLimit bounds a single inbound frame. It must exceed the encoded
// chunk size plus envelope overhead.
const DefaultReadLimit = 4 << 20

// WebSocket is a Transport over text frames carrying JSON messages.
type WebSocket struct {
	conn *websocket.Conn
}

// NewWebSocket wraps an accepted or dialled connection.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	conn.SetReadLimit(DefaultReadLimit)
	return &WebSocket{conn: conn}
}

// Accept upgrades an HTTP request into a WebSocket transport.
func Accept(w http.ResponseWriter, r *http.Request, opts *websocket.AcceptOptions) (*WebSocket, error) {
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		return nil, fmt.Errorf("accept websocket: %w", err)
	}
	return NewWebSocket(conn), nil
}

// Dial connects to a stream endpoint.
func Dial(ctx context.Context, url string, header http.Header) (*WebSocket, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWebSocket(conn), nil
}

func (w *WebSocket) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	if err := w.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return translate(err)
	}
	return nil
}

func (w *WebSocket) Receive(ctx context.Context) (Message, error) {
	for {
		typ, data, err := w.conn.Read(ctx)
		if err != nil {
			return Message{}, translate(err)
		}
		if typ != websocket.MessageText {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return Message{}, fmt.Errorf("decode message: %w", err)
		}
		return msg, nil
	}
}

func (w *WebSocket) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}

func translate(err error) error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return ErrClosed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("websocket: %w", err)
}
