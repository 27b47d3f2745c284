package channel

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds how long a single transport write may take before the
// connection is considered dead.
const writeWait = 10 * time.Second

// Transport is one open message-oriented connection. Read blocks until a
// message arrives or the connection fails; a failed connection returns an
// error from both Read and Write until Close.
type Transport interface {
	Read() ([]byte, error)
	Write(data []byte) error
	Close() error
}

// Dialer opens transports. The Manager dials through this interface so
// tests can substitute an in-memory implementation.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Transport, error)
}

// WebsocketDialer dials gorilla websocket connections.
type WebsocketDialer struct{}

// Dial opens a websocket connection to url.
func (WebsocketDialer) Dial(ctx context.Context, url string, header http.Header) (Transport, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Read() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) Write(data []byte) error {
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
