package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

// DefaultReadLimit bounds one inbound frame. Ready payloads for large
// accounts exceed the library default of 32KiB.
const DefaultReadLimit = 8 << 20

// WebSocketDialer dials gateway connections with coder/websocket.
type WebSocketDialer struct {
	HTTPClient *http.Client
	Header     http.Header
	ReadLimit  int64
}

// NewWebSocketDialer builds a dialer from transport TLS settings.
func NewWebSocketDialer(cfg Config) (*WebSocketDialer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := http.DefaultClient
	if cfg.TLS.Enabled() {
		tlsCfg, err := cfg.TLS.ClientConfig()
		if err != nil {
			return nil, err
		}
		client = &http.Client{
			Transport: &http.Transport{TLSClientConfig: tlsCfg},
		}
	}
	limit := cfg.ReadLimit
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	return &WebSocketDialer{
		HTTPClient: client,
		Header:     http.Header{"User-Agent": []string{cfg.userAgent()}},
		ReadLimit:  limit,
	}, nil
}

func (d *WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPClient: d.HTTPClient,
		HTTPHeader: d.Header,
	})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: dial %s status=%d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("transport: dial %s: %w", url, err)
	}
	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			return nil, classifyWebSocketError(err)
		}
		if typ != websocket.MessageText {
			continue
		}
		return data, nil
	}
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close(code int, reason string) error {
	err := c.conn.Close(websocket.StatusCode(code), reason)
	if err != nil && websocket.CloseStatus(err) != -1 {
		return nil
	}
	return err
}

func classifyWebSocketError(err error) *CloseError {
	var ce websocket.CloseError
	if errors.As(err, &ce) {
		return &CloseError{Code: int(ce.Code), Reason: ce.Reason, Clean: true, Err: err}
	}
	return &CloseError{Code: StatusAbnormalClosure, Clean: false, Err: err}
}
