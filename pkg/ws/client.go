package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrClosed = errors.New("connection is closed")

// Client pumps text frames between a websocket connection and two channels. R is closed when the
// connection ends.
type Client struct {
	Conn *websocket.Conn
	R    chan []byte
	W    chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func Dial(ctx context.Context, url string, header http.Header) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}

	return NewClient(conn), nil
}

func NewClient(conn *websocket.Conn) *Client {
	if conn == nil {
		return nil
	}

	c := &Client{
		Conn: conn,
		R:    make(chan []byte, 128),
		W:    make(chan []byte, 128),
		done: make(chan struct{}),
	}

	go c.runReader()
	go c.runWriter()
	return c
}

func (c *Client) runReader() {
	defer close(c.R)
	defer c.Close()

	for {
		t, msg, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}

		if t != websocket.TextMessage {
			continue
		}

		select {
		case c.R <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Client) runWriter() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.W:
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (c *Client) Write(msg []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case <-c.done:
		return ErrClosed
	case c.W <- msg:
		return nil
	}
}

// Done is closed once the connection is closed from either side.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.Conn.Close()
	})
}
