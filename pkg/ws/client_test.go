package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func echoServer(t *testing.T) string {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			t, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(t, msg); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClient_Echo(t *testing.T) {
	c, err := Dial(context.Background(), echoServer(t), nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Write([]byte(`{"hello":"world"}`)))

	select {
	case msg := <-c.R:
		require.Equal(t, `{"hello":"world"}`, string(msg))
	case <-time.After(5 * time.Second):
		t.Fatal("no echo")
	}
}

func TestClient_WriteAfterClose(t *testing.T) {
	c, err := Dial(context.Background(), echoServer(t), nil)
	require.NoError(t, err)

	c.Close()
	c.Close()
	require.ErrorIs(t, c.Write([]byte("x")), ErrClosed)

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed")
	}
}

func TestNewClient_Nil(t *testing.T) {
	require.Nil(t, NewClient(nil))
}
