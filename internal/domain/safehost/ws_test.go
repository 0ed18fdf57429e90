package safehost

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/questx-lab/poolwidget/config"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/questx-lab/poolwidget/pkg/logger"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

// fakeRelay answers every sendTransactions with reply(frame) and pushes events on demand.
type fakeRelay struct {
	received chan frame
	events   chan string
	reply    func(f frame) string
}

func newFakeRelay(t *testing.T, reply func(f frame) string) (*fakeRelay, string) {
	relay := &fakeRelay{
		received: make(chan frame, 8),
		events:   make(chan string, 8),
		reply:    reply,
	}

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		out := make(chan string, 16)
		go func() {
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					close(out)
					return
				}

				var f frame
				if json.Unmarshal(msg, &f) == nil {
					relay.received <- f
					out <- relay.reply(f)
				}
			}
		}()

		for {
			select {
			case msg, ok := <-out:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
					return
				}
			case msg := <-relay.events:
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)

	return relay, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func okReply(f frame) string {
	b, _ := json.Marshal(frame{ID: f.ID, Result: map[string]any{"requestId": "req-1"}})
	return string(b)
}

func TestWSHost_SendTransactions(t *testing.T) {
	relay, url := newFakeRelay(t, okReply)

	host, err := Dial(mockContext(), url)
	require.NoError(t, err)
	defer host.Close()

	token := common.HexToAddress("0x5592EC0cfb4dbc12D3aB100b257153436a1f0FEa")
	pool := common.HexToAddress("0x4706856FA8Bb747D50b4EF8547FE51Ab5Edc4Ac2")
	id, err := host.SendTransactions(context.Background(), []Call{
		{To: token, Value: big.NewInt(0), Data: []byte{0x09, 0x5e, 0xa7, 0xb3}},
		{To: pool, Data: []byte{0xff}},
	})
	require.NoError(t, err)
	require.Equal(t, "req-1", id)

	f := <-relay.received
	require.Equal(t, MethodSendTransactions, f.Method)
	txs := f.Params["txs"].([]any)
	require.Len(t, txs, 2)
	require.Equal(t, map[string]any{"to": token.Hex(), "value": "0", "data": "0x095ea7b3"}, txs[0])
	require.Equal(t, map[string]any{"to": pool.Hex(), "value": "0", "data": "0xff"}, txs[1])
}

func TestWSHost_SendTransactionsError(t *testing.T) {
	_, url := newFakeRelay(t, func(f frame) string {
		b, _ := json.Marshal(frame{ID: f.ID, Error: "user declined"})
		return string(b)
	})

	host, err := Dial(mockContext(), url)
	require.NoError(t, err)
	defer host.Close()

	_, err = host.SendTransactions(context.Background(), []Call{{To: common.Address{1}}})
	require.ErrorIs(t, err, errorx.ErrSubmitFailed)
	require.Contains(t, err.Error(), "user declined")

	_, err = host.SendTransactions(context.Background(), nil)
	require.ErrorIs(t, err, errorx.ErrSubmitFailed)
}

func TestWSHost_Events(t *testing.T) {
	relay, url := newFakeRelay(t, okReply)

	host, err := Dial(mockContext(), url)
	require.NoError(t, err)
	defer host.Close()

	infos := make(chan SafeInfo, 1)
	confirmations := make(chan [2]string, 1)
	rejections := make(chan string, 1)
	host.AddListeners(Listeners{
		OnSafeInfo: func(info SafeInfo) { infos <- info },
		OnTransactionConfirmation: func(requestID string, hash common.Hash) {
			confirmations <- [2]string{requestID, hash.Hex()}
		},
		OnTransactionRejection: func(requestID string) { rejections <- requestID },
	})

	safe := "0x00000000000000000000000000000000000000aa"
	hash := "0x" + strings.Repeat("ab", 32)
	relay.events <- `{"event":"safeInfo","params":{"safeAddress":"` + safe + `","network":"rinkeby","chainId":4}}`
	relay.events <- `{"event":"transactionConfirmation","params":{"requestId":"req-7","safeTxHash":"` + hash + `"}}`
	relay.events <- `{"event":"transactionRejection","params":{"requestId":"req-8"}}`

	select {
	case info := <-infos:
		require.Equal(t, SafeInfo{SafeAddress: common.HexToAddress(safe), Network: "rinkeby", ChainID: 4}, info)
	case <-time.After(5 * time.Second):
		t.Fatal("no safe info")
	}

	select {
	case c := <-confirmations:
		require.Equal(t, [2]string{"req-7", common.HexToHash(hash).Hex()}, c)
	case <-time.After(5 * time.Second):
		t.Fatal("no confirmation")
	}

	select {
	case id := <-rejections:
		require.Equal(t, "req-8", id)
	case <-time.After(5 * time.Second):
		t.Fatal("no rejection")
	}
}

func TestWSHost_RemoveListeners(t *testing.T) {
	relay, url := newFakeRelay(t, okReply)

	host, err := Dial(mockContext(), url)
	require.NoError(t, err)
	defer host.Close()

	rejections := make(chan string, 2)
	host.AddListeners(Listeners{OnTransactionRejection: func(id string) { rejections <- id }})
	host.RemoveListeners()

	relay.events <- `{"event":"transactionRejection","params":{"requestId":"dropped"}}`
	// a request round trip orders the event before the response
	_, err = host.SendTransactions(context.Background(), []Call{{To: common.Address{1}}})
	require.NoError(t, err)

	select {
	case id := <-rejections:
		t.Fatalf("unexpected rejection %s", id)
	default:
	}
}

func TestWSHost_DropsMalformedConfirmation(t *testing.T) {
	relay, url := newFakeRelay(t, okReply)

	host, err := Dial(mockContext(), url)
	require.NoError(t, err)
	defer host.Close()

	confirmations := make(chan string, 1)
	rejections := make(chan string, 1)
	host.AddListeners(Listeners{
		OnTransactionConfirmation: func(requestID string, hash common.Hash) { confirmations <- requestID },
		OnTransactionRejection:    func(requestID string) { rejections <- requestID },
	})

	relay.events <- `{"event":"transactionConfirmation","params":{"requestId":"req-9","safeTxHash":"0xnothex"}}`
	relay.events <- `{"event":"transactionRejection","params":{"requestId":"req-10"}}`

	// events are dispatched in order, so the rejection shows the confirmation was handled
	select {
	case id := <-rejections:
		require.Equal(t, "req-10", id)
	case <-time.After(5 * time.Second):
		t.Fatal("no rejection")
	}

	select {
	case id := <-confirmations:
		t.Fatalf("unexpected confirmation %s", id)
	default:
	}
}

// mockContext mirrors testutil.MockContext; testutil imports mocks, which imports this package.
func mockContext() context.Context {
	ctx := context.Background()
	ctx = xcontext.WithLogger(ctx, logger.NewNopLogger())
	ctx = xcontext.WithConfigs(ctx, config.Default())
	return ctx
}
