package safehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/questx-lab/poolwidget/internal/common"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/questx-lab/poolwidget/pkg/ws"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
)

type response struct {
	result map[string]any
	err    string
}

// WSHost talks to a Safe Apps host relay over a websocket.
type WSHost struct {
	ctx    context.Context
	client *ws.Client

	nextID  atomic.Uint64
	mu      sync.Mutex
	waiters map[uint64]chan response

	listenerMu sync.RWMutex
	listeners  *Listeners
}

func Dial(ctx context.Context, url string) (*WSHost, error) {
	client, err := ws.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to safe host %s: %w", url, err)
	}

	return NewWSHost(ctx, client), nil
}

func NewWSHost(ctx context.Context, client *ws.Client) *WSHost {
	h := &WSHost{
		ctx:     ctx,
		client:  client,
		waiters: make(map[uint64]chan response),
	}

	go h.run()
	return h
}

func (h *WSHost) run() {
	for msg := range h.client.R {
		var f frame
		if err := json.Unmarshal(msg, &f); err != nil {
			xcontext.Logger(h.ctx).Warnf("Cannot decode safe host message: %v", err)
			continue
		}

		if f.Event != "" {
			h.dispatch(f)
			continue
		}

		h.mu.Lock()
		waiter, ok := h.waiters[f.ID]
		delete(h.waiters, f.ID)
		h.mu.Unlock()

		if !ok {
			xcontext.Logger(h.ctx).Debugf("Drop safe host response %d without waiter", f.ID)
			continue
		}

		waiter <- response{result: f.Result, err: f.Error}
	}
}

func (h *WSHost) dispatch(f frame) {
	common.CountSafeHostEvent(f.Event)

	h.listenerMu.RLock()
	listeners := h.listeners
	h.listenerMu.RUnlock()

	if listeners == nil {
		xcontext.Logger(h.ctx).Debugf("Drop safe host event %s, no listener", f.Event)
		return
	}

	switch f.Event {
	case EventSafeInfo:
		var info SafeInfo
		if err := decode(f.Params, &info); err != nil {
			xcontext.Logger(h.ctx).Warnf("Invalid safe info: %v", err)
			return
		}

		if listeners.OnSafeInfo != nil {
			listeners.OnSafeInfo(info)
		}

	case EventTransactionConfirmation:
		var p confirmationParams
		if err := decode(f.Params, &p); err != nil {
			xcontext.Logger(h.ctx).Warnf("Invalid transaction confirmation: %v", err)
			return
		}

		if listeners.OnTransactionConfirmation != nil {
			listeners.OnTransactionConfirmation(p.RequestID, p.SafeTxHash)
		}

	case EventTransactionRejection:
		var p rejectionParams
		if err := decode(f.Params, &p); err != nil {
			xcontext.Logger(h.ctx).Warnf("Invalid transaction rejection: %v", err)
			return
		}

		if listeners.OnTransactionRejection != nil {
			listeners.OnTransactionRejection(p.RequestID)
		}

	default:
		xcontext.Logger(h.ctx).Debugf("Unknown safe host event %s", f.Event)
	}
}

func (h *WSHost) SendTransactions(ctx context.Context, calls []Call) (string, error) {
	if len(calls) == 0 {
		return "", errorx.New(errorx.SubmitFailed, "No call to submit")
	}

	id := h.nextID.Add(1)
	waiter := make(chan response, 1)

	h.mu.Lock()
	h.waiters[id] = waiter
	h.mu.Unlock()

	release := func() {
		h.mu.Lock()
		delete(h.waiters, id)
		h.mu.Unlock()
	}

	msg, err := json.Marshal(frame{ID: id, Method: MethodSendTransactions, Params: encodeCalls(calls)})
	if err != nil {
		release()
		return "", err
	}

	if err := h.client.Write(msg); err != nil {
		release()
		return "", errorx.Wrap(errorx.ErrSubmitFailed, err)
	}

	select {
	case <-ctx.Done():
		release()
		return "", ctx.Err()

	case <-h.client.Done():
		release()
		return "", errorx.Wrap(errorx.ErrSubmitFailed, ws.ErrClosed)

	case resp := <-waiter:
		if resp.err != "" {
			return "", errorx.Wrap(errorx.ErrSubmitFailed, errors.New(resp.err))
		}

		var result sendTransactionsResult
		if err := decode(resp.result, &result); err != nil {
			return "", errorx.Wrap(errorx.ErrSubmitFailed, err)
		}

		if result.RequestID == "" {
			return "", errorx.Wrap(errorx.ErrSubmitFailed, errors.New("empty request id"))
		}

		return result.RequestID, nil
	}
}

func (h *WSHost) AddListeners(listeners Listeners) {
	h.listenerMu.Lock()
	defer h.listenerMu.Unlock()
	h.listeners = &listeners
}

func (h *WSHost) RemoveListeners() {
	h.listenerMu.Lock()
	defer h.listenerMu.Unlock()
	h.listeners = nil
}

func (h *WSHost) Close() {
	h.client.Close()
}
