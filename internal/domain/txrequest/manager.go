package txrequest

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	xcommon "github.com/questx-lab/poolwidget/internal/common"
	"github.com/questx-lab/poolwidget/internal/domain/safehost"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
)

type Waiter interface {
	WaitMined(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// Manager submits requests to the host and settles them when the host reports back. It is the
// only owner of the pending registry.
type Manager struct {
	ctx    context.Context
	host   safehost.Host
	waiter Waiter

	mu       sync.Mutex
	registry *pendingRegistry
	wg       sync.WaitGroup
}

func NewManager(ctx context.Context, host safehost.Host, waiter Waiter) *Manager {
	return &Manager{
		ctx:      ctx,
		host:     host,
		waiter:   waiter,
		registry: newPendingRegistry(),
	}
}

// Submit hands the draft to the host and returns the host correlation id without waiting for
// the outcome. onSettled is called exactly once, when the request is confirmed and mined or
// rejected. A failed submission leaves the draft untouched.
func (m *Manager) Submit(ctx context.Context, req *Request, onSettled SettleFunc) (string, error) {
	if err := req.reserve(); err != nil {
		return "", err
	}
	defer req.release()

	correlationID, err := m.host.SendTransactions(ctx, req.Calls)
	if err != nil {
		xcommon.CountTxRequest(string(req.Kind), "failed")
		xcontext.Logger(ctx).Errorf("Cannot submit %s request %s: %v", req.Kind, req.ID, err)
		return "", err
	}

	err = req.transition(Draft, Submitted, func(r *Request) { r.correlationID = correlationID })
	if err != nil {
		return "", err
	}

	xcommon.CountTxRequest(string(req.Kind), "submitted")
	xcontext.Logger(ctx).Infof("Submitted %s request %s as %s with %d calls",
		req.Kind, req.ID, correlationID, len(req.Calls))

	m.mu.Lock()
	n, notified := m.registry.register(correlationID, entry{request: req, onSettled: onSettled})
	m.mu.Unlock()

	if notified {
		m.settle(entry{request: req, onSettled: onSettled}, n)
	}

	return correlationID, nil
}

// Confirm settles correlationID as confirmed. It reports whether this call resolved it; repeated
// notifications are ignored.
func (m *Manager) Confirm(correlationID string, txHash common.Hash) bool {
	return m.resolve(correlationID, notification{confirmed: true, hash: txHash})
}

// Reject settles correlationID as rejected. Rejections never trigger a refresh.
func (m *Manager) Reject(correlationID string) bool {
	return m.resolve(correlationID, notification{})
}

func (m *Manager) resolve(correlationID string, n notification) bool {
	m.mu.Lock()
	e, ok := m.registry.resolve(correlationID, n)
	m.mu.Unlock()

	if !ok {
		xcontext.Logger(m.ctx).Debugf("Ignore notification for unknown or settled request %s", correlationID)
		return false
	}

	m.settle(e, n)
	return true
}

func (m *Manager) settle(e entry, n notification) {
	req := e.request

	if !n.confirmed {
		if err := req.transition(Submitted, Rejected, nil); err != nil {
			xcontext.Logger(m.ctx).Errorf("Cannot reject request %s: %v", req.ID, err)
			return
		}

		xcommon.CountTxRequest(string(req.Kind), "rejected")
		xcontext.Logger(m.ctx).Infof("Request %s was rejected", req.CorrelationID())
		if e.onSettled != nil {
			e.onSettled(Outcome{Request: req, State: Rejected, Err: errorx.ErrRequestRejected})
		}
		return
	}

	err := req.transition(Submitted, Confirmed, func(r *Request) { r.txHash = n.hash })
	if err != nil {
		xcontext.Logger(m.ctx).Errorf("Cannot confirm request %s: %v", req.ID, err)
		return
	}

	xcommon.CountTxRequest(string(req.Kind), "confirmed")
	xcontext.Logger(m.ctx).Infof("Request %s was confirmed with %s", req.CorrelationID(), n.hash.Hex())

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		receipt, err := m.waiter.WaitMined(m.ctx, n.hash)
		if err != nil {
			xcontext.Logger(m.ctx).Warnf("Cannot wait for %s to be mined: %v", n.hash.Hex(), err)
		}

		if e.onSettled != nil {
			e.onSettled(Outcome{Request: req, State: Confirmed, TxHash: n.hash, Receipt: receipt, Err: err})
		}
	}()
}

// Pending lists the submitted requests not settled yet.
func (m *Manager) Pending() []*Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.requests()
}

// Wait blocks until every confirmed request has been settled.
func (m *Manager) Wait() {
	m.wg.Wait()
}
