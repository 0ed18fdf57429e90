package session

import (
	"context"

	"github.com/questx-lab/poolwidget/internal/domain/pool"
	"github.com/questx-lab/poolwidget/internal/domain/registry"
	"github.com/questx-lab/poolwidget/internal/domain/txrequest"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/questx-lab/poolwidget/pkg/numberutil"
)

type AssetInfo struct {
	registry.Asset
	Selected bool   `json:"selected"`
	Balance  string `json:"balance"`
}

type RequestInfo struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	State         string `json:"state"`
	CorrelationID string `json:"correlationId"`
	TxHash        string `json:"txHash,omitempty"`
	Amount        string `json:"amount"`
	Calls         int    `json:"calls"`
}

// API is the json-rpc surface of a session, registered under the widget namespace.
type API struct {
	session *Session
}

func NewAPI(session *Session) *API {
	return &API{session: session}
}

func (a *API) Assets() []AssetInfo {
	selected := a.session.Selected()
	balance := a.session.TokenBalanceText()

	assets := a.session.Assets()
	infos := make([]AssetInfo, 0, len(assets))
	for _, asset := range assets {
		info := AssetInfo{Asset: asset, Selected: asset.ID == selected}
		if info.Selected {
			info.Balance = balance
		}

		infos = append(infos, info)
	}

	return infos
}

func (a *API) Select(id string) (pool.Snapshot, error) {
	a.session.Select(id)
	return a.View()
}

func (a *API) View() (pool.Snapshot, error) {
	view, err := a.view()
	if err != nil {
		return pool.Snapshot{}, err
	}

	return view.Snapshot(), nil
}

// SetAmount takes a human readable amount, or "max" for the whole token balance and "tickets"
// for the whole ticket balance.
func (a *API) SetAmount(amount string) (pool.Snapshot, error) {
	view, err := a.view()
	if err != nil {
		return pool.Snapshot{}, err
	}

	switch amount {
	case "max":
		if !view.SetMax() {
			return pool.Snapshot{}, errorx.New(errorx.Unavailable, "Token balance is not known yet")
		}
	case "tickets":
		if !view.UseTicketBalance() {
			return pool.Snapshot{}, errorx.New(errorx.Unavailable, "Ticket balance is not known yet")
		}
	default:
		if err := view.SetInputText(amount); err != nil {
			return pool.Snapshot{}, err
		}
	}

	return view.Snapshot(), nil
}

func (a *API) Buy(ctx context.Context) (RequestInfo, error) {
	view, err := a.view()
	if err != nil {
		return RequestInfo{}, err
	}

	req, err := view.Buy(ctx)
	if err != nil {
		return RequestInfo{}, err
	}

	return requestInfo(req, view.Asset()), nil
}

func (a *API) Withdraw(ctx context.Context) (RequestInfo, error) {
	view, err := a.view()
	if err != nil {
		return RequestInfo{}, err
	}

	req, err := view.Withdraw(ctx)
	if err != nil {
		return RequestInfo{}, err
	}

	return requestInfo(req, view.Asset()), nil
}

// Pending lists the submitted requests waiting for the host. Amounts are in base units since a
// request may belong to another asset than the selected one.
func (a *API) Pending() []RequestInfo {
	pending := a.session.Manager().Pending()
	infos := make([]RequestInfo, 0, len(pending))
	for _, req := range pending {
		infos = append(infos, requestInfo(req, nil))
	}

	return infos
}

func (a *API) view() (*pool.View, error) {
	view := a.session.View()
	if view == nil {
		return nil, errorx.ErrBindingUnavailable
	}

	return view, nil
}

func requestInfo(req *txrequest.Request, token numberutil.Decimaled) RequestInfo {
	info := RequestInfo{
		ID:            req.ID.String(),
		Kind:          string(req.Kind),
		State:         req.State().String(),
		CorrelationID: req.CorrelationID(),
		Amount:        req.Amount.String(),
		Calls:         len(req.Calls),
	}

	if token != nil {
		info.Amount = numberutil.Format(req.Amount, token, numberutil.DefaultPrecision)
	}

	if req.State() == txrequest.Confirmed {
		info.TxHash = req.TxHash().Hex()
	}

	return info
}
