package pool

import (
	"math/big"

	"github.com/questx-lab/poolwidget/internal/domain/derived"
	"github.com/questx-lab/poolwidget/internal/domain/registry"
	"github.com/questx-lab/poolwidget/pkg/numberutil"
)

// Value is a displayed number. Text keeps the last known value while a refresh is loading or
// after it failed; Status tells which.
type Value struct {
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error,omitempty"`
}

type Snapshot struct {
	Asset          registry.Asset `json:"asset"`
	TokenBalance   Value          `json:"tokenBalance"`
	TicketBalance  Value          `json:"ticketBalance"`
	EstimatedPrize Value          `json:"estimatedPrize"`
	InputAmount    string         `json:"inputAmount"`

	InsufficientBalance bool `json:"insufficientBalance"`
	OverWithdrawLimit   bool `json:"overWithdrawLimit"`
	BuyEnabled          bool `json:"buyEnabled"`
}

func (v *View) Snapshot() Snapshot {
	estimate := v.estimate.Get()
	prize := Value{Status: estimate.Status.String(), Text: estimate.Value.String()}
	if estimate.Err != nil {
		prize.Error = estimate.Err.Error()
	}

	// an estimate without all of its bindings is still loading
	if estimate.IsReady() && !estimate.Value.Resolved {
		prize.Status = derived.Loading.String()
	}

	return Snapshot{
		Asset:               v.asset,
		TokenBalance:        v.amountValue(v.tokenBalance.Get()),
		TicketBalance:       v.amountValue(v.ticketBalance.Get()),
		EstimatedPrize:      prize,
		InputAmount:         numberutil.Format(v.InputAmount(), v.asset, numberutil.DefaultPrecision),
		InsufficientBalance: v.InsufficientBalance(),
		OverWithdrawLimit:   v.OverWithdrawLimit(),
		BuyEnabled:          v.BuyEnabled(),
	}
}

func (v *View) amountValue(state derived.State[*big.Int]) Value {
	value := Value{
		Status: state.Status.String(),
		Text:   numberutil.Format(state.Value, v.asset, numberutil.DefaultPrecision),
	}
	if state.Err != nil {
		value.Error = state.Err.Error()
	}

	return value
}
