package pool

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/poolwidget/contract/pooltogether"
	xcommon "github.com/questx-lab/poolwidget/internal/common"
	"github.com/questx-lab/poolwidget/internal/domain/binding"
	"github.com/questx-lab/poolwidget/internal/domain/derived"
	"github.com/questx-lab/poolwidget/internal/domain/prize"
	"github.com/questx-lab/poolwidget/internal/domain/registry"
	"github.com/questx-lab/poolwidget/internal/domain/txrequest"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/questx-lab/poolwidget/pkg/numberutil"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
)

type Deps struct {
	Cache     *binding.Cache
	Estimator *prize.Estimator
	Manager   *txrequest.Manager
	// OnChange is called whenever a displayed value changes.
	OnChange func()
}

// View is the pool card of one asset: balances, the prize estimate and the amount typed by the
// user. A view is bound to one bundle; a new bundle means a new view.
type View struct {
	ctx    context.Context
	asset  registry.Asset
	bundle binding.PoolBundle
	deps   Deps

	safe   common.Address
	signed bool

	ticket        *derived.Memo[binding.Binding]
	cToken        *derived.Memo[binding.Binding]
	tokenBalance  *derived.Response[*big.Int]
	ticketBalance *derived.Response[*big.Int]
	estimate      *derived.Response[prize.Estimate]

	// syncMu makes reading the memos and updating their dependents one step.
	syncMu sync.Mutex

	mu    sync.Mutex
	input *big.Int

	// started keeps the initial load from notifying a caller that may still hold its own locks.
	started atomic.Bool
}

func NewView(ctx context.Context, asset registry.Asset, bundle binding.PoolBundle, deps Deps) *View {
	if deps.Estimator == nil {
		deps.Estimator = prize.NewEstimator()
	}

	v := &View{
		ctx:    ctx,
		asset:  asset,
		bundle: bundle,
		deps:   deps,
		input:  numberutil.OneUnit(asset.Decimals),
	}

	if bundle.Pool != nil {
		v.safe, v.signed = bundle.Pool.Signer()
	}

	opts := func(value string, onChange func()) derived.Options {
		return derived.Options{Name: asset.ID + "." + value, OnChange: onChange}
	}

	v.tokenBalance = derived.NewResponse[*big.Int](ctx, nil, opts("tokenBalance", v.notify))
	v.ticketBalance = derived.NewResponse[*big.Int](ctx, nil, opts("ticketBalance", v.notify))
	v.estimate = derived.NewResponse(ctx, prize.Estimate{}, opts("estimate", v.notify))
	v.ticket = derived.NewMemo[binding.Binding](ctx, nil, opts("ticket", v.sync))
	v.cToken = derived.NewMemo[binding.Binding](ctx, nil, opts("cToken", v.sync))

	v.load()
	v.started.Store(true)
	return v
}

func (v *View) load() {
	if v.bundle.Strategy == nil {
		v.ticket.Hold([]any{nil})
	} else {
		v.ticket.Update([]any{v.bundle.Strategy}, v.resolve(v.bundle.Strategy, pooltogether.MethodTicket, pooltogether.TicketMetaData.GetAbi))
	}

	if v.bundle.Pool == nil {
		v.cToken.Hold([]any{nil})
	} else {
		v.cToken.Update([]any{v.bundle.Pool}, v.resolve(v.bundle.Pool, pooltogether.MethodCToken, pooltogether.CTokenMetaData.GetAbi))
	}

	if v.bundle.Token == nil || !v.signed {
		v.tokenBalance.Hold([]any{v.bundle.Token, v.safe})
	} else {
		v.tokenBalance.Update([]any{v.bundle.Token, v.safe}, v.balanceOf(v.bundle.Token))
	}

	v.sync()
}

// sync feeds the current ticket and cToken bindings to the values depending on them. A failed
// binding read fails its dependents instead of leaving them loading.
func (v *View) sync() {
	v.syncMu.Lock()
	defer v.syncMu.Unlock()

	ticket := v.ticket.Get()
	switch {
	case ticket.Value == nil && ticket.Status == derived.Failed:
		v.ticketBalance.Fail([]any{nil, v.safe}, ticket.Err)
	case ticket.Value == nil || !v.signed:
		v.ticketBalance.Hold([]any{ticket.Value, v.safe})
	default:
		v.ticketBalance.Update([]any{ticket.Value, v.safe}, v.balanceOf(ticket.Value))
	}

	cToken := v.cToken.Get()
	deps := []any{v.bundle.Pool, v.bundle.Strategy, cToken.Value}
	if cToken.Value == nil && cToken.Status == derived.Failed {
		v.estimate.Fail(deps, cToken.Err)
	} else {
		v.estimate.Update(deps, v.estimatePrize(cToken.Value))
	}
}

type abiFunc func() (*abi.ABI, error)

// resolve reads the address of a related contract from parent and binds it.
func (v *View) resolve(parent binding.Readable, method string, abiOf abiFunc) derived.Producer[binding.Binding] {
	return func(ctx context.Context) (binding.Binding, error) {
		address, err := binding.CallAddress(ctx, parent, method)
		if err != nil {
			return nil, errorx.Wrap(errorx.ErrChainRead, err)
		}

		def, err := abiOf()
		if err != nil {
			return nil, err
		}

		b, ok := v.deps.Cache.Get(address, def)
		if !ok {
			return nil, errorx.ErrBindingUnavailable
		}

		return b, nil
	}
}

func (v *View) balanceOf(token binding.Readable) derived.Producer[*big.Int] {
	return func(ctx context.Context) (*big.Int, error) {
		balance, err := binding.CallBigInt(ctx, token, pooltogether.MethodBalanceOf, v.safe)
		if err != nil {
			return nil, errorx.Wrap(errorx.ErrChainRead, err)
		}

		return balance, nil
	}
}

func (v *View) estimatePrize(cToken binding.Binding) derived.Producer[prize.Estimate] {
	return func(ctx context.Context) (prize.Estimate, error) {
		estimate, err := v.deps.Estimator.Estimate(ctx, v.asset, v.bundle.Pool, v.bundle.Strategy, cToken)
		if err != nil {
			return prize.Estimate{}, err
		}

		if estimate.Resolved {
			xcommon.SetPrizeEstimate(v.asset.ID, estimate.Prize.InexactFloat64())
		}

		return estimate, nil
	}
}

func (v *View) notify() {
	if v.started.Load() && v.deps.OnChange != nil {
		v.deps.OnChange()
	}
}

func (v *View) Asset() registry.Asset {
	return v.asset
}

func (v *View) Bundle() binding.PoolBundle {
	return v.bundle
}

func (v *View) InputAmount() *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.input)
}

func (v *View) SetInputAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errorx.New(errorx.BadRequest, "Amount must not be negative")
	}

	v.mu.Lock()
	v.input = new(big.Int).Set(amount)
	v.mu.Unlock()

	v.notify()
	return nil
}

// SetInputText parses a human readable amount in the units of the asset.
func (v *View) SetInputText(s string) error {
	amount, err := numberutil.ParseUnits(s, v.asset.Decimals)
	if err != nil {
		return errorx.New(errorx.BadRequest, "Invalid amount %q: %v", s, err)
	}

	return v.SetInputAmount(amount)
}

// SetMax sets the input to the whole token balance. It reports false while the balance is not
// known.
func (v *View) SetMax() bool {
	return v.useBalance(v.tokenBalance)
}

// UseTicketBalance sets the input to the whole ticket balance.
func (v *View) UseTicketBalance() bool {
	return v.useBalance(v.ticketBalance)
}

func (v *View) useBalance(r *derived.Response[*big.Int]) bool {
	state := r.Get()
	if !state.IsReady() || state.Value == nil {
		return false
	}

	return v.SetInputAmount(state.Value) == nil
}

// InsufficientBalance is true when the token balance is unknown or below the input.
func (v *View) InsufficientBalance() bool {
	return below(v.tokenBalance.Get(), v.InputAmount())
}

// OverWithdrawLimit is true when the ticket balance is unknown or below the input.
func (v *View) OverWithdrawLimit() bool {
	return below(v.ticketBalance.Get(), v.InputAmount())
}

func below(balance derived.State[*big.Int], amount *big.Int) bool {
	if !balance.IsReady() || balance.Value == nil {
		return true
	}

	return balance.Value.Cmp(amount) < 0
}

func (v *View) BuyEnabled() bool {
	if v.bundle.Pool == nil || v.bundle.Token == nil {
		return false
	}

	estimate := v.estimate.Get()
	if !estimate.IsReady() || !estimate.Value.Resolved {
		return false
	}

	return v.InputAmount().Sign() != 0 && !v.InsufficientBalance()
}

// Buy submits a deposit of the input amount. It returns once the host accepted the bundle.
func (v *View) Buy(ctx context.Context) (*txrequest.Request, error) {
	ticket, err := v.ticketAddress()
	if err != nil {
		return nil, err
	}

	req, err := txrequest.BuildBuyRequest(ctx, v.bundle, ticket, v.InputAmount())
	if err != nil {
		return nil, err
	}

	return v.submit(ctx, req)
}

// Withdraw submits an instant withdrawal of the input amount.
func (v *View) Withdraw(ctx context.Context) (*txrequest.Request, error) {
	ticket, err := v.ticketAddress()
	if err != nil {
		return nil, err
	}

	req, err := txrequest.BuildWithdrawRequest(ctx, v.bundle, ticket, v.InputAmount())
	if err != nil {
		if errors.Is(err, errorx.ErrFeeComputation) {
			xcontext.Logger(ctx).Warnf("Cannot compute exit fee of %s %s: %v", v.InputAmount(), v.asset.ID, err)
		}
		return nil, err
	}

	return v.submit(ctx, req)
}

func (v *View) ticketAddress() (common.Address, error) {
	ticket := v.ticket.Get().Value
	if ticket == nil {
		return common.Address{}, errorx.ErrBindingUnavailable
	}

	return ticket.Address(), nil
}

func (v *View) submit(ctx context.Context, req *txrequest.Request) (*txrequest.Request, error) {
	if v.deps.Manager == nil {
		return nil, errorx.ErrBindingUnavailable
	}

	if _, err := v.deps.Manager.Submit(ctx, req, v.settled); err != nil {
		return req, err
	}

	return req, nil
}

func (v *View) settled(outcome txrequest.Outcome) {
	if outcome.State != txrequest.Confirmed {
		return
	}

	v.mu.Lock()
	v.input = numberutil.OneUnit(v.asset.Decimals)
	v.mu.Unlock()

	if outcome.Err != nil {
		v.notify()
		return
	}

	v.Refresh()
}

// Refresh re-reads both balances and the estimate. Bindings whose address read failed are read
// again and feed their dependents once they resolve.
func (v *View) Refresh() {
	v.ticket.Retry()
	v.cToken.Retry()
	v.ticketBalance.Refresh()
	v.tokenBalance.Refresh()
	v.estimate.Refresh()
	v.notify()
}

// TokenBalanceText is the token balance shown next to the asset selector, empty until known.
func (v *View) TokenBalanceText() string {
	return numberutil.Format(v.tokenBalance.Get().Value, v.asset, numberutil.DefaultPrecision)
}

func (v *View) Close() {
	v.ticket.Close()
	v.cToken.Close()
	v.tokenBalance.Close()
	v.ticketBalance.Close()
	v.estimate.Close()
}

// Wait blocks until the values in flight are published. Memos go first since they start the
// reads of their dependents.
func (v *View) Wait() {
	v.ticket.Wait()
	v.cToken.Wait()
	v.tokenBalance.Wait()
	v.ticketBalance.Wait()
	v.estimate.Wait()
}
