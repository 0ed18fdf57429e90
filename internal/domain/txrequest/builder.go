package txrequest

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/poolwidget/contract/pooltogether"
	"github.com/questx-lab/poolwidget/internal/domain/binding"
	"github.com/questx-lab/poolwidget/internal/domain/safehost"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/questx-lab/poolwidget/pkg/ethutil"
)

func validate(bundle binding.PoolBundle, ticket common.Address, amount *big.Int) (common.Address, error) {
	if !bundle.Complete() || ethutil.IsZeroAddress(ticket) {
		return common.Address{}, errorx.ErrBindingUnavailable
	}

	owner, ok := bundle.Pool.Signer()
	if !ok {
		return common.Address{}, errorx.ErrBindingUnavailable
	}

	if amount == nil || amount.Sign() <= 0 {
		return common.Address{}, errorx.New(errorx.BadRequest, "Amount must be positive")
	}

	return owner, nil
}

// BuildBuyRequest deposits amount into the pool for ticket. When the pool allowance does not
// exceed amount an approval is placed before the deposit.
func BuildBuyRequest(ctx context.Context, bundle binding.PoolBundle, ticket common.Address, amount *big.Int) (*Request, error) {
	owner, err := validate(bundle, ticket, amount)
	if err != nil {
		return nil, err
	}

	allowance, err := binding.CallBigInt(ctx, bundle.Token, pooltogether.MethodAllowance, owner, bundle.Pool.Address())
	if err != nil {
		return nil, errorx.Wrap(errorx.ErrChainRead, err)
	}

	calls := make([]safehost.Call, 0, 2)
	if allowance.Cmp(amount) <= 0 {
		data, err := bundle.Token.Encode(pooltogether.MethodApprove, bundle.Pool.Address(), amount)
		if err != nil {
			return nil, err
		}

		calls = append(calls, safehost.Call{To: bundle.Token.Address(), Value: new(big.Int), Data: data})
	}

	data, err := bundle.Pool.Encode(pooltogether.MethodDepositTo, owner, amount, ticket, common.Address{})
	if err != nil {
		return nil, err
	}

	calls = append(calls, safehost.Call{To: bundle.Pool.Address(), Value: new(big.Int), Data: data})
	return newRequest(KindBuy, amount, calls), nil
}

// BuildWithdrawRequest withdraws amount of ticket instantly, paying the early exit fee the pool
// reports for it. A failing fee simulation means the withdrawal is not possible.
func BuildWithdrawRequest(ctx context.Context, bundle binding.PoolBundle, ticket common.Address, amount *big.Int) (*Request, error) {
	owner, err := validate(bundle, ticket, amount)
	if err != nil {
		return nil, err
	}

	out, err := bundle.Pool.Call(ctx, pooltogether.MethodCalculateEarlyExitFee, owner, ticket, amount)
	if err != nil {
		return nil, errorx.Wrap(errorx.ErrFeeComputation, err)
	}

	if len(out) == 0 {
		return nil, errorx.ErrFeeComputation
	}

	exitFee, ok := out[0].(*big.Int)
	if !ok {
		return nil, errorx.ErrFeeComputation
	}

	data, err := bundle.Pool.Encode(pooltogether.MethodWithdrawInstantlyFrom, owner, amount, ticket, exitFee)
	if err != nil {
		return nil, err
	}

	calls := []safehost.Call{{To: bundle.Pool.Address(), Value: new(big.Int), Data: data}}
	return newRequest(KindWithdraw, amount, calls), nil
}
