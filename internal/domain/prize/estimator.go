package prize

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/questx-lab/poolwidget/contract/pooltogether"
	"github.com/questx-lab/poolwidget/internal/domain/binding"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/questx-lab/poolwidget/pkg/numberutil"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// SecondsPerBlock is the assumed block time used to turn the remaining prize period into blocks.
const SecondsPerBlock = 14

// supplyRateDecimals is the fixed point precision of a compound supply rate.
const supplyRateDecimals = 18

// Estimate is a point estimate of the next prize. An unresolved estimate carries no value.
type Estimate struct {
	Resolved        bool
	Prize           decimal.Decimal
	RemainingBlocks decimal.Decimal
}

func (e Estimate) String() string {
	if !e.Resolved {
		return ""
	}

	return numberutil.FormatDecimal(e.Prize, numberutil.DefaultPrecision)
}

type Estimator struct {
	Now func() time.Time
}

func NewEstimator() *Estimator {
	return &Estimator{Now: time.Now}
}

// Estimate projects the prize at the end of the current period:
//
//	balance * remainingBlocks * supplyRatePerBlock + awardBalance
//
// It is unresolved until the four bindings exist. An elapsed period gives a negative number of
// remaining blocks, which is used as is.
func (e *Estimator) Estimate(
	ctx context.Context,
	token numberutil.Decimaled,
	pool, strategy, cToken binding.Readable,
) (Estimate, error) {
	if token == nil || pool == nil || strategy == nil || cToken == nil {
		return Estimate{}, nil
	}

	var supplyRate, awardBalance, balance, periodEndAt *big.Int
	g, gctx := errgroup.WithContext(ctx)
	read := func(dst **big.Int, r binding.Readable, method string) {
		g.Go(func() error {
			v, err := binding.CallBigInt(gctx, r, method)
			if err != nil {
				return errorx.Wrap(errorx.ErrChainRead, fmt.Errorf("%s: %w", method, err))
			}

			*dst = v
			return nil
		})
	}

	read(&supplyRate, cToken, pooltogether.MethodSupplyRatePerBlock)
	read(&awardBalance, pool, pooltogether.MethodCaptureAwardBalance)
	read(&balance, pool, pooltogether.MethodBalance)
	read(&periodEndAt, strategy, pooltogether.MethodPrizePeriodEndAt)

	if err := g.Wait(); err != nil {
		return Estimate{}, err
	}

	now := decimal.New(e.now().UnixMilli(), -3)
	remaining := decimal.NewFromBigInt(periodEndAt, 0).
		Sub(now).
		Div(decimal.NewFromInt(SecondsPerBlock))

	decimals := token.TokenDecimals()
	prize := numberutil.Scale(balance, decimals).
		Mul(remaining).
		Mul(numberutil.Scale(supplyRate, supplyRateDecimals)).
		Add(numberutil.Scale(awardBalance, decimals))

	return Estimate{Resolved: true, Prize: prize, RemainingBlocks: remaining}, nil
}

func (e *Estimator) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}

	return e.Now()
}
