package eth

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/math"
	"github.com/questx-lab/poolwidget/config"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
)

const (
	defaultReceiptPollInterval    = 2 * time.Second
	defaultMaxReceiptPollInterval = 30 * time.Second
)

type receiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// receiptWaiter polls for a receipt until it shows up. There is no deadline besides the context:
// a safe transaction may wait for co-signers for an arbitrary time before it is executed.
type receiptWaiter struct {
	source   receiptSource
	interval time.Duration
	max      time.Duration
}

func newReceiptWaiter(source receiptSource, cfg config.ChainConfig) *receiptWaiter {
	w := &receiptWaiter{
		source:   source,
		interval: cfg.ReceiptPollInterval.Duration,
		max:      cfg.MaxReceiptPollInterval.Duration,
	}

	if w.interval <= 0 {
		w.interval = defaultReceiptPollInterval
	}

	if w.max < w.interval {
		w.max = time.Duration(math.MaxInt64(int64(defaultMaxReceiptPollInterval), int64(w.interval)))
	}

	return w
}

func (w *receiptWaiter) wait(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	interval := w.interval
	for {
		callCtx, cancel := context.WithTimeout(ctx, RpcTimeOut)
		receipt, err := w.source.TransactionReceipt(callCtx, txHash)
		cancel()

		if err == nil && receipt != nil {
			return receipt, nil
		}

		if err != nil && !errors.Is(err, ethereum.NotFound) {
			xcontext.Logger(ctx).Warnf("Cannot get receipt for tx hash %s: %v", txHash.String(), err)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		interval = time.Duration(math.MinInt64(int64(interval)*2, int64(w.max)))
	}
}
