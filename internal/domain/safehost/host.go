package safehost

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Call is one raw call of a transaction bundle, relayed verbatim to the host.
type Call struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

type SafeInfo struct {
	SafeAddress common.Address `json:"safeAddress"`
	Network     string         `json:"network"`
	ChainID     uint64         `json:"chainId"`
}

// Listeners receive the host notifications. Nil callbacks are skipped.
type Listeners struct {
	OnSafeInfo                func(info SafeInfo)
	OnTransactionConfirmation func(requestID string, safeTxHash common.Hash)
	OnTransactionRejection    func(requestID string)
}

// Host is the multi-signature wallet host. It collects signatures and executes the bundle on its
// own; the widget never signs.
type Host interface {
	// SendTransactions hands the calls to the host as one batch and returns the host request id.
	SendTransactions(ctx context.Context, calls []Call) (string, error)
	// AddListeners installs the listener set, replacing any previous one.
	AddListeners(listeners Listeners)
	RemoveListeners()
}

const (
	MethodSendTransactions = "sendTransactions"

	EventSafeInfo                = "safeInfo"
	EventTransactionConfirmation = "transactionConfirmation"
	EventTransactionRejection    = "transactionRejection"
)
