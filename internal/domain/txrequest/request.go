package txrequest

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/questx-lab/poolwidget/internal/domain/safehost"
	"github.com/questx-lab/poolwidget/pkg/enum"
	"github.com/questx-lab/poolwidget/pkg/errorx"
)

type Kind string

var (
	KindBuy      = enum.New(Kind("buy"), "buy")
	KindWithdraw = enum.New(Kind("withdraw"), "withdraw")
)

type State int

var (
	Draft     = enum.New(State(0), "draft")
	Submitted = enum.New(State(1), "submitted")
	Confirmed = enum.New(State(2), "confirmed")
	Rejected  = enum.New(State(3), "rejected")
)

func (s State) String() string {
	return enum.ToString(s)
}

func (s State) Terminal() bool {
	return s == Confirmed || s == Rejected
}

// Request is one user intent: an ordered bundle of calls the host executes atomically.
type Request struct {
	ID     uuid.UUID
	Kind   Kind
	Amount *big.Int
	Calls  []safehost.Call

	mu            sync.Mutex
	state         State
	sending       bool
	correlationID string
	txHash        common.Hash
}

func newRequest(kind Kind, amount *big.Int, calls []safehost.Call) *Request {
	return &Request{
		ID:     uuid.New(),
		Kind:   kind,
		Amount: new(big.Int).Set(amount),
		Calls:  calls,
		state:  Draft,
	}
}

func (r *Request) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Request) CorrelationID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.correlationID
}

func (r *Request) TxHash() common.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txHash
}

// reserve marks a draft as being sent so no other submit sends it too. release undoes it.
func (r *Request) reserve() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Draft || r.sending {
		return errorx.New(errorx.InvalidState, "Request %s is %s and cannot be submitted", r.ID, r.state)
	}

	r.sending = true
	return nil
}

func (r *Request) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sending = false
}

// transition moves the request from one state to the next and fails on any other edge.
func (r *Request) transition(from, to State, apply func(r *Request)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != from {
		return errorx.New(errorx.InvalidState, "Request %s is %s, expected %s", r.ID, r.state, from)
	}

	r.state = to
	if apply != nil {
		apply(r)
	}

	return nil
}

// Outcome is passed to the settle callback exactly once per request.
type Outcome struct {
	Request *Request
	State   State
	TxHash  common.Hash
	// Receipt is set when the confirmed transaction was seen mined.
	Receipt *ethtypes.Receipt
	// Err is ErrRequestRejected for rejections and the wait error when mining could not be
	// observed.
	Err error
}

type SettleFunc func(outcome Outcome)
