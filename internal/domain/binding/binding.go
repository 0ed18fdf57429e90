package binding

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	xcommon "github.com/questx-lab/poolwidget/internal/common"
)

// Readable issues read-only and simulated calls against one deployed contract.
type Readable interface {
	Address() common.Address
	Call(ctx context.Context, method string, args ...any) ([]any, error)
}

// Callable encodes calldata for a state changing call. It never signs or sends: the signer is only
// the account the resulting call is issued for.
type Callable interface {
	Address() common.Address
	Encode(method string, args ...any) ([]byte, error)
	Signer() (common.Address, bool)
}

type Binding interface {
	Readable
	Callable

	// Key identifies the binding within its network context generation.
	Key() string
}

type contractBinding struct {
	key      string
	address  common.Address
	abi      *abi.ABI
	contract *bind.BoundContract
	signer   common.Address
	signed   bool
}

func newContractBinding(key string, address common.Address, def *abi.ABI, caller bind.ContractCaller, signer common.Address, signed bool) *contractBinding {
	return &contractBinding{
		key:      key,
		address:  address,
		abi:      def,
		contract: bind.NewBoundContract(address, *def, caller, nil, nil),
		signer:   signer,
		signed:   signed,
	}
}

func (b *contractBinding) Key() string {
	return b.key
}

func (b *contractBinding) Address() common.Address {
	return b.address
}

func (b *contractBinding) Signer() (common.Address, bool) {
	return b.signer, b.signed
}

// Call runs method as an eth_call from the signer (when there is one), so nonpayable methods can
// be simulated as the safe would execute them.
func (b *contractBinding) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	start := time.Now()

	var out []any
	opts := &bind.CallOpts{Context: ctx}
	if b.signed {
		opts.From = b.signer
	}

	err := b.contract.Call(opts, &out, method, args...)
	xcommon.ObserveChainCall(method, start, err)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, b.address.Hex(), err)
	}

	return out, nil
}

func (b *contractBinding) Encode(method string, args ...any) ([]byte, error) {
	return b.abi.Pack(method, args...)
}

// CallBigInt calls a method returning a single uint256.
func CallBigInt(ctx context.Context, r Readable, method string, args ...any) (*big.Int, error) {
	out, err := r.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("call %s: empty result", method)
	}

	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("call %s: unexpected result type %T", method, out[0])
	}

	return v, nil
}

// CallAddress calls a method returning a single address.
func CallAddress(ctx context.Context, r Readable, method string, args ...any) (common.Address, error) {
	out, err := r.Call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}

	if len(out) == 0 {
		return common.Address{}, fmt.Errorf("call %s: empty result", method)
	}

	v, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("call %s: unexpected result type %T", method, out[0])
	}

	return v, nil
}
