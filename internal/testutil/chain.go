package testutil

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/poolwidget/mocks"
	"github.com/questx-lab/poolwidget/pkg/ethutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var ErrReverted = errors.New("execution reverted")

func MustAbi(t *testing.T, meta *bind.MetaData) *abi.ABI {
	parsed, err := meta.GetAbi()
	require.NoError(t, err)
	return parsed
}

// Units returns n * 10^decimals.
func Units(n int64, decimals int) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
}

func matchCall(to common.Address, prefix []byte) any {
	return mock.MatchedBy(func(msg ethereum.CallMsg) bool {
		return msg.To != nil && *msg.To == to && bytes.HasPrefix(msg.Data, prefix)
	})
}

// OnCall answers every call of method on the contract at to with the abi encoded outputs.
func OnCall(t *testing.T, client *mocks.EthClient, to common.Address, def *abi.ABI, method string, outputs ...any) *mock.Call {
	m, ok := def.Methods[method]
	require.True(t, ok, method)

	data, err := m.Outputs.Pack(outputs...)
	require.NoError(t, err)

	return client.On("CallContract", mock.Anything, matchCall(to, m.ID), mock.Anything).Return(data, nil)
}

// OnCallWithArgs is OnCall restricted to one exact argument list.
func OnCallWithArgs(t *testing.T, client *mocks.EthClient, to common.Address, def *abi.ABI, method string, args []any, outputs ...any) *mock.Call {
	input, err := def.Pack(method, args...)
	require.NoError(t, err)

	data, err := def.Methods[method].Outputs.Pack(outputs...)
	require.NoError(t, err)

	return client.On("CallContract", mock.Anything, matchCall(to, input), mock.Anything).Return(data, nil)
}

// OnRevert makes every call of method on the contract at to fail.
func OnRevert(t *testing.T, client *mocks.EthClient, to common.Address, def *abi.ABI, method string) *mock.Call {
	m, ok := def.Methods[method]
	require.True(t, ok, method)

	return client.On("CallContract", mock.Anything, matchCall(to, m.ID), mock.Anything).Return(nil, ErrReverted)
}

// CallCount counts the CallContract invocations of method on the contract at to.
func CallCount(client *mocks.EthClient, to common.Address, def *abi.ABI, method string) int {
	selector := def.Methods[method].ID
	n := 0
	for _, c := range client.Calls {
		if c.Method != "CallContract" {
			continue
		}

		msg, ok := c.Arguments.Get(1).(ethereum.CallMsg)
		if ok && msg.To != nil && *msg.To == to && ethutil.HasSelector(msg.Data, selector) {
			n++
		}
	}

	return n
}
