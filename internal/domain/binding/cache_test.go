package binding

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/poolwidget/contract/pooltogether"
	"github.com/questx-lab/poolwidget/internal/testutil"
	"github.com/questx-lab/poolwidget/mocks"
	"github.com/stretchr/testify/require"
)

var (
	tokenAddr = common.HexToAddress("0x5592EC0cfb4dbc12D3aB100b257153436a1f0FEa")
	safeAddr  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func TestCache_AbsentWithoutContext(t *testing.T) {
	erc20 := testutil.MustAbi(t, pooltogether.ERC20MetaData)
	cache := NewCache()

	_, ok := cache.Get(tokenAddr, erc20)
	require.False(t, ok)

	cache.SetContext(NetworkContext{ChainID: big.NewInt(4)})
	_, ok = cache.Get(tokenAddr, erc20)
	require.False(t, ok, "no client yet")

	cache.SetContext(NetworkContext{ChainID: big.NewInt(4), Client: &mocks.EthClient{}})
	_, ok = cache.Get(common.Address{}, erc20)
	require.False(t, ok, "zero address")

	_, ok = cache.Get(tokenAddr, nil)
	require.False(t, ok, "no interface")
}

func TestCache_MemoizedPerGeneration(t *testing.T) {
	erc20 := testutil.MustAbi(t, pooltogether.ERC20MetaData)
	client := &mocks.EthClient{}

	cache := NewCache()
	gen := cache.SetContext(NetworkContext{ChainID: big.NewInt(4), Client: client, Signer: safeAddr})
	require.Equal(t, uint64(1), gen)

	a, ok := cache.Get(tokenAddr, erc20)
	require.True(t, ok)
	b, ok := cache.Get(common.HexToAddress(tokenAddr.Hex()), erc20)
	require.True(t, ok)
	require.Same(t, a, b)
	require.Equal(t, 1, cache.Len())

	signer, signed := a.Signer()
	require.True(t, signed)
	require.Equal(t, safeAddr, signer)

	gen = cache.SetContext(NetworkContext{ChainID: big.NewInt(4), Client: client})
	require.Equal(t, uint64(2), gen)
	require.Equal(t, 0, cache.Len())

	c, ok := cache.Get(tokenAddr, erc20)
	require.True(t, ok)
	require.NotSame(t, a, c)
	require.NotEqual(t, a.Key(), c.Key())

	_, signed = c.Signer()
	require.False(t, signed, "read-only without signer")

	// no network I/O while building bindings
	client.AssertNotCalled(t, "CallContract")
	client.AssertNotCalled(t, "CodeAt")
}

func TestCache_FirstGetReturnsStoredBinding(t *testing.T) {
	erc20 := testutil.MustAbi(t, pooltogether.ERC20MetaData)
	cache := NewCache()
	cache.SetContext(NetworkContext{ChainID: big.NewInt(4), Client: &mocks.EthClient{}})

	const n = 16
	got := make([]Binding, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], _ = cache.Get(tokenAddr, erc20)
		}(i)
	}
	wg.Wait()

	stored, ok := cache.Get(tokenAddr, erc20)
	require.True(t, ok)
	for _, b := range got {
		require.Same(t, stored, b)
	}
	require.Equal(t, 1, cache.Len())
}

func TestBinding_CallAndEncode(t *testing.T) {
	erc20 := testutil.MustAbi(t, pooltogether.ERC20MetaData)
	client := &mocks.EthClient{}
	testutil.OnCallWithArgs(t, client, tokenAddr, erc20, pooltogether.MethodBalanceOf,
		[]any{safeAddr}, testutil.Units(5, 18))

	cache := NewCache()
	cache.SetContext(NetworkContext{ChainID: big.NewInt(4), Client: client, Signer: safeAddr})
	token, ok := cache.Get(tokenAddr, erc20)
	require.True(t, ok)

	balance, err := CallBigInt(context.Background(), token, pooltogether.MethodBalanceOf, safeAddr)
	require.NoError(t, err)
	require.Equal(t, testutil.Units(5, 18), balance)

	data, err := token.Encode(pooltogether.MethodApprove, safeAddr, big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, erc20.Methods[pooltogether.MethodApprove].ID, data[:4])
	require.Len(t, data, 4+32+32)

	_, err = token.Encode("transfer", safeAddr, big.NewInt(1))
	require.Error(t, err)
}

func TestBinding_CallError(t *testing.T) {
	pool := testutil.MustAbi(t, pooltogether.PrizePoolMetaData)
	poolAddr := common.HexToAddress("0x01")
	client := &mocks.EthClient{}
	testutil.OnRevert(t, client, poolAddr, pool, pooltogether.MethodCToken)

	cache := NewCache()
	cache.SetContext(NetworkContext{ChainID: big.NewInt(4), Client: client})
	b, ok := cache.Get(poolAddr, pool)
	require.True(t, ok)

	_, err := CallAddress(context.Background(), b, pooltogether.MethodCToken)
	require.ErrorIs(t, err, testutil.ErrReverted)
}

func TestPoolBundle_Complete(t *testing.T) {
	require.False(t, PoolBundle{}.Complete())
}
