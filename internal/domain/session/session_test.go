package session

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/poolwidget/config"
	"github.com/questx-lab/poolwidget/internal/domain/registry"
	"github.com/questx-lab/poolwidget/internal/domain/safehost"
	"github.com/questx-lab/poolwidget/internal/testutil"
	"github.com/questx-lab/poolwidget/mocks"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var safeAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func rinkebyResolver() registry.Resolver {
	networks := config.Default().Networks
	rinkeby := networks["rinkeby"]
	rinkeby.Pools = map[string]config.PoolConfig{
		"DAI": {
			PrizePool:     "0x4706856FA8Bb747D50b4EF8547FE51Ab5Edc4Ac2",
			PrizeStrategy: "0x5E0A6d336667EACE5D1b33279B50055604c3E329",
		},
		"USDC": {
			PrizePool:     "0x0000000000000000000000000000000000000003",
			PrizeStrategy: "0x0000000000000000000000000000000000000004",
		},
	}
	networks["rinkeby"] = rinkeby
	return registry.NewResolver(networks)
}

type listeners struct {
	mu  sync.Mutex
	set *safehost.Listeners
}

func (l *listeners) capture(args mock.Arguments) {
	l.mu.Lock()
	defer l.mu.Unlock()
	set := args.Get(0).(safehost.Listeners)
	l.set = &set
}

func (l *listeners) get() *safehost.Listeners {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set
}

// newSession starts a session on chainID whose chain reads all fail, so every derived value
// settles quickly without a result.
func newSession(t *testing.T, chainID int64) (*Session, *mocks.EthClient, *mocks.Host, *listeners) {
	client := &mocks.EthClient{}
	client.On("ChainID", mock.Anything).Return(big.NewInt(chainID), nil)
	client.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(nil, testutil.ErrReverted)

	got := &listeners{}
	host := &mocks.Host{}
	host.On("AddListeners", mock.Anything).Run(got.capture).Return()
	host.On("RemoveListeners").Return()

	return New(testutil.MockContext(), client, host, rinkebyResolver()), client, host, got
}

func waitView(s *Session) {
	if view := s.View(); view != nil {
		view.Wait()
	}
}

func TestSession_Start(t *testing.T) {
	s, _, host, got := newSession(t, 4)
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	waitView(s)

	assets := s.Assets()
	require.Len(t, assets, 2)
	require.Equal(t, "DAI", assets[0].ID)
	require.Equal(t, int32(18), assets[0].Decimals)
	require.Equal(t, "USDC", assets[1].ID)

	require.Equal(t, "DAI", s.Selected())
	require.NotNil(t, s.View())
	require.Equal(t, uint64(1), s.Generation())

	bundle := s.View().Bundle()
	require.True(t, bundle.Complete())
	_, signed := bundle.Pool.Signer()
	require.False(t, signed)

	host.AssertNumberOfCalls(t, "AddListeners", 1)
	require.NotNil(t, got.get())

	err := s.Start(context.Background())
	require.Equal(t, errorx.InvalidState, errorx.CodeOf(err))
	host.AssertNumberOfCalls(t, "AddListeners", 1)
}

func TestSession_UnsupportedNetwork(t *testing.T) {
	s, _, host, _ := newSession(t, 5)
	defer s.Close()

	err := s.Start(context.Background())
	require.ErrorIs(t, err, errorx.ErrUnsupportedNetwork)
	require.Nil(t, s.View())
	require.Empty(t, s.Assets())
	host.AssertNotCalled(t, "AddListeners", mock.Anything)
}

func TestSession_MainnetWithoutPools(t *testing.T) {
	s, _, _, _ := newSession(t, 1)
	defer s.Close()

	err := s.Start(context.Background())
	require.ErrorIs(t, err, errorx.ErrUnsupportedNetwork)
}

func TestSession_ChainIDFailure(t *testing.T) {
	client := &mocks.EthClient{}
	client.On("ChainID", mock.Anything).Return(nil, errors.New("dial tcp: refused"))

	s := New(testutil.MockContext(), client, &mocks.Host{}, rinkebyResolver())
	err := s.Start(context.Background())
	require.ErrorIs(t, err, errorx.ErrChainRead)
}

func TestSession_SafeInfo(t *testing.T) {
	s, _, _, got := newSession(t, 4)
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	waitView(s)
	before := s.View()

	// another chain is ignored
	got.get().OnSafeInfo(safehost.SafeInfo{SafeAddress: safeAddr, Network: "mainnet", ChainID: 1})
	require.Equal(t, uint64(1), s.Generation())
	require.Same(t, before, s.View())

	got.get().OnSafeInfo(safehost.SafeInfo{SafeAddress: safeAddr, Network: "rinkeby", ChainID: 4})
	waitView(s)
	require.Equal(t, uint64(2), s.Generation())
	require.Equal(t, safeAddr, s.Safe().SafeAddress)
	require.NotSame(t, before, s.View())

	signer, signed := s.View().Bundle().Pool.Signer()
	require.True(t, signed)
	require.Equal(t, safeAddr, signer)

	// the same safe again changes nothing
	got.get().OnSafeInfo(safehost.SafeInfo{SafeAddress: safeAddr, Network: "rinkeby", ChainID: 4})
	require.Equal(t, uint64(2), s.Generation())
}

func TestSession_Select(t *testing.T) {
	s, _, _, _ := newSession(t, 4)
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	waitView(s)

	require.False(t, s.Select("WBTC"))
	require.False(t, s.Select("DAI"))
	require.Equal(t, "DAI", s.Selected())

	require.True(t, s.Select("USDC"))
	waitView(s)
	require.Equal(t, "USDC", s.View().Asset().ID)
	require.Equal(t, big.NewInt(1_000_000), s.View().InputAmount())
	require.Empty(t, s.TokenBalanceText())
}

func TestSession_UnknownNotificationsAreIgnored(t *testing.T) {
	s, _, _, got := newSession(t, 4)
	defer s.Close()

	require.NoError(t, s.Start(context.Background()))
	waitView(s)

	got.get().OnTransactionConfirmation("unknown", common.HexToHash("0x01"))
	got.get().OnTransactionRejection("unknown")
	require.Empty(t, s.Manager().Pending())
}

func TestSession_Close(t *testing.T) {
	s, _, host, _ := newSession(t, 4)

	require.NoError(t, s.Start(context.Background()))
	waitView(s)

	s.Close()
	s.Close()
	host.AssertNumberOfCalls(t, "RemoveListeners", 1)
	require.False(t, s.Select("USDC"))
}
