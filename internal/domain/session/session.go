package session

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/questx-lab/poolwidget/contract/pooltogether"
	"github.com/questx-lab/poolwidget/internal/domain/binding"
	"github.com/questx-lab/poolwidget/internal/domain/blockchain/eth"
	"github.com/questx-lab/poolwidget/internal/domain/pool"
	"github.com/questx-lab/poolwidget/internal/domain/prize"
	"github.com/questx-lab/poolwidget/internal/domain/registry"
	"github.com/questx-lab/poolwidget/internal/domain/safehost"
	"github.com/questx-lab/poolwidget/internal/domain/txrequest"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
	"golang.org/x/exp/slices"
)

// Session is one widget instance inside one wallet host. It owns the network context, the
// binding cache and the request manager, and shows the pool view of the selected asset.
type Session struct {
	ctx       context.Context
	client    eth.EthClient
	host      safehost.Host
	resolver  registry.Resolver
	cache     *binding.Cache
	manager   *txrequest.Manager
	estimator *prize.Estimator

	// OnChange is called whenever something displayed changes. Set it before Start.
	OnChange func()

	mu       sync.Mutex
	started  bool
	closed   bool
	chainID  *big.Int
	safe     safehost.SafeInfo
	assets   []registry.Asset
	bundles  map[string]binding.PoolBundle
	selected string
	view     *pool.View
}

func New(ctx context.Context, client eth.EthClient, host safehost.Host, resolver registry.Resolver) *Session {
	return &Session{
		ctx:       ctx,
		client:    client,
		host:      host,
		resolver:  resolver,
		cache:     binding.NewCache(),
		manager:   txrequest.NewManager(ctx, host, client),
		estimator: prize.NewEstimator(),
	}
}

// Start reads the chain, resolves its assets and selects the first one. Bindings are read-only
// until the host reports the wallet address.
func (s *Session) Start(ctx context.Context) error {
	chainID, err := s.client.ChainID(ctx)
	if err != nil {
		return errorx.Wrap(errorx.ErrChainRead, err)
	}

	if !chainID.IsUint64() || !eth.IsSupportedNetwork(chainID.Uint64()) {
		xcontext.Logger(ctx).Errorf("Network %s is not supported", chainID)
		return errorx.New(errorx.UnsupportedNetwork, "Network %s is not supported", chainID)
	}

	assets, err := s.resolver.Resolve(chainID.Uint64())
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return errorx.New(errorx.InvalidState, "Session already started")
	}

	s.started = true
	s.chainID = chainID
	s.assets = assets
	s.selected = assets[0].ID
	s.cache.SetContext(binding.NetworkContext{ChainID: chainID, Client: s.client})
	s.rebuild()
	s.mu.Unlock()

	s.host.AddListeners(safehost.Listeners{
		OnSafeInfo:                s.onSafeInfo,
		OnTransactionConfirmation: s.onConfirmation,
		OnTransactionRejection:    s.onRejection,
	})

	xcontext.Logger(ctx).Infof("Widget started on %s with %d assets", eth.NetworkName(chainID.Uint64()), len(assets))
	return nil
}

// rebuild binds every asset in the current generation and replaces the view. Caller holds mu.
func (s *Session) rebuild() {
	s.bundles = make(map[string]binding.PoolBundle, len(s.assets))
	for _, asset := range s.assets {
		bundle, err := BindAsset(s.cache, asset)
		if err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot bind %s: %v", asset.ID, err)
		}

		s.bundles[asset.ID] = bundle
	}

	s.replaceView()
}

// BindAsset binds the token, prize pool and prize strategy of asset in the current generation
// of cache. Bindings that cannot be created yet are left nil.
func BindAsset(cache *binding.Cache, asset registry.Asset) (binding.PoolBundle, error) {
	erc20, err := pooltogether.ERC20MetaData.GetAbi()
	if err != nil {
		return binding.PoolBundle{}, err
	}

	prizePool, err := pooltogether.PrizePoolMetaData.GetAbi()
	if err != nil {
		return binding.PoolBundle{}, err
	}

	strategy, err := pooltogether.PrizeStrategyMetaData.GetAbi()
	if err != nil {
		return binding.PoolBundle{}, err
	}

	var bundle binding.PoolBundle
	bundle.Token, _ = cache.Get(asset.TokenAddress, erc20)
	bundle.Pool, _ = cache.Get(asset.PoolAddress, prizePool)
	bundle.Strategy, _ = cache.Get(asset.StrategyAddress, strategy)
	return bundle, nil
}

// replaceView closes the current view and opens one for the selected asset. Caller holds mu.
func (s *Session) replaceView() {
	if s.view != nil {
		s.view.Close()
		s.view = nil
	}

	idx := slices.IndexFunc(s.assets, func(a registry.Asset) bool { return a.ID == s.selected })
	if idx < 0 {
		return
	}

	asset := s.assets[idx]
	s.view = pool.NewView(s.ctx, asset, s.bundles[asset.ID], pool.Deps{
		Cache:     s.cache,
		Estimator: s.estimator,
		Manager:   s.manager,
		OnChange:  s.notify,
	})
}

func (s *Session) onSafeInfo(info safehost.SafeInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.chainID == nil {
		return
	}

	if info.ChainID != 0 && info.ChainID != s.chainID.Uint64() {
		xcontext.Logger(s.ctx).Warnf("Ignore safe info of %s on chain %d, widget runs on %s",
			info.SafeAddress.Hex(), info.ChainID, s.chainID)
		return
	}

	if info.SafeAddress == s.safe.SafeAddress {
		return
	}

	s.safe = info
	generation := s.cache.SetContext(binding.NetworkContext{
		ChainID: s.chainID,
		Client:  s.client,
		Signer:  info.SafeAddress,
	})
	s.rebuild()

	xcontext.Logger(s.ctx).Infof("Safe %s connected, bindings generation %d", info.SafeAddress.Hex(), generation)
}

func (s *Session) onConfirmation(requestID string, safeTxHash common.Hash) {
	s.manager.Confirm(requestID, safeTxHash)
}

func (s *Session) onRejection(requestID string) {
	s.manager.Reject(requestID)
}

func (s *Session) notify() {
	if s.OnChange != nil {
		s.OnChange()
	}
}

// Assets lists the resolved assets in catalog order.
func (s *Session) Assets() []registry.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.assets)
}

func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Select switches the view to the asset with id. Unknown ids are ignored.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || id == s.selected {
		return false
	}

	if slices.IndexFunc(s.assets, func(a registry.Asset) bool { return a.ID == id }) < 0 {
		xcontext.Logger(s.ctx).Debugf("Ignore selection of unknown asset %s", id)
		return false
	}

	s.selected = id
	s.replaceView()
	return true
}

// View is the pool view of the selected asset, nil before Start.
func (s *Session) View() *pool.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// TokenBalanceText is the balance shown next to the asset selector.
func (s *Session) TokenBalanceText() string {
	view := s.View()
	if view == nil {
		return ""
	}

	return view.TokenBalanceText()
}

func (s *Session) Safe() safehost.SafeInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.safe
}

func (s *Session) Generation() uint64 {
	return s.cache.Generation()
}

func (s *Session) Manager() *txrequest.Manager {
	return s.manager
}

// Close removes the host listeners and stops publishing. Pending requests are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.closed = true
	started := s.started
	if s.view != nil {
		s.view.Close()
	}
	s.mu.Unlock()

	if started {
		s.host.RemoveListeners()
	}
}
