package registry

import (
	"strings"

	"github.com/questx-lab/poolwidget/config"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/questx-lab/poolwidget/pkg/ethutil"
)

type Resolver interface {
	Resolve(networkID uint64) ([]Asset, error)
}

type resolver struct {
	networks map[string]config.NetworkConfig
}

func NewResolver(networks map[string]config.NetworkConfig) Resolver {
	return &resolver{networks: networks}
}

func (r *resolver) network(networkID uint64) (config.NetworkConfig, bool) {
	for _, n := range r.networks {
		if n.ChainID == networkID {
			return n, true
		}
	}

	return config.NetworkConfig{}, false
}

// Resolve intersects the static catalog with the assets that have a token address and deployed
// pool contracts on networkID. The result only depends on the configuration.
func (r *resolver) Resolve(networkID uint64) ([]Asset, error) {
	network, ok := r.network(networkID)
	if !ok || len(network.Tokens) == 0 {
		return nil, errorx.New(errorx.UnsupportedNetwork, "No token configuration for %d", networkID)
	}

	assets := make([]Asset, 0, len(catalog))
	for _, entry := range catalog {
		tokenAddr, hasToken := lookup(network.Tokens, entry.ID)
		pool, hasPool := lookup(network.Pools, entry.ID)
		if !hasToken || !hasPool {
			continue
		}

		token, ok := ethutil.NormalizeAddress(tokenAddr)
		if !ok {
			return nil, errorx.New(errorx.UnsupportedNetwork,
				"Malformed token address %q of %s on network %d", tokenAddr, entry.ID, networkID)
		}

		poolAddr, ok := ethutil.NormalizeAddress(pool.PrizePool)
		if !ok {
			return nil, errorx.New(errorx.UnsupportedNetwork,
				"Malformed prize pool address %q of %s on network %d", pool.PrizePool, entry.ID, networkID)
		}

		strategy, ok := ethutil.NormalizeAddress(pool.PrizeStrategy)
		if !ok {
			return nil, errorx.New(errorx.UnsupportedNetwork,
				"Malformed prize strategy address %q of %s on network %d", pool.PrizeStrategy, entry.ID, networkID)
		}

		assets = append(assets, Asset{
			ID:              entry.ID,
			Label:           entry.Label,
			Decimals:        entry.Decimals,
			TokenAddress:    token,
			PoolAddress:     poolAddr,
			StrategyAddress: strategy,
		})
	}

	if len(assets) == 0 {
		return nil, errorx.New(errorx.UnsupportedNetwork, "No asset with a deployed pool on network %d", networkID)
	}

	return assets, nil
}

// lookup matches asset ids case-insensitively, config files use both "dai" and "DAI".
func lookup[V any](m map[string]V, id string) (V, bool) {
	if v, ok := m[id]; ok {
		return v, true
	}

	for k, v := range m {
		if strings.EqualFold(k, id) {
			return v, true
		}
	}

	var zero V
	return zero, false
}
