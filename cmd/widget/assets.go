package main

import (
	"fmt"
	"math/big"
	"os"
	"text/tabwriter"

	"github.com/questx-lab/poolwidget/internal/domain/binding"
	"github.com/questx-lab/poolwidget/internal/domain/blockchain/eth"
	"github.com/questx-lab/poolwidget/internal/domain/pool"
	"github.com/questx-lab/poolwidget/internal/domain/registry"
	"github.com/questx-lab/poolwidget/internal/domain/session"
	"github.com/questx-lab/poolwidget/pkg/errorx"
	"github.com/questx-lab/poolwidget/pkg/xcontext"
	"github.com/urfave/cli/v2"
	"golang.org/x/exp/slices"
)

func (s *srv) resolveAssets(client eth.EthClient) (uint64, []registry.Asset, error) {
	chainID, err := client.ChainID(s.ctx)
	if err != nil {
		return 0, nil, errorx.Wrap(errorx.ErrChainRead, err)
	}

	if !chainID.IsUint64() || !eth.IsSupportedNetwork(chainID.Uint64()) {
		return 0, nil, errorx.New(errorx.UnsupportedNetwork, "Network %s is not supported", chainID)
	}

	resolver := registry.NewResolver(xcontext.Configs(s.ctx).Networks)
	assets, err := resolver.Resolve(chainID.Uint64())
	if err != nil {
		return 0, nil, err
	}

	return chainID.Uint64(), assets, nil
}

func (s *srv) listAssets(*cli.Context) error {
	client := s.loadEthClient()
	defer client.Close()

	chainID, assets, err := s.resolveAssets(client)
	if err != nil {
		return err
	}

	fmt.Printf("Network %s (%d)\n", eth.NetworkName(chainID), chainID)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDECIMALS\tTOKEN\tPRIZE POOL\tPRIZE STRATEGY")
	for _, a := range assets {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			a.ID, a.Decimals, a.TokenAddress.Hex(), a.PoolAddress.Hex(), a.StrategyAddress.Hex())
	}

	return w.Flush()
}

// estimatePrize runs a read-only pool view of one asset until its values settle.
func (s *srv) estimatePrize(c *cli.Context) error {
	client := s.loadEthClient()
	defer client.Close()

	chainID, assets, err := s.resolveAssets(client)
	if err != nil {
		return err
	}

	idx := 0
	if id := c.String("asset"); id != "" {
		idx = slices.IndexFunc(assets, func(a registry.Asset) bool { return a.ID == id })
		if idx < 0 {
			return errorx.New(errorx.NotFound, "Asset %s has no pool on %s", id, eth.NetworkName(chainID))
		}
	}
	asset := assets[idx]

	cache := binding.NewCache()
	cache.SetContext(binding.NetworkContext{ChainID: new(big.Int).SetUint64(chainID), Client: client})

	bundle, err := session.BindAsset(cache, asset)
	if err != nil {
		return err
	}

	view := pool.NewView(s.ctx, asset, bundle, pool.Deps{Cache: cache})
	view.Wait()
	defer view.Close()

	snapshot := view.Snapshot()
	if snapshot.EstimatedPrize.Error != "" {
		return fmt.Errorf("cannot estimate the prize of %s: %s", asset.ID, snapshot.EstimatedPrize.Error)
	}

	fmt.Printf("%s prize estimate: %s (%s)\n", asset.ID, snapshot.EstimatedPrize.Text, snapshot.EstimatedPrize.Status)
	return nil
}
