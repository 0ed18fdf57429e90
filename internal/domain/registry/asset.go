package registry

import "github.com/ethereum/go-ethereum/common"

// Asset is a supported deposit token and its prize pool contracts on one network.
type Asset struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Decimals int32  `json:"decimals"`

	TokenAddress    common.Address `json:"tokenAddress"`
	PoolAddress     common.Address `json:"poolAddress"`
	StrategyAddress common.Address `json:"strategyAddress"`
}

func (a Asset) TokenDecimals() int32 {
	return a.Decimals
}

type catalogEntry struct {
	ID       string
	Label    string
	Decimals int32
}

// catalog lists the statically known assets. Its order is the order of resolved asset lists.
var catalog = []catalogEntry{
	{ID: "DAI", Label: "DAI", Decimals: 18},
	{ID: "USDC", Label: "USDC", Decimals: 6},
	{ID: "USDT", Label: "USDT", Decimals: 6},
}
