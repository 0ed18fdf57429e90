package eth

import "golang.org/x/exp/slices"

const (
	MainnetChainID uint64 = 1
	RinkebyChainID uint64 = 4
)

var networkNames = map[uint64]string{
	MainnetChainID: "mainnet",
	RinkebyChainID: "rinkeby",
}

var supportedChainIDs = []uint64{MainnetChainID, RinkebyChainID}

func IsSupportedNetwork(chainID uint64) bool {
	return slices.Contains(supportedChainIDs, chainID)
}

// NetworkName returns the canonical name of a supported chain, or an empty string.
func NetworkName(chainID uint64) string {
	return networkNames[chainID]
}
