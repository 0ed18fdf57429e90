package ethutil

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	addr, ok := NormalizeAddress(" 0x6b175474e89094c44da98b954eedeac495271d0f ")
	require.True(t, ok)
	require.Equal(t, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), addr)

	_, ok = NormalizeAddress("0x1234")
	require.False(t, ok)

	_, ok = NormalizeAddress("not an address")
	require.False(t, ok)

	require.True(t, IsZeroAddress(common.Address{}))
	require.False(t, IsZeroAddress(addr))
}

func TestSelector(t *testing.T) {
	require.Equal(t, "0x095ea7b3", SelectorHex("approve(address,uint256)"))
	require.Equal(t, "0x70a08231", SelectorHex("balanceOf(address)"))
	require.Equal(t, "0xdd62ed3e", SelectorHex("allowance(address,address)"))

	require.True(t, HasSelector([]byte{0x09, 0x5e, 0xa7, 0xb3, 0x00}, Selector("approve(address,uint256)")))
	require.False(t, HasSelector([]byte{0x09}, Selector("approve(address,uint256)")))
}
