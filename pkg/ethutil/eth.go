package ethutil

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// NormalizeAddress parses a hex address and rejects anything that is not exactly 20 bytes.
func NormalizeAddress(s string) (common.Address, bool) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}

	return common.HexToAddress(s), true
}

func IsZeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}

// Selector returns the 4 byte function selector of a canonical signature such as
// "approve(address,uint256)".
func Selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

func SelectorHex(signature string) string {
	return "0x" + hex.EncodeToString(Selector(signature))
}

// HasSelector reports whether calldata starts with the given selector.
func HasSelector(data, selector []byte) bool {
	if len(data) < 4 || len(selector) != 4 {
		return false
	}

	for i := 0; i < 4; i++ {
		if data[i] != selector[i] {
			return false
		}
	}

	return true
}
