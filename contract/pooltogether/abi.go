// Package pooltogether holds the subset of the PoolTogether v3 and Compound ABIs the widget reads
// and encodes.
package pooltogether

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

// Method names.
const (
	MethodAllowance             = "allowance"
	MethodApprove               = "approve"
	MethodBalanceOf             = "balanceOf"
	MethodDecimals              = "decimals"
	MethodDepositTo             = "depositTo"
	MethodWithdrawInstantlyFrom = "withdrawInstantlyFrom"
	MethodCalculateEarlyExitFee = "calculateEarlyExitFee"
	MethodCaptureAwardBalance   = "captureAwardBalance"
	MethodBalance               = "balance"
	MethodCToken                = "cToken"
	MethodToken                 = "token"
	MethodPrizePeriodEndAt      = "prizePeriodEndAt"
	MethodTicket                = "ticket"
	MethodSupplyRatePerBlock    = "supplyRatePerBlock"
)

// ERC20MetaData covers the underlying deposit tokens (DAI, USDC, USDT).
var ERC20MetaData = &bind.MetaData{
	ABI: `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`,
}

// PrizePoolMetaData covers the compound prize pool.
var PrizePoolMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"controlledToken","type":"address"},{"name":"referrer","type":"address"}],"name":"depositTo","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"from","type":"address"},{"name":"amount","type":"uint256"},{"name":"controlledToken","type":"address"},{"name":"maximumExitFee","type":"uint256"}],"name":"withdrawInstantlyFrom","outputs":[{"name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"from","type":"address"},{"name":"controlledToken","type":"address"},{"name":"amount","type":"uint256"}],"name":"calculateEarlyExitFee","outputs":[{"name":"exitFee","type":"uint256"},{"name":"burnedCredit","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"captureAwardBalance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"balance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"cToken","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"token","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`,
}

// PrizeStrategyMetaData covers the single random winner strategy.
var PrizeStrategyMetaData = &bind.MetaData{
	ABI: `[
	{"inputs":[],"name":"prizePeriodEndAt","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"ticket","outputs":[{"name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`,
}

// CTokenMetaData covers the Compound market backing a pool.
var CTokenMetaData = &bind.MetaData{
	ABI: `[
	{"constant":true,"inputs":[],"name":"supplyRatePerBlock","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`,
}

// TicketMetaData covers the pool's controlled ticket token.
var TicketMetaData = &bind.MetaData{
	ABI: `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`,
}
