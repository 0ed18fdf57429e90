package pooltogether

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/questx-lab/poolwidget/pkg/ethutil"
	"github.com/stretchr/testify/require"
)

func TestMetaDataParses(t *testing.T) {
	tests := []struct {
		name    string
		meta    *bind.MetaData
		methods map[string]string
	}{
		{
			name: "erc20",
			meta: ERC20MetaData,
			methods: map[string]string{
				MethodAllowance: "allowance(address,address)",
				MethodApprove:   "approve(address,uint256)",
				MethodBalanceOf: "balanceOf(address)",
				MethodDecimals:  "decimals()",
			},
		},
		{
			name: "prize pool",
			meta: PrizePoolMetaData,
			methods: map[string]string{
				MethodDepositTo:             "depositTo(address,uint256,address,address)",
				MethodWithdrawInstantlyFrom: "withdrawInstantlyFrom(address,uint256,address,uint256)",
				MethodCalculateEarlyExitFee: "calculateEarlyExitFee(address,address,uint256)",
				MethodCaptureAwardBalance:   "captureAwardBalance()",
				MethodBalance:               "balance()",
				MethodCToken:                "cToken()",
				MethodToken:                 "token()",
			},
		},
		{
			name: "prize strategy",
			meta: PrizeStrategyMetaData,
			methods: map[string]string{
				MethodPrizePeriodEndAt: "prizePeriodEndAt()",
				MethodTicket:           "ticket()",
			},
		},
		{
			name: "ctoken",
			meta: CTokenMetaData,
			methods: map[string]string{
				MethodSupplyRatePerBlock: "supplyRatePerBlock()",
				MethodBalanceOf:          "balanceOf(address)",
			},
		},
		{
			name:    "ticket",
			meta:    TicketMetaData,
			methods: map[string]string{MethodBalanceOf: "balanceOf(address)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := tt.meta.GetAbi()
			require.NoError(t, err)

			for name, sig := range tt.methods {
				m, ok := parsed.Methods[name]
				require.True(t, ok, name)
				require.Equal(t, sig, m.Sig)
				require.Equal(t, ethutil.Selector(sig), m.ID)
			}
		})
	}
}
