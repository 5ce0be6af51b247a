package swaps

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/sujine/balancer-sdk/pkg/units"
)

// GetLimitsForSlippage turns query deltas into batchSwap limits.
//
// Positive limits are the max the Vault may pull, negative limits the min
// it must pay out; intermediate assets get 0. Slippage is 1e18-scaled
// (5e16 == 5%) and is applied to the token out for ExactIn and the token
// in for ExactOut.
func GetLimitsForSlippage(
	tokensIn, tokensOut []common.Address,
	kind SwapType,
	deltas []*big.Int,
	assets []common.Address,
	slippage *big.Int,
) []*big.Int {
	slip := units.ZeroOr(slippage)
	limits := make([]*big.Int, len(assets))
	for i := range limits {
		limits[i] = big.NewInt(0)
	}

	for i, token := range assets {
		if i >= len(deltas) || deltas[i] == nil {
			continue
		}
		delta := deltas[i]

		if contains(tokensIn, token) {
			if kind == SwapExactOut {
				limits[i].Add(limits[i], units.MulDown(delta, new(big.Int).Add(units.WeiPerEther, slip)))
			} else {
				limits[i].Add(limits[i], delta)
			}
		}
		if contains(tokensOut, token) {
			if kind == SwapExactIn {
				limits[i].Add(limits[i], units.MulDown(delta, new(big.Int).Sub(units.WeiPerEther, slip)))
			} else {
				limits[i].Add(limits[i], delta)
			}
		}
	}
	return limits
}

func contains(list []common.Address, a common.Address) bool {
	return IndexOf(list, a) >= 0
}
