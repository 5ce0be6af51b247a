package swaps

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNoRoute         = errors.New("no route for token pair")
	ErrInvalidRoute    = errors.New("invalid route")
	ErrLengthMismatch  = errors.New("input lengths differ")
	ErrUnknownSwapType = errors.New("unknown swap type")
	ErrAssetNotInSwap  = errors.New("asset not part of batch swap")
)

// IndexOf returns the position of addr in assets, or -1.
func IndexOf(assets []common.Address, addr common.Address) int {
	for i, a := range assets {
		if a == addr {
			return i
		}
	}
	return -1
}

func validateRoute(r Route) error {
	if len(r.Tokens) < 2 {
		return fmt.Errorf("%w: need at least two tokens, got %d", ErrInvalidRoute, len(r.Tokens))
	}
	if len(r.PoolIDs) != len(r.Tokens)-1 {
		return fmt.Errorf("%w: %d tokens but %d pools", ErrInvalidRoute, len(r.Tokens), len(r.PoolIDs))
	}
	return nil
}

// BuildBatchSwap assembles one batch swap out of several routes.
//
// Assets are deduplicated in order of first appearance. For ExactIn the hops
// run forward and only the first hop carries the amount; for ExactOut the
// hops run backwards from the token out and only the last hop carries the
// amount. A zero amount tells the Vault to chain from the previous step.
func BuildBatchSwap(kind SwapType, routes []Route, amounts []*big.Int) (*BatchSwap, error) {
	if len(routes) != len(amounts) {
		return nil, fmt.Errorf("%w: %d routes, %d amounts", ErrLengthMismatch, len(routes), len(amounts))
	}
	if kind != SwapExactIn && kind != SwapExactOut {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSwapType, kind)
	}

	bs := &BatchSwap{Kind: kind}
	assetIndex := func(a common.Address) *big.Int {
		i := IndexOf(bs.Assets, a)
		if i < 0 {
			bs.Assets = append(bs.Assets, a)
			i = len(bs.Assets) - 1
		}
		return big.NewInt(int64(i))
	}

	for ri, r := range routes {
		if err := validateRoute(r); err != nil {
			return nil, fmt.Errorf("route %d: %w", ri, err)
		}
		if amounts[ri] == nil || amounts[ri].Sign() <= 0 {
			return nil, fmt.Errorf("route %d: amount must be positive", ri)
		}
		// register every token in path order so asset indices are stable
		for _, tok := range r.Tokens {
			assetIndex(tok)
		}

		hops := len(r.PoolIDs)
		for h := 0; h < hops; h++ {
			hop := h
			if kind == SwapExactOut {
				hop = hops - 1 - h
			}
			amount := big.NewInt(0)
			if h == 0 {
				amount = new(big.Int).Set(amounts[ri])
			}
			bs.Swaps = append(bs.Swaps, BatchSwapStep{
				PoolID:        r.PoolIDs[hop],
				AssetInIndex:  assetIndex(r.Tokens[hop]),
				AssetOutIndex: assetIndex(r.Tokens[hop+1]),
				Amount:        amount,
				UserData:      []byte{},
			})
		}
	}
	return bs, nil
}

// ReturnAmount reads the amount a single-pair batch swap returns from its
// deltas: the token out leaving the Vault for ExactIn, the token in entering
// it for ExactOut. Both are reported as positive numbers.
func ReturnAmount(kind SwapType, assets []common.Address, deltas []*big.Int, tokenIn, tokenOut common.Address) (*big.Int, error) {
	target := tokenOut
	if kind == SwapExactOut {
		target = tokenIn
	}
	i := IndexOf(assets, target)
	if i < 0 || i >= len(deltas) {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotInSwap, target.Hex())
	}
	return new(big.Int).Abs(deltas[i]), nil
}
