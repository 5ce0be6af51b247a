package swaps

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapType mirrors IVault.SwapKind.
type SwapType uint8

const (
	SwapExactIn  SwapType = 0 // GIVEN_IN
	SwapExactOut SwapType = 1 // GIVEN_OUT
)

func (s SwapType) String() string {
	switch s {
	case SwapExactIn:
		return "exact-in"
	case SwapExactOut:
		return "exact-out"
	default:
		return "unknown"
	}
}

// BatchSwapStep is IVault.BatchSwapStep. The abi tags match the tuple
// component names so the struct packs directly.
type BatchSwapStep struct {
	PoolID        [32]byte `abi:"poolId"`
	AssetInIndex  *big.Int `abi:"assetInIndex"`
	AssetOutIndex *big.Int `abi:"assetOutIndex"`
	Amount        *big.Int `abi:"amount"`
	UserData      []byte   `abi:"userData"`
}

// FundManagement is IVault.FundManagement.
type FundManagement struct {
	Sender              common.Address `abi:"sender"`
	FromInternalBalance bool           `abi:"fromInternalBalance"`
	Recipient           common.Address `abi:"recipient"`
	ToInternalBalance   bool           `abi:"toInternalBalance"`
}

// Route is a token path with the pool used for each hop:
// len(PoolIDs) == len(Tokens)-1.
type Route struct {
	Tokens  []common.Address
	PoolIDs []common.Hash
}

// Router finds the path between two tokens. Route discovery (the smart
// order router) lives outside this module.
type Router interface {
	Route(ctx context.Context, tokenIn, tokenOut common.Address) (Route, error)
}

// Querier simulates a batch swap and returns the per-asset Vault deltas.
// contracts.Vault implements it with queryBatchSwap.
type Querier interface {
	QueryBatchSwap(ctx context.Context, kind SwapType, steps []BatchSwapStep, assets []common.Address, funds FundManagement) ([]*big.Int, error)
}

// BatchSwap is an assembled, unsent Vault batch swap.
type BatchSwap struct {
	Kind   SwapType
	Swaps  []BatchSwapStep
	Assets []common.Address
}

// QueryResult is the outcome of querying a batch swap for several token pairs.
type QueryResult struct {
	BatchSwap
	// Deltas are the Vault deltas of the combined swap, aligned with Assets.
	Deltas []*big.Int
	// ReturnAmounts are per pair: amount out for ExactIn, amount in for ExactOut.
	ReturnAmounts []*big.Int
}
