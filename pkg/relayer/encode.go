package relayer

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/sujine/balancer-sdk/pkg/abis"
	"github.com/sujine/balancer-sdk/pkg/swaps"
)

// ChainedReferencePrefix marks a uint256 amount as a relayer storage slot
// rather than a literal amount.
const ChainedReferencePrefix = "ba10"

var chainedReferenceBase = func() *big.Int {
	// prefix in the top two bytes of a 32-byte word
	v, _ := new(big.Int).SetString(ChainedReferencePrefix, 16)
	return v.Lsh(v, 256-16)
}()

// ToChainedReference returns the relayer reference for key.
func ToChainedReference(key int64) *big.Int {
	return new(big.Int).Add(chainedReferenceBase, big.NewInt(key))
}

// IsChainedReference reports whether amount carries the reference prefix.
func IsChainedReference(amount *big.Int) bool {
	if amount == nil {
		return false
	}
	return new(big.Int).Rsh(amount, 256-16).Cmp(new(big.Int).Rsh(chainedReferenceBase, 256-16)) == 0
}

// OutputReference tells the relayer to store the delta of Assets[Index]
// under the chained reference Key.
type OutputReference struct {
	Index *big.Int `abi:"index"`
	Key   *big.Int `abi:"key"`
}

// EncodeBatchSwapParams are the relayer library's batchSwap arguments.
type EncodeBatchSwapParams struct {
	Kind             swaps.SwapType
	Swaps            []swaps.BatchSwapStep
	Assets           []common.Address
	Funds            swaps.FundManagement
	Limits           []*big.Int
	Deadline         *big.Int
	Value            *big.Int
	OutputReferences []OutputReference
}

// EncodeBatchSwap returns calldata for the relayer library batchSwap.
func EncodeBatchSwap(p EncodeBatchSwapParams) ([]byte, error) {
	deadline := p.Deadline
	if deadline == nil {
		deadline = new(big.Int).Set(math.MaxBig256)
		deadline.Rsh(deadline, 1) // MaxInt256
	}
	value := p.Value
	if value == nil {
		value = big.NewInt(0)
	}
	refs := p.OutputReferences
	if refs == nil {
		refs = []OutputReference{}
	}
	data, err := abis.Relayer.Pack("batchSwap",
		uint8(p.Kind), p.Swaps, p.Assets, p.Funds, p.Limits, deadline, value, refs)
	if err != nil {
		return nil, fmt.Errorf("encode batchSwap: %w", err)
	}
	return data, nil
}

// UnwrapAaveStaticTokenParams are the unwrapAaveStaticToken arguments.
type UnwrapAaveStaticTokenParams struct {
	StaticToken     common.Address
	Sender          common.Address
	Recipient       common.Address
	Amount          *big.Int
	ToUnderlying    bool
	OutputReference *big.Int
}

// EncodeUnwrapAaveStaticToken returns calldata for unwrapAaveStaticToken.
func EncodeUnwrapAaveStaticToken(p UnwrapAaveStaticTokenParams) ([]byte, error) {
	ref := p.OutputReference
	if ref == nil {
		ref = big.NewInt(0)
	}
	data, err := abis.Relayer.Pack("unwrapAaveStaticToken",
		p.StaticToken, p.Sender, p.Recipient, p.Amount, p.ToUnderlying, ref)
	if err != nil {
		return nil, fmt.Errorf("encode unwrapAaveStaticToken: %w", err)
	}
	return data, nil
}

// EncodeMulticall wraps library calls into the relayer's multicall.
func EncodeMulticall(calls [][]byte) ([]byte, error) {
	data, err := abis.Relayer.Pack("multicall", calls)
	if err != nil {
		return nil, fmt.Errorf("encode multicall: %w", err)
	}
	return data, nil
}

// DecodeMulticallResults unpacks the bytes[] a multicall returns.
func DecodeMulticallResults(output []byte) ([][]byte, error) {
	out, err := abis.Relayer.Unpack("multicall", output)
	if err != nil {
		return nil, fmt.Errorf("decode multicall: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("decode multicall: %d outputs", len(out))
	}
	results, ok := out[0].([][]byte)
	if !ok {
		return nil, fmt.Errorf("decode multicall: unexpected type %T", out[0])
	}
	return results, nil
}

// DecodeSwapDeltas decodes the int256[] a relayer batchSwap returns.
func DecodeSwapDeltas(result []byte) ([]*big.Int, error) {
	out, err := abis.Int256Array.Unpack(result)
	if err != nil {
		return nil, fmt.Errorf("decode swap deltas: %w", err)
	}
	deltas, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("decode swap deltas: unexpected type %T", out[0])
	}
	return deltas, nil
}
