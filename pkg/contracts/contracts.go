package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/sujine/balancer-sdk/pkg/abis"
	"github.com/sujine/balancer-sdk/pkg/swaps"
)

// bound wraps a BoundContract with single-output helpers.
type bound struct {
	addr     common.Address
	contract *bind.BoundContract
}

func newBound(addr common.Address, parsed abi.ABI, c bind.ContractCaller) bound {
	return bound{addr: addr, contract: bind.NewBoundContract(addr, parsed, c, nil, nil)}
}

func (b bound) Address() common.Address { return b.addr }

func (b bound) callOne(opts *bind.CallOpts, method string, params ...interface{}) (interface{}, error) {
	if opts == nil {
		opts = &bind.CallOpts{}
	}
	var out []interface{}
	if err := b.contract.Call(opts, &out, method, params...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return out[0], nil
}

func (b bound) callBig(opts *bind.CallOpts, method string, params ...interface{}) (*big.Int, error) {
	v, err := b.callOne(opts, method, params...)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", method, v)
	}
	return n, nil
}

func (b bound) callAddress(opts *bind.CallOpts, method string) (common.Address, error) {
	v, err := b.callOne(opts, method)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unexpected type %T", method, v)
	}
	return addr, nil
}

// LinearPool reads a Balancer linear pool.
type LinearPool struct{ bound }

func NewLinearPool(addr common.Address, c bind.ContractCaller) *LinearPool {
	return &LinearPool{newBound(addr, abis.LinearPool, c)}
}

// WrappedTokenRate returns the 1e18-scaled rate between the wrapped and
// main token, as reported by the wrapping protocol.
func (p *LinearPool) WrappedTokenRate(opts *bind.CallOpts) (*big.Int, error) {
	return p.callBig(opts, "getWrappedTokenRate")
}

func (p *LinearPool) PoolID(opts *bind.CallOpts) (common.Hash, error) {
	v, err := p.callOne(opts, "getPoolId")
	if err != nil {
		return common.Hash{}, err
	}
	id, ok := v.([32]byte)
	if !ok {
		return common.Hash{}, fmt.Errorf("getPoolId: unexpected type %T", v)
	}
	return common.Hash(id), nil
}

func (p *LinearPool) MainToken(opts *bind.CallOpts) (common.Address, error) {
	return p.callAddress(opts, "getMainToken")
}

func (p *LinearPool) WrappedToken(opts *bind.CallOpts) (common.Address, error) {
	return p.callAddress(opts, "getWrappedToken")
}

// StaticAToken reads an Aave static (wrapped) aToken.
type StaticAToken struct{ bound }

func NewStaticAToken(addr common.Address, c bind.ContractCaller) *StaticAToken {
	return &StaticAToken{newBound(addr, abis.StaticAToken, c)}
}

func (s *StaticAToken) Rate(opts *bind.CallOpts) (*big.Int, error) {
	return s.callBig(opts, "rate")
}

// GetAaveRate fetches the up to date rate of an Aave static token.
func GetAaveRate(ctx context.Context, staticToken common.Address, c bind.ContractCaller) (*big.Int, error) {
	return NewStaticAToken(staticToken, c).Rate(&bind.CallOpts{Context: ctx})
}

// Vault reads from and queries the Balancer Vault.
type Vault struct{ bound }

func NewVault(addr common.Address, c bind.ContractCaller) *Vault {
	return &Vault{newBound(addr, abis.Vault, c)}
}

// QueryBatchSwap simulates a batch swap with eth_call. It satisfies swaps.Querier.
func (v *Vault) QueryBatchSwap(
	ctx context.Context,
	kind swaps.SwapType,
	steps []swaps.BatchSwapStep,
	assets []common.Address,
	funds swaps.FundManagement,
) ([]*big.Int, error) {
	out, err := v.callOne(&bind.CallOpts{Context: ctx}, "queryBatchSwap", uint8(kind), steps, assets, funds)
	if err != nil {
		return nil, err
	}
	deltas, ok := out.([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("queryBatchSwap: unexpected type %T", out)
	}
	return deltas, nil
}

func (v *Vault) HasApprovedRelayer(opts *bind.CallOpts, user, relayer common.Address) (bool, error) {
	out, err := v.callOne(opts, "hasApprovedRelayer", user, relayer)
	if err != nil {
		return false, err
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("hasApprovedRelayer: unexpected type %T", out)
	}
	return ok, nil
}

var _ swaps.Querier = (*Vault)(nil)
