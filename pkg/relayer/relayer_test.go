package relayer

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujine/balancer-sdk/pkg/abis"
	"github.com/sujine/balancer-sdk/pkg/contracts"
	"github.com/sujine/balancer-sdk/pkg/internal/chaintest"
	"github.com/sujine/balancer-sdk/pkg/network"
	"github.com/sujine/balancer-sdk/pkg/swaps"
	"github.com/sujine/balancer-sdk/pkg/units"
)

var (
	trader    = common.HexToAddress("0x35f5a330FD2F8e521ebd259FA272bA8069590741")
	vaultAddr = common.HexToAddress(network.VaultAddr)
	relayAddr = common.HexToAddress(network.MainnetRelayerAddr)

	bbausd = common.HexToAddress(network.BBAUSD)
	bbadai = common.HexToAddress(network.BBADAI)
	wadai  = common.HexToAddress(network.WADAI)
)

func TestChainedReference(t *testing.T) {
	ref := ToChainedReference(0)
	assert.Equal(t, "ba10"+strings.Repeat("0", 60), ref.Text(16))

	ref5 := ToChainedReference(5)
	assert.Equal(t, "ba10"+strings.Repeat("0", 59)+"5", ref5.Text(16))
	assert.Equal(t, 32, len(ref5.Bytes()))

	assert.True(t, IsChainedReference(ref5))
	assert.False(t, IsChainedReference(big.NewInt(5)))
	assert.False(t, IsChainedReference(nil))
}

func TestEncodeMulticallRoundTrip(t *testing.T) {
	calls := [][]byte{{0x01, 0x02}, {0x03}}
	data, err := EncodeMulticall(calls)
	require.NoError(t, err)
	assert.Equal(t, abis.Relayer.Methods["multicall"].ID, data[:4])

	packed, err := abis.Relayer.Methods["multicall"].Outputs.Pack(calls)
	require.NoError(t, err)
	got, err := DecodeMulticallResults(packed)
	require.NoError(t, err)
	assert.Equal(t, calls, got)
}

func TestDecodeSwapDeltas(t *testing.T) {
	raw, err := abis.Int256Array.Pack([]*big.Int{big.NewInt(10), big.NewInt(-7)})
	require.NoError(t, err)
	deltas, err := DecodeSwapDeltas(raw)
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.Equal(t, "-7", deltas[1].String())

	_, err = DecodeSwapDeltas([]byte{0x01})
	assert.Error(t, err)
}

// newBackend serves queryBatchSwap for the bb-a-USD -> bb-a-DAI -> waDAI
// route with fixed deltas per swap kind, and records the first step amount.
func newBackend(t *testing.T, stepAmounts *[]*big.Int) *chaintest.Caller {
	t.Helper()
	c := chaintest.NewCaller()
	method := abis.Vault.Methods["queryBatchSwap"]
	c.Handle(vaultAddr, method, func(_ ethereum.CallMsg, input []byte) ([]byte, error) {
		args, err := method.Inputs.Unpack(input)
		if err != nil {
			return nil, err
		}
		steps := reflect.ValueOf(args[1])
		if stepAmounts != nil && steps.Len() > 0 {
			amt := steps.Index(0).FieldByName("Amount").Interface().(*big.Int)
			*stepAmounts = append(*stepAmounts, amt)
		}
		var deltas []*big.Int
		if args[0].(uint8) == uint8(swaps.SwapExactIn) {
			deltas = []*big.Int{units.MustParseFixed("1", 18), big.NewInt(0), units.MustParseFixed("-0.98", 18)}
		} else {
			deltas = []*big.Int{units.MustParseFixed("1.02", 18), big.NewInt(0), units.MustParseFixed("-1", 18)}
		}
		return method.Outputs.Pack(deltas)
	})
	return c
}

func newTestService(t *testing.T, c *chaintest.Caller) *Service {
	t.Helper()
	router, err := swaps.NewStaticRouter(swaps.Route{
		Tokens:  []common.Address{bbausd, bbadai, wadai},
		PoolIDs: []common.Hash{common.HexToHash(swaps.BBAUSDPoolID), common.HexToHash(swaps.BBADAIPoolID)},
	})
	require.NoError(t, err)
	log := logrus.New()
	sw := swaps.NewService(router, contracts.NewVault(vaultAddr, c), log)
	return NewService(relayAddr, vaultAddr, sw, c, log)
}

func funds() swaps.FundManagement {
	return swaps.FundManagement{Sender: trader, Recipient: relayAddr}
}

func TestSwapUnwrapAaveStaticExactIn(t *testing.T) {
	c := newBackend(t, nil)
	svc := newTestService(t, c)
	rate := units.MustParseFixed("1.07", 18)
	slippage := units.MustParseFixed("0.01", 18)

	tx, err := svc.SwapUnwrapAaveStaticExactIn(context.Background(),
		[]common.Address{bbausd}, []common.Address{wadai},
		[]*big.Int{units.MustParseFixed("1", 18)}, []*big.Int{rate},
		funds(), slippage)
	require.NoError(t, err)

	assert.Equal(t, "multicall", tx.Function)
	require.Len(t, tx.Outputs.AmountsOut, 1)
	assert.Equal(t, "1048600000000000000", tx.Outputs.AmountsOut[0].String())
	assert.Empty(t, tx.Outputs.AmountsIn)

	calls := tx.Calls()
	require.Len(t, calls, 2)

	// one query per pair plus the combined one
	assert.Len(t, c.Calls, 2)

	steps, err := swaps.BuildBatchSwap(swaps.SwapExactIn, []swaps.Route{{
		Tokens:  []common.Address{bbausd, bbadai, wadai},
		PoolIDs: []common.Hash{common.HexToHash(swaps.BBAUSDPoolID), common.HexToHash(swaps.BBADAIPoolID)},
	}}, []*big.Int{units.MustParseFixed("1", 18)})
	require.NoError(t, err)
	wantBatch, err := EncodeBatchSwap(EncodeBatchSwapParams{
		Kind:   swaps.SwapExactIn,
		Swaps:  steps.Swaps,
		Assets: steps.Assets,
		Funds:  funds(),
		Limits: []*big.Int{
			units.MustParseFixed("1", 18),
			big.NewInt(0),
			units.MustParseFixed("-0.9702", 18),
		},
		OutputReferences: []OutputReference{{Index: big.NewInt(2), Key: ToChainedReference(0)}},
	})
	require.NoError(t, err)
	assert.Equal(t, wantBatch, calls[0])

	unwrap := abis.Relayer.Methods["unwrapAaveStaticToken"]
	assert.Equal(t, unwrap.ID, calls[1][:4])
	args, err := unwrap.Inputs.Unpack(calls[1][4:])
	require.NoError(t, err)
	assert.Equal(t, wadai, args[0])
	assert.Equal(t, relayAddr, args[1])
	assert.Equal(t, trader, args[2])
	assert.Equal(t, 0, ToChainedReference(0).Cmp(args[3].(*big.Int)))
	assert.Equal(t, true, args[4])
	assert.Zero(t, args[5].(*big.Int).Sign())

	data, err := tx.Data()
	require.NoError(t, err)
	assert.Equal(t, abis.Relayer.Methods["multicall"].ID, data[:4])
}

func TestSwapUnwrapAaveStaticExactOut(t *testing.T) {
	var amounts []*big.Int
	c := newBackend(t, &amounts)
	svc := newTestService(t, c)
	rate := units.MustParseFixed("1.07", 18)

	tx, err := svc.SwapUnwrapAaveStaticExactOut(context.Background(),
		[]common.Address{bbausd}, []common.Address{wadai},
		[]*big.Int{units.MustParseFixed("1.07", 18)}, []*big.Int{rate},
		funds(), units.MustParseFixed("0.01", 18))
	require.NoError(t, err)

	require.Len(t, tx.Outputs.AmountsIn, 1)
	assert.Equal(t, "1020000000000000000", tx.Outputs.AmountsIn[0].String())
	assert.Empty(t, tx.Outputs.AmountsOut)
	assert.Len(t, tx.Calls(), 2)

	// the query is priced in wrapped units: 1.07 / 1.07
	require.NotEmpty(t, amounts)
	for _, a := range amounts {
		assert.Equal(t, "1000000000000000000", a.String())
	}
}

func TestSwapUnwrapZeroAmount(t *testing.T) {
	svc := newTestService(t, newBackend(t, nil))

	_, err := svc.SwapUnwrapAaveStaticExactIn(context.Background(),
		[]common.Address{bbausd}, []common.Address{wadai},
		[]*big.Int{units.MustParseFixed("1", 18)}, []*big.Int{big.NewInt(0)},
		funds(), big.NewInt(0))
	assert.ErrorIs(t, err, ErrUnwrapZeroAmount)

	_, err = svc.SwapUnwrapAaveStaticExactIn(context.Background(),
		[]common.Address{bbausd}, []common.Address{wadai},
		[]*big.Int{units.MustParseFixed("1", 18)}, []*big.Int{nil},
		funds(), big.NewInt(0))
	assert.ErrorIs(t, err, ErrUnwrapZeroAmount)

	_, err = svc.SwapUnwrapAaveStaticExactOut(context.Background(),
		[]common.Address{bbausd}, []common.Address{wadai},
		[]*big.Int{big.NewInt(1)}, []*big.Int{units.MustParseFixed("2", 18)},
		funds(), big.NewInt(0))
	assert.ErrorIs(t, err, ErrUnwrapZeroAmount)
}

func TestSwapUnwrapLengthMismatch(t *testing.T) {
	svc := newTestService(t, newBackend(t, nil))
	_, err := svc.SwapUnwrapAaveStaticExactIn(context.Background(),
		[]common.Address{bbausd}, []common.Address{wadai},
		[]*big.Int{big.NewInt(1)}, nil, funds(), big.NewInt(0))
	assert.ErrorIs(t, err, swaps.ErrLengthMismatch)
}

func TestRelayerNotDeployed(t *testing.T) {
	c := newBackend(t, nil)
	svc := NewService(common.Address{}, vaultAddr, nil, c, nil)

	_, err := svc.SwapUnwrapAaveStaticExactIn(context.Background(), nil, nil, nil, nil, funds(), nil)
	assert.ErrorIs(t, err, ErrRelayerNotDeployed)
	_, err = svc.BuildRelayerApproval(trader, true)
	assert.ErrorIs(t, err, ErrRelayerNotDeployed)
	_, err = svc.CallStatic(context.Background(), trader, &TransactionData{Function: "multicall"})
	assert.ErrorIs(t, err, ErrRelayerNotDeployed)
}

func TestCallStatic(t *testing.T) {
	c := newBackend(t, nil)
	multicall := abis.Relayer.Methods["multicall"]
	swapResult, err := abis.Int256Array.Pack([]*big.Int{units.MustParseFixed("1", 18), big.NewInt(0), units.MustParseFixed("-0.98", 18)})
	require.NoError(t, err)
	c.Return(relayAddr, multicall, [][]byte{swapResult, {}})

	svc := newTestService(t, c)
	tx, err := svc.SwapUnwrapAaveStaticExactIn(context.Background(),
		[]common.Address{bbausd}, []common.Address{wadai},
		[]*big.Int{units.MustParseFixed("1", 18)}, []*big.Int{units.MustParseFixed("1.07", 18)},
		funds(), big.NewInt(0))
	require.NoError(t, err)

	results, err := svc.CallStatic(context.Background(), trader, tx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	last := c.Calls[len(c.Calls)-1]
	assert.Equal(t, trader, last.From)
	assert.Equal(t, relayAddr, *last.To)
	assert.Zero(t, last.Value.Sign())

	deltas, err := svc.SimulateSwapDeltas(context.Background(), trader, tx)
	require.NoError(t, err)
	require.Len(t, deltas, 3)
	assert.Equal(t, "-980000000000000000", deltas[2].String())
}

func TestCallStaticRevert(t *testing.T) {
	c := newBackend(t, nil)
	boom := errors.New("execution reverted: BAL#507")
	c.Handle(relayAddr, abis.Relayer.Methods["multicall"], func(ethereum.CallMsg, []byte) ([]byte, error) {
		return nil, boom
	})
	svc := newTestService(t, c)
	_, err := svc.CallStatic(context.Background(), trader, &TransactionData{Function: "multicall", Params: []interface{}{[][]byte{}}})
	assert.ErrorIs(t, err, boom)

	_, err = svc.CallStatic(context.Background(), trader, &TransactionData{Function: "nope"})
	assert.Error(t, err)
}

func TestRelayerApproval(t *testing.T) {
	c := newBackend(t, nil)
	c.Return(vaultAddr, abis.Vault.Methods["hasApprovedRelayer"], false)
	svc := newTestService(t, c)

	req, err := svc.BuildRelayerApproval(trader, true)
	require.NoError(t, err)
	assert.Equal(t, vaultAddr, req.To)
	assert.Zero(t, req.Value.Sign())

	method := abis.Vault.Methods["setRelayerApproval"]
	assert.Equal(t, method.ID, req.Data[:4])
	args, err := method.Inputs.Unpack(req.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, []interface{}{trader, relayAddr, true}, args)

	ok, err := svc.HasApproval(context.Background(), trader)
	require.NoError(t, err)
	assert.False(t, ok)
}

var (
	wausdc = common.HexToAddress(network.WAUSDC)
	wausdt = common.HexToAddress(network.WAUSDT)
)

// newBoostedBackend prices any batch over the bb-a-USD boosted routes: each
// static token in the assets pays out 0.9 (ExactIn) or 1 (ExactOut) and
// bb-a-USD takes 1 or 1.02 per static token.
func newBoostedBackend(t *testing.T) *chaintest.Caller {
	t.Helper()
	statics := map[common.Address]bool{wadai: true, wausdc: true, wausdt: true}
	c := chaintest.NewCaller()
	method := abis.Vault.Methods["queryBatchSwap"]
	c.Handle(vaultAddr, method, func(_ ethereum.CallMsg, input []byte) ([]byte, error) {
		args, err := method.Inputs.Unpack(input)
		if err != nil {
			return nil, err
		}
		exactIn := args[0].(uint8) == uint8(swaps.SwapExactIn)
		assets := args[2].([]common.Address)

		out, in := units.MustParseFixed("-1", 18), units.MustParseFixed("1.02", 18)
		if exactIn {
			out, in = units.MustParseFixed("-0.9", 18), units.MustParseFixed("1", 18)
		}
		deltas := make([]*big.Int, len(assets))
		total := big.NewInt(0)
		for i, a := range assets {
			deltas[i] = big.NewInt(0)
			if statics[a] {
				deltas[i] = new(big.Int).Set(out)
				total.Add(total, in)
			}
		}
		deltas[swaps.IndexOf(assets, bbausd)] = total
		return method.Outputs.Pack(deltas)
	})
	return c
}

func newBoostedService(t *testing.T, c *chaintest.Caller) *Service {
	t.Helper()
	router, err := swaps.NewStaticRouter(swaps.DefaultRoutes(network.Mainnet)...)
	require.NoError(t, err)
	sw := swaps.NewService(router, contracts.NewVault(vaultAddr, c), logrus.New())
	return NewService(relayAddr, vaultAddr, sw, c, logrus.New())
}

type batchSwapCall struct {
	limits []string
	refs   [][2]*big.Int
}

func decodeBatchSwap(t *testing.T, call []byte) batchSwapCall {
	t.Helper()
	method := abis.Relayer.Methods["batchSwap"]
	require.Equal(t, method.ID, call[:4])
	args, err := method.Inputs.Unpack(call[4:])
	require.NoError(t, err)

	var out batchSwapCall
	for _, l := range args[4].([]*big.Int) {
		out.limits = append(out.limits, l.String())
	}
	refs := reflect.ValueOf(args[7])
	for i := 0; i < refs.Len(); i++ {
		out.refs = append(out.refs, [2]*big.Int{
			refs.Index(i).FieldByName("Index").Interface().(*big.Int),
			refs.Index(i).FieldByName("Key").Interface().(*big.Int),
		})
	}
	return out
}

// assertUnwraps checks that unwrap i spends reference i of statics[i].
func assertUnwraps(t *testing.T, calls [][]byte, statics []common.Address) {
	t.Helper()
	unwrap := abis.Relayer.Methods["unwrapAaveStaticToken"]
	require.Len(t, calls, 1+len(statics))
	for i, tok := range statics {
		call := calls[1+i]
		require.Equal(t, unwrap.ID, call[:4])
		args, err := unwrap.Inputs.Unpack(call[4:])
		require.NoError(t, err)
		assert.Equal(t, tok, args[0])
		assert.Equal(t, relayAddr, args[1])
		assert.Equal(t, trader, args[2])
		assert.Zero(t, ToChainedReference(int64(i)).Cmp(args[3].(*big.Int)), "unwrap %d amount", i)
	}
}

func assertBoostedRefs(t *testing.T, refs [][2]*big.Int) {
	t.Helper()
	// assets: bb-a-USD, bb-a-DAI, waDAI, bb-a-USDC, waUSDC, bb-a-USDT, waUSDT
	require.Len(t, refs, 3)
	for i, wantIndex := range []int64{2, 4, 6} {
		assert.Equal(t, wantIndex, refs[i][0].Int64())
		assert.Zero(t, ToChainedReference(int64(i)).Cmp(refs[i][1]))
	}
}

func TestSwapUnwrapExactInThreePairs(t *testing.T) {
	c := newBoostedBackend(t)
	svc := newBoostedService(t, c)
	statics := []common.Address{wadai, wausdc, wausdt}
	one := units.MustParseFixed("1", 18)
	rate := units.MustParseFixed("1.1", 18)

	tx, err := svc.SwapUnwrapAaveStaticExactIn(context.Background(),
		[]common.Address{bbausd, bbausd, bbausd}, statics,
		[]*big.Int{one, one, one}, []*big.Int{rate, rate, rate},
		funds(), units.MustParseFixed("0.05", 18))
	require.NoError(t, err)

	// one query per pair plus the combined one
	assert.Len(t, c.Calls, 4)
	require.Len(t, tx.Outputs.AmountsOut, 3)
	for _, a := range tx.Outputs.AmountsOut {
		assert.Equal(t, "990000000000000000", a.String())
	}

	calls := tx.Calls()
	batch := decodeBatchSwap(t, calls[0])
	assert.Equal(t, []string{
		"3000000000000000000", "0", "-855000000000000000",
		"0", "-855000000000000000",
		"0", "-855000000000000000",
	}, batch.limits)
	assertBoostedRefs(t, batch.refs)
	assertUnwraps(t, calls, statics)
}

func TestSwapUnwrapExactOutThreePairs(t *testing.T) {
	c := newBoostedBackend(t)
	svc := newBoostedService(t, c)
	statics := []common.Address{wadai, wausdc, wausdt}
	amt := units.MustParseFixed("1.1", 18)
	rate := units.MustParseFixed("1.1", 18)

	tx, err := svc.SwapUnwrapAaveStaticExactOut(context.Background(),
		[]common.Address{bbausd, bbausd, bbausd}, statics,
		[]*big.Int{amt, amt, amt}, []*big.Int{rate, rate, rate},
		funds(), units.MustParseFixed("0.05", 18))
	require.NoError(t, err)

	require.Len(t, tx.Outputs.AmountsIn, 3)
	for _, a := range tx.Outputs.AmountsIn {
		assert.Equal(t, "1020000000000000000", a.String())
	}

	calls := tx.Calls()
	batch := decodeBatchSwap(t, calls[0])
	// max in is 3.06 * 1.05; static outs are exact
	assert.Equal(t, []string{
		"3213000000000000000", "0", "-1000000000000000000",
		"0", "-1000000000000000000",
		"0", "-1000000000000000000",
	}, batch.limits)
	assertBoostedRefs(t, batch.refs)
	assertUnwraps(t, calls, statics)
}
