package provider

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hardhatKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// fakeEth serves the eth_ namespace methods the provider uses.
type fakeEth struct {
	mu       sync.Mutex
	chainID  int64
	baseFee  *big.Int
	sent     []*types.Transaction
	lastCall map[string]interface{}
	callOut  hexutil.Bytes
	callErr  error
}

func (f *fakeEth) ChainId() *hexutil.Big { return (*hexutil.Big)(big.NewInt(f.chainID)) }

func (f *fakeEth) GetTransactionCount(common.Address, string) hexutil.Uint64 { return 7 }

func (f *fakeEth) MaxPriorityFeePerGas() *hexutil.Big { return (*hexutil.Big)(big.NewInt(2e9)) }

func (f *fakeEth) GasPrice() *hexutil.Big { return (*hexutil.Big)(big.NewInt(5e9)) }

func (f *fakeEth) EstimateGas(map[string]interface{}, *string) hexutil.Uint64 { return 210000 }

func (f *fakeEth) GetBlockByNumber(string, bool) *types.Header {
	return &types.Header{
		Number:     big.NewInt(100),
		Difficulty: big.NewInt(0),
		GasLimit:   30_000_000,
		Time:       1,
		BaseFee:    f.baseFee,
	}
}

func (f *fakeEth) Call(arg map[string]interface{}, _ *string) (hexutil.Bytes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCall = arg
	return f.callOut, f.callErr
}

func (f *fakeEth) SendRawTransaction(raw hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}
	f.mu.Lock()
	f.sent = append(f.sent, tx)
	f.mu.Unlock()
	return tx.Hash(), nil
}

func (f *fakeEth) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.sent {
		if tx.Hash() == hash {
			return &types.Receipt{
				Status:            types.ReceiptStatusSuccessful,
				CumulativeGasUsed: 21000,
				GasUsed:           21000,
				TxHash:            hash,
				Logs:              []*types.Log{},
			}
		}
	}
	return nil
}

func newTestProvider(t *testing.T, f *fakeEth) *Provider {
	t.Helper()
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", f))
	t.Cleanup(srv.Stop)
	p := New(rpc.DialInProc(srv), logrus.New())
	p.PollInterval = 5 * time.Millisecond
	t.Cleanup(p.Close)
	return p
}

func TestWalletFromHex(t *testing.T) {
	w, err := WalletFromHex(hardhatKey)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), w.Address())

	_, err = WalletFromHex("0xnothex")
	assert.Error(t, err)
}

func TestSendDynamicFee(t *testing.T) {
	f := &fakeEth{chainID: 1337, baseFee: big.NewInt(1e9)}
	p := newTestProvider(t, f)
	w, err := WalletFromHex(hardhatKey)
	require.NoError(t, err)

	to := common.HexToAddress("0xBA12222222228d8Ba445958a75a0704d566BF2C8")
	tx, err := p.Send(context.Background(), w, to, []byte{0xde, 0xad}, nil)
	require.NoError(t, err)

	require.Len(t, f.sent, 1)
	got := f.sent[0]
	assert.Equal(t, tx.Hash(), got.Hash())
	assert.Equal(t, uint8(types.DynamicFeeTxType), got.Type())
	assert.Equal(t, uint64(7), got.Nonce())
	assert.Equal(t, uint64(210000), got.Gas())
	assert.Equal(t, "2000000000", got.GasTipCap().String())
	assert.Equal(t, "4000000000", got.GasFeeCap().String())
	assert.Equal(t, to, *got.To())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1337)), got)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), from)

	rcpt, err := p.WaitMined(context.Background(), tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, types.ReceiptStatusSuccessful, rcpt.Status)
}

func TestSendLegacyWithoutBaseFee(t *testing.T) {
	f := &fakeEth{chainID: 31337}
	p := newTestProvider(t, f)
	w, err := WalletFromHex(hardhatKey)
	require.NoError(t, err)

	_, err = p.Send(context.Background(), w, common.Address{1}, nil, big.NewInt(5))
	require.NoError(t, err)
	require.Len(t, f.sent, 1)
	assert.Equal(t, uint8(types.LegacyTxType), f.sent[0].Type())
	assert.Equal(t, "5000000000", f.sent[0].GasPrice().String())
	assert.Equal(t, "5", f.sent[0].Value().String())
}

func TestCallStatic(t *testing.T) {
	f := &fakeEth{chainID: 1, callOut: hexutil.Bytes{0x01, 0x02}}
	p := newTestProvider(t, f)

	from := common.HexToAddress("0x35f5a330FD2F8e521ebd259FA272bA8069590741")
	out, err := p.CallStatic(context.Background(), from, common.Address{9}, []byte{0xaa})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, out)
	assert.Equal(t, from.Hex(), common.HexToAddress(f.lastCall["from"].(string)).Hex())

	f.callErr = errors.New("execution reverted")
	_, err = p.CallStatic(context.Background(), from, common.Address{9}, nil)
	assert.ErrorContains(t, err, "execution reverted")
}

func TestWaitReceiptCanceled(t *testing.T) {
	f := &fakeEth{chainID: 1}
	p := newTestProvider(t, f)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.WaitMined(ctx, common.Hash{1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type brokenReader struct{}

func (brokenReader) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, errors.New("boom")
}

type notFoundReader struct{}

func (notFoundReader) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func TestWaitReceiptErrors(t *testing.T) {
	_, err := WaitReceipt(context.Background(), brokenReader{}, common.Hash{}, time.Millisecond)
	assert.ErrorContains(t, err, "boom")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = WaitReceipt(ctx, notFoundReader{}, common.Hash{}, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://mainnet.infura.io/...", redact("https://mainnet.infura.io/v3/secret"))
	assert.Equal(t, "http://127.0.0.1:8545", redact("http://127.0.0.1:8545"))
	assert.True(t, isWebsocket("WSS://node"))
	assert.False(t, isWebsocket("https://node"))
}
