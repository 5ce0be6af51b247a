// Package provider wraps a JSON-RPC endpoint with the calls the SDK needs:
// contract reads, eth_call simulation and signed EIP-1559 submissions.
package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/sujine/balancer-sdk/pkg/internal/wsutil"
)

// Provider is a connected JSON-RPC client. Its Eth client satisfies
// bind.ContractCaller.
type Provider struct {
	rpc *rpc.Client
	eth *ethclient.Client
	log logrus.FieldLogger

	// PollInterval is the receipt polling period of WaitMined.
	PollInterval time.Duration
}

// Dial connects to url. ws:// and wss:// go through a gorilla/websocket
// dialer built from opt; anything else is dialed as HTTP or IPC.
func Dial(ctx context.Context, url string, opt *wsutil.Options, log logrus.FieldLogger) (*Provider, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	o := wsutil.Resolved(opt)
	dial := func(ctx context.Context) (*rpc.Client, error) {
		if isWebsocket(url) {
			return rpc.DialOptions(ctx, url,
				rpc.WithWebsocketDialer(wsutil.Dialer(opt)),
				rpc.WithWebsocketMessageSizeLimit(o.ReadLimit),
				rpc.WithHeaders(o.Headers),
			)
		}
		return rpc.DialOptions(ctx, url, rpc.WithHeaders(o.Headers))
	}
	c, err := wsutil.Retry(ctx, opt, log, dial)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", redact(url), err)
	}
	log.WithField("url", redact(url)).Info("rpc connected")
	return New(c, log), nil
}

// New wraps an existing rpc client.
func New(c *rpc.Client, log logrus.FieldLogger) *Provider {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Provider{
		rpc:          c,
		eth:          ethclient.NewClient(c),
		log:          log.WithField("component", "provider"),
		PollInterval: time.Second,
	}
}

func (p *Provider) Eth() *ethclient.Client { return p.eth }
func (p *Provider) RPC() *rpc.Client       { return p.rpc }

func (p *Provider) Close() {
	if p.rpc != nil {
		p.rpc.Close()
	}
}

func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := p.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	return id, nil
}

// CallStatic runs data against to with eth_call from the given account and
// returns the raw result. Reverts surface as errors.
func (p *Provider) CallStatic(ctx context.Context, from, to common.Address, data []byte) ([]byte, error) {
	out, err := p.eth.CallContract(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: big.NewInt(0),
		Data:  data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("eth_call %s: %w", to.Hex(), err)
	}
	return out, nil
}

// Send signs a transaction to `to` with w and submits it. A dynamic fee
// transaction is built when the chain reports a base fee, a legacy one
// otherwise.
func (p *Provider) Send(ctx context.Context, w Wallet, to common.Address, data []byte, value *big.Int) (*types.Transaction, error) {
	if value == nil {
		value = big.NewInt(0)
	}
	from := w.Address()

	chainID, err := p.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	nonce, err := p.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	gas, err := p.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	head, err := p.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("latest header: %w", err)
	}

	var txdata types.TxData
	if head.BaseFee != nil {
		tip, err := p.eth.SuggestGasTipCap(ctx)
		if err != nil {
			return nil, fmt.Errorf("gas tip: %w", err)
		}
		feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
		txdata = &types.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gas,
			To:        &to,
			Value:     value,
			Data:      data,
		}
	} else {
		gp, err := p.eth.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("gas price: %w", err)
		}
		txdata = &types.LegacyTx{Nonce: nonce, GasPrice: gp, Gas: gas, To: &to, Value: value, Data: data}
	}

	signed, err := w.SignTx(types.NewTx(txdata), chainID)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	if err := p.eth.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"hash":  signed.Hash().Hex(),
		"to":    to.Hex(),
		"nonce": nonce,
		"gas":   gas,
	}).Info("transaction sent")
	return signed, nil
}

// WaitMined polls for the receipt of hash until it appears or ctx ends.
func (p *Provider) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return WaitReceipt(ctx, p.eth, hash, p.PollInterval)
}

// ReceiptReader is the part of ethclient WaitReceipt needs.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// WaitReceipt polls r every interval until hash has a receipt.
func WaitReceipt(ctx context.Context, r ReceiptReader, hash common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		rcpt, err := r.TransactionReceipt(ctx, hash)
		if err == nil && rcpt != nil {
			return rcpt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func isWebsocket(url string) bool {
	u := strings.ToLower(url)
	return strings.HasPrefix(u, "ws://") || strings.HasPrefix(u, "wss://")
}

// redact drops the path of a URL, where providers put API keys.
func redact(url string) string {
	i := strings.Index(url, "://")
	if i < 0 {
		return url
	}
	rest := url[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return url[:i+3+j] + "/..."
	}
	return url
}
