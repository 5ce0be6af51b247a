package fork

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/sujine/balancer-sdk/pkg/provider"
)

// Client sends transactions on a fork as impersonated accounts.
type Client struct {
	rpc *rpc.Client
	eth *ethclient.Client
	log logrus.FieldLogger

	PollInterval time.Duration
}

func NewClient(c *rpc.Client, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		rpc:          c,
		eth:          ethclient.NewClient(c),
		log:          log.WithField("component", "fork"),
		PollInterval: 200 * time.Millisecond,
	}
}

func Dial(ctx context.Context, url string, log logrus.FieldLogger) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial fork rpc: %w", err)
	}
	return NewClient(c, log), nil
}

func (c *Client) Eth() *ethclient.Client { return c.eth }

func (c *Client) Close() { c.rpc.Close() }

// Impersonate unlocks addr on the fork.
func (c *Client) Impersonate(ctx context.Context, addr common.Address) error {
	var out interface{}
	// hardhat first, then anvil
	if err := c.rpc.CallContext(ctx, &out, "hardhat_impersonateAccount", addr.Hex()); err != nil {
		if err2 := c.rpc.CallContext(ctx, &out, "anvil_impersonateAccount", addr.Hex()); err2 != nil {
			return fmt.Errorf("impersonate %s: %w", addr.Hex(), err)
		}
	}
	return nil
}

// SetBalance funds addr on the fork.
func (c *Client) SetBalance(ctx context.Context, addr common.Address, wei *big.Int) error {
	var out interface{}
	hexBal := hexutil.EncodeBig(wei)
	if err := c.rpc.CallContext(ctx, &out, "hardhat_setBalance", addr.Hex(), hexBal); err != nil {
		if err2 := c.rpc.CallContext(ctx, &out, "anvil_setBalance", addr.Hex(), hexBal); err2 != nil {
			return fmt.Errorf("set balance %s: %w", addr.Hex(), err)
		}
	}
	return nil
}

// SendAs impersonates from, tops it up with 100 ETH and sends the call with
// eth_sendTransaction. It returns the transaction hash.
func (c *Client) SendAs(ctx context.Context, from, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	if value == nil {
		value = big.NewInt(0)
	}
	if err := c.Impersonate(ctx, from); err != nil {
		return common.Hash{}, err
	}
	if err := c.SetBalance(ctx, from, new(big.Int).Mul(big.NewInt(1e18), big.NewInt(100))); err != nil {
		// not fatal
		c.log.WithError(err).Warn("setBalance failed")
	}

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fork nonce: %w", err)
	}
	gp, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		gp = big.NewInt(1_000_000_000) // 1 gwei fallback
	}

	args := map[string]interface{}{
		"from":     from.Hex(),
		"to":       to.Hex(),
		"gas":      hexutil.Uint64(8_000_000),
		"gasPrice": hexutil.Big(*gp),
		"value":    hexutil.Big(*value),
		"data":     hexutil.Encode(data),
		"nonce":    hexutil.Uint64(nonce),
	}
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, fmt.Errorf("fork send: %w", err)
	}
	c.log.WithFields(logrus.Fields{"from": from.Hex(), "to": to.Hex(), "hash": hash.Hex()}).Info("sent as impersonated account")
	return hash, nil
}

// WaitReceipt waits for hash and fails if the transaction reverted.
func (c *Client) WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	rcpt, err := provider.WaitReceipt(ctx, c.eth, hash, c.PollInterval)
	if err != nil {
		return nil, err
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return rcpt, fmt.Errorf("tx %s reverted", hash.Hex())
	}
	return rcpt, nil
}
