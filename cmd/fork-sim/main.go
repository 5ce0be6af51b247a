// cmd/fork-sim/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/sujine/balancer-sdk/pkg/balancer"
	"github.com/sujine/balancer-sdk/pkg/config"
	"github.com/sujine/balancer-sdk/pkg/fork"
	"github.com/sujine/balancer-sdk/pkg/network"
	"github.com/sujine/balancer-sdk/pkg/swaps"
	"github.com/sujine/balancer-sdk/pkg/units"
)

// Runs relayer exact-in on a local fork as SIM_ACCOUNT, which must hold
// SIM_TOKEN_IN on the source chain.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := cfg.Logger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("fork simulation failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	source, err := forkSource(cfg)
	if err != nil {
		return err
	}

	// 1) optionally start local fork (FORK_AUTO_START=1)
	forkURL, cleanup, err := fork.StartFromEnv(ctx, source, log)
	if err != nil {
		return fmt.Errorf("start fork: %w", err)
	}
	defer cleanup()
	if forkURL == "" {
		return fmt.Errorf("set FORK_RPC_URL or FORK_AUTO_START=1")
	}

	c, err := fork.Dial(ctx, forkURL, log)
	if err != nil {
		return err
	}
	defer c.Close()

	nc, err := cfg.NetworkConfig()
	if err != nil {
		return err
	}
	opts := []balancer.Option{balancer.WithLogger(log)}
	if cfg.RoutesFile != "" {
		routes, err := swaps.LoadRoutes(cfg.RoutesFile)
		if err != nil {
			return err
		}
		r, err := swaps.NewStaticRouter(routes...)
		if err != nil {
			return err
		}
		opts = append(opts, balancer.WithRouter(r))
	}
	sdk, err := balancer.New(nc, c.Eth(), opts...)
	if err != nil {
		return err
	}

	// 2) inputs
	account := os.Getenv("SIM_ACCOUNT")
	if !common.IsHexAddress(account) {
		return fmt.Errorf("SIM_ACCOUNT must be an address, got %q", account)
	}
	from := common.HexToAddress(account)
	tokenIn, err := token(nc, getenv("SIM_TOKEN_IN", "bb-a-USD"))
	if err != nil {
		return err
	}
	static, err := token(nc, getenv("SIM_STATIC_TOKEN", "waDAI"))
	if err != nil {
		return err
	}
	amount, err := units.ParseFixed(getenv("SIM_AMOUNT", "1"), tokenIn.Decimals)
	if err != nil {
		return fmt.Errorf("SIM_AMOUNT: %w", err)
	}
	slippage, err := cfg.SlippageWei()
	if err != nil {
		return err
	}

	// 3) approve the relayer as the impersonated account
	approval, err := sdk.Relayer.BuildRelayerApproval(from, true)
	if err != nil {
		return err
	}
	hash, err := c.SendAs(ctx, from, approval.To, approval.Data, approval.Value)
	if err != nil {
		return err
	}
	if _, err := c.WaitReceipt(ctx, hash); err != nil {
		return fmt.Errorf("relayer approval: %w", err)
	}
	log.WithField("tx", hash.Hex()).Info("[fork-sim] relayer approved")

	// 4) build, simulate and send the multicall
	rates, err := sdk.GetAaveRates(ctx, []common.Address{static.Address})
	if err != nil {
		return err
	}
	tx, err := sdk.Relayer.SwapUnwrapAaveStaticExactIn(ctx,
		[]common.Address{tokenIn.Address}, []common.Address{static.Address},
		[]*big.Int{amount}, rates,
		swaps.FundManagement{Sender: from, Recipient: sdk.Relayer.Address()},
		slippage)
	if err != nil {
		return err
	}
	deltas, err := sdk.Relayer.SimulateSwapDeltas(ctx, from, tx)
	if err != nil {
		return fmt.Errorf("callStatic: %w", err)
	}
	log.WithFields(logrus.Fields{"deltas": deltas, "amountsOut": tx.Outputs.AmountsOut}).Info("[fork-sim] simulated")

	req, err := sdk.Relayer.RelayerCallTx(tx)
	if err != nil {
		return err
	}
	hash, err = c.SendAs(ctx, from, req.To, req.Data, req.Value)
	if err != nil {
		return err
	}
	rcpt, err := c.WaitReceipt(ctx, hash)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"tx":      hash.Hex(),
		"block":   rcpt.BlockNumber,
		"gasUsed": rcpt.GasUsed,
		"logs":    len(rcpt.Logs),
	}).Info("[fork-sim] relayer multicall mined")
	return nil
}

// forkSource is the RPC endpoint a started fork copies state from. It is
// only required when the fork is started here without FORK_SOURCE_RPC.
func forkSource(cfg *config.Config) (string, error) {
	source, err := cfg.Endpoint()
	if err != nil && os.Getenv("FORK_AUTO_START") == "1" && os.Getenv("FORK_SOURCE_RPC") == "" {
		return "", fmt.Errorf("fork source: %w", err)
	}
	return source, nil
}

func token(nc network.Config, s string) (network.Token, error) {
	if common.IsHexAddress(s) {
		return network.Token{Symbol: s, Address: common.HexToAddress(s), Decimals: 18}, nil
	}
	t, ok := nc.Token(s)
	if !ok {
		return network.Token{}, fmt.Errorf("unknown token %q on %s", s, nc.ChainID)
	}
	return t, nil
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
