package commands

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sujine/balancer-sdk/pkg/network"
	"github.com/sujine/balancer-sdk/pkg/pools"
	"github.com/sujine/balancer-sdk/pkg/publisher"
	"github.com/sujine/balancer-sdk/pkg/units"
)

func poolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Weighted pool factory transactions and events",
	}
	cmd.AddCommand(createTxCmd(), filterCmd(), initJoinCmd())
	return cmd
}

// examplePoolParams is the 30DAI-40USDC-30WBTC Kovan pool used when no
// params file is given.
func examplePoolParams(owner common.Address) pools.WeightedFactoryParams {
	return pools.WeightedFactoryParams{
		InitialFee: "0.1",
		Owner:      owner,
		SeedTokens: []pools.SeedToken{
			{ID: 0, TokenAddress: common.HexToAddress(network.KovanDAI), Weight: 30, Amount: "200000000", Symbol: "DAI"},
			{ID: 1, TokenAddress: common.HexToAddress(network.KovanUSDC), Weight: 40, Amount: "200000000", Symbol: "USDC"},
			{ID: 2, TokenAddress: common.HexToAddress(network.KovanWBTC), Weight: 30, Amount: "200000000", Symbol: "WBTC"},
		},
	}
}

func loadPoolParams(n network.Network, path, owner string) (pools.WeightedFactoryParams, error) {
	if path != "" {
		return pools.LoadWeightedParams(path)
	}
	if n != network.Kovan {
		return pools.WeightedFactoryParams{}, fmt.Errorf("built-in pool params use Kovan tokens; pass --params on %s", n)
	}
	o := common.Address{}
	if owner != "" {
		if !common.IsHexAddress(owner) {
			return pools.WeightedFactoryParams{}, fmt.Errorf("invalid owner %q", owner)
		}
		o = common.HexToAddress(owner)
	}
	return examplePoolParams(o), nil
}

func createTxCmd() *cobra.Command {
	var (
		paramsFile string
		owner      string
		send       bool
	)
	cmd := &cobra.Command{
		Use:   "create-tx",
		Short: "Build a WeightedPoolFactory.create transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := loadPoolParams(appCtx.cfg.Network, paramsFile, owner)
			if err != nil {
				return err
			}
			m := pools.New(appCtx.net, appCtx.log)
			tx, err := m.Weighted.BuildCreateTx(params)
			if err != nil {
				return err
			}

			res := struct {
				Attributes pools.CreateAttributes `json:"attributes"`
				Value      string                 `json:"value"`
				Tx         txOut                  `json:"tx"`
				Pools      []common.Address       `json:"pools,omitempty"`
			}{Attributes: tx.Attributes, Value: tx.Value.String(), Tx: newTxOut(tx.To, tx.Data, tx.SendValue())}

			if send {
				if _, err := appCtx.connect(cmd.Context()); err != nil {
					return err
				}
				w, err := appCtx.wallet()
				if err != nil {
					return err
				}
				signed, err := appCtx.prov.Send(cmd.Context(), w, tx.To, tx.Data, tx.SendValue())
				if err != nil {
					return err
				}
				rcpt, err := appCtx.prov.WaitMined(cmd.Context(), signed.Hash())
				if err != nil {
					return err
				}
				if res.Pools, err = pools.ParsePoolCreated(rcpt.Logs); err != nil {
					return err
				}
			}

			appCtx.publish(publisher.NewEventBuilder(publisher.KindPool, appCtx.cfg.Network.String()).
				WithFunction("create").
				WithString("name", tx.Attributes.Name).
				WithString("symbol", tx.Attributes.Symbol).
				WithAddresses("tokens", tx.Attributes.Tokens).
				WithBigs("weights", tx.Attributes.Weights).
				WithBig("swapFeePercentage", tx.Attributes.SwapFeePercentage).
				WithAddresses("created", res.Pools))
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&paramsFile, "params", "", "weighted pool params JSON (required unless --network kovan, which defaults to 30DAI-40USDC-30WBTC)")
	cmd.Flags().StringVar(&owner, "owner", "", "pool owner when --params is not given")
	cmd.Flags().BoolVar(&send, "send", false, "sign with TRADER_KEY, submit and print the created pool")
	return cmd
}

// filter [--tx hash]: PoolCreated topics, optionally matched against a receipt.
func filterCmd() *cobra.Command {
	var txHash string
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the log topics of a pool creation",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := pools.New(appCtx.net, appCtx.log)
			res := struct {
				Topics []common.Hash    `json:"topics"`
				Pools  []common.Address `json:"pools,omitempty"`
			}{Topics: m.GetPoolInfoFilter()}

			if txHash != "" {
				if _, err := appCtx.connect(cmd.Context()); err != nil {
					return err
				}
				rcpt, err := appCtx.prov.Eth().TransactionReceipt(cmd.Context(), common.HexToHash(txHash))
				if err != nil {
					return fmt.Errorf("receipt %s: %w", txHash, err)
				}
				if res.Pools, err = pools.ParsePoolCreated(rcpt.Logs); err != nil {
					return err
				}
				appCtx.log.WithFields(logrus.Fields{"tx": txHash, "pools": len(res.Pools)}).Info("pool creation logs")
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&txHash, "tx", "", "creation tx hash to extract pool addresses from")
	return cmd
}

func initJoinCmd() *cobra.Command {
	var (
		paramsFile string
		poolID     string
		from       string
		send       bool
	)
	cmd := &cobra.Command{
		Use:   "init-join",
		Short: "Build the Vault joinPool call that seeds a new weighted pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if poolID == "" {
				return fmt.Errorf("--pool-id is required")
			}
			params, err := loadPoolParams(appCtx.cfg.Network, paramsFile, "")
			if err != nil {
				return err
			}
			sender, err := fromAddress(from)
			if err != nil {
				return err
			}

			seeds := pools.SortSeedTokens(params.SeedTokens)
			tokens := make([]common.Address, len(seeds))
			balances := make([]*big.Int, len(seeds))
			for i, s := range seeds {
				tokens[i] = s.TokenAddress
				if balances[i], err = units.ParseBig(s.Amount); err != nil {
					return fmt.Errorf("seed token %s amount: %w", s.TokenAddress.Hex(), err)
				}
			}

			m := pools.New(appCtx.net, appCtx.log)
			req, err := m.Weighted.BuildInitJoin(pools.InitJoinParams{
				PoolID:          common.HexToHash(poolID),
				Sender:          sender,
				Receiver:        sender,
				TokenAddresses:  tokens,
				InitialBalances: balances,
			})
			if err != nil {
				return err
			}

			res := struct {
				Tx     txOut  `json:"tx"`
				TxHash string `json:"txHash,omitempty"`
			}{Tx: newTxOut(req.To, req.Data, req.Value)}
			if send {
				if _, err := appCtx.connect(cmd.Context()); err != nil {
					return err
				}
				w, err := appCtx.wallet()
				if err != nil {
					return err
				}
				signed, err := appCtx.prov.Send(cmd.Context(), w, req.To, req.Data, req.Value)
				if err != nil {
					return err
				}
				if _, err := appCtx.prov.WaitMined(cmd.Context(), signed.Hash()); err != nil {
					return err
				}
				res.TxHash = signed.Hash().Hex()
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&paramsFile, "params", "", "weighted pool params JSON with seed token amounts in base units (required unless --network kovan)")
	cmd.Flags().StringVar(&poolID, "pool-id", "", "bytes32 pool id returned by the Vault")
	cmd.Flags().StringVar(&from, "from", "", "account seeding the pool (default: TRADER_KEY address)")
	cmd.Flags().BoolVar(&send, "send", false, "sign with TRADER_KEY and submit")
	return cmd
}
