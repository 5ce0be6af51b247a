package commands

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sujine/balancer-sdk/pkg/balancer"
	"github.com/sujine/balancer-sdk/pkg/publisher"
	"github.com/sujine/balancer-sdk/pkg/relayer"
	"github.com/sujine/balancer-sdk/pkg/swaps"
)

type relayerFlags struct {
	tokensIn []string
	statics  []string
	amounts  []string
	from     string
	simulate bool
	send     bool
}

type relayerOut struct {
	Kind     string          `json:"kind"`
	Function string          `json:"function"`
	Calls    []hexutil.Bytes `json:"calls"`
	Rates    []string        `json:"rates"`
	Outputs  relayer.Outputs `json:"outputs"`
	Tx       txOut           `json:"tx"`
	Deltas   []string        `json:"deltas,omitempty"`
	TxHash   string          `json:"txHash,omitempty"`
}

func relayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relayer",
		Short: "Swap through the Vault and unwrap Aave static tokens via the relayer",
	}
	cmd.AddCommand(
		swapUnwrapCmd(swaps.SwapExactIn),
		swapUnwrapCmd(swaps.SwapExactOut),
		approveCmd(),
	)
	return cmd
}

func swapUnwrapCmd(kind swaps.SwapType) *cobra.Command {
	var f relayerFlags
	short := "Swap exact amounts in for Aave static tokens and unwrap them"
	if kind == swaps.SwapExactOut {
		short = "Swap for exact unwrapped amounts of the Aave static tokens' underlying"
	}
	cmd := &cobra.Command{
		Use:   kind.String(),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sdk, err := appCtx.connect(ctx)
			if err != nil {
				return err
			}
			out, err := runSwapUnwrap(ctx, sdk, kind, f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringSliceVar(&f.tokensIn, "in", []string{"bb-a-USD"}, "tokens in, one per pair (symbol or address)")
	cmd.Flags().StringSliceVar(&f.statics, "static", []string{"waDAI"}, "Aave static tokens, one per pair")
	cmd.Flags().StringSliceVar(&f.amounts, "amounts", []string{"1"}, "decimal amounts, one per pair")
	cmd.Flags().StringVar(&f.from, "from", "", "account the relayer acts for (default: TRADER_KEY address)")
	cmd.Flags().BoolVar(&f.simulate, "simulate", true, "run the multicall with eth_call and print the swap deltas")
	cmd.Flags().BoolVar(&f.send, "send", false, "sign with TRADER_KEY and submit")
	return cmd
}

func runSwapUnwrap(ctx context.Context, sdk *balancer.SDK, kind swaps.SwapType, f relayerFlags) (*relayerOut, error) {
	tokensIn, err := resolveTokens(sdk.Network, f.tokensIn)
	if err != nil {
		return nil, err
	}
	statics, err := resolveTokens(sdk.Network, f.statics)
	if err != nil {
		return nil, err
	}
	// exact-in amounts are in the token in, exact-out in the unwrapped token
	amountTokens := tokensIn
	if kind == swaps.SwapExactOut {
		amountTokens = statics
	}
	amounts, err := parseAmounts(f.amounts, amountTokens)
	if err != nil {
		return nil, err
	}
	from, err := fromAddress(f.from)
	if err != nil {
		return nil, err
	}
	slippage, err := appCtx.cfg.SlippageWei()
	if err != nil {
		return nil, err
	}
	rates, err := sdk.GetAaveRates(ctx, addresses(statics))
	if err != nil {
		return nil, err
	}

	funds := swaps.FundManagement{Sender: from, Recipient: sdk.Relayer.Address()}
	var tx *relayer.TransactionData
	if kind == swaps.SwapExactIn {
		tx, err = sdk.Relayer.SwapUnwrapAaveStaticExactIn(ctx, addresses(tokensIn), addresses(statics), amounts, rates, funds, slippage)
	} else {
		tx, err = sdk.Relayer.SwapUnwrapAaveStaticExactOut(ctx, addresses(tokensIn), addresses(statics), amounts, rates, funds, slippage)
	}
	if err != nil {
		return nil, err
	}
	req, err := sdk.Relayer.RelayerCallTx(tx)
	if err != nil {
		return nil, err
	}

	out := &relayerOut{
		Kind:     kind.String(),
		Function: tx.Function,
		Rates:    bigStrings(rates),
		Outputs:  tx.Outputs,
		Tx:       newTxOut(req.To, req.Data, req.Value),
	}
	for _, c := range tx.Calls() {
		out.Calls = append(out.Calls, c)
	}

	if f.simulate {
		deltas, err := sdk.Relayer.SimulateSwapDeltas(ctx, from, tx)
		if err != nil {
			return nil, fmt.Errorf("simulate: %w", err)
		}
		out.Deltas = bigStrings(deltas)
		appCtx.publish(publisher.NewEventBuilder(publisher.KindSimulation, sdk.Network.ChainID.String()).
			WithFunction(tx.Function).
			WithAddress("from", from).
			WithBigs("deltas", deltas))
	}

	if f.send {
		hash, err := sendRelayerTx(ctx, sdk, from, req)
		if err != nil {
			return nil, err
		}
		out.TxHash = hash.Hex()
	}

	appCtx.publish(publisher.NewEventBuilder(publisher.KindRelayer, sdk.Network.ChainID.String()).
		WithFunction(tx.Function).
		WithString("kind", kind.String()).
		WithAddress("relayer", req.To).
		WithAddresses("tokensIn", addresses(tokensIn)).
		WithAddresses("staticTokens", addresses(statics)).
		WithBigs("amounts", amounts).
		WithBigs("rates", rates).
		WithValue("outputs", tx.Outputs))
	return out, nil
}

func sendRelayerTx(ctx context.Context, sdk *balancer.SDK, from common.Address, req *relayer.TxRequest) (common.Hash, error) {
	w, err := appCtx.wallet()
	if err != nil {
		return common.Hash{}, err
	}
	if w.Address() != from {
		return common.Hash{}, fmt.Errorf("--from %s does not match TRADER_KEY address %s", from.Hex(), w.Address().Hex())
	}
	ok, err := sdk.Relayer.HasApproval(ctx, from)
	if err != nil {
		return common.Hash{}, err
	}
	if !ok {
		return common.Hash{}, fmt.Errorf("relayer %s is not approved for %s; run `relayer approve` first", req.To.Hex(), from.Hex())
	}
	signed, err := appCtx.prov.Send(ctx, w, req.To, req.Data, req.Value)
	if err != nil {
		return common.Hash{}, err
	}
	rcpt, err := appCtx.prov.WaitMined(ctx, signed.Hash())
	if err != nil {
		return common.Hash{}, err
	}
	appCtx.log.WithFields(logrus.Fields{"hash": signed.Hash().Hex(), "status": rcpt.Status, "gasUsed": rcpt.GasUsed}).Info("relayer tx mined")
	return signed.Hash(), nil
}

// approve [--revoke]: Vault.setRelayerApproval for the trader.
func approveCmd() *cobra.Command {
	var (
		from   string
		revoke bool
		send   bool
	)
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve (or revoke) the relayer on the Vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sdk, err := appCtx.connect(ctx)
			if err != nil {
				return err
			}
			sender, err := fromAddress(from)
			if err != nil {
				return err
			}
			req, err := sdk.Relayer.BuildRelayerApproval(sender, !revoke)
			if err != nil {
				return err
			}
			approved, err := sdk.Relayer.HasApproval(ctx, sender)
			if err != nil {
				return err
			}

			res := struct {
				Sender   common.Address `json:"sender"`
				Relayer  common.Address `json:"relayer"`
				Approved bool           `json:"approvedNow"`
				Tx       txOut          `json:"tx"`
				TxHash   string         `json:"txHash,omitempty"`
			}{Sender: sender, Relayer: sdk.Relayer.Address(), Approved: approved, Tx: newTxOut(req.To, req.Data, req.Value)}

			if send {
				w, err := appCtx.wallet()
				if err != nil {
					return err
				}
				signed, err := appCtx.prov.Send(ctx, w, req.To, req.Data, req.Value)
				if err != nil {
					return err
				}
				if _, err := appCtx.prov.WaitMined(ctx, signed.Hash()); err != nil {
					return err
				}
				res.TxHash = signed.Hash().Hex()
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "account granting the approval (default: TRADER_KEY address)")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke instead of approve")
	cmd.Flags().BoolVar(&send, "send", false, "sign with TRADER_KEY and submit")
	return cmd
}

// fromAddress returns s, or the TRADER_KEY address when s is empty.
func fromAddress(s string) (common.Address, error) {
	if s != "" {
		if !common.IsHexAddress(s) {
			return common.Address{}, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	}
	w, err := appCtx.wallet()
	if err != nil {
		return common.Address{}, fmt.Errorf("--from or TRADER_KEY is required: %w", err)
	}
	return w.Address(), nil
}

func bigStrings(xs []*big.Int) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.String()
	}
	return out
}
