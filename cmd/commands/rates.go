package commands

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sujine/balancer-sdk/pkg/network"
	"github.com/sujine/balancer-sdk/pkg/publisher"
	"github.com/sujine/balancer-sdk/pkg/units"
)

type rateOut struct {
	Pool   common.Address `json:"pool"`
	Symbol string         `json:"symbol"`
	Rate   string         `json:"rate"`
	Human  string         `json:"human"`
}

// defaultLinearPools are the Aave linear pools of bb-a-USD.
var defaultLinearPools = map[network.Network][]string{
	network.Mainnet: {network.BBADAI, network.BBAUSDC, network.BBAUSDT},
}

// rates [--pool addr]...: getWrappedTokenRate of linear pools.
func ratesCmd() *cobra.Command {
	var pools []string
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Read getWrappedTokenRate() of linear pools",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sdk, err := appCtx.connect(ctx)
			if err != nil {
				return err
			}
			if len(pools) == 0 {
				pools = defaultLinearPools[appCtx.cfg.Network]
			}

			out := make([]rateOut, 0, len(pools))
			for _, p := range pools {
				tok, err := resolveToken(appCtx.net, p)
				if err != nil {
					return err
				}
				rate, err := sdk.GetWrappedTokenRate(ctx, tok.Address)
				if err != nil {
					return err
				}
				out = append(out, rateOut{
					Pool:   tok.Address,
					Symbol: network.SymbolOf(tok.Address),
					Rate:   rate.String(),
					Human:  units.FormatFixed(rate, 18),
				})
				appCtx.log.WithFields(logrus.Fields{"pool": tok.Address.Hex(), "rate": units.ToFloat(rate, 18)}).Debug("wrapped token rate")
				appCtx.publish(publisher.NewEventBuilder(publisher.KindRate, appCtx.cfg.Network.String()).
					WithFunction("getWrappedTokenRate").
					WithAddress("pool", tok.Address).
					WithBig("rate", rate))
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringSliceVar(&pools, "pool", nil, "linear pool address or symbol (repeatable)")
	return cmd
}
