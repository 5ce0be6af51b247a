package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sujine/balancer-sdk/pkg/balancer"
	"github.com/sujine/balancer-sdk/pkg/config"
	"github.com/sujine/balancer-sdk/pkg/network"
	"github.com/sujine/balancer-sdk/pkg/provider"
	"github.com/sujine/balancer-sdk/pkg/publisher"
	pub "github.com/sujine/balancer-sdk/pkg/publisher/nats"
	"github.com/sujine/balancer-sdk/pkg/swaps"
)

// app is the per-invocation state shared by subcommands.
type app struct {
	cfg  *config.Config
	log  *logrus.Logger
	net  network.Config
	sink publisher.Sink

	prov *provider.Provider
	sdk  *balancer.SDK
}

var (
	envFile string
	netFlag string
	appCtx  *app
)

func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root := &cobra.Command{
		Use:           "balancer",
		Short:         "Build and simulate Balancer relayer and pool factory transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			if netFlag != "" {
				n, err := network.Parse(netFlag)
				if err != nil {
					return err
				}
				cfg.Network = n
			}
			nc, err := cfg.NetworkConfig()
			if err != nil {
				return err
			}

			a := &app{cfg: cfg, log: cfg.Logger(), net: nc, sink: publisher.Noop{}}
			if cfg.NATSURL != "" {
				p, err := pub.New(cfg.NATSURL, pub.Options{FlushEvery: cfg.FlushEvery, FlushTimeout: cfg.FlushTimeout}, a.log)
				if err != nil {
					a.log.WithError(err).Warn("NATS unavailable, events will be dropped")
				} else {
					a.sink = p
				}
			}
			appCtx = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appCtx != nil {
				appCtx.close()
			}
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default .env)")
	root.PersistentFlags().StringVarP(&netFlag, "network", "n", "", "network name or chain id (overrides NETWORK)")

	root.AddCommand(ratesCmd(), relayerCmd(), poolsCmd())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

// connect dials the RPC endpoint and builds the SDK once.
func (a *app) connect(ctx context.Context) (*balancer.SDK, error) {
	if a.sdk != nil {
		return a.sdk, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	url, err := a.cfg.Endpoint()
	if err != nil {
		return nil, err
	}
	p, err := provider.Dial(ctx, url, nil, a.log)
	if err != nil {
		return nil, err
	}

	opts := []balancer.Option{balancer.WithLogger(a.log)}
	if a.cfg.RoutesFile != "" {
		routes, err := swaps.LoadRoutes(a.cfg.RoutesFile)
		if err != nil {
			p.Close()
			return nil, err
		}
		r, err := swaps.NewStaticRouter(routes...)
		if err != nil {
			p.Close()
			return nil, err
		}
		opts = append(opts, balancer.WithRouter(r))
	}

	sdk, err := balancer.New(a.net, p.Eth(), opts...)
	if err != nil {
		p.Close()
		return nil, err
	}
	a.prov, a.sdk = p, sdk
	return sdk, nil
}

func (a *app) wallet() (*provider.KeyWallet, error) {
	if a.cfg.TraderKey == "" {
		return nil, fmt.Errorf("TRADER_KEY is required to sign")
	}
	return provider.WalletFromHex(a.cfg.TraderKey)
}

// publish sends evt to the configured sink; failures are only logged.
func (a *app) publish(b *publisher.EventBuilder) {
	evt, err := b.Build()
	if err == nil {
		err = a.sink.Publish(evt)
	}
	if err != nil {
		a.log.WithError(err).Warn("publish event")
	}
}

func (a *app) close() {
	if a.sink != nil {
		a.sink.Close()
	}
	if a.prov != nil {
		a.prov.Close()
	}
}
