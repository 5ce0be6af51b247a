// Package balancer wires the SDK modules for one network.
package balancer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/sujine/balancer-sdk/pkg/contracts"
	"github.com/sujine/balancer-sdk/pkg/network"
	"github.com/sujine/balancer-sdk/pkg/pools"
	"github.com/sujine/balancer-sdk/pkg/relayer"
	"github.com/sujine/balancer-sdk/pkg/swaps"
)

// SDK is the entry point: swaps, relayer and pools for one network.
type SDK struct {
	Network network.Config
	Swaps   *swaps.Service
	Relayer *relayer.Service
	Pools   *pools.Module
	Vault   *contracts.Vault

	caller bind.ContractCaller
	log    logrus.FieldLogger
}

type options struct {
	log    logrus.FieldLogger
	router swaps.Router
}

type Option func(*options)

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithRouter replaces the built-in routes.
func WithRouter(r swaps.Router) Option {
	return func(o *options) { o.router = r }
}

// New builds an SDK on top of backend, which only needs to answer eth_call.
func New(cfg network.Config, backend bind.ContractCaller, opts ...Option) (*SDK, error) {
	if backend == nil {
		return nil, fmt.Errorf("nil contract backend")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.StandardLogger()
	}
	log := o.log.WithField("network", cfg.ChainID.String())

	if o.router == nil {
		r, err := swaps.NewStaticRouter(swaps.DefaultRoutes(cfg.ChainID)...)
		if err != nil {
			return nil, err
		}
		o.router = r
	}

	vault := contracts.NewVault(cfg.Addresses.Vault, backend)
	sw := swaps.NewService(o.router, vault, log)
	return &SDK{
		Network: cfg,
		Swaps:   sw,
		Relayer: relayer.NewService(cfg.Addresses.Relayer, cfg.Addresses.Vault, sw, backend, log),
		Pools:   pools.New(cfg, log),
		Vault:   vault,
		caller:  backend,
		log:     log,
	}, nil
}

// GetWrappedTokenRate reads getWrappedTokenRate() of a linear pool.
func (s *SDK) GetWrappedTokenRate(ctx context.Context, linearPool common.Address) (*big.Int, error) {
	return contracts.NewLinearPool(linearPool, s.caller).WrappedTokenRate(&bind.CallOpts{Context: ctx})
}

// GetAaveRate reads the current rate() of an Aave static token.
func (s *SDK) GetAaveRate(ctx context.Context, staticToken common.Address) (*big.Int, error) {
	return contracts.GetAaveRate(ctx, staticToken, s.caller)
}

// GetAaveRates reads the rates of several static tokens, one call at a time.
func (s *SDK) GetAaveRates(ctx context.Context, staticTokens []common.Address) ([]*big.Int, error) {
	rates := make([]*big.Int, len(staticTokens))
	for i, t := range staticTokens {
		r, err := s.GetAaveRate(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("rate of %s: %w", t.Hex(), err)
		}
		rates[i] = r
	}
	return rates, nil
}

func (s *SDK) Logger() logrus.FieldLogger { return s.log }
