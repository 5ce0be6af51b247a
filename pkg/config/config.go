// Package config loads SDK settings from the environment and .env files.
package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sujine/balancer-sdk/pkg/network"
	"github.com/sujine/balancer-sdk/pkg/units"
)

// Config is everything the CLI and the SDK facade read from the environment.
type Config struct {
	Network network.Network
	// RPCURL overrides the Infura URL built from InfuraKey.
	RPCURL    string
	InfuraKey string
	TraderKey string

	// RelayerAddress overrides the network's deployed relayer.
	RelayerAddress common.Address
	RoutesFile     string

	// Slippage is 1e18-scaled; SLIPPAGE is a decimal fraction ("0.01").
	Slippage string

	NATSURL      string
	FlushEvery   bool
	FlushTimeout time.Duration

	LogLevel logrus.Level
}

// Load reads .env (if present) then the process environment.
func Load(files ...string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load(files...)
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	n, err := network.Parse(getEnv("NETWORK", "mainnet"))
	if err != nil {
		return nil, err
	}
	lvl, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg := &Config{
		Network:      n,
		RPCURL:       os.Getenv("RPC_URL"),
		InfuraKey:    os.Getenv("INFURA"),
		TraderKey:    os.Getenv("TRADER_KEY"),
		RoutesFile:   os.Getenv("ROUTES_FILE"),
		Slippage:     getEnv("SLIPPAGE", "0.01"),
		NATSURL:      os.Getenv("NATS_URL"),
		FlushEvery:   os.Getenv("NATS_FLUSH_EVERY") == "1",
		FlushTimeout: time.Duration(getEnvInt("NATS_FLUSH_TIMEOUT_MS", 50)) * time.Millisecond,
		LogLevel:     lvl,
	}
	if v := strings.TrimSpace(os.Getenv("RELAYER_ADDRESS")); v != "" {
		if !common.IsHexAddress(v) {
			return nil, fmt.Errorf("RELAYER_ADDRESS: invalid address %q", v)
		}
		cfg.RelayerAddress = common.HexToAddress(v)
	}
	return cfg, nil
}

// Validate checks the settings needed to talk to a chain.
func (c *Config) Validate() error {
	if c.RPCURL == "" && c.InfuraKey == "" {
		return fmt.Errorf("rpc endpoint is required (set RPC_URL or INFURA)")
	}
	if _, err := network.ConfigFor(c.Network); err != nil {
		return err
	}
	s, err := c.SlippageWei()
	if err != nil {
		return fmt.Errorf("SLIPPAGE: %w", err)
	}
	if s.Cmp(units.WeiPerEther) > 0 {
		return fmt.Errorf("SLIPPAGE must be at most 1")
	}
	return nil
}

// Endpoint is RPCURL, or the Infura URL for the network.
func (c *Config) Endpoint() (string, error) {
	if c.RPCURL != "" {
		return c.RPCURL, nil
	}
	if c.InfuraKey == "" {
		return "", fmt.Errorf("rpc endpoint is required (set RPC_URL or INFURA)")
	}
	return network.InfuraURL(c.Network, c.InfuraKey)
}

// NetworkConfig returns the deployment addresses with overrides applied.
func (c *Config) NetworkConfig() (network.Config, error) {
	nc, err := network.ConfigFor(c.Network)
	if err != nil {
		return network.Config{}, err
	}
	if c.RelayerAddress != (common.Address{}) {
		nc.Addresses.Relayer = c.RelayerAddress
	}
	return nc, nil
}

// SlippageWei is Slippage as a 1e18-scaled integer.
func (c *Config) SlippageWei() (*big.Int, error) {
	return units.ParseFixed(c.Slippage, 18)
}

// Logger builds the root logger at LogLevel.
func (c *Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(c.LogLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
