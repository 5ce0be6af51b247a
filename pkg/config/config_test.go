package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujine/balancer-sdk/pkg/network"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"NETWORK", "RPC_URL", "INFURA", "TRADER_KEY", "RELAYER_ADDRESS",
		"ROUTES_FILE", "SLIPPAGE", "NATS_URL", "NATS_FLUSH_EVERY", "NATS_FLUSH_TIMEOUT_MS", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, network.Mainnet, cfg.Network)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "0.01", cfg.Slippage)
	assert.Equal(t, int64(50), cfg.FlushTimeout.Milliseconds())

	assert.Error(t, cfg.Validate())
	_, err = cfg.Endpoint()
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("NETWORK", "kovan")
	t.Setenv("INFURA", "abc")
	t.Setenv("RELAYER_ADDRESS", "0x0000000000000000000000000000000000000009")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SLIPPAGE", "0.05")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	url, err := cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "https://kovan.infura.io/v3/abc", url)

	nc, err := cfg.NetworkConfig()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x09"), nc.Addresses.Relayer)

	s, err := cfg.SlippageWei()
	require.NoError(t, err)
	assert.Equal(t, "50000000000000000", s.String())
	assert.Equal(t, logrus.DebugLevel, cfg.Logger().GetLevel())

	t.Setenv("RPC_URL", "http://127.0.0.1:8545")
	cfg, err = FromEnv()
	require.NoError(t, err)
	url, err = cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8545", url)
}

func TestFromEnvErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("NETWORK", "solana")
	_, err := FromEnv()
	assert.ErrorIs(t, err, network.ErrUnsupportedNetwork)

	clearEnv(t)
	t.Setenv("RELAYER_ADDRESS", "nope")
	_, err = FromEnv()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("LOG_LEVEL", "loud")
	_, err = FromEnv()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("RPC_URL", "http://x")
	t.Setenv("SLIPPAGE", "2")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("ROUTES_FILE")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROUTES_FILE=routes.yaml\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "routes.yaml", cfg.RoutesFile)
	os.Unsetenv("ROUTES_FILE")
}
