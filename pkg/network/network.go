package network

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Network is an EVM chain id that has Balancer contracts deployed.
type Network int64

const (
	Mainnet  Network = 1
	Ropsten  Network = 3
	Rinkeby  Network = 4
	Goerli   Network = 5
	Kovan    Network = 42
	Polygon  Network = 137
	Arbitrum Network = 42161
)

var ErrUnsupportedNetwork = errors.New("unsupported network")

var names = map[Network]string{
	Mainnet:  "mainnet",
	Ropsten:  "ropsten",
	Rinkeby:  "rinkeby",
	Goerli:   "goerli",
	Kovan:    "kovan",
	Polygon:  "polygon",
	Arbitrum: "arbitrum",
}

func (n Network) String() string {
	if s, ok := names[n]; ok {
		return s
	}
	return "chain-" + strconv.FormatInt(int64(n), 10)
}

// Parse accepts a network name ("mainnet", "kovan") or a numeric chain id.
func Parse(s string) (Network, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return 0, fmt.Errorf("%w: empty name", ErrUnsupportedNetwork)
	}
	for n, name := range names {
		if name == key {
			return n, nil
		}
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		if _, ok := names[Network(id)]; ok {
			return Network(id), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedNetwork, s)
}

// Contracts holds the deployed protocol addresses on one network.
// A zero address means the contract is not deployed there.
type Contracts struct {
	Vault               common.Address
	Relayer             common.Address
	WeightedPoolFactory common.Address
}

// Config is the static description of a network.
type Config struct {
	ChainID    Network
	InfuraName string
	Addresses  Contracts
	Tokens     map[string]Token
}

// Token returns a token by symbol (case-insensitive).
func (c Config) Token(symbol string) (Token, bool) {
	t, ok := c.Tokens[strings.ToUpper(strings.TrimSpace(symbol))]
	return t, ok
}

const (
	VaultAddr               = "0xBA12222222228d8Ba445958a75a0704d566BF2C8"
	WeightedPoolFactoryAddr = "0x8E9aa87E45e92bad84D5F8DD1bff34Fb92637dE9"

	MainnetRelayerAddr = "0xAc9f49eF3ab0BbC929f7b1bb0A17E1Fca5786251"
	KovanRelayerAddr   = "0x3C255DE4a73Dd251A33dac2ab927002C964Eb2cB"
)

var configs = map[Network]Config{
	Mainnet: {
		ChainID:    Mainnet,
		InfuraName: "mainnet",
		Addresses: Contracts{
			Vault:               common.HexToAddress(VaultAddr),
			Relayer:             common.HexToAddress(MainnetRelayerAddr),
			WeightedPoolFactory: common.HexToAddress(WeightedPoolFactoryAddr),
		},
		Tokens: mainnetTokens,
	},
	Ropsten: {
		ChainID:    Ropsten,
		InfuraName: "ropsten",
		Addresses:  Contracts{Vault: common.HexToAddress(VaultAddr)},
	},
	Rinkeby: {
		ChainID:    Rinkeby,
		InfuraName: "rinkeby",
		Addresses:  Contracts{Vault: common.HexToAddress(VaultAddr)},
	},
	Goerli: {
		ChainID:    Goerli,
		InfuraName: "goerli",
		Addresses:  Contracts{Vault: common.HexToAddress(VaultAddr)},
	},
	Kovan: {
		ChainID:    Kovan,
		InfuraName: "kovan",
		Addresses: Contracts{
			Vault:               common.HexToAddress(VaultAddr),
			Relayer:             common.HexToAddress(KovanRelayerAddr),
			WeightedPoolFactory: common.HexToAddress(WeightedPoolFactoryAddr),
		},
		Tokens: kovanTokens,
	},
	Polygon: {
		ChainID:    Polygon,
		InfuraName: "polygon-mainnet",
		Addresses: Contracts{
			Vault:               common.HexToAddress(VaultAddr),
			WeightedPoolFactory: common.HexToAddress(WeightedPoolFactoryAddr),
		},
	},
	Arbitrum: {
		ChainID:    Arbitrum,
		InfuraName: "arbitrum-mainnet",
		Addresses: Contracts{
			Vault:               common.HexToAddress(VaultAddr),
			WeightedPoolFactory: common.HexToAddress(WeightedPoolFactoryAddr),
		},
	},
}

// ConfigFor returns the static config for n.
func ConfigFor(n Network) (Config, error) {
	c, ok := configs[n]
	if !ok {
		return Config{}, fmt.Errorf("%w: %d", ErrUnsupportedNetwork, int64(n))
	}
	return c, nil
}

// InfuraURL builds the Infura HTTPS endpoint for n.
func InfuraURL(n Network, key string) (string, error) {
	c, err := ConfigFor(n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.infura.io/v3/%s", c.InfuraName, key), nil
}
