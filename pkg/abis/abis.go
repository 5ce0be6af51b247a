// Package abis holds the minimal contract ABIs the SDK talks to.
package abis

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const linearPoolABIJSON = `[
  {"inputs":[],"name":"getWrappedTokenRate","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"getPoolId","outputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"getMainToken","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"getWrappedToken","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"}
]`

// Aave StaticATokenLM, only the rate getter.
const staticATokenABIJSON = `[
  {"inputs":[],"name":"rate","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const vaultABIJSON = `[
  {
    "inputs": [
      { "internalType": "enum IVault.SwapKind", "name": "kind", "type": "uint8" },
      {
        "components": [
          { "internalType": "bytes32", "name": "poolId",        "type": "bytes32" },
          { "internalType": "uint256", "name": "assetInIndex",  "type": "uint256" },
          { "internalType": "uint256", "name": "assetOutIndex", "type": "uint256" },
          { "internalType": "uint256", "name": "amount",        "type": "uint256" },
          { "internalType": "bytes",   "name": "userData",      "type": "bytes" }
        ],
        "internalType": "struct IVault.BatchSwapStep[]",
        "name": "swaps",
        "type": "tuple[]"
      },
      { "internalType": "contract IAsset[]", "name": "assets", "type": "address[]" },
      {
        "components": [
          { "internalType": "address", "name": "sender",              "type": "address" },
          { "internalType": "bool",    "name": "fromInternalBalance", "type": "bool" },
          { "internalType": "address payable", "name": "recipient",   "type": "address" },
          { "internalType": "bool",    "name": "toInternalBalance",   "type": "bool" }
        ],
        "internalType": "struct IVault.FundManagement",
        "name": "funds",
        "type": "tuple"
      }
    ],
    "name": "queryBatchSwap",
    "outputs": [ { "internalType": "int256[]", "name": "assetDeltas", "type": "int256[]" } ],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      { "internalType": "address", "name": "sender",   "type": "address" },
      { "internalType": "address", "name": "relayer",  "type": "address" },
      { "internalType": "bool",    "name": "approved", "type": "bool" }
    ],
    "name": "setRelayerApproval",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      { "internalType": "address", "name": "user",    "type": "address" },
      { "internalType": "address", "name": "relayer", "type": "address" }
    ],
    "name": "hasApprovedRelayer",
    "outputs": [ { "internalType": "bool", "name": "", "type": "bool" } ],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [
      { "internalType": "bytes32", "name": "poolId",    "type": "bytes32" },
      { "internalType": "address", "name": "sender",    "type": "address" },
      { "internalType": "address", "name": "recipient", "type": "address" },
      {
        "components": [
          { "internalType": "contract IAsset[]", "name": "assets",       "type": "address[]" },
          { "internalType": "uint256[]",         "name": "maxAmountsIn", "type": "uint256[]" },
          { "internalType": "bytes",             "name": "userData",     "type": "bytes" },
          { "internalType": "bool",              "name": "fromInternalBalance", "type": "bool" }
        ],
        "internalType": "struct IVault.JoinPoolRequest",
        "name": "request",
        "type": "tuple"
      }
    ],
    "name": "joinPool",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  }
]`

// BalancerRelayer entry point plus the library functions it delegatecalls.
// Library calls are only ever encoded into multicall, never sent directly.
const relayerABIJSON = `[
  {
    "inputs": [ { "internalType": "bytes[]", "name": "data", "type": "bytes[]" } ],
    "name": "multicall",
    "outputs": [ { "internalType": "bytes[]", "name": "results", "type": "bytes[]" } ],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      { "internalType": "enum IVault.SwapKind", "name": "kind", "type": "uint8" },
      {
        "components": [
          { "internalType": "bytes32", "name": "poolId",        "type": "bytes32" },
          { "internalType": "uint256", "name": "assetInIndex",  "type": "uint256" },
          { "internalType": "uint256", "name": "assetOutIndex", "type": "uint256" },
          { "internalType": "uint256", "name": "amount",        "type": "uint256" },
          { "internalType": "bytes",   "name": "userData",      "type": "bytes" }
        ],
        "internalType": "struct IVault.BatchSwapStep[]",
        "name": "swaps",
        "type": "tuple[]"
      },
      { "internalType": "contract IAsset[]", "name": "assets", "type": "address[]" },
      {
        "components": [
          { "internalType": "address", "name": "sender",              "type": "address" },
          { "internalType": "bool",    "name": "fromInternalBalance", "type": "bool" },
          { "internalType": "address payable", "name": "recipient",   "type": "address" },
          { "internalType": "bool",    "name": "toInternalBalance",   "type": "bool" }
        ],
        "internalType": "struct IVault.FundManagement",
        "name": "funds",
        "type": "tuple"
      },
      { "internalType": "int256[]", "name": "limits",   "type": "int256[]" },
      { "internalType": "uint256",  "name": "deadline", "type": "uint256" },
      { "internalType": "uint256",  "name": "value",    "type": "uint256" },
      {
        "components": [
          { "internalType": "uint256", "name": "index", "type": "uint256" },
          { "internalType": "uint256", "name": "key",   "type": "uint256" }
        ],
        "internalType": "struct VaultActions.OutputReference[]",
        "name": "outputReferences",
        "type": "tuple[]"
      }
    ],
    "name": "batchSwap",
    "outputs": [ { "internalType": "int256[]", "name": "", "type": "int256[]" } ],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [
      { "internalType": "contract IStaticATokenLM", "name": "staticToken", "type": "address" },
      { "internalType": "address", "name": "sender",          "type": "address" },
      { "internalType": "address", "name": "recipient",       "type": "address" },
      { "internalType": "uint256", "name": "amount",          "type": "uint256" },
      { "internalType": "bool",    "name": "toUnderlying",    "type": "bool" },
      { "internalType": "uint256", "name": "outputReference", "type": "uint256" }
    ],
    "name": "unwrapAaveStaticToken",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  }
]`

const weightedPoolFactoryABIJSON = `[
  {
    "inputs": [
      { "internalType": "string",    "name": "name",              "type": "string" },
      { "internalType": "string",    "name": "symbol",            "type": "string" },
      { "internalType": "contract IERC20[]", "name": "tokens",    "type": "address[]" },
      { "internalType": "uint256[]", "name": "weights",           "type": "uint256[]" },
      { "internalType": "uint256",   "name": "swapFeePercentage", "type": "uint256" },
      { "internalType": "address",   "name": "owner",             "type": "address" }
    ],
    "name": "create",
    "outputs": [ { "internalType": "address", "name": "", "type": "address" } ],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [ { "indexed": true, "internalType": "address", "name": "pool", "type": "address" } ],
    "name": "PoolCreated",
    "type": "event"
  }
]`

var (
	LinearPool          = mustParse("LinearPool", linearPoolABIJSON)
	StaticAToken        = mustParse("StaticATokenLM", staticATokenABIJSON)
	Vault               = mustParse("Vault", vaultABIJSON)
	Relayer             = mustParse("BalancerRelayer", relayerABIJSON)
	WeightedPoolFactory = mustParse("WeightedPoolFactory", weightedPoolFactoryABIJSON)
)

func mustParse(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(name + " ABI: " + err.Error())
	}
	return parsed
}

// Int256Array is the argument list for a bare int256[] payload, as returned
// inside the relayer's multicall results.
var Int256Array = func() abi.Arguments {
	t, err := abi.NewType("int256[]", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: t}}
}()

// InitJoinUserData encodes (uint256 kind, uint256[] amountsIn).
var InitJoinUserData = func() abi.Arguments {
	u, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	ua, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: u}, {Type: ua}}
}()
