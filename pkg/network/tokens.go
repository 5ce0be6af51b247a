package network

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Token is an ERC20 with a well-known symbol on its network.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int
}

const (
	// Mainnet boosted pool (bb-a-USD) and its linear pools
	BBAUSD  = "0x7B50775383d3D6f0215A8F290f2C9e2eEBBEceb2"
	BBADAI  = "0x804CdB9116a10bB78768D3252355a1b18067bF8f"
	BBAUSDC = "0x9210F1204b5a24742Eba12f710636D76240dF3d0"
	BBAUSDT = "0x2BBf681cC4eb09218BEe85EA2a5d3D13Fa40fC0C"

	// Mainnet Aave static (wrapped) tokens
	WADAI  = "0x02d60b84491589974263d922D9cC7a3152618Ef6"
	WAUSDC = "0xd093fA4Fb80D09bB30817FDcd442d4d02eD3E5de"
	WAUSDT = "0xf8Fd466F12e236f4c96F7Cce6c79EAdB819abF58"

	// Kovan test tokens
	KovanDAI  = "0x04DF6e4121c27713ED22341E7c7Df330F56f289B"
	KovanUSDC = "0xc2569dd7d0fd715B054fBf16E75B001E5c0C1115"
	KovanWBTC = "0x1C8E3Bcb3378a443CC591f154c5CE0EBb4dA9648"

	// Kovan boosted pool and Aave static tokens
	KovanSTABAL3PHANTOM = "0x8fd162f338B770F7E879030830cDe9173367f301"
	KovanWADAI          = "0x26575A44755E0aaa969FDda1E4291Df22C5624Ea"
	KovanWAUSDC         = "0x26743984e3357eFC59f2fd6C1aFDC310335a61c9"
	KovanWAUSDT         = "0xbfD9769b061E57e478690299011A028194D66e3C"
)

func tokenTable(ts ...Token) map[string]Token {
	m := make(map[string]Token, len(ts))
	for _, t := range ts {
		m[strings.ToUpper(t.Symbol)] = t
	}
	return m
}

var mainnetTokens = tokenTable(
	Token{Symbol: "bb-a-USD", Address: common.HexToAddress(BBAUSD), Decimals: 18},
	Token{Symbol: "bb-a-DAI", Address: common.HexToAddress(BBADAI), Decimals: 18},
	Token{Symbol: "bb-a-USDC", Address: common.HexToAddress(BBAUSDC), Decimals: 18},
	Token{Symbol: "bb-a-USDT", Address: common.HexToAddress(BBAUSDT), Decimals: 18},
	Token{Symbol: "waDAI", Address: common.HexToAddress(WADAI), Decimals: 18},
	Token{Symbol: "waUSDC", Address: common.HexToAddress(WAUSDC), Decimals: 6},
	Token{Symbol: "waUSDT", Address: common.HexToAddress(WAUSDT), Decimals: 6},
)

var kovanTokens = tokenTable(
	Token{Symbol: "DAI", Address: common.HexToAddress(KovanDAI), Decimals: 18},
	Token{Symbol: "USDC", Address: common.HexToAddress(KovanUSDC), Decimals: 6},
	Token{Symbol: "WBTC", Address: common.HexToAddress(KovanWBTC), Decimals: 8},
	Token{Symbol: "STABAL3PHANTOM", Address: common.HexToAddress(KovanSTABAL3PHANTOM), Decimals: 18},
	Token{Symbol: "waDAI", Address: common.HexToAddress(KovanWADAI), Decimals: 18},
	Token{Symbol: "waUSDC", Address: common.HexToAddress(KovanWAUSDC), Decimals: 6},
	Token{Symbol: "waUSDT", Address: common.HexToAddress(KovanWAUSDT), Decimals: 6},
)

// AddressToSymbol maps a lowercase hex address to a symbol across all networks.
var AddressToSymbol = func() map[string]string {
	m := make(map[string]string)
	for _, c := range configs {
		for _, t := range c.Tokens {
			m[strings.ToLower(t.Address.Hex())] = t.Symbol
		}
	}
	return m
}()

// SymbolOf returns the known symbol for addr, or its hex form.
func SymbolOf(addr common.Address) string {
	if s, ok := AddressToSymbol[strings.ToLower(addr.Hex())]; ok {
		return s
	}
	return addr.Hex()
}
