package commands

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"

	"github.com/sujine/balancer-sdk/pkg/network"
	"github.com/sujine/balancer-sdk/pkg/units"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// txOut is an unsigned transaction as printed by the CLI.
type txOut struct {
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value *hexutil.Big   `json:"value"`
}

func newTxOut(to common.Address, data []byte, value *big.Int) txOut {
	return txOut{To: to, Data: data, Value: (*hexutil.Big)(units.ZeroOr(value))}
}

// resolveToken accepts a symbol known for the network or a hex address.
func resolveToken(nc network.Config, s string) (network.Token, error) {
	s = strings.TrimSpace(s)
	if common.IsHexAddress(s) {
		addr := common.HexToAddress(s)
		for _, t := range nc.Tokens {
			if t.Address == addr {
				return t, nil
			}
		}
		return network.Token{Symbol: addr.Hex(), Address: addr, Decimals: 18}, nil
	}
	if t, ok := nc.Token(s); ok {
		return t, nil
	}
	return network.Token{}, fmt.Errorf("unknown token %q on %s", s, nc.ChainID)
}

func resolveTokens(nc network.Config, in []string) ([]network.Token, error) {
	out := make([]network.Token, len(in))
	for i, s := range in {
		t, err := resolveToken(nc, s)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func addresses(ts []network.Token) []common.Address {
	out := make([]common.Address, len(ts))
	for i, t := range ts {
		out[i] = t.Address
	}
	return out
}

// parseAmounts converts decimal strings using each token's decimals.
func parseAmounts(raw []string, tokens []network.Token) ([]*big.Int, error) {
	if len(raw) != len(tokens) {
		return nil, fmt.Errorf("got %d amounts for %d tokens", len(raw), len(tokens))
	}
	out := make([]*big.Int, len(raw))
	for i, s := range raw {
		v, err := units.ParseFixed(s, tokens[i].Decimals)
		if err != nil {
			return nil, fmt.Errorf("amount %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
