package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// WeiPerEther is 1e18, the fixed-point "one" used by Balancer rates and fees.
var WeiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var ErrFractionTooLong = errors.New("fractional component exceeds decimals")

// ParseFixed converts a decimal string ("0.1", "30000000") into its integer
// on-chain representation with the given number of decimals.
func ParseFixed(value string, decimals int) (*big.Int, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil, errors.New("empty value")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", value, err)
	}
	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("parse %q with %d decimals: %w", value, decimals, ErrFractionTooLong)
	}
	return shifted.BigInt(), nil
}

// MustParseFixed is ParseFixed for constants; it panics on bad input.
func MustParseFixed(value string, decimals int) *big.Int {
	v, err := ParseFixed(value, decimals)
	if err != nil {
		panic(err)
	}
	return v
}

// FormatFixed is the inverse of ParseFixed.
func FormatFixed(i *big.Int, decimals int) string {
	if i == nil {
		return "0"
	}
	return decimal.NewFromBigInt(i, -int32(decimals)).String()
}

// ToFloat is a lossy conversion for logs.
func ToFloat(i *big.Int, decimals int) float64 {
	if i == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(i, -int32(decimals)).Float64()
	return f
}

// ParseBig parses a base-10 integer string.
func ParseBig(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}

// MulDown returns a*b/1e18 truncated toward zero.
func MulDown(a, b *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, WeiPerEther)
}

// DivDown returns a*1e18/b truncated toward zero.
func DivDown(a, b *big.Int) *big.Int {
	out := new(big.Int).Mul(a, WeiPerEther)
	return out.Quo(out, b)
}

func ZeroOr(x *big.Int) *big.Int {
	if x == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(x)
}

func ToStr(x *big.Int) string {
	if x == nil {
		return "0"
	}
	return x.String()
}
