package swaps

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// StaticRouter serves pre-configured routes keyed by (tokenIn, tokenOut).
type StaticRouter struct {
	routes map[string]Route
}

func routeKey(in, out common.Address) string {
	return strings.ToLower(in.Hex()) + ">" + strings.ToLower(out.Hex())
}

// NewStaticRouter validates and indexes routes by their first and last token.
func NewStaticRouter(routes ...Route) (*StaticRouter, error) {
	r := &StaticRouter{routes: make(map[string]Route, len(routes))}
	for i, rt := range routes {
		if err := r.Add(rt); err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
	}
	return r, nil
}

// Add registers rt, replacing an existing route for the same pair.
func (r *StaticRouter) Add(rt Route) error {
	if err := validateRoute(rt); err != nil {
		return err
	}
	r.routes[routeKey(rt.Tokens[0], rt.Tokens[len(rt.Tokens)-1])] = rt
	return nil
}

func (r *StaticRouter) Len() int { return len(r.routes) }

func (r *StaticRouter) Route(_ context.Context, tokenIn, tokenOut common.Address) (Route, error) {
	rt, ok := r.routes[routeKey(tokenIn, tokenOut)]
	if !ok {
		return Route{}, fmt.Errorf("%w: %s -> %s", ErrNoRoute, tokenIn.Hex(), tokenOut.Hex())
	}
	return rt, nil
}

// routesFile is the YAML layout accepted by LoadRoutes:
//
//	routes:
//	  - tokens: [0xTokenIn, 0xHop, 0xTokenOut]
//	    pools:  [0xPoolId1, 0xPoolId2]
type routesFile struct {
	Routes []struct {
		Tokens []string `yaml:"tokens"`
		Pools  []string `yaml:"pools"`
	} `yaml:"routes"`
}

// LoadRoutes reads a YAML routes file.
func LoadRoutes(path string) ([]Route, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes file: %w", err)
	}
	return ParseRoutes(raw)
}

// ParseRoutes decodes YAML route definitions.
func ParseRoutes(raw []byte) ([]Route, error) {
	var f routesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	out := make([]Route, 0, len(f.Routes))
	for i, fr := range f.Routes {
		var rt Route
		for _, t := range fr.Tokens {
			t = strings.TrimSpace(t)
			if !common.IsHexAddress(t) {
				return nil, fmt.Errorf("route %d: invalid token address %q", i, t)
			}
			rt.Tokens = append(rt.Tokens, common.HexToAddress(t))
		}
		for _, p := range fr.Pools {
			p = strings.TrimSpace(p)
			b := common.FromHex(p)
			if len(b) != common.HashLength {
				return nil, fmt.Errorf("route %d: pool id %q is not 32 bytes", i, p)
			}
			rt.PoolIDs = append(rt.PoolIDs, common.BytesToHash(b))
		}
		if err := validateRoute(rt); err != nil {
			return nil, fmt.Errorf("route %d: %w", i, err)
		}
		out = append(out, rt)
	}
	return out, nil
}
