package swaps

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/sujine/balancer-sdk/pkg/network"
)

// Mainnet boosted pool ids (bb-a-USD and its Aave linear pools).
const (
	BBAUSDPoolID  = "0x7b50775383d3d6f0215a8f290f2c9e2eebbeceb20000000000000000000000fe"
	BBADAIPoolID  = "0x804cdb9116a10bb78768d3252355a1b18067bf8f0000000000000000000000fb"
	BBAUSDCPoolID = "0x9210f1204b5a24742eba12f710636d76240df3d00000000000000000000000fc"
	BBAUSDTPoolID = "0x2bbf681cc4eb09218bee85ea2a5d3d13fa40fc0c0000000000000000000000fd"
)

// DefaultRoutes returns the built-in routes for n: bb-a-USD to each Aave
// static token through the phantom stable pool and the matching linear pool.
func DefaultRoutes(n network.Network) []Route {
	if n != network.Mainnet {
		return nil
	}
	bbausd := common.HexToAddress(network.BBAUSD)
	hop := func(linear, static, linearID string) Route {
		return Route{
			Tokens: []common.Address{bbausd, common.HexToAddress(linear), common.HexToAddress(static)},
			PoolIDs: []common.Hash{
				common.HexToHash(BBAUSDPoolID),
				common.HexToHash(linearID),
			},
		}
	}
	return []Route{
		hop(network.BBADAI, network.WADAI, BBADAIPoolID),
		hop(network.BBAUSDC, network.WAUSDC, BBAUSDCPoolID),
		hop(network.BBAUSDT, network.WAUSDT, BBAUSDTPoolID),
	}
}
