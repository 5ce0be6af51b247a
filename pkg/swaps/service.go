package swaps

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Service resolves routes and prices batch swaps against the Vault.
type Service struct {
	router  Router
	querier Querier
	log     logrus.FieldLogger
}

func NewService(router Router, querier Querier, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{router: router, querier: querier, log: log.WithField("component", "swaps")}
}

// QueryBatchSwap prices one route per (tokensIn[i], tokensOut[i], amounts[i]).
//
// Each pair is queried alone to get its own return amount, then the combined
// batch swap is queried once more for the deltas used to derive limits.
// Calls are issued one at a time.
func (s *Service) QueryBatchSwap(
	ctx context.Context,
	kind SwapType,
	tokensIn, tokensOut []common.Address,
	amounts []*big.Int,
	funds FundManagement,
) (*QueryResult, error) {
	if len(tokensIn) != len(tokensOut) || len(tokensIn) != len(amounts) {
		return nil, fmt.Errorf("%w: tokensIn=%d tokensOut=%d amounts=%d",
			ErrLengthMismatch, len(tokensIn), len(tokensOut), len(amounts))
	}
	if len(tokensIn) == 0 {
		return nil, fmt.Errorf("%w: no token pairs", ErrLengthMismatch)
	}

	routes := make([]Route, len(tokensIn))
	returns := make([]*big.Int, len(tokensIn))
	for i := range tokensIn {
		rt, err := s.router.Route(ctx, tokensIn[i], tokensOut[i])
		if err != nil {
			return nil, err
		}
		routes[i] = rt

		single, err := BuildBatchSwap(kind, []Route{rt}, []*big.Int{amounts[i]})
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		deltas, err := s.querier.QueryBatchSwap(ctx, kind, single.Swaps, single.Assets, funds)
		if err != nil {
			return nil, fmt.Errorf("query pair %d: %w", i, err)
		}
		ret, err := ReturnAmount(kind, single.Assets, deltas, tokensIn[i], tokensOut[i])
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		returns[i] = ret
		s.log.WithFields(logrus.Fields{
			"kind":   kind.String(),
			"pair":   i,
			"hops":   len(rt.PoolIDs),
			"amount": amounts[i].String(),
			"return": ret.String(),
		}).Debug("queried pair")
	}

	combined, err := BuildBatchSwap(kind, routes, amounts)
	if err != nil {
		return nil, err
	}
	deltas, err := s.querier.QueryBatchSwap(ctx, kind, combined.Swaps, combined.Assets, funds)
	if err != nil {
		return nil, fmt.Errorf("query combined batch swap: %w", err)
	}
	if len(deltas) != len(combined.Assets) {
		return nil, fmt.Errorf("query combined batch swap: got %d deltas for %d assets", len(deltas), len(combined.Assets))
	}

	return &QueryResult{
		BatchSwap:     *combined,
		Deltas:        deltas,
		ReturnAmounts: returns,
	}, nil
}
