// Package pools builds pool factory transactions and reads their events.
package pools

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/sujine/balancer-sdk/pkg/abis"
	"github.com/sujine/balancer-sdk/pkg/network"
)

// ValidationError is returned for parameter sets the factory would reject.
// It is a value, not a failure of the call itself.
type ValidationError struct {
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

// SeedToken is one initial constituent of a new pool.
type SeedToken struct {
	ID           int            `json:"id"`
	TokenAddress common.Address `json:"tokenAddress"`
	// Weight is a whole percentage; a pool's weights sum to 100.
	Weight int64  `json:"weight"`
	Amount string `json:"amount"`
	Symbol string `json:"symbol"`
}

// SortSeedTokens orders tokens by address, as the Vault expects for joins.
// The input slice is not modified.
func SortSeedTokens(tokens []SeedToken) []SeedToken {
	out := make([]SeedToken, len(tokens))
	copy(out, tokens)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].TokenAddress.Hex()) < strings.ToLower(out[j].TokenAddress.Hex())
	})
	return out
}

// Module groups the pool factories of one network.
type Module struct {
	Weighted *Weighted

	cfg network.Config
	log logrus.FieldLogger
}

func New(cfg network.Config, log logrus.FieldLogger) *Module {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "pools")
	return &Module{
		Weighted: &Weighted{
			factory: cfg.Addresses.WeightedPoolFactory,
			vault:   cfg.Addresses.Vault,
			log:     log,
		},
		cfg: cfg,
		log: log,
	}
}

// PoolCreatedTopic is keccak256("PoolCreated(address)").
var PoolCreatedTopic = abis.WeightedPoolFactory.Events["PoolCreated"].ID

// GetPoolInfoFilter returns the log topics that identify a pool creation.
func (m *Module) GetPoolInfoFilter() []common.Hash {
	return []common.Hash{PoolCreatedTopic}
}

// ParsePoolCreated returns the addresses of pools created in logs, in order.
// Logs with other topics are skipped.
func ParsePoolCreated(logs []*types.Log) ([]common.Address, error) {
	var pools []common.Address
	for _, l := range logs {
		if l == nil || len(l.Topics) == 0 || l.Topics[0] != PoolCreatedTopic {
			continue
		}
		if len(l.Topics) < 2 {
			return nil, fmt.Errorf("PoolCreated log in tx %s: missing pool topic", l.TxHash.Hex())
		}
		pools = append(pools, common.BytesToAddress(l.Topics[1].Bytes()))
	}
	return pools, nil
}

// TxRequest is an unsigned transaction to a Balancer contract.
type TxRequest struct {
	To    common.Address `json:"to"`
	Data  []byte         `json:"data"`
	Value *big.Int       `json:"value"`
}
