package pools

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/sujine/balancer-sdk/pkg/abis"
	"github.com/sujine/balancer-sdk/pkg/units"
)

const (
	totalWeight = 100
	errWeights  = "Token weights must add to 100"

	errWeightPositive = "Token weights must be positive"

	// JOIN_KIND_INIT of WeightedPoolUserData.
	initJoinKind = 0
)

var ErrFactoryNotSet = errors.New("weighted pool factory not deployed on this network")

// weightScale turns a whole percentage into the factory's 1e18 weight.
var weightScale = big.NewInt(1e16)

// WeightedFactoryParams describe a weighted pool to create.
type WeightedFactoryParams struct {
	Name       string         `json:"name,omitempty"`
	Symbol     string         `json:"symbol,omitempty"`
	InitialFee string         `json:"initialFee"`
	SeedTokens []SeedToken    `json:"seedTokens"`
	Owner      common.Address `json:"owner"`
	Value      string         `json:"value,omitempty"`
}

// CreateAttributes are the decoded arguments of WeightedPoolFactory.create.
type CreateAttributes struct {
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	Tokens            []common.Address `json:"tokens"`
	Weights           []*big.Int       `json:"weights"`
	SwapFeePercentage *big.Int         `json:"swapFeePercentage"`
	Owner             common.Address   `json:"owner"`
}

// CreateTx is a ready to sign pool creation.
//
// Value is the fee parameter in 18-decimal fixed point, reported alongside
// the call. WeightedPoolFactory.create is nonpayable, so the transaction
// itself must carry no ether; use SendValue when submitting.
type CreateTx struct {
	To         common.Address   `json:"to"`
	Value      *big.Int         `json:"value"`
	Attributes CreateAttributes `json:"attributes"`
	Data       []byte           `json:"data"`
}

// Weighted builds WeightedPoolFactory transactions.
type Weighted struct {
	factory common.Address
	vault   common.Address
	log     logrus.FieldLogger
}

// Factory is the address create transactions are sent to.
func (w *Weighted) Factory() common.Address { return w.factory }

// BuildCreateTx validates params and encodes the factory create call.
// Invalid params yield a *ValidationError.
func (w *Weighted) BuildCreateTx(params WeightedFactoryParams) (*CreateTx, error) {
	if w.factory == (common.Address{}) {
		return nil, ErrFactoryNotSet
	}
	if len(params.SeedTokens) == 0 {
		return nil, &ValidationError{Message: "At least one seed token is required"}
	}
	var sum int64
	for _, t := range params.SeedTokens {
		if t.Weight <= 0 {
			return nil, &ValidationError{Message: errWeightPositive}
		}
		sum += t.Weight
	}
	if sum != totalWeight {
		return nil, &ValidationError{Message: errWeights}
	}

	swapFee, err := units.ParseFixed(params.InitialFee, 18)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid initial fee: " + err.Error()}
	}
	if swapFee.Sign() < 0 {
		return nil, &ValidationError{Message: "Initial fee must not be negative"}
	}
	rawValue := params.Value
	if rawValue == "" {
		rawValue = params.InitialFee
	}
	value, err := units.ParseFixed(rawValue, 18)
	if err != nil {
		return nil, &ValidationError{Message: "Invalid value: " + err.Error()}
	}
	if value.Sign() < 0 {
		return nil, &ValidationError{Message: "Value must not be negative"}
	}

	symbol := params.Symbol
	if symbol == "" {
		symbol = DefaultSymbol(params.SeedTokens)
	}
	name := params.Name
	if name == "" {
		name = symbol + " Pool"
	}

	attrs := CreateAttributes{
		Name:              name,
		Symbol:            symbol,
		Tokens:            make([]common.Address, len(params.SeedTokens)),
		Weights:           make([]*big.Int, len(params.SeedTokens)),
		SwapFeePercentage: swapFee,
		Owner:             params.Owner,
	}
	for i, t := range params.SeedTokens {
		attrs.Tokens[i] = t.TokenAddress
		attrs.Weights[i] = new(big.Int).Mul(big.NewInt(t.Weight), weightScale)
	}

	data, err := abis.WeightedPoolFactory.Pack("create",
		attrs.Name, attrs.Symbol, attrs.Tokens, attrs.Weights, attrs.SwapFeePercentage, attrs.Owner)
	if err != nil {
		return nil, fmt.Errorf("encode create: %w", err)
	}

	w.log.WithFields(logrus.Fields{"symbol": symbol, "tokens": len(attrs.Tokens)}).Debug("built create tx")
	return &CreateTx{
		To:         w.factory,
		Value:      value,
		Attributes: attrs,
		Data:       data,
	}, nil
}

// SendValue is the ether to attach when sending t: always zero.
func (t *CreateTx) SendValue() *big.Int { return big.NewInt(0) }

// DefaultSymbol is "<weight><SYMBOL>" per seed token, joined by "-".
func DefaultSymbol(tokens []SeedToken) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = strconv.FormatInt(t.Weight, 10) + t.Symbol
	}
	return strings.Join(parts, "-")
}

// InitJoinParams describe the first join into a freshly created pool.
type InitJoinParams struct {
	PoolID          common.Hash      `json:"poolId"`
	Sender          common.Address   `json:"sender"`
	Receiver        common.Address   `json:"receiver"`
	TokenAddresses  []common.Address `json:"tokenAddresses"`
	InitialBalances []*big.Int       `json:"initialBalances"`
}

type joinPoolRequest struct {
	Assets              []common.Address `abi:"assets"`
	MaxAmountsIn        []*big.Int       `abi:"maxAmountsIn"`
	UserData            []byte           `abi:"userData"`
	FromInternalBalance bool             `abi:"fromInternalBalance"`
}

// BuildInitJoin encodes the Vault joinPool call that seeds a new weighted
// pool. Tokens must already be sorted by address.
func (w *Weighted) BuildInitJoin(params InitJoinParams) (*TxRequest, error) {
	if len(params.TokenAddresses) == 0 || len(params.TokenAddresses) != len(params.InitialBalances) {
		return nil, &ValidationError{Message: "Token addresses and initial balances must have the same non-zero length"}
	}
	for i := 1; i < len(params.TokenAddresses); i++ {
		if strings.ToLower(params.TokenAddresses[i-1].Hex()) >= strings.ToLower(params.TokenAddresses[i].Hex()) {
			return nil, &ValidationError{Message: "Tokens must be sorted by address"}
		}
	}
	for _, b := range params.InitialBalances {
		if b == nil || b.Sign() <= 0 {
			return nil, &ValidationError{Message: "Initial balances must be positive"}
		}
	}

	userData, err := abis.InitJoinUserData.Pack(big.NewInt(initJoinKind), params.InitialBalances)
	if err != nil {
		return nil, fmt.Errorf("encode init join user data: %w", err)
	}
	data, err := abis.Vault.Pack("joinPool", params.PoolID, params.Sender, params.Receiver, joinPoolRequest{
		Assets:       params.TokenAddresses,
		MaxAmountsIn: params.InitialBalances,
		UserData:     userData,
	})
	if err != nil {
		return nil, fmt.Errorf("encode joinPool: %w", err)
	}
	return &TxRequest{To: w.vault, Data: data, Value: big.NewInt(0)}, nil
}
