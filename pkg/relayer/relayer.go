// Package relayer builds Balancer relayer multicalls that swap through the
// Vault and unwrap Aave static tokens in one transaction.
package relayer

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/sujine/balancer-sdk/pkg/abis"
	"github.com/sujine/balancer-sdk/pkg/contracts"
	"github.com/sujine/balancer-sdk/pkg/swaps"
	"github.com/sujine/balancer-sdk/pkg/units"
)

var (
	ErrUnwrapZeroAmount   = errors.New("unwrap amount must be positive")
	ErrRelayerNotDeployed = errors.New("relayer not deployed on this network")
	ErrNoResults          = errors.New("relayer returned no results")
)

// Outputs are amounts the caller can show before sending.
type Outputs struct {
	// AmountsOut is set for ExactIn: underlying tokens received per pair.
	AmountsOut []*big.Int `json:"amountsOut,omitempty"`
	// AmountsIn is set for ExactOut: tokens in required per pair.
	AmountsIn []*big.Int `json:"amountsIn,omitempty"`
}

// TransactionData is a relayer call descriptor: the function to invoke on
// the relayer and the arguments to pass it.
type TransactionData struct {
	Function string        `json:"function"`
	Params   []interface{} `json:"params"`
	Outputs  Outputs       `json:"outputs"`
}

// Calls returns the encoded library calls of a multicall descriptor.
func (t *TransactionData) Calls() [][]byte {
	if t == nil || t.Function != "multicall" || len(t.Params) != 1 {
		return nil
	}
	calls, _ := t.Params[0].([][]byte)
	return calls
}

// Data returns the relayer calldata for t.
func (t *TransactionData) Data() ([]byte, error) {
	if _, ok := abis.Relayer.Methods[t.Function]; !ok {
		return nil, fmt.Errorf("relayer has no function %q", t.Function)
	}
	return abis.Relayer.Pack(t.Function, t.Params...)
}

// Service builds and simulates relayer transactions.
type Service struct {
	relayer common.Address
	vault   common.Address
	swaps   *swaps.Service
	caller  bind.ContractCaller
	log     logrus.FieldLogger
}

func NewService(relayerAddr, vaultAddr common.Address, sw *swaps.Service, caller bind.ContractCaller, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		relayer: relayerAddr,
		vault:   vaultAddr,
		swaps:   sw,
		caller:  caller,
		log:     log.WithField("component", "relayer"),
	}
}

func (s *Service) Address() common.Address { return s.relayer }

func (s *Service) checkDeployed() error {
	if s.relayer == (common.Address{}) {
		return ErrRelayerNotDeployed
	}
	return nil
}

// SwapUnwrapAaveStaticExactIn swaps exact amountsIn of tokensIn into the
// Aave static tokens and unwraps them to their underlying.
// rates are the 1e18-scaled static token rates; slippage is 1e18-scaled.
func (s *Service) SwapUnwrapAaveStaticExactIn(
	ctx context.Context,
	tokensIn, aaveStaticTokens []common.Address,
	amountsIn, rates []*big.Int,
	funds swaps.FundManagement,
	slippage *big.Int,
) (*TransactionData, error) {
	if err := s.checkDeployed(); err != nil {
		return nil, err
	}
	if len(rates) != len(aaveStaticTokens) {
		return nil, fmt.Errorf("%w: %d rates for %d tokens", swaps.ErrLengthMismatch, len(rates), len(aaveStaticTokens))
	}
	for i, r := range rates {
		if r == nil || r.Sign() <= 0 {
			return nil, fmt.Errorf("%w: zero rate for %s", ErrUnwrapZeroAmount, aaveStaticTokens[i].Hex())
		}
	}

	q, err := s.swaps.QueryBatchSwap(ctx, swaps.SwapExactIn, tokensIn, aaveStaticTokens, amountsIn, funds)
	if err != nil {
		return nil, err
	}

	amountsOut := make([]*big.Int, len(q.ReturnAmounts))
	for i, wrapped := range q.ReturnAmounts {
		unwrapped := units.MulDown(new(big.Int).Abs(wrapped), rates[i])
		if unwrapped.Sign() <= 0 {
			return nil, fmt.Errorf("%w: token %s", ErrUnwrapZeroAmount, aaveStaticTokens[i].Hex())
		}
		amountsOut[i] = unwrapped
	}

	calls, err := s.encodeSwapAndUnwrap(q, tokensIn, aaveStaticTokens, funds, slippage)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"calls": len(calls), "pairs": len(tokensIn)}).Info("built exact-in swap+unwrap")

	return &TransactionData{
		Function: "multicall",
		Params:   []interface{}{calls},
		Outputs:  Outputs{AmountsOut: amountsOut},
	}, nil
}

// SwapUnwrapAaveStaticExactOut swaps tokensIn for exactly amountsUnwrapped of
// the underlying of each Aave static token.
func (s *Service) SwapUnwrapAaveStaticExactOut(
	ctx context.Context,
	tokensIn, aaveStaticTokens []common.Address,
	amountsUnwrapped, rates []*big.Int,
	funds swaps.FundManagement,
	slippage *big.Int,
) (*TransactionData, error) {
	if err := s.checkDeployed(); err != nil {
		return nil, err
	}
	if len(rates) != len(aaveStaticTokens) || len(amountsUnwrapped) != len(aaveStaticTokens) {
		return nil, fmt.Errorf("%w: %d amounts, %d rates for %d tokens",
			swaps.ErrLengthMismatch, len(amountsUnwrapped), len(rates), len(aaveStaticTokens))
	}

	amountsWrapped := make([]*big.Int, len(amountsUnwrapped))
	for i, amt := range amountsUnwrapped {
		if rates[i] == nil || rates[i].Sign() <= 0 {
			return nil, fmt.Errorf("%w: zero rate for %s", ErrUnwrapZeroAmount, aaveStaticTokens[i].Hex())
		}
		wrapped := units.DivDown(units.ZeroOr(amt), rates[i])
		if wrapped.Sign() <= 0 {
			return nil, fmt.Errorf("%w: token %s", ErrUnwrapZeroAmount, aaveStaticTokens[i].Hex())
		}
		amountsWrapped[i] = wrapped
	}

	q, err := s.swaps.QueryBatchSwap(ctx, swaps.SwapExactOut, tokensIn, aaveStaticTokens, amountsWrapped, funds)
	if err != nil {
		return nil, err
	}

	calls, err := s.encodeSwapAndUnwrap(q, tokensIn, aaveStaticTokens, funds, slippage)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"calls": len(calls), "pairs": len(tokensIn)}).Info("built exact-out swap+unwrap")

	amountsIn := make([]*big.Int, len(q.ReturnAmounts))
	for i, a := range q.ReturnAmounts {
		amountsIn[i] = new(big.Int).Abs(a)
	}
	return &TransactionData{
		Function: "multicall",
		Params:   []interface{}{calls},
		Outputs:  Outputs{AmountsIn: amountsIn},
	}, nil
}

// encodeSwapAndUnwrap emits [batchSwap, unwrap_0, ..., unwrap_n]. The batch
// swap stores each static token's delta under reference i and unwrap i
// consumes it, so the unwrap amount is whatever the swap produced.
func (s *Service) encodeSwapAndUnwrap(
	q *swaps.QueryResult,
	tokensIn, aaveStaticTokens []common.Address,
	funds swaps.FundManagement,
	slippage *big.Int,
) ([][]byte, error) {
	limits := swaps.GetLimitsForSlippage(tokensIn, aaveStaticTokens, q.Kind, q.Deltas, q.Assets, slippage)

	refs := make([]OutputReference, len(aaveStaticTokens))
	for i, tok := range aaveStaticTokens {
		idx := swaps.IndexOf(q.Assets, tok)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", swaps.ErrAssetNotInSwap, tok.Hex())
		}
		refs[i] = OutputReference{Index: big.NewInt(int64(idx)), Key: ToChainedReference(int64(i))}
	}

	batch, err := EncodeBatchSwap(EncodeBatchSwapParams{
		Kind:             q.Kind,
		Swaps:            q.Swaps,
		Assets:           q.Assets,
		Funds:            funds,
		Limits:           limits,
		OutputReferences: refs,
	})
	if err != nil {
		return nil, err
	}

	calls := make([][]byte, 0, 1+len(aaveStaticTokens))
	calls = append(calls, batch)
	for i, tok := range aaveStaticTokens {
		unwrap, err := EncodeUnwrapAaveStaticToken(UnwrapAaveStaticTokenParams{
			StaticToken:     tok,
			Sender:          funds.Recipient,
			Recipient:       funds.Sender,
			Amount:          ToChainedReference(int64(i)),
			ToUnderlying:    true,
			OutputReference: big.NewInt(0),
		})
		if err != nil {
			return nil, err
		}
		calls = append(calls, unwrap)
	}
	return calls, nil
}

// CallStatic simulates tx against the relayer from the given account and
// returns the per-call results. Nothing is mutated on chain.
func (s *Service) CallStatic(ctx context.Context, from common.Address, tx *TransactionData) ([][]byte, error) {
	if err := s.checkDeployed(); err != nil {
		return nil, err
	}
	data, err := tx.Data()
	if err != nil {
		return nil, err
	}
	to := s.relayer
	out, err := s.caller.CallContract(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: big.NewInt(0),
		Data:  data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("callStatic %s: %w", tx.Function, err)
	}
	vals, err := abis.Relayer.Unpack(tx.Function, out)
	if err != nil {
		return nil, fmt.Errorf("callStatic %s: decode: %w", tx.Function, err)
	}
	if len(vals) == 0 {
		return nil, ErrNoResults
	}
	results, ok := vals[0].([][]byte)
	if !ok {
		return nil, fmt.Errorf("callStatic %s: unexpected type %T", tx.Function, vals[0])
	}
	return results, nil
}

// SimulateSwapDeltas runs tx with CallStatic and decodes the batch swap
// deltas from its first result.
func (s *Service) SimulateSwapDeltas(ctx context.Context, from common.Address, tx *TransactionData) ([]*big.Int, error) {
	results, err := s.CallStatic(ctx, from, tx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return DecodeSwapDeltas(results[0])
}

// TxRequest is an unsigned call: target, calldata and value.
type TxRequest struct {
	To    common.Address `json:"to"`
	Data  []byte         `json:"data"`
	Value *big.Int       `json:"value"`
}

// BuildRelayerApproval returns the Vault call that lets (or stops) the
// relayer act for sender. It must be sent by sender.
func (s *Service) BuildRelayerApproval(sender common.Address, approved bool) (*TxRequest, error) {
	if err := s.checkDeployed(); err != nil {
		return nil, err
	}
	data, err := abis.Vault.Pack("setRelayerApproval", sender, s.relayer, approved)
	if err != nil {
		return nil, fmt.Errorf("encode setRelayerApproval: %w", err)
	}
	return &TxRequest{To: s.vault, Data: data, Value: big.NewInt(0)}, nil
}

// HasApproval reports whether user has approved the relayer on the Vault.
func (s *Service) HasApproval(ctx context.Context, user common.Address) (bool, error) {
	if err := s.checkDeployed(); err != nil {
		return false, err
	}
	return contracts.NewVault(s.vault, s.caller).HasApprovedRelayer(&bind.CallOpts{Context: ctx}, user, s.relayer)
}

// RelayerCallTx wraps tx as a TxRequest to the relayer.
func (s *Service) RelayerCallTx(tx *TransactionData) (*TxRequest, error) {
	if err := s.checkDeployed(); err != nil {
		return nil, err
	}
	data, err := tx.Data()
	if err != nil {
		return nil, err
	}
	return &TxRequest{To: s.relayer, Data: data, Value: big.NewInt(0)}, nil
}
