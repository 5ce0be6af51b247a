package provider

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet signs transactions for one account.
type Wallet interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeyWallet holds a private key in memory.
type KeyWallet struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func NewKeyWallet(key *ecdsa.PrivateKey) *KeyWallet {
	return &KeyWallet{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// WalletFromHex parses a hex private key, with or without 0x.
func WalletFromHex(hexKey string) (*KeyWallet, error) {
	k, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeyWallet(k), nil
}

func (w *KeyWallet) Address() common.Address { return w.addr }

func (w *KeyWallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), w.key)
}
