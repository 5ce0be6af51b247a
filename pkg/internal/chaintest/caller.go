// Package chaintest provides an in-memory contract backend for tests.
package chaintest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Handler answers one eth_call. input excludes the 4-byte selector.
type Handler func(call ethereum.CallMsg, input []byte) ([]byte, error)

// Caller is a bind.ContractCaller that dispatches on (to, selector).
type Caller struct {
	mu       sync.Mutex
	handlers map[string]Handler
	Calls    []ethereum.CallMsg
}

func NewCaller() *Caller {
	return &Caller{handlers: make(map[string]Handler)}
}

func key(to common.Address, sel []byte) string {
	return fmt.Sprintf("%s:%x", to.Hex(), sel)
}

// Handle registers h for method on the contract at to.
func (c *Caller) Handle(to common.Address, method abi.Method, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[key(to, method.ID)] = h
}

// Return registers a fixed answer: method's outputs packed from values.
func (c *Caller) Return(to common.Address, method abi.Method, values ...interface{}) {
	packed, err := method.Outputs.Pack(values...)
	if err != nil {
		panic(err)
	}
	c.Handle(to, method, func(ethereum.CallMsg, []byte) ([]byte, error) { return packed, nil })
}

func (c *Caller) CodeAt(_ context.Context, _ common.Address, _ *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (c *Caller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	c.Calls = append(c.Calls, call)
	if call.To == nil || len(call.Data) < 4 {
		c.mu.Unlock()
		return nil, fmt.Errorf("chaintest: malformed call")
	}
	h, ok := c.handlers[key(*call.To, call.Data[:4])]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("chaintest: no handler for %s selector %x", call.To.Hex(), call.Data[:4])
	}
	return h(call, call.Data[4:])
}
