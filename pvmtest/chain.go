// Package pvmtest provides an in-memory chain that hosts generated
// contracts, so contracts can be deployed, called and inspected from
// ordinary Go tests without a virtual machine.
package pvmtest

import (
	"errors"
	"fmt"
	"sync"

	pvm "github.com/branched-services/go-pvm"
	"github.com/holiman/uint256"
)

// Sentinel errors for chain operations.
var (
	// ErrNoContract indicates no contract is deployed at the target address.
	ErrNoContract = errors.New("pvmtest: no contract at address")

	// ErrAlreadyDeployed indicates the address already holds a contract.
	ErrAlreadyDeployed = errors.New("pvmtest: address already holds a contract")

	// ErrReverted indicates a nested call reverted.
	ErrReverted = errors.New("pvmtest: call reverted")

	// ErrDepthExceeded indicates the nested call depth limit was reached.
	ErrDepthExceeded = errors.New("pvmtest: call depth exceeded")
)

// DefaultMaxDepth is the nested call depth limit of a new chain.
const DefaultMaxDepth = 64

// Result is the outcome of one top-level invocation.
type Result struct {
	Reverted bool
	Output   []byte
}

// Log is an event deposited by a contract.
type Log struct {
	Address pvm.Address
	Topics  []pvm.Hash
	Data    []byte
}

type account struct {
	entry   pvm.EntryPoints
	storage map[pvm.Hash][]byte
}

// Chain is a minimal in-memory blockchain. Invocations are serialized: a
// chain runs one call stack at a time.
type Chain struct {
	mu        sync.Mutex
	accounts  map[pvm.Address]*account
	journal   []journalEntry
	logs      []Log
	codec     pvm.Codec
	arenaSize int
	maxDepth  int
	block     uint64
	now       uint64
}

// Option configures a Chain.
type Option func(*Chain)

// WithCodec sets the codec handed to contracts whose EntryPoints carry
// none. Default is pvm.SCALE.
func WithCodec(c pvm.Codec) Option {
	return func(ch *Chain) {
		ch.codec = c
	}
}

// WithArenaSize sets the arena capacity of every invocation.
func WithArenaSize(size int) Option {
	return func(ch *Chain) {
		ch.arenaSize = size
	}
}

// WithMaxDepth sets the nested call depth limit.
func WithMaxDepth(depth int) Option {
	return func(ch *Chain) {
		ch.maxDepth = depth
	}
}

// NewChain creates an empty chain at block 1.
func NewChain(opts ...Option) *Chain {
	c := &Chain{
		accounts:  make(map[pvm.Address]*account),
		codec:     pvm.SCALE,
		arenaSize: pvm.DefaultArenaSize,
		maxDepth:  DefaultMaxDepth,
		block:     1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Deploy installs a contract at addr and runs its Deploy entry point, if
// any.
// A reverted deployment leaves no account behind.
func (c *Chain) Deploy(from, addr pvm.Address, entry pvm.EntryPoints) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.accounts[addr]; exists {
		return Result{}, fmt.Errorf("%w: %s", ErrAlreadyDeployed, addr.Hex())
	}

	acct := &account{entry: entry, storage: make(map[pvm.Hash][]byte)}
	c.accounts[addr] = acct
	if entry.Deploy == nil {
		return Result{}, nil
	}

	f := c.newFrame(acct, addr, from, nil, nil, 0)
	c.run(f, entry.Deploy)
	c.journal = nil
	if f.reverted {
		delete(c.accounts, addr)
	} else {
		c.logs = append(c.logs, f.logs...)
	}
	return f.result(), nil
}

// Call invokes the contract at to with input on behalf of from.
func (c *Chain) Call(from, to pvm.Address, input []byte) (Result, error) {
	return c.CallWithValue(from, to, nil, input)
}

// CallWithValue is like Call but transfers value.
func (c *Chain) CallWithValue(from, to pvm.Address, value *uint256.Int, input []byte) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := c.invoke(from, to, value, input, 0)
	c.journal = nil
	if err != nil {
		return Result{}, err
	}
	if !f.reverted {
		c.logs = append(c.logs, f.logs...)
	}
	return f.result(), nil
}

// CallSelector is a convenience wrapper building input from a selector and
// already encoded arguments.
func (c *Chain) CallSelector(from, to pvm.Address, sel pvm.Selector, args []byte) (Result, error) {
	return c.Call(from, to, pvm.EncodeCallData(sel, args))
}

// StorageAt returns a copy of the value stored at key in the contract at addr.
func (c *Chain) StorageAt(addr pvm.Address, key pvm.Hash) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	acct, ok := c.accounts[addr]
	if !ok {
		return nil, false
	}
	v, ok := acct.storage[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// SetStorageAt writes a raw value into the contract at addr, bypassing the
// contract. It is meant for fault injection in tests.
func (c *Chain) SetStorageAt(addr pvm.Address, key pvm.Hash, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	acct, ok := c.accounts[addr]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoContract, addr.Hex())
	}
	if len(value) == 0 {
		delete(acct.storage, key)
		return nil
	}
	acct.storage[key] = append([]byte(nil), value...)
	return nil
}

// StorageSize returns the number of keys stored by the contract at addr.
func (c *Chain) StorageSize(addr pvm.Address) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if acct, ok := c.accounts[addr]; ok {
		return len(acct.storage)
	}
	return 0
}

// Logs returns the events deposited by successful invocations so far.
func (c *Chain) Logs() []Log {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Log, len(c.logs))
	copy(out, c.logs)
	return out
}

// AdvanceBlock moves the chain forward by n blocks and ms milliseconds.
func (c *Chain) AdvanceBlock(n, ms uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.block += n
	c.now += ms
}

// invoke runs a call frame. The caller must hold c.mu.
func (c *Chain) invoke(from, to pvm.Address, value *uint256.Int, input []byte, depth int) (*frame, error) {
	if depth > c.maxDepth {
		return nil, ErrDepthExceeded
	}
	acct, ok := c.accounts[to]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoContract, to.Hex())
	}

	f := c.newFrame(acct, to, from, value, input, depth)
	c.run(f, acct.entry.Call)
	return f, nil
}

func (c *Chain) newFrame(acct *account, self, caller pvm.Address, value *uint256.Int, input []byte, depth int) *frame {
	if value == nil {
		value = new(uint256.Int)
	}
	return &frame{
		chain:      c,
		acct:       acct,
		self:       self,
		caller:     caller,
		value:      value,
		input:      append([]byte(nil), input...),
		depth:      depth,
		checkpoint: len(c.journal),
	}
}

// run executes entry in f with the codec of the contract. A contract that
// returns without an explicit terminal call ends normally with empty
// output.
func (c *Chain) run(f *frame, entry func(*pvm.Env)) {
	opts := []pvm.EnvOption{pvm.WithArenaSize(c.arenaSize)}
	if f.acct.entry.Codec == nil {
		opts = append(opts, pvm.WithCodec(c.codec))
	}
	env := f.acct.entry.NewEnv(f, opts...)
	if entry == nil {
		f.Revert(pvm.MsgNoMethods)
		return
	}
	entry(env)
	if !f.done {
		f.ReturnValue(nil)
	}
	if f.reverted {
		f.rollback()
	}
}
