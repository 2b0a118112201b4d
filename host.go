package pvm

import (
	"github.com/holiman/uint256"
)

// Host is the VM host ABI as seen by a contract. A Host serves exactly one
// invocation (one call frame); the host serializes invocations on a
// contract address, so implementations need no locking of their own.
type Host interface {
	// GetStorage copies the value stored at key into out and returns its
	// length. It returns ErrKeyNotFound for an absent key and
	// ErrOutputTooSmall when out cannot hold the value.
	GetStorage(key Hash, out []byte) (int, error)

	// SetStorage writes value at key, replacing any previous value. Writing
	// an empty value removes the key.
	SetStorage(key Hash, value []byte)

	// ClearStorage removes key.
	ClearStorage(key Hash)

	// ContainsStorage reports whether a value is stored at key.
	ContainsStorage(key Hash) bool

	// CallContract synchronously invokes the contract at addr with data and
	// value. When out is non-nil the callee's output is copied into it and
	// its length returned. Any callee revert or trap is reported as an error.
	CallContract(addr Address, value *uint256.Int, data []byte, out []byte) (int, error)

	// Caller returns the address that initiated this invocation.
	Caller() Address

	// Address returns the address of the executing contract.
	Address() Address

	// BlockNumber returns the current block number.
	BlockNumber() uint64

	// Now returns the current block timestamp in milliseconds.
	Now() uint64

	// ValueTransferred returns the native value sent with this invocation.
	ValueTransferred() *uint256.Int

	// Input returns the raw invocation input.
	Input() []byte

	// ReturnValue ends the invocation successfully with data as output.
	ReturnValue(data []byte)

	// Revert ends the invocation with a failure carrying data.
	Revert(data []byte)

	// Keccak256 hashes data with keccak-256.
	Keccak256(data []byte) Hash

	// DepositEvent appends an event log entry.
	DepositEvent(topics []Hash, data []byte)
}

// EntryPoints are the two exported functions of a generated contract and
// the codec its types were generated for.
type EntryPoints struct {
	Deploy func(env *Env)
	Call   func(env *Env)
	Codec  Codec
}

// NewEnv creates an Env for one invocation of the contract. The contract
// codec, when set, comes before opts.
func (ep EntryPoints) NewEnv(host Host, opts ...EnvOption) *Env {
	if ep.Codec != nil {
		opts = append([]EnvOption{WithCodec(ep.Codec)}, opts...)
	}
	return NewEnv(host, opts...)
}
