package pvm

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions.
var (
	// ErrKeyNotFound indicates a storage read hit an absent key.
	ErrKeyNotFound = errors.New("pvm: storage key not found")

	// ErrOutputTooSmall indicates a host output buffer could not hold the value.
	ErrOutputTooSmall = errors.New("pvm: output buffer too small")

	// ErrArenaExhausted indicates the per-invocation arena has no room left.
	ErrArenaExhausted = errors.New("pvm: arena exhausted")

	// ErrCallFailed indicates the remote contract call reverted or trapped.
	ErrCallFailed = errors.New("pvm: contract call failed")

	// ErrDecodeFailed indicates the remote call returned bytes that could not
	// be decoded into the declared return type.
	ErrDecodeFailed = errors.New("pvm: failed to decode call output")

	// ErrTerminated indicates the invocation already returned or reverted.
	ErrTerminated = errors.New("pvm: invocation already terminated")
)

// Fixed revert diagnostics produced by generated entry points.
var (
	// MsgNoSelector is reverted when call input is shorter than a selector.
	MsgNoSelector = []byte("no selector")

	// MsgUnknownSelector is reverted when no call matches the selector.
	MsgUnknownSelector = []byte("unknown selector")

	// MsgNoMethods is reverted by contracts that declare no calls.
	MsgNoMethods = []byte("no methods")

	// MsgInvalidArguments is reverted when call arguments fail to decode.
	MsgInvalidArguments = []byte("invalid arguments")

	// MsgEncodeFailed is reverted when a result or state cannot be encoded.
	MsgEncodeFailed = []byte("encode failed")
)

// CallErrorKind distinguishes the two ways a cross-contract call can fail.
type CallErrorKind uint8

const (
	// CallFailed means the remote invocation itself failed.
	CallFailed CallErrorKind = iota

	// DecodeFailed means the invocation succeeded but its output did not decode.
	DecodeFailed
)

// String implements fmt.Stringer.
func (k CallErrorKind) String() string {
	switch k {
	case CallFailed:
		return "call failed"
	case DecodeFailed:
		return "decode failed"
	default:
		return fmt.Sprintf("CallErrorKind(%d)", uint8(k))
	}
}

// CallError is returned by proxies when a cross-contract call fails.
type CallError struct {
	Kind     CallErrorKind
	Address  Address
	Selector Selector
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("pvm: call %s on %s: %v", e.Selector.Hex(), e.Address.Hex(), e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching the error kind.
func (e *CallError) Is(target error) bool {
	switch e.Kind {
	case CallFailed:
		return target == ErrCallFailed
	case DecodeFailed:
		return target == ErrDecodeFailed
	}
	return false
}

// EncodingError indicates a failure while encoding or decoding a value.
type EncodingError struct {
	Value any
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("pvm: encoding error for value %T: %v", e.Value, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
