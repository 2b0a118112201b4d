package pvm

import (
	"github.com/holiman/uint256"
)

// Phase is the position of an invocation in its lifecycle.
//
//	Idle -> ArenaReset -> InputRead -> {SelectorValid, SelectorInvalid}
//	SelectorValid -> Dispatch -> {Returned, Reverted}
//	SelectorInvalid -> Reverted
//
// Selector moves an invocation out of InputRead and Dispatch marks the
// switch over selectors. Deploy never reads a selector and goes from
// ArenaReset straight to a terminal phase. Returned and Reverted are
// terminal; nothing resumes an invocation once it reaches one of them.
type Phase uint8

const (
	// PhaseIdle is the state before Begin.
	PhaseIdle Phase = iota

	// PhaseArenaReset follows Begin.
	PhaseArenaReset

	// PhaseInputRead follows the first read of the call input.
	PhaseInputRead

	// PhaseSelectorValid follows reading a complete selector.
	PhaseSelectorValid

	// PhaseSelectorInvalid follows input too short to hold a selector.
	PhaseSelectorInvalid

	// PhaseDispatch is set while the selector is matched and its call runs.
	PhaseDispatch

	// PhaseReturned is the normal terminal state.
	PhaseReturned

	// PhaseReverted is the failure terminal state.
	PhaseReverted
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArenaReset:
		return "arena-reset"
	case PhaseInputRead:
		return "input-read"
	case PhaseSelectorValid:
		return "selector-valid"
	case PhaseSelectorInvalid:
		return "selector-invalid"
	case PhaseDispatch:
		return "dispatch"
	case PhaseReturned:
		return "returned"
	case PhaseReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// Env is everything one invocation owns: the host frame, the arena and the
// codec. Generated entry points, wrappers, accessors and proxies all take an
// *Env. An Env must not be shared between invocations.
type Env struct {
	host  Host
	arena *Arena
	codec Codec
	phase Phase
}

// NewEnv creates an Env for one invocation served by host.
func NewEnv(host Host, opts ...EnvOption) *Env {
	e := &Env{
		host:  host,
		codec: SCALE,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.arena == nil {
		e.arena = NewArena(DefaultArenaSize)
	}
	return e
}

// Begin resets the arena and starts the invocation.
func (e *Env) Begin() {
	e.arena.Reset()
	e.phase = PhaseArenaReset
}

// Host returns the host frame.
func (e *Env) Host() Host {
	return e.host
}

// Arena returns the invocation arena.
func (e *Env) Arena() *Arena {
	return e.arena
}

// Codec returns the value codec.
func (e *Env) Codec() Codec {
	return e.codec
}

// Phase returns the current lifecycle phase.
func (e *Env) Phase() Phase {
	return e.phase
}

// Terminated reports whether the invocation has returned or reverted.
func (e *Env) Terminated() bool {
	return e.phase == PhaseReturned || e.phase == PhaseReverted
}

// Input returns the raw invocation input.
func (e *Env) Input() []byte {
	if e.phase < PhaseInputRead {
		e.phase = PhaseInputRead
	}
	return e.host.Input()
}

// Selector returns the selector at the head of the input. It returns false
// when the input is shorter than a selector.
func (e *Env) Selector() (Selector, bool) {
	sel, _, ok := SplitSelector(e.Input())
	if e.phase == PhaseInputRead {
		if ok {
			e.phase = PhaseSelectorValid
		} else {
			e.phase = PhaseSelectorInvalid
		}
	}
	return sel, ok
}

// Dispatch marks the start of selector matching. It only applies after a
// valid selector was read.
func (e *Env) Dispatch() {
	if e.phase == PhaseSelectorValid {
		e.phase = PhaseDispatch
	}
}

// Args returns a decoder over the call arguments following the selector.
func (e *Env) Args() Decoder {
	_, args, _ := SplitSelector(e.Input())
	return e.codec.NewDecoder(args)
}

// Return ends the invocation successfully with data as output.
func (e *Env) Return(data []byte) error {
	if e.Terminated() {
		return ErrTerminated
	}
	e.phase = PhaseReturned
	e.host.ReturnValue(data)
	return nil
}

// ReturnEncoded encodes v and returns it. An encoding failure reverts with
// MsgEncodeFailed instead.
func (e *Env) ReturnEncoded(v any) error {
	data, err := e.codec.Encode(v)
	if err != nil {
		return e.Revert(MsgEncodeFailed)
	}
	return e.Return(data)
}

// Revert ends the invocation with a failure carrying msg.
func (e *Env) Revert(msg []byte) error {
	if e.Terminated() {
		return ErrTerminated
	}
	e.phase = PhaseReverted
	e.host.Revert(msg)
	return nil
}

// Caller returns the address that initiated this invocation.
func (e *Env) Caller() Address {
	return e.host.Caller()
}

// Self returns the address of the executing contract.
func (e *Env) Self() Address {
	return e.host.Address()
}

// BlockNumber returns the current block number.
func (e *Env) BlockNumber() uint64 {
	return e.host.BlockNumber()
}

// Now returns the current block timestamp in milliseconds.
func (e *Env) Now() uint64 {
	return e.host.Now()
}

// ValueTransferred returns the native value sent with this invocation.
func (e *Env) ValueTransferred() *uint256.Int {
	return e.host.ValueTransferred()
}
