package pvm

import (
	"github.com/holiman/uint256"
)

// EncodeCallData builds call input: the selector followed by args, which
// must already be encoded.
func EncodeCallData(sel Selector, args []byte) []byte {
	data := make([]byte, 0, SelectorSize+len(args))
	data = append(data, sel[:]...)
	return append(data, args...)
}

// Invoke calls sel on the contract at addr with no value and discards the
// output.
func Invoke(env *Env, addr Address, sel Selector, args ...any) error {
	return InvokeWithValue(env, addr, nil, sel, args...)
}

// InvokeWithValue is like Invoke but transfers value to the callee.
func InvokeWithValue(env *Env, addr Address, value *uint256.Int, sel Selector, args ...any) error {
	return invoke(env, env.codec, addr, value, sel, args)
}

// InvokeAndDecode calls sel on the contract at addr with no value and
// decodes the output into out, which must be a pointer.
func InvokeAndDecode(env *Env, addr Address, sel Selector, out any, args ...any) error {
	return InvokeWithValueAndDecode(env, addr, nil, sel, out, args...)
}

// InvokeWithValueAndDecode is like InvokeAndDecode but transfers value to
// the callee.
func InvokeWithValueAndDecode(env *Env, addr Address, value *uint256.Int, sel Selector, out any, args ...any) error {
	return invokeAndDecode(env, env.codec, addr, value, sel, out, args)
}

func invoke(env *Env, codec Codec, addr Address, value *uint256.Int, sel Selector, args []any) error {
	data, err := callData(codec, addr, sel, args)
	if err != nil {
		return err
	}
	if _, err := env.host.CallContract(addr, value, data, nil); err != nil {
		return &CallError{Kind: CallFailed, Address: addr, Selector: sel, Err: err}
	}
	return nil
}

func invokeAndDecode(env *Env, codec Codec, addr Address, value *uint256.Int, sel Selector, out any, args []any) error {
	data, err := callData(codec, addr, sel, args)
	if err != nil {
		return err
	}

	buf := env.arena.Alloc(MaxOutputSize)
	if buf == nil {
		return &CallError{Kind: CallFailed, Address: addr, Selector: sel, Err: ErrArenaExhausted}
	}
	n, err := env.host.CallContract(addr, value, data, buf)
	if err != nil {
		env.arena.Shrink(buf, 0)
		return &CallError{Kind: CallFailed, Address: addr, Selector: sel, Err: err}
	}

	output := env.arena.Shrink(buf, n)
	if err := codec.Decode(output, out); err != nil {
		return &CallError{Kind: DecodeFailed, Address: addr, Selector: sel, Err: err}
	}
	return nil
}

// callData encodes args and prefixes the selector. Argument encoding
// failures are local, so they are reported as CallFailed without reaching
// the host.
func callData(codec Codec, addr Address, sel Selector, args []any) ([]byte, error) {
	encoded, err := EncodeArgs(codec, args...)
	if err != nil {
		return nil, &CallError{Kind: CallFailed, Address: addr, Selector: sel, Err: err}
	}
	return EncodeCallData(sel, encoded), nil
}
