package pvm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestEncodeCallData(t *testing.T) {
	sel := SelectorOf("flip")

	t.Run("no arguments", func(t *testing.T) {
		data := EncodeCallData(sel, nil)
		if !bytes.Equal(data, sel[:]) {
			t.Errorf("Expected %x, got %x", sel[:], data)
		}
	})

	t.Run("selector prefix", func(t *testing.T) {
		data := EncodeCallData(sel, []byte{0x05, 0x06})
		want := append(sel.Bytes(), 0x05, 0x06)
		if !bytes.Equal(data, want) {
			t.Errorf("Expected %x, got %x", want, data)
		}
	})
}

func TestInvoke(t *testing.T) {
	callee := Address{0xcc}
	sel := SelectorOf("set")

	t.Run("sends selector and encoded arguments", func(t *testing.T) {
		host := newMemHost(nil)
		var gotAddr Address
		host.call = func(addr Address, value *uint256.Int, data []byte) ([]byte, error) {
			gotAddr = addr
			return nil, nil
		}
		env := NewEnv(host)

		if err := Invoke(env, callee, sel, uint64(5), true); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if gotAddr != callee {
			t.Errorf("Expected callee %s, got %s", callee, gotAddr)
		}
		want := append(sel.Bytes(), 0x05, 0, 0, 0, 0, 0, 0, 0, 0x01)
		if !bytes.Equal(host.lastCall, want) {
			t.Errorf("Expected call data %x, got %x", want, host.lastCall)
		}
	})

	t.Run("callee failure", func(t *testing.T) {
		env := NewEnv(newMemHost(nil))

		err := Invoke(env, callee, sel)
		if !errors.Is(err, ErrCallFailed) {
			t.Fatalf("Expected ErrCallFailed, got %v", err)
		}
		if errors.Is(err, ErrDecodeFailed) {
			t.Error("Call failure must not match ErrDecodeFailed")
		}
		var callErr *CallError
		if !errors.As(err, &callErr) {
			t.Fatalf("Expected *CallError, got %T", err)
		}
		if callErr.Address != callee || callErr.Selector != sel {
			t.Errorf("Expected error for %s/%s, got %s/%s", callee, sel, callErr.Address, callErr.Selector)
		}
		if !errors.Is(err, errNoCallee) {
			t.Error("Expected the host error to be wrapped")
		}
	})

	t.Run("unencodable argument never reaches the host", func(t *testing.T) {
		host := newMemHost(nil)
		env := NewEnv(host)

		err := Invoke(env, callee, sel, int(-1))
		if !errors.Is(err, ErrCallFailed) {
			t.Errorf("Expected ErrCallFailed, got %v", err)
		}
		if host.lastCall != nil {
			t.Error("Expected no host call")
		}
	})

	t.Run("value is forwarded", func(t *testing.T) {
		host := newMemHost(nil)
		var got *uint256.Int
		host.call = func(addr Address, value *uint256.Int, data []byte) ([]byte, error) {
			got = value
			return nil, nil
		}
		env := NewEnv(host)

		if err := InvokeWithValue(env, callee, uint256.NewInt(1000), sel); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got == nil || got.Uint64() != 1000 {
			t.Errorf("Expected value 1000, got %v", got)
		}
	})
}

func TestInvokeAndDecode(t *testing.T) {
	callee := Address{0xcc}
	sel := SelectorOf("get")

	t.Run("decodes the output", func(t *testing.T) {
		host := newMemHost(nil)
		host.call = func(Address, *uint256.Int, []byte) ([]byte, error) {
			return []byte{0x01}, nil
		}
		env := NewEnv(host)

		var out bool
		if err := InvokeAndDecode(env, callee, sel, &out); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !out {
			t.Error("Expected true")
		}
	})

	t.Run("bad output is a decode failure", func(t *testing.T) {
		host := newMemHost(nil)
		host.call = func(Address, *uint256.Int, []byte) ([]byte, error) {
			return []byte{0xff, 0xff}, nil
		}
		env := NewEnv(host)

		var out bool
		err := InvokeAndDecode(env, callee, sel, &out)
		if !errors.Is(err, ErrDecodeFailed) {
			t.Fatalf("Expected ErrDecodeFailed, got %v", err)
		}
		if errors.Is(err, ErrCallFailed) {
			t.Error("Decode failure must not match ErrCallFailed")
		}
	})

	t.Run("callee failure", func(t *testing.T) {
		env := NewEnv(newMemHost(nil))

		var out bool
		if err := InvokeAndDecode(env, callee, sel, &out); !errors.Is(err, ErrCallFailed) {
			t.Errorf("Expected ErrCallFailed, got %v", err)
		}
		if env.Arena().Used() != 0 {
			t.Errorf("Expected output buffer to be released, got %d bytes used", env.Arena().Used())
		}
	})

	t.Run("arena exhaustion is a call failure", func(t *testing.T) {
		host := newMemHost(nil)
		host.call = func(Address, *uint256.Int, []byte) ([]byte, error) {
			return []byte{0x01}, nil
		}
		env := NewEnv(host, WithArenaSize(16))

		var out bool
		err := InvokeAndDecode(env, callee, sel, &out)
		if !errors.Is(err, ErrCallFailed) || !errors.Is(err, ErrArenaExhausted) {
			t.Errorf("Expected ErrCallFailed wrapping ErrArenaExhausted, got %v", err)
		}
	})

	t.Run("value and decode", func(t *testing.T) {
		host := newMemHost(nil)
		host.call = func(_ Address, value *uint256.Int, _ []byte) ([]byte, error) {
			return SCALE.Encode(value.Uint64())
		}
		env := NewEnv(host)

		var out uint64
		if err := InvokeWithValueAndDecode(env, callee, uint256.NewInt(77), sel, &out); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if out != 77 {
			t.Errorf("Expected 77, got %d", out)
		}
	})
}
