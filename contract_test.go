package pvm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

func TestContractRef(t *testing.T) {
	addr := common.HexToAddress("0x1234567890123456789012345678901234567890")

	t.Run("address", func(t *testing.T) {
		ref := NewContractRef(addr)
		if ref.Address() != addr {
			t.Errorf("Expected %s, got %s", addr.Hex(), ref.Address().Hex())
		}
		if ref.IsZero() {
			t.Error("Expected non-zero reference")
		}
	})

	t.Run("zero value", func(t *testing.T) {
		var ref ContractRef
		if !ref.IsZero() {
			t.Error("Expected zero reference")
		}
	})

	t.Run("invoke targets the referenced address", func(t *testing.T) {
		host := newMemHost(nil)
		var got Address
		host.call = func(a Address, _ *uint256.Int, _ []byte) ([]byte, error) {
			got = a
			return []byte{0x2a, 0, 0, 0, 0, 0, 0, 0}, nil
		}
		env := NewEnv(host)
		ref := NewContractRef(addr)
		sel := SelectorOf("get")

		var out uint64
		if err := ref.InvokeAndDecode(env, sel, &out); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got != addr || out != 42 {
			t.Errorf("Expected call to %s returning 42, got %s returning %d", addr.Hex(), got.Hex(), out)
		}

		if err := ref.Invoke(env, SelectorOf("flip"), "x"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		flip := SelectorOf("flip")
		want := append(flip.Bytes(), 0x04, 0x78)
		if !bytes.Equal(host.lastCall, want) {
			t.Errorf("Expected call data %x, got %x", want, host.lastCall)
		}
	})

	t.Run("codec of the referenced contract", func(t *testing.T) {
		host := newMemHost(nil)
		host.call = func(Address, *uint256.Int, []byte) ([]byte, error) {
			return CBOR.Encode(uint64(7))
		}
		env := NewEnv(host)
		ref := NewContractRef(addr).WithCodec(CBOR)
		if ref.Codec() != CBOR {
			t.Fatalf("Expected codec %s, got %v", CodecCBOR, ref.Codec())
		}

		var out uint64
		if err := ref.InvokeAndDecode(env, SelectorOf("get"), &out, uint64(1)); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if out != 7 {
			t.Errorf("Expected 7, got %d", out)
		}
		args, _ := CBOR.Encode(uint64(1))
		get := SelectorOf("get")
		if want := append(get.Bytes(), args...); !bytes.Equal(host.lastCall, want) {
			t.Errorf("Expected CBOR call data %x, got %x", want, host.lastCall)
		}
		if NewContractRef(addr).Codec() != nil {
			t.Error("Expected no codec on a plain reference")
		}
	})

	t.Run("failure carries the address", func(t *testing.T) {
		env := NewEnv(newMemHost(nil))
		err := NewContractRef(addr).Invoke(env, SelectorOf("flip"))

		var callErr *CallError
		if !errors.As(err, &callErr) {
			t.Fatalf("Expected *CallError, got %T", err)
		}
		if callErr.Address != addr {
			t.Errorf("Expected address %s, got %s", addr.Hex(), callErr.Address.Hex())
		}
	})
}
