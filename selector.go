package pvm

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/blake2s"
)

// Size constants for the tags exchanged with the host.
const (
	// SelectorSize is the length of a call selector in bytes.
	SelectorSize = 4

	// HashSize is the length of storage keys and event topics in bytes.
	HashSize = common.HashLength

	// AddressSize is the length of a contract address in bytes.
	AddressSize = common.AddressLength
)

// Address is a 20-byte contract or account address.
type Address = common.Address

// Hash is a 32-byte storage key, topic or digest.
type Hash = common.Hash

// Selector is the 4-byte tag identifying a callable method.
type Selector [SelectorSize]byte

// Hex returns the selector as a 0x-prefixed hex string.
func (s Selector) Hex() string {
	return "0x" + hex.EncodeToString(s[:])
}

// String implements fmt.Stringer.
func (s Selector) String() string {
	return s.Hex()
}

// Bytes returns a copy of the selector bytes.
func (s Selector) Bytes() []byte {
	b := make([]byte, SelectorSize)
	copy(b, s[:])
	return b
}

// SelectorOf derives the selector for a call name.
// It is the first 4 bytes of BLAKE2s-256(name).
func SelectorOf(name string) Selector {
	sum := blake2s.Sum256([]byte(name))
	var sel Selector
	copy(sel[:], sum[:SelectorSize])
	return sel
}

// StorageKey derives the 32-byte storage key for a storage type name.
// It is BLAKE2s-256(name).
func StorageKey(name string) Hash {
	return Hash(blake2s.Sum256([]byte(name)))
}

// TopicOf derives the single topic of an event type: the event name's
// selector in the first 4 bytes, zero elsewhere.
func TopicOf(name string) Hash {
	var topic Hash
	sel := SelectorOf(name)
	copy(topic[:SelectorSize], sel[:])
	return topic
}

// SplitSelector splits call input into its selector and argument bytes.
// It returns false when the input is shorter than a selector.
func SplitSelector(input []byte) (Selector, []byte, bool) {
	var sel Selector
	if len(input) < SelectorSize {
		return sel, nil, false
	}
	copy(sel[:], input[:SelectorSize])
	return sel, input[SelectorSize:], true
}
