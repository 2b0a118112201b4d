// Package pvm is the runtime half of go-pvm, a toolkit for writing smart
// contracts for resource-constrained virtual machines in plain Go.
//
// Contract authors write an ordinary Go package: one storage struct, an
// optional constructor and any number of handler functions, each marked with
// a role directive. The pvmgen generator (package gen) reads the package and
// emits the low-level glue: storage accessors, the Deploy and Call entry
// points with selector dispatch, event topics and a typed proxy that other
// contracts use to call this one.
//
// # Writing a Contract
//
//	//pvm:storage
//	type Flipper struct {
//	    Value bool
//	}
//
//	//pvm:init
//	func newFlipper() Flipper {
//	    return Flipper{Value: false}
//	}
//
//	//pvm:call
//	func flip(state *Flipper) {
//	    state.Value = !state.Value
//	}
//
//	//pvm:call
//	func get(state Flipper) bool {
//	    return state.Value
//	}
//
// A pointer state parameter is an exclusive reference: the generated wrapper
// loads storage, runs the handler and persists the result. A value state
// parameter is a shared reference: storage is loaded but never written back.
// Handlers may also be methods on the storage type, in which case the
// receiver plays the role of the state parameter.
//
// # Runtime Pieces
//
//   - Env: the per-invocation bundle of Host, Arena and Codec that every
//     generated function receives.
//   - Host: the VM host ABI (storage, input, return/revert, cross-contract
//     calls, events, block context).
//   - Arena: a bump allocator reset at the start of every invocation.
//   - Codec: the value encoding (SCALE by default, RLP and canonical CBOR
//     optional). Generated EntryPoints carry the codec the contract was
//     generated for.
//   - Lazy and Mapping: typed storage handles that hash their keys.
//   - ContractRef: the base of every generated proxy.
//
// # Wire Format
//
// Call input is a 4-byte selector followed by the codec encoding of each
// argument in declared order. Call output is empty or the encoding of the
// single return value. Selectors are the first 4 bytes of BLAKE2s-256 of the
// call name, so independently built contracts agree on them.
package pvm
