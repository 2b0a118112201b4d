package pvmtest

import (
	pvm "github.com/branched-services/go-pvm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

type journalEntry struct {
	acct    *account
	key     pvm.Hash
	value   []byte
	existed bool
}

// frame is one call frame. It implements pvm.Host; storage writes go
// through the chain journal so a reverted frame, together with every frame
// it called, leaves no trace.
type frame struct {
	chain      *Chain
	acct       *account
	self       pvm.Address
	caller     pvm.Address
	value      *uint256.Int
	input      []byte
	depth      int
	checkpoint int
	logs       []Log

	done     bool
	reverted bool
	output   []byte
}

var _ pvm.Host = (*frame)(nil)

func (f *frame) result() Result {
	return Result{Reverted: f.reverted, Output: f.output}
}

func (f *frame) record(key pvm.Hash) {
	prev, existed := f.acct.storage[key]
	f.chain.journal = append(f.chain.journal, journalEntry{
		acct:    f.acct,
		key:     key,
		value:   prev,
		existed: existed,
	})
}

// rollback undoes every write made since the frame started, newest first.
func (f *frame) rollback() {
	j := f.chain.journal
	for i := len(j) - 1; i >= f.checkpoint; i-- {
		entry := j[i]
		if entry.existed {
			entry.acct.storage[entry.key] = entry.value
		} else {
			delete(entry.acct.storage, entry.key)
		}
	}
	f.chain.journal = j[:f.checkpoint]
	f.logs = nil
}

func (f *frame) GetStorage(key pvm.Hash, out []byte) (int, error) {
	v, ok := f.acct.storage[key]
	if !ok {
		return 0, pvm.ErrKeyNotFound
	}
	if len(v) > len(out) {
		return 0, pvm.ErrOutputTooSmall
	}
	return copy(out, v), nil
}

func (f *frame) SetStorage(key pvm.Hash, value []byte) {
	f.record(key)
	if len(value) == 0 {
		delete(f.acct.storage, key)
		return
	}
	f.acct.storage[key] = append([]byte(nil), value...)
}

func (f *frame) ClearStorage(key pvm.Hash) {
	f.record(key)
	delete(f.acct.storage, key)
}

func (f *frame) ContainsStorage(key pvm.Hash) bool {
	_, ok := f.acct.storage[key]
	return ok
}

func (f *frame) CallContract(addr pvm.Address, value *uint256.Int, data []byte, out []byte) (int, error) {
	callee, err := f.chain.invoke(f.self, addr, value, data, f.depth+1)
	if err != nil {
		return 0, err
	}
	if callee.reverted {
		return 0, ErrReverted
	}
	f.logs = append(f.logs, callee.logs...)
	if out == nil {
		return 0, nil
	}
	if len(callee.output) > len(out) {
		return 0, pvm.ErrOutputTooSmall
	}
	return copy(out, callee.output), nil
}

func (f *frame) Caller() pvm.Address {
	return f.caller
}

func (f *frame) Address() pvm.Address {
	return f.self
}

func (f *frame) BlockNumber() uint64 {
	return f.chain.block
}

func (f *frame) Now() uint64 {
	return f.chain.now
}

func (f *frame) ValueTransferred() *uint256.Int {
	return new(uint256.Int).Set(f.value)
}

func (f *frame) Input() []byte {
	return f.input
}

func (f *frame) ReturnValue(data []byte) {
	if f.done {
		return
	}
	f.done = true
	f.output = append([]byte(nil), data...)
}

func (f *frame) Revert(data []byte) {
	if f.done {
		return
	}
	f.done = true
	f.reverted = true
	f.output = append([]byte(nil), data...)
}

func (f *frame) Keccak256(data []byte) pvm.Hash {
	return crypto.Keccak256Hash(data)
}

func (f *frame) DepositEvent(topics []pvm.Hash, data []byte) {
	f.logs = append(f.logs, Log{
		Address: f.self,
		Topics:  append([]pvm.Hash(nil), topics...),
		Data:    append([]byte(nil), data...),
	})
}
