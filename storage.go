package pvm

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// GetRaw reads the bytes stored at key into the invocation arena.
// It returns false when the key is absent, the value exceeds MaxValueSize
// or the arena is exhausted.
func GetRaw(env *Env, key Hash) ([]byte, bool) {
	buf := env.arena.Alloc(MaxValueSize)
	if buf == nil {
		return nil, false
	}
	n, err := env.host.GetStorage(key, buf)
	if err != nil {
		env.arena.Shrink(buf, 0)
		return nil, false
	}
	return env.arena.Shrink(buf, n), true
}

// SetRaw writes data at key, replacing any previous value.
func SetRaw(env *Env, key Hash, data []byte) {
	env.host.SetStorage(key, data)
}

// Remove deletes the value at key.
func Remove(env *Env, key Hash) {
	env.host.ClearStorage(key)
}

// Contains reports whether a value is stored at key.
func Contains(env *Env, key Hash) bool {
	return env.host.ContainsStorage(key)
}

// Get decodes the value stored at key into v, which must be a pointer.
// It returns false when the key is absent or the bytes do not decode; v is
// left untouched only in the first case.
func Get(env *Env, key Hash, v any) bool {
	data, ok := GetRaw(env, key)
	if !ok {
		return false
	}
	return env.codec.Decode(data, v) == nil
}

// Set encodes v and writes it at key.
func Set(env *Env, key Hash, v any) error {
	data, err := env.codec.Encode(v)
	if err != nil {
		return err
	}
	env.host.SetStorage(key, data)
	return nil
}

// NamespaceKey hashes a namespace name into the base key used by Lazy and
// Mapping handles.
func NamespaceKey(namespace string) Hash {
	return crypto.Keccak256Hash([]byte(namespace))
}

// Lazy is a single value stored at a fixed key. Values are never cached;
// every access goes to the host.
type Lazy[V any] struct {
	key Hash
}

// NewLazy creates a Lazy whose key is the keccak-256 hash of namespace.
func NewLazy[V any](namespace string) Lazy[V] {
	return Lazy[V]{key: NamespaceKey(namespace)}
}

// LazyFromKey creates a Lazy at a precomputed key.
func LazyFromKey[V any](key Hash) Lazy[V] {
	return Lazy[V]{key: key}
}

// Key returns the storage key.
func (l Lazy[V]) Key() Hash {
	return l.key
}

// Get returns the stored value. It returns false when the key is absent or
// the value does not decode.
func (l Lazy[V]) Get(env *Env) (V, bool) {
	var v V
	if !Get(env, l.key, &v) {
		var zero V
		return zero, false
	}
	return v, true
}

// Set stores v.
func (l Lazy[V]) Set(env *Env, v V) error {
	return Set(env, l.key, v)
}

// Clear removes the value.
func (l Lazy[V]) Clear(env *Env) {
	Remove(env, l.key)
}

// Exists reports whether a value is stored.
func (l Lazy[V]) Exists(env *Env) bool {
	return Contains(env, l.key)
}

// Mapping maps keys to values in contract storage. The entry for k lives at
// keccak256(namespace ++ encode(k)). Values are never cached.
type Mapping[K, V any] struct {
	namespace Hash
}

// NewMapping creates a Mapping whose namespace key is the keccak-256 hash of
// namespace.
func NewMapping[K, V any](namespace string) Mapping[K, V] {
	return Mapping[K, V]{namespace: NamespaceKey(namespace)}
}

// Namespace returns the namespace key.
func (m Mapping[K, V]) Namespace() Hash {
	return m.namespace
}

// EntryKey returns the storage key of the entry for k.
func (m Mapping[K, V]) EntryKey(env *Env, k K) (Hash, error) {
	enc, err := env.codec.Encode(k)
	if err != nil {
		return Hash{}, err
	}
	data := make([]byte, 0, HashSize+len(enc))
	data = append(data, m.namespace[:]...)
	data = append(data, enc...)
	return env.host.Keccak256(data), nil
}

// Get returns the value stored for k. It returns false when there is no
// entry, the entry does not decode or k cannot be encoded.
func (m Mapping[K, V]) Get(env *Env, k K) (V, bool) {
	var zero V
	key, err := m.EntryKey(env, k)
	if err != nil {
		return zero, false
	}
	var v V
	if !Get(env, key, &v) {
		return zero, false
	}
	return v, true
}

// Insert stores v for k, replacing any previous entry.
func (m Mapping[K, V]) Insert(env *Env, k K, v V) error {
	key, err := m.EntryKey(env, k)
	if err != nil {
		return err
	}
	return Set(env, key, v)
}

// Remove deletes the entry for k.
func (m Mapping[K, V]) Remove(env *Env, k K) error {
	key, err := m.EntryKey(env, k)
	if err != nil {
		return err
	}
	Remove(env, key)
	return nil
}

// Contains reports whether an entry exists for k.
func (m Mapping[K, V]) Contains(env *Env, k K) bool {
	key, err := m.EntryKey(env, k)
	if err != nil {
		return false
	}
	return Contains(env, key)
}
