package pvm

// ContractRef is the address of a deployed contract, embedded by every
// generated proxy. The zero value refers to the zero address and encodes
// with the caller's codec.
type ContractRef struct {
	address Address
	codec   Codec
}

// NewContractRef creates a reference to the contract at address.
func NewContractRef(address Address) ContractRef {
	return ContractRef{address: address}
}

// Address returns the contract address.
func (r ContractRef) Address() Address {
	return r.address
}

// WithCodec returns a copy of r that encodes arguments and decodes results
// with c instead of the caller's codec.
func (r ContractRef) WithCodec(c Codec) ContractRef {
	r.codec = c
	return r
}

// Codec returns the codec of the referenced contract, or nil when calls use
// the caller's codec.
func (r ContractRef) Codec() Codec {
	return r.codec
}

// IsZero reports whether the reference points at the zero address.
func (r ContractRef) IsZero() bool {
	return r.address == (Address{})
}

// Invoke calls sel on the referenced contract and discards the output.
func (r ContractRef) Invoke(env *Env, sel Selector, args ...any) error {
	return invoke(env, r.codecFor(env), r.address, nil, sel, args)
}

// InvokeAndDecode calls sel on the referenced contract and decodes the
// output into out.
func (r ContractRef) InvokeAndDecode(env *Env, sel Selector, out any, args ...any) error {
	return invokeAndDecode(env, r.codecFor(env), r.address, nil, sel, out, args)
}

func (r ContractRef) codecFor(env *Env) Codec {
	if r.codec != nil {
		return r.codec
	}
	return env.codec
}
