package pvm

// Event is implemented by generated event types.
type Event interface {
	// Topics returns the indexed topics of the event; generated events
	// return exactly one.
	Topics() []Hash
}

// Emit encodes ev and deposits it with its topics through the host.
func Emit(env *Env, ev Event) error {
	data, err := env.codec.Encode(ev)
	if err != nil {
		return err
	}
	env.host.DepositEvent(ev.Topics(), data)
	return nil
}
