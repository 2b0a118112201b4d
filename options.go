package pvm

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithCodec sets the codec used for storage, arguments and results.
// Default is SCALE.
func WithCodec(c Codec) EnvOption {
	return func(e *Env) {
		if c != nil {
			e.codec = c
		}
	}
}

// WithArena sets the arena used by the invocation.
func WithArena(a *Arena) EnvOption {
	return func(e *Env) {
		if a != nil {
			e.arena = a
		}
	}
}

// WithArenaSize allocates a fresh arena of the given capacity.
// Default is DefaultArenaSize.
func WithArenaSize(size int) EnvOption {
	return func(e *Env) {
		e.arena = NewArena(size)
	}
}
