package gen

import (
	pvm "github.com/branched-services/go-pvm"
)

// DefaultOutputFile is the name of the generated file written next to the
// contract sources.
const DefaultOutputFile = "zz_pvm.go"

// DefaultProxySuffix is appended to the storage type name to form the proxy
// type name.
const DefaultProxySuffix = "Ref"

// Options holds generator configuration.
type Options struct {
	codec       string
	outputFile  string
	proxySuffix string
	buildTags   string
	header      string
}

// Option is a functional option for configuring the generator.
type Option func(*Options)

// defaultOptions returns the default generator options.
func defaultOptions() *Options {
	return &Options{
		codec:       pvm.CodecSCALE,
		outputFile:  DefaultOutputFile,
		proxySuffix: DefaultProxySuffix,
	}
}

func buildOptions(opts []Option) *Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCodec selects the codec the generated types are checked against. The
// generated EntryPoints and proxy carry the same codec, so hosts and callers
// encode with it. Default is "scale".
func WithCodec(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.codec = name
		}
	}
}

// WithOutputFile sets the generated file name. Default is DefaultOutputFile.
func WithOutputFile(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.outputFile = name
		}
	}
}

// WithProxySuffix sets the suffix of the proxy type name.
// Default is DefaultProxySuffix.
func WithProxySuffix(suffix string) Option {
	return func(o *Options) {
		if suffix != "" {
			o.proxySuffix = suffix
		}
	}
}

// WithBuildTags adds a //go:build constraint to the generated file.
func WithBuildTags(expr string) Option {
	return func(o *Options) {
		o.buildTags = expr
	}
}

// WithHeader adds a comment block after the generated-code marker.
func WithHeader(header string) Option {
	return func(o *Options) {
		o.header = header
	}
}
