package pvm

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/fxamacker/cbor/v2"
)

// Codec is the value encoding shared by storage, call arguments, call
// results and events. Implementations must be deterministic: equal values
// always encode to equal bytes.
type Codec interface {
	// Name identifies the codec (e.g. "scale", "rlp", "cbor").
	Name() string

	// Encode returns the encoding of v.
	Encode(v any) ([]byte, error)

	// Decode decodes exactly one value from data into v, which must be a
	// pointer. Trailing bytes are an error.
	Decode(data []byte, v any) error

	// NewDecoder returns a Decoder reading consecutive values from data.
	NewDecoder(data []byte) Decoder
}

// Decoder reads a sequence of encoded values, such as call arguments.
type Decoder interface {
	Decode(v any) error
}

// Codec names accepted by CodecByName.
const (
	CodecSCALE = "scale"
	CodecRLP   = "rlp"
	CodecCBOR  = "cbor"
)

// SCALE is the default codec: the SCALE encoding of parity-scale-codec,
// backed by go-substrate-rpc-client. Booleans are one byte (0x00 or 0x01),
// integers are fixed-width little endian, strings and slices carry a compact
// length prefix and structs are their exported fields in order.
// Platform-sized integers, floats, maps and interfaces are not supported.
var SCALE Codec = scaleCodec{}

// RLP is a codec backed by go-ethereum's rlp package.
// Only exported struct fields are encoded; signed integers and maps are not
// supported.
var RLP Codec = rlpCodec{}

// CBOR is a codec using canonical CBOR (RFC 8949 core deterministic encoding).
var CBOR Codec = newCBORCodec()

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case CodecSCALE, "":
		return SCALE, nil
	case CodecRLP:
		return RLP, nil
	case CodecCBOR:
		return CBOR, nil
	default:
		return nil, fmt.Errorf("pvm: unknown codec %q", name)
	}
}

type scaleCodec struct{}

func (scaleCodec) Name() string { return CodecSCALE }

func (scaleCodec) Encode(v any) ([]byte, error) {
	if err := scaleSupported(reflect.TypeOf(v)); err != nil {
		return nil, &EncodingError{Value: v, Err: err}
	}
	var buf bytes.Buffer
	if err := scale.NewEncoder(&buf).Encode(v); err != nil {
		return nil, &EncodingError{Value: v, Err: err}
	}
	return buf.Bytes(), nil
}

func (scaleCodec) Decode(data []byte, v any) error {
	r := bytes.NewReader(data)
	if err := scaleDecode(scale.NewDecoder(r), v); err != nil {
		return err
	}
	if r.Len() > 0 {
		return &EncodingError{Value: v, Err: fmt.Errorf("%d trailing bytes", r.Len())}
	}
	return nil
}

func (scaleCodec) NewDecoder(data []byte) Decoder {
	return &scaleDecoder{dec: scale.NewDecoder(bytes.NewReader(data))}
}

type scaleDecoder struct {
	dec *scale.Decoder
}

func (d *scaleDecoder) Decode(v any) error {
	return scaleDecode(d.dec, v)
}

func scaleDecode(dec *scale.Decoder, v any) error {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Pointer {
		return &EncodingError{Value: v, Err: errors.New("decode target must be a pointer")}
	}
	if err := scaleSupported(t.Elem()); err != nil {
		return &EncodingError{Value: v, Err: err}
	}
	if err := dec.Decode(v); err != nil {
		return &EncodingError{Value: v, Err: err}
	}
	return nil
}

var scaleEncodeable = reflect.TypeOf((*scale.Encodeable)(nil)).Elem()

// scaleSupported rejects types the scale package would skip silently or
// panic on: platform-sized integers, floats, maps, interfaces and structs
// with unexported fields.
func scaleSupported(t reflect.Type) error {
	return scaleWalk(t, make(map[reflect.Type]bool))
}

func scaleWalk(t reflect.Type, seen map[reflect.Type]bool) error {
	if t == nil {
		return errors.New("nil value")
	}
	if seen[t] || t.Implements(scaleEncodeable) {
		return nil
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return nil
	case reflect.Pointer, reflect.Array, reflect.Slice:
		return scaleWalk(t.Elem(), seen)
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Tag.Get("scale") == "-" {
				continue
			}
			if !f.IsExported() {
				return fmt.Errorf("unexported field %s of %s", f.Name, t)
			}
			if err := scaleWalk(f.Type, seen); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%s values are not supported", t.Kind())
}

type rlpCodec struct{}

func (rlpCodec) Name() string { return CodecRLP }

func (rlpCodec) Encode(v any) ([]byte, error) {
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, &EncodingError{Value: v, Err: err}
	}
	return data, nil
}

func (rlpCodec) Decode(data []byte, v any) error {
	if err := rlp.DecodeBytes(data, v); err != nil {
		return &EncodingError{Value: v, Err: err}
	}
	return nil
}

func (rlpCodec) NewDecoder(data []byte) Decoder {
	return &rlpDecoder{stream: rlp.NewStream(bytes.NewReader(data), uint64(len(data)))}
}

type rlpDecoder struct {
	stream *rlp.Stream
}

func (d *rlpDecoder) Decode(v any) error {
	if err := d.stream.Decode(v); err != nil {
		return &EncodingError{Value: v, Err: err}
	}
	return nil
}

type cborCodec struct {
	enc cbor.EncMode
}

func newCBORCodec() cborCodec {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("pvm: failed to create CBOR enc mode: %v", err))
	}
	return cborCodec{enc: em}
}

func (cborCodec) Name() string { return CodecCBOR }

func (c cborCodec) Encode(v any) ([]byte, error) {
	data, err := c.enc.Marshal(v)
	if err != nil {
		return nil, &EncodingError{Value: v, Err: err}
	}
	return data, nil
}

func (cborCodec) Decode(data []byte, v any) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return &EncodingError{Value: v, Err: err}
	}
	return nil
}

func (cborCodec) NewDecoder(data []byte) Decoder {
	return &cborDecoder{dec: cbor.NewDecoder(bytes.NewReader(data))}
}

type cborDecoder struct {
	dec *cbor.Decoder
}

func (d *cborDecoder) Decode(v any) error {
	if err := d.dec.Decode(v); err != nil {
		return &EncodingError{Value: v, Err: err}
	}
	return nil
}

// EncodeArgs encodes call arguments: nothing for no arguments, the value
// itself for one, and the ordered concatenation of encodings for several.
func EncodeArgs(c Codec, args ...any) ([]byte, error) {
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		return c.Encode(args[0])
	}
	var buf []byte
	for _, arg := range args {
		data, err := c.Encode(arg)
		if err != nil {
			return nil, err
		}
		buf = append(buf, data...)
	}
	return buf, nil
}
