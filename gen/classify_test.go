package gen

import (
	"errors"
	"testing"

	pvm "github.com/branched-services/go-pvm"
)

func classifySource(t *testing.T, src string, opts ...Option) (*Classified, error) {
	t.Helper()
	m, err := ParseSource("contract.go", []byte(src))
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	return Classify(m, opts...)
}

func TestClassifyFlipper(t *testing.T) {
	cl, err := classifySource(t, flipperSource)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	t.Run("storage", func(t *testing.T) {
		if cl.Storage == nil || cl.Storage.Name != "Flipper" {
			t.Fatalf("Expected storage Flipper, got %+v", cl.Storage)
		}
		if cl.Storage.Key != pvm.StorageKey("Flipper") {
			t.Error("Expected storage key derived from the type name")
		}
		if len(cl.Storage.Fields) != 1 || cl.Storage.Fields[0] != (Field{Name: "Value", Type: "bool"}) {
			t.Errorf("Expected field Value bool, got %+v", cl.Storage.Fields)
		}
	})

	t.Run("init", func(t *testing.T) {
		if cl.Init == nil || cl.Init.Name != "newFlipper" || cl.Init.ReturnsPointer || cl.Init.Env {
			t.Errorf("Expected init newFlipper returning a value, got %+v", cl.Init)
		}
	})

	t.Run("calls", func(t *testing.T) {
		if len(cl.Calls) != 2 {
			t.Fatalf("Expected 2 calls, got %d", len(cl.Calls))
		}
		flip, get := cl.Calls[0], cl.Calls[1]

		if flip.GoName != "flip" || flip.State != StateExclusive || !flip.Env || flip.HasResult() {
			t.Errorf("Unexpected flip declaration %+v", flip)
		}
		if flip.Shape() != "exclusive/none" {
			t.Errorf("Expected shape exclusive/none, got %s", flip.Shape())
		}
		if get.GoName != "get" || get.State != StateShared || get.Env || get.Result != "bool" {
			t.Errorf("Unexpected get declaration %+v", get)
		}
		if get.Shape() != "shared/result" {
			t.Errorf("Expected shape shared/result, got %s", get.Shape())
		}
		if flip.Selector != pvm.SelectorOf("flip") || get.Selector != pvm.SelectorOf("get") {
			t.Error("Expected selectors derived from the call names")
		}
	})

	t.Run("events and other items", func(t *testing.T) {
		if len(cl.Events) != 1 || cl.Events[0].Topic != pvm.TopicOf("Flipped") {
			t.Errorf("Expected event Flipped, got %+v", cl.Events)
		}
		if len(cl.Other) != 1 || cl.Other[0].Name != "helper" {
			t.Errorf("Expected helper as the only other item, got %d items", len(cl.Other))
		}
	})

	t.Run("proxy name", func(t *testing.T) {
		if cl.ProxyName != "FlipperRef" {
			t.Errorf("Expected FlipperRef, got %s", cl.ProxyName)
		}
	})

	t.Run("dispatch table is ordered by selector", func(t *testing.T) {
		table := cl.DispatchTable()
		if len(table) != 2 {
			t.Fatalf("Expected 2 entries, got %d", len(table))
		}
		if table[0].Call.GoName != "get" || table[1].Call.GoName != "flip" {
			t.Errorf("Expected get before flip, got %s, %s", table[0].Call.GoName, table[1].Call.GoName)
		}
	})
}

func TestClassifyCallShapes(t *testing.T) {
	src := `package counter

import (
	"math/big"

	pvm "github.com/branched-services/go-pvm"
	"github.com/holiman/uint256"
)

//pvm:storage
type Counter struct {
	N uint64
}

//pvm:init
func create(env *pvm.Env) *Counter { return &Counter{} }

//pvm:call
func ping() {}

//pvm:call
func version() string { return "1" }

//pvm:call
func peek(c Counter) {}

//pvm:call
func add(c *Counter, a, b uint64) uint64 { c.N += a + b; return c.N }

//pvm:call name=bump
func (c *Counter) Increment(env *pvm.Env, _ uint64) {}

//pvm:call
func (c Counter) Value() uint64 { return c.N }

//pvm:call
func scale(x *big.Int, y uint256.Int, r uint64) {}
`
	cl, err := classifySource(t, src)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	byName := map[string]*CallDecl{}
	for _, c := range cl.Calls {
		byName[c.GoName] = c
	}

	tests := []struct {
		name   string
		shape  string
		params int
		method bool
		env    bool
	}{
		{"ping", "none/none", 0, false, false},
		{"version", "none/result", 0, false, false},
		{"peek", "shared/none", 0, false, false},
		{"add", "exclusive/result", 2, false, false},
		{"Increment", "exclusive/none", 1, true, true},
		{"Value", "shared/result", 0, true, false},
		{"scale", "none/none", 3, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := byName[tt.name]
			if c == nil {
				t.Fatalf("Expected call %s", tt.name)
			}
			if c.Shape() != tt.shape {
				t.Errorf("Expected shape %s, got %s", tt.shape, c.Shape())
			}
			if len(c.Params) != tt.params {
				t.Errorf("Expected %d params, got %d", tt.params, len(c.Params))
			}
			if c.Method != tt.method || c.Env != tt.env {
				t.Errorf("Expected method=%v env=%v, got method=%v env=%v", tt.method, tt.env, c.Method, c.Env)
			}
		})
	}

	t.Run("init returning a pointer with env", func(t *testing.T) {
		if !cl.Init.ReturnsPointer || !cl.Init.Env {
			t.Errorf("Expected pointer init taking env, got %+v", cl.Init)
		}
	})

	t.Run("wire name override", func(t *testing.T) {
		c := byName["Increment"]
		if c.WireName != "bump" || c.Selector != pvm.SelectorOf("bump") {
			t.Errorf("Expected wire name bump, got %s", c.WireName)
		}
	})

	t.Run("grouped and blank parameter names", func(t *testing.T) {
		add := byName["add"]
		if add.Params[0].Name != "a" || add.Params[1].Name != "b" || add.Params[1].Type != "uint64" {
			t.Errorf("Unexpected params %+v", add.Params)
		}
		if got := byName["Increment"].Params[0].Name; got != "arg0" {
			t.Errorf("Expected blank parameter renamed arg0, got %s", got)
		}
		if got := byName["scale"].Params[2].Name; got != "arg2" {
			t.Errorf("Expected reserved name r renamed arg2, got %s", got)
		}
	})

	t.Run("signature imports", func(t *testing.T) {
		if cl.Imports["big"] != "math/big" || cl.Imports["uint256"] != "github.com/holiman/uint256" {
			t.Errorf("Expected big and uint256 imports, got %v", cl.Imports)
		}
		if _, ok := cl.Imports["pvm"]; ok {
			t.Error("The runtime import is always present and must not be listed")
		}
	})
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{
			name: "only a package clause",
			src:  "package p\n",
			wantErr: ErrEmptyModule,
		},
		{
			name: "second storage",
			src: `package p
//pvm:storage
type A struct{}
//pvm:storage
type B struct{}
`,
			wantErr: ErrDuplicateStorage,
		},
		{
			name: "second init",
			src: `package p
//pvm:storage
type S struct{}
//pvm:init
func a() S { return S{} }
//pvm:init
func b() S { return S{} }
`,
			wantErr: ErrDuplicateInit,
		},
		{
			name: "duplicate selector through wire name",
			src: `package p
//pvm:call
func transfer() {}
//pvm:call name=transfer
func send() {}
`,
			wantErr: ErrDuplicateSelector,
		},
		{
			name: "storage on a function",
			src: `package p
//pvm:storage
func f() {}
`,
			wantErr: ErrMisplacedDirective,
		},
		{
			name: "call on a variable",
			src: `package p
//pvm:call
var x = 1
`,
			wantErr: ErrMisplacedDirective,
		},
		{
			name: "event on a non-struct type",
			src: `package p
//pvm:event
type E uint64
`,
			wantErr: ErrMisplacedDirective,
		},
		{
			name: "init as a method",
			src: `package p
//pvm:storage
type S struct{}
//pvm:init
func (S) New() S { return S{} }
`,
			wantErr: ErrMisplacedDirective,
		},
		{
			name: "init without storage",
			src: `package p
//pvm:init
func create() uint64 { return 0 }
`,
			wantErr: ErrMissingStorage,
		},
		{
			name: "init with parameters",
			src: `package p
//pvm:storage
type S struct{}
//pvm:init
func create(n uint64) S { return S{} }
`,
			wantErr: ErrInvalidSignature,
		},
		{
			name: "init returning something else",
			src: `package p
//pvm:storage
type S struct{}
//pvm:init
func create() uint64 { return 0 }
`,
			wantErr: ErrInvalidSignature,
		},
		{
			name: "generic call",
			src: `package p
//pvm:call
func f[T any](v T) {}
`,
			wantErr: ErrInvalidSignature,
		},
		{
			name: "two results",
			src: `package p
//pvm:call
func f() (uint64, bool) { return 0, false }
`,
			wantErr: ErrInvalidSignature,
		},
		{
			name: "variadic call",
			src: `package p
//pvm:call
func f(xs ...uint64) {}
`,
			wantErr: ErrInvalidSignature,
		},
		{
			name: "state after other parameters",
			src: `package p
//pvm:storage
type S struct{}
//pvm:call
func f(n uint64, s *S) {}
`,
			wantErr: ErrInvalidSignature,
		},
		{
			name: "method on another type",
			src: `package p
//pvm:storage
type S struct{}
type T struct{}
//pvm:call
func (T) F() {}
`,
			wantErr: ErrInvalidSignature,
		},
		{
			name: "method without storage",
			src: `package p
type T struct{}
//pvm:call
func (T) F() {}
`,
			wantErr: ErrMissingStorage,
		},
		{
			name: "unexported storage field",
			src: `package p
//pvm:storage
type S struct{ n uint64 }
`,
			wantErr: ErrUnencodableType,
		},
		{
			name: "platform int storage field",
			src: `package p
//pvm:storage
type S struct{ N int }
`,
			wantErr: ErrUnencodableType,
		},
		{
			name: "map parameter",
			src: `package p
//pvm:call
func f(m map[string]uint64) {}
`,
			wantErr: ErrUnencodableType,
		},
		{
			name: "error result",
			src: `package p
//pvm:call
func f() error { return nil }
`,
			wantErr: ErrUnencodableType,
		},
		{
			name: "call named like a generated function",
			src: `package p
//pvm:call
func Deploy() {}
`,
			wantErr: ErrNameCollision,
		},
		{
			name: "calls differing only in case",
			src: `package p
//pvm:call
func flip() {}
//pvm:call
func Flip() {}
`,
			wantErr: ErrNameCollision,
		},
		{
			name: "proxy method shadowing ContractRef",
			src: `package p
//pvm:call
func address() {}
`,
			wantErr: ErrNameCollision,
		},
		{
			name: "storage with a Save method",
			src: `package p
//pvm:storage
type S struct{}
func (s *S) Save() {}
`,
			wantErr: ErrNameCollision,
		},
		{
			name: "declared load function",
			src: `package p
//pvm:storage
type S struct{}
func LoadS() {}
`,
			wantErr: ErrNameCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl, err := classifySource(t, tt.src)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}
			if cl != nil {
				t.Error("Expected no partial output")
			}
			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Errorf("Expected *GenerationError, got %T", err)
			}
		})
	}
}

func TestClassifyCodecs(t *testing.T) {
	tests := []struct {
		field string
		want  map[string]bool // codec -> accepted
	}{
		{"uint64", map[string]bool{pvm.CodecSCALE: true, pvm.CodecRLP: true, pvm.CodecCBOR: true}},
		{"int64", map[string]bool{pvm.CodecSCALE: true, pvm.CodecRLP: false, pvm.CodecCBOR: true}},
		{"int", map[string]bool{pvm.CodecSCALE: false, pvm.CodecRLP: false, pvm.CodecCBOR: true}},
		{"uint", map[string]bool{pvm.CodecSCALE: false, pvm.CodecRLP: true, pvm.CodecCBOR: true}},
		{"float64", map[string]bool{pvm.CodecSCALE: false, pvm.CodecRLP: false, pvm.CodecCBOR: true}},
		{"map[string]uint64", map[string]bool{pvm.CodecSCALE: false, pvm.CodecRLP: false, pvm.CodecCBOR: true}},
		{"any", map[string]bool{pvm.CodecSCALE: false, pvm.CodecRLP: false, pvm.CodecCBOR: true}},
	}

	for _, tt := range tests {
		src := "package p\n//pvm:storage\ntype S struct{ F " + tt.field + " }\n"
		for codec, accepted := range tt.want {
			t.Run(tt.field+"/"+codec, func(t *testing.T) {
				cl, err := classifySource(t, src, WithCodec(codec))
				if accepted {
					if err != nil {
						t.Fatalf("Expected %s to accept %s, got %v", codec, tt.field, err)
					}
					if cl.Codec != codec {
						t.Errorf("Expected codec %s, got %s", codec, cl.Codec)
					}
					return
				}
				if !errors.Is(err, ErrUnencodableType) {
					t.Errorf("Expected %s to reject %s, got %v", codec, tt.field, err)
				}
			})
		}
	}

	t.Run("scale by default", func(t *testing.T) {
		cl, err := classifySource(t, flipperSource)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cl.Codec != pvm.CodecSCALE {
			t.Errorf("Expected codec %s, got %s", pvm.CodecSCALE, cl.Codec)
		}
	})
}

func TestClassifyRenamesShadowingParams(t *testing.T) {
	src := `package p
type Point struct{ X uint64 }
//pvm:call
func move(SelectorMove uint64, Point Point, arg1 uint64) Point { return Point }
//pvm:call
func reset(EntryPoints uint64) {}
`
	cl, err := classifySource(t, src)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tests := []struct {
		call int
		want []string
	}{
		{0, []string{"arg0", "arg1_", "arg1"}},
		{1, []string{"arg0"}},
	}
	for _, tt := range tests {
		call := cl.Calls[tt.call]
		if len(call.Params) != len(tt.want) {
			t.Fatalf("Expected %d parameters for %s, got %d", len(tt.want), call.GoName, len(call.Params))
		}
		for i, want := range tt.want {
			if call.Params[i].Name != want {
				t.Errorf("Expected %s parameter %d to be %s, got %s", call.GoName, i, want, call.Params[i].Name)
			}
		}
	}
}

func TestClassifyUnknownCodec(t *testing.T) {
	if _, err := classifySource(t, flipperSource, WithCodec("json")); err == nil {
		t.Error("Expected error for an unknown codec")
	}
}

func TestClassifyNestedTypes(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{
			name: "nested module struct",
			src: `package p
type Point struct{ X, Y uint64 }
//pvm:storage
type S struct{ P Point; Ps []Point }
`,
		},
		{
			name: "nested signed field",
			src: `package p
type Point struct{ X int }
//pvm:storage
type S struct{ P *Point }
`,
			wantErr: true,
		},
		{
			name: "recursive type",
			src: `package p
type Node struct{ Next *Node; V uint64 }
//pvm:event
type E struct{ Head Node }
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := classifySource(t, tt.src)
			if tt.wantErr && !errors.Is(err, ErrUnencodableType) {
				t.Errorf("Expected ErrUnencodableType, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
