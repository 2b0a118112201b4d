package gen

import (
	"go/ast"
	"go/token"

	pvm "github.com/branched-services/go-pvm"
)

// Role is the part a declaration plays in a contract.
type Role uint8

const (
	// RoleOther is any declaration without a role directive.
	RoleOther Role = iota

	// RoleStorage marks the contract storage struct.
	RoleStorage

	// RoleInit marks the constructor.
	RoleInit

	// RoleCall marks a callable handler.
	RoleCall

	// RoleEvent marks an event struct.
	RoleEvent
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case RoleOther:
		return "other"
	case RoleStorage:
		return "storage"
	case RoleInit:
		return "init"
	case RoleCall:
		return "call"
	case RoleEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Module is a parsed contract package: its name and the ordered list of
// top-level declarations found in its source files. A Module only exists at
// generation time.
type Module struct {
	Name    string
	Dir     string
	Fset    *token.FileSet
	Items   []*Item
	Imports map[string]string // qualifier -> import path
}

// Item is one top-level declaration tagged with its role.
type Item struct {
	Role Role
	Name string
	Pos  token.Position
	Args map[string]string // directive arguments, e.g. name=flip

	Func *ast.FuncDecl // set for functions and methods
	Type *ast.TypeSpec // set for type declarations
	Decl ast.Decl      // the enclosing declaration
}

// StateKind is how a call receives the contract state.
type StateKind uint8

const (
	// StateNone means the call does not touch storage through the wrapper.
	StateNone StateKind = iota

	// StateShared means the call reads a copy of the state; nothing is persisted.
	StateShared

	// StateExclusive means the call gets a pointer to the state, which is
	// persisted after the call returns.
	StateExclusive
)

// String implements fmt.Stringer.
func (k StateKind) String() string {
	switch k {
	case StateNone:
		return "none"
	case StateShared:
		return "shared"
	case StateExclusive:
		return "exclusive"
	default:
		return "unknown"
	}
}

// Field is one field of a storage or event struct.
type Field struct {
	Name string
	Type string
}

// Param is one call parameter after the state parameter.
type Param struct {
	Name string // name used in the generated proxy
	Type string
	Expr ast.Expr
}

// StorageDecl is the contract storage struct.
type StorageDecl struct {
	Name   string
	Key    pvm.Hash
	Fields []Field
	Pos    token.Position
}

// InitDecl is the contract constructor.
type InitDecl struct {
	Name           string
	Env            bool // takes the invocation Env
	ReturnsPointer bool
	Pos            token.Position
}

// CallDecl is one callable handler.
type CallDecl struct {
	GoName     string // function or method name in the source
	WireName   string // name the selector is derived from
	Selector   pvm.Selector
	State      StateKind
	Method     bool // handler is a method on the storage type
	Env        bool // takes the invocation Env as its first parameter
	Params     []Param
	Result     string // empty when the handler returns nothing
	ResultExpr ast.Expr
	Pos        token.Position
}

// HasResult reports whether the call returns a value.
func (c *CallDecl) HasResult() bool {
	return c.Result != ""
}

// Shape names the wrapper shape, e.g. "exclusive/result".
func (c *CallDecl) Shape() string {
	if c.HasResult() {
		return c.State.String() + "/result"
	}
	return c.State.String() + "/none"
}

// EventDecl is an event struct.
type EventDecl struct {
	Name   string
	Topic  pvm.Hash
	Fields []Field
	Pos    token.Position
}

// Classified is a module split into role buckets. Calls and Events keep
// declaration order; Other keeps every unmarked declaration untouched.
type Classified struct {
	Package   string
	Codec     string // codec name the types were checked against
	ProxyName string
	Storage   *StorageDecl
	Init      *InitDecl
	Calls     []*CallDecl
	Events    []*EventDecl
	Other     []*Item
	Imports   map[string]string // imports needed by call signatures
}

// DispatchEntry maps one selector to its call.
type DispatchEntry struct {
	Selector pvm.Selector
	Call     *CallDecl
}
