package gen

import (
	"go/ast"
	"go/token"

	pvm "github.com/branched-services/go-pvm"
)

// typeChecker reports types the configured codec cannot round-trip. It only
// sees syntax: named types declared in the module are followed, types from
// other packages are trusted.
type typeChecker struct {
	codec string
	fset  *token.FileSet
	types map[string]*ast.TypeSpec
	seen  map[string]bool
}

func newTypeChecker(codec string, m *Module) *typeChecker {
	types := make(map[string]*ast.TypeSpec)
	for _, item := range m.Items {
		if item.Type != nil {
			types[item.Name] = item.Type
		}
	}
	return &typeChecker{
		codec: codec,
		fset:  m.Fset,
		types: types,
		seen:  make(map[string]bool),
	}
}

// scaleRejected lists predeclared types the SCALE codec cannot encode.
var scaleRejected = map[string]bool{
	"int": true, "uint": true, "uintptr": true,
	"float32": true, "float64": true,
	"complex64": true, "complex128": true,
	"any": true, "error": true,
}

// rlpRejected lists predeclared types go-ethereum's rlp package cannot encode.
var rlpRejected = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"float32": true, "float64": true,
	"complex64": true, "complex128": true,
	"uintptr": true, "any": true, "error": true,
}

var cborRejected = map[string]bool{
	"complex64": true, "complex128": true,
	"uintptr": true, "error": true,
}

// check returns a GenerationError when expr, used as what, cannot be encoded.
func (c *typeChecker) check(expr ast.Expr, what string) error {
	if reason := c.reason(expr); reason != "" {
		return newError(CodeUnencodableType, c.fset.Position(expr.Pos()),
			"%s has type %s, which the %s codec cannot encode: %s", what, exprString(expr), c.codec, reason)
	}
	return nil
}

func (c *typeChecker) reason(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return c.identReason(t.Name)
	case *ast.ParenExpr:
		return c.reason(t.X)
	case *ast.StarExpr:
		return c.reason(t.X)
	case *ast.ArrayType:
		return c.reason(t.Elt)
	case *ast.SelectorExpr:
		return ""
	case *ast.IndexExpr, *ast.IndexListExpr:
		return ""
	case *ast.StructType:
		return c.structReason(t)
	case *ast.MapType:
		if c.codec != pvm.CodecCBOR {
			return "maps are not supported"
		}
		if r := c.reason(t.Key); r != "" {
			return r
		}
		return c.reason(t.Value)
	case *ast.ChanType:
		return "channels are not supported"
	case *ast.FuncType:
		return "functions are not supported"
	case *ast.InterfaceType:
		if c.codec != pvm.CodecCBOR {
			return "interfaces are not supported"
		}
		return ""
	}
	return ""
}

func (c *typeChecker) identReason(name string) string {
	rejected := scaleRejected
	switch c.codec {
	case pvm.CodecRLP:
		rejected = rlpRejected
	case pvm.CodecCBOR:
		rejected = cborRejected
	}
	if rejected[name] {
		return name + " is not supported"
	}

	spec, ok := c.types[name]
	if !ok || c.seen[name] {
		return ""
	}
	c.seen[name] = true
	defer delete(c.seen, name)
	return c.reason(spec.Type)
}

func (c *typeChecker) structReason(st *ast.StructType) string {
	for _, f := range st.Fields.List {
		for _, name := range f.Names {
			if !name.IsExported() {
				return "unexported field " + name.Name + " is not encoded"
			}
		}
		if r := c.reason(f.Type); r != "" {
			return r
		}
	}
	return ""
}
