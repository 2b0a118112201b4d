package gen

import (
	"go/ast"
	"go/types"
	"strings"
	"unicode"
	"unicode/utf8"
)

// exported returns name with its first letter upper-cased.
func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func exprString(expr ast.Expr) string {
	return types.ExprString(expr)
}

func selectorVar(c *CallDecl) string { return "Selector" + exported(c.GoName) }

func wrapperName(c *CallDecl) string { return "pvmCall" + exported(c.GoName) }

func proxyMethod(c *CallDecl) string { return exported(c.GoName) }

func storageKeyVar(s *StorageDecl) string { return "StorageKey" + s.Name }

func loadFunc(s *StorageDecl) string { return "Load" + s.Name }

func topicVar(e *EventDecl) string { return "Topic" + e.Name }

func proxyConstructor(proxy string) string { return "New" + proxy }

// codecVar names the runtime codec variable, e.g. SCALE for "scale".
func codecVar(name string) string { return strings.ToUpper(name) }

// reservedParams are identifiers the generated proxy methods use themselves.
var reservedParams = map[string]bool{
	"_": true, "r": true, "env": true, "out": true, "err": true, "pvm": true,
}

// refMethods are promoted from the embedded pvm.ContractRef.
var refMethods = []string{"Address", "IsZero", "Invoke", "InvokeAndDecode", "WithCodec", "Codec", "ContractRef"}
