package gen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/token"
	"sort"
	"strconv"
	"strings"

	pvm "github.com/branched-services/go-pvm"
)

// PVMImportPath is the import path of the runtime package used by generated
// code.
const PVMImportPath = "github.com/branched-services/go-pvm"

// Classify buckets the module's items by role and validates every
// declaration. It is the second pass over the module; on error nothing is
// returned.
func Classify(m *Module, opts ...Option) (*Classified, error) {
	o := buildOptions(opts)
	if _, err := pvm.CodecByName(o.codec); err != nil {
		return nil, fmt.Errorf("pvmgen: %w", err)
	}
	if m == nil || len(m.Items) == 0 {
		return nil, newError(CodeEmptyModule, token.Position{}, "contract module has no declarations")
	}

	c := &classifier{
		module:  m,
		opts:    o,
		types:   newTypeChecker(o.codec, m),
		out:     &Classified{Package: m.Name, Codec: o.codec, Imports: make(map[string]string)},
		pvmQual: pvmQualifiers(m.Imports),
	}
	if err := c.run(); err != nil {
		return nil, err
	}
	return c.out, nil
}

type classifier struct {
	module  *Module
	opts    *Options
	types   *typeChecker
	out     *Classified
	pvmQual map[string]bool

	calls  []*Item
	inits  []*Item
	events []*Item
}

func (c *classifier) run() error {
	for _, item := range c.module.Items {
		log.Debugf("%s: %s %s", item.Pos, item.Role, item.Name)

		switch item.Role {
		case RoleOther:
			c.out.Other = append(c.out.Other, item)

		case RoleStorage:
			if !isStruct(item) {
				return newError(CodeMisplaced, item.Pos, "//pvm:storage on %s, which is not a struct type", item.Name)
			}
			if c.out.Storage != nil {
				return newError(CodeDuplicateStorage, item.Pos,
					"%s is marked as storage but %s already is (declared at %s)", item.Name, c.out.Storage.Name, c.out.Storage.Pos)
			}
			storage, err := c.storageDecl(item)
			if err != nil {
				return err
			}
			c.out.Storage = storage

		case RoleInit:
			if item.Func == nil || item.Func.Recv != nil {
				return newError(CodeMisplaced, item.Pos, "//pvm:init on %s, which is not a plain function", item.Name)
			}
			if len(c.inits) > 0 {
				return newError(CodeDuplicateInit, item.Pos,
					"%s is marked as init but %s already is (declared at %s)", item.Name, c.inits[0].Name, c.inits[0].Pos)
			}
			c.inits = append(c.inits, item)

		case RoleCall:
			if item.Func == nil {
				return newError(CodeMisplaced, item.Pos, "//pvm:call on %s, which is not a function", item.Name)
			}
			c.calls = append(c.calls, item)

		case RoleEvent:
			if !isStruct(item) {
				return newError(CodeMisplaced, item.Pos, "//pvm:event on %s, which is not a struct type", item.Name)
			}
			c.events = append(c.events, item)
		}
	}

	// Init and calls refer to the storage type, which may be declared
	// anywhere in the package.
	for _, item := range c.inits {
		decl, err := c.initDecl(item)
		if err != nil {
			return err
		}
		c.out.Init = decl
	}
	for _, item := range c.calls {
		call, err := c.callDecl(item)
		if err != nil {
			return err
		}
		c.out.Calls = append(c.out.Calls, call)
	}
	for _, item := range c.events {
		event, err := c.eventDecl(item)
		if err != nil {
			return err
		}
		c.out.Events = append(c.out.Events, event)
	}

	if c.out.Storage != nil {
		c.out.ProxyName = c.out.Storage.Name + c.opts.proxySuffix
	} else {
		c.out.ProxyName = exported(c.module.Name) + c.opts.proxySuffix
	}

	if err := c.checkSelectors(); err != nil {
		return err
	}
	return c.checkCollisions()
}

func isStruct(item *Item) bool {
	if item.Type == nil || item.Type.Assign.IsValid() {
		return false
	}
	_, ok := item.Type.Type.(*ast.StructType)
	return ok
}

func (c *classifier) structFields(item *Item, kind string) ([]Field, error) {
	if tp := item.Type.TypeParams; tp != nil && len(tp.List) > 0 {
		return nil, newError(CodeInvalidSignature, item.Pos, "%s type %s cannot have type parameters", kind, item.Name)
	}

	st := item.Type.Type.(*ast.StructType)
	var fields []Field
	for _, f := range st.Fields.List {
		typ := exprString(f.Type)
		if len(f.Names) == 0 {
			fields = append(fields, Field{Name: embeddedName(f.Type), Type: typ})
		}
		for _, name := range f.Names {
			if !name.IsExported() {
				return nil, newError(CodeUnencodableType, c.module.Fset.Position(name.Pos()),
					"field %s of %s %s is unexported and would not be encoded", name.Name, kind, item.Name)
			}
			fields = append(fields, Field{Name: name.Name, Type: typ})
		}
		if err := c.types.check(f.Type, fmt.Sprintf("field of %s %s", kind, item.Name)); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.Ident:
		return t.Name
	}
	return exprString(expr)
}

func (c *classifier) storageDecl(item *Item) (*StorageDecl, error) {
	fields, err := c.structFields(item, "storage")
	if err != nil {
		return nil, err
	}
	return &StorageDecl{
		Name:   item.Name,
		Key:    pvm.StorageKey(item.Name),
		Fields: fields,
		Pos:    item.Pos,
	}, nil
}

func (c *classifier) eventDecl(item *Item) (*EventDecl, error) {
	fields, err := c.structFields(item, "event")
	if err != nil {
		return nil, err
	}
	return &EventDecl{
		Name:   item.Name,
		Topic:  pvm.TopicOf(item.Name),
		Fields: fields,
		Pos:    item.Pos,
	}, nil
}

func (c *classifier) initDecl(item *Item) (*InitDecl, error) {
	fn := item.Func
	if c.out.Storage == nil {
		return nil, newError(CodeMissingStorage, item.Pos, "init %s needs a //pvm:storage type to return", item.Name)
	}
	if tp := fn.Type.TypeParams; tp != nil && len(tp.List) > 0 {
		return nil, newError(CodeInvalidSignature, item.Pos, "init %s cannot have type parameters", item.Name)
	}

	decl := &InitDecl{Name: item.Name, Pos: item.Pos}
	params := flattenParams(fn.Type.Params)
	if len(params) > 0 && c.isEnv(params[0].Expr) {
		decl.Env = true
		params = params[1:]
	}
	if len(params) > 0 {
		return nil, newError(CodeInvalidSignature, item.Pos, "init %s must not take parameters", item.Name)
	}

	results := flattenParams(fn.Type.Results)
	if len(results) != 1 {
		return nil, newError(CodeInvalidSignature, item.Pos,
			"init %s must return exactly one %s or *%s", item.Name, c.out.Storage.Name, c.out.Storage.Name)
	}
	switch c.stateKind(results[0].Expr) {
	case StateShared:
	case StateExclusive:
		decl.ReturnsPointer = true
	default:
		return nil, newError(CodeInvalidSignature, item.Pos,
			"init %s returns %s, want %s or *%s", item.Name, exprString(results[0].Expr), c.out.Storage.Name, c.out.Storage.Name)
	}
	return decl, nil
}

func (c *classifier) callDecl(item *Item) (*CallDecl, error) {
	fn := item.Func
	if tp := fn.Type.TypeParams; tp != nil && len(tp.List) > 0 {
		return nil, newError(CodeInvalidSignature, item.Pos, "call %s cannot have type parameters", item.Name)
	}

	call := &CallDecl{
		GoName:   fn.Name.Name,
		WireName: fn.Name.Name,
		Pos:      item.Pos,
	}
	if name, ok := item.Args["name"]; ok {
		call.WireName = name
	}
	call.Selector = pvm.SelectorOf(call.WireName)

	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		if c.out.Storage == nil {
			return nil, newError(CodeMissingStorage, item.Pos, "method call %s needs a //pvm:storage receiver type", item.Name)
		}
		recv := fn.Recv.List[0].Type
		call.State = c.stateKind(recv)
		if call.State == StateNone {
			return nil, newError(CodeInvalidSignature, item.Pos,
				"method call %s must be declared on %s, not %s", item.Name, c.out.Storage.Name, exprString(recv))
		}
		call.Method = true
	}

	params := flattenParams(fn.Type.Params)
	if len(params) > 0 && c.isEnv(params[0].Expr) {
		call.Env = true
		params = params[1:]
	}
	if !call.Method && len(params) > 0 {
		if kind := c.stateKind(params[0].Expr); kind != StateNone {
			call.State = kind
			params = params[1:]
		}
	}

	used := make(map[string]bool)
	for _, p := range params {
		if p.Name != "" {
			used[p.Name] = true
		}
	}
	for i, p := range params {
		if _, ok := p.Expr.(*ast.Ellipsis); ok {
			return nil, newError(CodeInvalidSignature, item.Pos, "call %s cannot be variadic", item.Name)
		}
		if c.isEnv(p.Expr) {
			return nil, newError(CodeInvalidSignature, item.Pos, "call %s must take the Env as its first parameter", item.Name)
		}
		if c.stateKind(p.Expr) != StateNone {
			return nil, newError(CodeInvalidSignature, item.Pos,
				"call %s takes %s after other parameters; the state must come first", item.Name, exprString(p.Expr))
		}
		if err := c.types.check(p.Expr, fmt.Sprintf("parameter %d of call %s", i, item.Name)); err != nil {
			return nil, err
		}

		name := p.Name
		if name == "" || reservedParams[name] || c.module.Imports[name] != "" {
			name = "arg" + strconv.Itoa(i)
			for used[name] {
				name += "_"
			}
			used[name] = true
		}
		call.Params = append(call.Params, Param{Name: name, Type: exprString(p.Expr), Expr: p.Expr})
		c.addImports(p.Expr)
	}

	results := flattenParams(fn.Type.Results)
	switch len(results) {
	case 0:
	case 1:
		if err := c.types.check(results[0].Expr, "result of call "+item.Name); err != nil {
			return nil, err
		}
		call.Result = exprString(results[0].Expr)
		call.ResultExpr = results[0].Expr
		c.addImports(results[0].Expr)
	default:
		return nil, newError(CodeInvalidSignature, item.Pos, "call %s returns %d values, want at most one", item.Name, len(results))
	}
	return call, nil
}

type flatParam struct {
	Name string
	Expr ast.Expr
}

// flattenParams expands grouped parameters such as (a, b uint64).
func flattenParams(fl *ast.FieldList) []flatParam {
	if fl == nil {
		return nil
	}
	var out []flatParam
	for _, f := range fl.List {
		if len(f.Names) == 0 {
			out = append(out, flatParam{Expr: f.Type})
			continue
		}
		for _, n := range f.Names {
			out = append(out, flatParam{Name: n.Name, Expr: f.Type})
		}
	}
	return out
}

// stateKind classifies expr as the storage type (shared), a pointer to it
// (exclusive), or neither.
func (c *classifier) stateKind(expr ast.Expr) StateKind {
	if c.out.Storage == nil {
		return StateNone
	}
	switch t := expr.(type) {
	case *ast.Ident:
		if t.Name == c.out.Storage.Name {
			return StateShared
		}
	case *ast.StarExpr:
		if id, ok := t.X.(*ast.Ident); ok && id.Name == c.out.Storage.Name {
			return StateExclusive
		}
	}
	return StateNone
}

// isEnv reports whether expr is *pvm.Env under any qualifier the package
// gave the runtime import.
func (c *classifier) isEnv(expr ast.Expr) bool {
	star, ok := expr.(*ast.StarExpr)
	if !ok {
		return false
	}
	sel, ok := star.X.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != "Env" {
		return false
	}
	id, ok := sel.X.(*ast.Ident)
	return ok && c.pvmQual[id.Name]
}

func pvmQualifiers(imports map[string]string) map[string]bool {
	quals := make(map[string]bool)
	for q, p := range imports {
		if p == PVMImportPath {
			quals[q] = true
		}
	}
	return quals
}

// addImports records the packages a signature type refers to, so the
// generated file can import them.
func (c *classifier) addImports(expr ast.Expr) {
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		id, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}
		if p, ok := c.module.Imports[id.Name]; ok {
			c.out.Imports[id.Name] = p
		}
		return false
	})
}

func (c *classifier) checkSelectors() error {
	seen := make(map[pvm.Selector]*CallDecl)
	for _, call := range c.out.Calls {
		if prev, ok := seen[call.Selector]; ok {
			return newError(CodeDuplicateSelector, call.Pos,
				"call %s (wire name %q) has selector %s, already used by %s (wire name %q) at %s",
				call.GoName, call.WireName, call.Selector, prev.GoName, prev.WireName, prev.Pos)
		}
		seen[call.Selector] = call
	}
	return nil
}

// checkCollisions rejects modules whose declarations clash with the
// identifiers the generated file declares.
func (c *classifier) checkCollisions() error {
	declared := make(map[string]bool)
	methods := make(map[string]map[string]bool)
	for _, item := range c.module.Items {
		if item.Func != nil && item.Func.Recv != nil && len(item.Func.Recv.List) > 0 {
			base := embeddedName(item.Func.Recv.List[0].Type)
			if methods[base] == nil {
				methods[base] = make(map[string]bool)
			}
			methods[base][item.Name] = true
			continue
		}
		for _, name := range strings.Split(item.Name, ", ") {
			declared[name] = true
		}
	}

	if declared["pvm"] {
		return newError(CodeNameCollision, token.Position{}, "package declares pvm, which generated code uses to import the runtime")
	}
	if p, ok := c.out.Imports["pvm"]; ok && p != PVMImportPath {
		return newError(CodeNameCollision, token.Position{}, "signatures use pvm as the qualifier for %s", p)
	}
	delete(c.out.Imports, "pvm")

	generated := make(map[string]string)
	claim := func(name, owner string) error {
		if prev, ok := generated[name]; ok {
			return newError(CodeNameCollision, token.Position{}, "%s and %s both generate %s", prev, owner, name)
		}
		if declared[name] {
			return newError(CodeNameCollision, token.Position{}, "%s generates %s, which the package already declares", owner, name)
		}
		generated[name] = owner
		return nil
	}

	for _, name := range []string{"Call", "Deploy", "EntryPoints", c.out.ProxyName, proxyConstructor(c.out.ProxyName)} {
		if err := claim(name, "the contract"); err != nil {
			return err
		}
	}
	if s := c.out.Storage; s != nil {
		for _, name := range []string{storageKeyVar(s), loadFunc(s)} {
			if err := claim(name, "storage "+s.Name); err != nil {
				return err
			}
		}
		if methods[s.Name]["Save"] {
			return newError(CodeNameCollision, s.Pos, "storage %s already has a Save method", s.Name)
		}
	}

	proxyMethods := make(map[string]string)
	for _, name := range refMethods {
		proxyMethods[name] = "pvm.ContractRef"
	}
	if c.out.Init != nil && c.out.Init.Name == "env" {
		return newError(CodeNameCollision, c.out.Init.Pos, "init cannot be named env")
	}
	for _, call := range c.out.Calls {
		owner := "call " + call.GoName
		if call.GoName == "env" {
			return newError(CodeNameCollision, call.Pos, "call cannot be named env")
		}
		for _, name := range []string{selectorVar(call), wrapperName(call)} {
			if err := claim(name, owner); err != nil {
				return err
			}
		}
		if prev, ok := proxyMethods[proxyMethod(call)]; ok {
			return newError(CodeNameCollision, call.Pos, "%s and %s both define proxy method %s", prev, owner, proxyMethod(call))
		}
		proxyMethods[proxyMethod(call)] = owner
	}
	for _, event := range c.out.Events {
		if err := claim(topicVar(event), "event "+event.Name); err != nil {
			return err
		}
		if methods[event.Name]["Topics"] {
			return newError(CodeNameCollision, event.Pos, "event %s already has a Topics method", event.Name)
		}
	}
	renameShadowingParams(c.out.Calls, declared, generated)
	return nil
}

// renameShadowingParams renames proxy parameters that would hide a
// package-level identifier inside the proxy body, such as the selector
// variable or the result type.
func renameShadowingParams(calls []*CallDecl, declared map[string]bool, generated map[string]string) {
	for _, call := range calls {
		used := make(map[string]bool, len(call.Params))
		for _, p := range call.Params {
			used[p.Name] = true
		}
		for i := range call.Params {
			name := call.Params[i].Name
			if _, ok := generated[name]; !ok && !declared[name] {
				continue
			}
			renamed := "arg" + strconv.Itoa(i)
			for used[renamed] || declared[renamed] || generated[renamed] != "" {
				renamed += "_"
			}
			used[renamed] = true
			log.Debugf("call %s: proxy parameter %s renamed to %s", call.GoName, name, renamed)
			call.Params[i].Name = renamed
		}
	}
}

// DispatchTable returns the calls ordered by selector.
func (cl *Classified) DispatchTable() []DispatchEntry {
	table := make([]DispatchEntry, len(cl.Calls))
	for i, call := range cl.Calls {
		table[i] = DispatchEntry{Selector: call.Selector, Call: call}
	}
	sort.Slice(table, func(i, j int) bool {
		return bytes.Compare(table[i].Selector[:], table[j].Selector[:]) < 0
	})
	return table
}
