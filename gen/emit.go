package gen

import (
	"fmt"
	"go/ast"
	"path"
	"strings"

	"github.com/dave/jennifer/jen"
)

// emitter builds the generated file for one classified module.
type emitter struct {
	cl   *Classified
	opts *Options
	f    *jen.File
}

func newEmitter(cl *Classified, o *Options) *emitter {
	return &emitter{cl: cl, opts: o, f: jen.NewFile(cl.Package)}
}

func (e *emitter) file() *jen.File {
	e.header()
	e.imports()
	e.selectors()
	if e.cl.Storage != nil {
		e.storage()
	}
	for _, call := range e.cl.Calls {
		e.wrapper(call)
	}
	e.deploy()
	e.dispatch()
	e.entryPoints()
	e.proxy()
	for _, event := range e.cl.Events {
		e.event(event)
	}
	return e.f
}

func (e *emitter) header() {
	e.f.HeaderComment("Code generated by pvmgen. DO NOT EDIT.")
	if e.opts.header != "" {
		for _, line := range strings.Split(strings.TrimRight(e.opts.header, "\n"), "\n") {
			if line == "" {
				line = "//"
			}
			e.f.HeaderComment(line)
		}
	}
	if e.opts.buildTags != "" {
		e.f.HeaderComment("//go:build " + e.opts.buildTags)
	}
}

// imports keeps the qualifiers the contract package uses, so generated
// signatures read like the author's.
func (e *emitter) imports() {
	e.f.ImportAlias(PVMImportPath, "pvm")
	for _, q := range sortedKeys(e.cl.Imports) {
		p := e.cl.Imports[q]
		if path.Base(p) == q {
			e.f.ImportName(p, q)
		} else {
			e.f.ImportAlias(p, q)
		}
	}
}

func (e *emitter) selectors() {
	if len(e.cl.Calls) == 0 {
		return
	}
	var defs []jen.Code
	for i, call := range e.cl.Calls {
		if i > 0 {
			defs = append(defs, jen.Line())
		}
		defs = append(defs,
			jen.Commentf("%s is the selector of %s: SelectorOf(%q).", selectorVar(call), call.GoName, call.WireName),
			jen.Id(selectorVar(call)).Op("=").Qual(PVMImportPath, "Selector").Values(byteLits(call.Selector[:])...),
		)
	}
	e.f.Line()
	e.f.Comment("Call selectors.")
	e.f.Var().Defs(defs...)
}

func (e *emitter) storage() {
	s := e.cl.Storage
	key, load := storageKeyVar(s), loadFunc(s)

	e.f.Line()
	e.f.Commentf("%s is the storage key of %s: StorageKey(%q).", key, s.Name, s.Name)
	e.f.Var().Id(key).Op("=").Qual(PVMImportPath, "Hash").Values(hashLits(s.Key[:])...)

	e.f.Line()
	e.f.Commentf("%s reads the contract state. It returns the zero value when the", load)
	e.f.Comment("state is missing or cannot be decoded.")
	e.f.Func().Id(load).Params(envParam()).Id(s.Name).Block(
		jen.Var().Id("s").Id(s.Name),
		jen.If(jen.Op("!").Qual(PVMImportPath, "Get").Call(jen.Id("env"), jen.Id(key), jen.Op("&").Id("s"))).Block(
			jen.Return(jen.Id(s.Name).Values()),
		),
		jen.Return(jen.Id("s")),
	)

	e.f.Line()
	e.f.Comment("Save writes the contract state.")
	e.f.Func().Params(jen.Id("s").Op("*").Id(s.Name)).Id("Save").Params(envParam()).Error().Block(
		jen.Return(jen.Qual(PVMImportPath, "Set").Call(jen.Id("env"), jen.Id(key), jen.Id("s"))),
	)
}

// wrapper emits the load-invoke-persist-encode shim of one call. A handler
// given the Env may return or revert itself, which ends the invocation:
// nothing is persisted or returned after it.
func (e *emitter) wrapper(call *CallDecl) {
	var body []jen.Code
	if len(call.Params) > 0 {
		body = append(body, jen.Id("pvmArgs").Op(":=").Id("env").Dot("Args").Call())
		for i, p := range call.Params {
			v := argVar(i)
			body = append(body,
				jen.Var().Id(v).Add(e.typeCode(p.Expr)),
				jen.If(
					jen.Err().Op(":=").Id("pvmArgs").Dot("Decode").Call(jen.Op("&").Id(v)),
					jen.Err().Op("!=").Nil(),
				).Block(revert("MsgInvalidArguments"), jen.Return()),
			)
		}
	}
	if call.State != StateNone {
		body = append(body, jen.Id("pvmState").Op(":=").Id(loadFunc(e.cl.Storage)).Call(jen.Id("env")))
	}

	invoke := e.invocation(call)
	if call.HasResult() {
		invoke = jen.Id("pvmResult").Op(":=").Add(invoke)
	}
	body = append(body, invoke)
	if call.Env {
		body = append(body, stopIfTerminated())
	}

	if call.State == StateExclusive {
		body = append(body, saveState())
	}
	if call.HasResult() {
		body = append(body, jen.Id("env").Dot("ReturnEncoded").Call(jen.Id("pvmResult")))
	} else {
		body = append(body, jen.Id("env").Dot("Return").Call(jen.Nil()))
	}

	e.f.Line()
	e.f.Commentf("%s runs %s for the current input (%s).", wrapperName(call), call.GoName, call.Shape())
	e.f.Func().Id(wrapperName(call)).Params(envParam()).Block(body...)
}

func (e *emitter) invocation(call *CallDecl) *jen.Statement {
	var args []jen.Code
	if call.Env {
		args = append(args, jen.Id("env"))
	}
	if !call.Method {
		switch call.State {
		case StateShared:
			args = append(args, jen.Id("pvmState"))
		case StateExclusive:
			args = append(args, jen.Op("&").Id("pvmState"))
		}
	}
	for i := range call.Params {
		args = append(args, jen.Id(argVar(i)))
	}
	if call.Method {
		return jen.Id("pvmState").Dot(call.GoName).Call(args...)
	}
	return jen.Id(call.GoName).Call(args...)
}

func (e *emitter) deploy() {
	body := []jen.Code{jen.Id("env").Dot("Begin").Call()}
	if decl := e.cl.Init; decl != nil {
		var args []jen.Code
		if decl.Env {
			args = append(args, jen.Id("env"))
		}
		body = append(body, jen.Id("pvmState").Op(":=").Id(decl.Name).Call(args...))
		if decl.Env {
			body = append(body, stopIfTerminated())
		}
		body = append(body, saveState())
	}
	body = append(body, jen.Id("env").Dot("Return").Call(jen.Nil()))

	e.f.Line()
	e.f.Comment("Deploy is the constructor entry point.")
	e.f.Func().Id("Deploy").Params(envParam()).Block(body...)
}

func (e *emitter) dispatch() {
	body := []jen.Code{jen.Id("env").Dot("Begin").Call()}

	table := e.cl.DispatchTable()
	if len(table) == 0 {
		body = append(body, revert("MsgNoMethods"))
	} else {
		cases := make([]jen.Code, 0, len(table)+1)
		for _, entry := range table {
			cases = append(cases, jen.Case(jen.Id(selectorVar(entry.Call))).Block(
				jen.Id(wrapperName(entry.Call)).Call(jen.Id("env")),
			))
		}
		cases = append(cases, jen.Default().Block(revert("MsgUnknownSelector")))

		body = append(body,
			jen.List(jen.Id("sel"), jen.Id("ok")).Op(":=").Id("env").Dot("Selector").Call(),
			jen.If(jen.Op("!").Id("ok")).Block(revert("MsgNoSelector"), jen.Return()),
			jen.Id("env").Dot("Dispatch").Call(),
			jen.Switch(jen.Id("sel")).Block(cases...),
		)
	}

	e.f.Line()
	e.f.Comment("Call is the call entry point. It dispatches the input to the call whose")
	e.f.Comment("selector it starts with.")
	e.f.Func().Id("Call").Params(envParam()).Block(body...)
}

func (e *emitter) entryPoints() {
	e.f.Line()
	e.f.Comment("EntryPoints returns the contract entry points for a host.")
	e.f.Func().Id("EntryPoints").Params().Qual(PVMImportPath, "EntryPoints").Block(
		jen.Return(jen.Qual(PVMImportPath, "EntryPoints").Values(
			jen.Id("Deploy").Op(":").Id("Deploy"),
			jen.Id("Call").Op(":").Id("Call"),
			jen.Id("Codec").Op(":").Add(e.codec()),
		)),
	)
}

func (e *emitter) proxy() {
	name := e.cl.ProxyName
	ctor := proxyConstructor(name)
	contract := e.cl.Package
	if e.cl.Storage != nil {
		contract = e.cl.Storage.Name
	}

	e.f.Line()
	e.f.Commentf("%s calls a deployed %s contract.", name, contract)
	e.f.Type().Id(name).Struct(jen.Qual(PVMImportPath, "ContractRef"))

	e.f.Line()
	e.f.Commentf("%s returns a proxy for the %s contract at addr.", ctor, contract)
	e.f.Func().Id(ctor).Params(jen.Id("addr").Qual(PVMImportPath, "Address")).Id(name).Block(
		jen.Return(jen.Id(name).Values(
			jen.Id("ContractRef").Op(":").Qual(PVMImportPath, "NewContractRef").Call(jen.Id("addr")).Dot("WithCodec").Call(e.codec()),
		)),
	)

	for _, call := range e.cl.Calls {
		e.proxyCall(name, call)
	}
}

func (e *emitter) proxyCall(proxy string, call *CallDecl) {
	params := []jen.Code{envParam()}
	var args []jen.Code
	for _, p := range call.Params {
		params = append(params, jen.Id(p.Name).Add(e.typeCode(p.Expr)))
		args = append(args, jen.Id(p.Name))
	}
	ref := jen.Id("r").Dot("ContractRef")

	e.f.Line()
	e.f.Commentf("%s calls %s on the contract.", proxyMethod(call), call.WireName)
	fn := e.f.Func().Params(jen.Id("r").Id(proxy)).Id(proxyMethod(call)).Params(params...)

	if !call.HasResult() {
		invoke := append([]jen.Code{jen.Id("env"), jen.Id(selectorVar(call))}, args...)
		fn.Error().Block(jen.Return(ref.Dot("Invoke").Call(invoke...)))
		return
	}

	invoke := append([]jen.Code{jen.Id("env"), jen.Id(selectorVar(call)), jen.Op("&").Id("out")}, args...)
	fn.Params(e.typeCode(call.ResultExpr), jen.Error()).Block(
		jen.Var().Id("out").Add(e.typeCode(call.ResultExpr)),
		jen.Err().Op(":=").Add(ref.Dot("InvokeAndDecode").Call(invoke...)),
		jen.Return(jen.Id("out"), jen.Err()),
	)
}

func (e *emitter) event(ev *EventDecl) {
	topic := topicVar(ev)

	e.f.Line()
	e.f.Commentf("%s is the topic of %s events: TopicOf(%q).", topic, ev.Name, ev.Name)
	e.f.Var().Id(topic).Op("=").Qual(PVMImportPath, "Hash").Values(hashLits(ev.Topic[:])...)

	e.f.Line()
	e.f.Comment("Topics implements pvm.Event.")
	e.f.Func().Params(jen.Id(ev.Name)).Id("Topics").Params().Index().Qual(PVMImportPath, "Hash").Block(
		jen.Return(jen.Index().Qual(PVMImportPath, "Hash").Values(jen.Id(topic))),
	)
}

// typeCode converts a type expression from the contract package. Package
// qualifiers become jen.Qual so the generated file imports them.
func (e *emitter) typeCode(expr ast.Expr) *jen.Statement {
	switch t := expr.(type) {
	case *ast.Ident:
		return jen.Id(t.Name)
	case *ast.StarExpr:
		return jen.Op("*").Add(e.typeCode(t.X))
	case *ast.ParenExpr:
		return e.typeCode(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return jen.Index().Add(e.typeCode(t.Elt))
		}
		return jen.Index(jen.Id(exprString(t.Len))).Add(e.typeCode(t.Elt))
	case *ast.MapType:
		return jen.Map(e.typeCode(t.Key)).Add(e.typeCode(t.Value))
	case *ast.SelectorExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			if p, ok := e.cl.Imports[id.Name]; ok {
				return jen.Qual(p, t.Sel.Name)
			}
		}
	case *ast.IndexExpr:
		return e.typeCode(t.X).Types(e.typeCode(t.Index))
	case *ast.IndexListExpr:
		types := make([]jen.Code, len(t.Indices))
		for i, idx := range t.Indices {
			types[i] = e.typeCode(idx)
		}
		return e.typeCode(t.X).Types(types...)
	}
	return jen.Id(exprString(expr))
}

// codec refers to the runtime codec the module was generated for.
func (e *emitter) codec() *jen.Statement {
	return jen.Qual(PVMImportPath, codecVar(e.cl.Codec))
}

func envParam() *jen.Statement {
	return jen.Id("env").Op("*").Qual(PVMImportPath, "Env")
}

func revert(msg string) *jen.Statement {
	return jen.Id("env").Dot("Revert").Call(jen.Qual(PVMImportPath, msg))
}

func stopIfTerminated() *jen.Statement {
	return jen.If(jen.Id("env").Dot("Terminated").Call()).Block(jen.Return())
}

// saveState persists pvmState, reverting when it cannot be encoded.
func saveState() *jen.Statement {
	return jen.If(
		jen.Err().Op(":=").Id("pvmState").Dot("Save").Call(jen.Id("env")),
		jen.Err().Op("!=").Nil(),
	).Block(revert("MsgEncodeFailed"), jen.Return())
}

func argVar(i int) string { return fmt.Sprintf("pvmArg%d", i) }

func byteLits(b []byte) []jen.Code {
	lits := make([]jen.Code, len(b))
	for i, c := range b {
		lits[i] = jen.Id(fmt.Sprintf("0x%02x", c))
	}
	return lits
}

// hashLits lays a 32-byte value out as two rows of 16 bytes.
func hashLits(b []byte) []jen.Code {
	lits := make([]jen.Code, 0, len(b)+1)
	for i, c := range b {
		lit := jen.Id(fmt.Sprintf("0x%02x", c))
		if i%16 == 0 {
			lit = jen.Line().Add(lit)
		}
		lits = append(lits, lit)
	}
	return append(lits, jen.Line())
}
