// Package gen is the pvmgen code generator.
//
// Generation runs in two passes. ParseDir, ParseSource or LoadPackage turn
// a contract package into a Module whose items are tagged with the role
// directive found in their doc comment:
//
//	//pvm:storage          struct type holding the persistent state
//	//pvm:init             constructor returning the storage type
//	//pvm:call [name=wire] handler function or method
//	//pvm:event            struct type emitted as an event
//
// Classify then validates the items and builds the call declarations, and
// Render emits a single generated file (zz_pvm.go by default) with storage
// accessors, call wrappers, the Deploy and Call entry points, event topics
// and a typed proxy.
//
//	m, err := gen.ParseDir("./contracts/flipper")
//	if err != nil {
//	    return err
//	}
//	out, err := gen.Generate(m, gen.WithCodec("rlp"))
//	if err != nil {
//	    return err
//	}
//	_, err = gen.WriteFile(m.Dir, out)
//
// Every problem with the shape of a contract is a *GenerationError carrying
// a stable code; no output is produced when one is returned.
package gen
