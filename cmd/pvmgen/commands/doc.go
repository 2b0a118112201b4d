// Package commands defines the pvmgen CLI.
//
// Commands
//
//   - generate   Write the generated entry points, dispatch and proxy for a contract package
//   - selector   Print the selector, storage key or event topic of names
//
// A contract package usually runs the generator through go:generate:
//
//	//go:generate go run github.com/branched-services/go-pvm/cmd/pvmgen generate
//
// Settings come from the nearest pvmgen.toml above the package directory;
// flags override it.
package commands
