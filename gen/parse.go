package gen

import (
	"fmt"
	"go/ast"
	"go/build"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const directivePrefix = "//pvm:"

var directiveRoles = map[string]Role{
	"storage": RoleStorage,
	"init":    RoleInit,
	"call":    RoleCall,
	"event":   RoleEvent,
}

// directiveArgs lists the arguments each directive accepts.
var directiveArgs = map[Role]map[string]bool{
	RoleCall: {"name": true},
}

// ParseSource parses a single contract source file held in memory.
func ParseSource(filename string, src []byte) (*Module, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("pvmgen: parse %s: %w", filename, err)
	}
	return ParseFiles(fset, []*ast.File{file})
}

// ParseDir parses the non-test, non-generated Go files of the package in dir
// that the build constraints of the current platform select.
func ParseDir(dir string) (*Module, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pvmgen: read %s: %w", dir, err)
	}

	fset := token.NewFileSet()
	var files []*ast.File
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		match, err := build.Default.MatchFile(dir, name)
		if err != nil {
			return nil, fmt.Errorf("pvmgen: %s: %w", name, err)
		}
		if !match {
			log.Debugf("skipping %s: excluded by build constraints", name)
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("pvmgen: parse %s: %w", name, err)
		}
		if ast.IsGenerated(file) {
			continue
		}
		files = append(files, file)
	}

	m, err := ParseFiles(fset, files)
	if err != nil {
		return nil, err
	}
	m.Dir = dir
	return m, nil
}

// ParseFiles builds a Module from already parsed files of one package.
// Files are visited in the given order and declarations in source order.
// This is the first pass: every declaration is tagged with a role, nothing
// is validated beyond the directives themselves.
func ParseFiles(fset *token.FileSet, files []*ast.File) (*Module, error) {
	m := &Module{
		Fset:    fset,
		Imports: make(map[string]string),
	}
	if len(files) == 0 {
		return nil, newError(CodeEmptyModule, token.Position{}, "no Go files")
	}

	for _, file := range files {
		switch {
		case m.Name == "":
			m.Name = file.Name.Name
		case file.Name.Name != m.Name:
			return nil, newError(CodePackageMismatch, fset.Position(file.Name.Pos()),
				"package %s, but other files declare package %s", file.Name.Name, m.Name)
		}
		collectImports(file, m.Imports)

		for _, decl := range file.Decls {
			items, err := itemsOf(fset, decl)
			if err != nil {
				return nil, err
			}
			m.Items = append(m.Items, items...)
		}
	}

	log.Debugf("parsed module %s: %d items", m.Name, len(m.Items))
	return m, nil
}

func itemsOf(fset *token.FileSet, decl ast.Decl) ([]*Item, error) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		item := &Item{
			Name: d.Name.Name,
			Pos:  fset.Position(d.Pos()),
			Func: d,
			Decl: d,
		}
		if err := applyDirectives(item, d.Doc); err != nil {
			return nil, err
		}
		return []*Item{item}, nil

	case *ast.GenDecl:
		if d.Tok == token.IMPORT {
			return nil, nil
		}

		var items []*Item
		for _, spec := range d.Specs {
			item := &Item{
				Pos:  fset.Position(spec.Pos()),
				Decl: d,
			}
			var doc *ast.CommentGroup
			switch s := spec.(type) {
			case *ast.TypeSpec:
				item.Name = s.Name.Name
				item.Type = s
				doc = s.Doc
			case *ast.ValueSpec:
				names := make([]string, len(s.Names))
				for i, n := range s.Names {
					names[i] = n.Name
				}
				item.Name = strings.Join(names, ", ")
				doc = s.Doc
			}
			// An unparenthesized declaration carries its doc on the GenDecl.
			if doc == nil && !d.Lparen.IsValid() {
				doc = d.Doc
			}
			if err := applyDirectives(item, doc); err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}
	return nil, nil
}

// applyDirectives sets the role and arguments of item from the //pvm:
// directives in doc.
func applyDirectives(item *Item, doc *ast.CommentGroup) error {
	if doc == nil {
		return nil
	}

	seen := 0
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(c.Text, directivePrefix))
		if len(fields) == 0 {
			return newError(CodeUnknownDirective, item.Pos, "empty //pvm: directive on %s", item.Name)
		}

		role, ok := directiveRoles[fields[0]]
		if !ok {
			return newError(CodeUnknownDirective, item.Pos, "unknown directive //pvm:%s on %s", fields[0], item.Name)
		}
		seen++
		if seen > 1 {
			return newError(CodeMultipleRoles, item.Pos, "%s has more than one role directive", item.Name)
		}

		item.Role = role
		for _, arg := range fields[1:] {
			key, value, found := strings.Cut(arg, "=")
			if !found || value == "" || !directiveArgs[role][key] {
				return newError(CodeUnknownDirective, item.Pos, "unsupported argument %q in //pvm:%s on %s", arg, fields[0], item.Name)
			}
			if item.Args == nil {
				item.Args = make(map[string]string)
			}
			item.Args[key] = value
		}
	}
	return nil
}

// collectImports records qualifier -> path for every import of file.
func collectImports(file *ast.File, into map[string]string) {
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := guessPackageName(p)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		into[name] = p
	}
}

// guessPackageName derives the conventional package name of an import path
// without loading it: the last element, skipping major version suffixes
// (/v2, .v3) and go-/-go affixes.
func guessPackageName(importPath string) string {
	elems := strings.Split(importPath, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	if i := strings.LastIndex(name, ".v"); i > 0 && isMajorVersion(name[i+1:]) {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "go-")
	name = strings.TrimSuffix(name, "-go")
	name = strings.TrimSuffix(name, ".go")
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return -1
		}
		return r
	}, name)
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
