package gen

import (
	"fmt"
	"go/ast"
	"path/filepath"

	"golang.org/x/tools/go/packages"
)

// LoadPackage loads the package matching pattern, relative to dir, using the
// go command. Test files and files generated by any tool are skipped.
func LoadPackage(dir, pattern string, buildFlags ...string) (*Module, error) {
	cfg := &packages.Config{
		Mode:       packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:        dir,
		BuildFlags: buildFlags,
	}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, fmt.Errorf("pvmgen: load %s: %w", pattern, err)
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("pvmgen: %s matched %d packages, want 1", pattern, len(pkgs))
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("pvmgen: load %s: %v", pattern, pkg.Errors[0])
	}

	files := pkg.Syntax[:0:0]
	for _, f := range pkg.Syntax {
		if ast.IsGenerated(f) {
			continue
		}
		files = append(files, f)
	}

	m, err := ParseFiles(pkg.Fset, files)
	if err != nil {
		return nil, err
	}
	if len(pkg.GoFiles) > 0 {
		m.Dir = filepath.Dir(pkg.GoFiles[0])
	}
	log.Debugf("loaded %s from %s", pkg.PkgPath, m.Dir)
	return m, nil
}
