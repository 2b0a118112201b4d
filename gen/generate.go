package gen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// Output is a generated file.
type Output struct {
	Filename string // base name of the file
	Source   []byte // formatted Go source
}

// Generate produces the generated file for a parsed module. On any
// GenerationError nothing is produced.
func Generate(m *Module, opts ...Option) (*Output, error) {
	cl, err := Classify(m, opts...)
	if err != nil {
		return nil, err
	}
	return Render(cl, opts...)
}

// Render emits the generated file for an already classified module.
func Render(cl *Classified, opts ...Option) (*Output, error) {
	o := buildOptions(opts)

	var buf bytes.Buffer
	if err := newEmitter(cl, o).file().Render(&buf); err != nil {
		return nil, fmt.Errorf("pvmgen: render %s: %w", cl.Package, err)
	}

	log.Debugf("rendered %s: %d calls, %d events", cl.Package, len(cl.Calls), len(cl.Events))
	return &Output{Filename: o.outputFile, Source: buf.Bytes()}, nil
}

// GenerateDir parses the package in dir and writes its generated file there.
// It returns the path written.
func GenerateDir(dir string, opts ...Option) (string, error) {
	m, err := ParseDir(dir)
	if err != nil {
		return "", err
	}
	out, err := Generate(m, opts...)
	if err != nil {
		return "", err
	}
	return WriteFile(dir, out)
}

// WriteFile writes out into dir and returns the path written.
func WriteFile(dir string, out *Output) (string, error) {
	path := filepath.Join(dir, out.Filename)
	if err := os.WriteFile(path, out.Source, 0o644); err != nil {
		return "", fmt.Errorf("pvmgen: write %s: %w", path, err)
	}
	log.Infof("wrote %s", path)
	return path, nil
}
