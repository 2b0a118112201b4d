package gen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ConfigFile is the name of the generator configuration file.
const ConfigFile = "pvmgen.toml"

// Config is the contents of a pvmgen.toml file.
//
//	codec = "rlp"
//	output = "zz_pvm.go"
//	proxy-suffix = "Ref"
//	build-tags = "pvm"
//	header = "Code generated for the token contract."
type Config struct {
	Codec       string `toml:"codec"`
	Output      string `toml:"output"`
	ProxySuffix string `toml:"proxy-suffix"`
	BuildTags   string `toml:"build-tags"`
	Header      string `toml:"header"`

	// Path is the file the config was loaded from (set at load time).
	Path string `toml:"-"`
}

// LoadConfig parses the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pvmgen: cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("pvmgen: parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("pvmgen: unknown key %q in %s", undecoded[0].String(), path)
	}
	c.Path = path
	return &c, nil
}

// FindConfig walks up from dir looking for a pvmgen.toml file. It returns
// nil without error when none is found.
func FindConfig(dir string) (*Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("pvmgen: cannot resolve path %s: %w", dir, err)
	}

	for {
		path := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("pvmgen: cannot stat %s: %w", path, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Options converts the config into generator options. Empty values keep
// the defaults.
func (c *Config) Options() []Option {
	if c == nil {
		return nil
	}
	opts := []Option{
		WithCodec(c.Codec),
		WithOutputFile(c.Output),
		WithProxySuffix(c.ProxySuffix),
	}
	if c.BuildTags != "" {
		opts = append(opts, WithBuildTags(c.BuildTags))
	}
	if c.Header != "" {
		opts = append(opts, WithHeader(c.Header))
	}
	return opts
}
