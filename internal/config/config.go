// Package config loads objrw.toml, the project configuration of the
// rewriter. Command-line flags override what it sets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
)

// FileName is the configuration file looked up from the working directory.
const FileName = "objrw.toml"

// Config is the decoded objrw.toml with defaults applied.
type Config struct {
	// Path of the file it was read from; empty for defaults.
	Path string `toml:"-"`
	// Root is the directory relative paths are resolved against.
	Root string `toml:"-"`

	Rewrite RewriteConfig `toml:"rewrite"`
	Output  OutputConfig  `toml:"output"`
	Cache   CacheConfig   `toml:"cache"`
}

type RewriteConfig struct {
	StructReturnThreshold int  `toml:"struct_return_threshold"`
	PointerSize           int  `toml:"pointer_size"`
	MSExtensions          bool `toml:"ms_extensions"`
	SilenceMacroWarnings  bool `toml:"silence_macro_warnings"`
	// MSExtensionsSet is true when the file sets ms_extensions; otherwise
	// the unit document decides.
	MSExtensionsSet bool `toml:"-"`
}

type OutputConfig struct {
	Dir    string `toml:"dir"`
	Suffix string `toml:"suffix"`
}

type CacheConfig struct {
	Enabled  bool   `toml:"enabled"`
	Dir      string `toml:"dir"`
	Compress bool   `toml:"compress"`
	MaxSize  string `toml:"max_size"`
	// MaxBytes is MaxSize parsed.
	MaxBytes uint64 `toml:"-"`
}

// Default returns the configuration used without objrw.toml.
func Default() Config {
	return Config{
		Rewrite: RewriteConfig{
			StructReturnThreshold: 8,
			PointerSize:           8,
			MSExtensions:          true,
		},
		Output: OutputConfig{Suffix: ".cpp"},
		Cache: CacheConfig{
			Enabled:  true,
			Dir:      filepath.Join(".objrw", "cache"),
			Compress: true,
			MaxSize:  "64MiB",
			MaxBytes: 64 << 20,
		},
	}
}

// Find walks up from startDir to locate objrw.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the objrw.toml above startDir, or the defaults rooted at
// startDir when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		cfg := Default()
		root, err := filepath.Abs(startDir)
		if err != nil {
			return Config{}, err
		}
		cfg.Root = root
		return cfg, nil
	}
	return Load(path)
}

// Load decodes path over the defaults. Keys the file leaves out keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	cfg.Root = filepath.Dir(path)
	cfg.Rewrite.MSExtensionsSet = meta.IsDefined("rewrite", "ms_extensions")
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Rewrite.StructReturnThreshold <= 0 {
		return fmt.Errorf("[rewrite].struct_return_threshold must be positive, got %d", c.Rewrite.StructReturnThreshold)
	}
	if c.Rewrite.PointerSize != 4 && c.Rewrite.PointerSize != 8 {
		return fmt.Errorf("[rewrite].pointer_size must be 4 or 8, got %d", c.Rewrite.PointerSize)
	}
	if c.Output.Suffix == "" || !strings.HasPrefix(c.Output.Suffix, ".") {
		return fmt.Errorf("[output].suffix must start with '.', got %q", c.Output.Suffix)
	}
	c.Cache.MaxBytes = 0
	if s := strings.TrimSpace(c.Cache.MaxSize); s != "" && s != "0" {
		n, err := humanize.ParseBytes(s)
		if err != nil {
			return fmt.Errorf("[cache].max_size: %w", err)
		}
		c.Cache.MaxBytes = n
	}
	return nil
}

// Resolve makes a configured path absolute against Root.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// CacheDir is the absolute cache directory.
func (c Config) CacheDir() string { return c.Resolve(c.Cache.Dir) }

// OutputDir is the absolute output directory, empty for "next to input".
func (c Config) OutputDir() string { return c.Resolve(c.Output.Dir) }
