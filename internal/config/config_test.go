package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadKeepsDefaultsForUnsetKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "[rewrite]\npointer_size = 4\n\n[cache]\nmax_size = \"2MB\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Rewrite.PointerSize != 4 {
		t.Errorf("pointer_size = %d", cfg.Rewrite.PointerSize)
	}
	if cfg.Rewrite.StructReturnThreshold != 8 || cfg.Output.Suffix != ".cpp" || !cfg.Cache.Enabled {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Rewrite.MSExtensionsSet {
		t.Errorf("ms_extensions is not in the file")
	}
	if cfg.Cache.MaxBytes != 2_000_000 {
		t.Errorf("max_size parsed to %d", cfg.Cache.MaxBytes)
	}
	if cfg.CacheDir() != filepath.Join(dir, ".objrw", "cache") {
		t.Errorf("cache dir = %q", cfg.CacheDir())
	}
}

func TestLoadExplicitFalse(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[rewrite]\nms_extensions = false\n[cache]\nenabled = false\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Rewrite.MSExtensions || !cfg.Rewrite.MSExtensionsSet {
		t.Errorf("explicit ms_extensions = false not honoured: %+v", cfg.Rewrite)
	}
	if cfg.Cache.Enabled {
		t.Errorf("cache must be disabled")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{"[rewrite]\npointer_size = 2\n", "pointer_size"},
		{"[rewrite]\nstruct_return_threshold = 0\n", "struct_return_threshold"},
		{"[output]\nsuffix = \"cpp\"\n", "suffix"},
		{"[cache]\nmax_size = \"lots\"\n", "max_size"},
		{"[rewrite]\nunknown = 1\n", "unknown keys"},
		{"[rewrite\n", "failed to parse TOML"},
	}
	for _, tc := range cases {
		path := writeConfig(t, t.TempDir(), tc.body)
		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%q: err = %v, want it to mention %q", tc.body, err, tc.want)
		}
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[output]\ndir = \"gen\"\n")
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Discover(sub)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != filepath.Join(root, FileName) {
		t.Errorf("found %q", cfg.Path)
	}
	if cfg.OutputDir() != filepath.Join(root, "gen") {
		t.Errorf("output dir = %q", cfg.OutputDir())
	}

	empty := t.TempDir()
	cfg, err = Discover(empty)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path != "" || cfg.OutputDir() != "" || cfg.Root != empty {
		t.Errorf("defaults expected without objrw.toml: %+v", cfg)
	}
}
