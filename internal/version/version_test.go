package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestColored(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = saved }()

	cases := map[string]string{
		"0.1.0-dev":           "0.1.0-dev",
		"1.2.3":               "1.2.3",
		"1.2.3-rc.1+build.12": "1.2.3-rc.1+build.12",
		"dev":                 "dev",
	}
	for in, want := range cases {
		if got := Colored(in); got != want {
			t.Errorf("Colored(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestColoredEnabled(t *testing.T) {
	saved := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = saved }()

	if got := Colored("1.2.3"); got == "1.2.3" {
		t.Errorf("expected escape codes, got %q", got)
	}
}
