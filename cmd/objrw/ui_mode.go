package main

import (
	"fmt"
	"os"
	"strings"
)

// progressMode is the value of "batch --ui".
type progressMode string

const (
	progressAuto progressMode = "auto"
	progressOn   progressMode = "on"
	progressOff  progressMode = "off"
)

func parseProgressMode(value string) (progressMode, error) {
	m := progressMode(strings.ToLower(strings.TrimSpace(value)))
	switch m {
	case "":
		return progressAuto, nil
	case progressAuto, progressOn, progressOff:
		return m, nil
	}
	return "", fmt.Errorf("--ui: unknown mode %q, want auto, on or off", value)
}

// wantProgressUI decides whether a batch of units runs under the progress
// view. In auto mode a single unit, --quiet, JSON output or a stderr that
// is not a terminal all fall back to plain reporting.
func wantProgressUI(mode progressMode, units int, quiet, jsonOut bool) bool {
	switch mode {
	case progressOn:
		return true
	case progressOff:
		return false
	}
	if units < 2 || quiet || jsonOut {
		return false
	}
	return isTerminal(os.Stderr)
}
