// Package menu provides a dmenu-style UI backend for anomalybar.
package menu

import (
	"errors"
	"os/exec"
)

// Supported dmenu-compatible programs in order of preference.
var supportedPrograms = []string{
	"rofi",
	"wofi",
	"fuzzel",
	"bemenu",
	"dmenu",
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Detect finds the first available dmenu-compatible program.
// Returns the program name or an error if none are found.
func Detect() (string, error) {
	if avail := Available(); len(avail) > 0 {
		return avail[0], nil
	}
	return "", errors.New("no dmenu-compatible program found (tried: rofi, wofi, fuzzel, bemenu, dmenu)")
}

// Available returns the dmenu programs that are currently installed, in
// order of preference.
func Available() []string {
	var available []string
	for _, prog := range supportedPrograms {
		if path, err := lookPath(prog); err == nil && path != "" {
			available = append(available, prog)
		}
	}
	return available
}
