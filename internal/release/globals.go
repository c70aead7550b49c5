package release

import (
	"github.com/gookit/color"
)

var (
	// Debug enables debugf output; Verbose enables per-step command echo.
	Debug   bool
	Verbose bool
	Quiet   bool

	version   = "dev"     // overridden at build time
	buildDate = "unknown" // overridden at build time

	// ConfigFile holds upload credentials and defaults; CLI flags win.
	ConfigFile = ".drelease.conf"
)

// color helpers
var (
	colInfo    = color.Info
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
