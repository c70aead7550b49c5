package release

import "fmt"

// color-compatible printer interface (works with *color.Theme and *color.Style)
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// cPrintf prints with a colored style or falls back to fmt.Printf when nil
func cPrintf(p colorPrinter, format string, a ...any) {
	if p == nil {
		fmt.Printf(format, a...)
		return
	}
	p.Printf(format, a...)
}

// cPrintln prints a line with the given style or falls back to fmt.Println when nil
func cPrintln(p colorPrinter, a ...any) {
	if p == nil {
		fmt.Println(a...)
		return
	}
	p.Println(a...)
}

// infof prints a stage progress line unless -q was given.
func infof(format string, args ...any) {
	if Quiet {
		return
	}
	colArrow.Print("-> ")
	colSuccess.Printf(format+"\n", args...)
}

// warnf prints a warning line. Not silenced by -q: a warning means the run
// continues on a degraded path the operator should know about.
func warnf(format string, args ...any) {
	cPrintf(colWarn, "warning: "+format+"\n", args...)
}

// debugf prints debug messages when Debug is true
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}
