package release

import (
	"errors"
	"fmt"
)

// Fail marks an expected, user-actionable condition: a missing tool, a bad
// flag combination, a nonzero exit from git or make, a manifest miss. The
// top level reports these as a single line. Anything that is not a Fail is
// treated as a defect and reported with full detail.
type Fail struct {
	msg string
}

func (f *Fail) Error() string { return f.msg }

func failf(format string, args ...any) error {
	return &Fail{msg: fmt.Sprintf(format, args...)}
}

// errorLine formats err for the terminal: expected failures as a single
// bare line, anything else with full detail.
func errorLine(err error) string {
	var fail *Fail
	if errors.As(err, &fail) {
		return "drelease: " + fail.msg
	}
	return fmt.Sprintf("drelease: unexpected error: %v", err)
}

// ReportError prints err in the command's error style.
func ReportError(err error) {
	cPrintln(colError, errorLine(err))
}
