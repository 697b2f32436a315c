// Package version reports this binary's build identity, in the same
// call shape the teacher used from p4prometheus/version (version.Print),
// now first-party since only that one function was ever used.
package version

import "fmt"

// Set via -ldflags at build time; left at their zero value otherwise.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Print returns a one-line version banner for app, suitable for both
// kingpin's --version output and a startup log line.
func Print(app string) string {
	return fmt.Sprintf("%s version %s, commit %s, built %s", app, Version, Commit, BuildDate)
}
