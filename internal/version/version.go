package version

import "fmt"

// Overridden at build time via -ldflags "-X".
var (
	Version = "0.1.0"
	Commit  = "unknown"
	Date    = "unknown"
)

// Resolve returns the version, suffixed with the short commit when one was
// stamped into the binary.
func Resolve() string {
	return resolve(Version, Commit)
}

// Long renders version, commit and build date for the version subcommand.
func Long() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Resolve(), shortCommit(Commit), Date)
}

func resolve(base, commit string) string {
	if base == "" {
		base = "0.0.0"
	}

	short := shortCommit(commit)
	if short == "unknown" {
		return base
	}
	return base + "+" + short
}

func shortCommit(commit string) string {
	if commit == "" || commit == "unknown" {
		return "unknown"
	}
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}
