package version

import "fmt"

// Set via ldflags:
// go build -ldflags "-X git.home.luguber.info/inful/docmigrate/internal/version.Version=v1.0.0".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String is the text printed by --version.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return "docmigrate " + Version
	}
	return fmt.Sprintf("docmigrate %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
