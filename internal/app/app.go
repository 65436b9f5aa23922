// Package app provides the main application helpers of the address map tool.
package app

import (
	"fmt"
	"strings"

	"github.com/retroenv/retrogolib/log"
)

// Name of the application.
const Name = "addrmap"

// BuildInfo contains the version information that is set at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// VersionString returns the version with an abbreviated commit hash.
func (b BuildInfo) VersionString() string {
	versionString := b.Version
	if commit := b.Commit; commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}
	return versionString
}

// PrintBanner prints application version information.
func PrintBanner(logger *log.Logger, quiet bool, info BuildInfo) {
	if quiet {
		return
	}

	logger.Info(Name, log.String("version", info.VersionString()))

	if info.Date != "" && !strings.Contains(info.Date, "unknown") {
		logger.Info("Build", log.String("date", info.Date))
	}
}
