// Package misc keeps build time program identification.
package misc

import (
	"runtime/debug"
)

// Set with -ldflags "-X tcss/misc.version=... -X tcss/misc.gitHash=..."
var (
	version = "dev"
	gitHash = ""
)

const appName = "tcss"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

// GetGitHash returns commit hash the program was built from. If it was not
// provided at link time VCS information recorded by the toolchain is used.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
