package api

import (
	"runtime/debug"

	"github.com/samber/lo"
)

// Version and VersionCommit identify the build. VersionCommit is filled from
// the VCS stamp when the binary was built inside a checkout.
var (
	Version       = "0.1.0"
	VersionCommit = ""
)

func init() {
	if i, ok := debug.ReadBuildInfo(); ok {
		if rev, ok := lo.Find(i.Settings, func(s debug.BuildSetting) bool {
			return s.Key == "vcs.revision"
		}); ok {
			VersionCommit = rev.Value
		}
	}
}
