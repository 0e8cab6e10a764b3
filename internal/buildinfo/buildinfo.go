package buildinfo

import (
	"runtime/debug"
)

const shortLen = 7

// Revision returns the short vcs revision the binary was built from, or an
// empty string when the build carries no vcs metadata.
func Revision() string {
	rev := setting("vcs.revision")
	if len(rev) > shortLen {
		return rev[:shortLen]
	}
	return rev
}

func setting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}
