// Package version reports the build version of the airev binary.
package version

import (
	"runtime/debug"
	"strings"
)

// Version is stamped via -ldflags on release builds. Development builds
// fall back to the VCS revision embedded by the Go toolchain.
var Version = "dev"

func init() {
	if Version == "dev" {
		Version = vcsRevision()
	}
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}

	rev := "dev"
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) > 7 {
				rev = s.Value[:7]
			} else if s.Value != "" {
				rev = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}

// Full returns the version plus the VCS commit time when available.
func Full() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.time" {
			return strings.Join([]string{Version, s.Value}, " ")
		}
	}
	return Version
}
