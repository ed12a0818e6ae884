// Package version reports which build of the tools is running.
package version

import "runtime/debug"

// Version overrides everything else when set at build time:
//
//	go build -ldflags "-X github.com/QEStudios/opennbs/version.Version=v1.0.0" ./cmd/nbstool
var Version string

// Get returns Version if set, then the module version recorded by
// `go install module@version`, then the VCS revision (with "-dirty" for
// modified trees), and "devel" when none of these is known.
func Get() string {
	if Version != "" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "devel"
	}
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) string {
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	rev := settings["vcs.revision"]
	if rev == "" {
		return "devel"
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if settings["vcs.modified"] == "true" {
		rev += "-dirty"
	}
	return rev
}
