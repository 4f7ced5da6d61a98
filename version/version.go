package version

import "runtime/debug"

type Version struct {
	FrameworkVersion   string `json:"framework_version"`
	ApplicationVersion string `json:"application_version"`
}

// VERSION is set with -ldflags "-X github.com/mumoshu/fmharness/version.VERSION=...".
var VERSION string

func Get() (Version, error) {
	ver := VERSION
	if ver == "" {
		ver = "dev"
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			ver = info.Main.Version
		}
	}
	return Version{FrameworkVersion: ver, ApplicationVersion: ver}, nil
}
