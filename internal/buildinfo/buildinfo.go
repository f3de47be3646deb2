// Package buildinfo reports what was built: the module version, the VCS
// revision and the toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strings"
)

type Info struct {
	Version   string
	Revision  string
	Modified  bool
	GoVersion string
	Tags      string
}

var readBuildInfo = debug.ReadBuildInfo

// Read returns the build information embedded in the binary. Version is "dev"
// for builds outside of a module release.
func Read() Info {
	info := Info{Version: "dev"}
	bi, ok := readBuildInfo()
	if !ok || bi == nil {
		return info
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	info.GoVersion = bi.GoVersion
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "-tags":
			info.Tags = setting.Value
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}
	return info
}

// Version returns the module version or "dev" when unset.
func Version() string {
	return Read().Version
}

// String formats the info for `tigo version`.
func (i Info) String() string {
	var extra []string
	if i.Revision != "" {
		rev := i.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if i.Modified {
			rev += "-dirty"
		}
		extra = append(extra, "rev "+rev)
	}
	if i.Tags != "" {
		extra = append(extra, "tags: "+i.Tags)
	}
	if i.GoVersion != "" {
		extra = append(extra, i.GoVersion)
	}
	if len(extra) == 0 {
		return i.Version
	}
	return fmt.Sprintf("%s (%s)", i.Version, strings.Join(extra, ", "))
}
