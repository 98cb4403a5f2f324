// Package version carries build metadata set through ldflags:
//
//	go build -ldflags "-X github.com/ncobase/collab/version.Version=1.2.3 \
//	  -X github.com/ncobase/collab/version.Revision=abc123"
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the release version.
	Version = "0.0.0"

	// Branch is the branch the binary was built from.
	Branch = "unknown"

	// Revision is the short commit hash.
	Revision = "unknown"

	// BuiltAt is the build time.
	BuiltAt = "unknown"
)

// Info contains version information
type Info struct {
	Version   string `json:"version"`
	Branch    string `json:"branch"`
	Revision  string `json:"revision"`
	BuiltAt   string `json:"built_at"`
	GoVersion string `json:"go_version"`
}

// Get returns the build metadata. Without ldflags the revision and build
// time fall back to the VCS stamp the go tool embeds.
func Get() Info {
	info := Info{
		Version:   Version,
		Branch:    Branch,
		Revision:  Revision,
		BuiltAt:   BuiltAt,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Revision == "unknown":
				info.Revision = s.Value
				if len(info.Revision) > 7 {
					info.Revision = info.Revision[:7]
				}
			case s.Key == "vcs.time" && info.BuiltAt == "unknown":
				info.BuiltAt = s.Value
			}
		}
	}
	return info
}

// String returns a string representation of version information
func (i Info) String() string {
	return fmt.Sprintf("Version: %s\nBranch: %s\nRevision: %s\nBuilt At: %s\nGo Version: %s",
		i.Version, i.Branch, i.Revision, i.BuiltAt, i.GoVersion)
}

// JSON returns a JSON representation of version information
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
