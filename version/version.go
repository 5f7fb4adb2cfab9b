package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
	GoVersion = ""
)

// Info is the build information of the running binary.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	GitBranch string    `json:"git_branch"`
	BuildTime string    `json:"build_time"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

// GetVersionInfo merges the ldflags variables with the toolchain build
// settings. Explicit ldflags values win.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		IsRelease: Version != "dev" && !strings.Contains(Version, "dirty"),
	}
	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildDate = t
		}
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.applyBuildInfo(bi)
	}
	return info
}

func (i *Info) applyBuildInfo(bi *debug.BuildInfo) {
	if i.GoVersion == "" {
		i.GoVersion = bi.GoVersion
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.GitCommit == "" {
				i.GitCommit = shortCommit(s.Value)
			}
		case "vcs.modified":
			i.IsDirty = s.Value == "true"
		case "vcs.time":
			if i.BuildTime != "" {
				continue
			}
			if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
				i.BuildDate = t
				i.BuildTime = s.Value
			}
		}
	}
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// GetShortVersion returns "version[-commit][-dirty]".
func GetShortVersion() string {
	info := GetVersionInfo()
	if info.GitCommit == "" {
		return info.Version
	}
	if info.IsDirty {
		return fmt.Sprintf("%s-%s-dirty", info.Version, info.GitCommit)
	}
	return fmt.Sprintf("%s-%s", info.Version, info.GitCommit)
}

// GetFullVersion returns the short version plus a non-default branch and
// the build date.
func GetFullVersion() string {
	info := GetVersionInfo()
	parts := []string{info.Version}
	if info.GitCommit != "" {
		parts = append(parts, info.GitCommit)
	}
	if info.GitBranch != "" && info.GitBranch != "main" && info.GitBranch != "master" {
		parts = append(parts, info.GitBranch)
	}
	if info.IsDirty {
		parts = append(parts, "dirty")
	}
	v := strings.Join(parts, "-")
	if !info.BuildDate.IsZero() {
		v += fmt.Sprintf(" (built %s)", info.BuildDate.Format("2006-01-02T15:04:05Z"))
	}
	return v
}

// Resolve returns configured when set, the short build version otherwise.
func Resolve(configured string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	return GetShortVersion()
}
