package values

import (
	"fmt"
	"strings"
)

// Target identifies a platform a project can be built for.
// Values match the backend's own target names and double as output directory names.
type Target string

const (
	// TargetStandaloneOSX is the macOS desktop player.
	TargetStandaloneOSX Target = "StandaloneOSX"
	// TargetStandaloneWindows is the 32-bit Windows desktop player.
	TargetStandaloneWindows Target = "StandaloneWindows"
	// TargetStandaloneWindows64 is the 64-bit Windows desktop player.
	TargetStandaloneWindows64 Target = "StandaloneWindows64"
	// TargetStandaloneLinux64 is the 64-bit Linux desktop player.
	TargetStandaloneLinux64 Target = "StandaloneLinux64"
	// TargetIOS produces an Xcode project for iOS.
	TargetIOS Target = "iOS"
	// TargetAndroid produces an APK.
	TargetAndroid Target = "Android"
	// TargetWebGL produces a browser build.
	TargetWebGL Target = "WebGL"
)

// targetAliases maps lowercase spellings accepted on the command line.
var targetAliases = map[string]Target{
	"standaloneosx":       TargetStandaloneOSX,
	"osx":                 TargetStandaloneOSX,
	"macos":               TargetStandaloneOSX,
	"standalonewindows":   TargetStandaloneWindows,
	"win":                 TargetStandaloneWindows,
	"win32":               TargetStandaloneWindows,
	"standalonewindows64": TargetStandaloneWindows64,
	"win64":               TargetStandaloneWindows64,
	"standalonelinux64":   TargetStandaloneLinux64,
	"linux64":             TargetStandaloneLinux64,
	"linux":               TargetStandaloneLinux64,
	"ios":                 TargetIOS,
	"android":             TargetAndroid,
	"webgl":               TargetWebGL,
}

// ParseTarget resolves a target name or alias, ignoring case.
func ParseTarget(s string) (Target, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", fmt.Errorf("target cannot be empty")
	}
	if t, ok := targetAliases[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown target: %s", s)
}

// ParseTargets parses a list of names, keeping order and duplicates.
func ParseTargets(names []string) ([]Target, error) {
	targets := make([]Target, 0, len(names))
	for _, name := range names {
		t, err := ParseTarget(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// String returns the target name.
func (t Target) String() string {
	return string(t)
}

// IsZero reports whether no target is set.
func (t Target) IsZero() bool {
	return t == ""
}
