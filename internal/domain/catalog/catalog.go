// Package catalog maps build targets to their configuration group and
// output file naming rule.
//
// Every function here is a pure lookup with a defined default, so callers
// never need to handle a failure: unmapped targets fall into
// values.GroupUnknown and get no file suffix.
package catalog

import (
	"path/filepath"

	"github.com/rv-tools/multibuild/internal/domain/values"
)

// DefaultOutputRoot is the directory all builds are written under.
const DefaultOutputRoot = "Builds"

// order is the declaration order of the backend's target enumeration.
var order = []values.Target{
	values.TargetStandaloneOSX,
	values.TargetStandaloneWindows,
	values.TargetIOS,
	values.TargetAndroid,
	values.TargetStandaloneWindows64,
	values.TargetWebGL,
	values.TargetStandaloneLinux64,
}

var groups = map[values.Target]values.Group{
	values.TargetStandaloneOSX:       values.GroupStandalone,
	values.TargetStandaloneWindows:   values.GroupStandalone,
	values.TargetStandaloneWindows64: values.GroupStandalone,
	values.TargetStandaloneLinux64:   values.GroupStandalone,
	values.TargetIOS:                 values.GroupIOS,
	values.TargetAndroid:             values.GroupAndroid,
	values.TargetWebGL:               values.GroupWebGL,
}

var suffixes = map[values.Target]string{
	values.TargetAndroid:             ".apk",
	values.TargetStandaloneWindows64: ".exe",
	values.TargetStandaloneLinux64:   ".x86_64",
}

// Targets returns every known target in enumeration order.
func Targets() []values.Target {
	out := make([]values.Target, len(order))
	copy(out, order)
	return out
}

// Known reports whether t has a catalog entry.
func Known(t values.Target) bool {
	_, ok := groups[t]
	return ok
}

// GroupOf returns the configuration group for t, or values.GroupUnknown.
func GroupOf(t values.Target) values.Group {
	if g, ok := groups[t]; ok {
		return g
	}
	return values.GroupUnknown
}

// Suffix returns the file extension appended to the product name for t.
func Suffix(t values.Target) string {
	return suffixes[t]
}

// OutputPathFor returns Builds/<target>/<product><suffix>.
func OutputPathFor(t values.Target, productName string) string {
	return OutputPathIn(DefaultOutputRoot, t, productName)
}

// OutputPathIn is OutputPathFor with a caller-chosen root directory.
// An empty root means DefaultOutputRoot.
func OutputPathIn(root string, t values.Target, productName string) string {
	if root == "" {
		root = DefaultOutputRoot
	}
	return filepath.Join(root, t.String(), productName+Suffix(t))
}

// HostTarget returns the standalone target native to goos (a runtime.GOOS
// value), or the zero Target when there is none.
func HostTarget(goos string) values.Target {
	switch goos {
	case "darwin":
		return values.TargetStandaloneOSX
	case "windows":
		return values.TargetStandaloneWindows64
	case "linux":
		return values.TargetStandaloneLinux64
	default:
		return ""
	}
}
