package values

import (
	"fmt"
	"strings"
)

// Group is the coarse toolchain family a target belongs to.
type Group string

const (
	GroupStandalone Group = "Standalone"
	GroupIOS        Group = "iOS"
	GroupAndroid    Group = "Android"
	GroupWebGL      Group = "WebGL"
	// GroupUnknown is returned for targets without a mapping.
	GroupUnknown Group = "Unknown"
)

// String returns the group name.
func (g Group) String() string {
	return string(g)
}

// IsKnown reports whether g is anything other than GroupUnknown.
func (g Group) IsKnown() bool {
	return g != "" && g != GroupUnknown
}

var knownGroups = []Group{GroupStandalone, GroupIOS, GroupAndroid, GroupWebGL}

// ParseGroup matches a group name case-insensitively.
func ParseGroup(s string) (Group, error) {
	for _, g := range knownGroups {
		if strings.EqualFold(string(g), strings.TrimSpace(s)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown target group %q", s)
}
