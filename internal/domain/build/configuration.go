// Package build holds the domain model of a multi-target build run: the
// per-target configuration handed to a backend, the backend's outcome, the
// run state machine, and the run result reported to the operator.
package build

import (
	"fmt"
	"strings"
	"time"

	"github.com/rv-tools/multibuild/internal/domain/values"
)

// Selection is the ordered list of targets chosen for one run.
// Duplicates are meaningful: a target listed twice is built twice.
type Selection []values.Target

// Clone returns an independent copy so the run cannot observe later edits.
func (s Selection) Clone() Selection {
	if s == nil {
		return nil
	}
	out := make(Selection, len(s))
	copy(out, s)
	return out
}

// Options are backend build-mode flags.
type Options uint

const (
	// OptionAcceptExternalModifications lets the backend append to an existing output.
	OptionAcceptExternalModifications Options = 1 << iota
	// OptionForceEnableAssertions keeps assertions enabled in the produced build.
	OptionForceEnableAssertions
)

// OptionNone is the empty flag set.
const OptionNone Options = 0

var optionNames = []struct {
	flag Options
	name string
}{
	{OptionAcceptExternalModifications, "AcceptExternalModificationsToPlayer"},
	{OptionForceEnableAssertions, "ForceEnableAssertions"},
}

// Has reports whether every bit of flag is set.
func (o Options) Has(flag Options) bool {
	return flag != 0 && o&flag == flag
}

// Names returns the set flags in declaration order.
func (o Options) Names() []string {
	names := make([]string, 0, len(optionNames))
	for _, n := range optionNames {
		if o.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return names
}

// String joins Names with "|", or returns "None".
func (o Options) String() string {
	names := o.Names()
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}

// MarshalText implements encoding.TextMarshaler
func (o Options) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Options) UnmarshalText(text []byte) error {
	parsed, err := ParseOptions(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOptions parses the String form back into flags.
func ParseOptions(s string) (Options, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" {
		return OptionNone, nil
	}

	var o Options
	for _, part := range strings.Split(s, "|") {
		found := false
		for _, n := range optionNames {
			if strings.TrimSpace(part) == n.name {
				o |= n.flag
				found = true
				break
			}
		}
		if !found {
			return OptionNone, fmt.Errorf("unknown build option %q", part)
		}
	}
	return o, nil
}

// Configuration fully describes one backend invocation.
// It is built fresh for each target and discarded afterwards.
type Configuration struct {
	Target     values.Target
	Group      values.Group
	OutputPath string
	Modules    []string
	Options    Options
}

// Outcome is what the backend reports for one target.
type Outcome struct {
	Succeeded   bool
	Elapsed     time.Duration
	Diagnostics string
}
