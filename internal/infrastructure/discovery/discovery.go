// Package discovery determines which targets the host can build.
package discovery

import (
	"context"
	"os/exec"
	"runtime"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/domain/catalog"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// Config configures platform discovery.
type Config struct {
	// Installed lists targets available beyond the host-native standalone one
	Installed []values.Target

	// Executable is looked up on PATH unless SkipExecutableCheck is set
	Executable          string
	SkipExecutableCheck bool

	// GOOS overrides runtime.GOOS
	GOOS string
}

// Discovery implements ports.PlatformDiscovery.
type Discovery struct {
	cfg      Config
	lookPath func(string) (string, error)
}

// New creates a discovery for cfg.
func New(cfg Config) *Discovery {
	if cfg.GOOS == "" {
		cfg.GOOS = runtime.GOOS
	}
	return &Discovery{cfg: cfg, lookPath: exec.LookPath}
}

// HostTarget returns the standalone target native to this host.
func (d *Discovery) HostTarget() values.Target {
	return catalog.HostTarget(d.cfg.GOOS)
}

// SupportedPlatforms returns the buildable targets in catalog order.
func (d *Discovery) SupportedPlatforms(ctx context.Context) ([]values.Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !d.cfg.SkipExecutableCheck {
		if _, err := d.lookPath(d.cfg.Executable); err != nil {
			return nil, apperrors.NewConfigurationError("backend",
				"build tool executable not found: "+d.cfg.Executable, err)
		}
	}

	available := make(map[values.Target]bool, len(d.cfg.Installed)+1)
	if host := d.HostTarget(); !host.IsZero() {
		available[host] = true
	}
	for _, t := range d.cfg.Installed {
		available[t] = true
	}

	var supported []values.Target
	for _, t := range catalog.Targets() {
		if available[t] {
			supported = append(supported, t)
		}
	}
	return supported, nil
}
