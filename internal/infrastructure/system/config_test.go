package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoader_Load_FileNotExists(t *testing.T) {
	loader := NewConfigLoader(viper.New())
	cfg, err := loader.Load("/nonexistent/config.yaml")

	require.NoError(t, err)
	defaults := DefaultConfig()
	assert.Equal(t, defaults.Backend.Executable, cfg.Backend.Executable)
	assert.Equal(t, defaults.Backend.Args, cfg.Backend.Args)
	assert.Equal(t, defaults.Run, cfg.Run)
	assert.Equal(t, defaults.History, cfg.History)
	assert.Equal(t, "multibuild.yaml", cfg.SettingsPath())
	assert.Empty(t, loader.ConfigFileUsed())
}

func TestConfigLoader_Load_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".multibuild.yaml")

	yaml := `
project:
  path: /work/game
backend:
  executable: /opt/unity/Editor/Unity
  append_targets: [iOS, WebGL]
  diagnostic_lines: 10
platforms:
  installed:
    - Android
    - iOS
run:
  step_delay: 1s
  output_root: dist
history:
  enabled: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0600))

	loader := NewConfigLoader(viper.New())
	cfg, err := loader.Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, configPath, loader.ConfigFileUsed())
	assert.Equal(t, "/work/game", cfg.Project.Path)
	assert.Equal(t, "multibuild.yaml", cfg.Project.SettingsFile, "default kept")
	assert.Equal(t, "/opt/unity/Editor/Unity", cfg.Backend.Executable)
	assert.Equal(t, []string{"iOS", "WebGL"}, cfg.Backend.AppendTargets)
	assert.Equal(t, DefaultBackendArgs, cfg.Backend.Args)
	assert.Equal(t, 10, cfg.Backend.DiagnosticLines)
	assert.Equal(t, []string{"Android", "iOS"}, cfg.Platforms.Installed)
	assert.Equal(t, time.Second, cfg.Run.StepDelay)
	assert.Equal(t, "dist", cfg.Run.OutputRoot)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, 20, cfg.History.Limit)

	assert.Equal(t, filepath.Join("/work/game", "multibuild.yaml"), cfg.SettingsPath())
	assert.Equal(t, filepath.Join("/work/game", ".multibuild", "runs"), cfg.HistoryPath())
}

func TestConfigLoader_Load_EnvOverrides(t *testing.T) {
	t.Setenv("MULTIBUILD_BACKEND_EXECUTABLE", "/usr/local/bin/unity-editor")
	t.Setenv("MULTIBUILD_RUN_STEP_DELAY", "250ms")

	cfg, err := NewConfigLoader(viper.New()).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/unity-editor", cfg.Backend.Executable)
	assert.Equal(t, 250*time.Millisecond, cfg.Run.StepDelay)
}

func TestConfigLoader_Load_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("backend: [unclosed"), 0600))

	_, err := NewConfigLoader(viper.New()).Load(configPath)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty executable", func(c *Config) { c.Backend.Executable = " " }, "backend.executable"},
		{"negative diagnostics", func(c *Config) { c.Backend.DiagnosticLines = -1 }, "diagnostic_lines"},
		{"unknown append target", func(c *Config) { c.Backend.AppendTargets = []string{"Switch"} }, "append_targets"},
		{"unknown installed", func(c *Config) { c.Platforms.Installed = []string{"PS5"} }, "platforms.installed"},
		{"negative delay", func(c *Config) { c.Run.StepDelay = -time.Second }, "step_delay"},
		{"zero history limit", func(c *Config) { c.History.Limit = 0 }, "history.limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_AbsolutePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Project.SettingsFile = "/etc/multibuild/settings.yaml"
	cfg.History.Dir = "/var/lib/multibuild"

	assert.Equal(t, "/etc/multibuild/settings.yaml", cfg.SettingsPath())
	assert.Equal(t, "/var/lib/multibuild", cfg.HistoryPath())
}

func TestConfigLoader_Load_Redaction(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".multibuild.yaml")
	yaml := `
redaction:
  patterns:
    - 'STEAM_PASSWORD=(?P<secret>\S+)'
  hash_mode: true
  salt: pepper
`
	require.NoError(t, os.WriteFile(configPath, []byte(yaml), 0600))

	cfg, err := NewConfigLoader(viper.New()).Load(configPath)
	require.NoError(t, err)

	assert.True(t, cfg.Redaction.Enabled, "default kept")
	assert.Equal(t, []string{`STEAM_PASSWORD=(?P<secret>\S+)`}, cfg.Redaction.Patterns)
	assert.True(t, cfg.Redaction.HashMode)
	assert.Equal(t, "pepper", cfg.Redaction.Salt)
	assert.False(t, cfg.Redaction.DisableGitleaks)
}
