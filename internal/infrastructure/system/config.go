// Package system provides infrastructure for tool-level configuration.
// This covers the optional .multibuild.yaml file and MULTIBUILD_* environment
// overrides, as opposed to the project settings the builds are made from.
package system

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rv-tools/multibuild/internal/domain/catalog"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// ConfigName is the base name of the tool config file.
const ConfigName = ".multibuild"

// EnvPrefix prefixes environment overrides, e.g. MULTIBUILD_BACKEND_EXECUTABLE.
const EnvPrefix = "MULTIBUILD"

// Config represents the tool configuration file (.multibuild.yaml).
type Config struct {
	Project   ProjectConfig   `mapstructure:"project" yaml:"project"`
	Backend   BackendConfig   `mapstructure:"backend" yaml:"backend"`
	Platforms PlatformsConfig `mapstructure:"platforms" yaml:"platforms"`
	Run       RunConfig       `mapstructure:"run" yaml:"run"`
	History   HistoryConfig   `mapstructure:"history" yaml:"history"`
	Redaction RedactionConfig `mapstructure:"redaction" yaml:"redaction"`
}

// ProjectConfig locates the project being built.
type ProjectConfig struct {
	// Path is the project root directory
	Path string `mapstructure:"path" yaml:"path"`

	// SettingsFile is relative to Path unless absolute
	SettingsFile string `mapstructure:"settings_file" yaml:"settings_file"`
}

// BackendConfig configures the external build command.
type BackendConfig struct {
	Executable string `mapstructure:"executable" yaml:"executable"`

	// Args are text/template strings rendered per target
	Args []string `mapstructure:"args" yaml:"args"`

	// AppendTargets may append to an existing output instead of replacing it
	AppendTargets []string `mapstructure:"append_targets" yaml:"append_targets"`

	// DiagnosticLines is how much trailing output is kept on failure
	DiagnosticLines int `mapstructure:"diagnostic_lines" yaml:"diagnostic_lines"`

	// Env is appended to the inherited environment (KEY=VALUE)
	Env []string `mapstructure:"env" yaml:"env"`
}

// PlatformsConfig declares which platform modules are installed.
type PlatformsConfig struct {
	// Installed lists targets available beyond the host-native standalone ones
	Installed []string `mapstructure:"installed" yaml:"installed"`

	// SkipExecutableCheck disables the PATH lookup during discovery
	SkipExecutableCheck bool `mapstructure:"skip_executable_check" yaml:"skip_executable_check"`
}

// RunConfig tunes the sequencer.
type RunConfig struct {
	// StepDelay pauses at each yield point so progress stays readable
	StepDelay time.Duration `mapstructure:"step_delay" yaml:"step_delay"`

	OutputRoot string `mapstructure:"output_root" yaml:"output_root"`

	// RestoreTimeout bounds how long the CLI waits for the restore (0 = no limit)
	RestoreTimeout time.Duration `mapstructure:"restore_timeout" yaml:"restore_timeout"`
}

// HistoryConfig configures run history persistence.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Limit   int    `mapstructure:"limit" yaml:"limit"`
}

// RedactionConfig controls secret scrubbing of build tool output.
type RedactionConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Patterns are extra regular expressions; a (?P<secret>...) group limits
	// the replacement to that group
	Patterns []string `mapstructure:"patterns" yaml:"patterns"`

	HashMode        bool   `mapstructure:"hash_mode" yaml:"hash_mode"`
	Salt            string `mapstructure:"salt" yaml:"salt"`
	DisableGitleaks bool   `mapstructure:"disable_gitleaks" yaml:"disable_gitleaks"`
}

// DefaultBackendArgs drive a Unity editor in batch mode.
var DefaultBackendArgs = []string{
	"-batchmode",
	"-quit",
	"-projectPath", "{{.ProjectPath}}",
	"-buildTarget", "{{.Target}}",
	"-executeMethod", "MultiBuild.BuildFromCommandLine",
	"-multibuildOutput", "{{.OutputPath}}",
	"-multibuildOptions", "{{.Options}}",
	"-multibuildScenes", `{{join .Modules ","}}`,
	"-logFile", "-",
}

// DefaultConfig returns a Config with defaults for all fields.
// This is used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Path:         ".",
			SettingsFile: "multibuild.yaml",
		},
		Backend: BackendConfig{
			Executable:      "unity",
			Args:            append([]string(nil), DefaultBackendArgs...),
			AppendTargets:   []string{values.TargetIOS.String()},
			DiagnosticLines: 40,
			Env:             []string{},
		},
		Platforms: PlatformsConfig{
			Installed: []string{},
		},
		Run: RunConfig{
			StepDelay:      0, // no pause between steps
			OutputRoot:     catalog.DefaultOutputRoot,
			RestoreTimeout: 5 * time.Minute,
		},
		History: HistoryConfig{
			Enabled: true,
			Dir:     filepath.Join(".multibuild", "runs"),
			Limit:   20,
		},
		Redaction: RedactionConfig{
			Enabled:  true,
			Patterns: []string{},
		},
	}
}

// SettingsPath returns the project settings file location.
func (c *Config) SettingsPath() string {
	if filepath.IsAbs(c.Project.SettingsFile) {
		return c.Project.SettingsFile
	}
	return filepath.Join(c.Project.Path, c.Project.SettingsFile)
}

// HistoryPath returns the run history directory, relative to the project unless absolute.
func (c *Config) HistoryPath() string {
	if filepath.IsAbs(c.History.Dir) {
		return c.History.Dir
	}
	return filepath.Join(c.Project.Path, c.History.Dir)
}

// Validate checks field values that cannot be expressed as defaults.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Backend.Executable) == "" {
		errs = append(errs, errors.New("backend.executable must not be empty"))
	}
	if c.Backend.DiagnosticLines < 0 {
		errs = append(errs, fmt.Errorf("backend.diagnostic_lines must not be negative, got %d", c.Backend.DiagnosticLines))
	}
	if _, err := values.ParseTargets(c.Backend.AppendTargets); err != nil {
		errs = append(errs, fmt.Errorf("backend.append_targets: %w", err))
	}
	if _, err := values.ParseTargets(c.Platforms.Installed); err != nil {
		errs = append(errs, fmt.Errorf("platforms.installed: %w", err))
	}
	if c.Run.StepDelay < 0 {
		errs = append(errs, fmt.Errorf("run.step_delay must not be negative, got %s", c.Run.StepDelay))
	}
	if c.History.Limit <= 0 {
		errs = append(errs, fmt.Errorf("history.limit must be positive, got %d", c.History.Limit))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ConfigLoader loads tool configuration through viper.
type ConfigLoader struct {
	v *viper.Viper
}

// NewConfigLoader creates a loader backed by v. A nil v gets a fresh instance.
func NewConfigLoader(v *viper.Viper) *ConfigLoader {
	if v == nil {
		v = viper.New()
	}
	return &ConfigLoader{v: v}
}

// Load reads the configuration from path, or searches the working directory
// and then $HOME for .multibuild.yaml when path is empty. A missing file is
// not an error: defaults and environment overrides still apply.
func (l *ConfigLoader) Load(path string) (*Config, error) {
	v := l.v
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := l.readConfig(path); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *ConfigLoader) readConfig(path string) error {
	v := l.v

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// ConfigFileUsed returns the file Load read, if any.
func (l *ConfigLoader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("project.path", d.Project.Path)
	v.SetDefault("project.settings_file", d.Project.SettingsFile)

	v.SetDefault("backend.executable", d.Backend.Executable)
	v.SetDefault("backend.args", d.Backend.Args)
	v.SetDefault("backend.append_targets", d.Backend.AppendTargets)
	v.SetDefault("backend.diagnostic_lines", d.Backend.DiagnosticLines)
	v.SetDefault("backend.env", d.Backend.Env)

	v.SetDefault("platforms.installed", d.Platforms.Installed)
	v.SetDefault("platforms.skip_executable_check", d.Platforms.SkipExecutableCheck)

	v.SetDefault("run.step_delay", d.Run.StepDelay)
	v.SetDefault("run.output_root", d.Run.OutputRoot)
	v.SetDefault("run.restore_timeout", d.Run.RestoreTimeout)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.dir", d.History.Dir)
	v.SetDefault("history.limit", d.History.Limit)

	v.SetDefault("redaction.enabled", d.Redaction.Enabled)
	v.SetDefault("redaction.patterns", d.Redaction.Patterns)
	v.SetDefault("redaction.hash_mode", d.Redaction.HashMode)
	v.SetDefault("redaction.salt", d.Redaction.Salt)
	v.SetDefault("redaction.disable_gitleaks", d.Redaction.DisableGitleaks)
}
