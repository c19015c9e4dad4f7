// Package container provides dependency injection for the application.
package container

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/rv-tools/multibuild/internal/application/ports"
	"github.com/rv-tools/multibuild/internal/application/services"
	"github.com/rv-tools/multibuild/internal/domain/values"
	"github.com/rv-tools/multibuild/internal/infrastructure/backend"
	"github.com/rv-tools/multibuild/internal/infrastructure/discovery"
	"github.com/rv-tools/multibuild/internal/infrastructure/output"
	"github.com/rv-tools/multibuild/internal/infrastructure/persistence/filesystem"
	"github.com/rv-tools/multibuild/internal/infrastructure/persistence/memory"
	"github.com/rv-tools/multibuild/internal/infrastructure/progress"
	"github.com/rv-tools/multibuild/internal/infrastructure/redaction"
	"github.com/rv-tools/multibuild/internal/infrastructure/settings"
	"github.com/rv-tools/multibuild/internal/infrastructure/system"
)

// Container holds all application dependencies.
type Container struct {
	cfg        *system.Config
	settings   *settings.Store
	discovery  *discovery.Discovery
	tracker    *progress.Tracker
	repository ports.RunRepository
	formatters *output.FormatterFactory
	selector   *services.TargetSelector
	sequencer  *services.Sequencer

	buildTargetsUseCase *services.BuildTargetsUseCase

	unsubscribe func()
	logger      *slog.Logger
}

// Options configure the container.
type Options struct {
	Logger *slog.Logger

	// Config is used as-is when set; otherwise it is loaded from ConfigPath.
	Config     *system.Config
	ConfigPath string

	// ProgressWriter receives rendered progress lines. Nil disables rendering.
	ProgressWriter io.Writer
	Color          bool

	// BackendOutput mirrors the build tool's output. Nil keeps it quiet.
	BackendOutput io.Writer

	ToolVersion string
}

// New creates a new dependency injection container.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg := opts.Config
	if cfg == nil {
		loader := system.NewConfigLoader(viper.New())
		loaded, err := loader.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		if used := loader.ConfigFileUsed(); used != "" {
			opts.Logger.Debug("using config file", "file", used)
		}
		cfg = loaded
	}

	// Config.Validate has already vetted both lists
	installed, err := values.ParseTargets(cfg.Platforms.Installed)
	if err != nil {
		return nil, fmt.Errorf("platforms.installed: %w", err)
	}
	appendTargets, err := values.ParseTargets(cfg.Backend.AppendTargets)
	if err != nil {
		return nil, fmt.Errorf("backend.append_targets: %w", err)
	}

	disc := discovery.New(discovery.Config{
		Installed:           installed,
		Executable:          cfg.Backend.Executable,
		SkipExecutableCheck: cfg.Platforms.SkipExecutableCheck,
	})

	// The project settings double as the environment whose active target is switched
	store, err := settings.NewStore(cfg.SettingsPath(),
		settings.WithDefaultTarget(disc.HostTarget()),
		settings.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}

	backendOpts := []backend.Option{
		backend.WithProject(store),
		backend.WithLogger(opts.Logger),
	}
	var redactor *redaction.Redactor
	if cfg.Redaction.Enabled {
		redactor, err = redaction.New(redaction.Config{
			Patterns:        cfg.Redaction.Patterns,
			HashMode:        cfg.Redaction.HashMode,
			Salt:            cfg.Redaction.Salt,
			DisableGitleaks: cfg.Redaction.DisableGitleaks,
		})
		if err != nil {
			return nil, err
		}
		backendOpts = append(backendOpts, backend.WithScrubber(redactor))
	}
	if opts.BackendOutput != nil {
		out := opts.BackendOutput
		if redactor != nil {
			out = redaction.NewWriter(out, redactor)
		}
		backendOpts = append(backendOpts, backend.WithOutput(out))
	}
	cmd, err := backend.NewCommand(backend.Config{
		Executable:      cfg.Backend.Executable,
		Args:            cfg.Backend.Args,
		AppendTargets:   appendTargets,
		DiagnosticLines: cfg.Backend.DiagnosticLines,
		Env:             cfg.Backend.Env,
		ProjectPath:     cfg.Project.Path,
	}, backendOpts...)
	if err != nil {
		return nil, err
	}

	tracker := progress.NewTracker()
	unsubscribe := func() {}
	if opts.ProgressWriter != nil {
		unsubscribe = tracker.Subscribe(progress.NewRenderer(opts.ProgressWriter, opts.Color).Handle)
	}

	var repository ports.RunRepository
	if cfg.History.Enabled {
		repository = filesystem.NewRunResultRepository(cfg.HistoryPath(), opts.Logger)
	} else {
		repository = memory.NewRunResultRepository()
	}

	sequencer := services.NewSequencer(cmd, store, store, tracker,
		services.WithOutputRoot(cfg.Run.OutputRoot),
		services.WithStepDelay(cfg.Run.StepDelay),
		services.WithToolVersion(opts.ToolVersion),
		services.WithSequencerLogger(opts.Logger),
	)
	selector := services.NewTargetSelector(opts.Logger,
		services.WithSelectionOutputRoot(cfg.Run.OutputRoot))

	buildTargetsUseCase := services.NewBuildTargetsUseCase(
		disc,
		store,
		selector,
		sequencer,
		repository,
		opts.Logger,
	)

	return &Container{
		cfg:                 cfg,
		settings:            store,
		discovery:           disc,
		tracker:             tracker,
		repository:          repository,
		formatters:          output.NewFormatterFactory(),
		selector:            selector,
		sequencer:           sequencer,
		buildTargetsUseCase: buildTargetsUseCase,
		unsubscribe:         unsubscribe,
		logger:              opts.Logger,
	}, nil
}

// BuildTargetsUseCase returns the build use case.
func (c *Container) BuildTargetsUseCase() *services.BuildTargetsUseCase {
	return c.buildTargetsUseCase
}

// Settings returns the project settings store.
func (c *Container) Settings() *settings.Store {
	return c.settings
}

// Discovery returns the platform discovery.
func (c *Container) Discovery() *discovery.Discovery {
	return c.discovery
}

// Selector returns the target selector.
func (c *Container) Selector() *services.TargetSelector {
	return c.selector
}

// Progress returns the progress tracker the sequencer reports to.
func (c *Container) Progress() *progress.Tracker {
	return c.tracker
}

// RunRepository returns the run history repository.
func (c *Container) RunRepository() ports.RunRepository {
	return c.repository
}

// FormatterFactory returns the output formatter factory.
func (c *Container) FormatterFactory() ports.OutputFormatterFactory {
	return c.formatters
}

// SystemConfig returns the system configuration.
func (c *Container) SystemConfig() *system.Config {
	return c.cfg
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Close detaches the progress renderer.
func (c *Container) Close() {
	c.unsubscribe()
}
