// Package backend runs the external build tool for one target at a time.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/application/ports"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// waitDelay bounds how long output is drained after the tool is killed.
const waitDelay = 10 * time.Second

// Config describes how to invoke the build tool.
type Config struct {
	Executable string

	// Args are text/template strings rendered against TemplateData
	Args []string

	AppendTargets   []values.Target
	DiagnosticLines int
	Env             []string

	// ProjectPath is the working directory and the base for relative output paths
	ProjectPath string
}

// TemplateData is the value argument templates are rendered against.
type TemplateData struct {
	Target      string
	Group       string
	OutputPath  string
	Modules     []string
	Options     string
	ProjectPath string
	Version     string
}

var templateFuncs = template.FuncMap{
	"join":  strings.Join,
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
	"lower": strings.ToLower,
}

// Scrubber removes secrets from tool output.
type Scrubber interface {
	ScrubString(s string) string
}

// Command is a ports.BuildBackend that runs an external executable per target.
type Command struct {
	executable    string
	args          []*template.Template
	appendTargets map[values.Target]bool
	tailLines     int
	env           []string
	projectPath   string

	project  ports.ProjectSettings
	output   io.Writer
	scrubber Scrubber
	logger   *slog.Logger
}

// Option configures a Command.
type Option func(*Command)

// WithProject supplies the product version for the Version template field.
func WithProject(p ports.ProjectSettings) Option {
	return func(c *Command) { c.project = p }
}

// WithOutput mirrors the tool's combined output to w.
func WithOutput(w io.Writer) Option {
	return func(c *Command) { c.output = w }
}

// WithScrubber scrubs diagnostics and logged arguments with s. Mirrored
// output is written as-is, so callers wrap the WithOutput writer themselves.
func WithScrubber(s Scrubber) Option {
	return func(c *Command) { c.scrubber = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Command) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCommand parses the argument templates in cfg.
func NewCommand(cfg Config, opts ...Option) (*Command, error) {
	if strings.TrimSpace(cfg.Executable) == "" {
		return nil, apperrors.NewConfigurationError("backend", "executable is not set", nil)
	}

	args := make([]*template.Template, 0, len(cfg.Args))
	for i, src := range cfg.Args {
		tmpl, err := template.New(fmt.Sprintf("arg%d", i)).
			Funcs(templateFuncs).
			Option("missingkey=error").
			Parse(src)
		if err != nil {
			return nil, apperrors.NewConfigurationError("backend", fmt.Sprintf("invalid argument template %q", src), err)
		}
		args = append(args, tmpl)
	}

	appendTargets := make(map[values.Target]bool, len(cfg.AppendTargets))
	for _, t := range cfg.AppendTargets {
		appendTargets[t] = true
	}

	projectPath := cfg.ProjectPath
	if projectPath == "" {
		projectPath = "."
	}

	c := &Command{
		executable:    cfg.Executable,
		args:          args,
		appendTargets: appendTargets,
		tailLines:     cfg.DiagnosticLines,
		env:           cfg.Env,
		projectPath:   projectPath,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Executable returns the configured executable.
func (c *Command) Executable() string {
	return c.executable
}

// CanAppend reports whether target may append to an output already at path.
func (c *Command) CanAppend(target values.Target, path string) bool {
	if !c.appendTargets[target] {
		return false
	}
	_, err := os.Stat(c.resolve(path))
	return err == nil
}

// Build runs the tool for cfg and blocks until it exits.
//
// A non-zero exit is an unsuccessful Outcome, not an error. Errors are
// reserved for a tool that could not be started or was interrupted.
func (c *Command) Build(ctx context.Context, cfg build.Configuration) (build.Outcome, error) {
	args, err := c.renderArgs(ctx, cfg)
	if err != nil {
		return build.Outcome{}, err
	}

	//nolint:gosec // G301: build outputs are shared artifacts
	if err := os.MkdirAll(filepath.Dir(c.resolve(cfg.OutputPath)), 0o755); err != nil {
		return build.Outcome{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	//nolint:gosec // G204: executable and arguments come from the operator's own config
	cmd := exec.CommandContext(ctx, c.executable, args...)
	cmd.Dir = c.projectPath
	cmd.WaitDelay = waitDelay
	cmd.Env = append(os.Environ(), c.env...)

	tail := NewTailBuffer(c.tailLines)
	var out io.Writer = tail
	if c.output != nil {
		out = io.MultiWriter(tail, c.output)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	c.logger.Debug("running build tool",
		"executable", c.executable,
		"args", c.scrubArgs(args),
		"target", cfg.Target.String())

	start := time.Now()
	runErr := cmd.Run()
	if f, ok := c.output.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	outcome := build.Outcome{
		Elapsed:     time.Since(start),
		Diagnostics: c.scrub(tail.String()),
	}

	if runErr == nil {
		outcome.Succeeded = true
		return outcome, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome, fmt.Errorf("build tool interrupted: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		c.logger.Debug("build tool exited with failure",
			"target", cfg.Target.String(),
			"exit_code", exitErr.ExitCode(),
			"dropped_lines", tail.Dropped())
		return outcome, nil
	}

	return outcome, fmt.Errorf("failed to run %s: %w", c.executable, runErr)
}

func (c *Command) renderArgs(ctx context.Context, cfg build.Configuration) ([]string, error) {
	data := TemplateData{
		Target:      cfg.Target.String(),
		Group:       cfg.Group.String(),
		OutputPath:  cfg.OutputPath,
		Modules:     cfg.Modules,
		Options:     cfg.Options.String(),
		ProjectPath: c.projectPath,
	}
	if c.project != nil {
		if v, err := c.project.ProductVersion(ctx); err == nil {
			data.Version = v
		}
	}

	args := make([]string, 0, len(c.args))
	var buf bytes.Buffer
	for _, tmpl := range c.args {
		buf.Reset()
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, apperrors.NewConfigurationError("backend", "failed to render argument", err)
		}
		args = append(args, buf.String())
	}
	return args, nil
}

func (c *Command) scrub(s string) string {
	if c.scrubber == nil {
		return s
	}
	return c.scrubber.ScrubString(s)
}

func (c *Command) scrubArgs(args []string) []string {
	if c.scrubber == nil {
		return args
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = c.scrubber.ScrubString(a)
	}
	return out
}

func (c *Command) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.projectPath, path)
}
