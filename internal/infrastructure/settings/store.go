// Package settings provides the file-backed project settings the sequencer
// builds from, and the active target it switches between.
package settings

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-yaml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/rv-tools/multibuild/internal/domain/values"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "settings.schema.json"

// Document is the on-disk settings file.
type Document struct {
	ProductName  string   `yaml:"product_name"`
	Version      string   `yaml:"version,omitempty"`
	ActiveTarget string   `yaml:"active_target,omitempty"`
	Modules      []Module `yaml:"modules"`
}

// Module is one input module (a scene, for Unity projects).
type Module struct {
	Path string `yaml:"path"`
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the module takes part in builds.
func (m Module) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// Store reads and writes a settings file.
// It implements ports.Environment and ports.ProjectSettings.
type Store struct {
	path          string
	defaultTarget values.Target
	schema        *jsonschema.Schema
	logger        *slog.Logger

	// mu serializes read-modify-write cycles on the file.
	mu sync.Mutex
	// implicitDefault is set once the default target was reported for a
	// file that names none.
	implicitDefault bool
}

// Option configures a Store.
type Option func(*Store)

// WithDefaultTarget is reported as active when the file sets none.
func WithDefaultTarget(t values.Target) Option {
	return func(s *Store) { s.defaultTarget = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore creates a store for the settings file at path.
func NewStore(path string, opts ...Option) (*Store, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:   path,
		schema: schema,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add settings schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile settings schema: %w", err)
	}
	return schema, nil
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads and validates the settings file.
func (s *Store) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("settings file not found: %s", s.path)
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if err := s.validate(data); err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if doc.Version != "" {
		if _, err := semver.StrictNewVersion(doc.Version); err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", doc.Version, err)
		}
	}
	if doc.ActiveTarget != "" {
		if _, err := values.ParseTarget(doc.ActiveTarget); err != nil {
			return nil, fmt.Errorf("invalid active_target: %w", err)
		}
	}

	return &doc, nil
}

// validate checks raw YAML against the embedded schema.
func (s *Store) validate(data []byte) error {
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	var instance any
	if err := json.Unmarshal(jsonData, &instance); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	if err := s.schema.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return formatValidationError(validationErr)
		}
		return fmt.Errorf("settings validation failed: %w", err)
	}
	return nil
}

// formatValidationError flattens a schema error tree into one message.
func formatValidationError(err *jsonschema.ValidationError) error {
	var messages []string

	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 && e.Message != "" {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(err)

	if len(messages) == 0 {
		return fmt.Errorf("settings validation failed")
	}
	return fmt.Errorf("settings validation failed:\n    - %s", strings.Join(messages, "\n    - "))
}

// save writes doc atomically next to the settings file.
func (s *Store) save(doc *Document) error {
	if doc.Modules == nil {
		doc.Modules = []Module{}
	}
	data, err := yaml.MarshalWithOptions(doc, yaml.IndentSequence(true))
	if err != nil {
		return fmt.Errorf("failed to marshal settings to YAML: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".multibuild-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	//nolint:gosec // G302: settings are project files checked into source control
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set settings file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}

// ActiveTarget returns the target the project is currently configured for.
// A file without active_target reports the default target, and a later
// switch back to that default clears the field again instead of writing it.
func (s *Store) ActiveTarget(ctx context.Context) (values.Target, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return "", err
	}
	if doc.ActiveTarget == "" {
		if s.defaultTarget.IsZero() {
			return "", fmt.Errorf("no active target set in %s", s.path)
		}
		s.implicitDefault = true
		return s.defaultTarget, nil
	}

	target, err := values.ParseTarget(doc.ActiveTarget)
	if err != nil {
		return "", err
	}
	if target == s.defaultTarget {
		s.implicitDefault = false
	}
	return target, nil
}

// SwitchActiveTarget records target as active and returns once it is written.
func (s *Store) SwitchActiveTarget(ctx context.Context, target values.Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	want := target.String()
	if !s.defaultTarget.IsZero() && target == s.defaultTarget {
		if doc.ActiveTarget == "" {
			return nil
		}
		if s.implicitDefault {
			want = ""
		}
	}
	if doc.ActiveTarget == want {
		return nil
	}

	previous := doc.ActiveTarget
	doc.ActiveTarget = want
	if err := s.save(doc); err != nil {
		return err
	}

	s.logger.Debug("active target switched", "from", previous, "to", target.String())
	return nil
}

// SwitchActiveTargetAsync performs SwitchActiveTarget in the background.
// The returned channel receives the result once and is then closed.
func (s *Store) SwitchActiveTargetAsync(target values.Target) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.SwitchActiveTarget(context.Background(), target)
	}()
	return done
}

// EnabledModules returns the paths of enabled modules in file order.
// Entries with an empty path are skipped.
func (s *Store) EnabledModules(ctx context.Context) ([]string, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	modules := make([]string, 0, len(doc.Modules))
	for _, m := range doc.Modules {
		if m.IsEnabled() && strings.TrimSpace(m.Path) != "" {
			modules = append(modules, m.Path)
		}
	}
	return modules, nil
}

// ProductName returns the product name used for output file names.
func (s *Store) ProductName(ctx context.Context) (string, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	return doc.ProductName, nil
}

// ProductVersion returns the product version, or "" when unset.
func (s *Store) ProductVersion(ctx context.Context) (string, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	return doc.Version, nil
}

// Init writes a new settings file. It fails if one already exists.
func (s *Store) Init(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("settings file already exists: %s", s.path)
	}
	//nolint:gosec // G301: project directories are world-readable
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	return s.save(doc)
}
