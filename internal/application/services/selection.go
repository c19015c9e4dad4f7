package services

import (
	"fmt"
	"log/slog"

	"github.com/rv-tools/multibuild/internal/application/dto"
	apperrors "github.com/rv-tools/multibuild/internal/application/errors"
	"github.com/rv-tools/multibuild/internal/domain/build"
	"github.com/rv-tools/multibuild/internal/domain/catalog"
	domainservices "github.com/rv-tools/multibuild/internal/domain/services"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// TargetSelector turns operator selection options into a build selection.
type TargetSelector struct {
	outputRoot string
	logger     *slog.Logger
}

// SelectorOption configures a TargetSelector.
type SelectorOption func(*TargetSelector)

// WithSelectionOutputRoot sets the root the filter's "output" variable is
// resolved under. It should match the sequencer's output root.
func WithSelectionOutputRoot(root string) SelectorOption {
	return func(s *TargetSelector) { s.outputRoot = root }
}

// NewTargetSelector creates a new target selector.
func NewTargetSelector(logger *slog.Logger, opts ...SelectorOption) *TargetSelector {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TargetSelector{
		outputRoot: catalog.DefaultOutputRoot,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select resolves opts against the supported targets.
//
// Explicit targets are returned in the given order with duplicates kept, and
// cannot be combined with the group, exclusion or expression filters. Otherwise every supported target is considered in catalog order and
// narrowed by the group, exclusion and expression filters.
func (s *TargetSelector) Select(supported []values.Target, opts dto.SelectionOptions, productName string) (build.Selection, error) {
	supportedSet := make(map[values.Target]bool, len(supported))
	for _, t := range supported {
		supportedSet[t] = true
	}

	if len(opts.Targets) > 0 {
		if conflicting := filterFlags(opts); len(conflicting) > 0 {
			return nil, apperrors.NewValidationError("target",
				fmt.Sprintf("explicit targets cannot be combined with %v", conflicting), conflicting...)
		}
		return s.selectExplicit(supportedSet, opts.Targets)
	}

	filter, err := s.buildFilter(opts, productName)
	if err != nil {
		return nil, err
	}

	var selection build.Selection
	for _, t := range catalog.Targets() {
		if !supportedSet[t] {
			continue
		}
		if ok, reason := filter.ShouldBuild(t); !ok {
			s.logger.Debug("target filtered out", "target", t.String(), "reason", reason)
			continue
		}
		selection = append(selection, t)
	}
	return selection, nil
}

func (s *TargetSelector) selectExplicit(supported map[values.Target]bool, names []string) (build.Selection, error) {
	targets, err := values.ParseTargets(names)
	if err != nil {
		return nil, apperrors.NewValidationError("target", err.Error())
	}

	var unsupported []string
	for _, t := range targets {
		if !supported[t] {
			unsupported = append(unsupported, t.String())
		}
	}
	if len(unsupported) > 0 {
		return nil, apperrors.NewValidationError("target",
			fmt.Sprintf("target not supported on this host: %v", unsupported), unsupported...)
	}
	return build.Selection(targets), nil
}

func (s *TargetSelector) buildFilter(opts dto.SelectionOptions, productName string) (*domainservices.TargetFilter, error) {
	filter := domainservices.NewTargetFilter()

	if len(opts.ExcludeTargets) > 0 {
		excluded, err := values.ParseTargets(opts.ExcludeTargets)
		if err != nil {
			return nil, apperrors.NewValidationError("exclude-target", err.Error())
		}
		filter.WithExcludedTargets(excluded)
	}

	if len(opts.IncludeGroups) > 0 {
		groups := make([]values.Group, 0, len(opts.IncludeGroups))
		for _, name := range opts.IncludeGroups {
			g, err := values.ParseGroup(name)
			if err != nil {
				return nil, apperrors.NewValidationError("group", err.Error())
			}
			groups = append(groups, g)
		}
		filter.WithIncludedGroups(groups)
	}

	if opts.FilterExpression != "" {
		program, err := domainservices.CompileFilterExpression(opts.FilterExpression)
		if err != nil {
			return nil, apperrors.NewValidationError("filter", err.Error())
		}
		filter.WithFilterExpression(program, s.outputRoot, productName)
	}

	return filter, nil
}

// filterFlags names the filters set in opts.
func filterFlags(opts dto.SelectionOptions) []string {
	var set []string
	if len(opts.ExcludeTargets) > 0 {
		set = append(set, "exclude-target")
	}
	if len(opts.IncludeGroups) > 0 {
		set = append(set, "group")
	}
	if opts.FilterExpression != "" {
		set = append(set, "filter")
	}
	return set
}
