// Package services holds domain logic that spans several values, such as target filtering.
package services

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rv-tools/multibuild/internal/domain/catalog"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// TargetEnv defines the variables available during filter expression evaluation.
type TargetEnv struct {
	Name   string `expr:"name"`
	Group  string `expr:"group"`
	Suffix string `expr:"suffix"`
	Output string `expr:"output"`
}

// NewTargetEnv builds the expression environment for a target whose output
// lives under outputRoot.
func NewTargetEnv(t values.Target, outputRoot, productName string) TargetEnv {
	return TargetEnv{
		Name:   t.String(),
		Group:  catalog.GroupOf(t).String(),
		Suffix: catalog.Suffix(t),
		Output: catalog.OutputPathIn(outputRoot, t, productName),
	}
}

// CompileFilterExpression compiles a boolean filter over TargetEnv.
func CompileFilterExpression(source string) (*vm.Program, error) {
	program, err := expr.Compile(source, expr.Env(TargetEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	return program, nil
}

// TargetFilter implements target selection logic based on groups, names, and expressions.
type TargetFilter struct {
	excludeTargets map[values.Target]bool
	includeGroups  map[values.Group]bool

	filterProgram *vm.Program
	outputRoot    string
	productName   string
}

// NewTargetFilter initializes a new empty filter.
func NewTargetFilter() *TargetFilter {
	return &TargetFilter{
		excludeTargets: make(map[values.Target]bool),
		includeGroups:  make(map[values.Group]bool),
	}
}

// WithExcludedTargets excludes specific targets.
func (f *TargetFilter) WithExcludedTargets(targets []values.Target) *TargetFilter {
	f.excludeTargets = toSet(targets)
	return f
}

// WithIncludedGroups includes only targets in any of these groups.
func (f *TargetFilter) WithIncludedGroups(groups []values.Group) *TargetFilter {
	f.includeGroups = toSet(groups)
	return f
}

// WithFilterExpression applies a compiled Expr program for advanced filtering.
// outputRoot and productName feed the "output" variable.
func (f *TargetFilter) WithFilterExpression(program *vm.Program, outputRoot, productName string) *TargetFilter {
	f.filterProgram = program
	f.outputRoot = outputRoot
	f.productName = productName
	return f
}

// ShouldBuild evaluates whether a target matches the filter criteria.
// It returns true if the target should be built, along with a reason if not.
func (f *TargetFilter) ShouldBuild(t values.Target) (bool, string) {
	var specs []TargetSpecification

	if len(f.excludeTargets) > 0 {
		specs = append(specs, NewExcludedTargetsSpecification(f.excludeTargets))
	}

	if len(f.includeGroups) > 0 {
		specs = append(specs, NewIncludedGroupsSpecification(f.includeGroups))
	}

	if f.filterProgram != nil {
		specs = append(specs, NewExpressionSpecification(f.filterProgram, f.outputRoot, f.productName))
	}

	return NewAndSpecification(specs...).IsSatisfiedBy(t)
}

func toSet[T comparable](slice []T) map[T]bool {
	s := make(map[T]bool, len(slice))
	for _, item := range slice {
		s[item] = true
	}
	return s
}
