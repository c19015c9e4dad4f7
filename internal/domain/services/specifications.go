package services

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rv-tools/multibuild/internal/domain/catalog"
	"github.com/rv-tools/multibuild/internal/domain/values"
)

// TargetSpecification defines a condition that a target must meet.
type TargetSpecification interface {
	// IsSatisfiedBy checks if the target meets the specification.
	// Returns true if satisfied, along with a reason if not (or empty if satisfied).
	IsSatisfiedBy(t values.Target) (bool, string)
}

// AndSpecification combines multiple specifications with logical AND.
type AndSpecification struct {
	specs []TargetSpecification
}

// NewAndSpecification creates a new AndSpecification.
func NewAndSpecification(specs ...TargetSpecification) *AndSpecification {
	return &AndSpecification{specs: specs}
}

// IsSatisfiedBy checks if all specifications are satisfied.
func (s *AndSpecification) IsSatisfiedBy(t values.Target) (bool, string) {
	for _, spec := range s.specs {
		if satisfied, reason := spec.IsSatisfiedBy(t); !satisfied {
			return false, reason
		}
	}
	return true, ""
}

// ExcludedTargetsSpecification excludes specified targets.
type ExcludedTargetsSpecification struct {
	targets map[values.Target]bool
}

// NewExcludedTargetsSpecification creates a new ExcludedTargetsSpecification.
func NewExcludedTargetsSpecification(targets map[values.Target]bool) *ExcludedTargetsSpecification {
	return &ExcludedTargetsSpecification{targets: targets}
}

// IsSatisfiedBy checks if the target is NOT in the excluded list.
func (s *ExcludedTargetsSpecification) IsSatisfiedBy(t values.Target) (bool, string) {
	if s.targets[t] {
		return false, "excluded by --exclude-target"
	}
	return true, ""
}

// IncludedGroupsSpecification includes only targets in the specified groups.
type IncludedGroupsSpecification struct {
	groups map[values.Group]bool
}

// NewIncludedGroupsSpecification creates a new IncludedGroupsSpecification.
func NewIncludedGroupsSpecification(groups map[values.Group]bool) *IncludedGroupsSpecification {
	return &IncludedGroupsSpecification{groups: groups}
}

// IsSatisfiedBy checks if the target's group is in the included list.
func (s *IncludedGroupsSpecification) IsSatisfiedBy(t values.Target) (bool, string) {
	if len(s.groups) == 0 {
		return true, ""
	}
	if !s.groups[catalog.GroupOf(t)] {
		return false, "excluded by --group filter"
	}
	return true, ""
}

// ExpressionSpecification filters targets using an expr program.
type ExpressionSpecification struct {
	program     *vm.Program
	outputRoot  string
	productName string
}

// NewExpressionSpecification creates a new ExpressionSpecification.
func NewExpressionSpecification(program *vm.Program, outputRoot, productName string) *ExpressionSpecification {
	return &ExpressionSpecification{program: program, outputRoot: outputRoot, productName: productName}
}

// IsSatisfiedBy evaluates the expr program against the target.
func (s *ExpressionSpecification) IsSatisfiedBy(t values.Target) (bool, string) {
	if s.program == nil {
		return true, ""
	}

	output, err := expr.Run(s.program, NewTargetEnv(t, s.outputRoot, s.productName))
	if err != nil {
		return false, fmt.Sprintf("filter expression error: %v", err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Sprintf("filter expression did not return boolean: %v", output)
	}

	if !result {
		return false, "excluded by --filter expression"
	}

	return true, ""
}
