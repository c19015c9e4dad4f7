package build

import "fmt"

// Phase is the coarse lifecycle position of a run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// RunState tracks a run through Idle -> Running(0..n-1) -> Succeeded | Failed.
//
// Terminal phases are final, and the running index only ever moves forward
// by one, so a completed target can never be revisited.
type RunState struct {
	phase    Phase
	current  int
	total    int
	failedAt int
}

// NewRunState returns a state in PhaseIdle.
func NewRunState() *RunState {
	return &RunState{phase: PhaseIdle, current: -1, failedAt: -1}
}

// Phase returns the current phase.
func (s *RunState) Phase() Phase { return s.phase }

// Current returns the index being built, or -1 before the first target.
func (s *RunState) Current() int { return s.current }

// Total returns the number of targets in the run.
func (s *RunState) Total() int { return s.total }

// FailedAt returns the index that failed, or -1.
func (s *RunState) FailedAt() int { return s.failedAt }

// Begin moves Idle -> Running for a run of total targets.
func (s *RunState) Begin(total int) error {
	if s.phase != PhaseIdle {
		return fmt.Errorf("cannot begin run in phase %s", s.phase)
	}
	if total <= 0 {
		return fmt.Errorf("cannot begin run with %d targets", total)
	}
	s.phase = PhaseRunning
	s.total = total
	return nil
}

// Advance enters Running(i). i must be exactly one past the previous index.
func (s *RunState) Advance(i int) error {
	if s.phase != PhaseRunning {
		return fmt.Errorf("cannot advance to target %d in phase %s", i, s.phase)
	}
	if i != s.current+1 || i >= s.total {
		return fmt.Errorf("cannot advance from target %d to %d of %d", s.current, i, s.total)
	}
	s.current = i
	return nil
}

// Succeed enters PhaseSucceeded after the last target.
func (s *RunState) Succeed() error {
	if s.phase != PhaseRunning {
		return fmt.Errorf("cannot succeed in phase %s", s.phase)
	}
	if s.current != s.total-1 {
		return fmt.Errorf("cannot succeed at target %d of %d", s.current, s.total)
	}
	s.phase = PhaseSucceeded
	return nil
}

// Fail enters PhaseFailed at the current index.
func (s *RunState) Fail() error {
	if s.phase != PhaseRunning {
		return fmt.Errorf("cannot fail in phase %s", s.phase)
	}
	s.phase = PhaseFailed
	s.failedAt = s.current
	return nil
}

// Done reports whether the run reached a terminal phase.
func (s *RunState) Done() bool {
	return s.phase == PhaseSucceeded || s.phase == PhaseFailed
}
