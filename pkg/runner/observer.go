package runner

import "time"

// Observer is notified as a run progresses. Implementations must be safe for
// concurrent use, as StepFinished may be called from a step's own goroutine.
type Observer interface {
	StepStarted(runID string, index int)
	StepFinished(runID string, index int, elapsed time.Duration, err error)
	RunFinished(runID string, state State, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) StepStarted(string, int)                        {}
func (nopObserver) StepFinished(string, int, time.Duration, error) {}
func (nopObserver) RunFinished(string, State, time.Duration)       {}
