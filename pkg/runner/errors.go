package runner

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyStarted is returned when Start is called on a used runner.
	ErrAlreadyStarted = errors.New("steps runner already started")

	// ErrAdvancedTwice is returned when a step's Next is used more than once.
	ErrAdvancedTwice = errors.New("step advanced more than once")

	// ErrRunFinished is returned by Next once the run is over.
	ErrRunFinished = errors.New("steps run already finished")
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Diagnose renders err for a Sink, including its stack trace when err carries one.
func Diagnose(err error) string {
	if err == nil {
		return ""
	}
	if _, ok := err.(stackTracer); ok {
		return fmt.Sprintf("%+v", err)
	}
	return err.Error()
}
