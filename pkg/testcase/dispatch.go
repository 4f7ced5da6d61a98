package testcase

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mumoshu/fmharness/pkg/api/step"
	"github.com/mumoshu/fmharness/pkg/runner"
)

// ErrNotFound is returned by Dispatch for a name no test case is registered under.
var ErrNotFound = errors.New("test case not found")

// Dispatch runs the test case registered under n against env. The sink
// receives its outcome, and Dispatch returns once the run is over or ctx is done.
func (r *Registry) Dispatch(ctx context.Context, n string, env Environment, sink step.Sink, opts ...runner.Option) error {
	if sink == nil {
		sink = step.Discard
	}

	registered, fn, ok := r.Lookup(n)
	if !ok {
		sink.Fail(fmt.Sprintf("%s is not found.", n))
		return errors.Wrapf(ErrNotFound, "%s", n)
	}

	steps := fn(ctx, env)
	run := runner.New(steps, sink, opts...)
	run.Logger().WithField("test", registered).Infof("running test case %s with %d steps", registered, len(steps))
	if err := run.Start(); err != nil {
		return err
	}

	return run.Wait(ctx)
}

// Dispatch runs a test case from the Default registry.
func Dispatch(ctx context.Context, n string, env Environment, sink step.Sink, opts ...runner.Option) error {
	return Default.Dispatch(ctx, n, env, sink, opts...)
}
