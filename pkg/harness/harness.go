// Package harness negotiates a test run with the controller and reports its result.
package harness

import (
	"context"
	"sync"

	"github.com/juju/errors"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mumoshu/fmharness/pkg/api/step"
	"github.com/mumoshu/fmharness/pkg/filesapp"
	"github.com/mumoshu/fmharness/pkg/remote"
	"github.com/mumoshu/fmharness/pkg/runner"
	"github.com/mumoshu/fmharness/pkg/testcase"
)

// ErrNotTargeted is returned when the controller runs the test in the other
// guest mode. The matching app instance reports the result instead.
var ErrNotTargeted = pkgerrors.New("this app instance is not targeted by the test")

type Harness struct {
	Controller remote.Controller
	App        *filesapp.App
	Registry   *testcase.Registry

	// Incognito is whether this app instance runs in guest mode.
	Incognito bool
	// TestName skips asking the controller for the test name when set.
	TestName string

	Logger *log.Entry
	// RunOptions are applied to every runner the harness starts.
	RunOptions []runner.Option
}

type session struct {
	h      *Harness
	ctx    context.Context
	env    testcase.Environment
	logger *log.Entry

	mu   sync.Mutex
	name string
	sink *reportingSink
}

func (s *session) dispatched() (string, *reportingSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, s.sink
}

// Run performs the handshake, dispatches the test case and reports its result.
// It returns the name of the test case and the error that failed it.
func (h *Harness) Run(ctx context.Context) (string, error) {
	if h.Controller == nil {
		return "", errors.New("harness has no controller")
	}
	registry := h.Registry
	if registry == nil {
		registry = testcase.Default
	}
	logger := h.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	s := &session{h: h, ctx: ctx, env: testcase.Environment{App: h.App}, logger: logger}

	steps := []step.Func{
		s.negotiateGuestMode,
		s.fetchRootPaths,
		s.fetchTestName,
		s.dispatch(registry),
	}

	opts := append(append([]runner.Option{}, h.RunOptions...), runner.WithLogger(logger.WithField("phase", "handshake")))
	handshake := runner.Run(steps, step.Discard, opts...)

	err := handshake.Wait(ctx)

	if pkgerrors.Cause(err) == ErrNotTargeted {
		logger.Infof("guest mode is not %v, leaving the test to the other instance", h.Incognito)
		return "", ErrNotTargeted
	}

	name, sink := s.dispatched()
	if sink == nil {
		return name, errors.Annotate(err, "handshake failed")
	}

	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		sink.Fail(ctxErr.Error())
		if pkgerrors.Cause(err) == ctxErr {
			err = ctxErr
		}
	}

	if rerr := sink.reportErr(); rerr != nil {
		return name, errors.Annotatef(rerr, "reporting result of %s", name)
	}

	return name, err
}

func (s *session) negotiateGuestMode(next step.Next, _ ...interface{}) error {
	step.GoValue(next, func() (interface{}, error) {
		guest, err := s.h.Controller.IsInGuestMode(s.ctx)
		if err != nil {
			return nil, errors.Annotate(err, "isInGuestMode")
		}
		if guest != s.h.Incognito {
			return nil, ErrNotTargeted
		}
		return guest, nil
	})
	return nil
}

func (s *session) fetchRootPaths(next step.Next, args ...interface{}) error {
	s.env.GuestMode = args[0].(bool)
	step.GoValue(next, func() (interface{}, error) {
		roots, err := s.h.Controller.GetRootPaths(s.ctx)
		if err != nil {
			return nil, errors.Annotate(err, "getRootPaths")
		}
		return roots, nil
	})
	return nil
}

func (s *session) fetchTestName(next step.Next, args ...interface{}) error {
	s.env.Roots = args[0].(remote.RootPaths)
	if s.h.TestName != "" {
		return next.Call(s.h.TestName)
	}
	step.GoValue(next, func() (interface{}, error) {
		name, err := s.h.Controller.GetTestName(s.ctx)
		if err != nil {
			return nil, errors.Annotate(err, "getTestName")
		}
		return name, nil
	})
	return nil
}

func (s *session) dispatch(registry *testcase.Registry) step.Func {
	return func(next step.Next, args ...interface{}) error {
		name := args[0].(string)
		sink := newReportingSink(s.ctx, s.h.Controller, name)

		s.mu.Lock()
		s.name, s.sink = name, sink
		s.mu.Unlock()

		env := s.env
		opts := append(append([]runner.Option{}, s.h.RunOptions...), runner.WithLogger(s.logger.WithField("test", name)))
		step.Go(next, func() error {
			return registry.Dispatch(s.ctx, name, env, sink, opts...)
		})
		return nil
	}
}
