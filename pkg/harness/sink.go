package harness

import (
	"context"
	"sync"

	"github.com/mumoshu/fmharness/pkg/remote"
)

// reportingSink forwards the first outcome it receives to the controller.
type reportingSink struct {
	ctx        context.Context
	controller remote.Controller
	name       string

	mu       sync.Mutex
	reported bool
	err      error
}

func newReportingSink(ctx context.Context, controller remote.Controller, name string) *reportingSink {
	return &reportingSink{ctx: ctx, controller: controller, name: name}
}

func (s *reportingSink) Succeed() {
	s.report(true, "")
}

func (s *reportingSink) Fail(diagnostic string) {
	s.report(false, diagnostic)
}

func (s *reportingSink) report(passed bool, diagnostic string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.reported {
		return
	}
	s.reported = true

	// The run context may already be over when reporting a timeout.
	s.err = s.controller.ReportResult(context.WithoutCancel(s.ctx), s.name, passed, diagnostic)
}

func (s *reportingSink) reportErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
