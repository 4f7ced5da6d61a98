package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/mumoshu/fmharness/pkg/api/step"
)

// StepsRunner executes a fixed sequence of steps one at a time.
//
// Step i+1 is entered only after step i called its Next. Every step body runs
// on the runner's own goroutine; the asynchronous part of a step may call Next
// from any goroutine. The sink receives exactly one result per run.
type StepsRunner struct {
	id       string
	steps    []step.Func
	sink     step.Sink
	logger   *log.Entry
	observer Observer

	mu      sync.Mutex
	state   State
	cursor  int
	misuse  error
	err     error
	signals chan signal
	done    chan struct{}
	started time.Time
}

type signal struct {
	index   int
	results []interface{}
	err     error
}

type Option func(*StepsRunner)

func WithLogger(logger *log.Entry) Option {
	return func(r *StepsRunner) {
		r.logger = logger
	}
}

func WithObserver(o Observer) Option {
	return func(r *StepsRunner) {
		if o != nil {
			r.observer = o
		}
	}
}

func WithID(id string) Option {
	return func(r *StepsRunner) {
		r.id = id
	}
}

// New creates a runner over a copy of steps. The run does not begin until Start.
func New(steps []step.Func, sink step.Sink, opts ...Option) *StepsRunner {
	if sink == nil {
		sink = step.Discard
	}
	r := &StepsRunner{
		id:       uuid.NewString(),
		steps:    append([]step.Func(nil), steps...),
		sink:     sink,
		observer: nopObserver{},
		state:    Pending,
		// One pending advance plus at most one misuse report, so sends never block.
		signals: make(chan signal, 2),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = log.NewEntry(log.StandardLogger())
	}
	r.logger = r.logger.WithFields(log.Fields{"run_id": r.id})
	return r
}

// Run creates a runner and starts it.
func Run(steps []step.Func, sink step.Sink, opts ...Option) *StepsRunner {
	r := New(steps, sink, opts...)
	r.Start()
	return r
}

// Start begins executing the steps. A runner can only be started once.
func (r *StepsRunner) Start() error {
	r.mu.Lock()
	if r.state != Pending {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.state = Running
	r.started = time.Now()
	r.mu.Unlock()

	r.logger.Debugf("steps runner started with %d steps", len(r.steps))

	go r.loop()

	return nil
}

// Wait blocks until the run is over or ctx is done, whichever comes first.
// It returns the error that failed the run, or ctx.Err() if the run is still going.
// Giving up on waiting does not stop the run.
func (r *StepsRunner) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the run reached a terminal state.
func (r *StepsRunner) Done() <-chan struct{} {
	return r.done
}

func (r *StepsRunner) ID() string {
	return r.id
}

// Logger is the entry the runner logs with. It carries the run_id field.
func (r *StepsRunner) Logger() *log.Entry {
	return r.logger
}

func (r *StepsRunner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Cursor is the index of the next step to be entered.
func (r *StepsRunner) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

func (r *StepsRunner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *StepsRunner) loop() {
	defer close(r.done)

	var results []interface{}
	for {
		r.mu.Lock()
		misuse := r.misuse
		index := r.cursor
		if misuse == nil && index < len(r.steps) {
			r.cursor++
		}
		r.mu.Unlock()

		if misuse != nil {
			r.finish(misuse)
			return
		}

		if index == len(r.steps) {
			r.finish(nil)
			return
		}

		if err := r.enter(index, results); err != nil {
			r.finish(err)
			return
		}

		sig := <-r.signals
		if sig.err != nil {
			r.finish(sig.err)
			return
		}
		results = sig.results
	}
}

func (r *StepsRunner) enter(index int, args []interface{}) (err error) {
	logger := r.logger.WithFields(log.Fields{"step": index})
	logger.Debugf("step %d started with %d args", index, len(args))

	r.observer.StepStarted(r.id, index)
	next := &advance{runner: r, index: index, start: time.Now()}

	defer func() {
		if v := recover(); v != nil {
			err = errors.Errorf("step %d panicked: %v", index, v)
		}
		if err != nil && next.claim() {
			r.observer.StepFinished(r.id, index, time.Since(next.start), err)
		}
	}()

	if err := r.steps[index](next, args...); err != nil {
		return errors.Wrapf(err, "step %d failed", index)
	}

	return nil
}

func (r *StepsRunner) finish(err error) {
	r.mu.Lock()
	if err != nil {
		r.state = Failed
	} else {
		r.state = Succeeded
	}
	r.err = err
	state := r.state
	elapsed := time.Since(r.started)
	r.mu.Unlock()

	r.observer.RunFinished(r.id, state, elapsed)

	if err != nil {
		diagnostic := Diagnose(err)
		r.logger.WithFields(log.Fields{"elapsed": elapsed}).Errorf("steps runner failed: %v", err)
		r.sink.Fail(diagnostic)
		return
	}

	r.logger.WithFields(log.Fields{"elapsed": elapsed}).Debugf("steps runner succeeded")
	r.sink.Succeed()
}

// deliver hands a signal to the loop unless the run is already over.
func (r *StepsRunner) deliver(sig signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Terminal() {
		return ErrRunFinished
	}

	r.signals <- sig

	return nil
}

// reportMisuse fails the run because a step used its Next twice.
func (r *StepsRunner) reportMisuse(index int) error {
	err := errors.Wrapf(ErrAdvancedTwice, "step %d", index)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Terminal() {
		return err
	}

	r.logger.WithFields(log.Fields{"step": index}).Warnf("%v", err)

	if r.misuse == nil {
		r.misuse = err
		// Wakes the loop when it is waiting on a step that already advanced.
		select {
		case r.signals <- signal{index: index, err: err}:
		default:
		}
	}

	return err
}

type advance struct {
	runner *StepsRunner
	index  int
	start  time.Time
	used   int32
}

// claim marks the handle as used and reports whether it was still unused.
func (a *advance) claim() bool {
	return atomic.CompareAndSwapInt32(&a.used, 0, 1)
}

func (a *advance) Call(results ...interface{}) error {
	if !a.claim() {
		return a.runner.reportMisuse(a.index)
	}
	a.runner.observer.StepFinished(a.runner.id, a.index, time.Since(a.start), nil)
	return a.runner.deliver(signal{index: a.index, results: results})
}

func (a *advance) Fail(err error) error {
	if !a.claim() {
		return a.runner.reportMisuse(a.index)
	}
	if err == nil {
		err = errors.New("rejected with nil error")
	}
	err = errors.Wrapf(err, "step %d rejected", a.index)
	a.runner.observer.StepFinished(a.runner.id, a.index, time.Since(a.start), err)
	return a.runner.deliver(signal{index: a.index, err: err})
}
