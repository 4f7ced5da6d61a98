package step

// Func is a single step of a sequence.
//
// args are exactly the values the previous step passed to its Next.Call.
// The first step of a sequence receives no args.
// A step must eventually call either next.Call or next.Fail, exactly once.
// Returning an error, or panicking, fails the whole sequence.
type Func func(next Next, args ...interface{}) error

// Next advances a running sequence past the step it was handed to.
type Next interface {
	// Call starts the following step with results as its arguments.
	Call(results ...interface{}) error
	// Fail aborts the sequence with err.
	Fail(err error) error
}

// Sink receives the single terminal result of a sequence.
type Sink interface {
	Succeed()
	Fail(diagnostic string)
}

// SinkFuncs adapts a pair of callbacks to Sink. Nil callbacks are ignored.
type SinkFuncs struct {
	OnSuccess func()
	OnFailure func(diagnostic string)
}

func (s SinkFuncs) Succeed() {
	if s.OnSuccess != nil {
		s.OnSuccess()
	}
}

func (s SinkFuncs) Fail(diagnostic string) {
	if s.OnFailure != nil {
		s.OnFailure(diagnostic)
	}
}

// Discard is a Sink that drops the result. Use it when the caller only Waits.
var Discard Sink = SinkFuncs{}

// Go runs fn in its own goroutine and advances next with no values on success.
func Go(next Next, fn func() error) {
	go func() {
		if err := fn(); err != nil {
			next.Fail(err)
			return
		}
		next.Call()
	}()
}

// GoValue runs fn in its own goroutine and advances next with its result.
func GoValue(next Next, fn func() (interface{}, error)) {
	go func() {
		v, err := fn()
		if err != nil {
			next.Fail(err)
			return
		}
		next.Call(v)
	}()
}
