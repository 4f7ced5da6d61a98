package testcase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	pkgerrors "github.com/pkg/errors"

	"github.com/mumoshu/fmharness/pkg/api/step"
	"github.com/mumoshu/fmharness/pkg/remote"
)

type outcome struct {
	passed     bool
	diagnostic string
}

type recordingSink struct {
	outcomes chan outcome
}

func newRecordingSink() *recordingSink {
	return &recordingSink{outcomes: make(chan outcome, 2)}
}

func (s *recordingSink) Succeed()         { s.outcomes <- outcome{passed: true} }
func (s *recordingSink) Fail(diag string) { s.outcomes <- outcome{diagnostic: diag} }
func (s *recordingSink) only(t *testing.T) outcome {
	t.Helper()
	var got outcome
	select {
	case got = <-s.outcomes:
	case <-time.After(5 * time.Second):
		t.Fatal("the sink was never notified")
	}
	select {
	case extra := <-s.outcomes:
		t.Fatalf("the sink was notified twice: %s", spew.Sdump(got, extra))
	default:
	}
	return got
}

func constant(fn step.Func) Func {
	return func(context.Context, Environment) []step.Func { return []step.Func{fn} }
}

func pass(next step.Next, _ ...interface{}) error { return next.Call() }

func TestRegister(t *testing.T) {
	r := NewRegistry()

	if err := r.Register("fileDisplayDownloads", constant(pass)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testcases := []struct {
		name string
		fn   Func
	}{
		{name: "", fn: constant(pass)},
		{name: "fileDisplayDownloads", fn: constant(pass)},
		{name: "file-display-downloads", fn: constant(pass)},
		{name: "fileDisplayDrive", fn: nil},
	}

	for i, tc := range testcases {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			if err := r.Register(tc.name, tc.fn); err == nil {
				t.Errorf("expected registering %q to fail", tc.name)
			}
		})
	}
}

func TestMustRegisterPanics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("a", constant(pass))

	defer func() {
		if recover() == nil {
			t.Error("expected a panic")
		}
	}()
	r.MustRegister("a", constant(pass))
}

func TestLookup(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("keyboardDeleteDownloads", constant(pass))
	r.MustRegister("resizeWindowDownloads", constant(pass))

	testcases := []struct {
		input string
		want  string
		found bool
	}{
		{input: "keyboardDeleteDownloads", want: "keyboardDeleteDownloads", found: true},
		{input: "keyboard-delete-downloads", want: "keyboardDeleteDownloads", found: true},
		{input: "resize_window_downloads", want: "resizeWindowDownloads", found: true},
		{input: "keyboardDelete", found: false},
	}

	for i, tc := range testcases {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			got, fn, ok := r.Lookup(tc.input)
			if ok != tc.found {
				t.Fatalf("Lookup(%q): expected found=%v, got %v", tc.input, tc.found, ok)
			}
			if got != tc.want {
				t.Errorf("Lookup(%q): expected %q, got %q", tc.input, tc.want, got)
			}
			if ok && fn == nil {
				t.Errorf("Lookup(%q) returned no case", tc.input)
			}
		})
	}

	if diff := cmp.Diff([]string{"keyboardDeleteDownloads", "resizeWindowDownloads"}, r.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchNotFound(t *testing.T) {
	r := NewRegistry()
	sink := newRecordingSink()

	err := r.Dispatch(context.Background(), "fooBar", Environment{}, sink)
	if pkgerrors.Cause(err) != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if diff := cmp.Diff(outcome{diagnostic: "fooBar is not found."}, sink.only(t), cmp.AllowUnexported(outcome{})); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch(t *testing.T) {
	roots := remote.RootPaths{Downloads: "/Downloads", Drive: "/drive/root"}

	testcases := []struct {
		fn      Func
		want    outcome
		wantErr bool
	}{
		{
			fn: func(_ context.Context, env Environment) []step.Func {
				return []step.Func{
					func(next step.Next, _ ...interface{}) error {
						step.GoValue(next, func() (interface{}, error) { return env.Roots.Downloads, nil })
						return nil
					},
					func(next step.Next, args ...interface{}) error {
						if args[0] != "/Downloads" {
							return fmt.Errorf("unexpected root %v", args[0])
						}
						return next.Call()
					},
				}
			},
			want: outcome{passed: true},
		},
		{
			fn: func(context.Context, Environment) []step.Func {
				return []step.Func{
					func(next step.Next, _ ...interface{}) error {
						step.Go(next, func() error { return errors.New("The error count is not 0. count=1") })
						return nil
					},
				}
			},
			wantErr: true,
		},
	}

	for i, tc := range testcases {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			r := NewRegistry()
			r.MustRegister("case", tc.fn)
			sink := newRecordingSink()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			err := r.Dispatch(ctx, "case", Environment{Roots: roots}, sink)
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}

			got := sink.only(t)
			if got.passed != !tc.wantErr {
				t.Errorf("unexpected outcome %s", spew.Sdump(got))
			}
		})
	}
}
