package metrics

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"

	"github.com/mumoshu/fmharness/pkg/api/step"
	"github.com/mumoshu/fmharness/pkg/runner"
)

func TestObserverCountsRun(t *testing.T) {
	o := NewObserver()

	steps := []step.Func{
		func(next step.Next, _ ...interface{}) error { return next.Call() },
		func(next step.Next, _ ...interface{}) error {
			step.Go(next, func() error { return errors.New("boom") })
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r := runner.Run(steps, nil, runner.WithObserver(o))
	if err := r.Wait(ctx); err == nil {
		t.Fatal("expected the run to fail")
	}

	if got := testutil.ToFloat64(o.runs.WithLabelValues("failed")); got != 1 {
		t.Errorf("expected 1 failed run, got %v", got)
	}
	if got := testutil.ToFloat64(o.steps.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected 1 ok step, got %v", got)
	}
	if got := testutil.ToFloat64(o.steps.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed step, got %v", got)
	}
	if got := testutil.CollectAndCount(o.stepDurations); got != 1 {
		t.Errorf("expected one histogram, got %d", got)
	}
}

func TestHandler(t *testing.T) {
	o := NewObserver()
	o.RunFinished("r", runner.Succeeded, time.Second)

	srv := httptest.NewServer(o.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	body, _ := ioutil.ReadAll(res.Body)

	if !strings.Contains(string(body), `fmharness_runs_total{state="succeeded"} 1`) {
		t.Errorf("unexpected metrics:\n%s", body)
	}

	res, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("unexpected status %d", res.StatusCode)
	}
}

func TestServe(t *testing.T) {
	o := NewObserver()
	ctx, cancel := context.WithCancel(context.Background())

	addr, err := o.Serve(ctx, "127.0.0.1:0", log.NewEntry(log.New()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	cancel()
}
