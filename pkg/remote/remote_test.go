package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sourcegraph/jsonrpc2"
)

type handlerFunc func(req *jsonrpc2.Request) (interface{}, error)

type peer struct {
	mu       sync.Mutex
	calls    []remoteCall
	messages []map[string]interface{}
	results  chan testResult
}

// startPeer serves the runner side of the protocol on one end of a pipe and
// returns a harness connection on the other end.
func startPeer(t *testing.T, replies map[string]string, utils map[string]handlerFunc) (*Conn, *peer) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	client, server := net.Pipe()
	p := &peer{results: make(chan testResult, 4)}

	handler := jsonrpc2.HandlerWithError(func(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		switch req.Method {
		case MethodSendMessage:
			var m message
			if err := json.Unmarshal(*req.Params, &m); err != nil {
				return nil, err
			}
			var decoded map[string]interface{}
			if err := json.Unmarshal([]byte(m.Message), &decoded); err != nil {
				return nil, err
			}
			p.mu.Lock()
			p.messages = append(p.messages, decoded)
			p.mu.Unlock()
			name, _ := decoded["name"].(string)
			reply, ok := replies[name]
			if !ok {
				return nil, &jsonrpc2.Error{Code: 404, Message: "unknown message " + name}
			}
			return reply, nil
		case MethodCallRemoteTestUtil:
			var c remoteCall
			if err := json.Unmarshal(*req.Params, &c); err != nil {
				return nil, err
			}
			p.mu.Lock()
			p.calls = append(p.calls, c)
			p.mu.Unlock()
			fn, ok := utils[c.Func]
			if !ok {
				return nil, &jsonrpc2.Error{Code: 404, Message: "no such util"}
			}
			return fn(req)
		case MethodTestResult:
			var r testResult
			if err := json.Unmarshal(*req.Params, &r); err != nil {
				return nil, err
			}
			p.results <- r
			return nil, nil
		}
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: req.Method}
	})

	srv := jsonrpc2.NewConn(ctx, jsonrpc2.NewBufferedStream(server, jsonrpc2.VSCodeObjectCodec{}), handler)
	conn := NewConn(ctx, client, nil)

	t.Cleanup(func() {
		conn.Close()
		srv.Close()
		cancel()
	})

	return conn, p
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestInvoke(t *testing.T) {
	conn, p := startPeer(t, nil, map[string]handlerFunc{
		"getErrorCount": func(*jsonrpc2.Request) (interface{}, error) { return 0, nil },
		"waitForWindow": func(*jsonrpc2.Request) (interface{}, error) { return "files#0", nil },
	})
	ctx := testContext(t)

	got, err := conn.Invoke(ctx, "waitForWindow", "", []interface{}{"files#"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `"files#0"` {
		t.Errorf("unexpected result %s", got)
	}

	if _, err := conn.Invoke(ctx, "getErrorCount", "files#0", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	window := "files#0"
	want := []remoteCall{
		{Func: "waitForWindow", Args: []interface{}{"files#"}},
		{Func: "getErrorCount", AppID: &window, Args: []interface{}{}},
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if diff := cmp.Diff(want, p.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestInvokeRemoteError(t *testing.T) {
	conn, _ := startPeer(t, nil, nil)

	_, err := conn.Invoke(testContext(t), "fakeMouseClick", "files#0", nil)
	rerr, ok := err.(*RemoteError)
	if !ok {
		t.Fatalf("expected a *RemoteError, got %T: %v", err, err)
	}
	if rerr.Func != "fakeMouseClick" || rerr.Code != 404 {
		t.Errorf("unexpected error %+v", rerr)
	}
}

func TestControllerHandshake(t *testing.T) {
	conn, p := startPeer(t, map[string]string{
		"isInGuestMode": "true",
		"getRootPaths":  `{"downloads": "/Downloads", "drive": "/drive/root"}`,
		"getTestName":   "fileDisplayDownloads",
	}, nil)
	ctx := testContext(t)

	guest, err := conn.IsInGuestMode(ctx)
	if err != nil || !guest {
		t.Fatalf("IsInGuestMode() = %v, %v", guest, err)
	}

	roots, err := conn.GetRootPaths(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(RootPaths{Downloads: "/Downloads", Drive: "/drive/root"}, roots); diff != "" {
		t.Errorf("roots mismatch (-want +got):\n%s", diff)
	}

	name, err := conn.GetTestName(ctx)
	if err != nil || name != "fileDisplayDownloads" {
		t.Fatalf("GetTestName() = %q, %v", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for _, m := range p.messages {
		names = append(names, m["name"].(string))
	}
	if diff := cmp.Diff([]string{"isInGuestMode", "getRootPaths", "getTestName"}, names); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestAddEntries(t *testing.T) {
	testcases := []struct {
		reply   string
		wantErr bool
	}{
		{reply: "onEntryAdded"},
		{reply: "onEntryFailed", wantErr: true},
	}

	for i, tc := range testcases {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			conn, p := startPeer(t, map[string]string{"addEntries": tc.reply}, nil)

			err := conn.AddEntries(testContext(t), "local", []string{"hello.txt"})
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}

			p.mu.Lock()
			defer p.mu.Unlock()
			want := []map[string]interface{}{{
				"name":    "addEntries",
				"volume":  "local",
				"entries": []interface{}{"hello.txt"},
			}}
			if diff := cmp.Diff(want, p.messages); diff != "" {
				t.Errorf("messages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReportResult(t *testing.T) {
	conn, p := startPeer(t, nil, nil)

	if err := conn.ReportResult(testContext(t), "fileDisplayDrive", false, "boom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-p.results:
		if diff := cmp.Diff(testResult{Name: "fileDisplayDrive", Diagnostic: "boom"}, got); diff != "" {
			t.Errorf("result mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("the result never arrived")
	}
}

func TestParseRootPaths(t *testing.T) {
	testcases := []struct {
		reply   string
		want    RootPaths
		wantErr bool
	}{
		{reply: `{"downloads": "/a", "drive": "/b"}`, want: RootPaths{Downloads: "/a", Drive: "/b"}},
		{reply: `{"downloads": "/a"}`, wantErr: true},
		{reply: `{"downloads": 1, "drive": "/b"}`, wantErr: true},
		{reply: `["/a", "/b"]`, wantErr: true},
		{reply: `not json`, wantErr: true},
	}

	for i, tc := range testcases {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			got, err := ParseRootPaths(tc.reply)
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("roots mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCommand(t *testing.T) {
	testcases := []struct {
		line     string
		expected []string
		wantErr  bool
	}{
		{line: "/usr/bin/runner --serve", expected: []string{"/usr/bin/runner", "--serve"}},
		{line: " runner --name='a b' ", expected: []string{"runner", "--name=a b"}},
		{line: `runner "quoted arg"`, expected: []string{"runner", "quoted arg"}},
		{line: "   ", wantErr: true},
	}

	for i, tc := range testcases {
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			args, err := ParseCommand(tc.line)
			if (err != nil) != tc.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.expected, args); diff != "" {
				t.Errorf("%v", diff)
			}
		})
	}
}
