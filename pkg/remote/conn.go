package remote

import (
	"context"
	"io"
	"net"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sourcegraph/jsonrpc2"
)

// Conn is a JSON-RPC 2.0 connection to the out-of-process test runner.
// It serves both as the Controller and as the Invoker of remote test utilities.
type Conn struct {
	rpc    *jsonrpc2.Conn
	logger *log.Entry
}

// NewConn runs JSON-RPC over rwc, framed with Content-Length headers.
func NewConn(ctx context.Context, rwc io.ReadWriteCloser, logger *log.Entry) *Conn {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	return &Conn{
		rpc:    jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(refuse)),
		logger: logger,
	}
}

// refuse answers requests from the peer. The harness exposes no methods.
func refuse(_ context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not supported: " + req.Method}
}

func Dial(ctx context.Context, network, address string, logger *log.Entry) (*Conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing controller at %s", address)
	}
	return NewConn(ctx, nc, logger), nil
}

// Spawn starts the controller command and talks to it over its stdin and stdout.
func Spawn(ctx context.Context, commandLine string, logger *log.Entry) (*Conn, error) {
	args, err := ParseCommand(commandLine)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "starting controller %q", commandLine)
	}

	p := &process{cmd: cmd, stdin: stdin, stdout: stdout}
	c := NewConn(ctx, p, logger)
	c.logger.WithFields(log.Fields{"pid": cmd.Process.Pid, "cmd": args}).Debug("controller started")
	return c, nil
}

type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
}

func (p *process) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p *process) Write(b []byte) (int, error) { return p.stdin.Write(b) }

func (p *process) Close() error {
	p.stdin.Close()
	if err := p.cmd.Wait(); err != nil {
		return errors.Wrap(err, "controller exited")
	}
	return nil
}

// Close closes the stream. For a spawned controller it also waits for the process to exit.
func (c *Conn) Close() error {
	return c.rpc.Close()
}

// Disconnected is closed when the peer goes away.
func (c *Conn) Disconnected() <-chan struct{} {
	return c.rpc.DisconnectNotify()
}

func (c *Conn) call(ctx context.Context, method string, params, result interface{}) error {
	if err := c.rpc.Call(ctx, method, params, result); err != nil {
		if rpcErr, ok := err.(*jsonrpc2.Error); ok {
			return &RemoteError{Method: method, Code: rpcErr.Code, Message: rpcErr.Message}
		}
		return errors.Wrapf(err, "calling %s", method)
	}
	return nil
}
