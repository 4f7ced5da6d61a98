package remote

import "fmt"

// RemoteError is an error reported by the peer in a JSON-RPC response.
type RemoteError struct {
	Method  string
	Func    string
	Code    int64
	Message string
}

func (e *RemoteError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("remote %s(%s) failed with code %d: %s", e.Method, e.Func, e.Code, e.Message)
	}
	return fmt.Sprintf("remote %s failed with code %d: %s", e.Method, e.Code, e.Message)
}
