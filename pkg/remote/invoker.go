package remote

import (
	"context"
	"encoding/json"

	log "github.com/sirupsen/logrus"
)

const MethodCallRemoteTestUtil = "callRemoteTestUtil"

// Invoker calls a named utility function inside the app under test.
// An empty appID targets no window.
type Invoker interface {
	Invoke(ctx context.Context, fn, appID string, args []interface{}) (json.RawMessage, error)
}

type remoteCall struct {
	Func  string        `json:"func"`
	AppID *string       `json:"appId"`
	Args  []interface{} `json:"args"`
}

func (c *Conn) Invoke(ctx context.Context, fn, appID string, args []interface{}) (json.RawMessage, error) {
	params := remoteCall{Func: fn, Args: args}
	if appID != "" {
		params.AppID = &appID
	}
	if params.Args == nil {
		params.Args = []interface{}{}
	}

	logger := c.logger.WithFields(log.Fields{"func": fn, "app_id": appID})
	logger.Debugf("calling remote test util %s", fn)

	var result json.RawMessage
	if err := c.call(ctx, MethodCallRemoteTestUtil, params, &result); err != nil {
		if rerr, ok := err.(*RemoteError); ok {
			rerr.Func = fn
		}
		logger.Debugf("remote test util %s failed: %v", fn, err)
		return nil, err
	}

	logger.Debugf("remote test util %s returned %s", fn, string(result))
	return result, nil
}
