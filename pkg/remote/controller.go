package remote

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
)

const (
	MethodSendMessage = "sendMessage"
	MethodTestResult  = "testResult"

	entryAddedReply = "onEntryAdded"
)

// RootPaths are the volume roots the controller mounted for the test.
type RootPaths struct {
	Downloads string `json:"downloads"`
	Drive     string `json:"drive"`
}

// Controller is the out-of-process test runner driving the harness.
type Controller interface {
	IsInGuestMode(ctx context.Context) (bool, error)
	GetRootPaths(ctx context.Context) (RootPaths, error)
	GetTestName(ctx context.Context) (string, error)
	AddEntries(ctx context.Context, volume string, entries interface{}) error
	ReportResult(ctx context.Context, name string, passed bool, diagnostic string) error
}

type message struct {
	Message string `json:"message"`
}

type testResult struct {
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// SendMessage sends msg encoded as JSON text and returns the controller's reply.
func (c *Conn) SendMessage(ctx context.Context, msg interface{}) (string, error) {
	text, err := json.Marshal(msg)
	if err != nil {
		return "", errors.WithStack(err)
	}

	c.logger.WithFields(log.Fields{"message": string(text)}).Debug("sending message to controller")

	var reply string
	if err := c.call(ctx, MethodSendMessage, message{Message: string(text)}, &reply); err != nil {
		return "", err
	}
	return reply, nil
}

func (c *Conn) IsInGuestMode(ctx context.Context) (bool, error) {
	reply, err := c.SendMessage(ctx, map[string]string{"name": "isInGuestMode"})
	if err != nil {
		return false, err
	}
	var guest bool
	if err := json.Unmarshal([]byte(reply), &guest); err != nil {
		return false, errors.Wrapf(err, "unexpected isInGuestMode reply %q", reply)
	}
	return guest, nil
}

const rootPathsSchema = `{
  "type": "object",
  "properties": {
    "downloads": {"type": "string"},
    "drive": {"type": "string"}
  },
  "required": ["downloads", "drive"]
}`

var rootPathsLoader = gojsonschema.NewStringLoader(rootPathsSchema)

func (c *Conn) GetRootPaths(ctx context.Context) (RootPaths, error) {
	reply, err := c.SendMessage(ctx, map[string]string{"name": "getRootPaths"})
	if err != nil {
		return RootPaths{}, err
	}
	return ParseRootPaths(reply)
}

// ParseRootPaths decodes a getRootPaths reply after validating its shape.
func ParseRootPaths(reply string) (RootPaths, error) {
	result, err := gojsonschema.Validate(rootPathsLoader, gojsonschema.NewStringLoader(reply))
	if err != nil {
		return RootPaths{}, errors.Wrapf(err, "unexpected getRootPaths reply %q", reply)
	}
	if !result.Valid() {
		problems := ""
		for i, e := range result.Errors() {
			if i > 0 {
				problems += "; "
			}
			problems += e.String()
		}
		return RootPaths{}, errors.Errorf("invalid getRootPaths reply %q: %s", reply, problems)
	}

	var roots RootPaths
	if err := json.Unmarshal([]byte(reply), &roots); err != nil {
		return RootPaths{}, errors.WithStack(err)
	}
	return roots, nil
}

func (c *Conn) GetTestName(ctx context.Context) (string, error) {
	return c.SendMessage(ctx, map[string]string{"name": "getTestName"})
}

func (c *Conn) AddEntries(ctx context.Context, volume string, entries interface{}) error {
	reply, err := c.SendMessage(ctx, map[string]interface{}{
		"name":    "addEntries",
		"volume":  volume,
		"entries": entries,
	})
	if err != nil {
		return err
	}
	if reply != entryAddedReply {
		return errors.Errorf("adding entries to %s volume failed: %s", volume, reply)
	}
	return nil
}

func (c *Conn) ReportResult(ctx context.Context, name string, passed bool, diagnostic string) error {
	c.logger.WithFields(log.Fields{"test": name, "passed": passed}).Debug("reporting test result")
	return errors.WithStack(c.rpc.Notify(ctx, MethodTestResult, testResult{Name: name, Passed: passed, Diagnostic: diagnostic}))
}
