package remote

import (
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
)

// ParseCommand splits a controller command line the way a shell would.
func ParseCommand(commandLine string) ([]string, error) {
	args, err := shellwords.Parse(strings.TrimSpace(commandLine))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing controller command %q", commandLine)
	}
	if len(args) == 0 {
		return nil, errors.New("controller command is empty")
	}
	return args, nil
}
