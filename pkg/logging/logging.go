// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"path"

	bunyan "github.com/mumoshu/logrus-bunyan-formatter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	// Output is one of text, json, bunyan or message.
	Output   string
	Verbose  bool
	ToStderr bool
	Color    bool
	// Name is reported as the bunyan name. Defaults to the command name.
	Name string
}

// Formatter returns the formatter for o.Output.
func (o Options) Formatter() (log.Formatter, error) {
	name := o.Name
	if name == "" {
		name = path.Base(os.Args[0])
	}

	switch o.Output {
	case "", "text":
		return newTextFormatter(o.Color), nil
	case "bunyan":
		return &bunyan.Formatter{Name: name}, nil
	case "json":
		return &log.JSONFormatter{}, nil
	case "message":
		return &MessageOnlyFormatter{}, nil
	}
	return nil, errors.Errorf("unexpected output format specified: %s", o.Output)
}

// Configure applies o to logger, or to the standard logger when logger is nil.
func Configure(logger *log.Logger, o Options) error {
	if logger == nil {
		logger = log.StandardLogger()
	}

	formatter, err := o.Formatter()
	if err != nil {
		return err
	}
	logger.SetFormatter(formatter)

	if o.Verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}

	var out io.Writer = os.Stdout
	if o.ToStderr {
		out = os.Stderr
	}
	logger.SetOutput(out)

	return nil
}
