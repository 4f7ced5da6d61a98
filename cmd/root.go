// Copyright © 2018 Yusuke KUOKA <ykuoka@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mumoshu/fmharness/pkg/config"
	"github.com/mumoshu/fmharness/pkg/logging"
	"github.com/mumoshu/fmharness/pkg/testcase"
	_ "github.com/mumoshu/fmharness/pkg/testcase/cases"
)

type Opts struct {
	Args   []string
	Log    *logrus.Logger
	Stdout io.Writer
	// Viper defaults to a fresh instance, so that tests do not share settings.
	Viper    *viper.Viper
	Registry *testcase.Registry
	// Dir is where config files and the env file are looked up.
	Dir string
}

type app struct {
	opts       Opts
	v          *viper.Viper
	configFile string
}

func (o Opts) withDefaults() Opts {
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Viper == nil {
		o.Viper = viper.New()
	}
	if o.Registry == nil {
		o.Registry = testcase.Default
	}
	if o.Dir == "" {
		o.Dir = "."
	}
	return o
}

// NewRootCmd builds the fmharness command tree.
func NewRootCmd(opts Opts) *cobra.Command {
	a := &app{opts: opts.withDefaults()}
	a.v = a.opts.Viper

	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Drive a file manager test case on behalf of a remote test runner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	rootCmd.SetOut(a.opts.Stdout)

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.StringP("output", "o", "text", "Output format. One of: json|text|bunyan|message")
	flags.BoolP("color", "C", true, "Colorize output")
	flags.StringVarP(&a.configFile, "config-file", "c", "", "Path to config file")
	flags.Bool("logtostderr", true, "write log messages to stderr")

	a.bind(flags.Lookup("verbose"), config.KeyVerbose)
	a.bind(flags.Lookup("output"), config.KeyOutput)
	a.bind(flags.Lookup("color"), config.KeyColor)
	a.bind(flags.Lookup("logtostderr"), config.KeyLogToStderr)

	rootCmd.AddCommand(
		a.runCmd(),
		a.listCmd(),
		a.envCmd(),
		VersionCmd(a.opts.Log),
	)

	return rootCmd
}

func (a *app) load() error {
	err := config.Load(a.v, config.LoadOptions{
		ConfigFile: a.configFile,
		Dir:        a.opts.Dir,
		Log:        a.opts.Log,
	})
	if err != nil {
		return NewInitError(err)
	}

	cfg := config.FromViper(a.v)
	if err := logging.Configure(a.opts.Log, cfg.Log); err != nil {
		return NewInitError(err)
	}
	return nil
}

// MustRun runs the command with os.Args and exits with its status.
func MustRun() {
	opts := Opts{Args: os.Args[1:]}
	if err := RunE(opts); err != nil {
		HandleErrorAndExit(err, opts.withDefaults())
	}
}

func RunE(opts Opts) error {
	rootCmd := NewRootCmd(opts)
	rootCmd.SetArgs(opts.Args)
	return rootCmd.Execute()
}

func HandleErrorAndExit(err error, opts Opts) {
	msg, status := HandleError(err, opts)
	LogAndExit(opts, msg, status)
}

func LogAndExit(opts Opts, msg string, status int) {
	if msg != "" {
		opts.Log.Errorf("%s", msg)
	}
	os.Exit(status)
}

// HandleError renders err for the log and picks the exit status.
func HandleError(err error, opts Opts) (string, int) {
	if err == nil {
		return "", 0
	}
	log := opts.Log
	var msg string
	switch cmdErr := errors.Cause(err).(type) {
	case InitError:
		msg = fmt.Sprintf("%v", cmdErr)
	case CommandError:
		log.WithFields(logrus.Fields{"stack": errors.ErrorStack(err)}).Debugf("test %s failed", cmdErr.Test)
		msg = fmt.Sprintf("Error: %v", cmdErr)
	default:
		msg = fmt.Sprintf("Unexpected type of error %T: %s", err, err)
	}
	return msg, GetStatus(err)
}

// GetStatus is 0 for a nil error and 1 otherwise.
func GetStatus(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func (a *app) bind(flag *pflag.Flag, key string) {
	a.v.BindPFlag(key, flag)
}
