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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mumoshu/fmharness/pkg/config"
	"github.com/mumoshu/fmharness/pkg/filesapp"
	"github.com/mumoshu/fmharness/pkg/harness"
	"github.com/mumoshu/fmharness/pkg/metrics"
	"github.com/mumoshu/fmharness/pkg/remote"
	"github.com/mumoshu/fmharness/pkg/runner"
)

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [TEST_NAME]",
		Short: "Connect to the controller and run the test case it asks for",
		Long: `Connect to the controller and run the test case it asks for.

The test name is asked from the controller unless it is given as an argument
or via the test_name setting.

Example:
fmharness run --controller-address 127.0.0.1:9515
fmharness run fileDisplayDrive --controller-command "test_runner --serve-harness"
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg := config.FromViper(a.v)
			if len(args) == 1 {
				cfg.TestName = args[0]
			}
			return a.run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("controller-address", "", "host:port of the controller to connect to")
	flags.String("controller-command", "", "command line of a controller to spawn, talking over its stdin and stdout")
	flags.Bool("incognito", false, "whether this app instance runs in guest mode")
	flags.String("test-name", "", "test case to run instead of asking the controller")
	flags.String("extension-id", filesapp.DefaultExtensionID, "id of the file manager app under test")
	flags.Duration("timeout", config.DefaultTimeout, "give up on the test case after this long")
	flags.String("metrics-address", "", "serve Prometheus metrics on this address")

	a.bind(flags.Lookup("controller-address"), config.KeyControllerAddress)
	a.bind(flags.Lookup("controller-command"), config.KeyControllerCommand)
	a.bind(flags.Lookup("incognito"), config.KeyIncognito)
	a.bind(flags.Lookup("test-name"), config.KeyTestName)
	a.bind(flags.Lookup("extension-id"), config.KeyExtensionID)
	a.bind(flags.Lookup("timeout"), config.KeyTimeout)
	a.bind(flags.Lookup("metrics-address"), config.KeyMetricsAddress)

	return cmd
}

func (a *app) run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return NewInitError(err)
	}

	log := logrus.NewEntry(a.opts.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := metrics.NewObserver()
	if cfg.Metrics.Address != "" {
		if _, err := observer.Serve(ctx, cfg.Metrics.Address, log); err != nil {
			return NewInitError(err)
		}
	}

	conn, err := connect(ctx, cfg.Controller, log)
	if err != nil {
		return NewInitError(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// A controller that went away can no longer drive the app, so stop waiting on it.
	go func() {
		select {
		case <-conn.Disconnected():
			log.Warnf("controller disconnected, cancelling the run")
			cancel()
		case <-ctx.Done():
		}
	}()

	h := &harness.Harness{
		Controller: conn,
		App:        filesapp.New(conn, conn, cfg.ExtensionID, log),
		Registry:   a.opts.Registry,
		Incognito:  cfg.Incognito,
		TestName:   cfg.TestName,
		Logger:     log,
		RunOptions: []runner.Option{runner.WithObserver(observer)},
	}

	name, err := h.Run(ctx)
	switch {
	case err == harness.ErrNotTargeted:
		log.Infof("nothing to run in this app instance")
		return nil
	case err != nil:
		return NewCommandError(name, errors.Trace(err))
	}

	fmt.Fprintf(a.opts.Stdout, "%s passed\n", name)

	return nil
}

func connect(ctx context.Context, c config.ControllerConfig, log *logrus.Entry) (*remote.Conn, error) {
	if c.Address != "" {
		conn, err := remote.Dial(ctx, "tcp", c.Address, log)
		return conn, errors.Annotatef(err, "connecting to controller at %s", c.Address)
	}
	conn, err := remote.Spawn(ctx, c.Command, log)
	return conn, errors.Annotatef(err, "spawning controller %q", c.Command)
}
