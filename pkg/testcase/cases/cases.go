// Package cases registers the built-in test cases with testcase.Default.
package cases

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mumoshu/fmharness/pkg/api/step"
	"github.com/mumoshu/fmharness/pkg/entries"
	"github.com/mumoshu/fmharness/pkg/filesapp"
	"github.com/mumoshu/fmharness/pkg/remote"
	"github.com/mumoshu/fmharness/pkg/testcase"
)

func init() {
	Register(testcase.Default)
}

// Register adds the built-in test cases to r.
func Register(r *testcase.Registry) {
	r.MustRegister("fileDisplayDownloads", FileDisplayDownloads)
	r.MustRegister("fileDisplayDrive", FileDisplayDrive)
	r.MustRegister("keyboardDeleteDownloads", KeyboardDeleteDownloads)
	r.MustRegister("resizeWindowDownloads", ResizeWindowDownloads)
}

// setup opens a window on root and advances with its id.
func setup(ctx context.Context, env testcase.Environment, root string) step.Func {
	return func(next step.Next, _ ...interface{}) error {
		step.GoValue(next, func() (interface{}, error) {
			id, _, err := env.App.SetupAndWaitUntilReady(ctx, nil, root)
			return id, err
		})
		return nil
	}
}

func windowID(args []interface{}) (string, error) {
	if len(args) == 0 {
		return "", errors.New("no window id was passed to the step")
	}
	id, ok := args[0].(string)
	if !ok || id == "" {
		return "", errors.Errorf("unexpected window id %v", args[0])
	}
	return id, nil
}

// inWindow runs fn against the window id the previous step advanced with, and
// advances with the same id.
func inWindow(fn func(windowID string) error) step.Func {
	return func(next step.Next, args ...interface{}) error {
		id, err := windowID(args)
		if err != nil {
			return err
		}
		step.GoValue(next, func() (interface{}, error) {
			return id, fn(id)
		})
		return nil
	}
}

func checkIfNoErrorsOccurred(ctx context.Context, env testcase.Environment) step.Func {
	return func(next step.Next, _ ...interface{}) error {
		step.Go(next, func() error {
			return env.App.CheckIfNoErrorsOccurred(ctx)
		})
		return nil
	}
}

func fileDisplay(root func(remote.RootPaths) string, expected []entries.Entry) testcase.Func {
	return func(ctx context.Context, env testcase.Environment) []step.Func {
		return []step.Func{
			setup(ctx, env, root(env.Roots)),
			inWindow(func(id string) error {
				return env.App.WaitForFiles(ctx, id, entries.Rows(expected), filesOptions)
			}),
			checkIfNoErrorsOccurred(ctx, env),
		}
	}
}

var filesOptions = filesapp.FilesOptions{IgnoreLastModifiedTime: true}

func downloads(r remote.RootPaths) string { return r.Downloads }
func drive(r remote.RootPaths) string     { return r.Drive }

// FileDisplayDownloads checks that the basic local entries are listed in Downloads.
var FileDisplayDownloads = fileDisplay(downloads, entries.BasicLocal)

// FileDisplayDrive checks that the basic drive entries are listed in My Drive.
var FileDisplayDrive = fileDisplay(drive, entries.BasicDrive)

const deleteKey = "U+007F"

// KeyboardDeleteDownloads deletes hello.txt with the Delete key and confirms the dialog.
func KeyboardDeleteDownloads(ctx context.Context, env testcase.Environment) []step.Func {
	app := env.App
	return []step.Func{
		setup(ctx, env, env.Roots.Downloads),
		inWindow(func(id string) error {
			return app.SelectFile(ctx, id, entries.MustGet("hello").NameText)
		}),
		inWindow(func(id string) error {
			return app.FakeKeyDown(ctx, id, "#file-list", deleteKey, false)
		}),
		inWindow(func(id string) error {
			if err := app.WaitForElement(ctx, id, ".cr-dialog-ok", ""); err != nil {
				return err
			}
			return app.FakeMouseClick(ctx, id, ".cr-dialog-ok")
		}),
		inWindow(func(id string) error {
			remaining := entries.Without(entries.BasicLocal, entries.MustGet("hello").NameText)
			return app.WaitForFiles(ctx, id, entries.Rows(remaining), filesOptions)
		}),
		checkIfNoErrorsOccurred(ctx, env),
	}
}

const (
	resizedWidth  = 640
	resizedHeight = 480
)

// ResizeWindowDownloads resizes the window and waits for the new geometry.
func ResizeWindowDownloads(ctx context.Context, env testcase.Environment) []step.Func {
	app := env.App
	return []step.Func{
		setup(ctx, env, env.Roots.Downloads),
		inWindow(func(id string) error {
			return app.ResizeWindow(ctx, id, resizedWidth, resizedHeight)
		}),
		inWindow(func(id string) error {
			return app.WaitForWindowGeometry(ctx, id, resizedWidth, resizedHeight)
		}),
		checkIfNoErrorsOccurred(ctx, env),
	}
}
