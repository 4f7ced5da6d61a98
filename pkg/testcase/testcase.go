// Package testcase maps test names to the step sequences that implement them.
package testcase

import (
	"context"

	"github.com/mumoshu/fmharness/pkg/api/step"
	"github.com/mumoshu/fmharness/pkg/filesapp"
	"github.com/mumoshu/fmharness/pkg/remote"
)

// Environment is what a test case learns about the app instance it runs against.
type Environment struct {
	GuestMode bool
	Roots     remote.RootPaths
	App       *filesapp.App
}

// Func builds the steps of a test case. ctx is the context of the whole run
// and should be passed to every remote call the steps make.
type Func func(ctx context.Context, env Environment) []step.Func
