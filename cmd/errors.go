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

import "fmt"

// InitError is a problem with the configuration, found before any test ran.
type InitError struct {
	err error
}

func NewInitError(err error) InitError {
	return InitError{err: err}
}

func (e InitError) Error() string {
	return fmt.Sprintf("initialization failed: %v", e.err)
}

func (e InitError) Unwrap() error {
	return e.err
}

// CommandError is a test case that ran and did not pass.
type CommandError struct {
	Test string
	err  error
}

func NewCommandError(test string, err error) CommandError {
	return CommandError{Test: test, err: err}
}

func (e CommandError) Error() string {
	if e.Test == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("test %s failed: %v", e.Test, e.err)
}

func (e CommandError) Unwrap() error {
	return e.err
}
