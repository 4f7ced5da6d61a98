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

	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/mumoshu/fmharness/pkg/config"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the registered test cases",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			colorize := &colorstring.Colorize{
				Colors:  colorstring.DefaultColors,
				Disable: !config.FromViper(a.v).Log.Color,
				Reset:   true,
			}
			for _, name := range a.opts.Registry.Names() {
				fmt.Fprintln(a.opts.Stdout, colorize.Color("[green]"+name))
			}
		},
	}
}
