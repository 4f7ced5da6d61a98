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

	"github.com/spf13/cobra"

	"github.com/mumoshu/fmharness/pkg/config"
)

func (a *app) envCmd() *cobra.Command {
	envFile := func() *config.EnvFile {
		return config.NewEnvFile(a.opts.Dir, config.AppName)
	}

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print currently selected environment",
		Long: `Print currently selected environment. The environment selects
config/environments/<environment>.yaml to merge over fmharness.yaml.

Example:
fmharness env set ci
fmharness env #=> Prints "ci"
`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := envFile().Get()
			if err != nil {
				return NewInitError(err)
			}
			fmt.Fprintln(a.opts.Stdout, env)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "set <environment name>",
		Aliases: []string{"switch", "use"},
		Short:   "Switch to another environment",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := envFile().Set(args[0]); err != nil {
				return NewInitError(err)
			}
			return nil
		},
	})

	return cmd
}
