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
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mumoshu/fmharness/version"
)

func VersionCmd(log *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of fmharness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := version.Get()
			if err != nil {
				return err
			}
			out, err := json.Marshal(v)
			if err != nil {
				return err
			}
			log.Debugf("version: %+v", v)
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
