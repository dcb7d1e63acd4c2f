// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/psykal-project/psykal/pkg/transform"
)

var viewCmd = &cobra.Command{
	Use:   "view [flags] algorithm_file(s)",
	Short: "print the schedule built for each invocation.",
	Long: `Print a textual view of the schedule built for each invocation, after
dependence analysis and any requested transformation passes.  Useful for
inspecting where halo exchanges and reductions were placed.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		cfg := loadConfig(cmd)
		passes := splitPasses(GetString(cmd, "passes"))
		//
		trees := compileFiles(cfg, args)
		pipeline := transform.NewPipeline(cfg, true)
		//
		for _, tree := range trees {
			if errs := pipeline.Apply(tree, passes); len(errs) > 0 {
				reportErrors(errs)
			}
			//
			fmt.Print(tree.View())
		}
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().StringP("passes", "p", "", "comma-separated transformation passes to apply")
}
