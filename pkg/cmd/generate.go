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
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/psykal-project/psykal/pkg/backend"
	"github.com/psykal-project/psykal/pkg/builder"
	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/frontend"
	"github.com/psykal-project/psykal/pkg/psyir"
	"github.com/psykal-project/psykal/pkg/source"
	"github.com/psykal-project/psykal/pkg/transform"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] algorithm_file(s)",
	Short: "generate the PSy layer for one or more algorithm files.",
	Long: `Generate the PSy-layer source for one or more algorithm files, inserting
whatever halo exchanges and reductions the kernel accesses require.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		cfg := loadConfig(cmd)
		output := GetString(cmd, "output")
		passes := splitPasses(GetString(cmd, "passes"))
		strict := !GetFlag(cmd, "lenient")
		// Build one schedule per invocation
		trees := compileFiles(cfg, args)
		// Apply any requested transformation passes
		pipeline := transform.NewPipeline(cfg, strict)
		//
		for _, tree := range trees {
			if errs := pipeline.Apply(tree, passes); len(errs) > 0 {
				reportErrors(errs)
			}
		}
		// Render the PSy layer
		generator := backend.NewFortranWriter()
		//
		var psy strings.Builder
		//
		for _, tree := range trees {
			text, err := generator.Generate(tree)
			if err != nil {
				reportErrors([]error{err})
			}
			//
			psy.WriteString(text)
			psy.WriteString("\n")
		}
		// Write out generated source
		if output == "" {
			fmt.Print(psy.String())
		} else if err := os.WriteFile(output, []byte(psy.String()), 0644); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
	},
}

// Parse and compile a set of algorithm files into their schedules, exiting on
// the first file whose compilation produces errors.
func compileFiles(cfg *config.Config, filenames []string) []*psyir.Tree {
	var trees []*psyir.Tree
	//
	files, err := source.ReadFiles(filenames...)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	for i := range files {
		program, errs := frontend.ParseProgram(&files[i])
		if len(errs) > 0 {
			reportErrors(errs)
		}
		//
		scheds, errs := builder.Compile(program, cfg)
		if len(errs) > 0 {
			reportErrors(errs)
		}
		//
		trees = append(trees, scheds...)
	}
	//
	return trees
}

// Split a comma-separated pass list, tolerating an empty flag.
func splitPasses(flag string) []string {
	if flag == "" {
		return nil
	}
	//
	return strings.Split(flag, ",")
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("output", "o", "", "write generated source to given file")
	generateCmd.Flags().StringP("passes", "p", "", "comma-separated transformation passes to apply")
	generateCmd.Flags().Bool("lenient", false, "keep applying passes after a failed transformation")
}
