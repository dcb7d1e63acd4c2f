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
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/source"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// GetFlag gets an expected flag, or panic if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string, or panic if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint gets an expected unsigned integer, or panic if an error arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// Load the generator configuration, either from a given YAML file or the
// built-in defaults.
func loadConfig(cmd *cobra.Command) *config.Config {
	var (
		cfg *config.Config
		err error
	)
	//
	if filename := GetString(cmd, "config"); filename != "" {
		cfg, err = config.Load(filename)
	} else {
		cfg = config.Default()
		err = cfg.Validate()
	}
	//
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	return cfg
}

// Report a set of errors arising during compilation, then exit.  Syntax errors
// and located errors are printed with the enclosing source line and a
// highlight underneath the offending span.
func reportErrors(errs []error) {
	for _, err := range errs {
		var (
			syntax  *source.SyntaxError
			located *source.Located
		)
		//
		switch {
		case errors.As(err, &syntax):
			printSourceError(syntax.SourceFile(), syntax.Span(), syntax.Message())
		case errors.As(err, &located) && located.Loc.IsKnown():
			printSourceError(located.Loc.File(), located.Loc.Span(), located.Err.Error())
		default:
			fmt.Println(err)
		}
	}
	//
	os.Exit(2)
}

// Print a source-level error with appropriate highlighting.
func printSourceError(file *source.File, span source.Span, msg string) {
	line := file.FindFirstEnclosingLine(span)
	lineOffset := span.Start() - line.Start()
	// Calculate length of highlight, clipped to the enclosing line.
	length := max(1, min(span.Length(), line.Length()-lineOffset))
	// Print error + line number
	fmt.Printf("%s:%d:%d: %s\n", file.Filename(), line.Number(), lineOffset+1, msg)
	// Print line
	fmt.Println(line.String())
	// Print indent (todo: account for tabs)
	fmt.Print(strings.Repeat(" ", lineOffset))
	// Print highlight
	fmt.Println(highlight(strings.Repeat("^", length)))
}

// Apply colour to a highlight, provided stdout is connected to a terminal.
func highlight(text string) string {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Sprintf("\033[31m%s\033[0m", text)
	}
	//
	return text
}
