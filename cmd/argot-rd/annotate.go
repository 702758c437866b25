// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/awslabs/argot-reaching/analysis/annotate"
	"github.com/spf13/cobra"
)

// NewAnnotateCommand creates the annotate command.
func NewAnnotateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate <source.go>",
		Short: "Print the source file with the definitions reaching each statement as comments",
		Long: `Print the source file where every simple statement reading local variables ends with a comment listing,
for each variable, the lines of the definitions that reach the statement.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(rootOpts, "annotate", cmd, args)
			if err != nil {
				return err
			}
			return s.run(func(s *session) error { return runAnnotate(s, args[0]) })
		},
	}
}

func runAnnotate(s *session, filename string) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	lines, err := annotate.ReachingLines(s.funcs, s.logger)
	if err != nil {
		return err
	}
	out, err := annotate.Source(filename, src, lines)
	if err != nil {
		return err
	}
	_, err = s.out.Write(out)
	return err
}
