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

	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/analysis/liveness"
	"github.com/awslabs/argot-reaching/analysis/reaching"
	"github.com/awslabs/argot-reaching/internal/formatutil"
	"github.com/spf13/cobra"
)

// NewReachingCommand creates the reaching command.
func NewReachingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reaching <source.go | package...>",
		Short: "Print the definitions reaching every program location",
		Long: `Compute the reaching definitions of every function and print, for each program location, the set of
definitions that reach the point after it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(rootOpts, "reaching", cmd, args)
			if err != nil {
				return err
			}
			return s.run(runReaching)
		},
	}
}

func runReaching(s *session) error {
	for _, l := range s.funcs {
		results, err := reaching.Compute(l.Function, s.logger)
		if err != nil {
			return fmt.Errorf("reaching definitions of %s: %w", l.Function.Name, err)
		}
		s.header(l)
		results.Each(func(loc il.Location, defs *reaching.Definitions) {
			if defs.Len() == 0 && !s.cfg.ShowEmpty {
				return
			}
			fmt.Fprintf(s.out, "  %s\n    %s\n", s.location(l, loc),
				formatutil.Join(defs.Items(), func(d il.Location) string { return d.String() }))
		})
	}
	return nil
}

// NewLivenessCommand creates the liveness command.
func NewLivenessCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "liveness <source.go | package...>",
		Short: "Print the variables live before every program location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(rootOpts, "liveness", cmd, args)
			if err != nil {
				return err
			}
			return s.run(runLiveness)
		},
	}
}

func runLiveness(s *session) error {
	for _, l := range s.funcs {
		results, err := liveness.Compute(l.Function, s.logger)
		if err != nil {
			return fmt.Errorf("liveness of %s: %w", l.Function.Name, err)
		}
		s.header(l)
		results.Each(func(loc il.Location, live *liveness.Variables) {
			if live.Len() == 0 && !s.cfg.ShowEmpty {
				return
			}
			fmt.Fprintf(s.out, "  %s\n    live: %s\n", s.location(l, loc),
				formatutil.Join(live.Items(), func(v il.Scalar) string { return s.palette.Cyan(v.String()) }))
		})
	}
	return nil
}

// NewDefUseCommand creates the defuse command.
func NewDefUseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "defuse <source.go | package...>",
		Short: "Print the uses of every definition, and the definitions that are never used",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(rootOpts, "defuse", cmd, args)
			if err != nil {
				return err
			}
			return s.run(runDefUse)
		},
	}
}

func runDefUse(s *session) error {
	for _, l := range s.funcs {
		results, err := reaching.Compute(l.Function, s.logger)
		if err != nil {
			return fmt.Errorf("reaching definitions of %s: %w", l.Function.Name, err)
		}
		chains, err := reaching.Chains(l.Function, results)
		if err != nil {
			return fmt.Errorf("def-use chains of %s: %w", l.Function.Name, err)
		}
		s.header(l)
		for _, def := range chains.Definitions() {
			uses := chains.UsesOf(def)
			if len(uses) == 0 && !s.cfg.ShowEmpty {
				continue
			}
			fmt.Fprintf(s.out, "  %s\n    uses: %s\n", s.location(l, def),
				formatutil.Join(uses, func(u reaching.Use) string { return u.String() }))
		}
		unused := chains.Unused()
		if len(unused) == 0 {
			fmt.Fprintf(s.out, "  %s\n", s.palette.Faint("no unused definition"))
			continue
		}
		fmt.Fprintf(s.out, "  %s\n", s.palette.Yellow("unused definitions:"))
		for _, def := range unused {
			fmt.Fprintf(s.out, "    %s\n", s.location(l, def))
		}
	}
	return nil
}
