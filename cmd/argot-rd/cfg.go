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

	"github.com/awslabs/argot-reaching/internal/graphutil"
	"github.com/spf13/cobra"
)

// NewCfgCommand creates the cfg command.
func NewCfgCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cfg <source.go | package...>",
		Short: "Print the control-flow graph of every function, with its dominators and loops",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(rootOpts, "cfg", cmd, args)
			if err != nil {
				return err
			}
			return s.run(runCfg)
		},
	}
}

func runCfg(s *session) error {
	for _, l := range s.funcs {
		cfg := l.Function.ControlFlowGraph()
		dom, err := graphutil.Dominators(cfg)
		if err != nil {
			return fmt.Errorf("dominators of %s: %w", l.Function.Name, err)
		}
		unreachable, err := graphutil.Unreachable(cfg)
		if err != nil {
			return fmt.Errorf("reachability of %s: %w", l.Function.Name, err)
		}
		s.header(l)
		fmt.Fprintf(s.out, "%s", cfg)
		for _, b := range cfg.Blocks() {
			if idom, ok := dom.ImmediateDominator(b.Index); ok {
				fmt.Fprintf(s.out, "  idom(b%d) = b%d\n", b.Index, idom)
			}
		}
		if graphutil.Acyclic(cfg) {
			fmt.Fprintf(s.out, "  loops: none\n")
		} else {
			fmt.Fprintf(s.out, "  loops: %v\n", graphutil.Loops(cfg))
			fmt.Fprintf(s.out, "  cycles: %v\n", graphutil.ElementaryCycles(graphutil.NewBlockGraph(cfg)))
		}
		if len(unreachable) > 0 {
			fmt.Fprintf(s.out, "  %s %v\n", s.palette.Yellow("unreachable:"), unreachable)
		}
	}
	return nil
}
