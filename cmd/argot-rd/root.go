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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/awslabs/argot-reaching/analysis/config"
	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/analysis/ssair"
	"github.com/awslabs/argot-reaching/internal/formatutil"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Function   string
	Verbose    bool
}

// NewRootCommand creates the root command of argot-rd.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "argot-rd",
		Short: "Dataflow analyses of Go functions",
		Long: `Run monotone dataflow analyses on the functions of Go programs.

The program is loaded in SSA form where local variables stay memory cells, each function is lowered into a
control-flow graph, and the analysis is solved to a fixed point at every program location.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "configuration file")
	cmd.PersistentFlags().StringVarP(&opts.Function, "function", "f", "",
		"only analyze the functions matching this regex (overrides the config's function-filter)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewReachingCommand(opts))
	cmd.AddCommand(NewLivenessCommand(opts))
	cmd.AddCommand(NewDefUseCommand(opts))
	cmd.AddCommand(NewCfgCommand(opts))
	cmd.AddCommand(NewAnnotateCommand(opts))

	return cmd
}

// session holds the state shared by the commands: configuration, logger, output and lowered functions
type session struct {
	cfg     *config.Config
	logger  *config.LogGroup
	out     io.Writer
	palette formatutil.Palette
	program *ssair.Program
	funcs   []*ssair.Lowered
	closer  func() error
}

// newSession loads the configuration, then loads and lowers the program given by args. The caller must call close.
func newSession(opts *RootOptions, name string, cmd *cobra.Command, args []string) (*session, error) {
	config.SetGlobalConfig(opts.ConfigFile)
	cfg, err := config.LoadGlobal()
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", opts.ConfigFile, err)
	}
	if opts.Verbose && !cfg.Verbose() {
		cfg.LogLevel = int(config.DebugLevel)
	}
	if opts.Function != "" {
		cfg.SetFunctionFilter(opts.Function)
	}

	s := &session{
		cfg:    cfg,
		logger: config.NewLogGroup(cfg),
		out:    cmd.OutOrStdout(),
		closer: func() error { return nil },
	}
	s.logger.SetAllOutput(cmd.ErrOrStderr())

	if cfg.ReportsDir != "" {
		filename := filepath.Join(cfg.ReportsDir, name+".txt")
		f, err := os.Create(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create report file: %w", err)
		}
		s.logger.Infof("Writing report in %s", filename)
		s.out = f
		s.closer = f.Close
	}
	s.palette = formatutil.NewPalette(s.out, cfg.Color)

	if err := s.load(args); err != nil {
		_ = s.closer()
		return nil, err
	}
	return s, nil
}

func (s *session) load(args []string) error {
	var err error
	if len(args) == 1 && strings.HasSuffix(args[0], ".go") {
		s.logger.Infof("Reading %s", args[0])
		s.program, err = ssair.LoadFile(args[0])
	} else {
		s.logger.Infof("Loading packages %s", strings.Join(args, " "))
		s.program, err = ssair.LoadPackages("", args)
	}
	if err != nil {
		return err
	}
	s.funcs, err = s.program.LowerAll(s.cfg.MatchFunctionFilter)
	if err != nil {
		return err
	}
	if len(s.funcs) == 0 {
		s.logger.Warnf("No function matches the filter %q", s.cfg.FunctionFilter)
	}
	s.logger.Debugf("Lowered %d functions", len(s.funcs))
	return nil
}

// run runs the command f and closes the session. The error closing the report is returned if f succeeds.
func (s *session) run(f func(*session) error) (err error) {
	defer func() {
		if closeErr := s.closer(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close the report: %w", closeErr)
		}
	}()
	return f(s)
}

// header prints the title line of a function
func (s *session) header(l *ssair.Lowered) {
	fmt.Fprintf(s.out, "%s %s (fn%d)\n", s.palette.Bold("function"), s.palette.Magenta(l.Function.Name),
		l.Function.Index)
}

// location formats a location with its instruction and its source line, if any
func (s *session) location(l *ssair.Lowered, loc il.Location) string {
	str := s.palette.Green(loc.String())
	if instr, err := l.Function.InstructionAt(loc); err == nil {
		str += " " + formatutil.SanitizeRepr(instr.Operation)
	}
	if pos := l.Position(loc); pos.IsValid() {
		str += " " + s.palette.Faint(fmt.Sprintf("(%s:%d)", filepath.Base(pos.Filename), pos.Line))
	}
	return str
}
