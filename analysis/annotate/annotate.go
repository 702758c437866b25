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

// Package annotate decorates Go source code with the results of the reaching definitions analysis: every simple
// statement that reads local variables gets an end-of-line comment listing, for each variable, the lines of the
// definitions that reach it.
//
// The source is rewritten with github.com/dave/dst, which keeps the existing comments in place.
package annotate

import (
	"bytes"
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"github.com/awslabs/argot-reaching/analysis/config"
	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/analysis/reaching"
	"github.com/awslabs/argot-reaching/analysis/ssair"
	"github.com/awslabs/argot-reaching/internal/funcutil"
	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
)

// Prefix starts every comment added to the source
const Prefix = "// reaching"

// Lines maps a source line to the variables read on that line, and each variable to the sorted lines of the
// definitions reaching the read.
type Lines map[int]map[string][]int

// ReachingLines runs reaching definitions on every lowered function and collects, for each read of a local variable
// with a source position, the lines of the definitions reaching it. Registers are not reported.
func ReachingLines(lowered []*ssair.Lowered, logger *config.LogGroup) (Lines, error) {
	lines := Lines{}
	for _, l := range lowered {
		results, err := reaching.Compute(l.Function, logger)
		if err != nil {
			return nil, err
		}
		for loc, pos := range l.Positions {
			instr, err := l.Function.InstructionAt(loc)
			if err != nil {
				return nil, err
			}
			var defs *reaching.Definitions
			for _, v := range instr.Operation.VariablesRead() {
				if isRegister(v) {
					continue
				}
				if defs == nil {
					if defs, err = reaching.Before(l.Function, results, loc); err != nil {
						return nil, err
					}
				}
				defLines, err := definitionLines(l, defs, v)
				if err != nil {
					return nil, err
				}
				if len(defLines) == 0 {
					continue
				}
				if lines[pos.Line] == nil {
					lines[pos.Line] = map[string][]int{}
				}
				lines[pos.Line][v.Name] = merge(lines[pos.Line][v.Name], defLines)
			}
		}
	}
	return lines, nil
}

func isRegister(v il.Scalar) bool {
	return strings.HasPrefix(v.Name, "%")
}

// definitionLines returns the lines of the definitions of v in defs
func definitionLines(l *ssair.Lowered, defs *reaching.Definitions, v il.Scalar) ([]int, error) {
	set := map[int]bool{}
	for _, def := range defs.Items() {
		instr, err := l.Function.InstructionAt(def)
		if err != nil {
			return nil, err
		}
		if w := instr.Operation.VariableWritten(); w == nil || !il.SameVariable(*w, v) {
			continue
		}
		if pos := l.Position(def); pos.IsValid() {
			set[pos.Line] = true
		}
	}
	return funcutil.SetToOrderedSlice(set), nil
}

func merge(a []int, b []int) []int {
	set := map[int]bool{}
	for _, x := range append(a, b...) {
		set[x] = true
	}
	return funcutil.SetToOrderedSlice(set)
}

// Comment returns the comment of a line, e.g. "// reaching s: 14, 16; x: 6"
func (lines Lines) Comment(line int) (string, bool) {
	vars := lines[line]
	if len(vars) == 0 {
		return "", false
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		defLines := make([]string, len(vars[name]))
		for j, line := range vars[name] {
			defLines[j] = strconv.Itoa(line)
		}
		parts[i] = fmt.Sprintf("%s: %s", name, strings.Join(defLines, ", "))
	}
	return Prefix + " " + strings.Join(parts, "; "), true
}

// Source returns the source code src of filename where every simple statement on an annotated line is decorated
// with the comment of the line. Only the first simple statement of each line is decorated.
func Source(filename string, src []byte, lines Lines) ([]byte, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	dec := decorator.NewDecorator(fset)
	file, err := dec.DecorateFile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decorate %s: %w", filename, err)
	}

	done := map[int]bool{}
	// statements in the header of a control statement cannot carry an end-of-line comment
	header := map[dst.Node]bool{}
	dst.Inspect(file, func(n dst.Node) bool {
		markHeader(header, n)
		if !isSimpleStmt(n) || header[n] {
			return true
		}
		astNode, ok := dec.Ast.Nodes[n]
		if !ok {
			return true
		}
		line := dec.Fset.Position(astNode.Pos()).Line
		if done[line] {
			return true
		}
		if comment, ok := lines.Comment(line); ok {
			n.Decorations().End.Append(comment)
			done[line] = true
		}
		return true
	})

	var buf bytes.Buffer
	if err := decorator.Fprint(&buf, file); err != nil {
		return nil, fmt.Errorf("failed to print %s: %w", filename, err)
	}
	return buf.Bytes(), nil
}

func isSimpleStmt(n dst.Node) bool {
	switch n.(type) {
	case *dst.ExprStmt, *dst.AssignStmt, *dst.IncDecStmt, *dst.ReturnStmt, *dst.SendStmt, *dst.DeclStmt:
		return true
	}
	return false
}

func markHeader(header map[dst.Node]bool, n dst.Node) {
	switch n := n.(type) {
	case *dst.ForStmt:
		header[n.Init] = true
		header[n.Post] = true
	case *dst.IfStmt:
		header[n.Init] = true
	case *dst.SwitchStmt:
		header[n.Init] = true
	case *dst.TypeSwitchStmt:
		header[n.Init] = true
		header[n.Assign] = true
	case *dst.CommClause:
		header[n.Comm] = true
	}
}
