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

// Package analysistest contains the functions and the source annotations shared by the tests of the analyses.
package analysistest

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"
	"testing"

	"github.com/awslabs/argot-reaching/analysis/il"
)

// Mem is the memory region used by the test functions
var Mem = il.Array{Name: "mem", Size: 1 << 32}

// ConditionalExample returns the following function, with blocks in order head (0), gt (1), lt (2) and tail (3):
//
//	a = in
//	b = 4
//	if a < 10 {
//	    c = a
//	    [0xdeadbeef] = c
//	} else {
//	    c = b
//	}
//	b = c
//	c = [0xdeadbeef]
func ConditionalExample(t *testing.T) *il.Function {
	cfg := il.NewControlFlowGraph()

	head := cfg.NewBlock()
	head.Assign(il.NewScalar("a", 32), il.ExprScalar("in", 32))
	head.Assign(il.NewScalar("b", 32), il.ExprConst(4, 32))

	gt := cfg.NewBlock()
	gt.Assign(il.NewScalar("c", 32), il.ExprScalar("b", 32))

	lt := cfg.NewBlock()
	lt.Assign(il.NewScalar("c", 32), il.ExprScalar("a", 32))
	lt.Store(Mem, il.ExprConst(0xdeadbeef, 32), il.ExprScalar("c", 32))

	tail := cfg.NewBlock()
	tail.Assign(il.NewScalar("b", 32), il.ExprScalar("c", 32))
	tail.Load(il.NewScalar("c", 32), il.ExprConst(0xdeadbeef, 32), Mem)

	condition := il.Cmpltu(il.ExprScalar("a", 32), il.ExprConst(10, 32))
	mustEdge(t)(cfg.ConditionalEdge(head.Index, lt.Index, condition))
	mustEdge(t)(cfg.ConditionalEdge(head.Index, gt.Index, il.Cmpeq(condition, il.ExprConst(0, 1))))
	mustEdge(t)(cfg.UnconditionalEdge(lt.Index, tail.Index))
	mustEdge(t)(cfg.UnconditionalEdge(gt.Index, tail.Index))

	return il.NewFunction(0, "conditional", cfg)
}

// LoopExample returns the following function, where the loop header (block 1) is empty:
//
//	b0: i = 0; s = 0
//	b1: (empty)
//	b2: s = s + i; i = i + 1        (taken when i < 10, loops back to b1)
//	b3: return s                    (taken when !(i < 10))
func LoopExample(t *testing.T) *il.Function {
	cfg := il.NewControlFlowGraph()

	entry := cfg.NewBlock()
	entry.Assign(il.NewScalar("i", 64), il.ExprConst(0, 64))
	entry.Assign(il.NewScalar("s", 64), il.ExprConst(0, 64))

	header := cfg.NewBlock()

	body := cfg.NewBlock()
	body.Assign(il.NewScalar("s", 64), &il.Binary{Op: "+", Lhs: il.ExprScalar("s", 64), Rhs: il.ExprScalar("i", 64)})
	body.Assign(il.NewScalar("i", 64), &il.Binary{Op: "+", Lhs: il.ExprScalar("i", 64), Rhs: il.ExprConst(1, 64)})

	exit := cfg.NewBlock()
	exit.Effect("return", il.ExprScalar("s", 64))

	condition := il.Cmpltu(il.ExprScalar("i", 64), il.ExprConst(10, 64))
	mustEdge(t)(cfg.UnconditionalEdge(entry.Index, header.Index))
	mustEdge(t)(cfg.ConditionalEdge(header.Index, body.Index, condition))
	mustEdge(t)(cfg.UnconditionalEdge(body.Index, header.Index))
	mustEdge(t)(cfg.ConditionalEdge(header.Index, exit.Index, il.Cmpeq(condition, il.ExprConst(0, 1))))

	return il.NewFunction(1, "loop", cfg)
}

// SelfLoopExample returns a function whose block 1 branches to itself:
//
//	b0: x = 0
//	b1: x = x + 1; y = x        (loops on itself)
//	b2: (empty)
func SelfLoopExample(t *testing.T) *il.Function {
	cfg := il.NewControlFlowGraph()

	entry := cfg.NewBlock()
	entry.Assign(il.NewScalar("x", 8), il.ExprConst(0, 8))

	loop := cfg.NewBlock()
	loop.Assign(il.NewScalar("x", 8), &il.Binary{Op: "+", Lhs: il.ExprScalar("x", 8), Rhs: il.ExprConst(1, 8)})
	loop.Assign(il.NewScalar("y", 8), il.ExprScalar("x", 8))

	exit := cfg.NewBlock()

	mustEdge(t)(cfg.UnconditionalEdge(entry.Index, loop.Index))
	mustEdge(t)(cfg.UnconditionalEdge(loop.Index, loop.Index))
	mustEdge(t)(cfg.UnconditionalEdge(loop.Index, exit.Index))

	return il.NewFunction(2, "selfloop", cfg)
}

func mustEdge(t *testing.T) func(*il.Edge, error) {
	return func(_ *il.Edge, err error) {
		if err != nil {
			t.Fatalf("failed to build test function: %v", err)
		}
	}
}

// Instr returns the location of the instruction at position i of block b in fn
func Instr(fn *il.Function, b uint64, i int) il.Location {
	return il.NewInstructionLocation(fn.Index, b, i)
}

// DefRegex matches annotations of the form "@Def(id)" marking the line of a definition
var DefRegex = regexp.MustCompile(`//.*@Def\((\s*\w+\s*)\)`)

// ReachRegex matches annotations of the form "@Reach(x; id1, id2)" marking a line where the definitions id1 and id2
// of x reach. An empty list of identifiers means no definition of x reaches the line.
var ReachRegex = regexp.MustCompile(`//.*@Reach\((\s*\w+\s*);((?:\s*\w*\s*,?)*)\)`)

// Reach is an expectation parsed from a @Reach annotation
type Reach struct {
	Line     int
	Variable string
	DefLines []int
}

// ExpectedReaches parses the source and returns the @Reach annotations, where definition identifiers have been
// replaced by the lines of the matching @Def annotations.
func ExpectedReaches(t *testing.T, filename string, src string) []Reach {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		t.Fatalf("failed to parse %s: %v", filename, err)
	}
	defLines := map[string]int{}
	forEachComment(f, func(c *ast.Comment) {
		if a := DefRegex.FindStringSubmatch(c.Text); len(a) > 1 {
			defLines[strings.TrimSpace(a[1])] = fset.Position(c.Pos()).Line
		}
	})
	var reaches []Reach
	forEachComment(f, func(c *ast.Comment) {
		a := ReachRegex.FindStringSubmatch(c.Text)
		if len(a) < 3 {
			return
		}
		r := Reach{Line: fset.Position(c.Pos()).Line, Variable: strings.TrimSpace(a[1])}
		for _, ident := range strings.Split(a[2], ",") {
			ident = strings.TrimSpace(ident)
			if ident == "" {
				continue
			}
			line, ok := defLines[ident]
			if !ok {
				t.Fatalf("%s:%d: no @Def(%s) annotation", filename, r.Line, ident)
			}
			r.DefLines = append(r.DefLines, line)
		}
		reaches = append(reaches, r)
	})
	return reaches
}

func forEachComment(f *ast.File, do func(c *ast.Comment)) {
	for _, group := range f.Comments {
		for _, c := range group.List {
			do(c)
		}
	}
}
