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

package ssair_test

import (
	"errors"
	"go/token"
	"sort"
	"strings"
	"testing"

	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/analysis/liveness"
	"github.com/awslabs/argot-reaching/analysis/reaching"
	"github.com/awslabs/argot-reaching/analysis/ssair"
	"github.com/awslabs/argot-reaching/internal/analysistest"
	"github.com/awslabs/argot-reaching/internal/graphutil"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/go/ssa"
)

const source = `package example

func use(x int) {}

func simple(c bool) {
	x := 0 // @Def(x0)
	if c {
		x = 1 // @Def(x1)
	}
	use(x) // @Reach(x; x0, x1)
	x = 2  // @Def(x2)
	use(x) // @Reach(x; x2)
}

func loop(n int) {
	s := 0 // @Def(s0)
	for i := 0; i < n; i++ {
		use(s)    // @Reach(s; s0, s1)
		s = s + i // @Def(s1)
	}
	use(s) // @Reach(s; s0, s1)
}

func shadow(c bool) {
	y := 1 // @Def(y0)
	if c {
		y := 2
		use(y)
	}
	use(y) // @Reach(y; y0)
}

func memory(p *int) int {
	*p = 1
	return *p
}

func closure() func() int {
	return func() int { return 3 }
}
`

func load(t *testing.T) *ssair.Program {
	prog, err := ssair.LoadSource("example.go", source)
	if err != nil {
		t.Fatalf("failed to load source: %v", err)
	}
	return prog
}

func lowerNamed(t *testing.T, prog *ssair.Program, name string) *ssair.Lowered {
	lowered, err := prog.LowerAll(func(n string) bool { return n == name })
	if err != nil {
		t.Fatalf("failed to lower %s: %v", name, err)
	}
	if len(lowered) != 1 {
		t.Fatalf("expected one function named %s, got %d", name, len(lowered))
	}
	return lowered[0]
}

func TestFunctions(t *testing.T) {
	prog := load(t)
	var names []string
	for _, fn := range prog.Functions() {
		names = append(names, ssair.FunctionName(fn))
	}
	want := []string{"use", "simple", "loop", "shadow", "memory", "closure", "closure$1"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("unexpected functions (-want +got):\n%s", diff)
	}
}

func TestLowerStructure(t *testing.T) {
	prog := load(t)
	l := lowerNamed(t, prog, "simple")
	cfg := l.Function.ControlFlowGraph()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("lowered graph is invalid: %v", err)
	}
	if len(cfg.Blocks()) != len(l.Source.Blocks) {
		t.Errorf("expected %d blocks, got %d", len(l.Source.Blocks), len(cfg.Blocks()))
	}
	var conditional int
	for _, e := range cfg.Edges() {
		if e.Condition != nil {
			conditional++
		}
	}
	if conditional != 2 {
		t.Errorf("expected the two edges of the if statement to be conditional, got %d", conditional)
	}
	if l.Function.Name != "simple" {
		t.Errorf("expected name simple, got %s", l.Function.Name)
	}
}

func TestLowerMemory(t *testing.T) {
	prog := load(t)
	l := lowerNamed(t, prog, "memory")
	var stores, loads int
	for _, b := range l.Function.ControlFlowGraph().Blocks() {
		for _, instr := range b.Instructions {
			switch op := instr.Operation.(type) {
			case *il.Store:
				stores++
			case *il.Load:
				loads++
				if op.Memory != ssair.Memory {
					t.Errorf("expected a load from %s, got %s", ssair.Memory, op.Memory)
				}
			}
		}
	}
	if stores != 1 || loads != 1 {
		t.Errorf("expected one store and one load through p, got %d stores and %d loads", stores, loads)
	}
}

func TestLowerLoop(t *testing.T) {
	prog := load(t)
	l := lowerNamed(t, prog, "loop")
	loops := graphutil.Loops(l.Function.ControlFlowGraph())
	if len(loops) != 1 {
		t.Errorf("expected one loop, got %v", loops)
	}
}

func TestLowerNoBody(t *testing.T) {
	fn := &ssa.Function{}
	if _, err := ssair.Lower(fn, 0); !errors.Is(err, ssair.ErrNoBody) {
		t.Errorf("expected ErrNoBody, got %v", err)
	}
}

func TestLoadSourceError(t *testing.T) {
	if _, err := ssair.LoadSource("bad.go", "package bad\nfunc f() { return 1 }\n"); err == nil {
		t.Errorf("expected a type error")
	}
	if _, err := ssair.LoadSource("bad.go", "package"); err == nil {
		t.Errorf("expected a syntax error")
	}
}

// TestReachingAnnotations checks that the definitions reaching each annotated call are the definitions marked with
// the @Def annotations listed in its @Reach annotation.
func TestReachingAnnotations(t *testing.T) {
	prog := load(t)
	lowered, err := prog.LowerAll(nil)
	if err != nil {
		t.Fatalf("failed to lower: %v", err)
	}
	expected := analysistest.ExpectedReaches(t, "example.go", source)
	if len(expected) != 5 {
		t.Fatalf("expected 5 annotations, got %d", len(expected))
	}
	for _, r := range expected {
		l, loc := findCall(t, lowered, r.Line)
		results, err := reaching.Compute(l.Function, nil)
		if err != nil {
			t.Fatalf("reaching definitions failed on %s: %v", l.Function.Name, err)
		}
		defs, err := reaching.Before(l.Function, results, loc)
		if err != nil {
			t.Fatalf("failed to get the definitions reaching line %d: %v", r.Line, err)
		}
		lines := map[int]bool{}
		for _, def := range defs.Items() {
			instr, err := l.Function.InstructionAt(def)
			if err != nil {
				t.Fatalf("definition %s is not an instruction: %v", def, err)
			}
			if v := instr.Operation.VariableWritten(); v == nil || v.Name != r.Variable {
				continue
			}
			lines[l.Position(def).Line] = true
		}
		var got []int
		for line := range lines {
			got = append(got, line)
		}
		sort.Ints(got)
		want := append([]int{}, r.DefLines...)
		sort.Ints(want)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("line %d: unexpected definitions of %s (-want +got):\n%s", r.Line, r.Variable, diff)
		}
	}
}

// findCall returns the location of the call to use on the given line
func findCall(t *testing.T, lowered []*ssair.Lowered, line int) (*ssair.Lowered, il.Location) {
	for _, l := range lowered {
		for _, b := range l.Source.Blocks {
			for _, instr := range b.Instrs {
				call, ok := instr.(*ssa.Call)
				if !ok || !isUseLine(l.Source.Prog.Fset, call, line) {
					continue
				}
				for loc, pos := range l.Positions {
					if pos.Line == line && isEffect(l.Function, loc, "use") {
						return l, loc
					}
				}
			}
		}
	}
	t.Fatalf("no call to use at line %d", line)
	return nil, il.Location{}
}

func isUseLine(fset *token.FileSet, call *ssa.Call, line int) bool {
	callee := call.Call.StaticCallee()
	return callee != nil && callee.Name() == "use" && fset.Position(call.Pos()).Line == line
}

func isEffect(fn *il.Function, loc il.Location, name string) bool {
	instr, err := fn.InstructionAt(loc)
	if err != nil {
		return false
	}
	e, ok := instr.Operation.(*il.Effect)
	return ok && e.Name == name
}

const features = `package features

type List[T any] struct {
	items []T
	last  T
}

func (l *List[T]) Push(x T) {
	l.items = append(l.items, x)
	l.last = x
}

func Sum[T int | float64](xs []T) T {
	var s T
	for _, x := range xs {
		s += x
	}
	return s
}

func Deferred() (n int) {
	defer func() { n++ }()
	n = 1
	return n
}

func Select(a, b chan int) int {
	select {
	case x := <-a:
		return x
	case b <- 1:
		return 0
	}
}

func Switch(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case string:
		return len(x)
	}
	return -1
}

func Labeled(n int) int {
	count := 0
outer:
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j > i {
				continue outer
			}
			if i*j > 10 {
				break outer
			}
			count++
		}
	}
	return count
}

func Unnamed(x int) int {
	y := x + 1
	return y
}
`

// TestLowerLanguageFeatures lowers functions using generics, closures, defer, select, type switches and labeled
// loops, and runs the analyses on each of them.
func TestLowerLanguageFeatures(t *testing.T) {
	prog, err := ssair.LoadSource("features.go", features)
	if err != nil {
		t.Fatalf("failed to load source: %v", err)
	}
	lowered, err := prog.LowerAll(nil)
	if err != nil {
		t.Fatalf("failed to lower: %v", err)
	}
	if len(lowered) < 7 {
		t.Fatalf("expected at least 7 functions, got %d", len(lowered))
	}
	for _, l := range lowered {
		if err := l.Function.ControlFlowGraph().Validate(); err != nil {
			t.Errorf("%s: invalid graph: %v", l.Function.Name, err)
			continue
		}
		results, err := reaching.Compute(l.Function, nil)
		if err != nil {
			t.Errorf("%s: reaching definitions failed: %v", l.Function.Name, err)
			continue
		}
		if _, err := reaching.Chains(l.Function, results); err != nil {
			t.Errorf("%s: def-use chains failed: %v", l.Function.Name, err)
		}
		if _, err := liveness.Compute(l.Function, nil); err != nil {
			t.Errorf("%s: liveness failed: %v", l.Function.Name, err)
		}
	}
}

// TestLowerVariableNames checks that only the variables declared in the source are named after them. Result slots,
// range indices and defer stacks are named like registers.
func TestLowerVariableNames(t *testing.T) {
	prog, err := ssair.LoadSource("features.go", features)
	if err != nil {
		t.Fatalf("failed to load source: %v", err)
	}
	lowered, err := prog.LowerAll(nil)
	if err != nil {
		t.Fatalf("failed to lower: %v", err)
	}
	declared := map[string]bool{}
	for _, name := range []string{"l", "x", "xs", "s", "n", "a", "b", "v", "count", "i", "j", "y"} {
		declared[name] = true
	}
	for _, l := range lowered {
		for _, v := range scalarsOf(l.Function) {
			if strings.HasPrefix(v.Name, "%") {
				continue
			}
			base, _, _ := strings.Cut(v.Name, "#")
			if !declared[base] {
				t.Errorf("%s: scalar %s is not a source variable", l.Function.Name, v)
			}
		}
	}
}

func TestIsSourceVariable(t *testing.T) {
	for _, test := range []struct {
		comment string
		want    bool
	}{
		{"x", true},
		{"count", true},
		{"", false},
		{"_", false},
		{"complit", false},
		{"rangeindex", false},
		{"defer$stack", false},
		{"rangeint.iter", false},
	} {
		if got := ssair.IsSourceVariable(&ssa.Alloc{Comment: test.comment}); got != test.want {
			t.Errorf("IsSourceVariable(%q) = %v, want %v", test.comment, got, test.want)
		}
	}
}

// scalarsOf returns the scalars written or read by the instructions of fn
func scalarsOf(fn *il.Function) []il.Scalar {
	var scalars []il.Scalar
	for _, b := range fn.ControlFlowGraph().Blocks() {
		for _, instr := range b.Instructions {
			if v := instr.Operation.VariableWritten(); v != nil {
				scalars = append(scalars, *v)
			}
			scalars = append(scalars, instr.Operation.VariablesRead()...)
		}
	}
	return scalars
}

func TestBuildMode(t *testing.T) {
	if ssair.BuildMode&ssa.NaiveForm == 0 {
		t.Errorf("locals must stay memory cells")
	}
	if ssair.BuildMode&ssa.SanityCheckFunctions != 0 {
		t.Errorf("the sanity checker warns on every naive-form function")
	}
}

// TestLowerTypeParameterWidth checks that values whose type depends on a type parameter are word sized
func TestLowerTypeParameterWidth(t *testing.T) {
	prog, err := ssair.LoadSource("features.go", features)
	if err != nil {
		t.Fatalf("failed to load source: %v", err)
	}
	l := lowerNamed(t, prog, "Sum")
	found := false
	for _, v := range scalarsOf(l.Function) {
		if v.Name == "s" {
			found = true
			if v.Bits != 64 {
				t.Errorf("expected s to be 64 bits wide, got %d", v.Bits)
			}
		}
	}
	if !found {
		t.Errorf("Sum should have a cell for s")
	}
}
