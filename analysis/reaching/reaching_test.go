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

package reaching

import (
	"errors"
	"testing"

	"github.com/awslabs/argot-reaching/analysis/fixedpoint"
	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/internal/analysistest"
	"github.com/awslabs/argot-reaching/internal/funcutil"
	"github.com/awslabs/argot-reaching/internal/graphutil"
	"github.com/google/go-cmp/cmp"
)

func compute(t *testing.T, fn *il.Function) *Results {
	rd, err := Compute(fn, nil)
	if err != nil {
		t.Fatalf("reaching definitions of %s failed: %v", fn, err)
	}
	return rd
}

func checkDefs(t *testing.T, what string, actual *Definitions, expected ...il.Location) {
	t.Helper()
	if diff := cmp.Diff(expected, actual.Items()); diff != "" {
		t.Errorf("%s: unexpected definitions (-want +got):\n%s", what, diff)
	}
}

func TestReachingDefinitionsConditional(t *testing.T) {
	fn := analysistest.ConditionalExample(t)
	rd := compute(t, fn)
	instr := func(b uint64, i int) il.Location { return analysistest.Instr(fn, b, i) }

	if rd.Len() != 11 {
		t.Errorf("expected 11 locations (7 instructions, 4 edges), got %d", rd.Len())
	}

	tailFirst := instr(3, 0)
	r, ok := rd.Get(tailFirst)
	if !ok {
		t.Fatalf("no state for %s", tailFirst)
	}
	// b = c kills b = 4
	checkDefs(t, "after b = c", r, instr(0, 0), instr(1, 0), instr(2, 0), instr(3, 0))
	if r.Contains(instr(0, 1)) {
		t.Errorf("b = 4 should be killed by b = c")
	}
	// the store does not write a variable
	if r.Contains(instr(2, 1)) {
		t.Errorf("a store should never be a definition")
	}

	before, err := Before(fn, rd, tailFirst)
	if err != nil {
		t.Fatalf("Before(%s) failed: %v", tailFirst, err)
	}
	checkDefs(t, "before b = c", before, instr(0, 0), instr(0, 1), instr(1, 0), instr(2, 0))

	last, _ := rd.Get(instr(3, 1))
	checkDefs(t, "after c = load", last, instr(0, 0), instr(3, 0), instr(3, 1))

	entry, err := Before(fn, rd, instr(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if entry.Len() != 0 {
		t.Errorf("nothing should reach the entry of the function, got %v", entry)
	}
	first, _ := rd.Get(instr(0, 0))
	checkDefs(t, "after a = in", first, instr(0, 0))

	// edges pass states through
	for _, e := range fn.ControlFlowGraph().Edges() {
		edge := il.NewEdgeLocation(fn.Index, e.Head, e.Tail)
		head, _ := fn.ControlFlowGraph().Block(e.Head)
		s, _ := rd.Get(edge)
		headState, _ := rd.Get(instr(e.Head, len(head.Instructions)-1))
		if !s.Equal(headState) {
			t.Errorf("state on edge %s should be the state of the last instruction of its head", edge)
		}
	}
}

func TestReachingDefinitionsJoin(t *testing.T) {
	fn := analysistest.ConditionalExample(t)
	rd := compute(t, fn)

	fromGt, _ := rd.Get(il.NewEdgeLocation(fn.Index, 1, 3))
	fromLt, _ := rd.Get(il.NewEdgeLocation(fn.Index, 2, 3))
	union := fromGt.Clone()
	union.Union(fromLt)

	before, err := Before(fn, rd, analysistest.Instr(fn, 3, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !before.Equal(union) {
		t.Errorf("definitions at join point should be the union of each path: %v != %v", before, union)
	}
}

func TestReachingDefinitionsLoop(t *testing.T) {
	fn := analysistest.LoopExample(t)
	rd := compute(t, fn)
	instr := func(b uint64, i int) il.Location { return analysistest.Instr(fn, b, i) }

	header, ok := rd.Get(il.NewEmptyBlockLocation(fn.Index, 1))
	if !ok {
		t.Fatalf("empty loop header should have a state")
	}
	checkDefs(t, "loop header", header, instr(0, 0), instr(0, 1), instr(2, 0), instr(2, 1))

	afterSum, _ := rd.Get(instr(2, 0))
	checkDefs(t, "after s = s + i", afterSum, instr(0, 0), instr(2, 0), instr(2, 1))

	afterIncr, _ := rd.Get(instr(2, 1))
	checkDefs(t, "after i = i + 1", afterIncr, instr(2, 0), instr(2, 1))

	exit, _ := rd.Get(instr(3, 0))
	checkDefs(t, "return", exit, instr(0, 0), instr(0, 1), instr(2, 0), instr(2, 1))
}

func TestReachingDefinitionsSelfLoop(t *testing.T) {
	fn := analysistest.SelfLoopExample(t)
	rd := compute(t, fn)
	instr := func(b uint64, i int) il.Location { return analysistest.Instr(fn, b, i) }

	before, err := Before(fn, rd, instr(1, 0))
	if err != nil {
		t.Fatal(err)
	}
	checkDefs(t, "before x = x + 1", before, instr(0, 0), instr(1, 0), instr(1, 1))

	exit, _ := rd.Get(il.NewEmptyBlockLocation(fn.Index, 2))
	checkDefs(t, "exit", exit, instr(1, 0), instr(1, 1))
}

func TestReachingDefinitionsDeterministic(t *testing.T) {
	for _, mk := range []func(*testing.T) *il.Function{
		analysistest.ConditionalExample,
		analysistest.LoopExample,
		analysistest.SelfLoopExample,
	} {
		fn := mk(t)
		rd1 := compute(t, fn)
		rd2 := compute(t, mk(t))
		if diff := cmp.Diff(rd1.Locations(), rd2.Locations()); diff != "" {
			t.Errorf("%s: locations differ between runs:\n%s", fn, diff)
		}
		rd1.Each(func(l il.Location, s1 *Definitions) {
			s2, ok := rd2.Get(l)
			if !ok {
				t.Errorf("%s: %s missing in second run", fn, l)
				return
			}
			if diff := cmp.Diff(s1.Items(), s2.Items()); diff != "" {
				t.Errorf("%s: states at %s differ between runs:\n%s", fn, l, diff)
			}
		})
	}
}

func TestReachingDefinitionsMonotone(t *testing.T) {
	for _, mk := range []func(*testing.T) *il.Function{
		analysistest.ConditionalExample,
		analysistest.LoopExample,
		analysistest.SelfLoopExample,
	} {
		fn := mk(t)
		history := map[il.Location][]*Definitions{}
		opts := fixedpoint.Options[*Definitions]{
			PostUpdate: func(l il.Location, s *Definitions) {
				history[l] = append(history[l], s.Clone())
			},
		}
		rd, err := fixedpoint.Solve[*Definitions](fn, NewAnalysis(fn), fixedpoint.Forward, opts)
		if err != nil {
			t.Fatal(err)
		}
		rd.Each(func(l il.Location, final *Definitions) {
			states := history[l]
			if len(states) == 0 {
				t.Errorf("%s: no update recorded for %s", fn, l)
				return
			}
			for i := 1; i < len(states); i++ {
				if !states[i-1].SubsetOf(states[i]) {
					t.Errorf("%s: state at %s decreased from %v to %v", fn, l, states[i-1], states[i])
				}
			}
			if !states[len(states)-1].Equal(final) {
				t.Errorf("%s: last update at %s is not the final state", fn, l)
			}
		})
	}
}

// TestKillDominatingDefinition checks that when a variable is written once, its only definition reaches every
// location of the blocks its block dominates strictly.
func TestKillDominatingDefinition(t *testing.T) {
	for _, mk := range []func(*testing.T) *il.Function{
		analysistest.ConditionalExample,
		analysistest.LoopExample,
		analysistest.SelfLoopExample,
	} {
		fn := mk(t)
		rd := compute(t, fn)
		dom, err := graphutil.Dominators(fn.ControlFlowGraph())
		if err != nil {
			t.Fatal(err)
		}
		defsOf := map[string][]il.Location{}
		for _, l := range rd.Locations() {
			if !l.IsInstruction() {
				continue
			}
			instr, _ := fn.InstructionAt(l)
			if w := instr.Operation.VariableWritten(); w != nil {
				defsOf[w.Identity().String()] = append(defsOf[w.Identity().String()], l)
			}
		}
		for v, defs := range defsOf {
			if len(defs) != 1 {
				continue
			}
			def := defs[0]
			for _, l := range rd.Locations() {
				if l.Block == def.Block || !dom.StrictlyDominates(def.Block, l.Block) {
					continue
				}
				before, err := Before(fn, rd, l)
				if err != nil {
					t.Fatal(err)
				}
				var reaching []il.Location
				before.Each(func(d il.Location) {
					instr, _ := fn.InstructionAt(d)
					if instr.Operation.VariableWritten().Identity().String() == v {
						reaching = append(reaching, d)
					}
				})
				if diff := cmp.Diff([]il.Location{def}, reaching); diff != "" {
					t.Errorf("%s: definitions of %s at %s (-want +got):\n%s", fn, v, l, diff)
				}
			}
		}
	}
}

func TestTransferErrors(t *testing.T) {
	fn := analysistest.ConditionalExample(t)
	a := NewAnalysis(fn)

	_, err := a.Transfer(il.NewInstructionLocation(fn.Index, 7, 0), funcutil.None[*Definitions]())
	if !errors.Is(err, il.ErrBlockNotFound) {
		t.Errorf("transfer at a missing block should fail with ErrBlockNotFound, got %v", err)
	}

	_, err = a.Transfer(il.NewInstructionLocation(fn.Index+1, 0, 0), funcutil.None[*Definitions]())
	var graphErr *il.GraphError
	if !errors.As(err, &graphErr) || !errors.Is(err, il.ErrForeignLocation) {
		t.Errorf("transfer at a location of another function should fail with a graph error, got %v", err)
	}

	// a state containing an edge is malformed: edges never define variables
	malformed := NewDefinitions(il.NewEdgeLocation(fn.Index, 0, 1))
	if _, err = a.Transfer(analysistest.Instr(fn, 0, 0), funcutil.Some(malformed)); err == nil {
		t.Errorf("transfer with a malformed state should fail")
	}

	// locations that write nothing pass the state through, malformed or not
	s, err := a.Transfer(analysistest.Instr(fn, 2, 1), funcutil.Some(NewDefinitions(il.NewEdgeLocation(fn.Index, 0, 1))))
	if err != nil || s.Len() != 1 {
		t.Errorf("a store should not inspect the incoming definitions: %v %v", s, err)
	}
}

func TestComputeMalformedGraph(t *testing.T) {
	fn := analysistest.ConditionalExample(t)
	fn.ControlFlowGraph().Blocks()[2].Index = 5
	rd, err := Compute(fn, nil)
	if rd != nil {
		t.Errorf("no definitions should be returned for a malformed graph")
	}
	if !errors.Is(err, il.ErrBlockNotFound) {
		t.Errorf("expected ErrBlockNotFound, got %v", err)
	}

	rd, err = Compute(il.NewFunction(fn.Index, fn.Name, nil), nil)
	if rd != nil || !errors.Is(err, il.ErrEmptyGraph) {
		t.Errorf("expected ErrEmptyGraph for a function without graph, got %v", err)
	}
}

func TestJoin(t *testing.T) {
	fn := analysistest.ConditionalExample(t)
	a := NewAnalysis(fn)
	x := NewDefinitions(analysistest.Instr(fn, 0, 0), analysistest.Instr(fn, 1, 0))
	y := NewDefinitions(analysistest.Instr(fn, 1, 0), analysistest.Instr(fn, 2, 0))

	xy, _ := a.Join(x.Clone(), y)
	yx, _ := a.Join(y.Clone(), x)
	if !xy.Equal(yx) {
		t.Errorf("join should be commutative: %v != %v", xy, yx)
	}
	xx, _ := a.Join(x.Clone(), x)
	if !xx.Equal(x) {
		t.Errorf("join should be idempotent: %v != %v", xx, x)
	}
	bottom, _ := a.Join(x.Clone(), NewDefinitions())
	if !bottom.Equal(x) {
		t.Errorf("the empty set should be the bottom element")
	}
	if xy.Len() != 3 {
		t.Errorf("expected 3 definitions in the union, got %v", xy)
	}
}
