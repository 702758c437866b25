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

package il_test

import (
	"errors"
	"testing"

	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/internal/analysistest"
	"github.com/google/go-cmp/cmp"
)

func locStrings(locs []il.Location) []string {
	s := make([]string, len(locs))
	for i, l := range locs {
		s[i] = l.String()
	}
	return s
}

func TestLocationsOrder(t *testing.T) {
	fn := analysistest.ConditionalExample(t)
	locs, err := fn.Locations()
	if err != nil {
		t.Fatalf("failed to get locations: %v", err)
	}
	want := []string{
		"fn0:b0.0", "fn0:b0.1", "fn0:b0->b1", "fn0:b0->b2",
		"fn0:b1.0", "fn0:b1->b3",
		"fn0:b2.0", "fn0:b2.1", "fn0:b2->b3",
		"fn0:b3.0", "fn0:b3.1",
	}
	if diff := cmp.Diff(want, locStrings(locs)); diff != "" {
		t.Errorf("unexpected locations (-want +got):\n%s", diff)
	}
}

func TestLocationsEmptyBlocks(t *testing.T) {
	fn := analysistest.LoopExample(t)
	locs, err := fn.Locations()
	if err != nil {
		t.Fatalf("failed to get locations: %v", err)
	}
	want := []string{
		"fn1:b0.0", "fn1:b0.1", "fn1:b0->b1",
		"fn1:b1", "fn1:b1->b2", "fn1:b1->b3",
		"fn1:b2.0", "fn1:b2.1", "fn1:b2->b1",
		"fn1:b3.0",
	}
	if diff := cmp.Diff(want, locStrings(locs)); diff != "" {
		t.Errorf("unexpected locations (-want +got):\n%s", diff)
	}
}

func TestCompareLocations(t *testing.T) {
	a := il.NewInstructionLocation(0, 1, 5)
	b := il.NewEdgeLocation(0, 1, 0)
	c := il.NewInstructionLocation(0, 2, 0)
	d := il.NewInstructionLocation(1, 0, 0)
	ordered := []il.Location{a, b, c, d}
	for i := range ordered {
		for j := range ordered {
			got := il.CompareLocations(ordered[i], ordered[j])
			switch {
			case i < j && got >= 0, i > j && got <= 0, i == j && got != 0:
				t.Errorf("CompareLocations(%s, %s) = %d", ordered[i], ordered[j], got)
			}
		}
	}
}

func TestTraversal(t *testing.T) {
	fn := analysistest.LoopExample(t)
	tests := []struct {
		at    il.Location
		succs []string
		preds []string
	}{
		{il.NewInstructionLocation(1, 0, 0), []string{"fn1:b0.1"}, []string{}},
		{il.NewInstructionLocation(1, 0, 1), []string{"fn1:b0->b1"}, []string{"fn1:b0.0"}},
		{il.NewEmptyBlockLocation(1, 1), []string{"fn1:b1->b2", "fn1:b1->b3"}, []string{"fn1:b0->b1", "fn1:b2->b1"}},
		{il.NewEdgeLocation(1, 1, 2), []string{"fn1:b2.0"}, []string{"fn1:b1"}},
		{il.NewEdgeLocation(1, 2, 1), []string{"fn1:b1"}, []string{"fn1:b2.1"}},
		{il.NewInstructionLocation(1, 3, 0), []string{}, []string{"fn1:b1->b3"}},
	}
	for _, tt := range tests {
		t.Run(tt.at.String(), func(t *testing.T) {
			succs, err := fn.Successors(tt.at)
			if err != nil {
				t.Fatalf("successors: %v", err)
			}
			if diff := cmp.Diff(tt.succs, locStrings(succs)); diff != "" {
				t.Errorf("unexpected successors (-want +got):\n%s", diff)
			}
			preds, err := fn.Predecessors(tt.at)
			if err != nil {
				t.Fatalf("predecessors: %v", err)
			}
			if diff := cmp.Diff(tt.preds, locStrings(preds)); diff != "" {
				t.Errorf("unexpected predecessors (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTraversalErrors(t *testing.T) {
	fn := analysistest.ConditionalExample(t)
	tests := []struct {
		name string
		at   il.Location
		want error
	}{
		{"missing block", il.NewInstructionLocation(0, 9, 0), il.ErrBlockNotFound},
		{"missing instruction", il.NewInstructionLocation(0, 1, 3), il.ErrInstructionNotFound},
		{"missing edge", il.NewEdgeLocation(0, 3, 0), il.ErrEdgeNotFound},
		{"non-empty block", il.NewEmptyBlockLocation(0, 1), il.ErrBlockNotFound},
		{"foreign location", il.NewInstructionLocation(7, 0, 0), il.ErrForeignLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fn.Successors(tt.at)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var graphErr *il.GraphError
			if !errors.As(err, &graphErr) {
				t.Errorf("expected a *GraphError, got %T", err)
			}
			if _, err := fn.Predecessors(tt.at); !errors.Is(err, tt.want) {
				t.Errorf("expected %v from predecessors, got %v", tt.want, err)
			}
		})
	}
}

func TestEdges(t *testing.T) {
	cfg := il.NewControlFlowGraph()
	cfg.NewBlock()
	cfg.NewBlock()
	if _, err := cfg.UnconditionalEdge(0, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.UnconditionalEdge(0, 1); !errors.Is(err, il.ErrDuplicateEdge) {
		t.Errorf("expected a duplicate edge error, got %v", err)
	}
	if _, err := cfg.UnconditionalEdge(0, 2); !errors.Is(err, il.ErrBlockNotFound) {
		t.Errorf("expected a missing block error, got %v", err)
	}
	if _, err := cfg.Edge(1, 0); !errors.Is(err, il.ErrEdgeNotFound) {
		t.Errorf("expected a missing edge error, got %v", err)
	}
	e, err := cfg.Edge(0, 1)
	if err != nil || e.Condition != nil {
		t.Errorf("expected an unconditional edge, got %v, %v", e, err)
	}
}

func TestEntry(t *testing.T) {
	cfg := il.NewControlFlowGraph()
	if _, err := cfg.Entry(); !errors.Is(err, il.ErrEmptyGraph) {
		t.Errorf("expected an empty graph error, got %v", err)
	}
	cfg.NewBlock()
	cfg.NewBlock()
	if entry, err := cfg.Entry(); err != nil || entry != 0 {
		t.Errorf("expected the default entry 0, got %d, %v", entry, err)
	}
	if err := cfg.SetEntry(1); err != nil {
		t.Fatal(err)
	}
	if entry, _ := cfg.Entry(); entry != 1 {
		t.Errorf("expected entry 1, got %d", entry)
	}
	if err := cfg.SetEntry(5); !errors.Is(err, il.ErrBlockNotFound) {
		t.Errorf("expected a missing block error, got %v", err)
	}
}

func TestNilGraph(t *testing.T) {
	fn := il.NewFunction(0, "x", nil)
	if _, err := fn.Locations(); !errors.Is(err, il.ErrEmptyGraph) {
		t.Errorf("expected an empty graph error, got %v", err)
	}
	if _, err := fn.Successors(il.NewInstructionLocation(0, 0, 0)); !errors.Is(err, il.ErrBlockNotFound) {
		t.Errorf("expected a missing block error, got %v", err)
	}
	if _, err := fn.ControlFlowGraph().Entry(); !errors.Is(err, il.ErrEmptyGraph) {
		t.Errorf("expected an empty graph error, got %v", err)
	}
	if len(fn.ControlFlowGraph().Blocks()) != 0 || len(fn.ControlFlowGraph().Edges()) != 0 {
		t.Errorf("a nil graph has no blocks and no edges")
	}
}

func TestValidateCorruptedBlock(t *testing.T) {
	fn := analysistest.ConditionalExample(t)
	fn.ControlFlowGraph().Blocks()[1].Index = 3
	err := fn.ControlFlowGraph().Validate()
	var graphErr *il.GraphError
	if !errors.As(err, &graphErr) || !errors.Is(err, il.ErrBlockNotFound) || graphErr.Block != 1 {
		t.Errorf("expected a missing block error at block 1, got %v", err)
	}
}

func TestInstructionAt(t *testing.T) {
	fn := analysistest.ConditionalExample(t)
	instr, err := fn.InstructionAt(il.NewInstructionLocation(0, 2, 1))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := instr.Operation.(*il.Store); !ok {
		t.Errorf("expected a store, got %s", instr)
	}
	if instr.Operation.VariableWritten() != nil {
		t.Errorf("a store should not write a variable")
	}
	if _, err := fn.InstructionAt(il.NewEdgeLocation(0, 0, 1)); !errors.Is(err, il.ErrInstructionNotFound) {
		t.Errorf("expected an instruction error on an edge, got %v", err)
	}
}

func TestInstructionIndicesAreUnique(t *testing.T) {
	fn := analysistest.ConditionalExample(t)
	seen := map[uint64]bool{}
	for _, b := range fn.ControlFlowGraph().Blocks() {
		for _, instr := range b.Instructions {
			if seen[instr.Index] {
				t.Errorf("duplicate instruction index %d", instr.Index)
			}
			seen[instr.Index] = true
		}
	}
	if len(seen) != 7 {
		t.Errorf("expected 7 instructions, got %d", len(seen))
	}
}

func TestScalars(t *testing.T) {
	a := il.NewScalar("a", 32)
	versioned := il.Scalar{Name: "a", Bits: 32, SSA: 3}
	if !il.SameVariable(a, versioned) || il.CompareScalars(a, versioned) != 0 {
		t.Errorf("versions should be ignored")
	}
	if il.SameVariable(a, il.NewScalar("a", 64)) {
		t.Errorf("scalars of different widths are different variables")
	}
	if versioned.String() != "a.3:32" || a.String() != "a:32" {
		t.Errorf("unexpected strings %s, %s", a, versioned)
	}
	if versioned.Identity() != a {
		t.Errorf("identity should drop the version")
	}
	expr := &il.Binary{Op: "+", Lhs: il.ExprScalar("b", 8), Rhs: &il.Apply{Fn: "f", Args: []il.Expression{
		il.ExprConst(1, 8), il.ExprScalar("c", 8), &il.Ref{Name: "g"}}}}
	want := []il.Scalar{il.NewScalar("b", 8), il.NewScalar("c", 8)}
	if diff := cmp.Diff(want, expr.Scalars()); diff != "" {
		t.Errorf("unexpected scalars (-want +got):\n%s", diff)
	}
}
