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

package graphutil

import (
	"fmt"
	"sort"

	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// Loops returns the strongly connected components of the control-flow graph that contain a cycle: components of
// two or more blocks, and single blocks with a self edge. Each loop is sorted, and loops are ordered by their
// smallest block.
func Loops(cfg *il.ControlFlowGraph) [][]uint64 {
	g := NewBlockGraph(cfg)
	var loops [][]uint64
	for _, component := range graph.StrongComponents(g) {
		ids := make([]int64, len(component))
		for i, c := range component {
			ids[i] = int64(c)
		}
		if !isCyclic(g, ids) {
			continue
		}
		loop := make([]uint64, len(component))
		for i, c := range component {
			loop[i] = uint64(c)
		}
		slices.Sort(loop)
		loops = append(loops, loop)
	}
	sort.Slice(loops, func(i, j int) bool { return loops[i][0] < loops[j][0] })
	return loops
}

// Reachable returns the set of blocks reachable from the entry of the control-flow graph, including the entry.
func Reachable(cfg *il.ControlFlowGraph) (map[uint64]bool, error) {
	entry, err := cfg.Entry()
	if err != nil {
		return nil, fmt.Errorf("reachability: %w", err)
	}
	visited := map[uint64]bool{entry: true}
	graph.BFS(NewBlockGraph(cfg), int(entry), func(_, w int, _ int64) {
		visited[uint64(w)] = true
	})
	return visited, nil
}

// Unreachable returns the sorted list of blocks that cannot be reached from the entry.
func Unreachable(cfg *il.ControlFlowGraph) ([]uint64, error) {
	reachable, err := Reachable(cfg)
	if err != nil {
		return nil, err
	}
	var unreachable []uint64
	for _, b := range cfg.Blocks() {
		if !reachable[b.Index] {
			unreachable = append(unreachable, b.Index)
		}
	}
	return unreachable, nil
}

// Acyclic returns true if the control-flow graph has no cycle, including self edges.
func Acyclic(cfg *il.ControlFlowGraph) bool {
	g := NewBlockGraph(cfg)
	for _, id := range g.Keys {
		if g.Edges[id][id] {
			return false
		}
	}
	return graph.Acyclic(g)
}
