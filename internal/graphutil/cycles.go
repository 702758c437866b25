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
	"sort"

	"github.com/awslabs/argot-reaching/internal/funcutil"
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// ElementaryCycles finds all elementary cycles in the block graph. Each cycle starts and ends with its smallest block,
// e.g. [1 2 1]. A self loop on block b is the cycle [b b]. Cycles are returned in a deterministic order.
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
func ElementaryCycles(g BlockGraph) [][]int64 {
	s := &johnson{cycles: [][]int64{}}
	start := 0
	for start < len(g.Keys) {
		fg := Subgraph(g, g.Keys[start:])
		least := leastCyclicComponent(fg)
		if least == nil {
			break
		}
		// least is sorted, its first element is the smallest block of the component
		s.reset()
		s.circuit(least[0], least[0], Subgraph(g, least))
		start = sort.Search(len(g.Keys), func(i int) bool { return g.Keys[i] > least[0] })
	}
	return s.cycles
}

// leastCyclicComponent returns the strongly connected component of g that contains a cycle and the smallest node
// among all such components, or nil if g is acyclic.
func leastCyclicComponent(g BlockGraph) []int64 {
	var least []int64
	for _, component := range graph.StrongComponents(g) {
		ids := make([]int64, len(component))
		for i, c := range component {
			ids[i] = int64(c)
		}
		slices.Sort(ids)
		if !g.nodes[ids[0]] || !isCyclic(g, ids) {
			continue
		}
		if least == nil || ids[0] < least[0] {
			least = ids
		}
	}
	return least
}

func isCyclic(g BlockGraph, component []int64) bool {
	return len(component) >= 2 || g.Edges[component[0]][component[0]]
}

type johnson struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *johnson) reset() {
	s.stack = []int64{}
	s.blocked = map[int64]bool{}
	s.blist = map[int64]map[int64]bool{}
}

func (s *johnson) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *johnson) circuit(v int64, start int64, g BlockGraph) bool {
	found := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	succs := funcutil.SetToOrderedSlice(g.Edges[v])
	for _, w := range succs {
		if w == start {
			cycle := make([]int64, len(s.stack), len(s.stack)+1)
			copy(cycle, s.stack)
			s.cycles = append(s.cycles, append(cycle, w))
			found = true
		} else if !s.blocked[w] {
			if s.circuit(w, start, g) {
				found = true
			}
		}
	}

	if found {
		s.unblock(v)
	} else {
		for _, w := range succs {
			if s.blist[w] == nil {
				s.blist[w] = map[int64]bool{}
			}
			s.blist[w][v] = true
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return found
}
