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

	"github.com/awslabs/argot-reaching/analysis/il"
	"gonum.org/v1/gonum/graph/flow"
)

// DominatorTree holds the immediate dominators of the blocks of a control-flow graph reachable from its entry.
type DominatorTree struct {
	root uint64
	idom map[uint64]uint64
	// reachable contains all the blocks in the tree, including the root
	reachable map[uint64]bool
}

// Dominators computes the dominator tree of the control-flow graph rooted at its entry block.
func Dominators(cfg *il.ControlFlowGraph) (*DominatorTree, error) {
	entry, err := cfg.Entry()
	if err != nil {
		return nil, fmt.Errorf("dominators: %w", err)
	}
	g := NewBlockGraph(cfg)
	tree := flow.Dominators(BlockNode(entry), g)
	d := &DominatorTree{
		root:      entry,
		idom:      map[uint64]uint64{},
		reachable: map[uint64]bool{entry: true},
	}
	for _, id := range g.Keys {
		if dom := tree.DominatorOf(id); dom != nil && dom.ID() != id {
			d.idom[uint64(id)] = uint64(dom.ID())
			d.reachable[uint64(id)] = true
		}
	}
	return d, nil
}

// Root returns the entry block
func (d *DominatorTree) Root() uint64 {
	return d.root
}

// ImmediateDominator returns the immediate dominator of the block. The boolean is false for the root and for blocks
// unreachable from the root.
func (d *DominatorTree) ImmediateDominator(block uint64) (uint64, bool) {
	dom, ok := d.idom[block]
	return dom, ok
}

// Reachable returns true when the block is reachable from the root.
func (d *DominatorTree) Reachable(block uint64) bool {
	return d.reachable[block]
}

// Dominates returns true when every path from the root to b goes through a. Every block dominates itself.
func (d *DominatorTree) Dominates(a, b uint64) bool {
	if !d.reachable[b] {
		return a == b
	}
	for cur := b; ; {
		if cur == a {
			return true
		}
		next, ok := d.idom[cur]
		if !ok {
			return false
		}
		cur = next
	}
}

// StrictlyDominates returns true when a dominates b and a != b
func (d *DominatorTree) StrictlyDominates(a, b uint64) bool {
	return a != b && d.Dominates(a, b)
}
