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

package il

import (
	"fmt"
	"sort"
	"strings"
)

// A ControlFlowGraph owns its blocks and edges in flat arenas. Blocks are identified by their position in the arena,
// and edges by their head and tail blocks: there is at most one edge between two blocks.
type ControlFlowGraph struct {
	blocks []*Block
	edges  []*Edge

	// out and in map a block index to the positions of its outgoing and incoming edges in edges
	out map[uint64][]int
	in  map[uint64][]int

	entry    uint64
	hasEntry bool

	nextInstruction uint64
}

// NewControlFlowGraph returns an empty control-flow graph
func NewControlFlowGraph() *ControlFlowGraph {
	return &ControlFlowGraph{
		out: map[uint64][]int{},
		in:  map[uint64][]int{},
	}
}

// NewBlock appends a new empty block to the graph and returns it
func (g *ControlFlowGraph) NewBlock() *Block {
	b := &Block{Index: uint64(len(g.blocks)), cfg: g}
	g.blocks = append(g.blocks, b)
	return b
}

// Block returns the block with the given index
func (g *ControlFlowGraph) Block(index uint64) (*Block, error) {
	if g == nil || index >= uint64(len(g.blocks)) {
		return nil, &GraphError{Op: "block", Err: ErrBlockNotFound, Block: index}
	}
	return g.blocks[index], nil
}

// Blocks returns the blocks of the graph, ordered by index
func (g *ControlFlowGraph) Blocks() []*Block {
	if g == nil {
		return nil
	}
	return g.blocks
}

// Edges returns the edges of the graph, ordered by head and then tail
func (g *ControlFlowGraph) Edges() []*Edge {
	if g == nil {
		return nil
	}
	edges := make([]*Edge, len(g.edges))
	copy(edges, g.edges)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Head != edges[j].Head {
			return edges[i].Head < edges[j].Head
		}
		return edges[i].Tail < edges[j].Tail
	})
	return edges
}

// Edge returns the edge from head to tail
func (g *ControlFlowGraph) Edge(head uint64, tail uint64) (*Edge, error) {
	if g == nil {
		return nil, &GraphError{Op: "edge", Err: ErrEdgeNotFound, Block: head, Tail: tail}
	}
	for _, i := range g.out[head] {
		if g.edges[i].Tail == tail {
			return g.edges[i], nil
		}
	}
	return nil, &GraphError{Op: "edge", Err: ErrEdgeNotFound, Block: head, Tail: tail}
}

// UnconditionalEdge adds an unconditional edge from head to tail
func (g *ControlFlowGraph) UnconditionalEdge(head uint64, tail uint64) (*Edge, error) {
	return g.addEdge(head, tail, nil)
}

// ConditionalEdge adds an edge from head to tail guarded by condition
func (g *ControlFlowGraph) ConditionalEdge(head uint64, tail uint64, condition Expression) (*Edge, error) {
	return g.addEdge(head, tail, condition)
}

func (g *ControlFlowGraph) addEdge(head uint64, tail uint64, condition Expression) (*Edge, error) {
	if _, err := g.Block(head); err != nil {
		return nil, err
	}
	if _, err := g.Block(tail); err != nil {
		return nil, err
	}
	if _, err := g.Edge(head, tail); err == nil {
		return nil, &GraphError{Op: "add edge", Err: ErrDuplicateEdge, Block: head, Tail: tail}
	}
	e := &Edge{Head: head, Tail: tail, Condition: condition}
	g.edges = append(g.edges, e)
	g.out[head] = append(g.out[head], len(g.edges)-1)
	g.in[tail] = append(g.in[tail], len(g.edges)-1)
	return e, nil
}

// EdgesOut returns the edges leaving the block, ordered by tail
func (g *ControlFlowGraph) EdgesOut(index uint64) ([]*Edge, error) {
	if _, err := g.Block(index); err != nil {
		return nil, err
	}
	edges := g.collect(g.out[index])
	sort.Slice(edges, func(i, j int) bool { return edges[i].Tail < edges[j].Tail })
	return edges, nil
}

// EdgesIn returns the edges entering the block, ordered by head
func (g *ControlFlowGraph) EdgesIn(index uint64) ([]*Edge, error) {
	if _, err := g.Block(index); err != nil {
		return nil, err
	}
	edges := g.collect(g.in[index])
	sort.Slice(edges, func(i, j int) bool { return edges[i].Head < edges[j].Head })
	return edges, nil
}

func (g *ControlFlowGraph) collect(positions []int) []*Edge {
	edges := make([]*Edge, 0, len(positions))
	for _, i := range positions {
		edges = append(edges, g.edges[i])
	}
	return edges
}

// SetEntry sets the entry block of the graph
func (g *ControlFlowGraph) SetEntry(index uint64) error {
	if _, err := g.Block(index); err != nil {
		return err
	}
	g.entry = index
	g.hasEntry = true
	return nil
}

// Entry returns the index of the entry block. If no entry has been set, the first block is the entry.
func (g *ControlFlowGraph) Entry() (uint64, error) {
	if g == nil || len(g.blocks) == 0 {
		return 0, &GraphError{Op: "entry", Err: ErrEmptyGraph}
	}
	if g.hasEntry {
		return g.entry, nil
	}
	return 0, nil
}

// Validate checks that every block is stored at its index and every edge connects existing blocks. A nil graph is
// invalid, an empty one is not.
func (g *ControlFlowGraph) Validate() error {
	if g == nil {
		return &GraphError{Op: "validate", Err: ErrEmptyGraph}
	}
	for i, b := range g.blocks {
		if b == nil || b.Index != uint64(i) {
			return &GraphError{Op: "validate", Err: ErrBlockNotFound, Block: uint64(i)}
		}
	}
	for _, e := range g.edges {
		if _, err := g.Block(e.Head); err != nil {
			return err
		}
		if _, err := g.Block(e.Tail); err != nil {
			return err
		}
	}
	return nil
}

func (g *ControlFlowGraph) String() string {
	var sb strings.Builder
	for _, b := range g.blocks {
		sb.WriteString(b.String())
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&sb, "%s\n", e)
	}
	return sb.String()
}

// A Function is a control-flow graph identified by a numeric index
type Function struct {
	Index uint64
	Name  string
	cfg   *ControlFlowGraph
}

// NewFunction returns a function with the given index and control-flow graph
func NewFunction(index uint64, name string, cfg *ControlFlowGraph) *Function {
	return &Function{Index: index, Name: name, cfg: cfg}
}

// ControlFlowGraph returns the control-flow graph of the function
func (f *Function) ControlFlowGraph() *ControlFlowGraph {
	return f.cfg
}

func (f *Function) String() string {
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("fn0x%x", f.Index)
}
