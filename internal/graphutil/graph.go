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

// Package graphutil adapts control-flow graphs to the graph libraries, and implements graph algorithms over blocks:
// dominators, strongly connected components, elementary cycles and reachability.
package graphutil

import (
	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/internal/funcutil"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
)

// BlockGraph is an abstraction over the blocks and edges of a control-flow graph to work with existing graph
// libraries. It implements the methods to satisfy yourbasic's graph.Iterator and Gonum's graph.Directed.
// Node ids are block indices.
type BlockGraph struct {
	// The order of the graph, i.e. the number of blocks of the control-flow graph
	order int

	// Keys are all the node IDs, sorted
	Keys []int64

	// nodes is the set of node IDs, for fast membership tests
	nodes map[int64]bool

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge between block x and block y
	Edges map[int64]map[int64]bool

	// in is the reversed adjacency matrix
	in map[int64]map[int64]bool
}

// NewBlockGraph returns the block graph of the control-flow graph
func NewBlockGraph(cfg *il.ControlFlowGraph) BlockGraph {
	n := len(cfg.Blocks())
	keys := make([]int64, n)
	nodes := make(map[int64]bool, n)
	edges := make(map[int64]map[int64]bool, n)
	in := make(map[int64]map[int64]bool, n)
	for i, b := range cfg.Blocks() {
		id := int64(b.Index)
		keys[i] = id
		nodes[id] = true
		edges[id] = map[int64]bool{}
		in[id] = map[int64]bool{}
	}
	for _, e := range cfg.Edges() {
		edges[int64(e.Head)][int64(e.Tail)] = true
		in[int64(e.Tail)][int64(e.Head)] = true
	}
	slices.Sort(keys)
	return BlockGraph{order: n, Keys: keys, nodes: nodes, Edges: edges, in: in}
}

// Subgraph returns a new graph that is the original graph with only the nodes in include. Only the edges that have
// both the origin and destination nodes in the include nodes are kept in the resulting graph.
// The subgraph's order is the same as in origin, meaning that node indices will stay consistent across subgraphs.
func Subgraph(original BlockGraph, include []int64) BlockGraph {
	nodes := make(map[int64]bool, len(include))
	keys := make([]int64, len(include))
	for j, i := range include {
		keys[j] = i
		nodes[i] = true
	}
	slices.Sort(keys)

	edges := make(map[int64]map[int64]bool, len(include))
	in := make(map[int64]map[int64]bool, len(include))
	for _, i := range include {
		edges[i] = map[int64]bool{}
		in[i] = map[int64]bool{}
	}
	for _, i := range include {
		for e := range original.Edges[i] {
			if nodes[e] {
				edges[i][e] = true
				in[e][i] = true
			}
		}
	}
	return BlockGraph{order: original.order, Keys: keys, nodes: nodes, Edges: edges, in: in}
}

// Order implements the order of the graph.Iterator interface for the BlockGraph
func (g BlockGraph) Order() int {
	return g.order
}

// Visit implements the graph.Iterator interface for the BlockGraph. Successors are visited in increasing order.
func (g BlockGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if !g.nodes[int64(v)] {
		return false
	}
	for _, w := range funcutil.SetToOrderedSlice(g.Edges[int64(v)]) {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Graph interface implementation **********************

// Node implements the Graph interface. It returns nil if the block is not in the graph.
func (g BlockGraph) Node(id int64) graph.Node {
	if !g.nodes[id] {
		return nil
	}
	return BlockNode(id)
}

// Nodes returns the set of nodes in the graph
func (g BlockGraph) Nodes() graph.Nodes {
	return toNodes(g.Keys)
}

// From returns the set of nodes reachable from the id by one edge
func (g BlockGraph) From(id int64) graph.Nodes {
	return toNodes(funcutil.SetToOrderedSlice(g.Edges[id]))
}

// To returns the set of nodes that can reach the id by one edge
func (g BlockGraph) To(id int64) graph.Nodes {
	return toNodes(funcutil.SetToOrderedSlice(g.in[id]))
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node identifiers
func (g BlockGraph) HasEdgeBetween(xid, yid int64) bool {
	return g.Edges[xid][yid] || g.Edges[yid][xid]
}

// HasEdgeFromTo returns whether a directed edge exists from uid to vid
func (g BlockGraph) HasEdgeFromTo(uid, vid int64) bool {
	return g.Edges[uid][vid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (g BlockGraph) Edge(uid, vid int64) graph.Edge {
	if g.Edges[uid][vid] {
		return BlockEdge{from: BlockNode(uid), to: BlockNode(vid)}
	}
	return nil
}

func toNodes(ids []int64) graph.Nodes {
	nodes := make([]graph.Node, len(ids))
	for i, id := range ids {
		nodes[i] = BlockNode(id)
	}
	return iterator.NewOrderedNodes(nodes)
}

// *************** Nodes and edges **********************

// BlockNode is a block index that implements the graph.Node interface
type BlockNode int64

// ID returns the id of the node
func (n BlockNode) ID() int64 {
	return int64(n)
}

// BlockEdge implements the graph.Edge interface
type BlockEdge struct {
	from BlockNode
	to   BlockNode
}

// From returns the origin of the edge
func (e BlockEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e BlockEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e BlockEdge) ReversedEdge() graph.Edge {
	return BlockEdge{from: e.to, to: e.from}
}
