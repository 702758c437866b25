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
)

// LocationKind discriminates the different kinds of program locations
type LocationKind uint8

const (
	// InstructionLocation is the location of an instruction inside a block
	InstructionLocation LocationKind = iota
	// EmptyBlockLocation is the location of a block that has no instructions
	EmptyBlockLocation
	// EdgeLocation is the location of a control-flow edge between two blocks
	EdgeLocation
)

func (k LocationKind) String() string {
	switch k {
	case InstructionLocation:
		return "instruction"
	case EmptyBlockLocation:
		return "empty-block"
	case EdgeLocation:
		return "edge"
	default:
		return "unknown"
	}
}

// A Location is a point in a function: an instruction of a block, an empty block or an edge.
// Locations are values and can be used as map keys.
type Location struct {
	// Function is the index of the function the location belongs to
	Function uint64

	Kind LocationKind

	// Block is the block of the instruction, the empty block, or the head of the edge
	Block uint64

	// Instruction is the position of the instruction in Block. Zero for other kinds.
	Instruction int

	// Tail is the tail of the edge. Zero for other kinds.
	Tail uint64
}

// NewInstructionLocation returns the location of the instruction at position instruction in block
func NewInstructionLocation(function uint64, block uint64, instruction int) Location {
	return Location{Function: function, Kind: InstructionLocation, Block: block, Instruction: instruction}
}

// NewEmptyBlockLocation returns the location of an empty block
func NewEmptyBlockLocation(function uint64, block uint64) Location {
	return Location{Function: function, Kind: EmptyBlockLocation, Block: block}
}

// NewEdgeLocation returns the location of the edge from head to tail
func NewEdgeLocation(function uint64, head uint64, tail uint64) Location {
	return Location{Function: function, Kind: EdgeLocation, Block: head, Tail: tail}
}

// IsInstruction returns true if l is the location of an instruction
func (l Location) IsInstruction() bool {
	return l.Kind == InstructionLocation
}

func (l Location) String() string {
	switch l.Kind {
	case InstructionLocation:
		return fmt.Sprintf("fn%d:b%d.%d", l.Function, l.Block, l.Instruction)
	case EmptyBlockLocation:
		return fmt.Sprintf("fn%d:b%d", l.Function, l.Block)
	default:
		return fmt.Sprintf("fn%d:b%d->b%d", l.Function, l.Block, l.Tail)
	}
}

// CompareLocations is the total order over locations: by function, block, kind, instruction position and edge tail.
// The order groups the instructions of a block, followed by the edges leaving it.
func CompareLocations(a Location, b Location) int {
	switch {
	case a.Function != b.Function:
		return cmpUint(a.Function, b.Function)
	case a.Block != b.Block:
		return cmpUint(a.Block, b.Block)
	case a.Kind != b.Kind:
		return cmpUint(uint64(a.Kind), uint64(b.Kind))
	case a.Instruction != b.Instruction:
		if a.Instruction < b.Instruction {
			return -1
		}
		return 1
	default:
		return cmpUint(a.Tail, b.Tail)
	}
}

func cmpUint(a uint64, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Locations returns all the locations of the function in the total order of CompareLocations: every instruction of
// the non-empty blocks, every empty block, and every edge.
func (f *Function) Locations() ([]Location, error) {
	if err := f.cfg.Validate(); err != nil {
		return nil, err
	}
	var locations []Location
	for _, b := range f.cfg.Blocks() {
		if b.Empty() {
			locations = append(locations, NewEmptyBlockLocation(f.Index, b.Index))
			continue
		}
		for i := range b.Instructions {
			locations = append(locations, NewInstructionLocation(f.Index, b.Index, i))
		}
	}
	for _, e := range f.cfg.Edges() {
		locations = append(locations, NewEdgeLocation(f.Index, e.Head, e.Tail))
	}
	sort.Slice(locations, func(i, j int) bool { return CompareLocations(locations[i], locations[j]) < 0 })
	return locations, nil
}

// InstructionAt returns the instruction at the location
func (f *Function) InstructionAt(l Location) (*Instruction, error) {
	if l.Function != f.Index {
		return nil, &GraphError{Op: "instruction at", Err: ErrForeignLocation, Block: l.Block}
	}
	if l.Kind != InstructionLocation {
		return nil, &GraphError{Op: "instruction at", Err: ErrInstructionNotFound, Block: l.Block,
			Instruction: l.Instruction}
	}
	b, err := f.cfg.Block(l.Block)
	if err != nil {
		return nil, err
	}
	return b.Instruction(l.Instruction)
}

// Successors returns the locations control can flow to immediately after l, ordered.
// The last instruction of a block and an empty block flow to the edges leaving the block; an edge flows to the first
// instruction of its tail, or to the tail itself if it is empty.
func (f *Function) Successors(l Location) ([]Location, error) {
	if err := f.check("successors", l); err != nil {
		return nil, err
	}
	switch l.Kind {
	case InstructionLocation:
		b, _ := f.cfg.Block(l.Block)
		if l.Instruction+1 < len(b.Instructions) {
			return []Location{NewInstructionLocation(f.Index, l.Block, l.Instruction+1)}, nil
		}
		return f.edgesOut(l.Block)
	case EmptyBlockLocation:
		return f.edgesOut(l.Block)
	default:
		tail, _ := f.cfg.Block(l.Tail)
		if tail.Empty() {
			return []Location{NewEmptyBlockLocation(f.Index, l.Tail)}, nil
		}
		return []Location{NewInstructionLocation(f.Index, l.Tail, 0)}, nil
	}
}

// Predecessors returns the locations control can flow from immediately before l, ordered.
// It is the inverse relation of Successors.
func (f *Function) Predecessors(l Location) ([]Location, error) {
	if err := f.check("predecessors", l); err != nil {
		return nil, err
	}
	switch l.Kind {
	case InstructionLocation:
		if l.Instruction > 0 {
			return []Location{NewInstructionLocation(f.Index, l.Block, l.Instruction-1)}, nil
		}
		return f.edgesIn(l.Block)
	case EmptyBlockLocation:
		return f.edgesIn(l.Block)
	default:
		head, _ := f.cfg.Block(l.Block)
		if head.Empty() {
			return []Location{NewEmptyBlockLocation(f.Index, l.Block)}, nil
		}
		return []Location{NewInstructionLocation(f.Index, l.Block, len(head.Instructions)-1)}, nil
	}
}

func (f *Function) edgesOut(block uint64) ([]Location, error) {
	edges, err := f.cfg.EdgesOut(block)
	if err != nil {
		return nil, err
	}
	locations := make([]Location, len(edges))
	for i, e := range edges {
		locations[i] = NewEdgeLocation(f.Index, e.Head, e.Tail)
	}
	return locations, nil
}

func (f *Function) edgesIn(block uint64) ([]Location, error) {
	edges, err := f.cfg.EdgesIn(block)
	if err != nil {
		return nil, err
	}
	locations := make([]Location, len(edges))
	for i, e := range edges {
		locations[i] = NewEdgeLocation(f.Index, e.Head, e.Tail)
	}
	return locations, nil
}

// check returns a *GraphError if the location does not refer to an existing point of the function
func (f *Function) check(op string, l Location) error {
	if l.Function != f.Index {
		return &GraphError{Op: op, Err: ErrForeignLocation, Block: l.Block}
	}
	switch l.Kind {
	case InstructionLocation:
		b, err := f.cfg.Block(l.Block)
		if err != nil {
			return err
		}
		if _, err := b.Instruction(l.Instruction); err != nil {
			return err
		}
	case EmptyBlockLocation:
		b, err := f.cfg.Block(l.Block)
		if err != nil {
			return err
		}
		if !b.Empty() {
			return &GraphError{Op: op, Err: ErrBlockNotFound, Block: l.Block}
		}
	case EdgeLocation:
		if _, err := f.cfg.Edge(l.Block, l.Tail); err != nil {
			return err
		}
	default:
		return &GraphError{Op: op, Err: ErrBlockNotFound, Block: l.Block}
	}
	return nil
}
