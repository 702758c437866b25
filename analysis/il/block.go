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
	"strings"
)

// A Block is an ordered sequence of instructions. A block may be empty.
type Block struct {
	Index        uint64
	Instructions []*Instruction

	// cfg is the control-flow graph the block belongs to; it allocates instruction indices
	cfg *ControlFlowGraph
}

// Instruction returns the instruction at position i in the block
func (b *Block) Instruction(i int) (*Instruction, error) {
	if i < 0 || i >= len(b.Instructions) {
		return nil, &GraphError{Op: "instruction", Err: ErrInstructionNotFound, Block: b.Index, Instruction: i}
	}
	return b.Instructions[i], nil
}

// Empty returns true when the block has no instructions
func (b *Block) Empty() bool {
	return len(b.Instructions) == 0
}

func (b *Block) append(op Operation) *Instruction {
	var index uint64
	if b.cfg != nil {
		index = b.cfg.nextInstruction
		b.cfg.nextInstruction++
	}
	instr := &Instruction{Index: index, Operation: op}
	b.Instructions = append(b.Instructions, instr)
	return instr
}

// Assign appends dst = src to the block
func (b *Block) Assign(dst Scalar, src Expression) *Instruction {
	return b.append(&Assign{Dst: dst, Src: src})
}

// Store appends a store of src at index in memory
func (b *Block) Store(memory Array, index Expression, src Expression) *Instruction {
	return b.append(&Store{Memory: memory, Index: index, Src: src})
}

// Load appends a load of memory at index into dst
func (b *Block) Load(dst Scalar, index Expression, memory Array) *Instruction {
	return b.append(&Load{Dst: dst, Index: index, Memory: memory})
}

// Branch appends an indirect branch to target
func (b *Block) Branch(target Expression) *Instruction {
	return b.append(&Branch{Target: target})
}

// Effect appends an opaque effect
func (b *Block) Effect(name string, args ...Expression) *Instruction {
	return b.append(&Effect{Name: name, Args: args})
}

func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[ Block 0x%x ]\n", b.Index)
	for _, instr := range b.Instructions {
		fmt.Fprintf(&sb, "  %s\n", instr)
	}
	return sb.String()
}

// An Edge is a directed edge between two blocks. A nil Condition means the edge is unconditional.
type Edge struct {
	Head      uint64
	Tail      uint64
	Condition Expression
}

func (e *Edge) String() string {
	if e.Condition == nil {
		return fmt.Sprintf("(0x%x->0x%x)", e.Head, e.Tail)
	}
	return fmt.Sprintf("(0x%x->0x%x) ? %s", e.Head, e.Tail, e.Condition)
}
