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
	"errors"
	"fmt"
)

var (
	// ErrBlockNotFound is returned when a block index does not refer to a block of the control-flow graph
	ErrBlockNotFound = errors.New("block not found")

	// ErrEdgeNotFound is returned when there is no edge between two blocks
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrInstructionNotFound is returned when an instruction position is out of the bounds of its block
	ErrInstructionNotFound = errors.New("instruction not found")

	// ErrDuplicateEdge is returned when adding an edge between two blocks that are already connected
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrForeignLocation is returned when a location of some function is used with another function
	ErrForeignLocation = errors.New("location belongs to another function")

	// ErrEmptyGraph is returned when querying the entry of a control-flow graph without blocks
	ErrEmptyGraph = errors.New("control-flow graph has no blocks")
)

// A GraphError is a malformed reference to the control-flow graph: a location or an edge that refers to a block or
// an instruction that does not exist. Err is one of the sentinel errors of this package.
type GraphError struct {
	// Op is the operation during which the error was met
	Op string

	// Err is the kind of error
	Err error

	Block       uint64
	Instruction int
	Tail        uint64
}

func (e *GraphError) Error() string {
	switch e.Err {
	case ErrEdgeNotFound, ErrDuplicateEdge:
		return fmt.Sprintf("%s: edge 0x%x->0x%x: %v", e.Op, e.Block, e.Tail, e.Err)
	case ErrInstructionNotFound:
		return fmt.Sprintf("%s: block 0x%x instruction %d: %v", e.Op, e.Block, e.Instruction, e.Err)
	case ErrEmptyGraph:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: block 0x%x: %v", e.Op, e.Block, e.Err)
	}
}

func (e *GraphError) Unwrap() error {
	return e.Err
}
