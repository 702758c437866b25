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

// Package fixedpoint implements a generic monotone dataflow engine over the program locations of an il.Function.
//
// An analysis is given by an [Analysis]: a transfer function computing the state after a location from the state
// before it, and a join function merging the states flowing in from different locations. The engine iterates a
// worklist until no state changes and returns the state of every location in a [Result]. The engine terminates as
// long as the transfer and join functions are monotone over a lattice of finite height.
package fixedpoint

import (
	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/internal/funcutil"
)

// State is the constraint on the abstract states of analyses. States are compared with Equal to detect the fixed
// point and copied with Clone before being passed to Join as an accumulator.
type State[S any] interface {
	// Equal returns true if both states are the same lattice element
	Equal(other S) bool

	// Clone returns a copy of the state that can be mutated without affecting the original
	Clone() S
}

// Analysis is the contract between the engine and a dataflow analysis over states S.
//
// Transfer and Join must not have side effects, and they must not mutate the states they receive except for the
// accumulator of Join, which the engine always passes as a fresh copy. Any error returned aborts the analysis.
type Analysis[S State[S]] interface {
	// Transfer returns the state at location given the incoming state, which is none the first time a location
	// without any computed predecessor is visited.
	Transfer(location il.Location, incoming funcutil.Optional[S]) (S, error)

	// Join combines the states reaching a location from two different locations. It must be associative, commutative
	// and idempotent. It may mutate and return accumulated.
	Join(accumulated S, other S) (S, error)
}

// Direction is the direction in which states flow along the control-flow graph
type Direction int

const (
	// Forward analyses join the states of the predecessors of a location
	Forward Direction = iota
	// Backward analyses join the states of the successors of a location
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}
