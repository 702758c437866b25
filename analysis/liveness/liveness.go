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

// Package liveness implements the live variables analysis, a backward analysis computing for every location the
// variables whose current value may be read after that location.
package liveness

import (
	"github.com/awslabs/argot-reaching/analysis/config"
	"github.com/awslabs/argot-reaching/analysis/fixedpoint"
	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/internal/funcutil"
)

// Variables is a set of unversioned scalars
type Variables = funcutil.OrderedSet[il.Scalar]

// NewVariables returns a set of variables. Versions are dropped.
func NewVariables(scalars ...il.Scalar) *Variables {
	return funcutil.NewOrderedSet(il.CompareScalars, funcutil.Map(scalars, il.Scalar.Identity)...)
}

// Results maps every location to the variables live before it
type Results = fixedpoint.Result[*Variables]

// Analysis is the live variables analysis of a function
type Analysis struct {
	function *il.Function
}

// NewAnalysis returns the live variables analysis of fn
func NewAnalysis(fn *il.Function) *Analysis {
	return &Analysis{function: fn}
}

// Compute returns the variables live before every location of fn. The logger may be nil.
func Compute(fn *il.Function, logger *config.LogGroup) (*Results, error) {
	return fixedpoint.Solve[*Variables](fn, NewAnalysis(fn), fixedpoint.Backward,
		fixedpoint.Options[*Variables]{Logger: logger})
}

// Transfer computes the variables live before the location from the variables live after it: the variable written by
// an instruction is removed and the variables it reads are added. An edge adds the variables of its condition.
func (a *Analysis) Transfer(location il.Location, incoming funcutil.Optional[*Variables]) (*Variables, error) {
	state, ok := incoming.Get()
	if !ok {
		state = NewVariables()
	}

	switch location.Kind {
	case il.InstructionLocation:
		instruction, err := a.function.InstructionAt(location)
		if err != nil {
			return nil, err
		}
		if written := instruction.Operation.VariableWritten(); written != nil {
			state.Remove(written.Identity())
		}
		for _, v := range instruction.Operation.VariablesRead() {
			state.Insert(v.Identity())
		}
	case il.EdgeLocation:
		edge, err := a.function.ControlFlowGraph().Edge(location.Block, location.Tail)
		if err != nil {
			return nil, err
		}
		if edge.Condition != nil {
			for _, v := range edge.Condition.Scalars() {
				state.Insert(v.Identity())
			}
		}
	}
	return state, nil
}

// Join is the union of live variables
func (a *Analysis) Join(accumulated *Variables, other *Variables) (*Variables, error) {
	accumulated.Union(other)
	return accumulated, nil
}
