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

// Package reaching implements the reaching definitions analysis: for every location of a function, the set of
// instruction locations writing a variable whose value may still be observed at that location.
package reaching

import (
	"fmt"

	"github.com/awslabs/argot-reaching/analysis/config"
	"github.com/awslabs/argot-reaching/analysis/fixedpoint"
	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/internal/funcutil"
)

// Definitions is a set of definition sites, ordered by il.CompareLocations
type Definitions = funcutil.OrderedSet[il.Location]

// NewDefinitions returns a set of definitions
func NewDefinitions(locations ...il.Location) *Definitions {
	return funcutil.NewOrderedSet(il.CompareLocations, locations...)
}

// Results maps every location of a function to the definitions reaching it
type Results = fixedpoint.Result[*Definitions]

// Analysis is the reaching definitions analysis of a single function. It implements fixedpoint.Analysis.
type Analysis struct {
	function *il.Function
}

// NewAnalysis returns the reaching definitions analysis of fn
func NewAnalysis(fn *il.Function) *Analysis {
	return &Analysis{function: fn}
}

// Compute returns the reaching definitions of every location of fn. The logger may be nil.
func Compute(fn *il.Function, logger *config.LogGroup) (*Results, error) {
	return fixedpoint.Solve[*Definitions](fn, NewAnalysis(fn), fixedpoint.Forward,
		fixedpoint.Options[*Definitions]{Logger: logger})
}

// Transfer implements gen/kill: an instruction writing a variable v removes every definition of v from the incoming
// definitions and adds itself. Any other location leaves the incoming definitions unchanged.
func (a *Analysis) Transfer(location il.Location,
	incoming funcutil.Optional[*Definitions]) (*Definitions, error) {
	state, ok := incoming.Get()
	if !ok {
		state = NewDefinitions()
	}

	if !location.IsInstruction() {
		return state, nil
	}
	instruction, err := a.function.InstructionAt(location)
	if err != nil {
		return nil, err
	}
	written := instruction.Operation.VariableWritten()
	if written == nil {
		return state, nil
	}

	var killErr error
	state.RemoveIf(func(def il.Location) bool {
		v, err := a.variableDefined(def)
		if err != nil {
			killErr = err
			return false
		}
		return il.SameVariable(*v, *written)
	})
	if killErr != nil {
		return nil, killErr
	}
	state.Insert(location)
	return state, nil
}

// Join is the union of definitions
func (a *Analysis) Join(accumulated *Definitions, other *Definitions) (*Definitions, error) {
	accumulated.Union(other)
	return accumulated, nil
}

// variableDefined returns the variable written at def. Every location in a state is a definition; an error is
// returned otherwise.
func (a *Analysis) variableDefined(def il.Location) (*il.Scalar, error) {
	instruction, err := a.function.InstructionAt(def)
	if err != nil {
		return nil, err
	}
	v := instruction.Operation.VariableWritten()
	if v == nil {
		return nil, fmt.Errorf("%s in reaching definitions does not write a variable", def)
	}
	return v, nil
}
