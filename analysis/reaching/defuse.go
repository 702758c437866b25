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

package reaching

import (
	"fmt"

	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/internal/funcutil"
)

// Before returns the definitions reaching the location l before it is executed, that is the union of the
// definitions of its predecessors. Results map locations to the definitions after their execution.
func Before(fn *il.Function, results *Results, l il.Location) (*Definitions, error) {
	predecessors, err := fn.Predecessors(l)
	if err != nil {
		return nil, err
	}
	defs := NewDefinitions()
	for _, p := range predecessors {
		if s, ok := results.Get(p); ok {
			defs.Union(s)
		}
	}
	return defs, nil
}

// A Use is a read of Variable at Location. The location is either an instruction or an edge reading its condition.
type Use struct {
	Location il.Location
	Variable il.Scalar
}

func (u Use) String() string {
	return fmt.Sprintf("%s@%s", u.Variable.Identity(), u.Location)
}

func compareUses(a Use, b Use) int {
	if c := il.CompareLocations(a.Location, b.Location); c != 0 {
		return c
	}
	return il.CompareScalars(a.Variable, b.Variable)
}

// DefUse contains the use-def and def-use chains of a function
type DefUse struct {
	// defs maps uses to the definitions reaching them
	defs map[Use]*Definitions

	// uses maps definitions to the uses they reach
	uses map[il.Location]*funcutil.OrderedSet[Use]

	// definitions are all the definition sites of the function
	definitions *Definitions
}

// Chains builds the def-use chains of fn from its reaching definitions
func Chains(fn *il.Function, results *Results) (*DefUse, error) {
	du := &DefUse{
		defs:        map[Use]*Definitions{},
		uses:        map[il.Location]*funcutil.OrderedSet[Use]{},
		definitions: NewDefinitions(),
	}
	for _, l := range results.Locations() {
		reads, err := variablesRead(fn, l)
		if err != nil {
			return nil, err
		}
		if l.IsInstruction() {
			instr, err := fn.InstructionAt(l)
			if err != nil {
				return nil, err
			}
			if instr.Operation.VariableWritten() != nil {
				du.definitions.Insert(l)
			}
		}
		if len(reads) == 0 {
			continue
		}
		before, err := Before(fn, results, l)
		if err != nil {
			return nil, err
		}
		for _, v := range reads {
			use := Use{Location: l, Variable: v.Identity()}
			if _, seen := du.defs[use]; seen {
				continue
			}
			reaching := NewDefinitions()
			var defErr error
			before.Each(func(def il.Location) {
				instr, err := fn.InstructionAt(def)
				if err != nil {
					defErr = err
					return
				}
				if w := instr.Operation.VariableWritten(); w != nil && il.SameVariable(*w, v) {
					reaching.Insert(def)
				}
			})
			if defErr != nil {
				return nil, defErr
			}
			du.defs[use] = reaching
			reaching.Each(func(def il.Location) {
				if du.uses[def] == nil {
					du.uses[def] = funcutil.NewOrderedSet(compareUses)
				}
				du.uses[def].Insert(use)
			})
		}
	}
	return du, nil
}

// variablesRead returns the variables read at the location: the variables read by an instruction, or the variables
// of the condition of an edge.
func variablesRead(fn *il.Function, l il.Location) ([]il.Scalar, error) {
	switch l.Kind {
	case il.InstructionLocation:
		instr, err := fn.InstructionAt(l)
		if err != nil {
			return nil, err
		}
		return instr.Operation.VariablesRead(), nil
	case il.EdgeLocation:
		e, err := fn.ControlFlowGraph().Edge(l.Block, l.Tail)
		if err != nil {
			return nil, err
		}
		if e.Condition == nil {
			return nil, nil
		}
		return e.Condition.Scalars(), nil
	default:
		return nil, nil
	}
}

// DefsOf returns the definitions of variable reaching its use at location l. The result is empty if the variable is
// not read at l, or if no definition reaches the use (e.g. a parameter of the function).
func (du *DefUse) DefsOf(l il.Location, variable il.Scalar) []il.Location {
	if defs, ok := du.defs[Use{Location: l, Variable: variable.Identity()}]; ok {
		return defs.Items()
	}
	return nil
}

// UsesOf returns the uses reached by the definition at l, ordered by location
func (du *DefUse) UsesOf(def il.Location) []Use {
	if uses, ok := du.uses[def]; ok {
		return uses.Items()
	}
	return nil
}

// Definitions returns all the definitions of the function, ordered
func (du *DefUse) Definitions() []il.Location {
	return du.definitions.Items()
}

// Unused returns the definitions that do not reach any use, ordered. Those are dead stores, unless the variable is
// observed outside the function.
func (du *DefUse) Unused() []il.Location {
	var unused []il.Location
	du.definitions.Each(func(def il.Location) {
		if du.uses[def] == nil {
			unused = append(unused, def)
		}
	})
	return unused
}
