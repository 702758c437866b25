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

package fixedpoint

import (
	"github.com/awslabs/argot-reaching/analysis/il"
	"golang.org/x/exp/slices"
)

// A Result maps every location of a function to its state at the fixed point. Iteration over a result follows the
// order of il.CompareLocations.
type Result[S any] struct {
	function   uint64
	locations  []il.Location
	states     map[il.Location]S
	iterations int
}

// Function returns the index of the analyzed function
func (r *Result[S]) Function() uint64 {
	return r.function
}

// Locations returns all the locations of the result, ordered
func (r *Result[S]) Locations() []il.Location {
	return slices.Clone(r.locations)
}

// Get returns the state at location l and true, or false if l is not a location of the analyzed function
func (r *Result[S]) Get(l il.Location) (S, bool) {
	s, ok := r.states[l]
	return s, ok
}

// Len returns the number of locations in the result
func (r *Result[S]) Len() int {
	return len(r.locations)
}

// Each calls f on every location and its state, in order
func (r *Result[S]) Each(f func(il.Location, S)) {
	for _, l := range r.locations {
		f(l, r.states[l])
	}
}

// Iterations returns the number of locations the engine has popped from its worklist
func (r *Result[S]) Iterations() int {
	return r.iterations
}
