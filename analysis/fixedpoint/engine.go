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
	"fmt"

	"github.com/awslabs/argot-reaching/analysis/config"
	"github.com/awslabs/argot-reaching/analysis/il"
	"github.com/awslabs/argot-reaching/internal/funcutil"
)

// Options are optional parameters of the engine. The zero value is valid.
type Options[S any] struct {
	// Logger receives a summary of the solve at debug level and every state update at trace level. Can be nil.
	Logger *config.LogGroup

	// PostUpdate is called after each state update, with the location and its new state, if it is non-nil.
	// The state must not be modified. Useful for debugging purposes.
	PostUpdate func(il.Location, S)
}

// SolveForward computes the fixed point of a forward analysis over fn
func SolveForward[S State[S]](fn *il.Function, analysis Analysis[S]) (*Result[S], error) {
	return Solve(fn, analysis, Forward, Options[S]{})
}

// SolveBackward computes the fixed point of a backward analysis over fn
func SolveBackward[S State[S]](fn *il.Function, analysis Analysis[S]) (*Result[S], error) {
	return Solve(fn, analysis, Backward, Options[S]{})
}

// Solve computes the fixed point of the analysis over the function fn in the given direction.
//
// Every location of fn is initially in the worklist, in the order of il.CompareLocations. When a location is popped,
// its incoming state is the join of the states of its predecessors (successors for backward analyses) that have
// a state, and the new state is the transfer of the incoming state. If the location had no state or the new state is
// different, it is recorded and the successors (resp. predecessors) are pushed back on the worklist.
//
// Either the state of every location of fn is returned, or an error. Errors are either *il.GraphError when the
// control-flow graph is malformed, or errors returned by the analysis.
func Solve[S State[S]](fn *il.Function, analysis Analysis[S], direction Direction,
	opts Options[S]) (*Result[S], error) {
	locations, err := fn.Locations()
	if err != nil {
		return nil, fmt.Errorf("fixedpoint: locations of %s: %w", fn, err)
	}

	inFlow, outFlow := fn.Predecessors, fn.Successors
	if direction == Backward {
		inFlow, outFlow = fn.Successors, fn.Predecessors
	}

	states := make(map[il.Location]S, len(locations))
	queue := newWorklist(locations)
	iterations := 0

	for !queue.isEmpty() {
		location := queue.pop()
		iterations++

		sources, err := inFlow(location)
		if err != nil {
			return nil, fmt.Errorf("fixedpoint: flow into %s: %w", location, err)
		}

		incoming := funcutil.None[S]()
		var joined S
		hasJoined := false
		for _, source := range sources {
			sourceState, ok := states[source]
			if !ok {
				continue
			}
			if !hasJoined {
				joined = sourceState.Clone()
				hasJoined = true
				continue
			}
			joined, err = analysis.Join(joined, sourceState)
			if err != nil {
				return nil, fmt.Errorf("fixedpoint: join at %s: %w", location, err)
			}
		}
		if hasJoined {
			incoming = funcutil.Some(joined)
		}

		state, err := analysis.Transfer(location, incoming)
		if err != nil {
			return nil, fmt.Errorf("fixedpoint: transfer at %s: %w", location, err)
		}

		if previous, ok := states[location]; ok && previous.Equal(state) {
			continue
		}
		states[location] = state
		if opts.Logger.LogsTrace() {
			opts.Logger.Tracef("%s: %v\n", location, state)
		}
		if opts.PostUpdate != nil {
			opts.PostUpdate(location, state)
		}

		targets, err := outFlow(location)
		if err != nil {
			return nil, fmt.Errorf("fixedpoint: flow out of %s: %w", location, err)
		}
		for _, target := range targets {
			queue.push(target)
		}
	}

	opts.Logger.Debugf("%s analysis of %s: %d locations, fixed point after %d iterations\n",
		direction, fn, len(locations), iterations)

	return &Result[S]{
		function:   fn.Index,
		locations:  locations,
		states:     states,
		iterations: iterations,
	}, nil
}

// worklist is a FIFO queue of locations where each location appears at most once
type worklist struct {
	queue  []il.Location
	queued map[il.Location]bool
}

func newWorklist(locations []il.Location) *worklist {
	w := &worklist{
		queue:  make([]il.Location, 0, len(locations)),
		queued: make(map[il.Location]bool, len(locations)),
	}
	for _, l := range locations {
		w.push(l)
	}
	return w
}

func (w *worklist) isEmpty() bool {
	return len(w.queue) == 0
}

func (w *worklist) push(l il.Location) {
	if w.queued[l] {
		return
	}
	w.queued[l] = true
	w.queue = append(w.queue, l)
}

func (w *worklist) pop() il.Location {
	l := w.queue[0]
	w.queue = w.queue[1:]
	delete(w.queued, l)
	return l
}
