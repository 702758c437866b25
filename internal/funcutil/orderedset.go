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

package funcutil

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// An OrderedSet is a set whose elements are kept sorted according to a comparison function. Iteration order is the
// order of the elements, which makes results that depend on set iteration deterministic.
//
// cmp(a, b) must return a negative number when a < b, zero when a == b and a positive number when a > b.
type OrderedSet[T any] struct {
	elems []T
	cmp   func(T, T) int
}

// NewOrderedSet returns a set ordered by cmp and containing elems
func NewOrderedSet[T any](cmp func(T, T) int, elems ...T) *OrderedSet[T] {
	s := &OrderedSet[T]{cmp: cmp}
	for _, x := range elems {
		s.Insert(x)
	}
	return s
}

// NewOrderedSetOf returns a set of ordered values, ordered by <
func NewOrderedSetOf[T constraints.Ordered](elems ...T) *OrderedSet[T] {
	return NewOrderedSet(Compare[T], elems...)
}

// Compare is the comparison function of ordered values
func Compare[T constraints.Ordered](a T, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (s *OrderedSet[T]) find(x T) (int, bool) {
	return slices.BinarySearchFunc(s.elems, x, s.cmp)
}

// Insert adds x to the set and returns true if x was not already in the set
func (s *OrderedSet[T]) Insert(x T) bool {
	i, found := s.find(x)
	if found {
		return false
	}
	s.elems = slices.Insert(s.elems, i, x)
	return true
}

// Remove removes x from the set and returns true if x was in the set
func (s *OrderedSet[T]) Remove(x T) bool {
	i, found := s.find(x)
	if !found {
		return false
	}
	s.elems = slices.Delete(s.elems, i, i+1)
	return true
}

// RemoveIf removes all the elements for which pred returns true. Returns the number of elements removed.
// @mutates s
func (s *OrderedSet[T]) RemoveIf(pred func(T) bool) int {
	kept := s.elems[:0]
	for _, x := range s.elems {
		if !pred(x) {
			kept = append(kept, x)
		}
	}
	n := len(s.elems) - len(kept)
	s.elems = kept
	return n
}

// Contains returns true if x is in the set
func (s *OrderedSet[T]) Contains(x T) bool {
	_, found := s.find(x)
	return found
}

// Len returns the number of elements in the set
func (s *OrderedSet[T]) Len() int {
	return len(s.elems)
}

// Items returns the elements of the set in increasing order. The slice is a copy.
func (s *OrderedSet[T]) Items() []T {
	return slices.Clone(s.elems)
}

// Each calls f on every element of the set in increasing order
func (s *OrderedSet[T]) Each(f func(T)) {
	for _, x := range s.elems {
		f(x)
	}
}

// Union adds all the elements of other to s and returns true if s has changed.
// @mutates s
func (s *OrderedSet[T]) Union(other *OrderedSet[T]) bool {
	if other == nil || len(other.elems) == 0 {
		return false
	}
	merged := make([]T, 0, len(s.elems)+len(other.elems))
	i, j := 0, 0
	for i < len(s.elems) && j < len(other.elems) {
		c := s.cmp(s.elems[i], other.elems[j])
		switch {
		case c < 0:
			merged = append(merged, s.elems[i])
			i++
		case c > 0:
			merged = append(merged, other.elems[j])
			j++
		default:
			merged = append(merged, s.elems[i])
			i++
			j++
		}
	}
	merged = append(merged, s.elems[i:]...)
	merged = append(merged, other.elems[j:]...)
	changed := len(merged) != len(s.elems)
	s.elems = merged
	return changed
}

// Clone returns a copy of the set
func (s *OrderedSet[T]) Clone() *OrderedSet[T] {
	return &OrderedSet[T]{elems: slices.Clone(s.elems), cmp: s.cmp}
}

// Equal returns true if s and other contain the same elements
func (s *OrderedSet[T]) Equal(other *OrderedSet[T]) bool {
	if s == nil || other == nil {
		return s == other
	}
	return slices.EqualFunc(s.elems, other.elems, func(a T, b T) bool { return s.cmp(a, b) == 0 })
}

// SubsetOf returns true if every element of s is in other
func (s *OrderedSet[T]) SubsetOf(other *OrderedSet[T]) bool {
	for _, x := range s.elems {
		if !other.Contains(x) {
			return false
		}
	}
	return true
}

func (s *OrderedSet[T]) String() string {
	strs := make([]string, len(s.elems))
	for i, x := range s.elems {
		strs[i] = fmt.Sprintf("%v", x)
	}
	return "{" + strings.Join(strs, ", ") + "}"
}
