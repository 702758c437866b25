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

// A Scalar is a named variable of a fixed bit width.
// SSA is a per-occurrence version tag; zero means the scalar carries no version.
type Scalar struct {
	Name string
	Bits uint
	SSA  uint
}

// NewScalar returns an unversioned scalar
func NewScalar(name string, bits uint) Scalar {
	return Scalar{Name: name, Bits: bits}
}

// Identity returns the storage location written or read by s, that is s without its version tag.
func (s Scalar) Identity() Scalar {
	return Scalar{Name: s.Name, Bits: s.Bits}
}

// Scalars returns the singleton slice containing s. This implements the Expression interface.
func (s Scalar) Scalars() []Scalar {
	return []Scalar{s}
}

func (s Scalar) String() string {
	if s.SSA > 0 {
		return fmt.Sprintf("%s.%d:%d", s.Name, s.SSA, s.Bits)
	}
	return fmt.Sprintf("%s:%d", s.Name, s.Bits)
}

// SameVariable returns true when a and b denote the same storage location. Version tags are ignored.
func SameVariable(a Scalar, b Scalar) bool {
	return a.Name == b.Name && a.Bits == b.Bits
}

// CompareScalars orders scalars by name and then by width. Version tags are ignored, such that
// CompareScalars(a, b) == 0 iff SameVariable(a, b).
func CompareScalars(a Scalar, b Scalar) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	switch {
	case a.Bits < b.Bits:
		return -1
	case a.Bits > b.Bits:
		return 1
	}
	return 0
}

// An Array is a memory region addressed by an index expression
type Array struct {
	Name string
	Size uint64
}

func (a Array) String() string {
	return fmt.Sprintf("%s[0x%x]", a.Name, a.Size)
}
