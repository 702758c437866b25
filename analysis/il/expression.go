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

// An Expression is a side-effect free computation over scalars and constants.
type Expression interface {
	// Scalars returns the scalars read by the expression, in order of appearance
	Scalars() []Scalar

	String() string
}

// Constant is an integer constant of a fixed width
type Constant struct {
	Value uint64
	Bits  uint
}

// Scalars returns nil, constants do not read any variable
func (c *Constant) Scalars() []Scalar { return nil }

func (c *Constant) String() string { return fmt.Sprintf("0x%x:%d", c.Value, c.Bits) }

// Binary is a binary operation. Op is the operator's textual representation.
type Binary struct {
	Op  string
	Lhs Expression
	Rhs Expression
}

// Scalars returns the scalars of the left operand followed by the scalars of the right operand
func (b *Binary) Scalars() []Scalar {
	return append(b.Lhs.Scalars(), b.Rhs.Scalars()...)
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Lhs, b.Op, b.Rhs)
}

// Apply is an opaque function application. It is used to represent any computation that the dataflow analyses do
// not need to interpret, such as calls or conversions.
type Apply struct {
	Fn   string
	Args []Expression
}

// Scalars returns the scalars read by all the arguments
func (a *Apply) Scalars() []Scalar {
	var scalars []Scalar
	for _, arg := range a.Args {
		scalars = append(scalars, arg.Scalars()...)
	}
	return scalars
}

func (a *Apply) String() string {
	args := make([]string, len(a.Args))
	for i, arg := range a.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", a.Fn, strings.Join(args, ", "))
}

// Ref is a named reference to something that is not a variable, e.g. a global or a function
type Ref struct {
	Name string
}

// Scalars returns nil
func (r *Ref) Scalars() []Scalar { return nil }

func (r *Ref) String() string { return r.Name }

// ExprScalar returns an expression reading an unversioned scalar
func ExprScalar(name string, bits uint) Expression {
	return NewScalar(name, bits)
}

// ExprConst returns a constant expression
func ExprConst(value uint64, bits uint) Expression {
	return &Constant{Value: value, Bits: bits}
}

// Cmpltu returns the unsigned comparison lhs < rhs
func Cmpltu(lhs Expression, rhs Expression) Expression {
	return &Binary{Op: "<u", Lhs: lhs, Rhs: rhs}
}

// Cmpeq returns the comparison lhs == rhs
func Cmpeq(lhs Expression, rhs Expression) Expression {
	return &Binary{Op: "==", Lhs: lhs, Rhs: rhs}
}
