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

// An Operation is the semantic content of an instruction.
type Operation interface {
	// VariableWritten returns the scalar the operation defines, or nil if it does not write any variable.
	// Writes to memory are not variable writes.
	VariableWritten() *Scalar

	// VariablesRead returns the scalars read by the operation
	VariablesRead() []Scalar

	String() string
}

// Assign writes the value of Src into Dst
type Assign struct {
	Dst Scalar
	Src Expression
}

// VariableWritten returns the destination of the assignment
func (a *Assign) VariableWritten() *Scalar { return &a.Dst }

// VariablesRead returns the scalars of the source expression
func (a *Assign) VariablesRead() []Scalar { return a.Src.Scalars() }

func (a *Assign) String() string { return fmt.Sprintf("%s = %s", a.Dst, a.Src) }

// Store writes Src into Memory at Index
type Store struct {
	Memory Array
	Index  Expression
	Src    Expression
}

// VariableWritten returns nil, a store writes to memory
func (s *Store) VariableWritten() *Scalar { return nil }

// VariablesRead returns the scalars of the index followed by the scalars of the stored value
func (s *Store) VariablesRead() []Scalar {
	return append(s.Index.Scalars(), s.Src.Scalars()...)
}

func (s *Store) String() string {
	return fmt.Sprintf("store(%s, %s, %s)", s.Memory.Name, s.Index, s.Src)
}

// Load reads Memory at Index into Dst
type Load struct {
	Dst    Scalar
	Index  Expression
	Memory Array
}

// VariableWritten returns the destination of the load
func (l *Load) VariableWritten() *Scalar { return &l.Dst }

// VariablesRead returns the scalars of the index
func (l *Load) VariablesRead() []Scalar { return l.Index.Scalars() }

func (l *Load) String() string {
	return fmt.Sprintf("%s = load(%s, %s)", l.Dst, l.Memory.Name, l.Index)
}

// Branch is an indirect branch to Target
type Branch struct {
	Target Expression
}

// VariableWritten returns nil
func (b *Branch) VariableWritten() *Scalar { return nil }

// VariablesRead returns the scalars of the target
func (b *Branch) VariablesRead() []Scalar { return b.Target.Scalars() }

func (b *Branch) String() string { return fmt.Sprintf("branch %s", b.Target) }

// Effect is an operation that has side effects the analyses do not model (returns, calls without results, panics...)
// It never writes a variable.
type Effect struct {
	Name string
	Args []Expression
}

// VariableWritten returns nil
func (e *Effect) VariableWritten() *Scalar { return nil }

// VariablesRead returns the scalars of all the arguments
func (e *Effect) VariablesRead() []Scalar {
	var scalars []Scalar
	for _, arg := range e.Args {
		scalars = append(scalars, arg.Scalars()...)
	}
	return scalars
}

func (e *Effect) String() string {
	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s %s", e.Name, strings.Join(args, ", "))
}

// An Instruction wraps an operation. Index is unique within the control-flow graph the instruction belongs to.
type Instruction struct {
	Index     uint64
	Operation Operation
}

func (i *Instruction) String() string {
	return fmt.Sprintf("%02x %s", i.Index, i.Operation)
}
