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

package ssair

import (
	"errors"
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"strings"

	"github.com/awslabs/argot-reaching/analysis/il"
	"golang.org/x/tools/go/ssa"
)

// Memory is the array standing for all the memory that is not a local variable
var Memory = il.Array{Name: "mem", Size: 1 << 63}

// ErrNoBody is returned when lowering a function without a body, e.g. an external function
var ErrNoBody = errors.New("function has no body")

var sizes = types.SizesFor("gc", "amd64")

// Lowered is the result of lowering an SSA function.
type Lowered struct {
	// Function is the lowered function
	Function *il.Function
	// Source is the SSA function that was lowered
	Source *ssa.Function
	// Positions maps the instruction locations of Function to the position of the SSA instruction they come from.
	// Instructions without a valid source position, either their own or their first user's, are absent.
	Positions map[il.Location]token.Position
}

// Position returns the source position of the location. The returned position is invalid if the location is not
// an instruction or if the instruction has no position.
func (l *Lowered) Position(loc il.Location) token.Position {
	return l.Positions[loc]
}

// Lower translates the SSA function fn into an il.Function with the given index.
// Each SSA block becomes a block with the same index; Jump and If instructions become the edges of the graph.
func Lower(fn *ssa.Function, index uint64) (*Lowered, error) {
	if fn.Blocks == nil {
		return nil, fmt.Errorf("lowering %q: %w", fn.Name(), ErrNoBody)
	}
	l := &lowering{
		fn:    fn,
		cfg:   il.NewControlFlowGraph(),
		index: index,
		cells: map[*ssa.Alloc]il.Scalar{},
		decls: map[declaration]il.Scalar{},
		names: map[string]int{},
		res: &Lowered{
			Source:    fn,
			Positions: map[il.Location]token.Position{},
		},
	}
	for _, b := range fn.Blocks {
		l.cfg.NewBlock()
		if uint64(b.Index) != uint64(len(l.cfg.Blocks())-1) {
			return nil, fmt.Errorf("lowering %s: unexpected block index %d", fn, b.Index)
		}
	}
	for _, b := range fn.Blocks {
		if err := l.block(b); err != nil {
			return nil, fmt.Errorf("lowering %s: %w", fn, err)
		}
	}
	l.res.Function = il.NewFunction(index, FunctionName(fn), l.cfg)
	return l.res, nil
}

type lowering struct {
	fn    *ssa.Function
	cfg   *il.ControlFlowGraph
	index uint64
	// cells are the scalars of the local variables
	cells map[*ssa.Alloc]il.Scalar
	// decls are the scalars of the declared variables. The per-iteration copies of a loop variable share the
	// declaration of the variable.
	decls map[declaration]il.Scalar
	// names counts the cells per source name, to give distinct names to distinct variables
	names map[string]int
	res   *Lowered
}

func (l *lowering) block(b *ssa.BasicBlock) error {
	blk, err := l.cfg.Block(uint64(b.Index))
	if err != nil {
		return err
	}
	for _, instr := range b.Instrs {
		var ilInstr *il.Instruction
		switch instr := instr.(type) {
		case *ssa.Jump:
			if _, err := l.cfg.UnconditionalEdge(blk.Index, uint64(b.Succs[0].Index)); err != nil {
				return err
			}
		case *ssa.If:
			if err := l.branch(blk, instr); err != nil {
				return err
			}
		case *ssa.Alloc:
			if cell, ok := l.cell(instr); ok {
				ilInstr = blk.Assign(cell, il.ExprConst(0, cell.Bits))
			} else {
				ilInstr = blk.Assign(l.register(instr), &il.Apply{Fn: "new", Args: []il.Expression{typeRef(instr)}})
			}
		case *ssa.Store:
			if cell, ok := l.localCell(instr.Addr); ok {
				ilInstr = blk.Assign(cell, l.operand(instr.Val))
			} else {
				ilInstr = blk.Store(Memory, l.operand(instr.Addr), l.operand(instr.Val))
			}
		case *ssa.UnOp:
			cell, local := l.localCell(instr.X)
			switch {
			case instr.Op != token.MUL:
				ilInstr = blk.Assign(l.register(instr),
					&il.Apply{Fn: instr.Op.String(), Args: []il.Expression{l.operand(instr.X)}})
			case local:
				ilInstr = blk.Assign(l.register(instr), cell)
			default:
				ilInstr = blk.Load(l.register(instr), l.operand(instr.X), Memory)
			}
		case *ssa.BinOp:
			ilInstr = blk.Assign(l.register(instr),
				&il.Binary{Op: instr.Op.String(), Lhs: l.operand(instr.X), Rhs: l.operand(instr.Y)})
		case *ssa.Return:
			ilInstr = blk.Effect("return", l.operands(instr.Results)...)
		case *ssa.Panic:
			ilInstr = blk.Effect("panic", l.operand(instr.X))
		case ssa.Value:
			raw := instr.(ssa.Instruction)
			if isVoid(instr.Type()) {
				ilInstr = blk.Effect(opcode(raw), l.instrOperands(raw)...)
			} else {
				ilInstr = blk.Assign(l.register(instr), &il.Apply{Fn: opcode(raw), Args: l.instrOperands(raw)})
			}
		default:
			ilInstr = blk.Effect(opcode(instr), l.instrOperands(instr)...)
		}
		if ilInstr != nil {
			l.record(blk, instr)
		}
	}
	return nil
}

// branch adds the two edges of an If instruction. The true edge is conditioned on the condition, the false edge on
// its negation.
func (l *lowering) branch(blk *il.Block, instr *ssa.If) error {
	b := instr.Block()
	then, els := uint64(b.Succs[0].Index), uint64(b.Succs[1].Index)
	if then == els {
		_, err := l.cfg.UnconditionalEdge(blk.Index, then)
		return err
	}
	cond := l.operand(instr.Cond)
	if _, err := l.cfg.ConditionalEdge(blk.Index, then, cond); err != nil {
		return err
	}
	_, err := l.cfg.ConditionalEdge(blk.Index, els, il.Cmpeq(cond, il.ExprConst(0, 1)))
	return err
}

// record maps the location of the last instruction of blk to the position of instr. Implicit loads of variables
// have no position: they take the position of their first user that has one. The stores spilling parameters take the
// position of the parameter.
func (l *lowering) record(blk *il.Block, instr ssa.Instruction) {
	pos := instr.Pos()
	if store, ok := instr.(*ssa.Store); ok && !pos.IsValid() {
		pos = store.Val.Pos()
	}
	if v, ok := instr.(ssa.Value); ok && !pos.IsValid() && v.Referrers() != nil {
		for _, user := range *v.Referrers() {
			if user.Pos().IsValid() {
				pos = user.Pos()
				break
			}
		}
	}
	if !pos.IsValid() {
		return
	}
	loc := il.NewInstructionLocation(l.index, blk.Index, len(blk.Instructions)-1)
	l.res.Positions[loc] = l.fn.Prog.Fset.Position(pos)
}

// cell returns the scalar of a local variable allocated by a, creating it if needed. Heap allocations are not
// local variables: they may be accessed through other functions.
// Cells of source variables are named after the variable. The other cells (unnamed results, composite literals,
// the defer stack, range indices) are named like registers.
func (l *lowering) cell(a *ssa.Alloc) (il.Scalar, bool) {
	if a.Heap {
		return il.Scalar{}, false
	}
	if s, ok := l.cells[a]; ok {
		return s, true
	}
	if !IsSourceVariable(a) {
		s := il.NewScalar("%"+a.Name(), width(a.Type().(*types.Pointer).Elem()))
		l.cells[a] = s
		return s, true
	}
	decl := declaration{name: a.Comment, pos: a.Pos()}
	if s, ok := l.decls[decl]; ok && decl.pos.IsValid() {
		l.cells[a] = s
		return s, true
	}
	name := a.Comment
	if n := l.names[name]; n > 0 {
		l.names[name] = n + 1
		name = fmt.Sprintf("%s#%d", name, n)
	} else {
		l.names[name] = 1
	}
	s := il.NewScalar(name, width(a.Type().(*types.Pointer).Elem()))
	l.cells[a] = s
	l.decls[decl] = s
	return s, true
}

type declaration struct {
	name string
	pos  token.Pos
}

// builderLocals are the comments of the local allocations the SSA builder introduces without a source variable
var builderLocals = map[string]bool{"complit": true, "rangeindex": true}

// IsSourceVariable returns true when the allocation a is the storage of a variable declared in the source, as opposed
// to the allocations the SSA builder introduces.
func IsSourceVariable(a *ssa.Alloc) bool {
	return token.IsIdentifier(a.Comment) && a.Comment != "_" && !builderLocals[a.Comment]
}

// localCell returns the cell of v when v is the address of a local variable. The address is either the allocation of
// the variable or a phi choosing between the copies of a loop variable.
func (l *lowering) localCell(v ssa.Value) (il.Scalar, bool) {
	switch v := v.(type) {
	case *ssa.Alloc:
		if v.Heap || v.Parent() != l.fn {
			return il.Scalar{}, false
		}
		return l.cell(v)
	case *ssa.Phi:
		var cell il.Scalar
		for i, edge := range v.Edges {
			a, ok := edge.(*ssa.Alloc)
			if !ok {
				return il.Scalar{}, false
			}
			c, ok := l.localCell(a)
			if !ok || (i > 0 && c != cell) {
				return il.Scalar{}, false
			}
			cell = c
		}
		return cell, len(v.Edges) > 0
	}
	return il.Scalar{}, false
}

// register returns the scalar holding the SSA value v. Register names start with '%' to not collide with the names
// of local variables.
func (l *lowering) register(v ssa.Value) il.Scalar {
	return il.NewScalar("%"+v.Name(), width(v.Type()))
}

func (l *lowering) operand(v ssa.Value) il.Expression {
	switch v := v.(type) {
	case *ssa.Const:
		return constantExpr(v)
	case *ssa.Alloc, *ssa.Phi:
		if cell, ok := l.localCell(v); ok {
			return &il.Ref{Name: "&" + cell.Name}
		}
		return l.register(v)
	case *ssa.Function, *ssa.Global, *ssa.Builtin:
		return &il.Ref{Name: v.Name()}
	default:
		return l.register(v)
	}
}

func (l *lowering) operands(values []ssa.Value) []il.Expression {
	exprs := make([]il.Expression, 0, len(values))
	for _, v := range values {
		exprs = append(exprs, l.operand(v))
	}
	return exprs
}

func (l *lowering) instrOperands(instr ssa.Instruction) []il.Expression {
	var exprs []il.Expression
	for _, op := range instr.Operands(nil) {
		if op != nil && *op != nil {
			exprs = append(exprs, l.operand(*op))
		}
	}
	return exprs
}

func constantExpr(c *ssa.Const) il.Expression {
	bits := width(c.Type())
	if c.Value == nil {
		return il.ExprConst(0, bits)
	}
	switch c.Value.Kind() {
	case constant.Bool:
		if constant.BoolVal(c.Value) {
			return il.ExprConst(1, bits)
		}
		return il.ExprConst(0, bits)
	case constant.Int:
		if u, exact := constant.Uint64Val(c.Value); exact {
			return il.ExprConst(u, bits)
		}
		if i, exact := constant.Int64Val(c.Value); exact {
			return il.ExprConst(uint64(i), bits)
		}
	}
	return &il.Ref{Name: c.Value.ExactString()}
}

func typeRef(v ssa.Value) il.Expression {
	return &il.Ref{Name: v.Type().(*types.Pointer).Elem().String()}
}

// opcode returns a short name for the instruction: the callee for static calls, the instruction kind otherwise
func opcode(instr ssa.Instruction) string {
	if call, ok := instr.(ssa.CallInstruction); ok {
		common := call.Common()
		if callee := common.StaticCallee(); callee != nil {
			return FunctionName(callee)
		}
		if common.IsInvoke() {
			return "invoke " + common.Method.Name()
		}
		if b, ok := common.Value.(*ssa.Builtin); ok {
			return b.Name()
		}
		return "call"
	}
	return strings.ToLower(strings.TrimPrefix(fmt.Sprintf("%T", instr), "*ssa."))
}

func isVoid(t types.Type) bool {
	tuple, ok := t.(*types.Tuple)
	return ok && tuple.Len() == 0
}

// width returns the size in bits of a value of type t on amd64. Types whose size depends on a type parameter are
// word sized.
func width(t types.Type) uint {
	if tuple, ok := t.(*types.Tuple); ok {
		var bits uint
		for i := 0; i < tuple.Len(); i++ {
			bits += width(tuple.At(i).Type())
		}
		return bits
	}
	if !hasFixedSize(t) {
		return 64
	}
	return uint(sizes.Sizeof(t) * 8)
}

// hasFixedSize returns false when the layout of t depends on a type parameter
func hasFixedSize(t types.Type) bool {
	if _, ok := t.(*types.TypeParam); ok {
		return false
	}
	switch u := t.Underlying().(type) {
	case *types.Array:
		return hasFixedSize(u.Elem())
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if !hasFixedSize(u.Field(i).Type()) {
				return false
			}
		}
	}
	return true
}
