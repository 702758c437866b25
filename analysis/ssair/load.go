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
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"sort"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// PkgLoadMode is the loading mode of LoadPackages. The SSA builder needs the syntax and the types of every package.
const PkgLoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes

// BuildMode is the SSA builder mode used by all the loaders. Locals stay in memory cells in the naive form.
const BuildMode = ssa.NaiveForm

// Program is a loaded program
type Program struct {
	// Fset is the file set of all the parsed files
	Fset *token.FileSet
	// Program is the SSA version of the program.
	Program *ssa.Program
	// Packages are the packages that have been loaded explicitly, in the order of the arguments
	Packages []*ssa.Package
}

// LoadFile loads a single Go source file. The file may only import packages of the standard library.
func LoadFile(filename string) (*Program, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return LoadSource(filename, string(src))
}

// LoadSource parses, type-checks and builds the SSA of a single file with the given contents.
func LoadSource(filename string, src string) (*Program, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	tc := &types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	pkg := types.NewPackage(f.Name.Name, f.Name.Name)
	ssaPkg, _, err := ssautil.BuildPackage(tc, fset, pkg, []*ast.File{f}, BuildMode)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s: %w", filename, err)
	}
	return &Program{Fset: fset, Program: ssaPkg.Prog, Packages: []*ssa.Package{ssaPkg}}, nil
}

// LoadPackages loads the packages matching the patterns, as specified by the documentation of packages.Load, and
// builds the SSA of the entire program.
func LoadPackages(dir string, patterns []string) (*Program, error) {
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Mode:  PkgLoadMode,
		Tests: false,
		Fset:  fset,
		Dir:   dir,
	}

	// load, parse and type check the given packages
	initialPackages, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(initialPackages) == 0 {
		return nil, fmt.Errorf("no packages")
	}
	if packages.PrintErrors(initialPackages) > 0 {
		return nil, fmt.Errorf("errors found in the loaded packages")
	}

	program, ssaPackages := ssautil.AllPackages(initialPackages, BuildMode)
	for i, p := range ssaPackages {
		if p == nil {
			return nil, fmt.Errorf("cannot build SSA for package %s", initialPackages[i])
		}
	}
	program.Build()
	return &Program{Fset: fset, Program: program, Packages: ssaPackages}, nil
}

// Functions returns the functions of the loaded packages that have a body, including methods and anonymous
// functions, in source order. Synthetic functions such as package initializers and wrappers are excluded.
func (p *Program) Functions() []*ssa.Function {
	var funcs []*ssa.Function
	for _, pkg := range p.Packages {
		funcs = append(funcs, Functions(pkg)...)
	}
	return funcs
}

// Functions returns the functions of the package with a body, in source order.
func Functions(pkg *ssa.Package) []*ssa.Function {
	var funcs []*ssa.Function
	for fn := range ssautil.AllFunctions(pkg.Prog) {
		if fn.Pkg == pkg && fn.Synthetic == "" && fn.Blocks != nil {
			funcs = append(funcs, fn)
		}
	}
	sort.Slice(funcs, func(i, j int) bool {
		if funcs[i].Pos() != funcs[j].Pos() {
			return funcs[i].Pos() < funcs[j].Pos()
		}
		return funcs[i].String() < funcs[j].String()
	})
	return funcs
}

// FunctionName returns the name of the function relative to its package, e.g. "main", "(*T).Method" or "main$1".
func FunctionName(fn *ssa.Function) string {
	if fn.Pkg == nil {
		return fn.String()
	}
	return fn.RelString(fn.Pkg.Pkg)
}

// LowerAll lowers every function of the program for which keep returns true (all functions if keep is nil).
// Functions are indexed in the order of Functions.
func (p *Program) LowerAll(keep func(name string) bool) ([]*Lowered, error) {
	var lowered []*Lowered
	for _, fn := range p.Functions() {
		if keep != nil && !keep(FunctionName(fn)) {
			continue
		}
		l, err := Lower(fn, uint64(len(lowered)))
		if err != nil {
			return nil, err
		}
		lowered = append(lowered, l)
	}
	return lowered, nil
}
