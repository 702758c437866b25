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

// Package ssair lowers Go functions, in the SSA form of golang.org/x/tools/go/ssa, into the program
// representation of the il package, such that the dataflow analyses can run on Go code.
//
// Programs are built in ssa.NaiveForm: every local variable stays a memory cell allocated by an *ssa.Alloc and
// accessed through loads and stores. Those cells are lowered into scalars named after the source variable, which
// gives reaching definitions their usual meaning on the source program.
package ssair
