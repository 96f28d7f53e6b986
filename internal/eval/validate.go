// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package eval

import "github.com/aplbrain/grand-cypher/internal/ast"

// VarRefs walks expr and appends every variable name it names (through a
// VarRef or a PropAccess) to out, so the pipeline can validate references
// against the declared MATCH variables before doing any matching work
// (spec §7 "Parse and semantic errors abort the query before any matching
// work").
func VarRefs(expr ast.Expr, out map[string]bool) {
	if expr == nil {
		return
	}
	switch n := expr.(type) {
	case *ast.VarRef:
		out[n.Name] = true
	case *ast.PropAccess:
		out[n.Var] = true
	case *ast.UnaryOp:
		VarRefs(n.Expr, out)
	case *ast.BinaryOp:
		VarRefs(n.Left, out)
		VarRefs(n.Right, out)
	case *ast.AggregateCall:
		VarRefs(n.Arg, out)
	case *ast.Literal:
		for _, e := range n.List {
			VarRefs(e, out)
		}
	}
}
