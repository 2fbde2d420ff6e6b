// Copyright 2025 Buf Technologies, Inc.
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

package persist

import (
	"iter"
	"regexp"

	"github.com/forbes-group/persist/internal/codegen"
	"github.com/forbes-group/persist/internal/ident"
	"github.com/forbes-group/persist/internal/scc"
)

// reduction is the reducer's output: the surviving nodes (the ones that
// get their own binding), in dependency-first emission order, plus each
// one's fully-substituted code and the imports it needs.
type reduction struct {
	Order   []*node
	Code    map[int]string
	Imports map[int][]Import
}

// reduce runs the full reducer pipeline described in SPEC_FULL.md §4.C:
// name assignment, inlining (flat mode only), topological ordering via
// internal/scc, and free-identifier substitution. all must contain every
// node the builder allocated, including ones later inlined; roots are the
// archive's top-level nodes, already named by the caller.
func reduce(all []*node, roots []*node, opts *Options) (*reduction, error) {
	r := &reducer{
		opts:     opts,
		gen:      ident.NewGenerator(),
		strategy: textualOrSyntax(opts),
	}
	return r.run(all, roots)
}

func textualOrSyntax(opts *Options) codegen.Strategy {
	if opts.robustReplace {
		return codegen.Syntax{}
	}
	return codegen.Textual{}
}

type reducer struct {
	opts     *Options
	gen      *ident.Generator
	strategy codegen.Strategy
}

func (r *reducer) run(all []*node, roots []*node) (*reduction, error) {
	r.reserveNames(all)
	r.assignGeneratedNames(all)

	inlined := map[int]bool{}
	if !r.opts.scoped {
		inlined = r.collectInlineCandidates(all)
	}

	order, err := r.topologicalOrder(all, roots)
	if err != nil {
		return nil, err
	}

	code := make(map[int]string, len(order))
	imports := make(map[int][]Import, len(order))
	for _, n := range order {
		c, imp, err := r.substitute(n, inlined, code, imports)
		if err != nil {
			return nil, err
		}
		code[n.id] = c
		imports[n.id] = imp
	}

	surviving := make([]*node, 0, len(order))
	for _, n := range order {
		if !inlined[n.id] {
			surviving = append(surviving, n)
		}
	}

	return &reduction{Order: surviving, Code: code, Imports: imports}, nil
}

// reserveNames reserves every top-level node's own name, plus every free
// identifier any node's raw Expr.Code mentions outside of its own Args
// placeholders, so generated "_gN" names never collide with either.
func (r *reducer) reserveNames(all []*node) {
	for _, n := range all {
		if n.kind == kindTopLevel {
			r.gen.Reserve(n.name)
		}
	}
	identRE := regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	for _, n := range all {
		own := make(map[string]bool, len(n.expr.Args))
		for _, a := range n.expr.Args {
			own[a.Name] = true
		}
		for _, tok := range identRE.FindAllString(n.expr.Code, -1) {
			if own[tok] || ident.IsGenerated(tok) {
				continue
			}
			r.gen.Reserve(tok)
		}
	}
}

func (r *reducer) assignGeneratedNames(all []*node) {
	for _, n := range all {
		if n.kind == kindTopLevel || n.name != "" {
			continue
		}
		n.name = r.gen.Next()
	}
}

// collectInlineCandidates implements §4.C's inlining rule: a node inlines
// into its sole parent when it is referenced exactly once, is not a
// top-level binding, and its handler is pure. Eligibility does not depend
// on any other node's inlining decision, so — unlike the reducer's
// prose description suggests — a single pass suffices; the "leaves before
// containers" tie-break has no observable effect here since every
// eligible node inlines unconditionally rather than competing for a
// limited resource (see DESIGN.md).
func (r *reducer) collectInlineCandidates(all []*node) map[int]bool {
	inlined := make(map[int]bool)
	for _, n := range all {
		if n.kind == kindTopLevel {
			continue
		}
		if n.refs == 1 && n.expr.Pure {
			inlined[n.id] = true
		}
	}
	return inlined
}

// topologicalOrder computes the dependency-first node order via Tarjan's
// algorithm (internal/scc), rejecting any residual cycle: the builder
// already rejects cycles in the user's object graph, so a cycle surviving
// to this point is always a bug in a representer.
func (r *reducer) topologicalOrder(all []*node, roots []*node) ([]*node, error) {
	byID := make([]*node, len(all))
	for _, n := range all {
		byID[n.id] = n
	}

	graph := scc.Graph[int](func(id int) iter.Seq[int] {
		return func(yield func(int) bool) {
			for _, c := range byID[id].children {
				if c == nil {
					continue
				}
				if !yield(c.id) {
					return
				}
			}
		}
	})

	rootIDs := make([]int, len(roots))
	for i, rt := range roots {
		rootIDs[i] = rt.id
	}

	dag := scc.SortAll(rootIDs, graph)

	order := make([]*node, 0, len(all))
	for comp := range dag.Topological() {
		members := comp.Members()
		if len(members) > 1 {
			return nil, newCycleError(nil, true)
		}
		id := members[0]
		for dep := range graph(id) {
			if dep == id {
				return nil, newCycleError(nil, true)
			}
		}
		order = append(order, byID[id])
	}
	return order, nil
}

// substitute rewrites n's Expr.Code, replacing each Arg placeholder with
// either the referenced child's assigned name (a surviving node) or its
// fully-resolved code spliced in directly (an inlined node), accumulating
// imports along the way. code and imports hold already-computed results
// for every node earlier in dependency-first order, which always includes
// every one of n's children.
func (r *reducer) substitute(n *node, inlined map[int]bool, code map[int]string, imports map[int][]Import) (string, []Import, error) {
	result := n.expr.Code
	acc := append([]Import{}, n.expr.Imports...)

	for i, arg := range n.expr.Args {
		var child *node
		if i < len(n.children) {
			child = n.children[i]
		}

		var replacement string
		switch {
		case child == nil:
			replacement = "nil"
		case inlined[child.id]:
			replacement = code[child.id]
			acc = append(acc, imports[child.id]...)
		default:
			replacement = child.name
		}

		rewritten, err := r.strategy.Rename(result, arg.Name, replacement)
		if err != nil {
			return "", nil, newUnboundError(arg.Name, result)
		}
		result = rewritten
	}

	return result, acc, nil
}
