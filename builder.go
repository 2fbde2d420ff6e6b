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

import "reflect"

// builder walks inserted values into a node graph. The walk is iterative
// (an explicit work stack, never Go call-stack recursion) because an
// inserted object graph's depth is caller-controlled, not
// architecture-bounded.
type builder struct {
	env      *Env
	registry *registry

	nodes map[identityKey][]*node // buckets, for byValue keys that hash-collide
	byID  []*node

	// gray holds the identity keys currently on the DFS path from some
	// root to the frame being expanded; black holds keys whose subtree is
	// fully walked. Re-encountering a gray key is the Cyclic condition.
	gray  map[identityKey]bool
	black map[identityKey]bool
}

func newBuilder(env *Env, registry *registry) *builder {
	return &builder{
		env:      env,
		registry: registry,
		nodes:    make(map[identityKey][]*node),
		gray:     make(map[identityKey]bool),
		black:    make(map[identityKey]bool),
	}
}

// frame is one node's position in the iterative walk: which of its
// Expr.Args have already been pushed.
type frame struct {
	n   *node
	idx int
}

// Insert walks v (and everything it transitively references) into the
// graph, returning its node. kind marks whether v is a top-level binding
// or a node reached only as some other node's dependency. Insert does not
// roll back on error: a Cyclic or NotRepresentable failure leaves every
// node allocated so far in place, and the caller (archive.go) discards the
// whole builder rather than reusing a partially-walked one.
func (b *builder) Insert(v any, kind nodeKind) (*node, error) {
	root, err := b.intern(v, kind)
	if err != nil {
		return nil, err
	}
	if root.value == nil || b.black[root.key] || root.pushed {
		// Already fully walked by a previous Insert of the same value (or
		// a nil leaf, which has no children to walk).
		return root, nil
	}
	root.pushed = true

	b.gray[root.key] = true
	stack := []*frame{{n: root}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.idx >= len(top.n.expr.Args) {
			delete(b.gray, top.n.key)
			b.black[top.n.key] = true
			stack = stack[:len(stack)-1]
			continue
		}

		arg := top.n.expr.Args[top.idx]
		top.idx++

		if arg.Value == nil {
			top.n.children = append(top.n.children, nil)
			continue
		}
		childKey := computeIdentityKey(arg.Value)
		if b.gray[childKey] {
			return nil, newCycleError(nil, false)
		}

		child, err := b.intern(arg.Value, kindContainer)
		if err != nil {
			return nil, err
		}
		child.refs++
		child.parents = append(child.parents, top.n)
		top.n.children = append(top.n.children, child)

		if b.black[child.key] || child.pushed {
			// Already fully walked (or already on the stack via another
			// path, which is fine for a DAG edge into the same subtree
			// as long as it isn't gray — that case returned above).
			continue
		}
		child.pushed = true
		b.gray[child.key] = true
		stack = append(stack, &frame{n: child})
	}

	return root, nil
}

// intern computes v's identity key, returning the existing node if one
// already exists (ref counting happens in the caller, once per edge) or
// else allocating one and invoking represent.
func (b *builder) intern(v any, kind nodeKind) (*node, error) {
	if v == nil {
		return &node{kind: kindLeaf}, nil
	}

	key := computeIdentityKey(v)
	if key.byValue {
		for _, cand := range b.nodes[key] {
			if reflect.DeepEqual(cand.value, v) {
				return cand, nil
			}
		}
	} else if existing, ok := b.lookup(key); ok {
		return existing, nil
	}

	expr, ok := b.registry.represent(v, b.env)
	if !ok {
		return nil, newRepresentError(v)
	}

	n := &node{
		id:    len(b.byID),
		key:   key,
		value: v,
		expr:  expr,
		kind:  kind,
	}
	b.byID = append(b.byID, n)
	b.nodes[key] = append(b.nodes[key], n)
	return n, nil
}

func (b *builder) lookup(key identityKey) (*node, bool) {
	cands := b.nodes[key]
	if len(cands) == 0 {
		return nil, false
	}
	return cands[0], true
}

// Nodes returns every node allocated during the walk, in allocation order.
func (b *builder) Nodes() []*node {
	return b.byID
}
