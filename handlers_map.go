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
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// representMap handles bare Go maps and [OrderedMap]. A bare map has no
// observable insertion order, so its entries are rendered sorted by their
// formatted key, giving deterministic output across runs; an [OrderedMap]
// instead preserves the order its caller built it in.
func representMap(v any, _ *Env) (Expr, bool) {
	if om, ok := v.(orderedMapper); ok {
		return representOrderedMap(om)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return Expr{}, false
	}

	keys := rv.MapKeys()
	type entry struct {
		sortKey string
		key     any
		val     any
	}
	entries := make([]entry, len(keys))
	for i, k := range keys {
		entries[i] = entry{
			sortKey: fmt.Sprintf("%#v", k.Interface()),
			key:     k.Interface(),
			val:     rv.MapIndex(k).Interface(),
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].sortKey < entries[j].sortKey })

	keyType := rv.Type().Key().String()
	valType := rv.Type().Elem().String()

	var args []Arg
	parts := make([]string, len(entries))
	for i, e := range entries {
		kName := fmt.Sprintf("k%d", i)
		vName := fmt.Sprintf("v%d", i)
		args = append(args, Arg{Name: kName, Value: e.key}, Arg{Name: vName, Value: e.val})
		parts[i] = fmt.Sprintf("%s: %s", kName, vName)
	}

	code := fmt.Sprintf("map[%s]%s{%s}", keyType, valType, strings.Join(parts, ", "))
	return Expr{Code: code, Args: args, Pure: true}, true
}

// orderedMapper lets representMap recognize any concrete instantiation of
// [OrderedMap] without needing reflection over its type parameters.
type orderedMapper interface {
	orderedEntries() []FieldValue
}

func (m *OrderedMap[K, V]) orderedEntries() []FieldValue {
	out := make([]FieldValue, 0, m.Len())
	for k, v := range m.All() {
		out = append(out, FieldValue{Name: fmt.Sprintf("%v", k), Value: struct{ K, V any }{k, v}})
	}
	return out
}

func representOrderedMap(om orderedMapper) (Expr, bool) {
	entries := om.orderedEntries()

	var args []Arg
	parts := make([]string, len(entries))
	for i, e := range entries {
		kv := e.Value.(struct{ K, V any })
		kName := fmt.Sprintf("k%d", i)
		vName := fmt.Sprintf("v%d", i)
		args = append(args, Arg{Name: kName, Value: kv.K}, Arg{Name: vName, Value: kv.V})
		parts[i] = fmt.Sprintf("%s: %s", kName, vName)
	}

	ctor := "NewOrderedMap"
	setCalls := make([]string, len(entries))
	for i := range entries {
		setCalls[i] = fmt.Sprintf(".Set(%s, %s)", args[2*i].Name, args[2*i+1].Name)
	}
	code := fmt.Sprintf("persist.%s[any, any]()%s", ctor, strings.Join(setCalls, ""))
	return Expr{
		Code:    code,
		Args:    args,
		Imports: []Import{{Path: "github.com/forbes-group/persist"}},
		Pure:    false,
	}, true
}
