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
	"strings"
)

// representFallback is the last handler in the chain (§4.A step 10): a
// [Representable] value exposes its fields explicitly; otherwise exported-
// field reflection is used. A struct with any unexported field that does
// not implement Representable is not representable at all.
func representFallback(v any, _ *Env) (Expr, bool) {
	if rep, ok := v.(Representable); ok {
		expr, ok := representFields(v, rep.PersistFields())
		if ok && reflect.TypeOf(v).Kind() == reflect.Ptr {
			expr.Code = "&" + expr.Code
		}
		return expr, ok
	}

	rv := reflect.ValueOf(v)
	ptr := false
	if rv.Kind() == reflect.Ptr {
		ptr = true
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Expr{}, false
	}

	t := rv.Type()
	fields := make([]FieldValue, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			// Unexported state with no Representable escape hatch: the
			// caller must implement Representable for this type.
			return Expr{}, false
		}
		fields = append(fields, FieldValue{Name: f.Name, Value: rv.Field(i).Interface()})
	}

	expr, ok := representFields(v, fields)
	if !ok {
		return Expr{}, false
	}
	if ptr {
		expr.Code = "&" + expr.Code
	}
	return expr, true
}

func representFields(v any, fields []FieldValue) (Expr, bool) {
	typeExpr, imports := goTypeExpr(v)
	typeExpr = strings.TrimPrefix(typeExpr, "*")

	var args []Arg
	parts := make([]string, len(fields))
	for i, f := range fields {
		name := nextArg(&args, f.Value)
		parts[i] = fmt.Sprintf("%s: %s", f.Name, name)
	}

	code := fmt.Sprintf("%s{%s}", typeExpr, strings.Join(parts, ", "))
	return Expr{Code: code, Args: args, Imports: imports, Pure: true}, true
}
