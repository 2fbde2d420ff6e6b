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
	"runtime"
	"strings"
)

// representRef handles reflect.Type values and function values that name
// an exported package-level identifier, the Go analogue of a Python
// `module.qualname` reference (spec.md's "from module import qualname as
// alias" case).
func representRef(v any, _ *Env) (Expr, bool) {
	if t, ok := v.(reflect.Type); ok {
		return representTypeRef(t)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return Expr{}, false
	}
	return representFuncRef(rv)
}

func representTypeRef(t reflect.Type) (Expr, bool) {
	path := t.PkgPath()
	if path == "" {
		// Builtin or unnamed type; not a package-qualified reference.
		return Expr{}, false
	}
	alias := basePackageName(path)
	code := fmt.Sprintf("reflect.TypeFor[%s.%s]()", alias, t.Name())
	return Expr{
		Code:    code,
		Imports: []Import{{Path: "reflect"}, {Path: path}},
		Pure:    true,
	}, true
}

func representFuncRef(rv reflect.Value) (Expr, bool) {
	fn := runtime.FuncForPC(rv.Pointer())
	if fn == nil {
		return Expr{}, false
	}
	full := fn.Name()

	// full looks like "pkg/path.Name" or "pkg/path.(*Recv).Name"; only the
	// plain package-level function case is a reference handlers_ref.go can
	// express without also capturing a receiver value.
	slash := strings.LastIndex(full, "/")
	rest := full
	if slash >= 0 {
		rest = full[slash+1:]
	}
	dot := strings.Index(rest, ".")
	if dot < 0 || strings.Contains(rest[dot+1:], ".") || strings.Contains(rest[dot+1:], "(") {
		return Expr{}, false
	}

	path := full[:len(full)-len(rest)+dot]
	if slash >= 0 {
		path = full[:slash+1] + rest[:dot]
	}
	name := rest[dot+1:]
	if !reflect.ValueOf(name).IsValid() || name == "" || !isExported(name) {
		return Expr{}, false
	}

	alias := basePackageName(path)
	code := fmt.Sprintf("%s.%s", alias, name)
	return Expr{Code: code, Imports: []Import{{Path: path}}, Pure: true}, true
}

func isExported(name string) bool {
	r := []rune(name)
	return len(r) > 0 && strings.ToUpper(string(r[0])) == string(r[0])
}
