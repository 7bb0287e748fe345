/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package goja

import (
	"errors"

	"github.com/dop251/goja"
)

// NoLoader occurs when a script calls go.include on a Runtime without
// a Loader.
var NoLoader = errors.New("no script loader")

// prelude defines what go.js defines in JavaScript.
const prelude = `
go("Lang", {
	bind: function (func, thisArg, args) {
		if (thisArg === undefined || thisArg === null) {
			thisArg = globalThis;
		}
		return func.bind.apply(func, [thisArg].concat(args || []));
	}
});
`

func (r *Runtime) install() error {
	vm := r.vm

	goObj := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if name := call.Argument(0); isSomething(name) {
			r.appendModule(name.String(), call.Argument(1))
		}
		return r.goObj
	}).ToObject(vm)
	r.goObj = goObj

	if err := goObj.Set("VERSION", VERSION); err != nil {
		return err
	}
	if err := goObj.Set("include", r.include); err != nil {
		return err
	}
	if err := goObj.Set("appendModule", func(call goja.FunctionCall) goja.Value {
		r.appendModule(call.Argument(0).String(), call.Argument(1))
		return goja.Undefined()
	}); err != nil {
		return err
	}

	r.carcas = r.carcasObject()
	if err := goObj.Set("Carcas", r.carcas); err != nil {
		return err
	}
	if err := goObj.Set("Cookie", r.cookieObject()); err != nil {
		return err
	}

	if err := vm.Set("go", goObj); err != nil {
		return err
	}
	if err := r.installHost(); err != nil {
		return err
	}

	_, err := vm.RunString(prelude)
	return err
}

func (r *Runtime) appendModule(name string, module goja.Value) {
	if err := r.goObj.Set(name, module); err != nil {
		r.throw(err)
	}
	if r.Loader != nil {
		r.Loader.AppendModule(name, module)
	}
}

func (r *Runtime) include(call goja.FunctionCall) goja.Value {
	if r.Loader == nil {
		r.throw(NoLoader)
	}
	names, err := exportStrings(call.Argument(0))
	if err != nil {
		r.throw(err)
	}
	if err := r.Loader.Include(r.ctx, names...); err != nil {
		r.throw(err)
	}
	return goja.Undefined()
}

// isSomething reports whether v is neither undefined nor null.
func isSomething(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// exportStrings accepts a string or an array of strings.
func exportStrings(v goja.Value) ([]string, error) {
	if !isSomething(v) {
		return nil, nil
	}
	switch vv := v.Export().(type) {
	case string:
		return []string{vv}, nil
	case []string:
		return vv, nil
	case []interface{}:
		acc := make([]string, 0, len(vv))
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				return nil, errors.New("expected a string or an array of strings")
			}
			acc = append(acc, s)
		}
		return acc, nil
	}
	return nil, errors.New("expected a string or an array of strings")
}
