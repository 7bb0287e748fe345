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

	"github.com/vasa-c/gojs/cookie"
)

// NoCookie occurs when a script uses go.Cookie on a Runtime without a
// Cookie.
var NoCookie = errors.New("no cookie document")

func (r *Runtime) cookieObject() *goja.Object {
	o := r.vm.NewObject()
	fs := map[string]func(goja.FunctionCall) goja.Value{
		"set": func(call goja.FunctionCall) goja.Value {
			c := r.mustCookie()
			p := r.params(call.Argument(2))
			if err := c.Set(call.Argument(0).String(), call.Argument(1).String(), p); err != nil {
				r.throw(err)
			}
			return goja.Undefined()
		},
		"setList": func(call goja.FunctionCall) goja.Value {
			c := r.mustCookie()
			obj, is := call.Argument(0).(*goja.Object)
			if !is {
				r.protest("setList wants an object")
			}
			values := make(map[string]string, 8)
			for _, k := range obj.Keys() {
				values[k] = obj.Get(k).String()
			}
			if err := c.SetList(values, r.params(call.Argument(1))); err != nil {
				r.throw(err)
			}
			return goja.Undefined()
		},
		"get": func(call goja.FunctionCall) goja.Value {
			v, have := r.mustCookie().Get(call.Argument(0).String())
			if !have {
				return goja.Null()
			}
			return r.vm.ToValue(v)
		},
		"getAll": func(call goja.FunctionCall) goja.Value {
			all := r.mustCookie().GetAll()
			o := r.vm.NewObject()
			for k, v := range all {
				if err := o.Set(k, v); err != nil {
					r.throw(err)
				}
			}
			return o
		},
		"remove": func(call goja.FunctionCall) goja.Value {
			if err := r.mustCookie().Remove(call.Argument(0).String()); err != nil {
				r.throw(err)
			}
			return goja.Undefined()
		},
	}
	for name, f := range fs {
		if err := o.Set(name, f); err != nil {
			panic(err)
		}
	}
	return o
}

func (r *Runtime) mustCookie() *cookie.Cookie {
	if r.Cookie == nil {
		r.throw(NoCookie)
	}
	return r.Cookie
}

// params converts a script's params object.
func (r *Runtime) params(v goja.Value) *cookie.Params {
	if !isSomething(v) {
		return nil
	}
	m, is := v.Export().(map[string]interface{})
	if !is {
		r.protest("cookie params must be an object")
	}
	p, err := cookie.ParamsFromMap(m)
	if err != nil {
		r.throw(err)
	}
	return p
}
