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
	"encoding/json"
	"net/url"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
)

func (r *Runtime) installHost() error {
	vm := r.vm

	fs := map[string]interface{}{
		"gensym": func() string {
			return uuid.NewString()
		},

		"esc": func(call goja.FunctionCall) goja.Value {
			s, is := call.Argument(0).Export().(string)
			if !is {
				r.protest("esc: not a string")
			}
			return vm.ToValue(url.QueryEscape(s))
		},

		"cronNext": func(call goja.FunctionCall) goja.Value {
			expr, is := call.Argument(0).Export().(string)
			if !is {
				r.protest("cronNext: not a string")
			}
			c, err := cronexpr.Parse(expr)
			if err != nil {
				r.throw(err)
			}
			return vm.ToValue(c.Next(time.Now()).UTC().Format(time.RFC3339Nano))
		},

		"log": func(call goja.FunctionCall) goja.Value {
			x := call.Argument(0).Export()
			js, err := json.Marshal(&x)
			if err != nil {
				r.Logger.Warn().Err(err).Msg("script log (can't marshal)")
			} else {
				r.Logger.Info().RawJSON("x", js).Msg("script log")
			}
			return call.Argument(0)
		},
	}

	fs["sleep"] = func(ms int) {
		if !r.Testing {
			r.protest("sleep is only for testing")
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}

	for name, f := range fs {
		if err := vm.Set(name, f); err != nil {
			return err
		}
	}
	return nil
}
