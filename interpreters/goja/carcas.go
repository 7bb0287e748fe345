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
	"context"

	"github.com/dop251/goja"

	"github.com/vasa-c/gojs/core"
)

// controller is a core.Lifecycle whose hooks are methods of a
// JavaScript object.  Missing methods are no-ops.
type controller struct {
	r   *Runtime
	obj *goja.Object
}

func (c *controller) hook(ctx context.Context, name string) error {
	f, ok := goja.AssertFunction(c.obj.Get(name))
	if !ok {
		return nil
	}
	_, err := c.r.call(ctx, f, c.obj)
	return err
}

func (c *controller) OnCreate(ctx context.Context, ctl *core.Controller) error {
	if err := c.obj.Set("carcas", c.r.carcas); err != nil {
		return err
	}
	if err := c.obj.Set("name", ctl.Name); err != nil {
		return err
	}
	return c.hook(ctx, "oncreate")
}

func (c *controller) Init(ctx context.Context, ctl *core.Controller) error {
	return c.hook(ctx, "init")
}

func (c *controller) OnLoad(ctx context.Context, ctl *core.Controller) error {
	return c.hook(ctx, "onload")
}

func (c *controller) Done(ctx context.Context, ctl *core.Controller) error {
	return c.hook(ctx, "done")
}

// Object returns the JavaScript object of a controller made by a
// script.
func Object(ctl *core.Controller) (*goja.Object, bool) {
	c, is := ctl.Lifecycle.(*controller)
	if !is {
		return nil, false
	}
	return c.obj, true
}

func (r *Runtime) carcasObject() *goja.Object {
	o := r.vm.NewObject()
	fs := map[string]func(goja.FunctionCall) goja.Value{
		"init":       r.carcasInit,
		"module":     r.carcasModule,
		"controller": r.carcasController,
		"provide": func(call goja.FunctionCall) goja.Value {
			if err := r.Carcas.Provide(r.ctx, call.Argument(0).String()); err != nil {
				r.throw(err)
			}
			return goja.Undefined()
		},
		"registry": func(call goja.FunctionCall) goja.Value {
			reg := r.Carcas.Registry()
			if reg == nil {
				r.throw(core.NotInitialized)
			}
			return r.vm.ToValue(map[string]interface{}(reg))
		},
		"mo": func(call goja.FunctionCall) goja.Value {
			v, have := r.Carcas.Mo(call.Argument(0).String())
			if !have {
				return goja.Undefined()
			}
			if jv, is := v.(goja.Value); is {
				return jv
			}
			return r.vm.ToValue(v)
		},
		"ctrl": func(call goja.FunctionCall) goja.Value {
			ctl, have := r.Carcas.Ctrl(call.Argument(0).String())
			if !have {
				return goja.Undefined()
			}
			if obj, is := Object(ctl); is {
				return obj
			}
			return r.vm.ToValue(ctl)
		},
		"ready": func(call goja.FunctionCall) goja.Value {
			if err := r.Carcas.Ready(r.ctx); err != nil {
				r.throw(err)
			}
			return goja.Undefined()
		},
		"loaded": func(call goja.FunctionCall) goja.Value {
			if err := r.Carcas.Loaded(r.ctx); err != nil {
				r.throw(err)
			}
			return goja.Undefined()
		},
		"destroy": func(call goja.FunctionCall) goja.Value {
			if err := r.Carcas.Destroy(r.ctx, call.Argument(0).String()); err != nil {
				r.throw(err)
			}
			return goja.Undefined()
		},
		"pending": func(call goja.FunctionCall) goja.Value {
			es := r.Carcas.Pending()
			names := make([]interface{}, len(es))
			for i, e := range es {
				names[i] = e.Name
			}
			return r.vm.NewArray(names...)
		},
	}
	for name, f := range fs {
		if err := o.Set(name, f); err != nil {
			panic(err)
		}
	}
	return o
}

// carcasInit is go.Carcas.init(params).
//
// The params can have baseDir, registry, go (provided core
// facilities), libs (provided libraries), and otherLibsLoader, a
// function that gets an array of library names to load.
func (r *Runtime) carcasInit(call goja.FunctionCall) goja.Value {
	cfg := &core.Config{}
	if p, is := call.Argument(0).(*goja.Object); is {
		if v := p.Get("baseDir"); isSomething(v) {
			cfg.BaseDir = v.String()
		}
		if v := p.Get("registry"); isSomething(v) {
			if m, is := v.Export().(map[string]interface{}); is {
				cfg.Registry = m
			}
		}
		var err error
		if cfg.Go, err = exportStrings(p.Get("go")); err != nil {
			r.throw(err)
		}
		if cfg.Libs, err = exportStrings(p.Get("libs")); err != nil {
			r.throw(err)
		}
		if f, ok := goja.AssertFunction(p.Get("otherLibsLoader")); ok {
			cfg.LibsLoader = func(ctx context.Context, c *core.Carcas, names []string) error {
				_, err := r.call(ctx, f, goja.Undefined(), r.vm.ToValue(names))
				return err
			}
		}
	}
	if err := r.Carcas.Start(r.ctx, cfg); err != nil {
		r.throw(err)
	}
	return goja.Undefined()
}

// declaration sorts out (name, [reqs], thing).
func declaration(call goja.FunctionCall) (name string, deps interface{}, thing goja.Value) {
	name = call.Argument(0).String()
	reqs, thing := call.Argument(1), call.Argument(2)
	if goja.IsUndefined(thing) {
		reqs, thing = goja.Undefined(), reqs
	}
	if isSomething(reqs) {
		deps = reqs.Export()
	}
	return name, deps, thing
}

// carcasModule is go.Carcas.module(name, [reqs], fmodule).
//
// The factory is called with go.Carcas.  A value that isn't a function
// is the module itself.
func (r *Runtime) carcasModule(call goja.FunctionCall) goja.Value {
	name, deps, thing := declaration(call)

	var factory core.Factory
	if f, ok := goja.AssertFunction(thing); ok {
		factory = func(ctx context.Context, c *core.Carcas) (interface{}, error) {
			v, err := r.call(ctx, f, goja.Undefined(), r.carcas)
			if err != nil {
				return nil, err
			}
			return v, nil
		}
	} else {
		factory = func(ctx context.Context, c *core.Carcas) (interface{}, error) {
			return thing, nil
		}
	}

	activated, err := r.Carcas.Module(r.ctx, name, deps, factory)
	if err != nil {
		r.throw(err)
	}
	return r.vm.ToValue(activated)
}

// carcasController is go.Carcas.controller(name, [reqs], props).
//
// The props object becomes the controller.  Its oncreate, init,
// onload, and done methods run with this bound to it, and it gets
// carcas and name properties.
func (r *Runtime) carcasController(call goja.FunctionCall) goja.Value {
	name, deps, thing := declaration(call)

	obj, is := thing.(*goja.Object)
	if !isSomething(thing) {
		obj, is = r.vm.NewObject(), true
	}
	if !is {
		r.protest("controller %s: props must be an object", name)
	}

	activated, err := r.Carcas.Controller(r.ctx, name, deps, &controller{r: r, obj: obj})
	if err != nil {
		r.throw(err)
	}
	return r.vm.ToValue(activated)
}
