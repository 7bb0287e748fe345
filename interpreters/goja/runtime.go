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

// Package goja runs page scripts with Goja, which is a Go
// implementation of ECMAScript 5.1+.
//
// See https://github.com/dop251/goja.
//
// A Runtime exposes a "go" object to scripts:
//
//    go(name, module): record a module (go.appendModule).
//    go.include(names): request scripts (string or array).
//    go.VERSION
//    go.Lang.bind(f, thisArg, args)
//    go.Carcas: init, module, controller, provide, registry, mo,
//      ctrl, ready, loaded, destroy.
//    go.Cookie: set, setList, get, getAll, remove.
//
// Some host utilities are global:
//
//    gensym(): a random string.
//    esc(s): URL query-escape the given string.
//    cronNext(expr): next time (RFC 3339) matching the cron expression.
//    log(x): log x as JSON.
//
// For testing only (see Testing; otherwise it throws):
//
//    sleep(ms): sleep for the given number of milliseconds.
package goja

import (
	"context"
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"github.com/vasa-c/gojs/cookie"
	"github.com/vasa-c/gojs/core"
	"github.com/vasa-c/gojs/loader"
)

// VERSION is go.VERSION.
const VERSION = "1.0-beta"

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned if execution is interrupted by the
	// context.
	Interrupted = errors.New(InterruptedMessage)
)

// Runtime is one page's JavaScript environment.
//
// A Runtime is not safe for concurrent use.
type Runtime struct {
	// Testing exposes sleep().
	Testing bool

	Carcas *core.Carcas
	Loader *loader.Loader

	// Cookie can be nil, in which case go.Cookie throws.
	Cookie *cookie.Cookie

	Logger *zerolog.Logger

	vm     *goja.Runtime
	goObj  *goja.Object
	carcas *goja.Object

	// ctx is the context of the outermost run.
	ctx   context.Context
	depth int
}

// NewRuntime makes a Runtime over the given parts.  The Loader can be
// nil if scripts won't include anything.
func NewRuntime(c *core.Carcas, l *loader.Loader, ck *cookie.Cookie, logger *zerolog.Logger) (*Runtime, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	r := &Runtime{
		Carcas: c,
		Loader: l,
		Cookie: ck,
		Logger: logger,
		vm:     goja.New(),
		ctx:    context.Background(),
	}
	if err := r.install(); err != nil {
		return nil, err
	}
	return r, nil
}

// VM exposes the underlying Goja runtime.
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// Exec compiles and runs a script.  Its signature matches
// loader.Executor.
func (r *Runtime) Exec(ctx context.Context, name, src, code string) error {
	p, err := goja.Compile(src, code, false)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", name, err)
	}
	_, err = r.run(ctx, func() (goja.Value, error) {
		return r.vm.RunProgram(p)
	})
	return err
}

// Eval runs code and returns its exported value.
func (r *Runtime) Eval(ctx context.Context, code string) (interface{}, error) {
	v, err := r.run(ctx, func() (goja.Value, error) {
		return r.vm.RunString(code)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.Export(), nil
}

// run calls f with the context's cancellation interrupting the VM.
// Nested runs (a script's hook running a script, say) share the
// outermost context.
func (r *Runtime) run(ctx context.Context, f func() (goja.Value, error)) (goja.Value, error) {
	if 0 < r.depth {
		r.depth++
		defer func() { r.depth-- }()
		return f()
	}

	r.depth++
	r.ctx = ctx
	defer func() {
		r.depth--
		r.ctx = context.Background()
	}()

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ictx.Done()
		// If run calls cancel() after f returns, then we'll
		// never see this InterruptedMessage, which is
		// actually the behavior we want.  In this case, we
		// weren't actually interrupted.
		if ctx.Err() != nil {
			r.vm.Interrupt(InterruptedMessage)
		}
	}()

	v, err := f()
	cancel()
	<-done
	r.vm.ClearInterrupt()

	if err != nil {
		var ie *goja.InterruptedError
		if errors.As(err, &ie) {
			return nil, Interrupted
		}
		return nil, err
	}
	return v, nil
}

// call invokes a JavaScript function inside a run.
func (r *Runtime) call(ctx context.Context, f goja.Callable, this goja.Value, args ...goja.Value) (goja.Value, error) {
	return r.run(ctx, func() (goja.Value, error) {
		return f(this, args...)
	})
}

// throw raises the error as a JavaScript exception.
func (r *Runtime) throw(err error) {
	panic(r.vm.NewGoError(err))
}

func (r *Runtime) protest(format string, args ...interface{}) {
	panic(r.vm.NewTypeError(fmt.Sprintf(format, args...)))
}
