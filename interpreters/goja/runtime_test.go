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
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasa-c/gojs/cookie"
	"github.com/vasa-c/gojs/core"
	"github.com/vasa-c/gojs/loader"
)

func newRuntime(t *testing.T, srcs map[string]string) (*Runtime, *core.Carcas, *loader.Loader) {
	ctx := context.Background()
	c := core.New()

	var r *Runtime
	l := loader.New("/js/", loader.MapProvider(srcs), func(ctx context.Context, name, src, code string) error {
		return r.Exec(ctx, name, src, code)
	})

	doc, err := cookie.NewJarDocument(ctx, "https://example.com/", nil)
	require.NoError(t, err)

	r, err = NewRuntime(c, l, cookie.New(doc, nil), nil)
	require.NoError(t, err)
	return r, c, l
}

func eval(t *testing.T, r *Runtime, code string) interface{} {
	x, err := r.Eval(context.Background(), code)
	require.NoError(t, err, code)
	return x
}

func TestModulesFromScript(t *testing.T) {
	r, c, _ := newRuntime(t, nil)
	eval(t, r, `
go.Carcas.init({registry: {theme: "dark"}, go: ["Class"]});
var first = go.Carcas.module("m3", "m1, m2, go:Class", function (carcas) {
	return {sum: carcas.mo("m1").n + carcas.mo("m2").n};
});
go.Carcas.module("m1", function () { return {n: 1}; });
go.Carcas.module("m2", "m1", {n: 2});
`)

	assert.Equal(t, false, eval(t, r, `first`))
	assert.Equal(t, int64(3), eval(t, r, `go.Carcas.mo("m3").sum`))
	assert.Equal(t, "dark", eval(t, r, `go.Carcas.registry().theme`))

	v, have := c.Mo("m3")
	require.True(t, have)
	jv, is := v.(goja.Value)
	require.True(t, is)
	assert.Equal(t, map[string]interface{}{"sum": int64(3)}, jv.Export())

	theme, _ := c.Registry().String("theme")
	assert.Equal(t, "dark", theme)
}

func TestControllerFromScript(t *testing.T) {
	ctx := context.Background()
	r, c, _ := newRuntime(t, nil)
	eval(t, r, `
var trace = [];
go.Carcas.init({});
go.Carcas.controller("menu", "mo:dom", {
	oncreate: function () { trace.push("oncreate:" + this.name); },
	init: function () { trace.push("init"); },
	onload: function () { trace.push("onload:" + (this.carcas === go.Carcas)); },
	done: function () { trace.push("done"); }
});
go.Carcas.controller("bare");
go.Carcas.module("dom", {});
`)

	require.NoError(t, c.Loaded(ctx))
	require.NoError(t, c.Destroy(ctx, "menu"))
	assert.Equal(t, "oncreate:c:menu,init,onload:true,done", eval(t, r, `trace.join(",")`))

	ctl, have := c.Ctrl("menu")
	require.True(t, have)
	obj, is := Object(ctl)
	require.True(t, is)
	assert.Equal(t, "c:menu", obj.Get("name").String())

	assert.Equal(t, true, eval(t, r, `go.Carcas.ctrl("menu") === go.Carcas.ctrl("c:menu")`))
	assert.Equal(t, "c:bare", eval(t, r, `go.Carcas.ctrl("bare").name`))
}

func TestSignalsFromScript(t *testing.T) {
	r, c, _ := newRuntime(t, nil)
	eval(t, r, `
var trace = [];
go.Carcas.init({});
go.Carcas.controller("menu", {
	init: function () { trace.push("init"); },
	onload: function () { trace.push("onload"); }
});
go.Carcas.ready();
go.Carcas.loaded();
`)
	assert.True(t, c.IsLoaded())
	assert.Equal(t, "init,onload", eval(t, r, `trace.join(",")`))
}

func TestHookErrors(t *testing.T) {
	r, c, _ := newRuntime(t, nil)
	eval(t, r, `
go.Carcas.init({});
go.Carcas.controller("menu", {
	init: function () { throw new Error("broken menu"); }
});
`)
	err := c.Ready(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken menu")
}

func TestIncludeFromScript(t *testing.T) {
	ctx := context.Background()
	r, _, l := newRuntime(t, map[string]string{
		"/js/a.js": `go("A", {x: 1}); go.include("b"); var afterA = typeof b;`,
		"/js/b.js": `var b = go.A.x + 1;`,
	})

	require.NoError(t, l.Include(ctx, "a"))
	assert.Equal(t, int64(2), eval(t, r, `b`))
	// b ran after a finished.
	assert.Equal(t, "undefined", eval(t, r, `afterA`))

	m, have := l.Module("A")
	require.True(t, have)
	assert.NotNil(t, m)

	// Already there.
	eval(t, r, `go.include(["A", "Lang", "b"])`)
	assert.Equal(t, []string{"Lang", "a", "A", "b"}, l.Included())
}

func TestIncludeMissing(t *testing.T) {
	r, _, _ := newRuntime(t, nil)
	_, err := r.Eval(context.Background(), `go.include("nothing")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing")
}

func TestLibsLoaderFromScript(t *testing.T) {
	r, c, _ := newRuntime(t, nil)
	eval(t, r, `
var requested = [];
go.Carcas.init({otherLibsLoader: function (names) {
	for (var i = 0; i < names.length; i++) {
		requested.push(names[i]);
	}
}});
go.Carcas.module("ui", "l:jquery", function () { return "ui"; });
go.Carcas.module("ui2", "l:jquery", function () { return "ui2"; });
`)
	assert.Equal(t, "jquery", eval(t, r, `requested.join(",")`))
	assert.Equal(t, int64(2), eval(t, r, `go.Carcas.pending().length`))

	eval(t, r, `go.Carcas.provide("l:jquery")`)
	assert.Equal(t, int64(0), eval(t, r, `go.Carcas.pending().length`))
	v, have := c.Mo("ui2")
	require.True(t, have)
	assert.Equal(t, "ui2", v.(goja.Value).Export())
}

func TestCarcasErrorsFromScript(t *testing.T) {
	r, _, _ := newRuntime(t, nil)
	ctx := context.Background()

	_, err := r.Eval(ctx, `go.Carcas.module("x", function () {})`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")

	eval(t, r, `go.Carcas.init({})`)
	_, err = r.Eval(ctx, `go.Carcas.init({})`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")

	eval(t, r, `go.Carcas.module("x", function () {})`)
	_, err = r.Eval(ctx, `go.Carcas.module("x", function () {})`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already declared")

	// Caught in the script.
	assert.Equal(t, true, eval(t, r, `
var caught = false;
try { go.Carcas.module("y", "x:bad", function () {}); } catch (e) { caught = true; }
caught;
`))

	_, err = r.Eval(ctx, `go.Carcas.controller("c", "", 42)`)
	assert.Error(t, err)
}

func TestCookieFromScript(t *testing.T) {
	r, _, _ := newRuntime(t, nil)
	assert.Equal(t, "dark; blue", eval(t, r, `
go.Cookie.set("theme", "dark; blue", {expires: "day", path: "/"});
go.Cookie.get("theme");
`))
	assert.Equal(t, true, eval(t, r, `
go.Cookie.remove("theme");
go.Cookie.get("theme") === null;
`))
	assert.Equal(t, "1-2", eval(t, r, `
go.Cookie.setList({a: "1", b: 2}, {expires: 3600});
var all = go.Cookie.getAll();
all.a + "-" + all.b;
`))

	_, err := r.Eval(context.Background(), `go.Cookie.set("x", "y", {colour: "red"})`)
	assert.Error(t, err)
}

func TestNoLoaderNoCookie(t *testing.T) {
	ctx := context.Background()
	r, err := NewRuntime(core.New(), nil, nil, nil)
	require.NoError(t, err)

	_, err = r.Eval(ctx, `go.include("x")`)
	assert.Error(t, err)
	_, err = r.Eval(ctx, `go.Cookie.get("x")`)
	assert.Error(t, err)

	// go() still works without a loader.
	x, err := r.Eval(ctx, `go("Thing", 7); go.Thing`)
	require.NoError(t, err)
	assert.Equal(t, int64(7), x)
}

func TestLang(t *testing.T) {
	r, _, _ := newRuntime(t, nil)
	assert.Equal(t, int64(8), eval(t, r, `
var o = {n: 5};
var f = go.Lang.bind(function (a, b) { return this.n + a + b; }, o, [1]);
f(2);
`))
	assert.Equal(t, VERSION, eval(t, r, `go.VERSION`))
}

func TestHostUtilities(t *testing.T) {
	r, _, _ := newRuntime(t, nil)
	assert.Len(t, eval(t, r, `gensym()`), 36)
	assert.NotEqual(t, eval(t, r, `gensym()`), eval(t, r, `gensym()`))
	assert.Equal(t, "a+b%26c", eval(t, r, `esc("a b&c")`))
	assert.Equal(t, int64(42), eval(t, r, `log(42)`))

	s, is := eval(t, r, `cronNext("0 0 1 1 *")`).(string)
	require.True(t, is)
	next, err := time.Parse(time.RFC3339Nano, s)
	require.NoError(t, err)
	assert.True(t, next.After(time.Now()))

	_, err = r.Eval(context.Background(), `cronNext("nope")`)
	assert.Error(t, err)
	_, err = r.Eval(context.Background(), `sleep(1)`)
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	r, _, _ := newRuntime(t, nil)
	r.Testing = true

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Eval(ctx, `for (;;) { sleep(5); }`)
	assert.Equal(t, Interrupted, err)

	// The runtime is usable afterwards.
	assert.Equal(t, int64(2), eval(t, r, `1 + 1`))
}

func TestCompileError(t *testing.T) {
	r, _, _ := newRuntime(t, nil)
	err := r.Exec(context.Background(), "bad", "/js/bad.js", `function (`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}
