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

package page

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vasa-c/gojs/core"
	"github.com/vasa-c/gojs/loader"
	"github.com/vasa-c/gojs/util/testutil"
)

var scripts = map[string]string{
	"/js/menu.js": `
var trace = [];
go.Carcas.controller("menu", "mo:dom", {
	init: function () { trace.push("init"); },
	onload: function () { trace.push("onload"); }
});
`,
	"/js/dom.js":         `go.Carcas.module("dom", {body: true});`,
	"/js/ui.js":          `go.Carcas.module("ui", "l:jquery", function () { return jq; });`,
	"/js/libs/jquery.js": `var jq = "jquery";`,
}

func newPage(t *testing.T, conf *Config) *Page {
	if conf == nil {
		conf = &Config{}
	}
	if conf.BaseDir == "" {
		conf.BaseDir = "/js/"
	}
	if conf.Provider == nil {
		conf.Provider = loader.MapProvider(scripts)
	}
	if conf.Carcas == nil {
		conf.Carcas = &core.Config{}
	}
	if conf.Logger == nil {
		conf.Logger = testutil.Logger(t)
	}
	p, err := New(context.Background(), conf)
	require.NoError(t, err)
	return p
}

func events(r *Result, kind string) []*Event {
	var acc []*Event
	for _, e := range r.Events {
		if e.Event == kind {
			acc = append(acc, e)
		}
	}
	return acc
}

func TestProcess(t *testing.T) {
	ctx := context.Background()
	p := newPage(t, nil)

	r := p.Process(ctx, &Message{ID: "1", Include: []string{"menu", "dom"}})
	assert.Equal(t, "1", r.Re)
	assert.NotEmpty(t, r.ID)
	assert.Empty(t, r.Errors())

	activated := events(r, EventActivated)
	require.Len(t, activated, 2)
	assert.Equal(t, "mo:dom", activated[0].Unit)
	assert.Equal(t, "module", activated[0].Kind)
	assert.Equal(t, "c:menu", activated[1].Unit)

	phases := events(r, EventPhase)
	require.Len(t, phases, 1)
	assert.Equal(t, "none", phases[0].From)
	assert.Equal(t, "created", phases[0].To)

	r = p.Process(ctx, &Message{Signal: "ready"})
	phases = events(r, EventPhase)
	require.Len(t, phases, 1)
	assert.Equal(t, "initialized", phases[0].To)

	r = p.Process(ctx, &Message{Signal: "load", Eval: `trace.join(",")`})
	values := events(r, EventValue)
	require.Len(t, values, 1)
	// Eval runs before the signal.
	assert.Equal(t, "init", values[0].Value)
	assert.Equal(t, "loaded", events(r, EventPhase)[0].To)

	r = p.Process(ctx, &Message{Signal: "destroy", Name: "menu"})
	assert.Empty(t, r.Errors())
	assert.Equal(t, "destroyed", events(r, EventPhase)[0].To)

	r = p.Process(ctx, &Message{Signal: "explode"})
	require.Len(t, r.Errors(), 1)
	assert.Contains(t, r.Errors()[0].Error, "explode")

	r = p.Process(ctx, &Message{Include: []string{"nothing"}, Eval: "1 +"})
	assert.Len(t, r.Errors(), 2)
}

func TestProvide(t *testing.T) {
	ctx := context.Background()
	p := newPage(t, &Config{
		Provider: loader.MapProvider(map[string]string{
			"/js/x.js": `go.Carcas.module("x", "l:ext", function () { return 1; });`,
		}),
	})
	r := p.Process(ctx, &Message{Include: []string{"x"}})
	assert.Empty(t, events(r, EventActivated))

	r = p.Process(ctx, &Message{Provide: "l:ext"})
	activated := events(r, EventActivated)
	require.Len(t, activated, 1)
	assert.Equal(t, "mo:x", activated[0].Unit)
}

func TestLibsDir(t *testing.T) {
	ctx := context.Background()
	p := newPage(t, &Config{LibsDir: "libs/"})

	r := p.Process(ctx, &Message{Include: []string{"ui"}})
	assert.Empty(t, r.Errors())
	assert.Equal(t, []string{"Lang", "ui", "libs/jquery"}, p.Loader.Included())
	assert.True(t, p.Carcas.Provided("l:jquery"))

	v, have := p.Carcas.Mo("ui")
	require.True(t, have)
	assert.Equal(t, "jquery", v.(goja.Value).Export())
}

func TestScriptInit(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, &Config{
		BaseDir: "/js/",
		Provider: loader.MapProvider(map[string]string{
			"/js/app.js": `go.Carcas.init({registry: {lang: "en"}}); go.Carcas.module("app", {});`,
		}),
	})
	require.NoError(t, err)
	assert.False(t, p.Carcas.Inited())

	r := p.Process(ctx, &Message{Include: []string{"app"}})
	assert.Empty(t, r.Errors())
	lang, _ := p.Carcas.Registry().String("lang")
	assert.Equal(t, "en", lang)
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	p := newPage(t, &Config{BaseDir: "/elsewhere/"})

	r, err := p.Bootstrap(ctx, "/js/go.js?l=dom,menu")
	require.NoError(t, err)
	assert.Empty(t, r.Errors())
	assert.Equal(t, "/js/", p.Loader.BaseDir)
	_, have := p.Carcas.Ctrl("menu")
	assert.True(t, have)

	var nb *loader.NotBootstrap
	_, err = p.Bootstrap(ctx, "/js/app.js")
	assert.True(t, errors.As(err, &nb))
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	srcs := map[string]string{"/js/count.js": `var n = (typeof n === "undefined") ? 1 : n + 1;`}
	p := newPage(t, &Config{Provider: loader.MapProvider(srcs)})

	assert.Nil(t, p.Reload(ctx, "count"))
	p.Process(ctx, &Message{Include: []string{"count"}})
	r := p.Reload(ctx, "count")
	require.NotNil(t, r)
	assert.Empty(t, r.Errors())

	x, err := p.Runtime.Eval(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, int64(2), x)
}

func TestDecodeMessage(t *testing.T) {
	m, err := DecodeMessage(map[string]interface{}{
		"id":      "a",
		"signal":  "destroy",
		"name":    "menu",
		"include": []interface{}{"x", "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, &Message{ID: "a", Signal: "destroy", Name: "menu", Include: []string{"x", "y"}}, m)

	m, err = DecodeMessage(`{"eval":"1"}`)
	require.NoError(t, err)
	assert.Equal(t, "1", m.Eval)

	m, err = DecodeMessage(Message{Provide: "l:x"})
	require.NoError(t, err)
	assert.Equal(t, "l:x", m.Provide)

	var bm *BadMessage
	for _, x := range []interface{}{42, "not json", map[string]interface{}{"include": 3}} {
		_, err = DecodeMessage(x)
		assert.True(t, errors.As(err, &bm), "%#v", x)
	}
}

func TestStdioLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newPage(t, &Config{HaltOnInputEOF: true})

	var out bytes.Buffer
	s := NewStdio()
	s.In = strings.NewReader(strings.Join([]string{
		`# comment`,
		``,
		`{"id":"1","eval":"6*7"}`,
		`[1,2]`,
		`{"id":"2","signal":"ready"}`,
	}, "\n"))
	s.Out = &out

	require.NoError(t, s.Start(ctx))
	require.NoError(t, p.Loop(ctx, s, nil))
	cancel()
	require.NoError(t, s.Stop(context.Background()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var r Result
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &r))
	assert.Equal(t, "1", r.Re)
	require.Len(t, r.Events, 1)
	assert.Equal(t, float64(42), r.Events[0].Value)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &r))
	assert.Len(t, r.Errors(), 1)

	require.NoError(t, json.Unmarshal([]byte(lines[2]), &r))
	assert.Equal(t, "2", r.Re)
}

// chans is a Couplings on plain channels.
type chans struct {
	in   chan interface{}
	out  chan *Result
	done chan bool
}

func newChans() *chans {
	return &chans{
		in:   make(chan interface{}),
		out:  make(chan *Result, 8),
		done: make(chan bool),
	}
}

func (c *chans) Start(ctx context.Context) error { return nil }
func (c *chans) Stop(ctx context.Context) error  { return nil }

func (c *chans) IO(ctx context.Context) (chan interface{}, chan *Result, chan bool, error) {
	return c.in, c.out, c.done, nil
}

func TestLoopWatched(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newPage(t, nil)
	p.Process(ctx, &Message{Include: []string{"dom"}})

	c := newChans()
	watched := make(chan string, 2)
	watched <- "unknown"
	watched <- "dom"
	close(watched)

	done := make(chan error)
	go func() {
		done <- p.Loop(ctx, c, watched)
	}()

	// Running dom.js again declares mo:dom twice.
	r := <-c.out
	require.Len(t, r.Errors(), 1)
	assert.Contains(t, r.Errors()[0].Error, "already declared")

	// Input still works after the watched channel closes.
	c.in <- testutil.Dwimjs(`{"id":"x"}`)
	r = <-c.out
	assert.Equal(t, "x", r.Re)

	// Input is done but the loop keeps going.
	close(c.done)
	c.in <- testutil.Dwimjs(`{"id":"y"}`)
	assert.Equal(t, "y", (<-c.out).Re)

	c.in <- nil
	require.NoError(t, <-done)
}

func TestWebSocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newPage(t, nil)
	ws := NewWebSocket()
	require.NoError(t, ws.Start(ctx))

	srv := httptest.NewServer(ws.Handler(ctx))
	defer srv.Close()

	done := make(chan error)
	go func() {
		done <- p.Loop(ctx, ws, nil)
	}()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"w","eval":"'hi'"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var r Result
	require.NoError(t, conn.ReadJSON(&r))
	assert.Equal(t, "w", r.Re)
	require.Len(t, r.Events, 1)
	assert.Equal(t, "hi", r.Events[0].Value)
	assert.Equal(t, 1, ws.Clients())

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, ws.Stop(context.Background()))
	assert.Equal(t, 0, ws.Clients())
}

// message is an mqtt.Message.
type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 0 }
func (m *message) Retained() bool    { return false }
func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return 0 }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              {}

func TestMQTTInHandler(t *testing.T) {
	ctx := context.Background()
	conf := DefaultMQTTConfig()
	conf.InTimeout = 20 * time.Millisecond
	c := NewMQTT(ctx, conf, nil)
	in, _, _, err := c.IO(ctx)
	require.NoError(t, err)

	go c.inHandler(ctx, &message{topic: "gojs/in", payload: []byte(`{"eval":"1"}`)})
	assert.Equal(t, map[string]interface{}{"eval": "1"}, <-in)

	go c.inHandler(ctx, &message{topic: "gojs/in", payload: []byte(`not json`)})
	assert.Equal(t, "not json", <-in)

	// Nobody listening.
	start := time.Now()
	c.inHandler(ctx, &message{topic: "gojs/in", payload: []byte(`{}`)})
	assert.True(t, conf.InTimeout <= time.Since(start))
}

func TestParseTopic(t *testing.T) {
	tests := []struct {
		in    string
		topic string
		qos   byte
	}{
		{"gojs/in", "gojs/in", 0},
		{"gojs/in:1", "gojs/in", 1},
		{" gojs/in:2 ", "gojs/in", 2},
		{"gojs/in:7", "gojs/in:7", 0},
		{"a:b", "a:b", 0},
		{"", "", 0},
	}
	for _, test := range tests {
		topic, qos := parseTopic(test.in)
		assert.Equal(t, test.topic, topic, test.in)
		assert.Equal(t, test.qos, qos, test.in)
	}
}
