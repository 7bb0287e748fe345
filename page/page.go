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
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vasa-c/gojs/cookie"
	"github.com/vasa-c/gojs/core"
	gojs "github.com/vasa-c/gojs/interpreters/goja"
	"github.com/vasa-c/gojs/loader"
)

// Config describes a Page.
type Config struct {
	// BaseDir is where scripts live (the go.js directory).
	BaseDir string

	// Provider fetches scripts.
	Provider loader.Provider

	// Carcas, if not nil, starts the Carcas.  Otherwise a script
	// is expected to call go.Carcas.init.
	Carcas *core.Config

	// LibsDir, if not empty and the Carcas config has no
	// LibsLoader, makes "l:" dependencies load as the scripts
	// LibsDir+name.  Each library is provided after its script
	// runs.
	LibsDir string

	// Cookie is optional.
	Cookie *cookie.Cookie

	Logger *zerolog.Logger

	// HaltOnInputEOF stops Loop when the Couplings' input is
	// done.
	HaltOnInputEOF bool
}

// Page is a Carcas, a Loader, and a Runtime together.
//
// A Page is not safe for concurrent use.  Loop gives it a goroutine.
type Page struct {
	Carcas  *core.Carcas
	Loader  *loader.Loader
	Runtime *gojs.Runtime
	Cookie  *cookie.Cookie

	Logger *zerolog.Logger

	conf *Config

	// libs maps script names to the library they provide.
	libs map[string]string

	// events gathers what happens while processing a message.
	events []*Event
}

// New makes a Page.
func New(ctx context.Context, conf *Config) (*Page, error) {
	if conf == nil {
		conf = &Config{}
	}
	logger := conf.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	p := &Page{
		Cookie: conf.Cookie,
		Logger: logger,
		conf:   conf,
		libs:   make(map[string]string, 8),
	}

	p.Carcas = core.New()
	p.Carcas.Logger = logger
	p.Carcas.Observer = p

	p.Loader = loader.New(conf.BaseDir, conf.Provider, p.exec)
	p.Loader.Logger = logger

	rt, err := gojs.NewRuntime(p.Carcas, p.Loader, conf.Cookie, logger)
	if err != nil {
		return nil, err
	}
	p.Runtime = rt

	if conf.Carcas != nil {
		cc := *conf.Carcas
		if cc.LibsLoader == nil && conf.LibsDir != "" {
			cc.LibsLoader = p.loadLibs
		}
		if err := p.Carcas.Start(ctx, &cc); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Bootstrap takes the go.js address (see loader.ParseBootstrap), sets
// the Loader's base directory, and includes the listed scripts.
func (p *Page) Bootstrap(ctx context.Context, src string) (*Result, error) {
	dir, includes, err := loader.ParseBootstrap(src)
	if err != nil {
		return nil, err
	}
	p.Loader.BaseDir = dir
	return p.Process(ctx, &Message{Include: includes}), nil
}

// exec is the Loader's Executor.
func (p *Page) exec(ctx context.Context, name, src, code string) error {
	if err := p.Runtime.Exec(ctx, name, src, code); err != nil {
		return err
	}
	if lib, have := p.libs[name]; have {
		delete(p.libs, name)
		return p.Carcas.Provide(ctx, core.PrefixLib+":"+lib)
	}
	return nil
}

// loadLibs is a core.LibsLoader that includes library scripts.
func (p *Page) loadLibs(ctx context.Context, c *core.Carcas, names []string) error {
	scripts := make([]string, len(names))
	for i, name := range names {
		script := p.conf.LibsDir + name
		p.libs[script] = name
		scripts[i] = script
	}
	return p.Loader.Include(ctx, scripts...)
}

// Activated implements core.Observer.
func (p *Page) Activated(e *core.Entry) {
	p.events = append(p.events, &Event{
		Event: EventActivated,
		Unit:  e.Name,
		Kind:  e.Kind.String(),
	})
}

// Phase implements core.Observer.
func (p *Page) Phase(c *core.Controller, from, to core.Phase, err error) {
	ev := &Event{
		Event: EventPhase,
		Unit:  c.Name,
		Kind:  core.KindController.String(),
		From:  from.String(),
		To:    to.String(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	p.events = append(p.events, ev)
}

// Process handles one message and returns what happened.
func (p *Page) Process(ctx context.Context, m *Message) *Result {
	p.events = make([]*Event, 0, 8)

	fail := func(err error) {
		if err != nil {
			p.Logger.Warn().Err(err).Str("msg", m.ID).Msg("process")
			p.events = append(p.events, &Event{
				Event: EventError,
				Error: err.Error(),
			})
		}
	}

	p.Logger.Debug().Str("msg", m.ID).Str("signal", m.Signal).Msg("process")

	if 0 < len(m.Include) {
		fail(p.Loader.Include(ctx, m.Include...))
	}

	if m.Provide != "" {
		fail(p.Carcas.Provide(ctx, m.Provide))
	}

	if m.Eval != "" {
		v, err := p.Runtime.Eval(ctx, m.Eval)
		if err != nil {
			fail(err)
		} else {
			p.events = append(p.events, &Event{
				Event: EventValue,
				Value: jsonable(v),
			})
		}
	}

	switch strings.ToLower(m.Signal) {
	case "":
	case "ready":
		fail(p.Carcas.Ready(ctx))
	case "load", "loaded":
		fail(p.Carcas.Loaded(ctx))
	case "destroy":
		if m.Name == "" {
			fail(p.Carcas.DestroyAll(ctx))
		} else {
			fail(p.Carcas.Destroy(ctx, m.Name))
		}
	default:
		fail(fmt.Errorf("unknown signal %q", m.Signal))
	}

	r := &Result{
		ID:     newID(),
		Re:     m.ID,
		Events: p.events,
	}
	p.events = nil
	return r
}

// Reload runs an included script again.  It returns nil if the
// script was never included.
func (p *Page) Reload(ctx context.Context, name string) *Result {
	p.events = make([]*Event, 0, 8)
	did, err := p.Loader.Reload(ctx, name)
	if !did {
		p.events = nil
		return nil
	}
	if err != nil {
		p.Logger.Warn().Err(err).Str("script", name).Msg("reload")
		p.events = append(p.events, &Event{
			Event: EventError,
			Error: err.Error(),
		})
	}
	r := &Result{
		ID:     newID(),
		Events: p.events,
	}
	p.events = nil
	return r
}

func newID() string {
	return uuid.NewString()
}

// jsonable returns x if it can be rendered as JSON and its string
// representation otherwise.
func jsonable(x interface{}) interface{} {
	if _, err := json.Marshal(x); err != nil {
		return fmt.Sprintf("%v", x)
	}
	return x
}
