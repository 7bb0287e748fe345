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

package core

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// LibsLoader is asked to fetch external libraries ("l:" names) that
// pending units depend on.  Each name is requested at most once.  The
// loader (or whoever finishes the loading) calls Provide for each
// library that becomes available.
type LibsLoader func(ctx context.Context, c *Carcas, names []string) error

// Config is given to Start.
type Config struct {
	// BaseDir is the base directory of controllers and modules.
	BaseDir string `json:"baseDir,omitempty" yaml:"baseDir,omitempty"`

	// Registry is the shared, free-form configuration.
	Registry map[string]interface{} `json:"registry,omitempty" yaml:"registry,omitempty"`

	// Go lists core facilities ("go:" names) that are already
	// available.
	Go []string `json:"go,omitempty" yaml:"go,omitempty"`

	// Libs lists external libraries ("l:" names) that are already
	// available.
	Libs []string `json:"libs,omitempty" yaml:"libs,omitempty"`

	LibsLoader LibsLoader `json:"-" yaml:"-"`
}

// Observer hears about activations and phase changes.
type Observer interface {
	Activated(e *Entry)
	Phase(c *Controller, from, to Phase, err error)
}

// Carcas is the dependency-gated registry.
//
// Use New to make one and Start to initialize it.
type Carcas struct {
	// Logger gets debug output.  The zero value discards it.
	Logger *zerolog.Logger

	// Observer is optional.
	Observer Observer

	inited     bool
	baseDir    string
	registry   Registry
	libsLoader LibsLoader

	entries   map[string]*Entry
	order     []*Entry
	waiting   map[string][]*Entry
	provided  map[string]bool
	requested map[string]bool
	seq       int

	// libsErr holds the first activation error from a Provide made
	// while the LibsLoader runs.
	libsDepth int
	libsErr   error

	ready  bool
	loaded bool
}

// New makes a Carcas that isn't yet started.
func New() *Carcas {
	return &Carcas{}
}

var nopLogger = zerolog.Nop()

func (c *Carcas) logger() *zerolog.Logger {
	if c.Logger == nil {
		return &nopLogger
	}
	return c.Logger
}

// Start initializes the Carcas.  Start can only be called once.
//
// The declaration tables are cleared.  A nil Registry in the Config
// results in an empty Registry.
func (c *Carcas) Start(ctx context.Context, cfg *Config) error {
	if c.inited {
		return AlreadyInitialized
	}
	if cfg == nil {
		cfg = &Config{}
	}

	provided := make(map[string]bool, len(cfg.Go)+len(cfg.Libs))
	for _, xs := range []struct {
		prefix string
		names  []string
	}{
		{PrefixGo, cfg.Go},
		{PrefixLib, cfg.Libs},
	} {
		for _, name := range xs.names {
			q, err := qualifyExternal(name, xs.prefix)
			if err != nil {
				return err
			}
			provided[q] = true
		}
	}

	c.inited = true
	c.baseDir = cfg.BaseDir
	if cfg.Registry == nil {
		c.registry = NewRegistry()
	} else {
		c.registry = Registry(cfg.Registry)
	}
	c.libsLoader = cfg.LibsLoader
	c.entries = make(map[string]*Entry, 32)
	c.order = make([]*Entry, 0, 32)
	c.waiting = make(map[string][]*Entry, 32)
	c.provided = provided
	c.requested = make(map[string]bool, 8)
	c.seq = 0

	c.logger().Debug().
		Str("baseDir", c.baseDir).
		Int("provided", len(provided)).
		Msg("started")

	return nil
}

func qualifyExternal(name, prefix string) (string, error) {
	name = strings.TrimSpace(name)
	if !strings.Contains(name, ":") {
		name = prefix + ":" + name
	}
	p, bare := SplitName(name)
	if p != prefix || bare == "" {
		return "", &UnknownExternal{Name: name}
	}
	return name, nil
}

// Inited reports whether Start has been called.
func (c *Carcas) Inited() bool {
	return c.inited
}

// BaseDir returns the base directory given to Start.
func (c *Carcas) BaseDir() string {
	return c.baseDir
}

// Registry returns the shared Registry.
func (c *Carcas) Registry() Registry {
	return c.registry
}

// Module declares a module.
//
// The deps can be any specification accepted by NormalizeDeps; nil
// means no dependencies.  The returned bool reports whether the
// factory ran during this call.
//
// If the module activates and a dependent unit's factory fails
// during the resulting cascade, the returned bool is true and the
// dependent's error is returned unchanged.
func (c *Carcas) Module(ctx context.Context, name string, deps interface{}, f Factory) (bool, error) {
	if f == nil {
		f = func(ctx context.Context, c *Carcas) (interface{}, error) {
			return nil, nil
		}
	}
	return c.declare(ctx, KindModule, name, deps, f, nil)
}

// Controller declares a controller.
//
// Activation builds a Controller with the given Lifecycle (Nop if
// nil) and runs its OnCreate hook.  See Module for the meaning of the
// results.
func (c *Carcas) Controller(ctx context.Context, name string, deps interface{}, l Lifecycle) (bool, error) {
	if l == nil {
		l = Nop{}
	}
	return c.declare(ctx, KindController, name, deps, nil, l)
}

func (c *Carcas) declare(ctx context.Context, kind Kind, name string, deps interface{}, f Factory, l Lifecycle) (bool, error) {
	if !c.inited {
		return false, NotInitialized
	}

	qname, err := qualifyName(name, kind)
	if err != nil {
		return false, err
	}

	if _, have := c.entries[qname]; have {
		return false, &DuplicateDeclaration{
			Kind: kind,
			Name: qname,
		}
	}

	ds, err := NormalizeDeps(deps, kind)
	if err != nil {
		return false, err
	}

	c.seq++
	e := &Entry{
		Name:      qname,
		Kind:      kind,
		Deps:      ds,
		Status:    StatusPending,
		Seq:       c.seq,
		factory:   f,
		lifecycle: l,
		missing:   make(map[string]bool, len(ds)),
	}
	c.entries[qname] = e
	c.order = append(c.order, e)

	for _, d := range ds {
		if c.satisfied(d) {
			continue
		}
		e.missing[d] = true
		c.waiting[d] = append(c.waiting[d], e)
	}

	log := c.logger().Debug().
		Str("unit", qname).
		Strs("deps", ds)

	if len(e.missing) == 0 {
		log.Msg("declared")
		if err := c.activate(ctx, e); err != nil {
			return e.Active(), err
		}
		return true, nil
	}

	log.Strs("missing", e.Missing()).Msg("declared pending")

	saved := c.libsErr
	c.libsErr = nil
	c.libsDepth++
	err = c.requestLibs(ctx, e)
	c.libsDepth--
	failed := c.libsErr
	c.libsErr = saved

	if err != nil && err != failed {
		c.logger().Warn().Err(err).Str("unit", qname).Msg("libs loader")
	}
	if failed != nil {
		return e.Active(), failed
	}

	return e.Active(), nil
}

func (c *Carcas) satisfied(name string) bool {
	if c.provided[name] {
		return true
	}
	e, have := c.entries[name]
	return have && e.Active()
}

// requestLibs asks the LibsLoader for the entry's missing libraries
// that haven't been requested already.
func (c *Carcas) requestLibs(ctx context.Context, e *Entry) error {
	if c.libsLoader == nil {
		return nil
	}
	var names []string
	for _, d := range e.Missing() {
		if !strings.HasPrefix(d, PrefixLib+":") || c.requested[d] {
			continue
		}
		c.requested[d] = true
		_, bare := SplitName(d)
		names = append(names, bare)
	}
	if len(names) == 0 {
		return nil
	}
	return c.libsLoader(ctx, c, names)
}

// activate builds the entry and then activates every waiting entry
// that this activation satisfies.
func (c *Carcas) activate(ctx context.Context, e *Entry) error {
	var first error

	switch e.Kind {
	case KindModule:
		v, err := e.factory(ctx, c)
		if err != nil {
			e.Err = err
			c.logger().Debug().Str("unit", e.Name).Err(err).Msg("factory failed")
			return err
		}
		e.Value = v
		e.Err = nil
		e.Status = StatusActive

	case KindController:
		ctl := &Controller{
			Name:      e.Name,
			Carcas:    c,
			Lifecycle: e.lifecycle,
		}
		if err := ctl.advance(ctx, PhaseCreated); err != nil {
			e.Err = err
			return err
		}
		e.Controller = ctl
		e.Err = nil
		e.Status = StatusActive

		// Catch up with signals that have already fired.
		if c.ready {
			if err := ctl.advance(ctx, PhaseInitialized); err != nil && first == nil {
				first = err
			}
		}
		if c.loaded {
			if err := ctl.advance(ctx, PhaseLoaded); err != nil && first == nil {
				first = err
			}
		}
	}

	c.logger().Debug().Str("unit", e.Name).Msg("activated")

	if c.Observer != nil {
		c.Observer.Activated(e)
	}

	if err := c.satisfy(ctx, e.Name); err != nil && first == nil {
		first = err
	}

	return first
}

// satisfy updates the entries waiting on the given name and activates
// those that have nothing left to wait for, in declaration order.
//
// The first error is returned after all of those activations are
// attempted.
func (c *Carcas) satisfy(ctx context.Context, name string) error {
	waiters := c.waiting[name]
	delete(c.waiting, name)

	ready := make([]*Entry, 0, len(waiters))
	for _, w := range waiters {
		delete(w.missing, name)
		if len(w.missing) == 0 && !w.Active() {
			ready = append(ready, w)
		}
	}

	sort.Slice(ready, func(i, j int) bool {
		return ready[i].Seq < ready[j].Seq
	})

	var first error
	for _, w := range ready {
		if err := c.activate(ctx, w); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Provide marks an external name ("go:" or "l:") as available and
// activates whatever was waiting only on it.
func (c *Carcas) Provide(ctx context.Context, name string) error {
	if !c.inited {
		return NotInitialized
	}
	name = strings.TrimSpace(name)
	if !IsExternal(name) {
		return &UnknownExternal{Name: name}
	}
	if _, bare := SplitName(name); bare == "" {
		return &UnknownExternal{Name: name}
	}
	if c.provided[name] {
		return nil
	}
	c.provided[name] = true
	c.logger().Debug().Str("external", name).Msg("provided")
	err := c.satisfy(ctx, name)
	if err != nil && c.libsDepth > 0 && c.libsErr == nil {
		c.libsErr = err
	}
	return err
}

// Provided reports whether the external name has been provided.
func (c *Carcas) Provided(name string) bool {
	return c.provided[name]
}

// Entry returns the entry with the given qualified name.
func (c *Carcas) Entry(name string) (*Entry, bool) {
	e, have := c.entries[name]
	return e, have
}

// Entries returns all entries in declaration order.
func (c *Carcas) Entries() []*Entry {
	acc := make([]*Entry, len(c.order))
	copy(acc, c.order)
	return acc
}

// Pending returns the pending entries in declaration order.
func (c *Carcas) Pending() []*Entry {
	acc := make([]*Entry, 0, 8)
	for _, e := range c.order {
		if !e.Active() {
			acc = append(acc, e)
		}
	}
	return acc
}

// Mo returns the value of an active module.  The name can be bare or
// qualified.
func (c *Carcas) Mo(name string) (interface{}, bool) {
	q, err := qualifyName(name, KindModule)
	if err != nil {
		return nil, false
	}
	e, have := c.entries[q]
	if !have || !e.Active() {
		return nil, false
	}
	return e.Value, true
}

// Ctrl returns an active controller.  The name can be bare or
// qualified.
func (c *Carcas) Ctrl(name string) (*Controller, bool) {
	q, err := qualifyName(name, KindController)
	if err != nil {
		return nil, false
	}
	e, have := c.entries[q]
	if !have || !e.Active() {
		return nil, false
	}
	return e.Controller, true
}

// controllers returns the active controllers in declaration order.
func (c *Carcas) controllers() []*Controller {
	acc := make([]*Controller, 0, len(c.order))
	for _, e := range c.order {
		if e.Kind == KindController && e.Active() {
			acc = append(acc, e.Controller)
		}
	}
	return acc
}
