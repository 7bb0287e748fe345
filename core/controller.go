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
	"fmt"
	"io"
)

// Phase is a controller's position in its lifecycle.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseCreated
	PhaseInitialized
	PhaseLoaded
	PhaseDestroyed
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseCreated:
		return "created"
	case PhaseInitialized:
		return "initialized"
	case PhaseLoaded:
		return "loaded"
	case PhaseDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Lifecycle is the capability set of a controller.
//
// OnCreate runs during activation, Init after the page is ready,
// OnLoad after all resources are loaded, and Done before the
// controller is destroyed.
type Lifecycle interface {
	OnCreate(ctx context.Context, c *Controller) error
	Init(ctx context.Context, c *Controller) error
	OnLoad(ctx context.Context, c *Controller) error
	Done(ctx context.Context, c *Controller) error
}

// Nop is a Lifecycle with no-op hooks.  Embed it and override only
// the hooks you need.
type Nop struct{}

func (Nop) OnCreate(ctx context.Context, c *Controller) error { return nil }
func (Nop) Init(ctx context.Context, c *Controller) error     { return nil }
func (Nop) OnLoad(ctx context.Context, c *Controller) error   { return nil }
func (Nop) Done(ctx context.Context, c *Controller) error     { return nil }

// HookFunc is the signature of a single lifecycle hook.
type HookFunc func(ctx context.Context, c *Controller) error

// Hooks is a Lifecycle made of plain functions.  A nil function is a
// no-op.
type Hooks struct {
	OnCreateFunc HookFunc
	InitFunc     HookFunc
	OnLoadFunc   HookFunc
	DoneFunc     HookFunc
}

func (f HookFunc) call(ctx context.Context, c *Controller) error {
	if f == nil {
		return nil
	}
	return f(ctx, c)
}

func (h *Hooks) OnCreate(ctx context.Context, c *Controller) error {
	return h.OnCreateFunc.call(ctx, c)
}

func (h *Hooks) Init(ctx context.Context, c *Controller) error {
	return h.InitFunc.call(ctx, c)
}

func (h *Hooks) OnLoad(ctx context.Context, c *Controller) error {
	return h.OnLoadFunc.call(ctx, c)
}

func (h *Hooks) Done(ctx context.Context, c *Controller) error {
	return h.DoneFunc.call(ctx, c)
}

// Controller is an activated controller: a back-reference to its
// Carcas, its name, its lifecycle, and its current Phase.
type Controller struct {
	Name      string
	Carcas    *Carcas
	Lifecycle Lifecycle

	phase Phase
}

// Phase returns the controller's current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Registry returns the shared Registry.
func (c *Controller) Registry() Registry {
	return c.Carcas.registry
}

// advance moves the controller to the next phase and runs that
// phase's hook.
//
// Moving to the current phase (or an earlier one) does nothing, so
// every hook runs at most once.  The phase changes before the hook
// runs, and a failing hook doesn't undo it.
func (c *Controller) advance(ctx context.Context, to Phase) error {
	if to <= c.phase {
		return nil
	}
	if to != c.phase+1 {
		return &LifecycleError{
			Controller: c.Name,
			From:       c.phase,
			To:         to,
		}
	}

	var hook HookFunc
	switch to {
	case PhaseCreated:
		hook = c.Lifecycle.OnCreate
	case PhaseInitialized:
		hook = c.Lifecycle.Init
	case PhaseLoaded:
		hook = c.Lifecycle.OnLoad
	case PhaseDestroyed:
		hook = c.Lifecycle.Done
	}

	from := c.phase
	c.phase = to
	err := hook(ctx, c)

	if to == PhaseDestroyed {
		if closer, is := c.Lifecycle.(io.Closer); is {
			if cerr := closer.Close(); err == nil {
				err = cerr
			}
		}
	}

	c.Carcas.logger().Debug().
		Str("controller", c.Name).
		Stringer("from", from).
		Stringer("to", to).
		Err(err).
		Msg("phase")

	if obs := c.Carcas.Observer; obs != nil {
		obs.Phase(c, from, to, err)
	}

	return err
}
