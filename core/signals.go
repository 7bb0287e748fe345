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

import "context"

// Ready is the page-ready signal.  Every created controller is
// initialized, in declaration order.  Controllers activated later are
// initialized right after their OnCreate.
//
// Repeated signals do nothing.  The first hook error is returned
// after every controller has been visited.
func (c *Carcas) Ready(ctx context.Context) error {
	if !c.inited {
		return NotInitialized
	}
	if c.ready {
		return nil
	}
	c.ready = true
	c.logger().Debug().Msg("ready")

	var first error
	for _, ctl := range c.controllers() {
		if err := ctl.advance(ctx, PhaseInitialized); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Loaded is the all-resources-loaded signal.  It implies Ready.
func (c *Carcas) Loaded(ctx context.Context) error {
	if !c.inited {
		return NotInitialized
	}
	if c.loaded {
		return nil
	}

	first := c.Ready(ctx)

	c.loaded = true
	c.logger().Debug().Msg("loaded")

	for _, ctl := range c.controllers() {
		if err := ctl.advance(ctx, PhaseLoaded); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// IsReady reports whether Ready has fired.
func (c *Carcas) IsReady() bool {
	return c.ready
}

// IsLoaded reports whether Loaded has fired.
func (c *Carcas) IsLoaded() bool {
	return c.loaded
}

// Destroy tears down a loaded controller: its Done hook runs and then,
// if its Lifecycle is an io.Closer, Close.
//
// Destroying a controller that isn't loaded yet is a LifecycleError.
// Destroying a destroyed controller does nothing.
func (c *Carcas) Destroy(ctx context.Context, name string) error {
	if !c.inited {
		return NotInitialized
	}
	ctl, have := c.Ctrl(name)
	if !have {
		return &UnknownController{Name: name}
	}
	return ctl.advance(ctx, PhaseDestroyed)
}

// DestroyAll destroys every loaded controller in reverse declaration
// order.  Controllers that haven't reached the loaded phase are left
// alone.
func (c *Carcas) DestroyAll(ctx context.Context) error {
	if !c.inited {
		return NotInitialized
	}
	var (
		first error
		ctls  = c.controllers()
	)
	for i := len(ctls) - 1; 0 <= i; i-- {
		ctl := ctls[i]
		if ctl.Phase() != PhaseLoaded {
			continue
		}
		if err := ctl.advance(ctx, PhaseDestroyed); err != nil && first == nil {
			first = err
		}
	}
	return first
}
