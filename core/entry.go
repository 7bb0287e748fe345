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
)

// Status is the activation status of an Entry.
type Status int

const (
	StatusPending Status = iota
	StatusActive
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Factory builds a module.  The returned value is the module.
type Factory func(ctx context.Context, c *Carcas) (interface{}, error)

// Entry is a declared unit.
type Entry struct {
	// Name is the qualified name ("mo:foo" or "c:bar").
	Name string `json:"name"`

	Kind Kind `json:"kind"`

	// Deps are the normalized dependencies in declaration order.
	Deps []string `json:"deps"`

	Status Status `json:"status"`

	// Seq is the declaration order.
	Seq int `json:"seq"`

	// Value is the module built by the factory.
	Value interface{} `json:"-"`

	// Controller is the activated controller.
	Controller *Controller `json:"-"`

	// Err is the error returned by the last failed activation.  An
	// entry with an Err stays pending.
	Err error `json:"-"`

	factory   Factory
	lifecycle Lifecycle
	missing   map[string]bool
}

// Missing returns the dependencies that are not yet satisfied, in
// declaration order.
func (e *Entry) Missing() []string {
	acc := make([]string, 0, len(e.missing))
	for _, d := range e.Deps {
		if e.missing[d] {
			acc = append(acc, d)
		}
	}
	return acc
}

// Active reports whether the entry has been activated.
func (e *Entry) Active() bool {
	return e.Status == StatusActive
}
