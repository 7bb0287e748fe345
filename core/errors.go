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

// These errors are user errors, not internal errors.  Errors returned
// by factories and hooks are never wrapped.

import (
	"errors"
	"fmt"
)

var (
	// NotInitialized occurs when a Carcas is used before Start.
	NotInitialized = errors.New("carcas not initialized")

	// AlreadyInitialized occurs when Start is called twice.
	AlreadyInitialized = errors.New("carcas already initialized")
)

// DuplicateDeclaration occurs when a name is declared twice for the
// same kind of unit.
type DuplicateDeclaration struct {
	Kind Kind
	Name string
}

func (e *DuplicateDeclaration) Error() string {
	return e.Kind.String() + ` "` + e.Name + `" already declared`
}

// ErrorDependence occurs when a dependency specification can't be
// normalized.
type ErrorDependence struct {
	Deps   interface{}
	Reason string
}

func (e *ErrorDependence) Error() string {
	return fmt.Sprintf("bad dependencies %#v: %s", e.Deps, e.Reason)
}

// BadName occurs when a declared name is empty or carries a prefix
// that doesn't match the kind of unit being declared.
type BadName struct {
	Kind Kind
	Name string
}

func (e *BadName) Error() string {
	return `bad ` + e.Kind.String() + ` name "` + e.Name + `"`
}

// UnknownExternal occurs when Provide is given a name outside the
// external namespaces.
type UnknownExternal struct {
	Name string
}

func (e *UnknownExternal) Error() string {
	return `"` + e.Name + `" is not an external name`
}

// LifecycleError occurs when a controller is asked to skip a phase.
type LifecycleError struct {
	Controller string
	From       Phase
	To         Phase
}

func (e *LifecycleError) Error() string {
	return `controller "` + e.Controller + `" can't go from ` +
		e.From.String() + ` to ` + e.To.String()
}

// UnknownController occurs when a signal names a controller that
// isn't active.
type UnknownController struct {
	Name string
}

func (e *UnknownController) Error() string {
	return `controller "` + e.Name + `" not active`
}
