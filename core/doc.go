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

// Package core provides Carcas, a small dependency-gated registry of
// page units.
//
// A unit is either a module or a controller.  Each unit is declared
// with a name, a list of dependencies, and something that builds it:
// a Factory for a module and a Lifecycle for a controller.  A unit is
// activated (built) exactly once, as soon as every one of its
// dependencies is active, regardless of the order of declarations.
//
// Names are namespaced with a short prefix:
//
//    c:   controllers
//    mo:  modules
//    go:  core library facilities (external)
//    l:   externally loaded libraries (external)
//
// External names are never declared.  Instead, the host application
// Provides them when they become available.
//
// Controllers additionally have a four-phase lifecycle (created,
// initialized, loaded, destroyed) driven by the page signals Ready,
// Loaded, and Destroy.
//
// A Carcas is not safe for concurrent use.  All declarations and
// signals are expected to come from a single goroutine, which is how
// the page package drives it.
package core
