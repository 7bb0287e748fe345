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

// Package loader fetches and runs page scripts.
//
// A Loader requests each script at most once.  A script is named
// without its directory or extension; the Loader turns "menu" into
// "<BaseDir>menu.js", gets the source from a Provider, and hands it to
// an Executor.  Scripts included while another script runs are queued
// and run after it, the way a page handles written script tags.
//
// ParseBootstrap understands the "go.js?l=a,b" script address that
// sets the base directory and the first includes.  ScanIncludes finds
// the includes of a script without running it.
package loader
