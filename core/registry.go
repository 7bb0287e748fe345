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

// Registry is the free-form configuration given to Start and shared
// by every module and controller.
//
// The Registry is independent of the dependency graph.
type Registry map[string]interface{}

func NewRegistry() Registry {
	return make(Registry, 8)
}

// Get returns the value at the given key.
func (r Registry) Get(k string) (interface{}, bool) {
	v, have := r[k]
	return v, have
}

// String returns the value at the given key if that value is a
// string.
func (r Registry) String(k string) (string, bool) {
	s, is := r[k].(string)
	return s, is
}

// Set adds the property; modifies and returns the Registry.
func (r Registry) Set(k string, v interface{}) Registry {
	r[k] = v
	return r
}

// Remove removes the given keys.
//
// The Registry is modified.
func (r Registry) Remove(ks ...string) Registry {
	for _, k := range ks {
		delete(r, k)
	}
	return r
}

// Copy makes a shallow copy of the Registry.
func (r Registry) Copy() Registry {
	acc := make(Registry, len(r))
	for k, v := range r {
		acc[k] = v
	}
	return acc
}
