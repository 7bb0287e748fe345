/* Copyright 2018 Comcast Cable Communications Management, LLC
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

// Package tools renders and checks the state of a Carcas.
package tools

import (
	"os"
	"sort"

	"github.com/jsccast/yaml"

	"github.com/vasa-c/gojs/core"
)

// Unit is a declared module or controller.
type Unit struct {
	Name    string   `json:"name" yaml:"name"`
	Kind    string   `json:"kind" yaml:"kind"`
	Seq     int      `json:"seq" yaml:"seq"`
	Deps    []string `json:"deps,omitempty" yaml:"deps,omitempty"`
	Status  string   `json:"status" yaml:"status"`
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`

	// Phase is only for controllers.
	Phase string `json:"phase,omitempty" yaml:"phase,omitempty"`

	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Snapshot is what a Carcas looks like at some point.
type Snapshot struct {
	Title    string   `json:"title,omitempty" yaml:"title,omitempty"`
	Units    []*Unit  `json:"units" yaml:"units"`
	Provided []string `json:"provided,omitempty" yaml:"provided,omitempty"`
	Ready    bool     `json:"ready,omitempty" yaml:"ready,omitempty"`
	Loaded   bool     `json:"loaded,omitempty" yaml:"loaded,omitempty"`
}

// Take makes a Snapshot of the Carcas.
//
// Provided only lists externals that some unit depends on.
func Take(c *core.Carcas, title string) *Snapshot {
	s := &Snapshot{
		Title:  title,
		Ready:  c.IsReady(),
		Loaded: c.IsLoaded(),
	}
	provided := make(map[string]bool)
	for _, e := range c.Entries() {
		u := &Unit{
			Name:    e.Name,
			Kind:    e.Kind.String(),
			Seq:     e.Seq,
			Status:  e.Status.String(),
			Missing: e.Missing(),
		}
		if 0 < len(e.Deps) {
			u.Deps = append([]string(nil), e.Deps...)
		}
		if len(u.Missing) == 0 {
			u.Missing = nil
		}
		if e.Controller != nil {
			u.Phase = e.Controller.Phase().String()
		}
		if e.Err != nil {
			u.Error = e.Err.Error()
		}
		for _, d := range e.Deps {
			if core.IsExternal(d) && c.Provided(d) {
				provided[d] = true
			}
		}
		s.Units = append(s.Units, u)
	}
	s.Provided = keys(provided)
	return s
}

// ReadSnapshot reads a Snapshot in YAML (or JSON).
func ReadSnapshot(filename string) (*Snapshot, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err = yaml.Unmarshal(bs, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Unit returns the named unit.
func (s *Snapshot) Unit(name string) (*Unit, bool) {
	for _, u := range s.Units {
		if u.Name == name {
			return u, true
		}
	}
	return nil, false
}

// IsProvided reports whether the external name was provided.
func (s *Snapshot) IsProvided(name string) bool {
	for _, p := range s.Provided {
		if p == name {
			return true
		}
	}
	return false
}

// keys returns the sorted keys of the map.
func keys(m map[string]bool) []string {
	var list []string
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}
