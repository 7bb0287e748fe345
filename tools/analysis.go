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

package tools

import (
	"strings"

	"github.com/vasa-c/gojs/core"
)

// Analysis is what Analyze found.
type Analysis struct {
	Units       int `json:"units"`
	Modules     int `json:"modules"`
	Controllers int `json:"controllers"`
	Active      int `json:"active"`
	Pending     int `json:"pending"`

	// Failed units had an activation error.
	Failed []string `json:"failed,omitempty"`

	// Undeclared are module and controller dependencies that
	// nothing declares (yet).
	Undeclared []string `json:"undeclared,omitempty"`

	// Unprovided are externals that are depended on but haven't
	// been provided.
	Unprovided []string `json:"unprovided,omitempty"`

	// Cycles are dependency loops, each starting at its smallest
	// name.
	Cycles [][]string `json:"cycles,omitempty"`

	// Stuck units can't activate without a new declaration: they
	// wait on something undeclared or on a cycle.
	Stuck []string `json:"stuck,omitempty"`
}

// OK reports whether nothing is wrong or waiting.
func (a *Analysis) OK() bool {
	return a.Pending == 0 && len(a.Failed) == 0
}

// Analyze examines a Snapshot.
func Analyze(s *Snapshot) *Analysis {
	a := &Analysis{
		Units: len(s.Units),
	}

	declared := make(map[string]*Unit, len(s.Units))
	for _, u := range s.Units {
		declared[u.Name] = u
	}

	undeclared, unprovided := make(map[string]bool), make(map[string]bool)

	for _, u := range s.Units {
		switch u.Kind {
		case core.KindModule.String():
			a.Modules++
		case core.KindController.String():
			a.Controllers++
		}
		if u.Status == core.StatusActive.String() {
			a.Active++
		} else {
			a.Pending++
		}
		if u.Error != "" {
			a.Failed = append(a.Failed, u.Name)
		}
		for _, d := range u.Deps {
			if core.IsExternal(d) {
				if !s.IsProvided(d) && u.Status != core.StatusActive.String() {
					unprovided[d] = true
				}
				continue
			}
			if _, have := declared[d]; !have {
				undeclared[d] = true
			}
		}
	}

	a.Undeclared = keys(undeclared)
	a.Unprovided = keys(unprovided)
	a.Cycles = cycles(s, declared)

	// Doomed names can't ever be satisfied.
	doomed := make(map[string]bool)
	for name := range undeclared {
		doomed[name] = true
	}
	for _, c := range a.Cycles {
		for _, name := range c {
			doomed[name] = true
		}
	}
	for changed := true; changed; {
		changed = false
		for _, u := range s.Units {
			if doomed[u.Name] || u.Status == core.StatusActive.String() {
				continue
			}
			for _, d := range u.Deps {
				if doomed[d] {
					doomed[u.Name] = true
					changed = true
					break
				}
			}
		}
	}
	for _, u := range s.Units {
		if doomed[u.Name] && u.Status != core.StatusActive.String() {
			a.Stuck = append(a.Stuck, u.Name)
		}
	}

	return a
}

// cycles finds dependency loops among declared units.
func cycles(s *Snapshot, declared map[string]*Unit) [][]string {
	const (
		white = iota
		grey
		black
	)
	var (
		color = make(map[string]int, len(declared))
		path  = make([]string, 0, 8)
		seen  = make(map[string]bool)
		acc   [][]string
		visit func(name string)
	)

	visit = func(name string) {
		color[name] = grey
		path = append(path, name)
		for _, d := range declared[name].Deps {
			if _, have := declared[d]; !have {
				continue
			}
			switch color[d] {
			case white:
				visit(d)
			case grey:
				for i := len(path) - 1; 0 <= i; i-- {
					if path[i] == d {
						c := rotate(path[i:])
						if k := strings.Join(c, " "); !seen[k] {
							seen[k] = true
							acc = append(acc, c)
						}
						break
					}
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
	}

	for _, u := range s.Units {
		if color[u.Name] == white {
			visit(u.Name)
		}
	}
	return acc
}

// rotate returns a copy of the loop that starts at its smallest name.
func rotate(loop []string) []string {
	min := 0
	for i, name := range loop {
		if name < loop[min] {
			min = i
		}
	}
	acc := make([]string, 0, len(loop))
	acc = append(acc, loop[min:]...)
	return append(acc, loop[:min]...)
}
