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
	"fmt"
	"strings"
)

// Namespace prefixes.
const (
	PrefixController = "c"
	PrefixModule     = "mo"
	PrefixGo         = "go"
	PrefixLib        = "l"
)

// Kind is the kind of a declared unit.
type Kind int

const (
	KindModule Kind = iota
	KindController
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindController:
		return "controller"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Prefix returns the namespace prefix for the kind.
func (k Kind) Prefix() string {
	if k == KindController {
		return PrefixController
	}
	return PrefixModule
}

// Deps is the structured form of a dependency specification.
type Deps struct {
	Controllers []string `json:"controllers,omitempty" yaml:"controllers,omitempty"`
	Modules     []string `json:"modules,omitempty" yaml:"modules,omitempty"`
	Go          []string `json:"go,omitempty" yaml:"go,omitempty"`
	Libs        []string `json:"libs,omitempty" yaml:"libs,omitempty"`
}

// nodes pairs structured keys with their prefixes.  The order here is
// the order of normalized output.
var nodes = []struct {
	prefix string
	key    string
}{
	{PrefixController, "controllers"},
	{PrefixModule, "modules"},
	{PrefixGo, "go"},
	{PrefixLib, "libs"},
}

// IsExternal reports whether the qualified name is in an external
// namespace.
func IsExternal(name string) bool {
	return strings.HasPrefix(name, PrefixGo+":") || strings.HasPrefix(name, PrefixLib+":")
}

// SplitName splits a qualified name into its prefix and bare name.
// The prefix is empty for a bare name.
func SplitName(name string) (prefix, bare string) {
	i := strings.Index(name, ":")
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

func knownPrefix(p string) bool {
	switch p {
	case PrefixController, PrefixModule, PrefixGo, PrefixLib:
		return true
	}
	return false
}

// NormalizeDeps converts a dependency specification into an ordered
// list of qualified "prefix:name" strings.
//
// A specification can be nil, a comma-delimited string, a list of
// bare or qualified names, a Deps, or a map keyed by "controllers",
// "modules", "go", and "libs" (as decoded from JSON, YAML, or a
// script).  Bare names in a string or list get the prefix of the
// given kind.  Duplicates are dropped.
func NormalizeDeps(deps interface{}, kind Kind) ([]string, error) {
	switch vv := deps.(type) {
	case nil:
		return []string{}, nil
	case string:
		if strings.TrimSpace(vv) == "" {
			return []string{}, nil
		}
		return qualify(strings.Split(vv, ","), kind, deps)
	case []string:
		return qualify(vv, kind, deps)
	case []interface{}:
		names, err := asStrings(vv, deps)
		if err != nil {
			return nil, err
		}
		return qualify(names, kind, deps)
	case Deps:
		return vv.normalize(deps)
	case *Deps:
		if vv == nil {
			return []string{}, nil
		}
		return vv.normalize(deps)
	case map[string]interface{}:
		return depsFromMap(vv, deps)
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			s, is := k.(string)
			if !is {
				return nil, &ErrorDependence{Deps: deps, Reason: fmt.Sprintf("key %#v isn't a string", k)}
			}
			m[s] = v
		}
		return depsFromMap(m, deps)
	default:
		return nil, &ErrorDependence{Deps: deps, Reason: fmt.Sprintf("unsupported type %T", deps)}
	}
}

func asStrings(xs []interface{}, deps interface{}) ([]string, error) {
	acc := make([]string, 0, len(xs))
	for _, x := range xs {
		s, is := x.(string)
		if !is {
			return nil, &ErrorDependence{Deps: deps, Reason: fmt.Sprintf("%#v (%T) isn't a string", x, x)}
		}
		acc = append(acc, s)
	}
	return acc, nil
}

func qualify(names []string, kind Kind, deps interface{}) ([]string, error) {
	acc := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, &ErrorDependence{Deps: deps, Reason: "empty name"}
		}
		prefix, bare := SplitName(name)
		switch {
		case prefix == "" && !strings.Contains(name, ":"):
			name = kind.Prefix() + ":" + name
		case !knownPrefix(prefix):
			return nil, &ErrorDependence{Deps: deps, Reason: `unknown prefix in "` + name + `"`}
		case strings.TrimSpace(bare) == "":
			return nil, &ErrorDependence{Deps: deps, Reason: `empty name in "` + name + `"`}
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		acc = append(acc, name)
	}
	return acc, nil
}

func depsFromMap(m map[string]interface{}, deps interface{}) ([]string, error) {
	var ds Deps
	for k, v := range m {
		var names []string
		switch vv := v.(type) {
		case nil:
		case []string:
			names = vv
		case []interface{}:
			var err error
			if names, err = asStrings(vv, deps); err != nil {
				return nil, err
			}
		default:
			return nil, &ErrorDependence{Deps: deps, Reason: fmt.Sprintf("%q isn't a list (%T)", k, v)}
		}
		switch k {
		case "controllers":
			ds.Controllers = names
		case "modules":
			ds.Modules = names
		case "go":
			ds.Go = names
		case "libs":
			ds.Libs = names
		default:
			return nil, &ErrorDependence{Deps: deps, Reason: fmt.Sprintf("unknown key %q", k)}
		}
	}
	return ds.normalize(deps)
}

func (d *Deps) list(key string) []string {
	switch key {
	case "controllers":
		return d.Controllers
	case "modules":
		return d.Modules
	case "go":
		return d.Go
	case "libs":
		return d.Libs
	}
	return nil
}

func (d *Deps) normalize(deps interface{}) ([]string, error) {
	acc := make([]string, 0, 8)
	seen := make(map[string]bool, 8)
	for _, n := range nodes {
		for _, name := range d.list(n.key) {
			name = strings.TrimSpace(name)
			if name == "" || strings.Contains(name, ":") {
				return nil, &ErrorDependence{Deps: deps, Reason: `bad name "` + name + `" in ` + n.key}
			}
			q := n.prefix + ":" + name
			if seen[q] {
				continue
			}
			seen[q] = true
			acc = append(acc, q)
		}
	}
	return acc, nil
}

// qualifyName checks a declared name and returns its qualified form.
func qualifyName(name string, kind Kind) (string, error) {
	name = strings.TrimSpace(name)
	prefix, bare := SplitName(name)
	if !strings.Contains(name, ":") {
		prefix = kind.Prefix()
	}
	if bare == "" || prefix != kind.Prefix() || strings.Contains(bare, ":") {
		return "", &BadName{Kind: kind, Name: name}
	}
	return prefix + ":" + bare, nil
}
