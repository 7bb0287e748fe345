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

package cookie

import "fmt"

// Params are the per-cookie attributes.  A zero field (nil Expires,
// empty Path or Domain, nil Secure or MaxAge) falls back to the
// Cookie's Options.
type Params struct {
	// Expires is anything ParseExpires understands.
	Expires interface{} `json:"expires,omitempty" yaml:"expires,omitempty"`

	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Secure *bool  `json:"secure,omitempty" yaml:"secure,omitempty"`

	// MaxAge adds a max-age attribute that agrees with Expires.
	MaxAge *bool `json:"max-age,omitempty" yaml:"max-age,omitempty"`
}

// Bool returns a pointer to the given bool.
func Bool(b bool) *bool {
	return &b
}

// Options are the defaults of a Cookie.
type Options struct {
	Expires interface{}
	Path    string
	Domain  string
	Secure  bool
	MaxAge  bool

	// DeleteValue is the value written by Remove.
	DeleteValue string
}

// DefaultOptions returns the standard defaults: session cookies with
// no path, domain, or secure flag, and "delete" as the value written
// by Remove.
func DefaultOptions() Options {
	return Options{
		DeleteValue: "delete",
	}
}

// resolved is a complete set of attributes.
type resolved struct {
	Expires interface{}
	Path    string
	Domain  string
	Secure  bool
	MaxAge  bool
}

// normalizeParams merges the given params over the options.
func (o *Options) normalizeParams(p *Params) resolved {
	r := resolved{
		Expires: o.Expires,
		Path:    o.Path,
		Domain:  o.Domain,
		Secure:  o.Secure,
		MaxAge:  o.MaxAge,
	}
	if p == nil {
		return r
	}
	if p.Expires != nil {
		r.Expires = p.Expires
	}
	if p.Path != "" {
		r.Path = p.Path
	}
	if p.Domain != "" {
		r.Domain = p.Domain
	}
	if p.Secure != nil {
		r.Secure = *p.Secure
	}
	if p.MaxAge != nil {
		r.MaxAge = *p.MaxAge
	}
	return r
}

// BadParam occurs when ParamsFromMap sees something it doesn't
// understand.
type BadParam struct {
	Key   string
	Value interface{}
}

func (e *BadParam) Error() string {
	return fmt.Sprintf("bad cookie param %q: %#v", e.Key, e.Value)
}

// ParamsFromMap builds Params from a generic map (as decoded from
// JSON, YAML, or a script).  Keys are "expires", "path", "domain",
// "secure", and "max-age".
func ParamsFromMap(m map[string]interface{}) (*Params, error) {
	if m == nil {
		return nil, nil
	}
	p := &Params{}
	for k, v := range m {
		switch k {
		case "expires":
			p.Expires = v
		case "path", "domain":
			s, is := v.(string)
			if !is {
				return nil, &BadParam{Key: k, Value: v}
			}
			if k == "path" {
				p.Path = s
			} else {
				p.Domain = s
			}
		case "secure", "max-age":
			b, is := v.(bool)
			if !is {
				return nil, &BadParam{Key: k, Value: v}
			}
			if k == "secure" {
				p.Secure = Bool(b)
			} else {
				p.MaxAge = Bool(b)
			}
		default:
			return nil, &BadParam{Key: k, Value: v}
		}
	}
	return p, nil
}
