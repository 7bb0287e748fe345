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
	"fmt"
	"io"
	"strings"

	"github.com/vasa-c/gojs/core"
)

type MermaidOpts struct {
	// ShowMissing labels edges to unsatisfied dependencies.
	ShowMissing bool `json:"showMissing"`

	// PendingFill is the fill color for pending units.
	PendingFill string `json:"pendingFill,omitempty"`

	// ExternalFill is the fill color for go: and l: names.
	ExternalFill string `json:"externalFill,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given snapshot.
func Mermaid(s *Snapshot, w io.Writer, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			ShowMissing:  true,
			PendingFill:  pendingFill,
			ExternalFill: externalFill,
		}
	}

	var err error
	f := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	f("graph BT\n")

	nids := make(map[string]string)
	node := func(name string, u *Unit) string {
		if nid, already := nids[name]; already {
			return nid
		}
		nid := fmt.Sprintf("n%d", len(nids)+1)
		nids[name] = nid

		label := strings.Replace(name, `"`, `'`, -1)
		fill := ""
		switch {
		case u == nil:
			f("  %s((\"%s\"))\n", nid, label)
			fill = opts.ExternalFill
		case u.Kind == core.KindController.String():
			f("  %s[[\"%s\"]]\n", nid, label)
		default:
			f("  %s(\"%s\")\n", nid, label)
		}
		if u != nil && u.Status != core.StatusActive.String() {
			fill = opts.PendingFill
		}
		if fill != "" {
			f("  style %s fill:%s\n", nid, fill)
		}
		return nid
	}

	for _, u := range s.Units {
		node(u.Name, u)
	}
	for _, u := range s.Units {
		from := node(u.Name, u)
		missing := make(map[string]bool, len(u.Missing))
		for _, m := range u.Missing {
			missing[m] = true
		}
		for _, d := range u.Deps {
			dep, _ := s.Unit(d)
			to := node(d, dep)
			if opts.ShowMissing && missing[d] {
				f("  %s -. missing .-> %s\n", from, to)
			} else {
				f("  %s --> %s\n", from, to)
			}
		}
	}

	f("\n")
	return err
}
