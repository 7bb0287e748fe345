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

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/vasa-c/gojs/core"
)

const (
	activeFill   = "#52aa5e"
	pendingFill  = "#f6c85f"
	failedFill   = "#f98b8b"
	externalFill = "#99ddc8"
)

// Dot makes a Graphviz dot file for the given snapshot.  Units point
// to their dependencies.
func Dot(s *Snapshot, w io.Writer) error {
	var err error
	f := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	f("digraph G {\n")
	f(`  graph [ordering=out,rankdir=BT,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	ids := make(map[string]string)
	id := func(name string) string {
		if nid, have := ids[name]; have {
			return nid
		}
		nid := fmt.Sprintf("n%d", len(ids))
		ids[name] = nid
		return nid
	}

	for _, u := range s.Units {
		fill := activeFill
		style := "rounded,filled"
		if u.Status != core.StatusActive.String() {
			fill = pendingFill
			style += ",dashed"
		}
		if u.Error != "" {
			fill = failedFill
		}
		shape := "record"
		if u.Kind == core.KindController.String() {
			shape = "component"
		}
		label := escape(u.Name) + `<BR/><FONT POINT-SIZE="8">` + details(u) + `</FONT>`
		f("  %s [shape=\"%s\", style=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			id(u.Name), shape, style, fill, label)
	}

	externals := make(map[string]bool)
	for _, u := range s.Units {
		for _, d := range u.Deps {
			if _, have := s.Unit(d); have || externals[d] {
				continue
			}
			externals[d] = true
			fill, style := externalFill, "filled"
			if !core.IsExternal(d) {
				fill, style = failedFill, "filled,dashed"
			} else if !s.IsProvided(d) {
				fill, style = pendingFill, "filled,dashed"
			}
			f("  %s [shape=\"ellipse\", style=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
				id(d), style, fill, escape(d))
		}
	}

	for _, u := range s.Units {
		missing := make(map[string]bool, len(u.Missing))
		for _, m := range u.Missing {
			missing[m] = true
		}
		for _, d := range u.Deps {
			color := "black"
			if missing[d] {
				color = "red"
			}
			f("  %s -> %s [ color=\"%s\" ]\n", id(u.Name), id(d), color)
		}
	}

	f("}\n")
	return err
}

// details renders a unit's state as YAML for a dot label.
func details(u *Unit) string {
	m := yaml.MapSlice{
		{Key: "status", Value: u.Status},
	}
	if u.Phase != "" {
		m = append(m, yaml.MapItem{Key: "phase", Value: u.Phase})
	}
	if 0 < len(u.Missing) {
		m = append(m, yaml.MapItem{Key: "missing", Value: u.Missing})
	}
	if u.Error != "" {
		m = append(m, yaml.MapItem{Key: "error", Value: u.Error})
	}
	bs, err := yaml.Marshal(m)
	if err != nil {
		return escape(err.Error())
	}
	return strings.Replace(escape(strings.TrimSpace(string(bs))), "\n", `<BR ALIGN="LEFT"/>`, -1)
}

// PNG generates a PNG image based on output from Dot.
//
// This function writes two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(s *Snapshot, basename string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(s, dotfile); err != nil {
		dotfile.Close()
		return pngname, err
	}
	if err := dotfile.Close(); err != nil {
		return pngname, err
	}
	if err := exec.Command("dot", "-Tpng", "-o", pngname, dotname).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func escape(s string) string {
	s = strings.Replace(s, "&", "&amp;", -1)
	s = strings.Replace(s, "<", "&lt;", -1)
	s = strings.Replace(s, ">", "&gt;", -1)
	return s
}
