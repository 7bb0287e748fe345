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
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	md "github.com/russross/blackfriday/v2"
)

// Markdown writes a report on the snapshot and its analysis.
func Markdown(s *Snapshot, a *Analysis, out io.Writer) error {
	var err error
	f := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(out, format+"\n", args...)
		}
	}
	code := func(xs []string) string {
		if len(xs) == 0 {
			return ""
		}
		return "`" + strings.Join(xs, "`, `") + "`"
	}

	title := s.Title
	if title == "" {
		title = "Carcas"
	}
	f("# %s\n", title)
	f("%d units (%d modules, %d controllers): %d active, %d pending.\n",
		a.Units, a.Modules, a.Controllers, a.Active, a.Pending)
	f("Ready: %t.  Loaded: %t.\n", s.Ready, s.Loaded)

	if 0 < len(s.Provided) {
		f("Provided: %s.\n", code(s.Provided))
	}

	if !a.OK() || 0 < len(a.Cycles) {
		f("## Problems\n")
		if 0 < len(a.Failed) {
			f("- Failed: %s", code(a.Failed))
		}
		if 0 < len(a.Undeclared) {
			f("- Undeclared: %s", code(a.Undeclared))
		}
		if 0 < len(a.Unprovided) {
			f("- Unprovided: %s", code(a.Unprovided))
		}
		for _, c := range a.Cycles {
			f("- Cycle: %s", code(append(c, c[0])))
		}
		if 0 < len(a.Stuck) {
			f("- Stuck: %s", code(a.Stuck))
		}
		f("")
	}

	f("## Units\n")
	f("| # | Name | Kind | Status | Phase | Dependencies | Missing | Error |")
	f("|---|------|------|--------|-------|--------------|---------|-------|")
	for _, u := range s.Units {
		f("| %d | `%s` | %s | %s | %s | %s | %s | %s |",
			u.Seq, u.Name, u.Kind, u.Status, u.Phase,
			code(u.Deps), code(u.Missing), cell(u.Error))
	}

	return err
}

func cell(s string) string {
	return strings.Replace(html.EscapeString(s), "|", `\|`, -1)
}

// RenderHTML renders the Markdown report as an HTML fragment.
func RenderHTML(s *Snapshot, a *Analysis, out io.Writer) error {
	var buf bytes.Buffer
	if err := Markdown(s, a, &buf); err != nil {
		return err
	}
	_, err := out.Write(md.Run(buf.Bytes()))
	return err
}

// RenderPage renders a complete HTML page.
func RenderPage(s *Snapshot, out io.Writer, cssFiles []string) error {
	var err error
	f := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(out, format, args...)
		}
	}

	f(`<!DOCTYPE html>
<html>
  <head>
  <meta charset="utf-8">
  <title>%s</title>
`, html.EscapeString(s.Title))
	for _, cssFile := range cssFiles {
		f("  <link href=\"%s\" rel=\"stylesheet\">\n", html.EscapeString(cssFile))
	}
	f("  </head>\n  <body>\n<div class=\"carcas\">\n")
	if err != nil {
		return err
	}

	if err = RenderHTML(s, Analyze(s), out); err != nil {
		return err
	}

	f("</div>\n  </body>\n</html>\n")
	return err
}
