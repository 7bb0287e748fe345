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

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vasa-c/gojs/tools"
)

type snapshotOptions struct {
	from    string
	signals []string
	out     string
}

func (so *snapshotOptions) flags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&so.from, "from", "", "read a snapshot file instead of running scripts")
	cmd.Flags().StringSliceVar(&so.signals, "signal", nil, "signals to send after including scripts")
	cmd.Flags().StringVarP(&so.out, "out", "o", "", "output file (default stdout)")
}

// snapshot runs the page's scripts (or reads a saved snapshot).
func (so *snapshotOptions) snapshot(ctx context.Context, opts *options, args []string) (*tools.Snapshot, error) {
	if so.from != "" {
		return tools.ReadSnapshot(so.from)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	conf := opts.conf
	conf.Include = append(conf.Include, args...)
	p, closer, err := openPage(ctx, conf, false)
	if err != nil {
		return nil, err
	}
	defer closer()
	sendSignals(ctx, p, so.signals)
	return tools.Take(p.Carcas, conf.Bootstrap), nil
}

// output runs f on the output file or stdout.
func (so *snapshotOptions) output(cmd *cobra.Command, f func(w io.Writer) error) error {
	if so.out == "" {
		return f(cmd.OutOrStdout())
	}
	out, err := os.Create(so.out)
	if err != nil {
		return err
	}
	if err := f(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func newGraphCmd(opts *options) *cobra.Command {
	var (
		so     = &snapshotOptions{}
		format string
	)

	cmd := &cobra.Command{
		Use:   "graph [scripts...]",
		Short: "Draw the dependency graph",
		Long: `graph includes the configured scripts (and any given here) and draws
the declared units and their dependencies as Graphviz dot or Mermaid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := so.snapshot(cmd.Context(), opts, args)
			if err != nil {
				return err
			}
			return so.output(cmd, func(w io.Writer) error {
				switch format {
				case "dot":
					return tools.Dot(s, w)
				case "mermaid":
					return tools.Mermaid(s, w, nil)
				}
				return fmt.Errorf("unknown format %q", format)
			})
		},
	}

	so.flags(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "dot", `"dot" or "mermaid"`)

	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	var (
		so       = &snapshotOptions{}
		css      []string
		markdown bool
	)

	cmd := &cobra.Command{
		Use:   "report [scripts...]",
		Short: "Report on the Carcas as HTML",
		Long: `report includes the configured scripts (and any given here) and
writes a page listing every unit, what it waits for, and any undeclared
dependencies, cycles, or failures.  It exits with an error when
something is stuck.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := so.snapshot(cmd.Context(), opts, args)
			if err != nil {
				return err
			}
			err = so.output(cmd, func(w io.Writer) error {
				if markdown {
					return tools.Markdown(s, tools.Analyze(s), w)
				}
				return tools.RenderPage(s, w, css)
			})
			if err != nil {
				return err
			}
			if a := tools.Analyze(s); 0 < len(a.Stuck) {
				return fmt.Errorf("%d stuck units", len(a.Stuck))
			}
			return nil
		},
	}

	so.flags(cmd)
	cmd.Flags().StringSliceVar(&css, "css", nil, "stylesheets to link")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "write Markdown instead of HTML")

	return cmd
}
