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
	"sort"

	"github.com/spf13/cobra"

	"github.com/vasa-c/gojs/config"
	"github.com/vasa-c/gojs/cookie"
)

func newCookieCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookie",
		Short: "Read and write the page's persistent cookies",
	}

	withCookie := func(cmd *cobra.Command, f func(c *cookie.Cookie) error) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if opts.conf.Cookie.DB == "" {
			return &config.BadConfig{Field: "cookie.db", Reason: "no cookie database"}
		}
		c, _, closer, err := openCookies(ctx, opts.conf)
		if err != nil {
			return err
		}
		defer closer()
		return f(c)
	}

	get := &cobra.Command{
		Use:   "get [name]",
		Short: "Print a cookie's value, or all cookies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCookie(cmd, func(c *cookie.Cookie) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					v, have := c.Get(args[0])
					if !have {
						return fmt.Errorf("no cookie %q", args[0])
					}
					fmt.Fprintln(out, v)
					return nil
				}
				all := c.GetAll()
				names := make([]string, 0, len(all))
				for name := range all {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Fprintf(out, "%s=%s\n", name, all[name])
				}
				return nil
			})
		},
	}

	var p cookie.Params
	var expires string
	set := &cobra.Command{
		Use:   "set name value",
		Short: "Set a cookie",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if expires != "" {
				p.Expires = expires
			}
			if cmd.Flags().Changed("secure") {
				p.Secure = cookie.Bool(true)
			}
			return withCookie(cmd, func(c *cookie.Cookie) error {
				return c.Set(args[0], args[1], &p)
			})
		},
	}
	set.Flags().StringVar(&expires, "expires", "year", `expiry: "day", "week", seconds, a date, or "cron:EXPR"`)
	set.Flags().StringVar(&p.Path, "path", "", "cookie path")
	set.Flags().StringVar(&p.Domain, "domain", "", "cookie domain")
	set.Flags().Bool("secure", false, "secure cookie")

	rm := &cobra.Command{
		Use:   "rm name...",
		Short: "Remove cookies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCookie(cmd, func(c *cookie.Cookie) error {
				for _, name := range args {
					if err := c.Remove(name); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	cmd.AddCommand(get, set, rm)
	return cmd
}
