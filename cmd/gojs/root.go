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
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vasa-c/gojs/config"
	gojs "github.com/vasa-c/gojs/interpreters/goja"
	"github.com/vasa-c/gojs/util/logging"
)

// options are shared by all commands.
type options struct {
	configFile string
	logLevel   string
	pretty     bool

	conf *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "gojs",
		Short: "Host go.js page scripts",
		Long: `gojs runs page scripts that declare modules and controllers with
go.Carcas, and drives the page with ready, load, and destroy signals.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") || conf.LogLevel == "" {
				conf.LogLevel = opts.logLevel
			}
			if cmd.Flags().Changed("pretty") {
				conf.LogPretty = opts.pretty
			}
			if err := logging.Setup(os.Stderr, conf.LogLevel, conf.LogPretty); err != nil {
				return err
			}
			log.Debug().Str("command", cmd.Name()).Str("config", opts.configFile).Msg("command started")
			opts.conf = conf
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", config.ConfigFile(), "configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "human-friendly logs")

	root.AddCommand(
		newRunCmd(opts),
		newGraphCmd(opts),
		newReportCmd(opts),
		newCookieCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gojs %s\n", gojs.VERSION)
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			bs, err := opts.conf.Dump()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(bs)
			return err
		},
	}
}
