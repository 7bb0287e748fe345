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
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vasa-c/gojs/config"
	"github.com/vasa-c/gojs/loader"
	"github.com/vasa-c/gojs/page"
	"github.com/vasa-c/gojs/tools"
	"github.com/vasa-c/gojs/util/logging"
)

type runOptions struct {
	io        string
	listen    string
	haltOnEOF bool
	watch     bool
	signals   []string
	snapshot  string
}

func newRunCmd(opts *options) *cobra.Command {
	ro := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [scripts...]",
		Short: "Run a page and process messages",
		Long: `run includes the configured scripts (and any given here) and then
processes messages from stdin (JSON lines), WebSocket clients, or an
MQTT broker until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := opts.conf
			if cmd.Flags().Changed("io") {
				conf.IO = ro.io
			}
			if cmd.Flags().Changed("listen") {
				conf.Listen = ro.listen
			}
			if cmd.Flags().Changed("watch") {
				conf.Watch = ro.watch
			}
			conf.Include = append(conf.Include, args...)
			if err := conf.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), conf, ro)
		},
	}

	cmd.Flags().StringVar(&ro.io, "io", config.IOStd, `IO: "std", "ws", or "mq"`)
	cmd.Flags().StringVar(&ro.listen, "listen", "localhost:8080", "WebSocket service address")
	cmd.Flags().BoolVar(&ro.haltOnEOF, "halt-on-eof", true, "stop on input EOF (std)")
	cmd.Flags().BoolVar(&ro.watch, "watch", false, "rerun scripts when they change")
	cmd.Flags().StringSliceVar(&ro.signals, "signal", nil, "signals to send after including scripts")
	cmd.Flags().StringVar(&ro.snapshot, "snapshot", "", "write a snapshot (JSON) here on exit")

	return cmd
}

func run(ctx context.Context, conf *config.Config, ro *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := logging.Component("run")

	p, closer, err := openPage(ctx, conf, conf.IO == config.IOStd && ro.haltOnEOF)
	if err != nil {
		return err
	}
	defer closer()

	sendSignals(ctx, p, ro.signals)

	g, gctx := errgroup.WithContext(ctx)

	var couplings page.Couplings
	switch conf.IO {
	case config.IOStd:
		s := page.NewStdio()
		s.Logger = logging.Component("stdio")
		couplings = s
	case config.IOWS:
		ws := page.NewWebSocket()
		ws.Logger = logging.Component("ws")
		mux := http.NewServeMux()
		mux.Handle("/ws", ws.Handler(gctx))
		srv := &http.Server{
			Addr:              conf.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("listen", conf.Listen).Msg("serving")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown(context.Background())
		})
		couplings = ws
	case config.IOMQ:
		couplings = page.NewMQTT(gctx, conf.MQTT, logging.Component("mqtt"))
	}

	if err := couplings.Start(gctx); err != nil {
		cancel()
		g.Wait()
		return err
	}

	var watched <-chan string
	if conf.Watch {
		dir := filepath.Join(conf.ScriptDir, p.Loader.BaseDir)
		if watched, err = loader.Watch(gctx, dir, logging.Component("watch")); err != nil {
			cancel()
			g.Wait()
			return err
		}
	}

	g.Go(func() error {
		defer cancel()
		return p.Loop(gctx, couplings, watched)
	})

	err = g.Wait()

	stopCtx, stopped := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopped()
	if serr := couplings.Stop(stopCtx); serr != nil {
		logger.Warn().Err(serr).Msg("stopping couplings")
	}

	if ro.snapshot != "" {
		js, jerr := json.MarshalIndent(tools.Take(p.Carcas, conf.Bootstrap), "", "  ")
		if jerr == nil {
			jerr = os.WriteFile(ro.snapshot, js, 0644)
		}
		if err == nil {
			err = jerr
		}
	}

	return err
}
