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
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasa-c/gojs/config"
	"github.com/vasa-c/gojs/cookie"
	"github.com/vasa-c/gojs/cookie/bolt"
	"github.com/vasa-c/gojs/loader"
	"github.com/vasa-c/gojs/page"
	"github.com/vasa-c/gojs/util/logging"
)

// openCookies makes the page's Cookie.  The returned function closes
// the cookie database, if any.
func openCookies(ctx context.Context, conf *config.Config) (*cookie.Cookie, *cookie.JarDocument, func() error, error) {
	var (
		store  cookie.Store
		closer = func() error { return nil }
	)
	if conf.Cookie.DB != "" {
		if err := os.MkdirAll(filepath.Dir(conf.Cookie.DB), 0755); err != nil {
			return nil, nil, nil, err
		}
		s := bolt.NewStorage(conf.Cookie.DB)
		s.Logger = logging.Component("cookie.bolt")
		if err := s.Open(); err != nil {
			return nil, nil, nil, err
		}
		store, closer = s, s.Close
	}

	doc, err := cookie.NewJarDocument(ctx, conf.Cookie.URL, store)
	if err != nil {
		closer()
		return nil, nil, nil, err
	}
	c := cookie.New(doc, conf.CookieOptions())
	c.Logger = logging.Component("cookie")
	return c, doc, closer, nil
}

// openPage makes a Page and includes the configured scripts.
func openPage(ctx context.Context, conf *config.Config, haltOnEOF bool) (*page.Page, func() error, error) {
	logger := logging.Component("page")

	c, doc, closer, err := openCookies(ctx, conf)
	if err != nil {
		return nil, nil, err
	}

	client := &http.Client{
		Jar:     doc.Jar(),
		Timeout: 30 * time.Second,
	}

	p, err := page.New(ctx, &page.Config{
		BaseDir:  conf.BaseDir,
		Provider: loader.DefaultProvider(conf.ScriptDir, client),
		Carcas:   conf.Carcas,
		LibsDir:  conf.LibsDir,
		Cookie:   c,
		Logger:   logger,

		HaltOnInputEOF: haltOnEOF,
	})
	if err != nil {
		closer()
		return nil, nil, err
	}

	if conf.Bootstrap != "" {
		r, err := p.Bootstrap(ctx, conf.Bootstrap)
		if err != nil {
			closer()
			return nil, nil, err
		}
		report(logger, "bootstrap", r)
	}
	if 0 < len(conf.Include) {
		report(logger, "include", p.Process(ctx, &page.Message{Include: conf.Include}))
	}

	return p, closer, nil
}

// sendSignals sends the named signals in order.
func sendSignals(ctx context.Context, p *page.Page, signals []string) {
	for _, s := range signals {
		report(p.Logger, s, p.Process(ctx, &page.Message{Signal: s}))
	}
}

func report(logger *zerolog.Logger, what string, r *page.Result) {
	for _, e := range r.Errors() {
		logger.Warn().Str("step", what).Str("error", e.Error).Msg("page")
	}
}
