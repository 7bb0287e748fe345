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

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Store persists Set-Cookie headers per host.
//
// Keys are opaque strings chosen by the JarDocument.
type Store interface {
	Load(ctx context.Context, host string) (map[string]string, error)
	Save(ctx context.Context, host, key, header string) error
	Delete(ctx context.Context, host, key string) error
}

// BadHeader occurs when a Set-Cookie header has no cookie in it.
var BadHeader = errors.New("bad cookie header")

// JarDocument is a Document backed by a cookie jar for one page URL,
// with an optional Store that survives restarts.
type JarDocument struct {
	URL   *url.URL
	Store Store

	// Now defaults to time.Now.
	Now func() time.Time

	jar *cookiejar.Jar
	ctx context.Context
}

// NewJarDocument makes a JarDocument for the given page URL.  When
// the store isn't nil, its headers for the URL's host are replayed
// into the jar.
func NewJarDocument(ctx context.Context, pageURL string, store Store) (*JarDocument, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("page URL %q has no host", pageURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	d := &JarDocument{
		URL:   u,
		Store: store,
		Now:   time.Now,
		jar:   jar,
		ctx:   ctx,
	}

	if store != nil {
		headers, err := store.Load(ctx, u.Host)
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(headers))
		for k := range headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cs, err := parseSetCookie(headers[k])
			if err != nil {
				continue
			}
			d.jar.SetCookies(u, cs)
		}
	}

	return d, nil
}

// Jar exposes the underlying jar, which can serve an http.Client.
func (d *JarDocument) Jar() http.CookieJar {
	return d.jar
}

// Cookie returns the cookies the page URL would send.
func (d *JarDocument) Cookie() string {
	cs := d.jar.Cookies(d.URL)
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.Name + "=" + c.Value
	}
	return strings.Join(parts, "; ")
}

// SetCookie applies a Set-Cookie header.
func (d *JarDocument) SetCookie(header string) error {
	cs, err := parseSetCookie(header)
	if err != nil {
		return err
	}
	d.jar.SetCookies(d.URL, cs)

	if d.Store == nil {
		return nil
	}

	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}
	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	// Session cookies aren't persisted.
	c := cs[0]
	key := storeKey(c)
	if expired(c, now) || session(c) {
		return d.Store.Delete(ctx, d.URL.Host, key)
	}
	return d.Store.Save(ctx, d.URL.Host, key, header)
}

func storeKey(c *http.Cookie) string {
	return c.Domain + ";" + c.Path + ";" + c.Name
}

func expired(c *http.Cookie, now time.Time) bool {
	if c.MaxAge < 0 {
		return true
	}
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

func session(c *http.Cookie) bool {
	return c.MaxAge == 0 && c.Expires.IsZero()
}

func parseSetCookie(header string) ([]*http.Cookie, error) {
	r := &http.Response{
		Header: http.Header{"Set-Cookie": {header}},
	}
	cs := r.Cookies()
	if len(cs) == 0 {
		return nil, fmt.Errorf("%w: %q", BadHeader, header)
	}
	return cs, nil
}

// MapStore is a Store in memory.
type MapStore map[string]map[string]string

func (s MapStore) Load(ctx context.Context, host string) (map[string]string, error) {
	acc := make(map[string]string, len(s[host]))
	for k, v := range s[host] {
		acc[k] = v
	}
	return acc, nil
}

func (s MapStore) Save(ctx context.Context, host, key, header string) error {
	m, have := s[host]
	if !have {
		m = make(map[string]string)
		s[host] = m
	}
	m[key] = header
	return nil
}

func (s MapStore) Delete(ctx context.Context, host, key string) error {
	delete(s[host], key)
	return nil
}
