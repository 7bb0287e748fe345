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
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Document is the cookie string of a page.
//
// Cookie returns the current "name=value; name=value" string.
// SetCookie applies one Set-Cookie style header.
type Document interface {
	Cookie() string
	SetCookie(header string) error
}

// BadName occurs when a cookie name can't appear in a header.
type BadName struct {
	Name string
}

func (e *BadName) Error() string {
	return fmt.Sprintf("bad cookie name %q", e.Name)
}

// Cookie reads and writes the cookies of a Document.
type Cookie struct {
	Options  Options
	Document Document

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *zerolog.Logger
}

// New makes a Cookie.  Nil options means DefaultOptions().
func New(doc Document, opts *Options) *Cookie {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	nop := zerolog.Nop()
	return &Cookie{
		Options:  o,
		Document: doc,
		Now:      time.Now,
		Logger:   &nop,
	}
}

func (c *Cookie) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Get returns the unescaped value of the named cookie.
func (c *Cookie) Get(name string) (string, bool) {
	v, have := c.GetAll()[name]
	return v, have
}

// GetAll returns every cookie of the document.
func (c *Cookie) GetAll() map[string]string {
	return ParseCookies(c.Document.Cookie())
}

// Set writes one cookie.  Nil params means the Options.
func (c *Cookie) Set(name, value string, p *Params) error {
	header, err := c.Header(name, value, p)
	if err != nil {
		return err
	}
	c.Logger.Debug().Str("cookie", name).Str("header", header).Msg("set")
	return c.Document.SetCookie(header)
}

// SetList writes several cookies with the same params.  Cookies are
// written in name order, and the first error stops the writing.
func (c *Cookie) SetList(values map[string]string, p *Params) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.Set(name, values[name], p); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes a cookie by writing Options.DeleteValue with an
// expiration in the past.
func (c *Cookie) Remove(name string) error {
	return c.Set(name, c.Options.DeleteValue, &Params{Expires: "delete"})
}

// Header builds the Set-Cookie style header for a cookie.
func (c *Cookie) Header(name, value string, p *Params) (string, error) {
	if !validName(name) {
		return "", &BadName{Name: name}
	}
	r := c.Options.normalizeParams(p)

	var b strings.Builder
	b.WriteString(name)
	b.WriteString("=")
	b.WriteString(Escape(value))

	now := c.now()
	expires, err := ParseExpires(r.Expires, now)
	if err != nil {
		return "", err
	}
	if !expires.IsZero() {
		b.WriteString("; expires=")
		b.WriteString(expires.Format(http.TimeFormat))
		if r.MaxAge {
			secs := int64(expires.Sub(now) / time.Second)
			if secs < 0 {
				secs = 0
			}
			b.WriteString("; max-age=")
			b.WriteString(strconv.FormatInt(secs, 10))
		}
	}
	if r.Path != "" {
		b.WriteString("; path=")
		b.WriteString(r.Path)
	}
	if r.Domain != "" {
		b.WriteString("; domain=")
		b.WriteString(r.Domain)
	}
	if r.Secure {
		b.WriteString("; secure")
	}
	return b.String(), nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r <= ' ' || r >= 0x7f || strings.ContainsRune("=;,\"\\", r) {
			return false
		}
	}
	return true
}

// unreserved undoes QueryEscape for the marks encodeURIComponent
// leaves alone.
var unreserved = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// Escape encodes a cookie value so that it survives a header, the way
// encodeURIComponent does.
func Escape(s string) string {
	return unreserved.Replace(url.QueryEscape(s))
}

// Unescape reverses Escape.  A value that isn't validly escaped is
// returned as is.
func Unescape(s string) string {
	u, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return u
}

// ParseCookies parses a "name=value; name=value" string.  Values are
// unescaped.  For repeated names the first wins.
func ParseCookies(s string) map[string]string {
	acc := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value := pair, ""
		if i := strings.Index(pair, "="); 0 <= i {
			name, value = strings.TrimSpace(pair[:i]), pair[i+1:]
		}
		if _, have := acc[name]; have {
			continue
		}
		acc[name] = Unescape(value)
	}
	return acc
}
