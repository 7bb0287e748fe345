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

// Package config reads the YAML configuration of a gojs page.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/jsccast/yaml"
	yaml2 "gopkg.in/yaml.v2"

	"github.com/vasa-c/gojs/cookie"
	"github.com/vasa-c/gojs/core"
	"github.com/vasa-c/gojs/page"
)

const (
	// AppDir is the directory name under the XDG directories.
	AppDir = "gojs"

	// EnvDataDir overrides the XDG data directory.
	EnvDataDir = "GOJS_DATA_DIR"

	// CookieDBName is the default cookie database file name.
	CookieDBName = "cookies.db"
)

// IO kinds.
const (
	IOStd = "std"
	IOWS  = "ws"
	IOMQ  = "mq"
)

// Cookie configures the page's cookies.
type Cookie struct {
	// URL is the page address the cookies belong to.
	URL string `yaml:"url"`

	// DB is the bolt database file.  Empty means cookies don't
	// persist.
	DB string `yaml:"db"`

	Expires interface{} `yaml:"expires,omitempty"`
	Path    string      `yaml:"path,omitempty"`
	Domain  string      `yaml:"domain,omitempty"`
	Secure  bool        `yaml:"secure,omitempty"`
	MaxAge  bool        `yaml:"maxAge,omitempty"`
}

// Config is the whole configuration.
type Config struct {
	// Bootstrap is the go.js address, which gives the base
	// directory and the first scripts (see loader.ParseBootstrap).
	Bootstrap string `yaml:"bootstrap,omitempty"`

	// BaseDir is used when there is no Bootstrap.
	BaseDir string `yaml:"baseDir,omitempty"`

	// ScriptDir is the local directory that relative script
	// addresses are read from.
	ScriptDir string `yaml:"scriptDir,omitempty"`

	// LibsDir is where "l:" libraries are loaded from, relative
	// to the base directory.
	LibsDir string `yaml:"libsDir,omitempty"`

	// Include lists more scripts to include at startup.
	Include []string `yaml:"include,omitempty"`

	// Watch reruns scripts in ScriptDir when they change.
	Watch bool `yaml:"watch,omitempty"`

	// Carcas, if not nil, starts the Carcas before any script
	// runs.
	Carcas *core.Config `yaml:"carcas,omitempty"`

	Cookie Cookie `yaml:"cookie"`

	// IO is "std", "ws", or "mq".
	IO string `yaml:"io"`

	// Listen is the WebSocket service address.
	Listen string `yaml:"listen,omitempty"`

	MQTT *page.MQTTConfig `yaml:"mqtt,omitempty"`

	LogLevel  string `yaml:"logLevel,omitempty"`
	LogPretty bool   `yaml:"logPretty,omitempty"`
}

// BadConfig occurs when a configuration doesn't make sense.
type BadConfig struct {
	Field  string
	Reason string
}

func (e *BadConfig) Error() string {
	return fmt.Sprintf("bad config %s: %s", e.Field, e.Reason)
}

// DataDir returns the directory for persistent state.
func DataDir() string {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.DataHome, AppDir)
}

// ConfigFile returns the default configuration file name.
func ConfigFile() string {
	return filepath.Join(xdg.ConfigHome, AppDir, "gojs.yaml")
}

// Default returns the defaults.
func Default() *Config {
	return &Config{
		Cookie: Cookie{
			URL: "http://localhost/",
			DB:  filepath.Join(DataDir(), CookieDBName),
		},
		IO:     IOStd,
		Listen: "localhost:8080",
	}
}

// Parse reads YAML over the defaults.
func Parse(bs []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the named file, which can '%inline("NAME")' other
// files.  A missing file gives the defaults when the name is the
// default file.
func Load(filename string) (*Config, error) {
	bs, err := ReadFileWithInlines(filename)
	if err != nil {
		if os.IsNotExist(err) && filename == ConfigFile() {
			return Default(), nil
		}
		return nil, err
	}
	return Parse(bs)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.IO {
	case IOStd, IOWS:
	case IOMQ:
		if c.MQTT == nil {
			c.MQTT = page.DefaultMQTTConfig()
		}
	default:
		return &BadConfig{Field: "io", Reason: fmt.Sprintf("unknown kind %q", c.IO)}
	}
	if c.Cookie.Expires != nil {
		if _, err := cookie.ParseExpires(c.Cookie.Expires, time.Now()); err != nil {
			return &BadConfig{Field: "cookie.expires", Reason: err.Error()}
		}
	}
	if c.Watch && c.ScriptDir == "" {
		return &BadConfig{Field: "watch", Reason: "needs scriptDir"}
	}
	return nil
}

// CookieOptions returns the cookie defaults.
func (c *Config) CookieOptions() *cookie.Options {
	opts := cookie.DefaultOptions()
	opts.Expires = c.Cookie.Expires
	opts.Path = c.Cookie.Path
	opts.Domain = c.Cookie.Domain
	opts.Secure = c.Cookie.Secure
	opts.MaxAge = c.Cookie.MaxAge
	return &opts
}

// Dump renders the configuration as YAML.
func (c *Config) Dump() ([]byte, error) {
	return yaml2.Marshal(c)
}
