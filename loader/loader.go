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

package loader

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// Provider returns the source at the given address.
type Provider func(ctx context.Context, src string) (string, error)

// Executor runs a script.  The name is the script's name as given to
// Include and src is its address.
type Executor func(ctx context.Context, name, src, code string) error

// Loader requests scripts at most once each.
//
// A Loader is not safe for concurrent use.
type Loader struct {
	// BaseDir is prepended to script names.  It usually ends with
	// a slash.
	BaseDir string

	Provider Provider
	Executor Executor

	Logger *zerolog.Logger

	loading  map[string]bool
	modules  map[string]interface{}
	included []string
	queue    []string
	running  bool
}

// NoExecutor occurs when a script is fetched but there is nothing to
// run it.
var NoExecutor = errors.New("loader has no executor")

// New makes a Loader.
func New(baseDir string, p Provider, x Executor) *Loader {
	nop := zerolog.Nop()
	return &Loader{
		BaseDir:  baseDir,
		Provider: p,
		Executor: x,
		Logger:   &nop,
		loading:  make(map[string]bool, 16),
		modules:  make(map[string]interface{}, 16),
	}
}

// Src returns the address of the named script.
func (l *Loader) Src(name string) string {
	return l.BaseDir + name + ".js"
}

// Include requests the named scripts.  Names that have already been
// requested (or appended with AppendModule) are ignored.
//
// When called from a running script, the new scripts are queued and
// Include returns immediately.  Otherwise Include runs the queue,
// including anything those scripts include, and returns the first
// error.  A script that couldn't be fetched can be requested again.
func (l *Loader) Include(ctx context.Context, names ...string) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || l.loading[name] {
			continue
		}
		l.loading[name] = true
		l.included = append(l.included, name)
		l.queue = append(l.queue, name)
	}

	if l.running {
		return nil
	}
	l.running = true
	defer func() {
		l.running = false
	}()

	var first error
	for 0 < len(l.queue) {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := l.queue[0]
		l.queue = l.queue[1:]
		if err := l.load(ctx, name); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (l *Loader) load(ctx context.Context, name string) error {
	src := l.Src(name)
	l.Logger.Debug().Str("script", name).Str("src", src).Msg("include")

	if l.Provider == nil {
		l.forget(name)
		return &FetchError{Name: name, Src: src, Err: NoProvider}
	}
	code, err := l.Provider(ctx, src)
	if err != nil {
		l.forget(name)
		l.Logger.Warn().Err(err).Str("script", name).Msg("fetch")
		return &FetchError{Name: name, Src: src, Err: err}
	}

	if l.Executor == nil {
		l.forget(name)
		return NoExecutor
	}
	if err := l.Executor(ctx, name, src, code); err != nil {
		l.Logger.Warn().Err(err).Str("script", name).Msg("exec")
		return err
	}
	return nil
}

// forget undoes the request of a script that couldn't be fetched.
func (l *Loader) forget(name string) {
	delete(l.loading, name)
	for i, n := range l.included {
		if n == name {
			l.included = append(l.included[:i], l.included[i+1:]...)
			break
		}
	}
}

// AppendModule records a module as loaded under the given name.  Later
// requests for that name do nothing.
func (l *Loader) AppendModule(name string, module interface{}) {
	if !l.loading[name] {
		l.included = append(l.included, name)
	}
	l.loading[name] = true
	l.modules[name] = module
}

// Module returns what AppendModule recorded.
func (l *Loader) Module(name string) (interface{}, bool) {
	m, have := l.modules[name]
	return m, have
}

// Loading reports whether the name has been requested or appended.
func (l *Loader) Loading(name string) bool {
	return l.loading[name]
}

// Included returns the requested names in order.
func (l *Loader) Included() []string {
	acc := make([]string, len(l.included))
	copy(acc, l.included)
	return acc
}

// Reload runs an included script again.  Names that were never
// included (or were only appended) are ignored.
func (l *Loader) Reload(ctx context.Context, name string) (bool, error) {
	if !l.loading[name] {
		return false, nil
	}
	if _, appended := l.modules[name]; appended {
		return false, nil
	}
	if l.running {
		l.queue = append(l.queue, name)
		return true, nil
	}
	l.running = true
	defer func() {
		l.running = false
	}()
	first := l.load(ctx, name)
	for 0 < len(l.queue) {
		next := l.queue[0]
		l.queue = l.queue[1:]
		if err := l.load(ctx, next); err != nil && first == nil {
			first = err
		}
	}
	return true, first
}
