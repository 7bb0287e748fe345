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
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch reports the names of scripts created or written in dir until
// the context is done.  The channel is closed then.
//
// Watch doesn't touch a Loader.  The receiver decides what to do with
// the names, typically Loader.Reload.
func Watch(ctx context.Context, dir string, logger *zerolog.Logger) (<-chan string, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				base := filepath.Base(ev.Name)
				if !strings.HasSuffix(base, ".js") {
					continue
				}
				name := strings.TrimSuffix(base, ".js")
				logger.Debug().Str("script", name).Str("op", ev.Op.String()).Msg("watch")
				select {
				case out <- name:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn().Err(err).Str("dir", dir).Msg("watch")
			}
		}
	}()

	return out, nil
}
