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

package page

import (
	"context"
)

// Couplings provide channels for message input and results output.
//
// For example, an implementation could couple a page to an MQTT
// broker.
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// IO returns the input and result channels and a channel
	// that is closed when input is exhausted.
	IO(context.Context) (chan interface{}, chan *Result, chan bool, error)

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}

// Loop processes messages from the Couplings until the context is
// done (or until input is done if HaltOnInputEOF).
//
// Scripts named on the optional watched channel (see loader.Watch)
// run again if they have been included.
//
// Loop is the only goroutine that touches the Page while it runs.
func (p *Page) Loop(ctx context.Context, couplings Couplings, watched <-chan string) error {
	in, out, done, err := couplings.IO(ctx)
	if err != nil {
		return err
	}

	p.Logger.Debug().Msg("page loop starting")

	emit := func(r *Result) {
		select {
		case <-ctx.Done():
		case out <- r:
		}
	}

LOOP:
	for {
		select {
		case <-done:
			if p.conf.HaltOnInputEOF {
				p.Logger.Debug().Msg("page loop shutting down (input done)")
				break LOOP
			}
			// Don't spin on a closed channel.
			done = nil
		case <-ctx.Done():
			p.Logger.Debug().Msg("page loop shutting down (ctx.Done)")
			break LOOP
		case name, ok := <-watched:
			if !ok {
				watched = nil
				continue
			}
			if r := p.Reload(ctx, name); r != nil {
				emit(r)
			}
		case x := <-in:
			if x == nil {
				break LOOP
			}
			m, err := DecodeMessage(x)
			if err != nil {
				emit(&Result{
					ID: newID(),
					Events: []*Event{{
						Event: EventError,
						Error: err.Error(),
					}},
				})
				continue
			}
			emit(p.Process(ctx, m))
		}
	}

	p.Logger.Debug().Msg("page loop done")
	return nil
}
