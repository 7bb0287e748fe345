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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Stdio is a fairly simple Couplings that reads JSON messages, one
// per line, and writes Results the same way.
type Stdio struct {
	// In is coupled to page input.
	In io.Reader

	// Out is coupled to page output.
	Out io.Writer

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	Logger *zerolog.Logger

	wg sync.WaitGroup
}

// NewStdio creates a new Stdio on os.Stdin and os.Stdout.
func NewStdio() *Stdio {
	nop := zerolog.Nop()
	return &Stdio{
		In:     os.Stdin,
		Out:    os.Stdout,
		Logger: &nop,
	}
}

// Start does nothing.
func (s *Stdio) Start(ctx context.Context) error {
	return nil
}

// Stop waits until IO is complete or was terminated via its context.
//
// A read from In can't be interrupted, so Stop gives up when ctx is
// done.
func (s *Stdio) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stdio) printf(format string, args ...interface{}) {
	if s.Timestamps {
		ts := fmt.Sprintf("%-31s", time.Now().UTC().Format(time.RFC3339Nano))
		format = ts + " " + format
	}
	fmt.Fprintf(s.Out, format, args...)
}

// IO returns channels for reading from In and writing to Out.
//
// Blank lines and lines starting with "#" are ignored.  A line "quit"
// ends input.
func (s *Stdio) IO(ctx context.Context) (chan interface{}, chan *Result, chan bool, error) {
	var (
		in   = make(chan interface{})
		out  = make(chan *Result)
		done = make(chan bool)
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		r := bufio.NewReader(s.In)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			line, err := r.ReadString('\n')
			if err != nil && err != io.EOF {
				s.Logger.Warn().Err(err).Msg("stdin")
				return
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "quit" {
				return
			}
			if s.EchoInput && trimmed != "" {
				s.printf("input %s\n", trimmed)
			}
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				var msg interface{}
				if jerr := json.Unmarshal([]byte(trimmed), &msg); jerr != nil {
					s.Logger.Warn().Err(jerr).Str("line", trimmed).Msg("bad input")
				} else {
					select {
					case <-ctx.Done():
						return
					case in <- msg:
					}
				}
			}
			if err == io.EOF {
				return
			}
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-out:
				if r == nil {
					return
				}
				js, err := json.Marshal(r)
				if err != nil {
					s.Logger.Warn().Err(err).Msg("marshal result")
					continue
				}
				s.printf("%s\n", js)
			}
		}
	}()

	return in, out, done, nil
}
