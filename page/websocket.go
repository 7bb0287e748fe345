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
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocket is a Couplings for a WebSocket service.  Every connected
// client can send messages, and every Result goes to all clients.
type WebSocket struct {
	Upgrader websocket.Upgrader
	Logger   *zerolog.Logger

	in   chan interface{}
	out  chan *Result
	done chan bool

	sync.Mutex
	conns map[*websocket.Conn]bool
	wg    sync.WaitGroup
}

// NewWebSocket makes a WebSocket.  Mount its Handler on a server.
func NewWebSocket() *WebSocket {
	nop := zerolog.Nop()
	return &WebSocket{
		Logger: &nop,
		in:     make(chan interface{}),
		out:    make(chan *Result),
		done:   make(chan bool),
		conns:  make(map[*websocket.Conn]bool),
	}
}

// Start begins broadcasting Results.
func (c *WebSocket) Start(ctx context.Context) error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.done:
				return
			case r := <-c.out:
				if r == nil {
					continue
				}
				js, err := json.Marshal(r)
				if err != nil {
					c.Logger.Warn().Err(err).Msg("marshal result")
					continue
				}
				c.broadcast(js)
			}
		}
	}()
	return nil
}

func (c *WebSocket) broadcast(js []byte) {
	c.Lock()
	defer c.Unlock()
	for conn := range c.conns {
		if err := conn.WriteMessage(websocket.TextMessage, js); err != nil {
			c.Logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("WriteMessage")
			conn.Close()
			delete(c.conns, conn)
		}
	}
}

// Handler returns the http.Handler that accepts WebSocket clients.
func (c *WebSocket) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := c.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			c.Logger.Warn().Err(err).Msg("upgrade")
			return
		}

		c.Lock()
		select {
		case <-c.done:
			c.Unlock()
			conn.Close()
			return
		default:
		}
		c.conns[conn] = true
		c.wg.Add(1)
		c.Unlock()
		defer c.wg.Done()

		remote := conn.RemoteAddr().String()
		c.Logger.Info().Str("remote", remote).Msg("wsconnect")

		defer func() {
			c.Lock()
			delete(c.conns, conn)
			c.Unlock()
			conn.Close()
		}()

		for {
			_, bs, err := conn.ReadMessage()
			if err != nil {
				c.Logger.Debug().Err(err).Str("remote", remote).Msg("ReadMessage")
				return
			}
			if len(bs) == 0 {
				continue
			}

			var msg interface{}
			if err = json.Unmarshal(bs, &msg); err != nil {
				c.Logger.Warn().Err(err).Str("remote", remote).Msg("bad input")
				continue
			}

			select {
			case <-ctx.Done():
				return
			case <-c.done:
				return
			case c.in <- msg:
			}
		}
	})
}

// IO returns the channels.  Input is never exhausted while the
// service runs.
func (c *WebSocket) IO(ctx context.Context) (chan interface{}, chan *Result, chan bool, error) {
	return c.in, c.out, nil, nil
}

// Clients returns the number of connected clients.
func (c *WebSocket) Clients() int {
	c.Lock()
	defer c.Unlock()
	return len(c.conns)
}

// Stop disconnects all clients and waits for them.
func (c *WebSocket) Stop(ctx context.Context) error {
	c.Lock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	for conn := range c.conns {
		conn.Close()
	}
	c.Unlock()
	c.wg.Wait()
	return nil
}
