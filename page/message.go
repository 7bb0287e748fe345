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
	"encoding/json"
	"fmt"
)

// Message is an instruction to a Page.
type Message struct {
	ID string `json:"id,omitempty"`

	// Signal is "ready", "load", or "destroy".
	Signal string `json:"signal,omitempty"`

	// Name is the controller for a "destroy" signal.  Empty means
	// all of them.
	Name string `json:"name,omitempty"`

	Include []string `json:"include,omitempty"`
	Provide string   `json:"provide,omitempty"`
	Eval    string   `json:"eval,omitempty"`
}

// Event types.
const (
	EventActivated = "activated"
	EventPhase     = "phase"
	EventValue     = "value"
	EventError     = "error"
)

// Event is one thing that happened while processing a message.
type Event struct {
	Event string      `json:"event"`
	Unit  string      `json:"unit,omitempty"`
	Kind  string      `json:"kind,omitempty"`
	From  string      `json:"from,omitempty"`
	To    string      `json:"to,omitempty"`
	Value interface{} `json:"value,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Result represents all visible output from processing a message.
type Result struct {
	// ID is unique to this Result.
	ID string `json:"id"`

	// Re is the ID of the message, if it had one.
	Re string `json:"re,omitempty"`

	Events []*Event `json:"events"`
}

// Errors returns the error events.
func (r *Result) Errors() []*Event {
	var acc []*Event
	for _, e := range r.Events {
		if e.Event == EventError {
			acc = append(acc, e)
		}
	}
	return acc
}

// BadMessage occurs when input can't be understood as a Message.
type BadMessage struct {
	Msg    interface{}
	Reason string
}

func (e *BadMessage) Error() string {
	return fmt.Sprintf("bad message %#v: %s", e.Msg, e.Reason)
}

// DecodeMessage converts generic input (as decoded from JSON) into a
// Message.
func DecodeMessage(x interface{}) (*Message, error) {
	switch vv := x.(type) {
	case *Message:
		return vv, nil
	case Message:
		return &vv, nil
	case map[string]interface{}:
	case string:
		var m Message
		if err := json.Unmarshal([]byte(vv), &m); err != nil {
			return nil, &BadMessage{Msg: x, Reason: err.Error()}
		}
		return &m, nil
	default:
		return nil, &BadMessage{Msg: x, Reason: fmt.Sprintf("unsupported type %T", x)}
	}

	js, err := json.Marshal(x)
	if err != nil {
		return nil, &BadMessage{Msg: x, Reason: err.Error()}
	}
	var m Message
	if err := json.Unmarshal(js, &m); err != nil {
		return nil, &BadMessage{Msg: x, Reason: err.Error()}
	}
	return &m, nil
}
