/* Copyright 2018 Comcast Cable Communications Management, LLC
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

package testutil

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestDwimjs(t *testing.T) {
	tests := []struct {
		name string
		arg  interface{}
		want interface{}
	}{
		{
			name: "message string",
			arg:  `{"id":"1","include":["menu"]}`,
			want: map[string]interface{}{"id": "1", "include": []interface{}{"menu"}},
		},
		{
			name: "message bytes",
			arg:  []byte(`{"signal":"ready"}`),
			want: map[string]interface{}{"signal": "ready"},
		},
		{
			name: "not a string",
			arg:  12345,
			want: 12345,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dwimjs(tt.arg))
		})
	}

	assert.Panics(t, func() { Dwimjs("hello world") })
}

func TestLogger(t *testing.T) {
	l := Logger(t)
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
	l.Debug().Str("unit", "mo:dom").Msg("activated")
}
