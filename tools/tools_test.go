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

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasa-c/gojs/core"
)

func value(v interface{}) core.Factory {
	return func(ctx context.Context, c *core.Carcas) (interface{}, error) {
		return v, nil
	}
}

// sample makes a Carcas with a bit of everything.
func sample(t *testing.T) *core.Carcas {
	ctx := context.Background()
	c := core.New()
	require.NoError(t, c.Start(ctx, &core.Config{}))

	module := func(name string, deps interface{}, f core.Factory) {
		_, err := c.Module(ctx, name, deps, f)
		if err != nil && !strings.Contains(err.Error(), "broken") {
			require.NoError(t, err)
		}
	}

	module("a", nil, value(1))
	module("b", "a, l:jquery", value(2))
	module("x", "y", value(3))
	module("y", "x", value(4))
	module("z", "ghost", value(5))
	module("w", "z", value(6))
	module("k", "go:Class", value(7))
	module("bad", "a", func(ctx context.Context, c *core.Carcas) (interface{}, error) {
		return nil, errors.New("broken")
	})
	_, err := c.Controller(ctx, "menu", "mo:a", core.Nop{})
	require.NoError(t, err)
	require.NoError(t, c.Provide(ctx, "go:Class"))

	return c
}

func TestTake(t *testing.T) {
	s := Take(sample(t), "page")
	assert.Equal(t, "page", s.Title)
	require.Len(t, s.Units, 9)
	assert.Equal(t, []string{"go:Class"}, s.Provided)

	b, have := s.Unit("mo:b")
	require.True(t, have)
	assert.Equal(t, "pending", b.Status)
	assert.Equal(t, []string{"l:jquery"}, b.Missing)

	menu, have := s.Unit("c:menu")
	require.True(t, have)
	assert.Equal(t, "controller", menu.Kind)
	assert.Equal(t, "created", menu.Phase)

	bad, _ := s.Unit("mo:bad")
	assert.Equal(t, "broken", bad.Error)
}

func TestAnalyze(t *testing.T) {
	a := Analyze(Take(sample(t), ""))
	assert.Equal(t, 9, a.Units)
	assert.Equal(t, 8, a.Modules)
	assert.Equal(t, 1, a.Controllers)
	assert.Equal(t, 3, a.Active)
	assert.Equal(t, 6, a.Pending)
	assert.Equal(t, []string{"mo:bad"}, a.Failed)
	assert.Equal(t, []string{"mo:ghost"}, a.Undeclared)
	assert.Equal(t, []string{"l:jquery"}, a.Unprovided)
	assert.Equal(t, [][]string{{"mo:x", "mo:y"}}, a.Cycles)
	assert.Equal(t, []string{"mo:x", "mo:y", "mo:z", "mo:w"}, a.Stuck)
	assert.False(t, a.OK())
}

func TestAnalyzeOK(t *testing.T) {
	ctx := context.Background()
	c := core.New()
	require.NoError(t, c.Start(ctx, &core.Config{}))
	_, err := c.Module(ctx, "a", nil, value(1))
	require.NoError(t, err)

	a := Analyze(Take(c, ""))
	assert.True(t, a.OK())
	assert.Empty(t, a.Cycles)
	assert.Empty(t, a.Stuck)
}

func TestRotate(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, rotate([]string{"b", "c", "a"}))
	assert.Equal(t, []string{"a"}, rotate([]string{"a"}))
}

func TestDot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dot(Take(sample(t), ""), &buf))
	dot := buf.String()
	assert.True(t, strings.HasPrefix(dot, "digraph G {"))
	assert.True(t, strings.HasSuffix(dot, "}\n"))
	assert.Contains(t, dot, `label=<mo:ghost>`)
	assert.Contains(t, dot, `shape="component"`)
	assert.Contains(t, dot, `color="red"`)
	assert.Contains(t, dot, `missing:`)
	assert.NotContains(t, dot, "<nil>")
}

func TestMermaid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Mermaid(Take(sample(t), ""), &buf, nil))
	m := buf.String()
	assert.True(t, strings.HasPrefix(m, "graph BT\n"))
	assert.Contains(t, m, `n1("mo:a")`)
	assert.Contains(t, m, `[["c:menu"]]`)
	assert.Contains(t, m, `(("l:jquery"))`)
	assert.Contains(t, m, "-. missing .->")
}

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	s := Take(sample(t), "demo <page>")
	require.NoError(t, RenderPage(s, &buf, []string{"/static/gojs.css"}))
	page := buf.String()
	assert.Contains(t, page, "<title>demo &lt;page&gt;</title>")
	assert.Contains(t, page, `href="/static/gojs.css"`)
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<code>mo:ghost</code>")
	assert.Contains(t, page, "Cycle")
}

func TestReadSnapshot(t *testing.T) {
	s := Take(sample(t), "saved")
	js, err := json.Marshal(s)
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(filename, js, 0644))

	got, err := ReadSnapshot(filename)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	_, err = ReadSnapshot(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}
