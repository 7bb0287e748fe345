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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// counting wraps a provider and counts fetches per address.
func counting(p Provider, counts map[string]int) Provider {
	return func(ctx context.Context, src string) (string, error) {
		counts[src]++
		return p(ctx, src)
	}
}

func TestIncludeOnce(t *testing.T) {
	ctx := context.Background()
	counts := map[string]int{}
	var ran []string
	l := New("/js/", counting(MapProvider(map[string]string{
		"/js/a.js": "a",
		"/js/b.js": "b",
	}), counts), func(ctx context.Context, name, src, code string) error {
		ran = append(ran, name+":"+code)
		return nil
	})

	require.NoError(t, l.Include(ctx, "a", "b", "a"))
	require.NoError(t, l.Include(ctx, "b"))
	require.NoError(t, l.Include(ctx, " a "))

	assert.Equal(t, map[string]int{"/js/a.js": 1, "/js/b.js": 1}, counts)
	assert.Equal(t, []string{"a:a", "b:b"}, ran)
	assert.Equal(t, []string{"a", "b"}, l.Included())
	assert.True(t, l.Loading("a"))
	assert.False(t, l.Loading("c"))
}

func TestNestedIncludesQueue(t *testing.T) {
	ctx := context.Background()
	var (
		l   *Loader
		ran []string
	)
	l = New("", MapProvider(map[string]string{
		"outer.js": "outer",
		"inner.js": "inner",
		"other.js": "other",
	}), func(ctx context.Context, name, src, code string) error {
		ran = append(ran, "start "+name)
		if name == "outer" {
			require.NoError(t, l.Include(ctx, "inner", "outer"))
		}
		ran = append(ran, "end "+name)
		return nil
	})

	require.NoError(t, l.Include(ctx, "outer", "other"))
	assert.Equal(t, []string{
		"start outer", "end outer",
		"start other", "end other",
		"start inner", "end inner",
	}, ran)
}

func TestFetchErrorCanRetry(t *testing.T) {
	ctx := context.Background()
	srcs := map[string]string{}
	l := New("", MapProvider(srcs), func(ctx context.Context, name, src, code string) error {
		return nil
	})

	err := l.Include(ctx, "late")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "late", fe.Name)
	assert.True(t, errors.Is(err, NotFound))
	assert.False(t, l.Loading("late"))
	assert.Empty(t, l.Included())

	srcs["late.js"] = "ok"
	require.NoError(t, l.Include(ctx, "late"))
	assert.Equal(t, []string{"late"}, l.Included())
}

func TestExecErrorDoesNotStopQueue(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	var ran []string
	l := New("", MapProvider(map[string]string{"a.js": "", "b.js": ""}),
		func(ctx context.Context, name, src, code string) error {
			ran = append(ran, name)
			if name == "a" {
				return boom
			}
			return nil
		})

	assert.Same(t, boom, l.Include(ctx, "a", "b"))
	assert.Equal(t, []string{"a", "b"}, ran)
	// Not fetched again.
	require.NoError(t, l.Include(ctx, "a"))
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestAppendModule(t *testing.T) {
	ctx := context.Background()
	counts := map[string]int{}
	l := New("", counting(MapProvider(nil), counts), nil)
	l.AppendModule("Lang", "lang")

	require.NoError(t, l.Include(ctx, "Lang"))
	assert.Empty(t, counts)
	m, have := l.Module("Lang")
	assert.True(t, have)
	assert.Equal(t, "lang", m)
	assert.Equal(t, []string{"Lang"}, l.Included())
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	var ran []string
	l := New("", MapProvider(map[string]string{"a.js": "", "b.js": ""}),
		func(ctx context.Context, name, src, code string) error {
			ran = append(ran, name)
			return nil
		})
	l.AppendModule("Lang", "lang")
	require.NoError(t, l.Include(ctx, "a"))

	did, err := l.Reload(ctx, "a")
	require.NoError(t, err)
	assert.True(t, did)

	for _, name := range []string{"b", "Lang"} {
		did, err = l.Reload(ctx, name)
		require.NoError(t, err)
		assert.False(t, did, name)
	}
	assert.Equal(t, []string{"a", "a"}, ran)
}

func TestNoProviderNoExecutor(t *testing.T) {
	ctx := context.Background()
	l := New("", nil, nil)
	assert.True(t, errors.Is(l.Include(ctx, "a"), NoProvider))

	l = New("", MapProvider(map[string]string{"a.js": ""}), nil)
	assert.Equal(t, NoExecutor, l.Include(ctx, "a"))
	assert.Empty(t, l.Included())

	// A later executor gets the script.
	var ran []string
	l.Executor = func(ctx context.Context, name, src, code string) error {
		ran = append(ran, name)
		return nil
	}
	require.NoError(t, l.Include(ctx, "a"))
	assert.Equal(t, []string{"a"}, ran)
}

func TestFileProvider(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "js"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "js", "menu.js"), []byte("menu"), 0644))

	p := FileProvider(dir)
	code, err := p(ctx, "js/menu.js")
	require.NoError(t, err)
	assert.Equal(t, "menu", code)

	code, err = p(ctx, "/js/menu.js")
	require.NoError(t, err)
	assert.Equal(t, "menu", code)

	_, err = p(ctx, "js/none.js")
	assert.Equal(t, NotFound, err)

	_, err = p(ctx, "../secret.js")
	assert.Error(t, err)

	code, err = DefaultProvider(dir, nil)(ctx, "file://js/menu.js")
	require.NoError(t, err)
	assert.Equal(t, "menu", code)

	_, err = DefaultProvider(dir, nil)(ctx, "gopher://js/menu.js")
	assert.Error(t, err)
}

func TestHTTPProvider(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/js/menu.js":
			w.Write([]byte("menu"))
		case "/js/broken.js":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := &http.Client{Transport: &http.Transport{}}
	defer client.CloseIdleConnections()

	l := New(srv.URL+"/js/", DefaultProvider("", client), func(ctx context.Context, name, src, code string) error {
		assert.Equal(t, "menu", code)
		return nil
	})
	require.NoError(t, l.Include(ctx, "menu"))
	assert.True(t, errors.Is(l.Include(ctx, "none"), NotFound))

	err := l.Include(ctx, "broken")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Error(), "500")
}

func TestParseBootstrap(t *testing.T) {
	tests := []struct {
		src      string
		dir      string
		includes []string
	}{
		{"go.js", "", nil},
		{"/js/go.js", "/js/", nil},
		{"http://example.com/static/go.js?l=Class,Ext", "http://example.com/static/", []string{"Class", "Ext"}},
		{"/js/go.js?v=2&l=Carcas", "/js/", []string{"Carcas"}},
		{"/js/go.js?l=", "/js/", nil},
		{"/js/go.js?l=a,,b", "/js/", []string{"a", "b"}},
	}
	for _, test := range tests {
		dir, includes, err := ParseBootstrap(test.src)
		require.NoError(t, err, test.src)
		assert.Equal(t, test.dir, dir, test.src)
		assert.Equal(t, test.includes, includes, test.src)
	}

	for _, src := range []string{"", "/js/jquery.js", "/js/go.jsx", "/js/ego.js"} {
		_, _, err := ParseBootstrap(src)
		var nb *NotBootstrap
		assert.True(t, errors.As(err, &nb), src)
	}
}

func TestScanIncludes(t *testing.T) {
	src := `
go.include("Class");
go.include(["Ext", "Carcas"]);
include("Cookie");
function f() { go.include("nested"); }
other("x");
`
	names, err := ScanIncludes("page.js", src)
	require.NoError(t, err)
	assert.Equal(t, []string{"Class", "Ext", "Carcas", "Cookie"}, names)

	_, err = ScanIncludes("bad.js", `go.include(name);`)
	assert.Error(t, err)
	_, err = ScanIncludes("bad.js", `go.include("a", "b");`)
	assert.Error(t, err)
	_, err = ScanIncludes("bad.js", `go.include(`)
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := t.TempDir()

	names, err := Watch(ctx, dir, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.js"), []byte("x"), 0644))

	select {
	case name := <-names:
		assert.Equal(t, "late", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
	}

	cancel()
	for range names {
	}
}
