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
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

var (
	// NoProvider occurs when a Loader has no Provider.
	NoProvider = errors.New("loader has no provider")

	// NotFound occurs when a provider doesn't have a script.
	NotFound = errors.New("script not found")
)

// FetchError reports a script that couldn't be fetched.
type FetchError struct {
	Name string
	Src  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("can't fetch script %q from %s: %s", e.Name, e.Src, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MapProvider serves scripts from a map keyed by address.
func MapProvider(srcs map[string]string) Provider {
	return func(ctx context.Context, src string) (string, error) {
		code, have := srcs[src]
		if !have {
			return "", NotFound
		}
		return code, nil
	}
}

// FileProvider reads scripts from files under the given directory.
// Addresses that would leave the directory are refused.
func FileProvider(dir string) Provider {
	return func(ctx context.Context, src string) (string, error) {
		rel := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(src, "/")))
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("script address %q leaves %s", src, dir)
		}
		bs, err := os.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", NotFound
			}
			return "", err
		}
		return string(bs), nil
	}
}

// HTTPProvider fetches scripts with GET.  A nil client means
// http.DefaultClient.
func HTTPProvider(client *http.Client) Provider {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, src string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", src, nil)
		if err != nil {
			return "", err
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			bs, err := io.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case http.StatusNotFound:
			return "", NotFound
		default:
			return "", fmt.Errorf("script fetch status %s", resp.Status)
		}
	}
}

// DefaultProvider dispatches on the address: "http://" and "https://"
// go to HTTPProvider, "file://" and everything else to a FileProvider
// for dir.
func DefaultProvider(dir string, client *http.Client) Provider {
	var (
		files = FileProvider(dir)
		web   = HTTPProvider(client)
	)
	return func(ctx context.Context, src string) (string, error) {
		parts := strings.SplitN(src, "://", 2)
		if len(parts) != 2 {
			return files(ctx, src)
		}
		switch parts[0] {
		case "file":
			return files(ctx, parts[1])
		case "http", "https":
			return web(ctx, src)
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}
