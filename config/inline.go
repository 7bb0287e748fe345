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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var inlinePattern = regexp.MustCompile(`%inline *\("([^"]*)"\)`)

// Inline replaces '%inline("NAME")' with f(NAME).  Replacements
// aren't expanded again.
func Inline(bs []byte, f func(string) ([]byte, error)) ([]byte, error) {
	var (
		acc  = make([]byte, 0, len(bs))
		last = 0
	)
	for _, m := range inlinePattern.FindAllSubmatchIndex(bs, -1) {
		name := string(bs[m[2]:m[3]])
		replacement, err := f(name)
		if err != nil {
			return nil, fmt.Errorf("inline %q: %w", name, err)
		}
		acc = append(acc, bs[last:m[0]]...)
		acc = append(acc, replacement...)
		last = m[1]
	}
	return append(acc, bs[last:]...), nil
}

// ReadFileWithInlines reads a file and inlines other files named
// relative to its directory.
func ReadFileWithInlines(filename string) ([]byte, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(filename)
	return Inline(bs, func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	})
}
