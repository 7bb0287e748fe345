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
	"fmt"
	"regexp"
	"strings"
)

var bootstrapPattern = regexp.MustCompile(`^(.*/)?go\.js(\?.*?l=(.*?))?$`)

// NotBootstrap occurs when an address isn't a go.js address.
type NotBootstrap struct {
	Src string
}

func (e *NotBootstrap) Error() string {
	return fmt.Sprintf("%q is not a go.js address", e.Src)
}

// ParseBootstrap takes the address of the go.js script, such as
// "/js/go.js?l=Class,Ext", and returns the directory ("/js/") and the
// scripts to include first ("Class" and "Ext").
func ParseBootstrap(src string) (baseDir string, includes []string, err error) {
	m := bootstrapPattern.FindStringSubmatch(src)
	if m == nil {
		return "", nil, &NotBootstrap{Src: src}
	}
	baseDir = m[1]
	if m[3] == "" {
		return baseDir, nil, nil
	}
	for _, name := range strings.Split(m[3], ",") {
		if name = strings.TrimSpace(name); name != "" {
			includes = append(includes, name)
		}
	}
	return baseDir, includes, nil
}
