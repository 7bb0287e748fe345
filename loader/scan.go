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

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// ScanIncludes parses a script and returns the names given to its
// top-level include calls, in order.  Both go.include(...) and a bare
// include(...) count.  The argument can be a string or an array of
// strings.
//
// The script isn't run, so a host can prefetch what it will need.
// Includes with computed arguments are reported as errors.
func ScanIncludes(filename, src string) ([]string, error) {
	p, err := parser.ParseFile(nil, filename, src, 0)
	if err != nil {
		return nil, err
	}

	acc := make([]string, 0, 8)
	for _, s := range p.Body {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}

		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}

		if !isInclude(call.Callee) {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return nil, fmt.Errorf("bad include args at %d: %d arguments", call.Idx0(), len(call.ArgumentList))
		}

		switch vv := call.ArgumentList[0].(type) {
		case *ast.StringLiteral:
			acc = append(acc, string(vv.Value))
		case *ast.ArrayLiteral:
			for _, x := range vv.Value {
				lit, is := x.(*ast.StringLiteral)
				if !is {
					return nil, fmt.Errorf("bad include arg at %d: %T", x.Idx0(), x)
				}
				acc = append(acc, string(lit.Value))
			}
		default:
			return nil, fmt.Errorf("bad include arg at %d: %T", vv.Idx0(), vv)
		}
	}

	return acc, nil
}

func isInclude(callee ast.Expression) bool {
	switch vv := callee.(type) {
	case *ast.Identifier:
		return vv.Name == "include"
	case *ast.DotExpression:
		left, is := vv.Left.(*ast.Identifier)
		return is && left.Name == "go" && vv.Identifier.Name == "include"
	}
	return false
}
