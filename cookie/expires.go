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

package cookie

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
)

// ErrorExpires occurs when an expiration can't be understood.
type ErrorExpires struct {
	Expires interface{}
	Reason  string
}

func (e *ErrorExpires) Error() string {
	return fmt.Sprintf("bad expires %#v: %s", e.Expires, e.Reason)
}

// CronPrefix introduces a cron expression in an expires string.  The
// cookie expires at the next time matching the expression.
const CronPrefix = "cron:"

// absoluteThreshold separates relative seconds from absolute Unix
// milliseconds in numeric expirations.
const absoluteThreshold = 1000000000

var (
	expiresS = map[string]int64{
		"minute": 60,
		"hour":   3600,
		"day":    86400,
		"week":   604800,
	}

	digits = regexp.MustCompile(`^[0-9]{1,9}$`)

	dateLayouts = []string{
		http.TimeFormat,
		time.RFC1123,
		time.RFC1123Z,
		time.RFC3339,
		"2006-01-02",
	}

	// deleted is far enough in the past to remove a cookie.
	deleted = time.UnixMilli(10).UTC()
)

// ParseExpires converts the supported forms of an expiration into a
// time.  The zero time means a session cookie (no expiration).
//
// Supported forms:
//
//    nil, "session"              session cookie
//    time.Time                   that time
//    time.Duration               now plus the duration
//    number below 1e9            now plus that many seconds
//    other numbers               Unix milliseconds
//    "minute" "hour" "day" "week" now plus that period
//    "month" "year"              same day next month or year
//    "delete"                    the distant past
//    a string of up to 9 digits  seconds, as a number
//    "cron:<expr>"               next time matching the expression
//    a date string               HTTP, RFC 1123, RFC 3339, or YYYY-MM-DD
func ParseExpires(x interface{}, now time.Time) (time.Time, error) {
	switch vv := x.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return vv.UTC(), nil
	case *time.Time:
		if vv == nil {
			return time.Time{}, nil
		}
		return vv.UTC(), nil
	case time.Duration:
		return now.Add(vv).UTC(), nil
	case int:
		return fromNumber(float64(vv), now), nil
	case int32:
		return fromNumber(float64(vv), now), nil
	case int64:
		return fromNumber(float64(vv), now), nil
	case float64:
		return fromNumber(vv, now), nil
	case string:
		return parseExpiresString(vv, now)
	}
	return time.Time{}, &ErrorExpires{Expires: x, Reason: fmt.Sprintf("unsupported type %T", x)}
}

func fromNumber(n float64, now time.Time) time.Time {
	if n < absoluteThreshold {
		return now.Add(time.Duration(n * float64(time.Second))).UTC()
	}
	return time.UnixMilli(int64(n)).UTC()
}

func parseExpiresString(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)

	if secs, have := expiresS[s]; have {
		return now.Add(time.Duration(secs) * time.Second).UTC(), nil
	}

	if digits.MatchString(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, &ErrorExpires{Expires: s, Reason: err.Error()}
		}
		return fromNumber(float64(n), now), nil
	}

	switch s {
	case "month":
		return now.AddDate(0, 1, 0).UTC(), nil
	case "year":
		return now.AddDate(1, 0, 0).UTC(), nil
	case "delete":
		return deleted, nil
	case "session", "":
		return time.Time{}, nil
	}

	if strings.HasPrefix(s, CronPrefix) {
		expr, err := cronexpr.Parse(strings.TrimSpace(s[len(CronPrefix):]))
		if err != nil {
			return time.Time{}, &ErrorExpires{Expires: s, Reason: err.Error()}
		}
		next := expr.Next(now)
		if next.IsZero() {
			return time.Time{}, &ErrorExpires{Expires: s, Reason: "no next time"}
		}
		return next.UTC(), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, &ErrorExpires{Expires: s, Reason: "unknown format"}
}
