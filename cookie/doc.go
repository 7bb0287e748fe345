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

// Package cookie reads and writes page cookies.
//
// A Cookie works against a Document, which is anything with a cookie
// string.  JarDocument keeps that string in a cookie jar for a page
// URL, and a Store (see cookie/bolt) can make it persistent.
//
// Values are escaped on the way in and unescaped on the way out, so
// any string survives a round trip.  Expirations can be keywords
// ("day", "week", "delete"), seconds, Unix milliseconds, dates, or
// cron expressions; see ParseExpires.
package cookie
