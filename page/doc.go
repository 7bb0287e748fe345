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

// Package page hosts a page: a Carcas, a script Loader, a JavaScript
// runtime, and a Cookie, all driven by one goroutine.
//
// Page.Loop reads messages from Couplings and writes Results back.
// A message is a JSON object with any of these properties:
//
//    {"id":"1", "signal":"ready"}           page DOM ready
//    {"signal":"load"}                      all resources loaded
//    {"signal":"destroy", "name":"menu"}    destroy one controller
//    {"signal":"destroy"}                   destroy all controllers
//    {"include":["menu","forms"]}           request scripts
//    {"provide":"l:jquery"}                 an external is available
//    {"eval":"go.Carcas.pending().length"}  run code
//
// Each message gets one Result listing what happened: activations,
// controller phase changes, an eval's value, and errors.
//
// Couplings exist for stdin/stdout (JSON lines), WebSockets, and MQTT.
package page
