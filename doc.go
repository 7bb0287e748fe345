// Package gojs hosts go.js page code in Go.
//
// The Carcas registry is in package 'core', the script loader in
// 'loader', the cookie helper in 'cookie', and the JavaScript runtime
// that exposes them as the "go" object in 'interpreters/goja'.
// Package 'page' puts these together and drives them from stdin, a
// WebSocket, or MQTT.  The command-line tool is in `cmd/gojs`.
package gojs
