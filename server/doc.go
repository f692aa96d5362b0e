// Package server exposes a kvs.Handler over HTTP.
//
// Requests to /kvs/{key} are dispatched by method to the handler the server
// was built with: a kvs.Local on a canonical instance, a kvs.Relay on a
// forwarding instance. The server doesn't know or care which one it has.
// GET /health answers 200 as long as the process serves requests, and
// GET /metrics exposes request and store counters in the Prometheus text
// format.
package server // import "github.com/nicolagi/kvs/server"
