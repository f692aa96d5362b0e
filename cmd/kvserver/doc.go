// Command kvserver serves an in-memory key-value store over HTTP.
//
// Valid requests are PUTs, GETs and DELETEs to paths of the form "/kvs/key".
// A PUT carries a JSON body of the form {"value": <any JSON>}; keys written
// by PUT are at most 50 characters long. Successful replies carry a "result"
// field ("created", "replaced", "found" with the "value", or "deleted"),
// failures an "error" field with the matching status code (400, 404).
//
// If a forwarding address is configured, the server keeps no data: every
// request is re-issued to the instance at that address and its reply is
// relayed as is. If that instance can't be reached within the forward
// timeout, the reply is 503 with {"error": "Cannot forward request"}.
//
// Configuration comes from an optional file (relaxed JSON, or YAML if the
// name ends in .yaml or .yml) given with -config, overridden by the
// environment variables SOCKET_ADDRESS, FORWARDING_ADDRESS, FORWARD_TIMEOUT,
// FORWARD_RATE and DEBUG.
package main // import "github.com/nicolagi/kvs/cmd/kvserver"
