// Package kvs implements the operations of the /kvs/{key} resource.
//
// There are two implementations of Handler. Local serves requests from a
// storage.Store owned by the process; that is what a canonical instance runs.
// Relay re-issues every request against a single peer and hands back whatever
// the peer answered; that is what a forwarding instance runs. A forwarding
// instance never validates requests nor touches a store of its own.
//
// Both produce a Reply, which is a status code and a body ready to be written
// to the wire. Errors are reported as {"error": "..."} JSON payloads.
package kvs // import "github.com/nicolagi/kvs/kvs"
