package server

import "sync/atomic"

// requestIDs provides thread-safe increasing request ids, used to correlate
// log lines of the same request. Zero is never handed out.
type requestIDs struct {
	last atomic.Uint32
}

func (ids *requestIDs) Next() uint32 {
	for {
		if id := ids.last.Add(1); id != 0 {
			return id
		}
	}
}
