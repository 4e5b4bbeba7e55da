package domain

import (
	"sync/atomic"
	"time"
)

// Revision is one archived snapshot of a drawing. Seq orders revisions by
// when they were taken, which can differ from the order they were archived.
type Revision struct {
	Key       string    `json:"key"`
	Number    int64     `json:"number"`
	Seq       int64     `json:"seq"`
	GeoJSON   string    `json:"geojson"`
	CreatedAt time.Time `json:"created_at"`
}

var lastSeq atomic.Int64

// NextSeq returns a save sequence number. Numbers are strictly increasing
// within a process and follow the wall clock in nanoseconds, so they keep
// increasing across restarts.
func NextSeq() int64 {
	for {
		last := lastSeq.Load()
		next := time.Now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}
