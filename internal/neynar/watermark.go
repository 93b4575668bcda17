package neynar

import (
	"sync"
	"time"
)

// Watermark is the boundary that decides which posts count as new.
// It never moves backwards.
type Watermark struct {
	mu sync.Mutex
	t  time.Time
}

func NewWatermark(t time.Time) *Watermark { return &Watermark{t: t} }

func (w *Watermark) Get() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.t
}

// Advance moves the watermark to t if t is later, and reports whether it moved.
func (w *Watermark) Advance(t time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !t.After(w.t) {
		return false
	}
	w.t = t
	return true
}
