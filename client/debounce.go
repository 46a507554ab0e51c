package client

import (
	"sync"
	"time"
)

// searchDebounceDelay collapses search keystrokes to the latest value.
const searchDebounceDelay = 500 * time.Millisecond

// SearchDebouncer trails search input by a fixed delay and fires the
// callback with the latest value only. Superseded in-flight fetches are not
// cancelled; both are fire-and-forget.
type SearchDebouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fn    func(value string)
}

func NewSearchDebouncer(fn func(value string)) *SearchDebouncer {
	return &SearchDebouncer{
		delay: searchDebounceDelay,
		fn:    fn,
	}
}

// Trigger schedules the callback for the given value, replacing any pending
// one.
func (d *SearchDebouncer) Trigger(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.fn(value)
	})
}

// Stop cancels any pending callback, e.g. when the view goes away.
func (d *SearchDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
