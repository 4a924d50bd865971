// Package common holds small timing helpers shared by the introspection
// server and client.
package common

import "time"

// Ticker invokes a callback at a fixed period until stopped. The zero
// value is ready to use.
type Ticker struct {
	quit    chan struct{}
	started bool
}

func (t *Ticker) Start(period time.Duration, callback func()) {
	t.started = true
	t.quit = make(chan struct{})

	ticker := time.NewTicker(period)
	go func() {
		for {
			select {
			case <-ticker.C:
				callback()
			case <-t.quit:
				ticker.Stop()
				return
			}
		}
	}()
}

func (t *Ticker) Stop() {
	if t.started {
		close(t.quit)
	}
	t.started = false
}
