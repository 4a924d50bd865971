package common

import "time"

// Timer invokes a callback once after a delay unless stopped first. The
// zero value is ready to use.
type Timer struct {
	timer   *time.Timer
	quit    chan struct{}
	started bool
}

func (t *Timer) Start(delay time.Duration, callback func()) {
	t.started = true
	t.quit = make(chan struct{})
	t.timer = time.NewTimer(delay)

	go func() {
		select {
		case <-t.timer.C:
			go callback()
		case <-t.quit:
			if !t.timer.Stop() {
				<-t.timer.C
			}
		}
		t.started = false
	}()
}

func (t *Timer) Stop() {
	if t.started {
		select {
		case t.quit <- struct{}{}:
		default:
		}
		close(t.quit)
	}
	t.started = false
}

// Reset restarts a running timer with a new delay.
func (t *Timer) Reset(delay time.Duration) {
	t.timer.Reset(delay)
}
