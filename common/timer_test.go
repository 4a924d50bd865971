package common

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimer(t *testing.T) {
	subject := Timer{}
	var count atomic.Int32

	subject.Start(time.Millisecond*100, func() {
		count.Add(1)
	})
	time.Sleep(time.Millisecond * 300)

	if got := count.Load(); got != 1 {
		t.Errorf("Wrong number of invocations: %v", got)
	}
}

func TestTimerStop(t *testing.T) {
	subject := Timer{}
	var count atomic.Int32

	subject.Start(time.Millisecond*100, func() {
		count.Add(1)
	})
	time.Sleep(time.Millisecond * 50)
	subject.Stop()
	time.Sleep(time.Millisecond * 100)

	if got := count.Load(); got != 0 {
		t.Errorf("Wrong number of invocations after Stop: %v", got)
	}
}

func TestTimerStopAfterInvocation(t *testing.T) {
	subject := Timer{}
	var count atomic.Int32

	subject.Start(time.Millisecond*100, func() {
		count.Add(1)
	})

	time.Sleep(time.Millisecond * 150)
	subject.Stop()
	time.Sleep(time.Millisecond * 150)

	if got := count.Load(); got != 1 {
		t.Errorf("Wrong number of invocations after Stop: %v", got)
	}
}

func TestTimerStopAfterStop(t *testing.T) {
	subject := Timer{}
	var count atomic.Int32

	subject.Start(time.Millisecond*100, func() {
		count.Add(1)
	})

	time.Sleep(time.Millisecond * 50)
	subject.Stop()
	subject.Stop()
	time.Sleep(time.Millisecond * 100)

	if got := count.Load(); got != 0 {
		t.Errorf("Wrong number of invocations after Stop: %v", got)
	}
}

func TestTimerReset(t *testing.T) {
	subject := Timer{}
	var count atomic.Int32

	subject.Start(time.Millisecond*100, func() {
		count.Add(1)
	})

	time.Sleep(time.Millisecond * 50)
	subject.Reset(time.Millisecond * 100)
	time.Sleep(time.Millisecond * 70)

	if got := count.Load(); got != 0 {
		t.Errorf("Wrong number of invocations after Reset: %v", got)
	}
}
