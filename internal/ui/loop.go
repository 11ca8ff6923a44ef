package ui

import (
	"sync"
	"time"
)

// EventLoop is a goroutine-backed Scheduler. It serializes all callbacks on
// a single goroutine. The zero value is not usable; call NewEventLoop.
type EventLoop struct {
	tasks chan func()
	done  chan struct{}
	exit  chan struct{}

	workers   sync.WaitGroup
	closeOnce sync.Once

	mu     sync.Mutex
	timers map[*loopTimer]struct{}
}

func NewEventLoop() *EventLoop {
	l := &EventLoop{
		tasks:  make(chan func(), 64),
		done:   make(chan struct{}),
		exit:   make(chan struct{}),
		timers: make(map[*loopTimer]struct{}),
	}
	go l.run()
	return l
}

func (l *EventLoop) run() {
	defer close(l.exit)
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.done:
			return
		}
	}
}

// Post queues fn on the loop. It reports false once the loop is closed.
func (l *EventLoop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it. It must not be called from the
// loop itself.
func (l *EventLoop) Do(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.exit:
		return false
	}
}

type loopTimer struct {
	loop *EventLoop
	t    *time.Timer
}

func (lt *loopTimer) Stop() bool {
	lt.loop.mu.Lock()
	delete(lt.loop.timers, lt)
	lt.loop.mu.Unlock()
	return lt.t.Stop()
}

func (l *EventLoop) closed() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

func (l *EventLoop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{loop: l}
	l.mu.Lock()
	defer l.mu.Unlock()
	lt.t = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, lt)
		l.mu.Unlock()
		l.Post(fn)
	})
	if l.closed() {
		lt.t.Stop()
		return lt
	}
	l.timers[lt] = struct{}{}
	return lt
}

func (l *EventLoop) Async(work func() func()) {
	l.mu.Lock()
	if l.closed() {
		l.mu.Unlock()
		return
	}
	l.workers.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.workers.Done()
		if cont := work(); cont != nil {
			l.Post(cont)
		}
	}()
}

// Close stops pending timers, stops the loop and waits for async work to
// return. Queued callbacks that have not started are dropped. Close must not
// be called from the loop.
func (l *EventLoop) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		for lt := range l.timers {
			lt.t.Stop()
		}
		clear(l.timers)
		close(l.done)
		l.mu.Unlock()

		<-l.exit
		l.workers.Wait()
	})
}
