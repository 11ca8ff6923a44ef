package main

import "sync"

// lifecycle ends the controller when the page is unloaded. A pagehide for a
// page entering the back/forward cache is not an unload: the page can be
// shown again and its listeners still call into Go.
type lifecycle struct {
	close func()
	once  sync.Once
	done  chan struct{}
}

func newLifecycle(closeFn func()) *lifecycle {
	return &lifecycle{close: closeFn, done: make(chan struct{})}
}

// pageHide handles a pagehide event and reports whether the program should
// exit.
func (l *lifecycle) pageHide(persisted bool) bool {
	if persisted {
		return false
	}
	l.once.Do(func() {
		l.close()
		close(l.done)
	})
	return true
}

// Done is closed once the page is gone for good.
func (l *lifecycle) Done() <-chan struct{} { return l.done }
