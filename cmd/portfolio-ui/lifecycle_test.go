package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageHideIntoBackForwardCache(t *testing.T) {
	closed := 0
	l := newLifecycle(func() { closed++ })

	assert.False(t, l.pageHide(true))
	assert.False(t, l.pageHide(true))
	assert.Zero(t, closed, "a cached page keeps its controller")
	select {
	case <-l.Done():
		t.Fatal("program exited while the page is cached")
	default:
	}

	assert.True(t, l.pageHide(false))
	assert.True(t, l.pageHide(false))
	assert.Equal(t, 1, closed)
	select {
	case <-l.Done():
	default:
		t.Fatal("program still running after unload")
	}
}
