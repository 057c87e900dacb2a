package services

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := newKeyedMutex()

	var active, maxActive int64
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("alice@example.com")
			defer unlock()

			n := atomic.AddInt64(&active, 1)
			for {
				m := atomic.LoadInt64(&maxActive)
				if n <= m || atomic.CompareAndSwapInt64(&maxActive, m, n) {
					break
				}
			}
			atomic.AddInt64(&active, -1)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&maxActive); got != 1 {
		t.Fatalf("expected at most one holder per key, observed %d", got)
	}
}

func TestKeyedMutex_IndependentKeysDoNotBlock(t *testing.T) {
	km := newKeyedMutex()

	unlockA := km.Lock("a@example.com")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b@example.com")
		unlockB()
		close(done)
	}()

	// must complete while "a" is still held
	<-done
}

func TestKeyedMutex_EntryRemovedAfterLastUnlock(t *testing.T) {
	km := newKeyedMutex()

	unlock := km.Lock("alice@example.com")
	unlock()

	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.locks) != 0 {
		t.Fatalf("expected empty lock table, got %d entries", len(km.locks))
	}
}
