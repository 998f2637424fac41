package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := newKeyLock()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("a")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, l.size(), "released keys are dropped")
}

func TestKeyLockDifferentKeysRunInParallel(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := newKeyLock()
	unlockA := l.Lock("a")

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on b blocked behind a")
	}

	blocked := make(chan struct{})
	go func() {
		unlock := l.Lock("a")
		unlock()
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatal("second lock on a did not wait")
	case <-time.After(50 * time.Millisecond):
	}

	unlockA()
	<-blocked
	assert.Equal(t, 0, l.size())
}
