package lane

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRunsJobsInOrder(t *testing.T) {
	l := New()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	for i := 0; i < 100; i++ {
		idx := i
		l.Submit(func() {
			mu.Lock()
			order = append(order, idx)
			mu.Unlock()
		})
	}
	l.Submit(func() {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lane never drained")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 100)
	for i, idx := range order {
		assert.Equal(t, i, idx)
	}
}

func TestJobsMaySubmitFurtherJobs(t *testing.T) {
	l := New()
	done := make(chan struct{})

	l.Submit(func() {
		l.Submit(func() {
			l.Submit(func() {
				close(done)
			})
		})
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested submit deadlocked the lane")
	}
}

func TestJobsNeverOverlap(t *testing.T) {
	l := New()

	var active, maxActive int32
	var mu sync.Mutex
	done := make(chan struct{})

	for i := 0; i < 50; i++ {
		l.Submit(func() {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	l.Submit(func() {
		close(done)
	})

	<-done
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int32(1), maxActive)
}

func TestAfterRunsWithAndWithoutDelay(t *testing.T) {
	immediate := make(chan struct{})
	delayed := make(chan time.Time, 1)

	After(0, func() {
		close(immediate)
	})
	start := time.Now()
	After(20*time.Millisecond, func() {
		delayed <- time.Now()
	})

	select {
	case <-immediate:
	case <-time.After(time.Second):
		t.Fatal("zero-delay job never ran")
	}
	select {
	case at := <-delayed:
		assert.GreaterOrEqual(t, at.Sub(start), 20*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("delayed job never ran")
	}
}
