package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardRejectsConcurrentDuplicates(t *testing.T) {
	guard := NewSubmissionGuard()

	started := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)

	go func() {
		firstDone <- guard.Do(ActionRegisterTag+":flow-1", func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	assert.True(t, guard.InFlight(ActionRegisterTag+":flow-1"))

	// the duplicate is rejected without waiting for the first to finish
	err := guard.Do(ActionRegisterTag+":flow-1", func() error {
		t.Error("duplicate submission must not run")
		return nil
	})
	require.ErrorIs(t, err, ErrInFlight)

	// a different key is independent
	require.NoError(t, guard.Do(ActionRegisterTag+":flow-2", func() error { return nil }))
	require.NoError(t, guard.Do(ActionCreateCustomer+":flow-1", func() error { return nil }))

	close(release)
	require.NoError(t, <-firstDone)
}

func TestGuardReleasesAfterFailure(t *testing.T) {
	guard := NewSubmissionGuard()

	wantErr := assert.AnError
	err := guard.Do(ActionCreateCustomer+":flow-1", func() error { return wantErr })
	require.ErrorIs(t, err, wantErr)

	// the latch is free again, success or not
	assert.False(t, guard.InFlight(ActionCreateCustomer + ":flow-1"))
	require.NoError(t, guard.Do(ActionCreateCustomer+":flow-1", func() error { return nil }))
}

func TestGuardUnderContention(t *testing.T) {
	guard := NewSubmissionGuard()

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0

	block := make(chan struct{})
	go func() {
		_ = guard.Do("hot-key", func() error {
			<-block
			return nil
		})
	}()

	require.Eventually(t, func() bool { return guard.InFlight("hot-key") }, time.Second, time.Millisecond)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := guard.Do("hot-key", func() error {
				mu.Lock()
				ran++
				mu.Unlock()
				return nil
			})
			assert.ErrorIs(t, err, ErrInFlight)
		}()
	}
	wg.Wait()
	assert.Zero(t, ran)
	close(block)
}
