package services

import (
	"sync"
	"time"
)

// rideLock is one ride's mutual-exclusion token plus a count of goroutines
// currently holding or waiting for it.
type rideLock struct {
	ch   chan struct{}
	refs int
}

// rideLocks hands out one mutual-exclusion token per ride ID. Acquisition
// waits at most the given timeout and then gives up with ErrBusy instead of
// blocking the caller indefinitely. Entries are reference counted and
// evicted once the last holder or waiter is gone, so the map does not grow
// with every ride ever joined.
type rideLocks struct {
	mu    sync.Mutex
	locks map[string]*rideLock
}

func newRideLocks() *rideLocks {
	return &rideLocks{locks: make(map[string]*rideLock)}
}

func (l *rideLocks) checkout(rideID string) *rideLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[rideID]
	if !ok {
		lk = &rideLock{ch: make(chan struct{}, 1)}
		l.locks[rideID] = lk
	}
	lk.refs++
	return lk
}

func (l *rideLocks) checkin(rideID string, lk *rideLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, rideID)
	}
}

// acquire enters the critical section for rideID. The returned release
// function must be called exactly once.
func (l *rideLocks) acquire(rideID string, timeout time.Duration) (func(), error) {
	lk := l.checkout(rideID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case lk.ch <- struct{}{}:
		return func() {
			<-lk.ch
			l.checkin(rideID, lk)
		}, nil
	case <-timer.C:
		l.checkin(rideID, lk)
		return nil, ErrBusy
	}
}
