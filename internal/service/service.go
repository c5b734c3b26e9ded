// Package service implements the recording, meeting, task, message and
// settings operations on top of the repositories, the job queue and the
// event bus.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/cuongbtq/botmr-be/internal/worker"
)

// JobQueue is the part of worker.JobQueue the services enqueue into.
type JobQueue interface {
	Enqueue(ctx context.Context, topic string, payload any, opts ...worker.EnqueueOption) (string, error)
}

// ProcessPriority is the queue priority of meeting.process jobs.
const ProcessPriority = 2

func utcNow() time.Time {
	return time.Now().UTC()
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds
// or waits for it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
