/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sun Feb 10 09:25:02 2019 mstenber
 * Last modified: Mon Feb 11 18:20:10 2019 mstenber
 * Edit time:     12 min
 *
 */

package util

import (
	"sync"
	"testing"
	"time"

	"github.com/stvp/assert"
)

func TestMutexLocked(t *testing.T) {
	t.Parallel()
	var l MutexLocked
	var wg sync.WaitGroup
	j := 0
	wg.Add(10)
	for i := 0; i < 10; i++ {
		go func() {
			defer wg.Done()
			defer l.Locked()()
			j++
		}()
	}
	wg.Wait()
	assert.Equal(t, j, 10)
}

func TestNamedLocks(t *testing.T) {
	t.Parallel()
	var nl NamedLocks
	var wg sync.WaitGroup
	counts := map[string]int{}
	var countsLock MutexLocked
	names := []string{"foo", "bar"}
	wg.Add(20)
	for i := 0; i < 20; i++ {
		name := names[i%2]
		go func() {
			defer wg.Done()
			defer nl.Locked(name)()
			countsLock.Lock()
			counts[name]++
			countsLock.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, counts["foo"], 10)
	assert.Equal(t, counts["bar"], 10)
	// Nobody holds anything -> nothing kept around
	assert.Equal(t, len(nl.locks), 0)
}

func TestNamedLocksExclusive(t *testing.T) {
	t.Parallel()
	var nl NamedLocks
	unlock := nl.Locked("foo")
	got := make(chan bool)
	go func() {
		defer nl.Locked("foo")()
		got <- true
	}()
	// Different name is not blocked
	nl.Locked("bar")()
	select {
	case <-got:
		t.Fatal("foo acquired twice")
	case <-time.After(10 * time.Millisecond):
	}
	unlock()
	assert.True(t, <-got)
}
