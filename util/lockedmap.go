/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sun Feb 10 09:21:13 2019 mstenber
 * Last modified: Mon Feb 11 18:02:47 2019 mstenber
 * Edit time:     24 min
 *
 */

package util

import "github.com/fingon/go-wordtree/mlog"

// NamedLocks hands out one mutex per name. Entries exist only while
// someone holds or waits for them, so the map does not grow with the
// number of names ever seen.
type NamedLocks struct {
	lock    MutexLocked
	locks   map[string]*MutexLocked
	waiters map[string]int
}

// Locked acquires the lock of name; call the returned function to
// release it.
func (self *NamedLocks) Locked(name string) (unlock func()) {
	self.lock.Lock()
	if self.locks == nil {
		self.locks = make(map[string]*MutexLocked)
		self.waiters = make(map[string]int)
	}
	ll := self.locks[name]
	if ll == nil {
		mlog.Printf2("util/lockedmap", "nl.Locked created %v", name)
		ll = &MutexLocked{}
		self.locks[name] = ll
	}
	self.waiters[name]++
	self.lock.Unlock()

	ll.Lock()
	return func() {
		defer self.lock.Locked()()
		self.waiters[name]--
		if self.waiters[name] == 0 {
			mlog.Printf2("util/lockedmap", "nl.Locked %v released, last", name)
			delete(self.locks, name)
			delete(self.waiters, name)
		}
		ll.Unlock()
	}
}
