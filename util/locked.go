/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sun Feb 10 09:12:40 2019 mstenber
 * Last modified: Sun Feb 10 09:20:02 2019 mstenber
 * Edit time:     3 min
 *
 */

package util

import "sync"

// MutexLocked is sync.Mutex with convenience API: defer x.Locked()()
type MutexLocked sync.Mutex

func (self *MutexLocked) Lock() {
	(*sync.Mutex)(self).Lock()
}

func (self *MutexLocked) Unlock() {
	(*sync.Mutex)(self).Unlock()
}

func (self *MutexLocked) Locked() (unlock func()) {
	mut := (*sync.Mutex)(self)
	mut.Lock()
	return mut.Unlock
}
