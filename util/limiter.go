/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sun Feb 10 10:01:55 2019 mstenber
 * Last modified: Mon Feb 11 18:10:31 2019 mstenber
 * Edit time:     17 min
 *
 */

package util

import (
	"runtime"
	"sync"
)

const DefaultPerCPU = 1

// ParallelLimiter ensures that at most N things run at the same
// time. It is a semaphore with trivial API: defer x.Limited()().
type ParallelLimiter struct {
	// LimitPerCPU defaults to DefaultPerCPU
	LimitPerCPU int

	// LimitTotal defaults to LimitPerCPU * runtime.NumCPU()
	LimitTotal int

	lock        MutexLocked
	cond        sync.Cond
	running     int
	initialized bool
}

func (self *ParallelLimiter) init() {
	if self.LimitTotal <= 0 {
		if self.LimitPerCPU <= 0 {
			self.LimitPerCPU = DefaultPerCPU
		}
		self.LimitTotal = runtime.NumCPU() * self.LimitPerCPU
	}
	self.cond.L = &self.lock
	self.initialized = true
}

// Limited reserves one execution slot, blocking until one is free.
func (self *ParallelLimiter) Limited() (release func()) {
	defer self.lock.Locked()()
	if !self.initialized {
		self.init()
	}
	for self.running >= self.LimitTotal {
		self.cond.Wait()
	}
	self.running++
	return func() {
		defer self.lock.Locked()()
		self.running--
		self.cond.Signal()
	}
}
