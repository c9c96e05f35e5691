/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 21:40:33 2019 mstenber
 * Last modified: Wed Feb 13 21:58:10 2019 mstenber
 * Edit time:     9 min
 *
 */

package storage

import (
	"github.com/fingon/go-wordtree/mlog"
	"github.com/pkg/errors"
)

var ErrInjected = errors.New("injected failure")

// CountingBackend proxies another backend and counts the block
// operations that reach it. If FailReadAt or FailWriteAt is set, the
// operation with that (1-based) count fails with ErrInjected without
// reaching the proxied backend.
type CountingBackend struct {
	Backend

	Reads, Writes           int
	FailReadAt, FailWriteAt int
}

var _ Backend = &CountingBackend{}

func (self *CountingBackend) ReadBlock(offset int64, b []byte) error {
	self.Reads++
	if self.Reads == self.FailReadAt {
		mlog.Printf2("storage/counting", "cb.ReadBlock %d failing", offset)
		return errors.Wrapf(ErrInjected, "read #%d", self.Reads)
	}
	return self.Backend.ReadBlock(offset, b)
}

func (self *CountingBackend) WriteBlock(offset int64, b []byte) error {
	self.Writes++
	if self.Writes == self.FailWriteAt {
		mlog.Printf2("storage/counting", "cb.WriteBlock %d failing", offset)
		return errors.Wrapf(ErrInjected, "write #%d", self.Writes)
	}
	return self.Backend.WriteBlock(offset, b)
}

func (self *CountingBackend) Close() error {
	mlog.Printf2("storage/counting", "cb.Close reads:%d writes:%d", self.Reads, self.Writes)
	return self.Backend.Close()
}
