/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 12 09:52:20 2019 mstenber
 * Last modified: Sat Feb 16 16:35:02 2019 mstenber
 * Edit time:     15 min
 *
 */

package inmemory

import (
	"github.com/fingon/go-wordtree/mlog"
	"github.com/fingon/go-wordtree/storage"
	"github.com/pkg/errors"
)

// inMemoryBackend keeps the whole store in a byte slice; it is gone
// when the backend is.
type inMemoryBackend struct {
	storage.BackendConfiguration
	b      []byte
	closed bool
}

var _ storage.Backend = &inMemoryBackend{}

func NewInMemoryBackend() storage.Backend {
	return &inMemoryBackend{}
}

func (self *inMemoryBackend) Init(config storage.BackendConfiguration) error {
	self.BackendConfiguration = config
	return nil
}

func (self *inMemoryBackend) Close() error {
	self.closed = true
	return nil
}

func (self *inMemoryBackend) ReadBlock(offset int64, b []byte) error {
	if self.closed {
		return storage.ErrClosed
	}
	if err := self.CheckAccess(offset, b); err != nil {
		return err
	}
	if offset+int64(len(b)) > int64(len(self.b)) {
		return errors.Wrapf(storage.ErrOutOfRange, "offset %d, size %d", offset, len(self.b))
	}
	copy(b, self.b[offset:])
	return nil
}

func (self *inMemoryBackend) WriteBlock(offset int64, b []byte) error {
	if self.closed {
		return storage.ErrClosed
	}
	if err := self.CheckAccess(offset, b); err != nil {
		return err
	}
	mlog.Printf2("storage/inmemory/inmemory", "im.WriteBlock @%d", offset)
	end := offset + int64(len(b))
	if end > int64(len(self.b)) {
		self.b = append(self.b, make([]byte, end-int64(len(self.b)))...)
	}
	copy(self.b[offset:end], b)
	return nil
}

func (self *inMemoryBackend) Size() (int64, error) {
	if self.closed {
		return 0, storage.ErrClosed
	}
	return int64(len(self.b)), nil
}

func (self *inMemoryBackend) Sync() error {
	return nil
}
