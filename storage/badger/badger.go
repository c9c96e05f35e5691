/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 12 11:15:29 2019 mstenber
 * Last modified: Sat Feb 16 16:52:40 2019 mstenber
 * Edit time:     41 min
 *
 */

package badger

import (
	"os"

	"github.com/dgraph-io/badger"
	"github.com/fingon/go-wordtree/mlog"
	"github.com/fingon/go-wordtree/storage"
	"github.com/pkg/errors"
)

// badgerBackend keeps the blocks of one tree in a badger database
// directory.
//
// - key prefix b + block index -> (codec-encoded) block
// - key m/size -> store size in bytes
type badgerBackend struct {
	storage.KVBackendBase
	db *badger.DB
}

var _ storage.Backend = &badgerBackend{}

var blockPrefix = []byte("b")
var sizeKey = []byte("m/size")

func NewBadgerBackend() storage.Backend {
	return &badgerBackend{}
}

func (self *badgerBackend) Init(config storage.BackendConfiguration) error {
	self.KVBackendBase.Init(config)
	if config.Path == "" {
		return errors.New("badger backend requires a path")
	}
	if err := os.MkdirAll(config.Path, 0700); err != nil {
		return errors.Wrapf(err, "unable to create %s", config.Path)
	}
	opts := badger.DefaultOptions
	opts.Dir = config.Path
	opts.ValueDir = config.Path
	db, err := badger.Open(opts)
	if err != nil {
		return errors.Wrapf(err, "badger.Open %s", config.Path)
	}
	mlog.Printf2("storage/badger/badger", "bad.Init %s", config.Path)
	self.db = db
	return nil
}

func (self *badgerBackend) Close() error {
	if self.db == nil {
		return nil
	}
	err := self.db.Close()
	self.db = nil
	return errors.Wrap(err, "badger close")
}

func (self *badgerBackend) key(offset int64) []byte {
	return append(append([]byte(nil), blockPrefix...), self.BlockKey(offset)...)
}

func getValue(txn *badger.Txn, k []byte) ([]byte, error) {
	item, err := txn.Get(k)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (self *badgerBackend) ReadBlock(offset int64, b []byte) error {
	if self.db == nil {
		return storage.ErrClosed
	}
	if err := self.CheckAccess(offset, b); err != nil {
		return err
	}
	k := self.key(offset)
	return self.db.View(func(txn *badger.Txn) error {
		v, err := getValue(txn, k)
		if err != nil {
			return errors.Wrapf(err, "badger get @%d", offset)
		}
		if v == nil {
			sv, err := getValue(txn, sizeKey)
			if err != nil {
				return errors.Wrap(err, "badger get size")
			}
			size, err := storage.DecodeSize(sv)
			if err != nil {
				return err
			}
			if offset+int64(len(b)) > size {
				return errors.Wrapf(storage.ErrOutOfRange, "offset %d, size %d", offset, size)
			}
			for i := range b {
				b[i] = 0
			}
			return nil
		}
		return self.DecodeBlock(k, v, b)
	})
}

func (self *badgerBackend) WriteBlock(offset int64, b []byte) error {
	if self.db == nil {
		return storage.ErrClosed
	}
	if err := self.CheckAccess(offset, b); err != nil {
		return err
	}
	k := self.key(offset)
	v, err := self.EncodeBlock(k, b)
	if err != nil {
		return err
	}
	mlog.Printf2("storage/badger/badger", "bad.WriteBlock @%d (%d b)", offset, len(v))
	err = self.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(k, v); err != nil {
			return err
		}
		sv, err := getValue(txn, sizeKey)
		if err != nil {
			return err
		}
		size, err := storage.DecodeSize(sv)
		if err != nil {
			return err
		}
		if end := offset + int64(len(b)); end > size {
			return txn.Set(sizeKey, storage.EncodeSize(end))
		}
		return nil
	})
	return errors.Wrapf(err, "badger write @%d", offset)
}

func (self *badgerBackend) Size() (size int64, err error) {
	if self.db == nil {
		return 0, storage.ErrClosed
	}
	err = self.db.View(func(txn *badger.Txn) error {
		sv, err := getValue(txn, sizeKey)
		if err != nil {
			return err
		}
		size, err = storage.DecodeSize(sv)
		return err
	})
	return
}

func (self *badgerBackend) Sync() error {
	// Writes are synced on commit with the default options
	return nil
}
