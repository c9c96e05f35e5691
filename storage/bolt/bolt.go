/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 12 10:30:50 2019 mstenber
 * Last modified: Sat Feb 16 16:44:27 2019 mstenber
 * Edit time:     38 min
 *
 */

package bolt

import (
	"os"
	"path/filepath"

	bbolt "github.com/coreos/bbolt"
	"github.com/fingon/go-wordtree/mlog"
	"github.com/fingon/go-wordtree/storage"
	"github.com/pkg/errors"
)

var blocksKey = []byte("blocks")
var metaKey = []byte("meta")
var sizeKey = []byte("size")

// boltBackend keeps the blocks of one tree in a bbolt database file.
//
// - bucket blocks: block index -> (codec-encoded) block
// - bucket meta: size -> store size in bytes
type boltBackend struct {
	storage.KVBackendBase

	db *bbolt.DB
}

var _ storage.Backend = &boltBackend{}

func NewBoltBackend() storage.Backend {
	return &boltBackend{}
}

func (self *boltBackend) Init(config storage.BackendConfiguration) error {
	self.KVBackendBase.Init(config)
	if config.Path == "" {
		return errors.New("bolt backend requires a path")
	}
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "unable to create %s", dir)
	}
	db, err := bbolt.Open(config.Path, 0600, nil)
	if err != nil {
		return errors.Wrapf(err, "bbolt.Open %s", config.Path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(blocksKey); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaKey)
		return err
	})
	if err != nil {
		db.Close()
		return errors.Wrap(err, "bbolt buckets")
	}
	mlog.Printf2("storage/bolt/bolt", "bb.Init %s", config.Path)
	self.db = db
	return nil
}

func (self *boltBackend) Close() error {
	if self.db == nil {
		return nil
	}
	err := self.db.Close()
	self.db = nil
	return errors.Wrap(err, "bbolt close")
}

func (self *boltBackend) ReadBlock(offset int64, b []byte) error {
	if self.db == nil {
		return storage.ErrClosed
	}
	if err := self.CheckAccess(offset, b); err != nil {
		return err
	}
	k := self.BlockKey(offset)
	return self.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(blocksKey).Get(k)
		if v == nil {
			size, _ := storage.DecodeSize(tx.Bucket(metaKey).Get(sizeKey))
			if offset+int64(len(b)) > size {
				return errors.Wrapf(storage.ErrOutOfRange, "offset %d, size %d", offset, size)
			}
			// Inside the store but never written
			for i := range b {
				b[i] = 0
			}
			return nil
		}
		// v is only valid within the transaction; DecodeBlock copies
		return self.DecodeBlock(k, v, b)
	})
}

func (self *boltBackend) WriteBlock(offset int64, b []byte) error {
	if self.db == nil {
		return storage.ErrClosed
	}
	if err := self.CheckAccess(offset, b); err != nil {
		return err
	}
	k := self.BlockKey(offset)
	v, err := self.EncodeBlock(k, b)
	if err != nil {
		return err
	}
	mlog.Printf2("storage/bolt/bolt", "bb.WriteBlock @%d (%d b)", offset, len(v))
	err = self.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(blocksKey).Put(k, v); err != nil {
			return err
		}
		meta := tx.Bucket(metaKey)
		size, err := storage.DecodeSize(meta.Get(sizeKey))
		if err != nil {
			return err
		}
		if end := offset + int64(len(b)); end > size {
			return meta.Put(sizeKey, storage.EncodeSize(end))
		}
		return nil
	})
	return errors.Wrapf(err, "bbolt write @%d", offset)
}

func (self *boltBackend) Size() (size int64, err error) {
	if self.db == nil {
		return 0, storage.ErrClosed
	}
	err = self.db.View(func(tx *bbolt.Tx) error {
		size, err = storage.DecodeSize(tx.Bucket(metaKey).Get(sizeKey))
		return err
	})
	return
}

func (self *boltBackend) Sync() error {
	if self.db == nil {
		return storage.ErrClosed
	}
	return errors.Wrap(self.db.Sync(), "bbolt sync")
}
