/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 12 09:10:41 2019 mstenber
 * Last modified: Sat Feb 16 16:31:18 2019 mstenber
 * Edit time:     40 min
 *
 */

package file

import (
	"io"
	"os"
	"path/filepath"

	"github.com/fingon/go-wordtree/mlog"
	"github.com/fingon/go-wordtree/storage"
	"github.com/pkg/errors"
)

// fileBackend stores the blocks contiguously in a single regular
// file, block at offset N being bytes [N, N+block size) of the file.
//
// The file descriptor is kept open for the lifetime of the backend.
type fileBackend struct {
	storage.BackendConfiguration
	f *os.File
}

var _ storage.Backend = &fileBackend{}

func NewFileBackend() storage.Backend {
	return &fileBackend{}
}

func (self *fileBackend) Init(config storage.BackendConfiguration) error {
	self.BackendConfiguration = config
	if config.Path == "" {
		return errors.New("file backend requires a path")
	}
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "unable to create %s", dir)
	}
	f, err := os.OpenFile(config.Path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", config.Path)
	}
	mlog.Printf2("storage/file/file", "fb.Init %s", config.Path)
	self.f = f
	return nil
}

func (self *fileBackend) Close() error {
	if self.f == nil {
		return nil
	}
	err := self.f.Close()
	self.f = nil
	return errors.Wrapf(err, "close %s", self.Path)
}

func (self *fileBackend) ReadBlock(offset int64, b []byte) error {
	if self.f == nil {
		return storage.ErrClosed
	}
	if err := self.CheckAccess(offset, b); err != nil {
		return err
	}
	n, err := self.f.ReadAt(b, offset)
	if n == len(b) {
		return nil
	}
	if err == nil || err == io.EOF {
		size, _ := self.Size()
		return errors.Wrapf(storage.ErrOutOfRange, "%s: offset %d, size %d", self.Path, offset, size)
	}
	return errors.Wrapf(err, "read %s @%d", self.Path, offset)
}

func (self *fileBackend) WriteBlock(offset int64, b []byte) error {
	if self.f == nil {
		return storage.ErrClosed
	}
	if err := self.CheckAccess(offset, b); err != nil {
		return err
	}
	mlog.Printf2("storage/file/file", "fb.WriteBlock %s @%d", self.Path, offset)
	_, err := self.f.WriteAt(b, offset)
	return errors.Wrapf(err, "write %s @%d", self.Path, offset)
}

func (self *fileBackend) Size() (int64, error) {
	if self.f == nil {
		return 0, storage.ErrClosed
	}
	fi, err := self.f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", self.Path)
	}
	return fi.Size(), nil
}

func (self *fileBackend) Sync() error {
	if self.f == nil {
		return storage.ErrClosed
	}
	return errors.Wrapf(self.f.Sync(), "sync %s", self.Path)
}
