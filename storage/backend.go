/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Mon Feb 11 19:02:10 2019 mstenber
 * Last modified: Sat Feb 16 16:11:39 2019 mstenber
 * Edit time:     48 min
 *
 */

// storage package provides the block devices the word trees live
// on. A Backend is a flat, growable array of fixed-size blocks
// addressed by byte offset; how it is kept (one plain file, bolt or
// badger database, memory) is up to the implementation.
package storage

import (
	"github.com/fingon/go-wordtree/codec"
	"github.com/pkg/errors"
)

const DefaultBlockSize = 512

var (
	// ErrOutOfRange is returned when reading a block that starts at or
	// beyond the end of the store.
	ErrOutOfRange = errors.New("block beyond end of store")

	// ErrUnaligned is returned for offsets or buffers that do not match
	// the block size.
	ErrUnaligned = errors.New("unaligned block access")

	// ErrClosed is returned by operations on a closed backend.
	ErrClosed = errors.New("backend closed")
)

// Backend is the shadow behind the throne; it handles the low-level
// block I/O of a single tree. Operations either complete or return an
// error; there are no retries.
type Backend interface {
	// Init opens (and creates, if need be) the store described by
	// the configuration.
	Init(config BackendConfiguration) error

	// Close releases the underlying resources.
	Close() error

	// ReadBlock reads the block at offset into b; len(b) MUST be
	// the block size and offset a multiple of it.
	ReadBlock(offset int64, b []byte) error

	// WriteBlock writes b at offset, growing the store if need be.
	WriteBlock(offset int64, b []byte) error

	// Size returns the current size of the store in bytes. A new
	// block allocated at Size() has never been used before.
	Size() (int64, error)

	// Sync flushes pending writes to stable storage.
	Sync() error
}

// BackendConfiguration is shared by all backends; not every backend
// cares about every field.
type BackendConfiguration struct {
	// Path of the store; a file for file and bolt, a directory for
	// badger. Ignored by inmemory.
	Path string

	// BlockSize defaults to DefaultBlockSize.
	BlockSize int

	// Codec is applied to each block by backends that store
	// variable-sized values (bolt, badger). Plain files keep blocks in
	// place and ignore it.
	Codec codec.Codec
}

func (self *BackendConfiguration) GetBlockSize() int {
	if self.BlockSize <= 0 {
		return DefaultBlockSize
	}
	return self.BlockSize
}

// CheckAccess validates a block access against the block size.
func (self *BackendConfiguration) CheckAccess(offset int64, b []byte) error {
	bs := self.GetBlockSize()
	if len(b) != bs {
		return errors.Wrapf(ErrUnaligned, "buffer of %d bytes, block size %d", len(b), bs)
	}
	if offset < 0 || offset%int64(bs) != 0 {
		return errors.Wrapf(ErrUnaligned, "offset %d, block size %d", offset, bs)
	}
	return nil
}
