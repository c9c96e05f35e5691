/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 09:02:17 2019 mstenber
 * Last modified: Sat Feb 16 17:20:41 2019 mstenber
 * Edit time:     12 min
 *
 */

package btree

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// T is the minimum degree of the tree.
	T = 3

	MaxKeys     = 2*T - 1
	MaxChildren = 2 * T

	// BlockSize is the size of one node on disk; only the first
	// usedBlockSize bytes carry data.
	BlockSize = 512

	// CacheSize is the default number of nodes kept in memory per
	// tree.
	CacheSize = 100

	NullKey       int64 = -1
	NullFrequency int32 = -1
)

// Address is the byte offset of a node in the backing store. It is
// always a multiple of BlockSize.
type Address int64

const (
	NullAddress Address = -1
	RootAddress Address = 0
)

func (self Address) IsNull() bool {
	return self == NullAddress
}

func (self Address) String() string {
	if self.IsNull() {
		return "@null"
	}
	return fmt.Sprintf("@%d", int64(self))
}

var (
	// ErrShortBlock is returned when decoding fewer than BlockSize
	// bytes.
	ErrShortBlock = errors.New("short block")

	// ErrAddressOutOfRange is returned when reading a node that lies
	// beyond the end of the backing store.
	ErrAddressOutOfRange = errors.New("node address beyond end of store")

	// ErrReservedKey is returned by Insert for NullKey.
	ErrReservedKey = errors.New("key is reserved")

	// ErrInvalidFrequency is returned by Insert for negative
	// frequencies.
	ErrInvalidFrequency = errors.New("frequency must not be negative")

	// ErrCorrupt is returned when on-disk structure does not
	// satisfy the B-tree invariants.
	ErrCorrupt = errors.New("corrupt tree")

	ErrClosed = errors.New("tree closed")
)
