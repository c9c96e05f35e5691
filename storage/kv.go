/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Tue Feb 12 08:30:12 2019 mstenber
 * Last modified: Sat Feb 16 16:20:03 2019 mstenber
 * Edit time:     35 min
 *
 */

package storage

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// KVBackendBase has the shared logic of backends that keep each
// block as a value in a key-value database:
//
// - block index (offset / block size) -> big-endian uint64 key
//
// - value = codec-encoded block, with the key as additional data so
// that blocks cannot be swapped around undetected
//
// - store size is kept as a separate value.
type KVBackendBase struct {
	BackendConfiguration
}

func (self *KVBackendBase) Init(config BackendConfiguration) {
	self.BackendConfiguration = config
}

// BlockKey returns the database key of the block at offset.
func (self *KVBackendBase) BlockKey(offset int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(offset/int64(self.GetBlockSize())))
	return k
}

func (self *KVBackendBase) EncodeBlock(key, b []byte) ([]byte, error) {
	if self.Codec == nil {
		return append([]byte(nil), b...), nil
	}
	v, err := self.Codec.EncodeBytes(b, key)
	return v, errors.Wrap(err, "encode block")
}

// DecodeBlock decodes value v into b, which MUST be exactly one
// block long.
func (self *KVBackendBase) DecodeBlock(key, v, b []byte) error {
	if self.Codec != nil {
		var err error
		v, err = self.Codec.DecodeBytes(v, key)
		if err != nil {
			return errors.Wrap(err, "decode block")
		}
	}
	if len(v) != len(b) {
		return errors.Errorf("stored block is %d bytes, expected %d", len(v), len(b))
	}
	copy(b, v)
	return nil
}

// EncodeSize and DecodeSize handle the size value.
func EncodeSize(size int64) []byte {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(size))
	return v
}

func DecodeSize(v []byte) (int64, error) {
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, errors.Errorf("invalid size value of %d bytes", len(v))
	}
	return int64(binary.BigEndian.Uint64(v)), nil
}
