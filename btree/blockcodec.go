/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 09:31:02 2019 mstenber
 * Last modified: Sat Feb 16 17:25:39 2019 mstenber
 * Edit time:     21 min
 *
 */

package btree

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// On-disk node layout; all fields big-endian, rest of the block is
// zero padding.
const (
	addressOffset     = 0
	parentOffset      = 8
	childrenOffset    = 16
	keysOffset        = childrenOffset + 8*MaxChildren
	frequenciesOffset = keysOffset + 8*MaxKeys
	usedBlockSize     = frequenciesOffset + 4*MaxKeys
)

// EncodeNode returns the BlockSize byte representation of n.
func EncodeNode(n *Node) []byte {
	b := make([]byte, BlockSize)
	encodeNodeTo(n, b)
	return b
}

func encodeNodeTo(n *Node, b []byte) {
	be := binary.BigEndian
	be.PutUint64(b[addressOffset:], uint64(n.Address))
	be.PutUint64(b[parentOffset:], uint64(n.Parent))
	for i, c := range n.Children {
		be.PutUint64(b[childrenOffset+8*i:], uint64(c))
	}
	for i, k := range n.Keys {
		be.PutUint64(b[keysOffset+8*i:], uint64(k))
	}
	for i, f := range n.Frequencies {
		be.PutUint32(b[frequenciesOffset+4*i:], uint32(f))
	}
	for i := usedBlockSize; i < len(b); i++ {
		b[i] = 0
	}
}

// DecodeNode parses one block. Trailing padding is not looked at.
func DecodeNode(b []byte) (*Node, error) {
	if len(b) < BlockSize {
		return nil, errors.Wrapf(ErrShortBlock, "%d bytes", len(b))
	}
	be := binary.BigEndian
	n := &Node{}
	n.Address = Address(be.Uint64(b[addressOffset:]))
	n.Parent = Address(be.Uint64(b[parentOffset:]))
	for i := range n.Children {
		n.Children[i] = Address(be.Uint64(b[childrenOffset+8*i:]))
	}
	for i := range n.Keys {
		n.Keys[i] = int64(be.Uint64(b[keysOffset+8*i:]))
	}
	for i := range n.Frequencies {
		n.Frequencies[i] = int32(be.Uint32(b[frequenciesOffset+4*i:]))
	}
	return n, nil
}
