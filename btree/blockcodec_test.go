/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 09:50:12 2019 mstenber
 * Last modified: Sat Feb 16 18:02:40 2019 mstenber
 * Edit time:     16 min
 *
 */

package btree

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stvp/assert"
)

func randomNode(r *rand.Rand) *Node {
	n := NewNode(Address(r.Intn(1000) * BlockSize))
	n.Parent = Address(r.Intn(1000) * BlockSize)
	nk := r.Intn(MaxKeys + 1)
	for i := 0; i < nk; i++ {
		n.Keys[i] = r.Int63() - r.Int63()
		n.Frequencies[i] = r.Int31()
	}
	if r.Intn(2) == 0 {
		for i := 0; i <= nk; i++ {
			n.Children[i] = Address(r.Intn(1000) * BlockSize)
		}
	}
	return n
}

func TestBlockCodecRoundTrip(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		n := randomNode(r)
		b := EncodeNode(n)
		assert.Equal(t, len(b), BlockSize)
		n2, err := DecodeNode(b)
		assert.Nil(t, err)
		assert.Equal(t, *n2, *n)
	}
}

func TestBlockCodecLayout(t *testing.T) {
	t.Parallel()
	n := NewNode(1024)
	n.Parent = 512
	n.Keys[0] = 7
	n.Frequencies[0] = 3
	n.Children[1] = 2048
	b := EncodeNode(n)
	be := binary.BigEndian
	assert.Equal(t, be.Uint64(b[0:]), uint64(1024))
	assert.Equal(t, be.Uint64(b[8:]), uint64(512))
	assert.Equal(t, int64(be.Uint64(b[16:])), int64(-1))
	assert.Equal(t, be.Uint64(b[24:]), uint64(2048))
	assert.Equal(t, be.Uint64(b[64:]), uint64(7))
	assert.Equal(t, int64(be.Uint64(b[72:])), int64(-1))
	assert.Equal(t, be.Uint32(b[104:]), uint32(3))
	assert.Equal(t, int32(be.Uint32(b[108:])), int32(-1))
	assert.Equal(t, usedBlockSize, 124)
	for i := usedBlockSize; i < BlockSize; i++ {
		assert.Equal(t, b[i], byte(0))
	}
}

func TestBlockCodecShort(t *testing.T) {
	t.Parallel()
	b := EncodeNode(NewNode(0))
	_, err := DecodeNode(b[:BlockSize-1])
	assert.Equal(t, errors.Cause(err), ErrShortBlock)
	_, err = DecodeNode(nil)
	assert.Equal(t, errors.Cause(err), ErrShortBlock)
}

func TestNewNode(t *testing.T) {
	t.Parallel()
	n := NewNode(0)
	assert.True(t, n.IsLeaf())
	assert.Equal(t, n.NumKeys(), 0)
	assert.Equal(t, n.NumChildren(), 0)
	assert.Equal(t, n.Parent, NullAddress)
	assert.True(t, !n.IsFull())
	for i := 0; i < MaxKeys; i++ {
		n.Keys[i] = int64(i)
	}
	assert.True(t, n.IsFull())
}

func BenchmarkBlockCodec(b *testing.B) {
	n := randomNode(rand.New(rand.NewSource(1)))
	b.Run("Encode", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			EncodeNode(n)
		}
	})
	enc := EncodeNode(n)
	b.Run("Decode", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			DecodeNode(enc)
		}
	})
}
