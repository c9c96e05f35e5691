/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Fri Feb 15 09:40:18 2019 mstenber
 * Last modified: Sun Feb 17 09:12:30 2019 mstenber
 * Edit time:     37 min
 *
 */

// snapshot package exports the frequency vector of one tree as a
// standalone CBOR document, optionally compressed and encrypted, for
// consumers that do not want to read the tree format.
package snapshot

import (
	"io"
	"io/ioutil"
	"sort"

	"github.com/fingon/go-wordtree/btree"
	"github.com/fingon/go-wordtree/codec"
	"github.com/fingon/go-wordtree/mlog"
	"github.com/pkg/errors"
	ucodec "github.com/ugorji/go/codec"
)

var ErrInvalid = errors.New("invalid snapshot")

// additionalData binds encrypted snapshots to this format.
var additionalData = []byte("wordtree-snapshot")

// Vector is the frequency vector of one document; Keys are sorted
// ascending and Freqs[i] belongs to Keys[i].
type Vector struct {
	Name       string  `codec:"name"`
	Keys       []int64 `codec:"keys"`
	Freqs      []int32 `codec:"freqs"`
	TotalWords int64   `codec:"total"`
}

// FromMap builds a Vector out of key -> frequency map.
func FromMap(name string, m map[int64]int32) *Vector {
	v := &Vector{Name: name,
		Keys:  make([]int64, 0, len(m)),
		Freqs: make([]int32, 0, len(m))}
	for k := range m {
		v.Keys = append(v.Keys, k)
	}
	sort.Slice(v.Keys, func(i, j int) bool { return v.Keys[i] < v.Keys[j] })
	for _, k := range v.Keys {
		f := m[k]
		v.Freqs = append(v.Freqs, f)
		v.TotalWords += int64(f)
	}
	return v
}

// FromTree builds a Vector out of the content of the tree.
func FromTree(name string, t *btree.Tree) (*Vector, error) {
	m, err := t.KeyFreqMap()
	if err != nil {
		return nil, err
	}
	return FromMap(name, m), nil
}

// Map returns the key -> frequency map of the vector.
func (self *Vector) Map() map[int64]int32 {
	m := make(map[int64]int32, len(self.Keys))
	for i, k := range self.Keys {
		m[k] = self.Freqs[i]
	}
	return m
}

func (self *Vector) validate() error {
	if len(self.Keys) != len(self.Freqs) {
		return errors.Wrapf(ErrInvalid, "%d keys but %d frequencies", len(self.Keys), len(self.Freqs))
	}
	var total int64
	for i, k := range self.Keys {
		if i > 0 && k <= self.Keys[i-1] {
			return errors.Wrapf(ErrInvalid, "keys not sorted at %d", i)
		}
		total += int64(self.Freqs[i])
	}
	if total != self.TotalWords {
		return errors.Wrapf(ErrInvalid, "total %d, expected %d", self.TotalWords, total)
	}
	return nil
}

// Write encodes v to w. c may be nil, in which case the plain CBOR
// is written.
func Write(w io.Writer, v *Vector, c codec.Codec) error {
	var h ucodec.CborHandle
	var b []byte
	if err := ucodec.NewEncoderBytes(&b, &h).Encode(v); err != nil {
		return errors.Wrap(err, "cbor encode")
	}
	mlog.Printf2("snapshot/snapshot", "Write %s: %d keys, %d bytes cbor", v.Name, len(v.Keys), len(b))
	if c != nil {
		var err error
		b, err = c.EncodeBytes(b, additionalData)
		if err != nil {
			return err
		}
	}
	_, err := w.Write(b)
	return errors.Wrap(err, "write")
}

// Read decodes a Vector written by Write with the same codec.
func Read(r io.Reader, c codec.Codec) (*Vector, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read")
	}
	if c != nil {
		b, err = c.DecodeBytes(b, additionalData)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalid, "decode: %v", err)
		}
	}
	var h ucodec.CborHandle
	v := &Vector{}
	if err = ucodec.NewDecoderBytes(b, &h).Decode(v); err != nil {
		return nil, errors.Wrapf(ErrInvalid, "cbor decode: %v", err)
	}
	if err = v.validate(); err != nil {
		return nil, err
	}
	mlog.Printf2("snapshot/snapshot", "Read %s: %d keys", v.Name, len(v.Keys))
	return v, nil
}
