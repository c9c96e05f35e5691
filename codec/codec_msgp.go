/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sat Feb 16 14:40:02 2019 mstenber
 * Last modified: Sat Feb 16 15:38:51 2019 mstenber
 * Edit time:     31 min
 *
 */

package codec

import (
	"github.com/glycerine/greenpack/msgp"
	"github.com/pkg/errors"
)

// The envelopes are tiny and fixed, so the msgp calls are written out
// here instead of going through the generator.

var ErrInvalidEnvelope = errors.New("invalid codec envelope")

func readEnvelopeHeader(nbs *msgp.NilBitsStack, bts []byte) (o []byte, err error) {
	sz, o, err := nbs.ReadArrayHeaderBytes(bts)
	if err != nil {
		return nil, errors.Wrap(err, "envelope header")
	}
	if sz != 2 {
		return nil, errors.Wrapf(ErrInvalidEnvelope, "%d fields", sz)
	}
	return o, nil
}

func (self *EncryptedData) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendArrayHeader(b, 2)
	o = msgp.AppendBytes(o, self.Nonce)
	o = msgp.AppendBytes(o, self.EncryptedData)
	return o, nil
}

func (self *EncryptedData) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var nbs msgp.NilBitsStack
	o, err = readEnvelopeHeader(&nbs, bts)
	if err != nil {
		return
	}
	self.Nonce, o, err = nbs.ReadBytesBytes(o, nil)
	if err != nil {
		return o, errors.Wrap(err, "nonce")
	}
	self.EncryptedData, o, err = nbs.ReadBytesBytes(o, nil)
	if err != nil {
		return o, errors.Wrap(err, "encrypted data")
	}
	return
}

func (self *CompressedData) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendArrayHeader(b, 2)
	o = msgp.AppendByte(o, byte(self.CompressionType))
	o = msgp.AppendBytes(o, self.RawData)
	return o, nil
}

func (self *CompressedData) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var nbs msgp.NilBitsStack
	o, err = readEnvelopeHeader(&nbs, bts)
	if err != nil {
		return
	}
	var ct byte
	ct, o, err = nbs.ReadByteBytes(o)
	if err != nil {
		return o, errors.Wrap(err, "compression type")
	}
	self.CompressionType = CompressionType(ct)
	self.RawData, o, err = nbs.ReadBytesBytes(o, nil)
	if err != nil {
		return o, errors.Wrap(err, "raw data")
	}
	return
}
