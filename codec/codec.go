/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sat Feb 16 13:20:45 2019 mstenber
 * Last modified: Sun Feb 17 11:02:08 2019 mstenber
 * Edit time:     74 min
 *
 */

// codec library transforms data + additionalData to a different
// representation and back: encrypting/decrypting, or
// compressing/uncompressing.
//
// CodecChain makes it possible to combine multiple Codecs that do the
// particular sub-EncodeBytes/DecodeBytes steps.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/golang/snappy"
	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

// Codec is a single reversible transformation of byte slices.
// additionalData is authenticated (where the codec supports it) but
// not stored.
type Codec interface {
	DecodeBytes(data, additionalData []byte) (ret []byte, err error)
	EncodeBytes(data, additionalData []byte) (ret []byte, err error)
}

const DefaultIterations = 12345

// EncryptingCodec is AES GCM based encrypting/decrypting
// (+authenticating) Codec; key is derived from password with PBKDF2.
type EncryptingCodec struct {
	gcm cipher.AEAD
}

func (self EncryptingCodec) Init(password, salt []byte, iter int) (*EncryptingCodec, error) {
	if iter <= 0 {
		iter = DefaultIterations
	}
	mk := pbkdf2.Key(password, salt, iter, 32, sha256.New)
	block, err := aes.NewCipher(mk)
	if err != nil {
		return nil, errors.Wrap(err, "aes.NewCipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "cipher.NewGCM")
	}
	self.gcm = gcm
	return &self, nil
}

func (self *EncryptingCodec) DecodeBytes(data, additionalData []byte) (ret []byte, err error) {
	var ed EncryptedData
	_, err = ed.UnmarshalMsg(data)
	if err != nil {
		return
	}
	ret, err = self.gcm.Open(nil, ed.Nonce, ed.EncryptedData, additionalData)
	if err != nil {
		err = errors.Wrap(err, "gcm.Open")
	}
	return
}

func (self *EncryptingCodec) EncodeBytes(data, additionalData []byte) (ret []byte, err error) {
	nonce := make([]byte, self.gcm.NonceSize())
	if _, err = rand.Read(nonce); err != nil {
		return
	}
	ciphertext := self.gcm.Seal(nil, nonce, data, additionalData)
	ed := EncryptedData{Nonce: nonce, EncryptedData: ciphertext}
	return ed.MarshalMsg(nil)
}

// CompressingCodec compresses with Snappy. If the result does not
// improve, the payload is marked plaintext and passed as-is.
type CompressingCodec struct {
}

func (self *CompressingCodec) DecodeBytes(data, additionalData []byte) (ret []byte, err error) {
	var cd CompressedData
	_, err = cd.UnmarshalMsg(data)
	if err != nil {
		return
	}
	switch cd.CompressionType {
	case CompressionType_PLAIN:
		ret = cd.RawData
	case CompressionType_SNAPPY:
		ret, err = snappy.Decode(nil, cd.RawData)
		if err != nil {
			err = errors.Wrap(err, "snappy.Decode")
		}
	default:
		err = errors.Wrapf(ErrInvalidEnvelope, "compression type %d", cd.CompressionType)
	}
	return
}

func (self *CompressingCodec) EncodeBytes(data, additionalData []byte) (ret []byte, err error) {
	cd := CompressedData{CompressionType: CompressionType_SNAPPY,
		RawData: snappy.Encode(nil, data)}
	if len(cd.RawData) >= len(data) {
		cd = CompressedData{CompressionType: CompressionType_PLAIN,
			RawData: data}
	}
	return cd.MarshalMsg(nil)
}

type CodecChain struct {
	codecs, reverseCodecs []Codec
}

// Init initializes the codec chain.
//
// codecs are given in decryption order, so e.g. encrypting one should
// be given before compressing one.
func (self CodecChain) Init(codecs ...Codec) *CodecChain {
	self.codecs = codecs
	rc := make([]Codec, len(codecs))
	for i, c := range codecs {
		rc[len(codecs)-i-1] = c
	}
	self.reverseCodecs = rc
	return &self
}

func (self *CodecChain) DecodeBytes(data, additionalData []byte) (ret []byte, err error) {
	ret = data
	for _, c := range self.codecs {
		ret, err = c.DecodeBytes(ret, additionalData)
		if err != nil {
			return
		}
	}
	return
}

func (self *CodecChain) EncodeBytes(data, additionalData []byte) (ret []byte, err error) {
	ret = data
	for _, c := range self.reverseCodecs {
		ret, err = c.EncodeBytes(ret, additionalData)
		if err != nil {
			return
		}
	}
	return
}

// New returns the codec used for persisted payloads: compression,
// preceded by encryption if password is non-empty.
func New(password, salt string, iterations int) (Codec, error) {
	c2 := &CompressingCodec{}
	if password == "" {
		return CodecChain{}.Init(c2), nil
	}
	if salt == "" {
		salt = "wordtree"
	}
	c1, err := EncryptingCodec{}.Init([]byte(password), []byte(salt), iterations)
	if err != nil {
		return nil, err
	}
	return CodecChain{}.Init(c1, c2), nil
}
