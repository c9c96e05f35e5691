/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sat Feb 16 15:41:20 2019 mstenber
 * Last modified: Sun Feb 17 11:10:44 2019 mstenber
 * Edit time:     22 min
 *
 */

package codec

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"log"
	"testing"

	"github.com/glycerine/greenpack/msgp"
	"github.com/stvp/assert"
)

const compressible = "123456789123456789123456789123456789123456789123456789123456789123456789123456789123456789123456789"

func prodCodecOnce(t *testing.T, c Codec, text string) {
	p := []byte(text)
	enc, err := c.EncodeBytes(p, nil)
	assert.Nil(t, err)
	dec, err := c.DecodeBytes(enc, nil)
	assert.Nil(t, err)
	assert.True(t, bytes.Equal(p, dec), "mismatch for", text)
}

func prodCodec(t *testing.T, c Codec) {
	prodCodecOnce(t, c, "")
	prodCodecOnce(t, c, "foo")
	prodCodecOnce(t, c, compressible)
}

func TestEncryptingCodec(t *testing.T) {
	t.Parallel()
	p := []byte("data")
	ad := []byte("ad")

	c, err := EncryptingCodec{}.Init([]byte("foo"), []byte("salt"), 64)
	assert.Nil(t, err)
	prodCodec(t, c)

	enc, err := c.EncodeBytes(p, nil)
	assert.Nil(t, err)

	// Additional data is authenticated
	_, err = c.DecodeBytes(enc, ad)
	assert.True(t, err != nil)

	// Same payload does not encrypt the same way twice
	enc2, err := c.EncodeBytes(p, nil)
	assert.Nil(t, err)
	assert.NotEqual(t, enc, enc2)

	dec, err := c.DecodeBytes(enc2, nil)
	assert.Nil(t, err)
	assert.Equal(t, p, dec)

	enc3, err := c.EncodeBytes(p, ad)
	assert.Nil(t, err)
	dec, err = c.DecodeBytes(enc3, ad)
	assert.Nil(t, err)
	assert.Equal(t, p, dec)

	// Wrong password fails
	c2, err := EncryptingCodec{}.Init([]byte("bar"), []byte("salt"), 64)
	assert.Nil(t, err)
	_, err = c2.DecodeBytes(enc, nil)
	assert.True(t, err != nil)
}

func TestCompressingCodec(t *testing.T) {
	t.Parallel()
	c := &CompressingCodec{}
	prodCodec(t, c)

	enc, err := c.EncodeBytes([]byte(compressible), nil)
	assert.Nil(t, err)
	assert.True(t, len(enc) < len(compressible))

	// Incompressible data is stored as-is (+ envelope)
	p := make([]byte, 64)
	_, err = rand.Read(p)
	assert.Nil(t, err)
	enc, err = c.EncodeBytes(p, nil)
	assert.Nil(t, err)
	var cd CompressedData
	_, err = cd.UnmarshalMsg(enc)
	assert.Nil(t, err)
	assert.Equal(t, cd.CompressionType, CompressionType_PLAIN)
}

func TestInvalidEnvelope(t *testing.T) {
	t.Parallel()
	c := &CompressingCodec{}
	_, err := c.DecodeBytes([]byte("garbage"), nil)
	assert.True(t, err != nil)

	cd := CompressedData{CompressionType: 42, RawData: []byte("x")}
	b, _ := cd.MarshalMsg(nil)
	_, err = c.DecodeBytes(b, nil)
	assert.True(t, err != nil)

	// wrong field count
	b = msgp.AppendArrayHeader(nil, 3)
	_, err = cd.UnmarshalMsg(b)
	assert.True(t, err != nil)

	// nil is decoded by greenpack as an empty array
	_, err = cd.UnmarshalMsg(msgp.AppendNil(nil))
	assert.True(t, err != nil)

	// truncated in the middle of the payload
	ed := EncryptedData{Nonce: []byte("nonce"), EncryptedData: []byte("data")}
	b, err = ed.MarshalMsg(nil)
	assert.Nil(t, err)
	var ed2 EncryptedData
	_, err = ed2.UnmarshalMsg(b[:len(b)-2])
	assert.True(t, err != nil)
	_, err = ed2.UnmarshalMsg(b)
	assert.Nil(t, err)
	assert.Equal(t, ed2.Nonce, ed.Nonce)
	assert.Equal(t, ed2.EncryptedData, ed.EncryptedData)
}

func TestNopCodecChain(t *testing.T) {
	t.Parallel()
	prodCodec(t, CodecChain{}.Init())
}

func TestCodecChain(t *testing.T) {
	t.Parallel()
	c1, err := EncryptingCodec{}.Init([]byte("foo"), []byte("salt"), 64)
	assert.Nil(t, err)
	c := CodecChain{}.Init(c1, &CompressingCodec{})
	prodCodec(t, c)

	enc, err := c.EncodeBytes([]byte(compressible), nil)
	assert.Nil(t, err)
	assert.True(t, len(enc) < len(compressible))
}

func TestNew(t *testing.T) {
	t.Parallel()
	c, err := New("", "", 0)
	assert.Nil(t, err)
	prodCodec(t, c)

	c, err = New("siikret", "salt", 64)
	assert.Nil(t, err)
	prodCodec(t, c)
}

func BenchmarkCodec(b *testing.B) {
	run := func(b *testing.B, c Codec, p []byte, decode bool) {
		enc, err := c.EncodeBytes(p, nil)
		if err != nil {
			log.Panic(err)
		}
		b.SetBytes(int64(len(p)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if decode {
				_, err = c.DecodeBytes(enc, nil)
			} else {
				_, err = c.EncodeBytes(p, nil)
			}
			if err != nil {
				log.Panic(err)
			}
		}
	}
	random := make([]byte, 512)
	if _, err := rand.Read(random); err != nil {
		log.Panic(err)
	}
	zeros := make([]byte, 512)
	c1, _ := EncryptingCodec{}.Init([]byte("foo"), []byte("salt"), 64)
	c2 := &CompressingCodec{}
	for _, test := range []struct {
		name string
		c    Codec
	}{{"AES", c1}, {"Snappy", c2}, {"AES+Snappy", CodecChain{}.Init(c1, c2)}} {
		for _, decode := range []bool{false, true} {
			op := "Encode"
			if decode {
				op = "Decode"
			}
			c := test.c
			b.Run(fmt.Sprintf("%s-%s-Random", op, test.name), func(b *testing.B) {
				run(b, c, random, decode)
			})
			b.Run(fmt.Sprintf("%s-%s-Zeros", op, test.name), func(b *testing.B) {
				run(b, c, zeros, decode)
			})
		}
	}
}
