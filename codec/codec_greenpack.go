/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Sat Feb 16 14:02:31 2019 mstenber
 * Last modified: Sat Feb 16 15:40:12 2019 mstenber
 * Edit time:     20 min
 *
 */

package codec

/////////////////////////////////////////////////////////////////////////////

// Codec envelopes

// These wrap the payloads produced by the codecs; they are serialized
// as two-element msgpack arrays (see codec_msgp.go).

type EncryptedData struct {
	// Nonce used for AES GCM
	Nonce []byte `zid:"0"`

	// EncryptedData is AES GCM sealed payload
	EncryptedData []byte `zid:"1"`
}

type CompressionType byte

const (
	CompressionType_UNSET CompressionType = iota

	// The data has not been compressed.
	CompressionType_PLAIN

	// The data is compressed with Snappy.
	CompressionType_SNAPPY
)

type CompressedData struct {
	// CompressionType describes how the data has been compressed.
	CompressionType CompressionType `zid:"0"`

	// RawData is the (possibly compressed) payload
	RawData []byte `zid:"1"`
}
