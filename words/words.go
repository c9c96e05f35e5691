/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb 14 10:12:30 2019 mstenber
 * Last modified: Sat Feb 16 18:20:14 2019 mstenber
 * Edit time:     22 min
 *
 */

// words package turns text into the word hash -> count vectors that
// are stored in the trees.
package words

import (
	"encoding/binary"
	"strings"
	"unicode"

	"github.com/minio/sha256-simd"
)

// Delimiters separate words in addition to whitespace.
const Delimiters = ".!?@[]/()-—,\"'"

// reservedHash is the empty slot marker of the trees; Hash never
// returns it.
const reservedHash int64 = -1

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(Delimiters, r)
}

// Normalize returns the canonical form of a token.
func Normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

// Hash returns the 64-bit key of the token: the first 8 bytes of the
// SHA-256 of the normalized token as a big-endian signed integer.
func Hash(token string) int64 {
	sum := sha256.Sum256([]byte(Normalize(token)))
	h := int64(binary.BigEndian.Uint64(sum[:8]))
	if h == reservedHash {
		h--
	}
	return h
}

// Tokenize splits text into normalized words; empty ones are dropped.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, isDelimiter)
	ret := fields[:0]
	for _, f := range fields {
		if f = Normalize(f); f != "" {
			ret = append(ret, f)
		}
	}
	return ret
}

// Count returns word hash -> number of occurrences in text.
func Count(text string) map[int64]int32 {
	m := make(map[int64]int32)
	for _, w := range Tokenize(text) {
		m[Hash(w)]++
	}
	return m
}
