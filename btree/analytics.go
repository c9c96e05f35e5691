/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 14:20:05 2019 mstenber
 * Last modified: Sun Feb 17 09:41:18 2019 mstenber
 * Edit time:     33 min
 *
 */

package btree

import (
	"math"

	"github.com/fingon/go-wordtree/mlog"
)

// TotalWordCount returns the sum of all stored frequencies.
func (self *Tree) TotalWordCount() (count int64, err error) {
	err = self.ForEachKey(func(key int64, freq int32) error {
		count += int64(freq)
		return nil
	})
	return
}

// TotalNumKeys returns the number of stored keys.
func (self *Tree) TotalNumKeys() (count int, err error) {
	err = self.ForEach(func(n *Node) error {
		count += n.NumKeys()
		return nil
	})
	return
}

// TotalNumKeysScan counts the keys by reading the store block by
// block. As nodes are never freed, it agrees with TotalNumKeys.
func (self *Tree) TotalNumKeysScan() (count int, err error) {
	err = self.scanBlocks(func(n *Node) error {
		count += n.NumKeys()
		return nil
	})
	return
}

// KeyFreqMap returns key -> frequency for the whole tree. Multiple
// entries of the same key (see DuplicateAppend) are summed.
func (self *Tree) KeyFreqMap() (map[int64]int32, error) {
	m := make(map[int64]int32)
	err := self.ForEachKey(func(key int64, freq int32) error {
		m[key] += freq
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CosineSimilarityOfMaps returns the cosine of the angle between the
// two frequency vectors; 0 if either is all zeros.
func CosineSimilarityOfMaps(a, b map[int64]int32) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for k, fa := range a {
		if fb, ok := b[k]; ok {
			dot += float64(fa) * float64(fb)
		}
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

// EuclideanDistanceOfMaps returns the distance between the two
// frequency vectors; keys missing from one side count as 0.
func EuclideanDistanceOfMaps(a, b map[int64]int32) float64 {
	var sum float64
	for k, fa := range a {
		d := float64(fa) - float64(b[k])
		sum += d * d
	}
	for k, fb := range b {
		if _, ok := a[k]; !ok {
			sum += float64(fb) * float64(fb)
		}
	}
	return math.Sqrt(sum)
}

// Norm returns the Euclidean length of the frequency vector.
func Norm(m map[int64]int32) float64 {
	var sum float64
	for _, f := range m {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

func (self *Tree) bothMaps(other *Tree) (a, b map[int64]int32, err error) {
	a, err = self.KeyFreqMap()
	if err != nil {
		return
	}
	b, err = other.KeyFreqMap()
	return
}

// CosineSimilarity compares the frequency vectors of the two trees.
func (self *Tree) CosineSimilarity(other *Tree) (float64, error) {
	a, b, err := self.bothMaps(other)
	if err != nil {
		return 0, err
	}
	s := CosineSimilarityOfMaps(a, b)
	mlog.Printf2("btree/analytics", "t.CosineSimilarity %s %s: %v", self.path, other.path, s)
	return s, nil
}

// EuclideanDistance compares the frequency vectors of the two trees.
func (self *Tree) EuclideanDistance(other *Tree) (float64, error) {
	a, b, err := self.bothMaps(other)
	if err != nil {
		return 0, err
	}
	d := EuclideanDistanceOfMaps(a, b)
	mlog.Printf2("btree/analytics", "t.EuclideanDistance %s %s: %v", self.path, other.path, d)
	return d, nil
}
