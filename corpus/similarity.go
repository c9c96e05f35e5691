/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb 14 16:40:02 2019 mstenber
 * Last modified: Sun Feb 17 11:52:44 2019 mstenber
 * Edit time:     71 min
 *
 */

package corpus

import (
	"math"
	"sync"

	"github.com/fingon/go-wordtree/btree"
	"github.com/fingon/go-wordtree/mlog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Vector is the key -> frequency map of one document. It is shared
// with the cache and must not be modified.
type Vector map[int64]int32

func (self *Corpus) loadVector(name string) (v Vector, err error) {
	if !self.Exists(name) {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	err = self.Do(name, func(t *btree.Tree) error {
		m, err := t.KeyFreqMap()
		v = Vector(m)
		return err
	})
	mlog.Printf2("corpus/similarity", "c.loadVector %s: %d keys", name, len(v))
	return
}

// Vector returns the frequency vector of the named document.
func (self *Corpus) Vector(name string) (Vector, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	v, err := self.vectors.Get(name)
	if err != nil {
		return nil, err
	}
	return v.(Vector), nil
}

// LoadVectors returns the vectors of the named documents, reading
// several trees at once.
func (self *Corpus) LoadVectors(names []string) (map[string]Vector, error) {
	var g errgroup.Group
	var mutex sync.Mutex
	ret := make(map[string]Vector, len(names))
	for _, name := range names {
		name := name
		g.Go(func() error {
			defer self.limiter.Limited()()
			v, err := self.Vector(name)
			if err != nil {
				return errors.Wrapf(err, "vector %s", name)
			}
			mutex.Lock()
			ret[name] = v
			mutex.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (self *Corpus) twoVectors(a, b string) (va, vb Vector, err error) {
	vs, err := self.LoadVectors([]string{a, b})
	if err != nil {
		return
	}
	return vs[a], vs[b], nil
}

// Similarity returns the cosine similarity of two documents.
func (self *Corpus) Similarity(a, b string) (float64, error) {
	va, vb, err := self.twoVectors(a, b)
	if err != nil {
		return 0, err
	}
	return btree.CosineSimilarityOfMaps(va, vb), nil
}

// Distance returns the Euclidean distance of two documents.
func (self *Corpus) Distance(a, b string) (float64, error) {
	va, vb, err := self.twoVectors(a, b)
	if err != nil {
		return 0, err
	}
	return btree.EuclideanDistanceOfMaps(va, vb), nil
}

// others returns the query vector and the vectors of all other
// documents.
func (self *Corpus) others(name string) (Vector, []string, map[string]Vector, error) {
	q, err := self.Vector(name)
	if err != nil {
		return nil, nil, nil, err
	}
	all, err := self.Names()
	if err != nil {
		return nil, nil, nil, err
	}
	names := make([]string, 0, len(all))
	for _, n := range all {
		if n != name {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, nil, nil, ErrNoDocuments
	}
	vs, err := self.LoadVectors(names)
	if err != nil {
		return nil, nil, nil, err
	}
	return q, names, vs, nil
}

// MostSimilar returns the other document with the highest cosine
// similarity to name; on ties the alphabetically first one wins.
func (self *Corpus) MostSimilar(name string) (best string, score float64, err error) {
	q, names, vs, err := self.others(name)
	if err != nil {
		return
	}
	score = -1
	for _, n := range names {
		s := btree.CosineSimilarityOfMaps(q, vs[n])
		if s > score {
			best, score = n, s
		}
	}
	mlog.Printf2("corpus/similarity", "c.MostSimilar %s: %s %v", name, best, score)
	return
}

func total(v Vector) (sum float64) {
	for _, f := range v {
		sum += float64(f)
	}
	return
}

// MostSimilarTfIdf is like MostSimilar, but the vectors are weighted
// with tf-idf over the other documents and restricted to the words of
// name: tf is the frequency divided by the word count of the
// document, idf log(N / number of documents with the word).
func (self *Corpus) MostSimilarTfIdf(name string) (best string, score float64, err error) {
	q, names, vs, err := self.others(name)
	if err != nil {
		return
	}
	idf := make(map[int64]float64, len(q))
	for k := range q {
		df := 0
		for _, v := range vs {
			if v[k] != 0 {
				df++
			}
		}
		if df > 0 {
			idf[k] = math.Log(float64(len(vs)) / float64(df))
		}
	}
	weigh := func(v Vector) map[int64]float64 {
		w := make(map[int64]float64, len(q))
		tot := total(v)
		if tot == 0 {
			return w
		}
		for k := range q {
			if f := v[k]; f != 0 {
				w[k] = float64(f) / tot * idf[k]
			}
		}
		return w
	}
	qw := weigh(q)
	qn := norm(qw)
	score = -1
	for _, n := range names {
		dw := weigh(vs[n])
		var s float64
		if dn := norm(dw); qn > 0 && dn > 0 {
			var dot float64
			for k, x := range qw {
				dot += x * dw[k]
			}
			s = dot / (qn * dn)
		}
		if s > score {
			best, score = n, s
		}
	}
	mlog.Printf2("corpus/similarity", "c.MostSimilarTfIdf %s: %s %v", name, best, score)
	return
}

func norm(w map[int64]float64) float64 {
	var sum float64
	for _, x := range w {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Stats summarizes one document.
type Stats struct {
	Nodes, Keys int
	Words       int64
}

func (self *Corpus) Stats(name string) (st Stats, err error) {
	if !self.Exists(name) {
		err = errors.Wrapf(ErrNotFound, "%q", name)
		return
	}
	err = self.Do(name, func(t *btree.Tree) (err error) {
		if st.Nodes, err = t.NumNodes(); err != nil {
			return
		}
		if st.Keys, err = t.TotalNumKeys(); err != nil {
			return
		}
		st.Words, err = t.TotalWordCount()
		return
	})
	return
}
