/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb 14 17:30:45 2019 mstenber
 * Last modified: Sun Feb 17 12:01:33 2019 mstenber
 * Edit time:     52 min
 *
 */

package corpus

import (
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"sync"
	"testing"

	"github.com/fingon/go-wordtree/btree"
	"github.com/fingon/go-wordtree/words"
	"github.com/pkg/errors"
	"github.com/stvp/assert"
)

const epsilon = 1e-9

func newCorpus(t *testing.T, backend string) (*Corpus, func()) {
	dir, err := ioutil.TempDir("", "corpus")
	assert.Nil(t, err)
	c, err := New(Config{Dir: dir, Backend: backend})
	assert.Nil(t, err)
	return c, func() {
		c.Close()
		os.RemoveAll(dir)
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, FileName("https://en.wikipedia.org/wiki/Go"),
		"httpsenwikipediaorgwikiGo")
	assert.Equal(t, FileName("plain"), "plain")
}

func TestInvalidName(t *testing.T) {
	t.Parallel()
	c, cleanup := newCorpus(t, "")
	defer cleanup()
	for _, name := range []string{"", ".hidden", "a/b", `a\b`} {
		err := c.IndexText(name, "text")
		assert.Equal(t, errors.Cause(err), ErrInvalidName, name)
	}
	_, err := c.Vector("missing")
	assert.Equal(t, errors.Cause(err), ErrNotFound)
	_, err = c.Stats("missing")
	assert.Equal(t, errors.Cause(err), ErrNotFound)
}

func TestIndexText(t *testing.T) {
	t.Parallel()
	c, cleanup := newCorpus(t, "")
	defer cleanup()
	assert.Nil(t, c.IndexText("doc", "the cat sat on the mat"))
	v, err := c.Vector("doc")
	assert.Nil(t, err)
	assert.Equal(t, map[int64]int32(v), words.Count("the cat sat on the mat"))

	// Further text accumulates, and the cached vector is dropped
	assert.Nil(t, c.IndexText("doc", "The end"))
	v, err = c.Vector("doc")
	assert.Nil(t, err)
	assert.Equal(t, v[words.Hash("the")], int32(3))
	assert.Equal(t, v[words.Hash("end")], int32(1))

	st, err := c.Stats("doc")
	assert.Nil(t, err)
	assert.Equal(t, st.Keys, 6)
	assert.Equal(t, st.Words, int64(8))
	assert.True(t, st.Nodes >= 1)

	tr, err := c.Tree("doc")
	assert.Nil(t, err)
	tr2, err := c.Tree("doc")
	assert.Nil(t, err)
	assert.True(t, tr == tr2)
	assert.Nil(t, tr.Check())
}

func TestAddInvalid(t *testing.T) {
	t.Parallel()
	c, cleanup := newCorpus(t, "")
	defer cleanup()
	assert.Nil(t, c.Add("doc", map[int64]int32{1: 1, 2: math.MaxInt32 - 1, 3: 1}))

	// 2 would overflow; 1 and 3 must not be touched either
	err := c.Add("doc", map[int64]int32{1: 5, 2: 2, 3: 5})
	assert.Equal(t, errors.Cause(err), ErrFrequencyOverflow)
	err = c.Add("doc", map[int64]int32{1: 5, 3: -1})
	assert.Equal(t, errors.Cause(err), btree.ErrInvalidFrequency)
	err = c.Add("doc", map[int64]int32{1: 5, btree.NullKey: 1})
	assert.Equal(t, errors.Cause(err), btree.ErrReservedKey)
	v, err := c.Vector("doc")
	assert.Nil(t, err)
	assert.Equal(t, map[int64]int32(v), map[int64]int32{1: 1, 2: math.MaxInt32 - 1, 3: 1})

	// Exactly the maximum still fits
	assert.Nil(t, c.Add("doc", map[int64]int32{2: 1}))
	v, err = c.Vector("doc")
	assert.Nil(t, err)
	assert.Equal(t, v[2], int32(math.MaxInt32))
}

func TestDuplicateAppend(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "corpus")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)
	c, err := New(Config{Dir: dir, Duplicates: btree.DuplicateAppend})
	assert.Nil(t, err)
	defer c.Close()
	assert.Nil(t, c.IndexText("doc", "a b"))
	assert.Nil(t, c.IndexText("doc", "a"))
	v, err := c.Vector("doc")
	assert.Nil(t, err)
	assert.Equal(t, v[words.Hash("a")], int32(2))
	st, err := c.Stats("doc")
	assert.Nil(t, err)
	assert.Equal(t, st.Keys, 3)
}

func TestReopen(t *testing.T) {
	t.Parallel()
	for _, backend := range []string{"file", "bolt", "badger"} {
		backend := backend
		t.Run(backend, func(t *testing.T) {
			t.Parallel()
			dir, err := ioutil.TempDir("", "corpus")
			assert.Nil(t, err)
			defer os.RemoveAll(dir)
			config := Config{Dir: dir, Backend: backend, Password: "pw", Iterations: 64}
			c, err := New(config)
			assert.Nil(t, err)
			assert.Nil(t, c.IndexText("a", "one two two"))
			assert.Nil(t, c.IndexText("b", "three"))
			assert.Nil(t, c.Close())
			err = c.IndexText("a", "more")
			assert.Equal(t, errors.Cause(err), ErrClosed)

			c, err = New(config)
			assert.Nil(t, err)
			defer c.Close()
			names, err := c.Names()
			assert.Nil(t, err)
			assert.Equal(t, names, []string{"a", "b"})
			v, err := c.Vector("a")
			assert.Nil(t, err)
			assert.Equal(t, v[words.Hash("two")], int32(2))
		})
	}
}

func TestInMemory(t *testing.T) {
	t.Parallel()
	_, err := New(Config{Backend: "file"})
	assert.NotEqual(t, err, nil)
	c, err := New(Config{Backend: "inmemory"})
	assert.Nil(t, err)
	defer c.Close()
	assert.Nil(t, c.IndexText("x", "hello"))
	names, err := c.Names()
	assert.Nil(t, err)
	assert.Equal(t, names, []string{"x"})
	assert.True(t, c.Exists("x"))
	assert.True(t, !c.Exists("y"))
}

func TestSimilarity(t *testing.T) {
	t.Parallel()
	c, cleanup := newCorpus(t, "")
	defer cleanup()
	assert.Nil(t, c.IndexText("cats", "cats purr and cats sleep"))
	assert.Nil(t, c.IndexText("cats2", "cats purr and cats sleep"))
	assert.Nil(t, c.IndexText("dogs", "dogs bark loudly"))

	s, err := c.Similarity("cats", "cats2")
	assert.Nil(t, err)
	assert.True(t, math.Abs(s-1) < epsilon, s)
	s, err = c.Similarity("cats", "dogs")
	assert.Nil(t, err)
	assert.Equal(t, s, 0.0)

	d, err := c.Distance("cats", "cats2")
	assert.Nil(t, err)
	assert.Equal(t, d, 0.0)
	d, err = c.Distance("cats", "dogs")
	assert.Nil(t, err)
	// cats: 2,1,1,1 dogs: 1,1,1
	assert.True(t, math.Abs(d-math.Sqrt(10)) < epsilon, d)

	best, score, err := c.MostSimilar("cats")
	assert.Nil(t, err)
	assert.Equal(t, best, "cats2")
	assert.True(t, math.Abs(score-1) < epsilon)

	best, score, err = c.MostSimilar("dogs")
	assert.Nil(t, err)
	assert.Equal(t, best, "cats")
	assert.Equal(t, score, 0.0)
}

func TestMostSimilarTfIdf(t *testing.T) {
	t.Parallel()
	c, cleanup := newCorpus(t, "")
	defer cleanup()
	assert.Nil(t, c.IndexText("query", "go channels goroutines the"))
	assert.Nil(t, c.IndexText("golang", "go channels goroutines and the runtime"))
	assert.Nil(t, c.IndexText("common", "the the the the and"))
	assert.Nil(t, c.IndexText("other", "the cooking of pasta"))

	// "the" is everywhere, so only the rare words count
	best, score, err := c.MostSimilarTfIdf("query")
	assert.Nil(t, err)
	assert.Equal(t, best, "golang")
	assert.True(t, score > 0 && score <= 1+epsilon, score)

	best, _, err = c.MostSimilar("query")
	assert.Nil(t, err)
	assert.Equal(t, best, "golang")
}

func TestNoDocuments(t *testing.T) {
	t.Parallel()
	c, cleanup := newCorpus(t, "")
	defer cleanup()
	assert.Nil(t, c.IndexText("only", "lonely"))
	_, _, err := c.MostSimilar("only")
	assert.Equal(t, err, ErrNoDocuments)
	_, _, err = c.MostSimilarTfIdf("only")
	assert.Equal(t, err, ErrNoDocuments)
}

func TestConcurrent(t *testing.T) {
	t.Parallel()
	c, cleanup := newCorpus(t, "")
	defer cleanup()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				name := fmt.Sprintf("doc%d", (i+j)%4)
				assert.Nil(t, c.IndexText(name, fmt.Sprintf("word%d shared", j)))
			}
		}()
	}
	wg.Wait()
	names, err := c.Names()
	assert.Nil(t, err)
	assert.Equal(t, len(names), 4)
	vs, err := c.LoadVectors(names)
	assert.Nil(t, err)
	assert.Equal(t, len(vs), 4)
	total := int32(0)
	for _, v := range vs {
		total += v[words.Hash("shared")]
	}
	assert.Equal(t, total, int32(80))
	for _, name := range names {
		tr, err := c.Tree(name)
		assert.Nil(t, err)
		assert.Nil(t, tr.Check())
	}
}
