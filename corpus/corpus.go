/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb 14 13:05:27 2019 mstenber
 * Last modified: Sun Feb 17 11:45:08 2019 mstenber
 * Edit time:     124 min
 *
 */

// corpus package manages a directory of word trees, one per
// document, and answers similarity queries across them.
//
// Trees are opened lazily and kept open until Close; the Corpus is
// the only place where a tree should be shared between goroutines, as
// it serializes access to each tree with a per-name lock.
package corpus

import (
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bluele/gcache"
	"github.com/fingon/go-wordtree/btree"
	"github.com/fingon/go-wordtree/codec"
	"github.com/fingon/go-wordtree/mlog"
	"github.com/fingon/go-wordtree/storage"
	"github.com/fingon/go-wordtree/storage/factory"
	"github.com/fingon/go-wordtree/util"
	"github.com/fingon/go-wordtree/words"
	"github.com/pkg/errors"
)

const DefaultVectorCacheSize = 64

var (
	ErrInvalidName = errors.New("invalid document name")
	ErrNoDocuments = errors.New("no documents to compare with")
	ErrNotFound    = errors.New("no such document")
	ErrClosed      = errors.New("corpus closed")

	// ErrFrequencyOverflow is returned by Add if a frequency would
	// no longer fit in 31 bits. Nothing is stored in that case.
	ErrFrequencyOverflow = errors.New("frequency overflow")
)

type Config struct {
	// Dir holds one tree per document. It may be empty only with
	// the inmemory backend.
	Dir string

	// Backend is the storage factory name; default file.
	Backend string

	// Password enables encryption for backends that apply codecs.
	Password, Salt string
	Iterations     int

	// CacheSize is the node cache size of each tree.
	CacheSize int

	Duplicates btree.DuplicatePolicy

	// VectorCacheSize is the number of frequency vectors kept in
	// memory; defaults to DefaultVectorCacheSize.
	VectorCacheSize int

	// LoadPerCPU bounds the number of trees read in parallel.
	LoadPerCPU int
}

type Corpus struct {
	Config

	codec     codec.Codec
	lock      util.MutexLocked
	nameLocks util.NamedLocks
	trees     map[string]*btree.Tree
	vectors   gcache.Cache
	limiter   util.ParallelLimiter
	closed    bool
}

func New(config Config) (*Corpus, error) {
	if config.Backend == "" {
		config.Backend = factory.DefaultBackend
	}
	if config.Dir == "" && config.Backend != "inmemory" {
		return nil, errors.Errorf("backend %s requires a directory", config.Backend)
	}
	if config.Dir != "" {
		if err := os.MkdirAll(config.Dir, 0700); err != nil {
			return nil, errors.Wrapf(err, "unable to create %s", config.Dir)
		}
	}
	if config.VectorCacheSize <= 0 {
		config.VectorCacheSize = DefaultVectorCacheSize
	}
	c, err := codec.New(config.Password, config.Salt, config.Iterations)
	if err != nil {
		return nil, err
	}
	self := &Corpus{Config: config,
		codec: c,
		trees: make(map[string]*btree.Tree)}
	self.limiter.LimitPerCPU = config.LoadPerCPU
	self.vectors = gcache.New(config.VectorCacheSize).
		ARC().
		LoaderFunc(func(k interface{}) (interface{}, error) {
			return self.loadVector(k.(string))
		}).
		Build()
	mlog.Printf2("corpus/corpus", "New %s (%s)", config.Dir, config.Backend)
	return self, nil
}

var fileNameRemoved = regexp.MustCompile(`[./:]`)

// FileName turns an URL into a document name by dropping '.', '/'
// and ':'.
func FileName(url string) string {
	return fileNameRemoved.ReplaceAllString(url, "")
}

func checkName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) {
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}

func (self *Corpus) path(name string) string {
	if self.Dir == "" {
		return name
	}
	return filepath.Join(self.Dir, name)
}

// openTree returns the open tree of name; name lock must be held.
func (self *Corpus) openTree(name string) (*btree.Tree, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	self.lock.Lock()
	closed := self.closed
	t := self.trees[name]
	self.lock.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if t != nil {
		return t, nil
	}
	config := storage.BackendConfiguration{Path: self.path(name),
		BlockSize: btree.BlockSize,
		Codec:     self.codec}
	be, err := factory.New(self.Backend, config)
	if err != nil {
		return nil, err
	}
	t, err = btree.Open(config.Path,
		btree.WithStorage(be),
		btree.WithCacheSize(self.CacheSize),
		btree.WithDuplicatePolicy(self.Duplicates))
	if err != nil {
		return nil, err
	}
	mlog.Printf2("corpus/corpus", "c.openTree %s", name)
	defer self.lock.Locked()()
	self.trees[name] = t
	return t, nil
}

// Do calls cb with the tree of name, opening (or creating) it if
// need be. No other Do of the same name runs at the same time.
func (self *Corpus) Do(name string, cb func(t *btree.Tree) error) error {
	defer self.nameLocks.Locked(name)()
	t, err := self.openTree(name)
	if err != nil {
		return err
	}
	return cb(t)
}

// Tree returns the shared handle of the named tree. It is not safe
// to use concurrently with other operations on the same name; Do is.
func (self *Corpus) Tree(name string) (t *btree.Tree, err error) {
	err = self.Do(name, func(t2 *btree.Tree) error {
		t = t2
		return nil
	})
	return
}

// Exists reports whether the named document has been stored.
func (self *Corpus) Exists(name string) bool {
	self.lock.Lock()
	_, ok := self.trees[name]
	self.lock.Unlock()
	if ok {
		return true
	}
	if self.Dir == "" || checkName(name) != nil {
		return false
	}
	_, err := os.Stat(self.path(name))
	return err == nil
}

// Names returns the sorted names of all documents; both the ones in
// the directory and the ones open.
func (self *Corpus) Names() ([]string, error) {
	seen := make(map[string]bool)
	if self.Dir != "" {
		fis, err := ioutil.ReadDir(self.Dir)
		if err != nil {
			return nil, errors.Wrapf(err, "readdir %s", self.Dir)
		}
		for _, fi := range fis {
			if checkName(fi.Name()) == nil {
				seen[fi.Name()] = true
			}
		}
	}
	self.lock.Lock()
	for name := range self.trees {
		seen[name] = true
	}
	self.lock.Unlock()
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Add adds counts to the frequencies of the named document. Every
// new frequency is computed before the first insert, so an invalid
// count leaves the document unchanged.
func (self *Corpus) Add(name string, counts map[int64]int32) error {
	keys := make([]int64, 0, len(counts))
	for k, f := range counts {
		if k == btree.NullKey {
			return errors.Wrapf(btree.ErrReservedKey, "%s: %d", name, k)
		}
		if f < 0 {
			return errors.Wrapf(btree.ErrInvalidFrequency, "%s: %d:%d", name, k, f)
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	defer self.vectors.Remove(name)
	return self.Do(name, func(t *btree.Tree) error {
		freqs := make([]int32, len(keys))
		for i, k := range keys {
			f := counts[k]
			if t.DuplicatePolicy() == btree.DuplicateUpdate {
				old, err := t.Search(k)
				if err != nil {
					return err
				}
				if int64(f)+int64(old) > math.MaxInt32 {
					return errors.Wrapf(ErrFrequencyOverflow, "%s: %d:%d+%d", name, k, old, f)
				}
				f += old
			}
			freqs[i] = f
		}
		for i, k := range keys {
			if err := t.Insert(k, freqs[i]); err != nil {
				return err
			}
		}
		mlog.Printf2("corpus/corpus", "c.Add %s: %d keys", name, len(keys))
		return nil
	})
}

// IndexText counts the words of text and adds them to the named
// document.
func (self *Corpus) IndexText(name, text string) error {
	return self.Add(name, words.Count(text))
}

// Close closes all open trees. The corpus must not be used
// afterwards.
func (self *Corpus) Close() error {
	self.lock.Lock()
	self.closed = true
	names := make([]string, 0, len(self.trees))
	for name := range self.trees {
		names = append(names, name)
	}
	self.lock.Unlock()

	var firstErr error
	for _, name := range names {
		unlock := self.nameLocks.Locked(name)
		self.lock.Lock()
		t := self.trees[name]
		delete(self.trees, name)
		self.lock.Unlock()
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "close %s", name)
		}
		unlock()
	}
	self.vectors.Purge()
	mlog.Printf2("corpus/corpus", "c.Close %s: %d trees", self.Dir, len(names))
	return firstErr
}
