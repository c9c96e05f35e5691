/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 10:40:12 2019 mstenber
 * Last modified: Sun Feb 17 10:12:55 2019 mstenber
 * Edit time:     95 min
 *
 */

// btree package implements a persistent B-tree of word hash ->
// occurrence count. Each tree lives in its own block store; nodes
// are fixed-size blocks, the root is always at address 0 and new
// nodes are appended at the end of the store.
//
// A Tree is not safe for concurrent use, and two Trees opened on the
// same path do not know about each other.
package btree

import (
	"github.com/fingon/go-wordtree/codec"
	"github.com/fingon/go-wordtree/mlog"
	"github.com/fingon/go-wordtree/storage"
	"github.com/fingon/go-wordtree/storage/factory"
	"github.com/pkg/errors"
)

// DuplicatePolicy decides what Insert does with a key that is already
// in the tree.
type DuplicatePolicy int

const (
	// DuplicateUpdate replaces the stored frequency.
	DuplicateUpdate DuplicatePolicy = iota

	// DuplicateAppend stores another entry with the same key;
	// Search returns the first one it encounters.
	DuplicateAppend
)

var duplicatePolicyNames = map[DuplicatePolicy]string{
	DuplicateUpdate: "update",
	DuplicateAppend: "append",
}

func (self DuplicatePolicy) String() string {
	if s, ok := duplicatePolicyNames[self]; ok {
		return s
	}
	return "unknown"
}

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	for k, v := range duplicatePolicyNames {
		if v == s {
			return k, nil
		}
	}
	return DuplicateUpdate, errors.Errorf("unknown duplicate policy %q", s)
}

type options struct {
	backendName string
	backend     storage.Backend
	codec       codec.Codec
	cacheSize   int
	duplicates  DuplicatePolicy
}

type Option func(*options)

// WithBackend selects the storage backend by factory name; default
// is the plain file backend.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// WithStorage uses an already initialized backend instead of
// creating one. The tree takes ownership and closes it.
func WithStorage(be storage.Backend) Option {
	return func(o *options) {
		o.backend = be
	}
}

// WithCodec sets the block codec for backends that use one.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(o *options) {
		o.duplicates = p
	}
}

type Tree struct {
	path       string
	backend    storage.Backend
	cache      *nodeCache
	duplicates DuplicatePolicy
	buf        []byte
}

// Open opens the tree stored at path, creating an empty one if the
// store does not exist or is empty.
func Open(path string, opts ...Option) (*Tree, error) {
	o := options{cacheSize: CacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	be := o.backend
	if be == nil {
		var err error
		be, err = factory.New(o.backendName,
			storage.BackendConfiguration{Path: path,
				BlockSize: BlockSize,
				Codec:     o.codec})
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", path)
		}
	}
	self := &Tree{path: path,
		backend:    be,
		cache:      nodeCache{}.Init(o.cacheSize),
		duplicates: o.duplicates,
		buf:        make([]byte, BlockSize)}
	if err := self.init(); err != nil {
		be.Close()
		return nil, err
	}
	return self, nil
}

func (self *Tree) init() error {
	size, err := self.backend.Size()
	if err != nil {
		return errors.Wrapf(err, "size of %s", self.path)
	}
	if size%BlockSize != 0 {
		return errors.Wrapf(ErrCorrupt, "%s: size %d is not a multiple of %d", self.path, size, BlockSize)
	}
	if size == 0 {
		mlog.Printf2("btree/tree", "t.init %s: new tree", self.path)
		return self.writeNode(NewNode(RootAddress))
	}
	mlog.Printf2("btree/tree", "t.init %s: %d nodes", self.path, size/BlockSize)
	_, err = self.readNode(RootAddress)
	return err
}

func (self *Tree) Path() string {
	return self.path
}

func (self *Tree) DuplicatePolicy() DuplicatePolicy {
	return self.duplicates
}

// Close flushes and releases the backing store. The tree must not be
// used afterwards.
func (self *Tree) Close() error {
	if self.backend == nil {
		return nil
	}
	mlog.Printf2("btree/tree", "t.Close %s", self.path)
	err := self.backend.Sync()
	if err2 := self.backend.Close(); err == nil {
		err = err2
	}
	self.backend = nil
	return err
}

// NumNodes returns the number of nodes allocated in the store.
func (self *Tree) NumNodes() (int, error) {
	if self.backend == nil {
		return 0, ErrClosed
	}
	size, err := self.backend.Size()
	if err != nil {
		return 0, err
	}
	return int(size / BlockSize), nil
}

// readNode returns a private copy of the node at addr.
func (self *Tree) readNode(addr Address) (*Node, error) {
	if self.backend == nil {
		return nil, ErrClosed
	}
	if n, ok := self.cache.get(addr); ok {
		return n, nil
	}
	if addr < 0 {
		return nil, errors.Wrapf(ErrAddressOutOfRange, "%v", addr)
	}
	err := self.backend.ReadBlock(int64(addr), self.buf)
	if err != nil {
		if errors.Cause(err) == storage.ErrOutOfRange {
			return nil, errors.Wrapf(ErrAddressOutOfRange, "%v: %v", addr, err)
		}
		return nil, errors.Wrapf(err, "read node %v", addr)
	}
	n, err := DecodeNode(self.buf)
	if err != nil {
		return nil, err
	}
	if n.Address != addr {
		return nil, errors.Wrapf(ErrCorrupt, "node at %v claims to be at %v", addr, n.Address)
	}
	mlog.Printf2("btree/tree", "t.readNode %v", n)
	self.cache.put(addr, n)
	return n.copy(), nil
}

// writeNode persists n at its address. A cached copy is refreshed in
// place; uncached nodes stay uncached until read.
func (self *Tree) writeNode(n *Node) error {
	if self.backend == nil {
		return ErrClosed
	}
	mlog.Printf2("btree/tree", "t.writeNode %v", n)
	encodeNodeTo(n, self.buf)
	if err := self.backend.WriteBlock(int64(n.Address), self.buf); err != nil {
		return errors.Wrapf(err, "write node %v", n.Address)
	}
	self.cache.refresh(n.Address, n)
	return nil
}

// newAddress returns the address the next allocated node should
// have. The node has to be written before the next call.
func (self *Tree) newAddress() (Address, error) {
	size, err := self.backend.Size()
	if err != nil {
		return NullAddress, errors.Wrap(err, "size")
	}
	return Address(size), nil
}
