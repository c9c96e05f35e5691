/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 10:05:55 2019 mstenber
 * Last modified: Sat Feb 16 17:31:12 2019 mstenber
 * Edit time:     25 min
 *
 */

package btree

import (
	"container/list"

	"github.com/fingon/go-wordtree/mlog"
)

// nodeCache is a bounded address -> node map that evicts in
// insertion order. Lookups do not affect the order, and neither does
// re-putting an address that is already present.
//
// The cache keeps its own copies of nodes.
type nodeCache struct {
	capacity int
	order    *list.List
	entries  map[Address]*cacheEntry
}

type cacheEntry struct {
	node    Node
	element *list.Element
}

func (self nodeCache) Init(capacity int) *nodeCache {
	if capacity <= 0 {
		capacity = CacheSize
	}
	self.capacity = capacity
	self.order = list.New()
	self.entries = make(map[Address]*cacheEntry)
	return &self
}

func (self *nodeCache) get(addr Address) (*Node, bool) {
	e, ok := self.entries[addr]
	if !ok {
		return nil, false
	}
	return e.node.copy(), true
}

func (self *nodeCache) put(addr Address, n *Node) {
	if e, ok := self.entries[addr]; ok {
		e.node = *n
		return
	}
	e := &cacheEntry{node: *n}
	e.element = self.order.PushBack(addr)
	self.entries[addr] = e
	for self.order.Len() > self.capacity {
		oldest := self.order.Front()
		oaddr := self.order.Remove(oldest).(Address)
		delete(self.entries, oaddr)
		mlog.Printf2("btree/cache", "nc.put evicted %v", oaddr)
	}
}

// refresh replaces the value of addr if it is cached. The position
// in the eviction order is kept.
func (self *nodeCache) refresh(addr Address, n *Node) bool {
	e, ok := self.entries[addr]
	if !ok {
		return false
	}
	e.node = *n
	return true
}

func (self *nodeCache) len() int {
	return len(self.entries)
}

// oldest returns the address that would be evicted next.
func (self *nodeCache) oldest() (Address, bool) {
	e := self.order.Front()
	if e == nil {
		return NullAddress, false
	}
	return e.Value.(Address), true
}
