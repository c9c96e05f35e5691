/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 11:30:27 2019 mstenber
 * Last modified: Sun Feb 17 10:20:31 2019 mstenber
 * Edit time:     84 min
 *
 */

package btree

import (
	"github.com/fingon/go-wordtree/mlog"
	"github.com/pkg/errors"
)

// Insert adds key with frequency freq to the tree. Full nodes are
// split on the way down, so the leaf that receives the key always
// has room.
func (self *Tree) Insert(key int64, freq int32) error {
	if key == NullKey {
		return errors.Wrapf(ErrReservedKey, "%d", key)
	}
	if freq < 0 {
		return errors.Wrapf(ErrInvalidFrequency, "%d", freq)
	}
	mlog.Printf2("btree/insert", "t.Insert %d:%d", key, freq)
	if self.duplicates == DuplicateUpdate {
		n, i, err := self.find(key)
		if err != nil {
			return err
		}
		if n != nil {
			if n.Frequencies[i] == freq {
				return nil
			}
			n.Frequencies[i] = freq
			mlog.Printf2("btree/insert", " updated in %v", n.Address)
			return self.writeNode(n)
		}
	}
	root, err := self.readNode(RootAddress)
	if err != nil {
		return err
	}
	if root.IsFull() {
		root, err = self.growRoot(root)
		if err != nil {
			return err
		}
	}
	return self.insertNonFull(root, key, freq)
}

// growRoot moves the full root elsewhere, puts an empty root above
// it at RootAddress and splits the old root in two.
func (self *Tree) growRoot(root *Node) (*Node, error) {
	addr, err := self.newAddress()
	if err != nil {
		return nil, err
	}
	mlog.Printf2("btree/insert", " growRoot: old root to %v", addr)
	old := root.copy()
	old.Address = addr
	old.Parent = RootAddress
	if err = self.writeNode(old); err != nil {
		return nil, err
	}
	nr := NewNode(RootAddress)
	nr.Children[0] = addr
	if err = self.writeNode(nr); err != nil {
		return nil, err
	}
	if err = self.splitChild(nr, 0); err != nil {
		return nil, err
	}
	return nr, nil
}

func (self *Tree) insertNonFull(n *Node, key int64, freq int32) error {
	for {
		i := n.NumKeys() - 1
		if n.IsLeaf() {
			for ; i >= 0 && key < n.Keys[i]; i-- {
				n.Keys[i+1] = n.Keys[i]
				n.Frequencies[i+1] = n.Frequencies[i]
			}
			n.Keys[i+1] = key
			n.Frequencies[i+1] = freq
			return self.writeNode(n)
		}
		for i >= 0 && key < n.Keys[i] {
			i--
		}
		i++
		child, err := self.childNode(n, i)
		if err != nil {
			return err
		}
		if child.IsFull() {
			if err = self.splitChild(n, i); err != nil {
				return err
			}
			if key > n.Keys[i] {
				i++
			}
			child, err = self.childNode(n, i)
			if err != nil {
				return err
			}
		}
		n = child
	}
}

func (self *Tree) childNode(n *Node, i int) (*Node, error) {
	addr := n.Children[i]
	if addr.IsNull() {
		return nil, errors.Wrapf(ErrCorrupt, "%v: missing child %d", n.Address, i)
	}
	return self.readNode(addr)
}

// splitChild splits the full child at index i of parent. The right
// half moves to a new node, the median key moves up to parent. parent
// is updated in place; all three nodes are persisted.
func (self *Tree) splitChild(parent *Node, i int) error {
	y, err := self.childNode(parent, i)
	if err != nil {
		return err
	}
	if !y.IsFull() {
		mlog.Panicf("splitChild of non-full %v", y)
	}
	if parent.IsFull() {
		mlog.Panicf("splitChild with full parent %v", parent)
	}
	addr, err := self.newAddress()
	if err != nil {
		return err
	}
	z := NewNode(addr)
	z.Parent = parent.Address
	for j := 0; j < T-1; j++ {
		z.Keys[j] = y.Keys[j+T]
		z.Frequencies[j] = y.Frequencies[j+T]
	}
	for j := 0; j < T; j++ {
		z.Children[j] = y.Children[j+T]
	}
	medianKey, medianFreq := y.Keys[T-1], y.Frequencies[T-1]
	for j := T - 1; j < MaxKeys; j++ {
		y.Keys[j] = NullKey
		y.Frequencies[j] = NullFrequency
	}
	for j := T; j < MaxChildren; j++ {
		y.Children[j] = NullAddress
	}
	y.Parent = parent.Address

	nk := parent.NumKeys()
	for j := nk; j > i; j-- {
		parent.Children[j+1] = parent.Children[j]
	}
	parent.Children[i+1] = z.Address
	for j := nk - 1; j >= i; j-- {
		parent.Keys[j+1] = parent.Keys[j]
		parent.Frequencies[j+1] = parent.Frequencies[j]
	}
	parent.Keys[i] = medianKey
	parent.Frequencies[i] = medianFreq
	mlog.Printf2("btree/insert", " splitChild %v: %v | %d | %v", parent.Address, y, medianKey, z)

	// z first; it claims the address newAddress returned. y is
	// truncated on disk only after parent refers to z.
	for _, n := range []*Node{z, parent, y} {
		if err = self.writeNode(n); err != nil {
			return err
		}
	}
	for _, n := range []*Node{parent, y, z} {
		if err = self.propagateChildren(n); err != nil {
			return err
		}
	}
	return nil
}

// propagateChildren points the parent pointer of every child of n at
// n.
func (self *Tree) propagateChildren(n *Node) error {
	for _, addr := range n.Children {
		if addr.IsNull() {
			continue
		}
		c, err := self.readNode(addr)
		if err != nil {
			return err
		}
		if c.Parent == n.Address {
			continue
		}
		c.Parent = n.Address
		if err = self.writeNode(c); err != nil {
			return err
		}
	}
	return nil
}
