/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 13:02:51 2019 mstenber
 * Last modified: Sat Feb 16 17:55:40 2019 mstenber
 * Edit time:     20 min
 *
 */

package btree

import (
	"github.com/pkg/errors"
)

// ErrStop may be returned by visitors to end the iteration early;
// the iterating function then returns nil.
var ErrStop = errors.New("stop iteration")

// ForEach calls visitor on every node of the tree in pre-order,
// children left to right. The visitor gets a private copy of the
// node.
func (self *Tree) ForEach(visitor func(n *Node) error) error {
	stack := []Address{RootAddress}
	for len(stack) > 0 {
		addr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, err := self.readNode(addr)
		if err != nil {
			return err
		}
		if err = visitor(n); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
		for i := MaxChildren - 1; i >= 0; i-- {
			if !n.Children[i].IsNull() {
				stack = append(stack, n.Children[i])
			}
		}
	}
	return nil
}

// ForEachKey calls visitor for every stored (key, frequency) pair,
// in tree order within each node.
func (self *Tree) ForEachKey(visitor func(key int64, freq int32) error) error {
	return self.ForEach(func(n *Node) error {
		nk := n.NumKeys()
		for i := 0; i < nk; i++ {
			if err := visitor(n.Keys[i], n.Frequencies[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// scanBlocks decodes every block of the store in address order,
// bypassing the tree structure and the cache.
func (self *Tree) scanBlocks(visitor func(n *Node) error) error {
	if self.backend == nil {
		return ErrClosed
	}
	size, err := self.backend.Size()
	if err != nil {
		return err
	}
	b := make([]byte, BlockSize)
	for ofs := int64(0); ofs < size; ofs += BlockSize {
		if err = self.backend.ReadBlock(ofs, b); err != nil {
			return errors.Wrapf(err, "scan @%d", ofs)
		}
		n, err := DecodeNode(b)
		if err != nil {
			return err
		}
		if err = visitor(n); err != nil {
			return err
		}
	}
	return nil
}
