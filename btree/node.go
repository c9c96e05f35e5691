/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 09:10:45 2019 mstenber
 * Last modified: Sat Feb 16 17:22:03 2019 mstenber
 * Edit time:     18 min
 *
 */

package btree

import (
	"fmt"
	"strings"
)

// Node is the in-memory form of one block. Slots are fixed size;
// keys (and their frequencies) are packed to the left in ascending
// order, unused slots hold the Null values.
type Node struct {
	Address     Address
	Parent      Address
	Children    [MaxChildren]Address
	Keys        [MaxKeys]int64
	Frequencies [MaxKeys]int32
}

// NewNode returns an empty leaf at addr with no parent.
func NewNode(addr Address) *Node {
	n := &Node{Address: addr, Parent: NullAddress}
	for i := range n.Children {
		n.Children[i] = NullAddress
	}
	for i := range n.Keys {
		n.Keys[i] = NullKey
		n.Frequencies[i] = NullFrequency
	}
	return n
}

func (self *Node) copy() *Node {
	n := *self
	return &n
}

// IsLeaf is true if no child slot is in use.
func (self *Node) IsLeaf() bool {
	for _, c := range self.Children {
		if !c.IsNull() {
			return false
		}
	}
	return true
}

// NumKeys returns the number of occupied key slots.
func (self *Node) NumKeys() int {
	for i, k := range self.Keys {
		if k == NullKey {
			return i
		}
	}
	return MaxKeys
}

// NumChildren returns the number of occupied child slots.
func (self *Node) NumChildren() (n int) {
	for _, c := range self.Children {
		if !c.IsNull() {
			n++
		}
	}
	return
}

func (self *Node) IsFull() bool {
	return self.NumKeys() == MaxKeys
}

func (self *Node) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Node%v{p:%v", self.Address, self.Parent)
	nk := self.NumKeys()
	for i := 0; i < nk; i++ {
		fmt.Fprintf(&sb, " %d:%d", self.Keys[i], self.Frequencies[i])
	}
	if !self.IsLeaf() {
		sb.WriteString(" c:")
		for i, c := range self.Children {
			if !c.IsNull() {
				fmt.Fprintf(&sb, " %d%v", i, c)
			}
		}
	}
	sb.WriteString("}")
	return sb.String()
}
