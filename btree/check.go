/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Thu Feb 14 08:15:42 2019 mstenber
 * Last modified: Sun Feb 17 09:58:03 2019 mstenber
 * Edit time:     40 min
 *
 */

package btree

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

type checkFrame struct {
	addr, parent Address
	depth        int
	// Keys of the subtree must lie within [lo, hi]
	lo, hi int64
}

// Check walks the whole tree and verifies the structural invariants:
// node addresses and parent pointers agree, slots are packed, keys
// are ordered (strictly, unless duplicates are appended) and within
// the range their ancestors allow, non-root nodes hold between T-1
// and 2T-1 keys, internal nodes have one more child than keys, and
// all leaves are at the same depth. Violations are reported as
// ErrCorrupt.
func (self *Tree) Check() error {
	strict := self.duplicates == DuplicateUpdate
	leafDepth := -1
	stack := []checkFrame{{addr: RootAddress, parent: NullAddress,
		lo: math.MinInt64, hi: math.MaxInt64}}
	fail := func(n *Node, format string, args ...interface{}) error {
		return errors.Wrapf(ErrCorrupt, "%v: %s", n, fmt.Sprintf(format, args...))
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, err := self.readNode(f.addr)
		if err != nil {
			return err
		}
		if n.Parent != f.parent {
			return fail(n, "parent %v, expected %v", n.Parent, f.parent)
		}
		if n.Address%BlockSize != 0 {
			return fail(n, "unaligned address")
		}
		nk := n.NumKeys()
		for i := nk; i < MaxKeys; i++ {
			if n.Keys[i] != NullKey || n.Frequencies[i] != NullFrequency {
				return fail(n, "slot %d not empty", i)
			}
		}
		for i := 0; i < nk; i++ {
			k := n.Keys[i]
			if k < f.lo || k > f.hi {
				return fail(n, "key %d outside [%d, %d]", k, f.lo, f.hi)
			}
			if n.Frequencies[i] < 0 {
				return fail(n, "negative frequency at %d", i)
			}
			if i > 0 && (k < n.Keys[i-1] || strict && k == n.Keys[i-1]) {
				return fail(n, "keys out of order at %d", i)
			}
		}
		if f.addr != RootAddress && (nk < T-1 || nk > MaxKeys) {
			return fail(n, "%d keys", nk)
		}
		if n.IsLeaf() {
			if leafDepth < 0 {
				leafDepth = f.depth
			} else if leafDepth != f.depth {
				return fail(n, "leaf at depth %d, expected %d", f.depth, leafDepth)
			}
			continue
		}
		for i := 0; i < MaxChildren; i++ {
			if n.Children[i].IsNull() != (i > nk) {
				return fail(n, "child slot %d does not match %d keys", i, nk)
			}
		}
		for i := nk; i >= 0; i-- {
			cf := checkFrame{addr: n.Children[i], parent: n.Address,
				depth: f.depth + 1, lo: f.lo, hi: f.hi}
			if i > 0 {
				cf.lo = n.Keys[i-1]
			}
			if i < nk {
				cf.hi = n.Keys[i]
			}
			stack = append(stack, cf)
		}
	}
	return nil
}
