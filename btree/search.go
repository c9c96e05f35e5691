/*
 * Author: Markus Stenberg <fingon@iki.fi>
 *
 * Copyright (c) 2019 Markus Stenberg
 *
 * Created:       Wed Feb 13 12:45:10 2019 mstenber
 * Last modified: Sat Feb 16 17:48:22 2019 mstenber
 * Edit time:     14 min
 *
 */

package btree

// find returns the node holding key and the index of key in it, or
// nil node if the key is not in the tree.
func (self *Tree) find(key int64) (*Node, int, error) {
	addr := RootAddress
	for {
		n, err := self.readNode(addr)
		if err != nil {
			return nil, 0, err
		}
		nk := n.NumKeys()
		i := 0
		for i < nk && key > n.Keys[i] {
			i++
		}
		if i < nk && key == n.Keys[i] {
			return n, i, nil
		}
		addr = n.Children[i]
		if addr.IsNull() {
			return nil, 0, nil
		}
	}
}

// Search returns the frequency stored for key, or 0 if the key is not
// in the tree.
func (self *Tree) Search(key int64) (int32, error) {
	n, i, err := self.find(key)
	if err != nil || n == nil {
		return 0, err
	}
	return n.Frequencies[i], nil
}
