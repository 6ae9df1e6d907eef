// Copyright 2024 The Bloomevm Authors
// This file is part of Bloomevm.
//
// Bloomevm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Bloomevm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Bloomevm. If not, see <http://www.gnu.org/licenses/>.

package trie

import (
	"bytes"
	"fmt"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
)

// Trie is a Merkle-Patricia trie over raw (already-hashed) keys. Callers
// that want Ethereum's "secure trie" semantics — external keys hashed
// with Keccak-256 before use — should go through SecureTrie instead of
// calling Trie directly (spec §4.4).
type Trie struct {
	root node
	db   HashDB
}

// New opens the trie rooted at root. A zero hash or the canonical
// empty-trie hash yields an empty trie with no HashDB access at all; any
// other root must already resolve in db.
func New(root bloomtypes.Hash, db HashDB) (*Trie, error) {
	t := &Trie{db: db}
	if root == (bloomtypes.Hash{}) || root == bloomtypes.EmptyRootHash {
		return t, nil
	}
	if _, ok := db.Get(root); !ok {
		return nil, fmt.Errorf("missing trie root %x", root)
	}
	t.root = hashNode(root.Bytes())
	return t, nil
}

// Get looks up key (already in its final, trie-ready form) and returns its
// value, or ok=false if absent.
func (t *Trie) Get(key []byte) (value []byte, ok bool, err error) {
	v, newroot, didResolve, err := t.get(t.root, keybytesToHex(key), 0)
	if err != nil {
		return nil, false, err
	}
	if didResolve {
		t.root = newroot
	}
	if v == nil {
		return nil, false, nil
	}
	return []byte(v.(valueNode)), true, nil
}

func (t *Trie) get(origNode node, key []byte, pos int) (value node, newnode node, didResolve bool, err error) {
	switch n := origNode.(type) {
	case nil:
		return nil, nil, false, nil
	case valueNode:
		return n, n, false, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !bytes.Equal(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, n, false, nil
		}
		value, newnode, didResolve, err = t.get(n.Val, key, pos+len(n.Key))
		if err == nil && didResolve {
			n = n.copy()
			n.Val = newnode
		}
		return value, n, didResolve, err
	case *fullNode:
		value, newnode, didResolve, err = t.get(n.Children[key[pos]], key, pos+1)
		if err == nil && didResolve {
			n = n.copy()
			n.Children[key[pos]] = newnode
		}
		return value, n, didResolve, err
	case hashNode:
		child, err := t.resolveHash(n)
		if err != nil {
			return nil, n, true, err
		}
		value, newnode, _, err := t.get(child, key, pos)
		return value, newnode, true, err
	default:
		panic(fmt.Sprintf("invalid trie node: %T", origNode))
	}
}

// Insert upserts value at key.
func (t *Trie) Insert(key, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	_, n, err := t.insert(t.root, nil, keybytesToHex(key), valueNode(value))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) insert(n node, prefix, key []byte, value node) (bool, node, error) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok {
			return !bytes.Equal(v, value.(valueNode)), value, nil
		}
		return true, value, nil
	}
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen == len(n.Key) {
			dirty, nn, err := t.insert(n.Val, concat(prefix, key[:matchlen]...), key[matchlen:], value)
			if !dirty || err != nil {
				return false, n, err
			}
			return true, &shortNode{n.Key, nn}, nil
		}
		branch := &fullNode{}
		var err error
		_, branch.Children[n.Key[matchlen]], err = t.insert(nil, concat(prefix, n.Key[:matchlen+1]...), n.Key[matchlen+1:], n.Val)
		if err != nil {
			return false, nil, err
		}
		_, branch.Children[key[matchlen]], err = t.insert(nil, concat(prefix, key[:matchlen+1]...), key[matchlen+1:], value)
		if err != nil {
			return false, nil, err
		}
		if matchlen == 0 {
			return true, branch, nil
		}
		return true, &shortNode{append([]byte(nil), key[:matchlen]...), branch}, nil

	case *fullNode:
		dirty, nn, err := t.insert(n.Children[key[0]], concat(prefix, key[0]), key[1:], value)
		if !dirty || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.Children[key[0]] = nn
		return true, n, nil

	case nil:
		return true, &shortNode{append([]byte(nil), key...), value}, nil

	case hashNode:
		rn, err := t.resolveHash(n)
		if err != nil {
			return false, nil, err
		}
		dirty, nn, err := t.insert(rn, prefix, key, value)
		if !dirty || err != nil {
			return false, rn, err
		}
		return true, nn, nil

	default:
		panic(fmt.Sprintf("invalid trie node: %T", n))
	}
}

// Delete removes key from the trie, if present.
func (t *Trie) Delete(key []byte) error {
	_, n, err := t.delete(t.root, nil, keybytesToHex(key))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) delete(n node, prefix, key []byte) (bool, node, error) {
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return false, n, nil
		}
		if matchlen == len(key) {
			return true, nil, nil
		}
		dirty, child, err := t.delete(n.Val, concat(prefix, key[:len(n.Key)]...), key[len(n.Key):])
		if !dirty || err != nil {
			return false, n, err
		}
		switch child := child.(type) {
		case *shortNode:
			return true, &shortNode{concat(n.Key, child.Key...), child.Val}, nil
		default:
			return true, &shortNode{n.Key, child}, nil
		}

	case *fullNode:
		dirty, nn, err := t.delete(n.Children[key[0]], concat(prefix, key[0]), key[1:])
		if !dirty || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.Children[key[0]] = nn

		pos := -1
		for i, cld := range &n.Children {
			if cld != nil {
				if pos == -1 {
					pos = i
				} else {
					pos = -2
					break
				}
			}
		}
		if pos >= 0 {
			if pos != 16 {
				cnode, err := t.resolve(n.Children[pos])
				if err != nil {
					return false, nil, err
				}
				if cnode, ok := cnode.(*shortNode); ok {
					k := concat([]byte{byte(pos)}, cnode.Key...)
					return true, &shortNode{k, cnode.Val}, nil
				}
			}
			return true, &shortNode{[]byte{byte(pos)}, n.Children[pos]}, nil
		}
		return true, n, nil

	case valueNode:
		return true, nil, nil

	case nil:
		return false, nil, nil

	case hashNode:
		rn, err := t.resolveHash(n)
		if err != nil {
			return false, nil, err
		}
		dirty, nn, err := t.delete(rn, prefix, key)
		if !dirty || err != nil {
			return false, rn, err
		}
		return true, nn, nil

	default:
		panic(fmt.Sprintf("invalid trie node: %T", n))
	}
}

func (t *Trie) resolveHash(n hashNode) (node, error) {
	hash := bloomtypes.BytesToHash([]byte(n))
	enc, ok := t.db.Get(hash)
	if !ok {
		return nil, fmt.Errorf("missing trie node %x", hash)
	}
	return decodeNode(enc)
}

func (t *Trie) resolve(n node) (node, error) {
	if hn, ok := n.(hashNode); ok {
		return t.resolveHash(hn)
	}
	return n, nil
}

// Commit hashes every dirty node bottom-up, writes each one into the
// HashDB keyed by its own hash, and returns the new root (spec §4.4: "the
// trie object ... commits the final root back to the caller's variable").
// An empty trie commits to the canonical empty-trie hash without any
// HashDB access, mirroring the original prototype's short-circuit for
// KECCAK_NULL_RLP.
func (t *Trie) Commit() bloomtypes.Hash {
	if t.root == nil {
		return bloomtypes.EmptyRootHash
	}
	hashed := t.hashAndStore(t.root, true)
	t.root = hashed
	return bloomtypes.BytesToHash([]byte(hashed.(hashNode)))
}

// Root commits the trie (see Commit), writing any dirty nodes to the
// HashDB, and returns the resulting root hash.
func (t *Trie) Root() bloomtypes.Hash {
	return t.Commit()
}

func (t *Trie) hashAndStore(n node, force bool) node {
	switch n.(type) {
	case hashNode, valueNode, nil:
		return n
	}
	collapsed := t.hashChildren(n)
	enc := encodeNode(collapsed)
	if !force && len(enc) < 32 {
		return collapsed
	}
	hash := bloomtypes.Keccak256(enc)
	t.db.Emplace(hash, enc)
	return hashNode(hash.Bytes())
}

func (t *Trie) hashChildren(n node) node {
	switch n := n.(type) {
	case *shortNode:
		return &shortNode{Key: n.Key, Val: t.hashAndStore(n.Val, false)}
	case *fullNode:
		col := &fullNode{}
		for i, c := range n.Children {
			if c != nil {
				col.Children[i] = t.hashAndStore(c, false)
			}
		}
		return col
	default:
		return n
	}
}

// KV is one (key, value) pair surfaced by Iterate. Key is the trie's
// internal 32-byte key — for a SecureTrie this is Keccak(preimage), and
// the preimage itself is not recoverable from the trie alone (spec §4.4:
// "key_hash_preimage_absent").
type KV struct {
	Key   bloomtypes.Hash
	Value []byte
}

// Iterate returns every (key, value) pair in the trie, in key order. It is
// a finite, eagerly-materialized walk — used only for CLI address
// enumeration and storage dumps (spec §4.4), never on a hot path.
func (t *Trie) Iterate() ([]KV, error) {
	var out []KV
	if err := t.iterate(t.root, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Trie) iterate(n node, path []byte, out *[]KV) error {
	switch n := n.(type) {
	case nil:
		return nil
	case valueNode:
		if len(path) != 65 || !hasTerm(path) { // 32 bytes, 2 nibbles each, plus the terminator
			return fmt.Errorf("unexpected leaf depth %d", len(path))
		}
		*out = append(*out, KV{Key: bloomtypes.BytesToHash(hexToKeybytes(path)), Value: []byte(n)})
		return nil
	case *shortNode:
		return t.iterate(n.Val, concat(path, n.Key...), out)
	case *fullNode:
		for i, c := range n.Children {
			if c == nil {
				continue
			}
			if i == 16 {
				if err := t.iterate(c, concat(path, 16), out); err != nil {
					return err
				}
				continue
			}
			if err := t.iterate(c, concat(path, byte(i)), out); err != nil {
				return err
			}
		}
		return nil
	case hashNode:
		child, err := t.resolveHash(n)
		if err != nil {
			return err
		}
		return t.iterate(child, path, out)
	default:
		panic(fmt.Sprintf("invalid trie node: %T", n))
	}
}

func concat(a []byte, b ...byte) []byte {
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
