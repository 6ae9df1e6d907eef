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
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// node is the in-memory representation of one trie node. There are four
// concrete kinds:
//
//   - fullNode:  a 17-way branch (16 nibble slots + a value slot)
//   - shortNode: an extension or a leaf, distinguished by hasTerm(Key)
//   - hashNode:  a reference to a node stored elsewhere, by its hash
//   - valueNode: a stored leaf value
type node interface {
	fstring(string) string
}

type (
	fullNode struct {
		Children [17]node
	}
	shortNode struct {
		Key []byte
		Val node
	}
	hashNode  []byte
	valueNode []byte
)

func (n *fullNode) fstring(ind string) string  { return fmt.Sprintf("full@%s", ind) }
func (n *shortNode) fstring(ind string) string { return fmt.Sprintf("short@%s", ind) }
func (n hashNode) fstring(ind string) string   { return fmt.Sprintf("hash(%x)", []byte(n)) }
func (n valueNode) fstring(ind string) string  { return fmt.Sprintf("value(%x)", []byte(n)) }

func (n *fullNode) copy() *fullNode {
	cp := *n
	return &cp
}

// encodeNode returns the canonical RLP encoding of n, embedding any child
// that is itself a resolved (non-hash) node rather than pointing at it —
// the same small-node inlining real Ethereum tries use, so that a leaf
// trie with a handful of entries does not force a HashDB round trip for
// every nibble of traversal.
func encodeNode(n node) []byte {
	switch n := n.(type) {
	case *fullNode:
		var elems [17]interface{}
		for i, c := range n.Children {
			elems[i] = nodeToRLP(c)
		}
		enc, err := rlp.EncodeToBytes(elems)
		if err != nil {
			panic(err)
		}
		return enc
	case *shortNode:
		enc, err := rlp.EncodeToBytes([]interface{}{hexToCompact(n.Key), nodeToRLP(n.Val)})
		if err != nil {
			panic(err)
		}
		return enc
	case valueNode:
		enc, err := rlp.EncodeToBytes([]byte(n))
		if err != nil {
			panic(err)
		}
		return enc
	case nil:
		return []byte{0x80}
	default:
		panic(fmt.Sprintf("encodeNode: unexpected node type %T", n))
	}
}

// nodeToRLP renders a child reference for embedding in its parent's RLP
// list: a hash or value node is emitted as its raw bytes, nil as the RLP
// empty string, and any other (unhashed, "dirty") node is embedded as a
// raw pre-encoded RLP value.
func nodeToRLP(n node) interface{} {
	switch n := n.(type) {
	case nil:
		return []byte{}
	case hashNode:
		return []byte(n)
	case valueNode:
		return []byte(n)
	default:
		return rlp.RawValue(encodeNode(n))
	}
}

// decodeNode parses the RLP encoding of a stored node.
func decodeNode(buf []byte) (node, error) {
	var raw []rlp.RawValue
	if err := rlp.DecodeBytes(buf, &raw); err == nil {
		switch len(raw) {
		case 2:
			return decodeShort(raw)
		case 17:
			return decodeFull(raw)
		default:
			return nil, fmt.Errorf("invalid trie node: %d list elements", len(raw))
		}
	}
	// Not a list: it must be a bare value node (used only at the top level
	// for an account/storage leaf decoded directly by callers, not normally
	// reachable through decodeNode itself).
	var v []byte
	if err := rlp.DecodeBytes(buf, &v); err != nil {
		return nil, fmt.Errorf("invalid trie node encoding: %w", err)
	}
	return valueNode(v), nil
}

func decodeShort(raw []rlp.RawValue) (node, error) {
	var kbuf []byte
	if err := rlp.DecodeBytes(raw[0], &kbuf); err != nil {
		return nil, fmt.Errorf("invalid short node key: %w", err)
	}
	key := compactToHex(kbuf)
	if hasTerm(key) {
		var val []byte
		if err := rlp.DecodeBytes(raw[1], &val); err != nil {
			return nil, fmt.Errorf("invalid short node value: %w", err)
		}
		return &shortNode{Key: key, Val: valueNode(val)}, nil
	}
	val, err := decodeChild(raw[1])
	if err != nil {
		return nil, err
	}
	return &shortNode{Key: key, Val: val}, nil
}

func decodeFull(raw []rlp.RawValue) (node, error) {
	n := &fullNode{}
	for i := 0; i < 16; i++ {
		child, err := decodeChild(raw[i])
		if err != nil {
			return nil, err
		}
		n.Children[i] = child
	}
	var val []byte
	if err := rlp.DecodeBytes(raw[16], &val); err != nil {
		return nil, fmt.Errorf("invalid full node value: %w", err)
	}
	if len(val) > 0 {
		n.Children[16] = valueNode(val)
	}
	return n, nil
}

// decodeChild interprets one RLP element of a branch/extension as either
// a 32-byte hash reference or an embedded sub-node.
func decodeChild(raw rlp.RawValue) (node, error) {
	var b []byte
	if err := rlp.DecodeBytes(raw, &b); err == nil {
		if len(b) == 0 {
			return nil, nil
		}
		if len(b) == 32 {
			return hashNode(b), nil
		}
		return nil, fmt.Errorf("invalid child reference length %d", len(b))
	}
	return decodeNode(raw)
}
