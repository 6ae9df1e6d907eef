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

// Package journal implements the in-memory write-ahead overlay that sits
// between the trie and the KV store's state column (spec §4.2). It is the
// only archive-mode journal: historical nodes are retained forever, and
// reference counting beyond "written once" is out of scope.
package journal

import (
	"sync"

	"github.com/dao-galaxy/bloomevm/bloomtypes"
	"github.com/dao-galaxy/bloomevm/kv"
)

// Overlay buffers trie node writes in memory until Flush folds them into a
// KV batch. It implements trie.HashDB directly so Account DB (and the
// trie) can sit on top of it without knowing it is buffered.
//
// Every method takes the overlay's own lock, so concurrent calls do not
// corrupt it; in normal operation each worker (consensus thread, or one
// query-thread request) still owns its own overlay or Clone (spec §5).
type Overlay struct {
	store   kv.Reader
	mu      sync.RWMutex
	pending map[bloomtypes.Hash][]byte
	removed map[bloomtypes.Hash]bool
}

// New opens an overlay reading underlying state through store, with an
// empty pending buffer.
func New(store kv.Reader) *Overlay {
	return &Overlay{
		store:   store,
		pending: make(map[bloomtypes.Hash][]byte),
		removed: make(map[bloomtypes.Hash]bool),
	}
}

// Get satisfies trie.HashDB: pending writes shadow the underlying store,
// and a pending removal shadows it with absence (property (a), spec §4.2).
func (o *Overlay) Get(hash bloomtypes.Hash) ([]byte, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if v, ok := o.pending[hash]; ok {
		return v, true
	}
	if o.removed[hash] {
		return nil, false
	}
	raw, err := o.store.Get(kv.ColState, hash.Bytes())
	if err != nil {
		// A store fault is not a missing node (see kv.Reader): it is fatal.
		panic(err)
	}
	if raw == nil {
		return nil, false
	}
	return raw, true
}

// Emplace buffers value under hash until the next Flush.
func (o *Overlay) Emplace(hash bloomtypes.Hash, value []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.removed, hash)
	o.pending[hash] = value
}

// Remove buffers a deletion of hash until the next Flush.
func (o *Overlay) Remove(hash bloomtypes.Hash) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.pending, hash)
	o.removed[hash] = true
}

// Clone returns a handle sharing the same underlying store but an
// independent pending view: mutations on the clone never become visible
// on o, and vice versa, until each is separately flushed and written
// (spec §4.2's "independent view boundary", used by create_header's
// speculative execution).
func (o *Overlay) Clone() *Overlay {
	o.mu.RLock()
	defer o.mu.RUnlock()
	c := New(o.store)
	for h, v := range o.pending {
		c.pending[h] = v
	}
	for h := range o.removed {
		c.removed[h] = true
	}
	return c
}

// Flush folds the overlay's buffered writes into batch under the state
// column (journal_under, spec §4.2). It does not clear the overlay's own
// pending map — Get must keep observing these writes until a fresh
// overlay is constructed for the next unit of work — but a caller that
// wants the buffer reset after a successful write may call Reset.
func (o *Overlay) Flush(batch kv.Batch) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for h, v := range o.pending {
		batch.Put(kv.ColState, h.Bytes(), v)
	}
	for h := range o.removed {
		batch.Delete(kv.ColState, h.Bytes())
	}
}

// Reset clears the pending buffer after its contents have been durably
// written, so a long-lived overlay doesn't replay old writes forever.
func (o *Overlay) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = make(map[bloomtypes.Hash][]byte)
	o.removed = make(map[bloomtypes.Hash]bool)
}
