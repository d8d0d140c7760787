// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists router state in a key-value database.
//
// Layout:
//
//	"n" + account          -> nonce, 8 bytes big endian
//	"c" + commitment       -> RLP exit record
//	"e" + account + nonce  -> enter proof bytes
//
// Writes are staged in a Txn and reach the database as one batch. Every Txn
// also remembers the values it overwrote so a committed Txn can be reverted.
package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/ethdb"
	"github.com/luxfi/geth/rlp"

	"github.com/luxfi/bridge"
)

var (
	noncePrefix    = []byte("n")
	consumedPrefix = []byte("c")
	enterPrefix    = []byte("e")

	errCorruptNonce = errors.New("corrupt nonce record")
	errNonceWrapped = errors.New("nonce overflow")
	errClosedTxn    = errors.New("transaction already finished")
)

// Database is the subset of ethdb used by the store.
type Database interface {
	ethdb.KeyValueReader
	ethdb.Batcher
}

// Store reads committed router state.
type Store struct {
	db Database
}

func New(db Database) *Store {
	return &Store{db: db}
}

type exitRecord struct {
	Token         common.Address
	Claimant      common.Address
	Amount        *uint256.Int
	LocalChainID  uint64
	SourceChainID uint64
}

func nonceKey(addr common.Address) []byte {
	return append(append([]byte{}, noncePrefix...), addr.Bytes()...)
}

func consumedKey(c bridge.Commitment) []byte {
	return append(append([]byte{}, consumedPrefix...), c.Bytes()...)
}

func enterKey(addr common.Address, nonce uint64) []byte {
	k := make([]byte, 0, len(enterPrefix)+common.AddressLength+8)
	k = append(k, enterPrefix...)
	k = append(k, addr.Bytes()...)
	return binary.BigEndian.AppendUint64(k, nonce)
}

// get returns nil without error for a missing key.
func (s *Store) get(key []byte) ([]byte, error) {
	ok, err := s.db.Has(key)
	if err != nil || !ok {
		return nil, err
	}
	return s.db.Get(key)
}

// Nonce returns the next enter nonce of addr.
func (s *Store) Nonce(addr common.Address) (uint64, error) {
	v, err := s.get(nonceKey(addr))
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("%w for %s: %d bytes", errCorruptNonce, addr, len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

// Consumed reports whether a successful exit recorded c.
func (s *Store) Consumed(c bridge.Commitment) (bool, error) {
	return s.db.Has(consumedKey(c))
}

// Exit returns the exit recorded for c.
func (s *Store) Exit(c bridge.Commitment) (*bridge.ExitEvent, bool, error) {
	v, err := s.get(consumedKey(c))
	if err != nil || v == nil {
		return nil, false, err
	}
	var rec exitRecord
	if err := rlp.DecodeBytes(v, &rec); err != nil {
		return nil, false, fmt.Errorf("exit record %s: %w", c, err)
	}
	return &bridge.ExitEvent{
		Token:         rec.Token,
		Claimant:      rec.Claimant,
		Amount:        rec.Amount,
		Commitment:    c,
		LocalChainID:  rec.LocalChainID,
		SourceChainID: rec.SourceChainID,
	}, true, nil
}

// EnterProof returns the proof bytes emitted by the enter of addr with nonce.
func (s *Store) EnterProof(addr common.Address, nonce uint64) ([]byte, bool, error) {
	v, err := s.get(enterKey(addr, nonce))
	if err != nil || v == nil {
		return nil, false, err
	}
	return v, true, nil
}

// Begin starts a transaction against the committed state.
func (s *Store) Begin() *Txn {
	return &Txn{
		store: s,
		batch: s.db.NewBatch(),
	}
}

// Txn is a staged state transition and its inverse.
type Txn struct {
	store  *Store
	batch  ethdb.Batch
	writes []write

	committed bool
	finished  bool
}

// write is one staged value and the value it replaces. A nil prev means the
// key was absent.
type write struct {
	key   []byte
	value []byte
	prev  []byte
}

func (t *Txn) put(key, value []byte) error {
	if t.committed || t.finished {
		return errClosedTxn
	}
	prev, err := t.store.get(key)
	if err != nil {
		return err
	}
	t.writes = append(t.writes, write{key: key, value: value, prev: prev})
	return t.batch.Put(key, value)
}

// IncrementNonce stages nonce+1 for addr and returns the nonce being used.
// Only one increment per account per Txn is supported.
func (t *Txn) IncrementNonce(addr common.Address) (uint64, error) {
	nonce, err := t.store.Nonce(addr)
	if err != nil {
		return 0, err
	}
	if nonce+1 == 0 {
		return 0, fmt.Errorf("%w for %s", errNonceWrapped, addr)
	}
	return nonce, t.put(nonceKey(addr), binary.BigEndian.AppendUint64(nil, nonce+1))
}

// PutEnterProof stages the proof bytes of an enter.
func (t *Txn) PutEnterProof(addr common.Address, nonce uint64, raw []byte) error {
	return t.put(enterKey(addr, nonce), raw)
}

// Consume stages ev.Commitment as consumed together with its exit record.
func (t *Txn) Consume(ev *bridge.ExitEvent) error {
	v, err := rlp.EncodeToBytes(&exitRecord{
		Token:         ev.Token,
		Claimant:      ev.Claimant,
		Amount:        ev.Amount,
		LocalChainID:  ev.LocalChainID,
		SourceChainID: ev.SourceChainID,
	})
	if err != nil {
		return err
	}
	return t.put(consumedKey(ev.Commitment), v)
}

// Commit writes the staged batch atomically.
func (t *Txn) Commit() error {
	if t.committed || t.finished {
		return errClosedTxn
	}
	if err := t.batch.Write(); err != nil {
		return err
	}
	t.committed = true
	return nil
}

// Revert undoes a committed Txn. Reverting an uncommitted Txn discards it.
//
// A key that was overwritten after the commit, by a Txn already released
// with Done, keeps its newer value.
func (t *Txn) Revert() error {
	if t.finished {
		return errClosedTxn
	}
	t.finished = true
	t.batch.Reset()
	if !t.committed {
		return nil
	}

	undo := t.store.db.NewBatch()
	for i := len(t.writes) - 1; i >= 0; i-- {
		w := t.writes[i]
		cur, err := t.store.get(w.key)
		if err != nil {
			return err
		}
		if !bytes.Equal(cur, w.value) {
			continue
		}
		if w.prev == nil {
			err = undo.Delete(w.key)
		} else {
			err = undo.Put(w.key, w.prev)
		}
		if err != nil {
			return err
		}
	}
	t.writes = nil
	return undo.Write()
}

// Done releases a committed Txn. It can no longer be reverted.
func (t *Txn) Done() {
	t.finished = true
	t.batch.Reset()
	t.writes = nil
}
