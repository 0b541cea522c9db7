// store.go - Durable journal behind the pool state machine.
//
// The pool holds authoritative state in memory and write-through journals
// every accepted mutation (leaves, nullifiers, fee nonce) so a restarted
// node can replay itself back to the same root. Two implementations: an
// in-memory store for tests and a leveldb-backed one for the daemon.

package pool

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Store journals accepted pool mutations.
type Store interface {
	// AppendLeaves writes one or more consecutive leaves starting at
	// first. All-or-nothing: a failure must leave none of them journaled.
	AppendLeaves(first uint32, leaves ...common.Hash) error
	PutNullifier(n common.Hash) error
	// DeleteNullifier undoes a mark that never became observable
	// (payout failed inside the same serialized operation).
	DeleteNullifier(n common.Hash) error
	PutFeeNonce(n uint64) error
	// ReplayLeaves yields journaled leaves in insertion order.
	ReplayLeaves(fn func(index uint32, leaf common.Hash) error) error
	ReplayNullifiers(fn func(n common.Hash) error) error
	FeeNonce() (uint64, error)
	Close() error
}

// memoryStore keeps the journal in process memory.
type memoryStore struct {
	leaves     []common.Hash
	nullifiers map[common.Hash]struct{}
	feeNonce   uint64
}

// NewMemoryStore returns a volatile store.
func NewMemoryStore() Store {
	return &memoryStore{nullifiers: make(map[common.Hash]struct{})}
}

func (s *memoryStore) AppendLeaves(first uint32, leaves ...common.Hash) error {
	if int(first) != len(s.leaves) {
		return fmt.Errorf("leaf journal gap: index %d, have %d leaves", first, len(s.leaves))
	}
	s.leaves = append(s.leaves, leaves...)
	return nil
}

func (s *memoryStore) PutNullifier(n common.Hash) error {
	s.nullifiers[n] = struct{}{}
	return nil
}

func (s *memoryStore) DeleteNullifier(n common.Hash) error {
	delete(s.nullifiers, n)
	return nil
}

func (s *memoryStore) PutFeeNonce(n uint64) error {
	s.feeNonce = n
	return nil
}

func (s *memoryStore) ReplayLeaves(fn func(uint32, common.Hash) error) error {
	for i, leaf := range s.leaves {
		if err := fn(uint32(i), leaf); err != nil {
			return err
		}
	}
	return nil
}

func (s *memoryStore) ReplayNullifiers(fn func(common.Hash) error) error {
	for n := range s.nullifiers {
		if err := fn(n); err != nil {
			return err
		}
	}
	return nil
}

func (s *memoryStore) FeeNonce() (uint64, error) { return s.feeNonce, nil }

func (s *memoryStore) Close() error { return nil }

// Key prefixes for the leveldb journal. Leaf keys embed the big-endian
// index so iteration order is insertion order.
var (
	prefixLeaf      = []byte("l/")
	prefixNullifier = []byte("n/")
	keyFeeNonce     = []byte("m/fee_nonce")
)

// levelStore journals into a leveldb database on disk.
type levelStore struct {
	db *leveldb.DB
}

// OpenLevelStore opens (or creates) the journal at path.
func OpenLevelStore(path string) (Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open pool store: %w", err)
	}
	return &levelStore{db: db}, nil
}

func leafKey(index uint32) []byte {
	key := make([]byte, len(prefixLeaf)+4)
	copy(key, prefixLeaf)
	binary.BigEndian.PutUint32(key[len(prefixLeaf):], index)
	return key
}

func (s *levelStore) AppendLeaves(first uint32, leaves ...common.Hash) error {
	batch := new(leveldb.Batch)
	for i, leaf := range leaves {
		batch.Put(leafKey(first+uint32(i)), leaf.Bytes())
	}
	return s.db.Write(batch, nil)
}

func (s *levelStore) PutNullifier(n common.Hash) error {
	return s.db.Put(append(prefixNullifier, n.Bytes()...), nil, nil)
}

func (s *levelStore) DeleteNullifier(n common.Hash) error {
	return s.db.Delete(append(prefixNullifier, n.Bytes()...), nil)
}

func (s *levelStore) PutFeeNonce(n uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return s.db.Put(keyFeeNonce, buf, nil)
}

func (s *levelStore) ReplayLeaves(fn func(uint32, common.Hash) error) error {
	iter := s.db.NewIterator(util.BytesPrefix(prefixLeaf), nil)
	defer iter.Release()
	for iter.Next() {
		index := binary.BigEndian.Uint32(iter.Key()[len(prefixLeaf):])
		if err := fn(index, common.BytesToHash(iter.Value())); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *levelStore) ReplayNullifiers(fn func(common.Hash) error) error {
	iter := s.db.NewIterator(util.BytesPrefix(prefixNullifier), nil)
	defer iter.Release()
	for iter.Next() {
		if err := fn(common.BytesToHash(iter.Key()[len(prefixNullifier):])); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *levelStore) FeeNonce() (uint64, error) {
	buf, err := s.db.Get(keyFeeNonce, nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}

func (s *levelStore) Close() error { return s.db.Close() }
