// Package capture implements the durable staging queue auto-capture writes
// through before they are folded into a batch of node insertions (§4.9,
// "Auto-capture"). It is a thin BadgerDB-backed FIFO: prompts and feedback
// text land here first, durably, so a crash between capture and the next
// scheduled flush doesn't lose them, the same role Badger plays as the
// teacher's write-ahead state in pkg/storage/badger.go.
package capture

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var seqKey = []byte{0x00}

const recordPrefix = byte(0x01)

// Record is one staged capture payload, durable until Drain removes it.
type Record struct {
	Field     string `json:"field"`
	Content   string `json:"content"`
	Session   uint32 `json:"session"`
	Timestamp int64  `json:"timestamp"`
}

// StagingQueue is a durable FIFO of Records backed by BadgerDB.
type StagingQueue struct {
	db     *badger.DB
	closed bool
}

// Open opens (creating if necessary) a staging queue rooted at dataDir.
func Open(dataDir string) (*StagingQueue, error) {
	opts := badger.DefaultOptions(dataDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open capture staging queue: %w", err)
	}
	return &StagingQueue{db: db}, nil
}

// OpenInMemory opens an in-memory staging queue, useful for tests and for
// deployments that accept losing unflushed captures on crash.
func OpenInMemory() (*StagingQueue, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory capture staging queue: %w", err)
	}
	return &StagingQueue{db: db}, nil
}

// recordKey packs the prefix and a monotonic sequence number so that
// key order matches enqueue order, giving Drain FIFO semantics for free
// from Badger's own key-ordered iteration.
func recordKey(seq uint64) []byte {
	key := make([]byte, 9)
	key[0] = recordPrefix
	binary.BigEndian.PutUint64(key[1:], seq)
	return key
}

// Enqueue durably appends a record to the queue.
func (q *StagingQueue) Enqueue(r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode capture record: %w", err)
	}

	return q.db.Update(func(txn *badger.Txn) error {
		seq, err := nextSeq(txn)
		if err != nil {
			return err
		}
		return txn.Set(recordKey(seq), data)
	})
}

// nextSeq reads and increments the queue's sequence counter within txn.
func nextSeq(txn *badger.Txn) (uint64, error) {
	var seq uint64
	item, err := txn.Get(seqKey)
	switch {
	case err == nil:
		if verr := item.Value(func(val []byte) error {
			seq = binary.BigEndian.Uint64(val)
			return nil
		}); verr != nil {
			return 0, verr
		}
	case err == badger.ErrKeyNotFound:
		seq = 0
	default:
		return 0, err
	}

	next := make([]byte, 8)
	binary.BigEndian.PutUint64(next, seq+1)
	if err := txn.Set(seqKey, next); err != nil {
		return 0, err
	}
	return seq, nil
}

// Drain removes and returns up to limit records in FIFO order. A limit of
// zero or less drains every staged record.
func (q *StagingQueue) Drain(limit int) ([]Record, error) {
	var records []Record
	var keys [][]byte

	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte{recordPrefix}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(records) >= limit {
				break
			}
			item := it.Item()
			var r Record
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); verr != nil {
				continue
			}
			records = append(records, r)
			keys = append(keys, append([]byte{}, item.Key()...))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return records, nil
	}

	err = q.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}

// Len reports the number of records currently staged.
func (q *StagingQueue) Len() (int, error) {
	count := 0
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte{recordPrefix}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close releases the underlying BadgerDB handle.
func (q *StagingQueue) Close() error {
	if q.closed {
		return nil
	}
	q.closed = true
	return q.db.Close()
}
