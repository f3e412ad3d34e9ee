// Package history persists dispatch execution records for the dashboard
// and analytics surfaces.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"mcpreg/internal/domain"
)

var bucketExecutions = []byte("executions")

// Store is an append-only execution log on bbolt. Records are keyed by a
// monotonically increasing sequence so recent-first reads are a reverse
// cursor walk.
type Store struct {
	mu       sync.RWMutex
	db       *bolt.DB
	path     string
	retained int
	closed   bool
}

type Options struct {
	// RetainedRecords bounds the log; older records are pruned on append.
	// Zero applies the default, negative disables pruning.
	RetainedRecords int
}

func Open(path string, opts Options) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketExecutions)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure history bucket: %w", err)
	}

	retained := opts.RetainedRecords
	if retained == 0 {
		retained = domain.DefaultHistoryRetainedRecords
	}
	return &Store{db: db, path: trimmed, retained: retained}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Append writes one execution record.
func (s *Store) Append(record domain.ExecutionRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("history store is closed")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode execution record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketExecutions)
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		if err := bucket.Put(seqKey(seq), data); err != nil {
			return err
		}
		return s.pruneLocked(bucket)
	})
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(limit int) ([]domain.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("history store is closed")
	}
	if limit <= 0 {
		limit = domain.DefaultDispatchRecentLimit
	}

	var records []domain.ExecutionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(bucketExecutions).Cursor()
		for k, v := cursor.Last(); k != nil && len(records) < limit; k, v = cursor.Prev() {
			var record domain.ExecutionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("decode execution record: %w", err)
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of retained records.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, fmt.Errorf("history store is closed")
	}
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketExecutions).Stats().KeyN
		return nil
	})
	return count, err
}

func (s *Store) pruneLocked(bucket *bolt.Bucket) error {
	if s.retained < 0 {
		return nil
	}
	// Keys are contiguous sequence numbers and pruning only ever removes
	// from the front, so the span of first..last is the record count.
	cursor := bucket.Cursor()
	first, _ := cursor.First()
	last, _ := cursor.Last()
	if first == nil || last == nil {
		return nil
	}
	excess := int(binary.BigEndian.Uint64(last)-binary.BigEndian.Uint64(first)) + 1 - s.retained
	for k, _ := cursor.First(); k != nil && excess > 0; k, _ = cursor.First() {
		if err := bucket.Delete(k); err != nil {
			return err
		}
		excess--
	}
	return nil
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

var _ domain.HistorySink = (*Store)(nil)
