// Package store keeps a queryable journal of reading records in BoltDB.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/sweeney/plantwatch/internal/logic"
)

var readingsBucket = []byte("readings")

// Journal stores records per channel keyed by time, so history comes back
// in order without sorting.
type Journal struct {
	db  *bolt.DB
	log *zap.Logger
}

// Open opens or creates the journal at path.
func Open(path string, log *zap.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(readingsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Journal{db: db, log: log}, nil
}

func channelKey(id int) []byte {
	return []byte(fmt.Sprintf("channel%d", id))
}

func timeKey(t time.Time) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(t.UnixNano()))
	return k
}

// Append stores rec.
func (j *Journal) Append(rec logic.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(readingsBucket).CreateBucketIfNotExists(channelKey(rec.Channel))
		if err != nil {
			return err
		}
		return b.Put(timeKey(rec.Time), data)
	})
}

// LogValues stores rec and logs failures, so the journal can sit behind a
// logic.RecordSink.
func (j *Journal) LogValues(rec logic.Record) {
	if err := j.Append(rec); err != nil {
		j.log.Error("journal append failed", zap.Int("channel", rec.Channel), zap.Error(err))
	}
}

// History returns up to limit of the newest records of channel id, oldest
// first. A limit <= 0 returns everything.
func (j *Journal) History(id, limit int) ([]logic.Record, error) {
	var out []logic.Record
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(readingsBucket).Bucket(channelKey(id))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) == limit {
				break
			}
			var rec logic.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, k := 0, len(out)-1; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out, nil
}

// Prune deletes records older than before and returns how many were removed.
func (j *Journal) Prune(before time.Time) (int, error) {
	limit := timeKey(before)
	removed := 0
	err := j.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(readingsBucket)
		return root.ForEach(func(name, v []byte) error {
			if v != nil {
				return nil
			}
			b := root.Bucket(name)
			var stale [][]byte
			c := b.Cursor()
			for k, _ := c.First(); k != nil && bytes.Compare(k, limit) < 0; k, _ = c.Next() {
				stale = append(stale, append([]byte(nil), k...))
			}
			for _, k := range stale {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
			removed += len(stale)
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("prune journal: %w", err)
	}
	return removed, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
