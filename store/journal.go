package store

import (
	"bytes"
	"os"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v4"

	"gitlab.com/docscanner/docscan"
)

// Session outcomes as stored in the journal
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

var sessionPrefix = []byte("session:")

// SessionRecord is one finished session as persisted
type SessionRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Device     string
	Outcome    string
	Files      []docscan.FileInfo
	Failure    string
}

// Recorder is the write side of the journal
type Recorder interface {
	Record(rec *SessionRecord) error
}

// Journal keeps finished session records in a badger store so the history
// command can show past scans.
type Journal struct {
	SessionStore *badger.DB
	filepath     string
}

// NewJournal at the given path
func NewJournal(filepath string) *Journal {
	return &Journal{filepath: filepath}
}

// Init the underlying store
func (j *Journal) Init() error {
	if err := os.MkdirAll(j.filepath, 0677); err != nil {
		return err
	}

	opts := badger.DefaultOptions(j.filepath)
	opts.Logger = nil

	var err error
	j.SessionStore, err = badger.Open(opts)
	if err != nil {
		return errors.Wrap(err, "failed to open session journal")
	}
	return nil
}

// MakeKey of a session id
func MakeKey(id string) []byte {
	key := make([]byte, 0, len(sessionPrefix)+len(id))
	key = append(key, sessionPrefix...)
	key = append(key, id...)
	return key
}

// GetID of a session key
func GetID(key []byte) string {
	return string(bytes.TrimPrefix(key, sessionPrefix))
}

// Record a finished session
func (j *Journal) Record(rec *SessionRecord) error {
	bytez, err := msgpack.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to encode session record")
	}
	return j.SessionStore.Update(func(txn *badger.Txn) error {
		return txn.Set(MakeKey(rec.ID), bytez)
	})
}

// List the most recent limit records, newest first. limit <= 0 means all.
func (j *Journal) List(limit int) ([]*SessionRecord, error) {
	records := make([]*SessionRecord, 0)

	err := j.SessionStore.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(sessionPrefix); it.ValidForPrefix(sessionPrefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				rec := &SessionRecord{}
				if err := msgpack.Unmarshal(val, rec); err != nil {
					log.Warn().Err(err).Str("id", GetID(item.Key())).Msg("skipping undecodable journal record")
					return nil
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, k int) bool {
		return records[i].StartedAt.After(records[k].StartedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close the journal
func (j *Journal) Close() error {
	if j.SessionStore == nil {
		return nil
	}
	return j.SessionStore.Close()
}
