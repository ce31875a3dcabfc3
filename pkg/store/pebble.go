// Package store persists messages and polls in a Pebble database. Records
// are keyed by a sortable timestamp-plus-counter prefix so a plain prefix
// scan yields the canonical history order.
package store

import (
	"bytes"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"

	"noticeboard/pkg/errors"
	"noticeboard/pkg/logger"
	"noticeboard/pkg/models"
)

const (
	msgPrefix    = "msg:"
	msgIDPrefix  = "msgid:"
	pollPrefix   = "poll:"
	pollIDPrefix = "pollid:"
)

// Store wraps a Pebble database. It is safe for concurrent use; mutations on
// a single record id are serialized through a per-id lock rather than a
// global one.
type Store struct {
	db *pebble.DB
	// seq breaks ties between records sharing the same nanosecond timestamp,
	// making history order total and stable.
	seq uint64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Store, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	return &Store{db: db, locks: make(map[string]*sync.Mutex)}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	logger.Info("pebble_closed")
	return err
}

// Ready reports whether the store is opened and usable.
func (s *Store) Ready() bool { return s != nil && s.db != nil }

// lockID returns the mutex serializing mutations for a single record id.
func (s *Store) lockID(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) releaseLock(id string) {
	s.mu.Lock()
	delete(s.locks, id)
	s.mu.Unlock()
}

// orderKey builds the sortable primary key for a new record.
func (s *Store) orderKey(prefix string, ts int64) string {
	n := atomic.AddUint64(&s.seq, 1)
	return fmt.Sprintf("%s%020d-%06d", prefix, ts, n)
}

// InsertMessage assigns id and creation timestamp when absent, persists the
// message and indexes it by id. The content invariant (body or attachment)
// is enforced here as the last line of defense.
func (s *Store) InsertMessage(m *models.Message) error {
	if !m.HasContent() {
		return errors.New(errors.KindValidation, "message must have a body or an attachment")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().UTC().UnixNano()
	}
	key := s.orderKey(msgPrefix, m.CreatedAt)

	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(errors.KindServer, "store write failed", err)
	}
	if err := s.db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("save_message_failed", "key", key, "error", err)
		return errors.Wrap(errors.KindServer, "store write failed", err)
	}
	if err := s.db.Set([]byte(msgIDPrefix+m.ID), []byte(key), pebble.Sync); err != nil {
		logger.Error("save_message_index_failed", "id", m.ID, "error", err)
		return errors.Wrap(errors.KindServer, "store write failed", err)
	}
	messageOps.WithLabelValues("insert").Inc()
	logger.Info("message_saved", "id", m.ID, "key", key)
	return nil
}

// GetMessage returns the message with the given id.
func (s *Store) GetMessage(id string) (models.Message, error) {
	var m models.Message
	key, err := s.resolve(msgIDPrefix + id)
	if err != nil {
		return m, err
	}
	if err := s.getJSON(key, &m); err != nil {
		return m, err
	}
	messageOps.WithLabelValues("get").Inc()
	return m, nil
}

// UpdateMessage replaces the body of the message with the given id and
// marks it edited. All other fields are immutable and survive unchanged.
// The read-modify-write runs under the per-id lock so a concurrent delete
// cannot interleave; the loser observes NotFound.
func (s *Store) UpdateMessage(id, body string) (models.Message, error) {
	l := s.lockID(id)
	l.Lock()
	defer l.Unlock()

	m, err := s.GetMessage(id)
	if err != nil {
		return m, err
	}
	key, err := s.resolve(msgIDPrefix + id)
	if err != nil {
		return m, err
	}
	m.Body = body
	m.Edited = true
	if !m.HasContent() {
		return m, errors.New(errors.KindValidation, "message must have a body or an attachment")
	}
	data, merr := json.Marshal(m)
	if merr != nil {
		return m, errors.Wrap(errors.KindServer, "store write failed", merr)
	}
	// Rewriting in place at the original key preserves history order.
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		logger.Error("update_message_failed", "id", id, "error", err)
		return m, errors.Wrap(errors.KindServer, "store write failed", err)
	}
	messageOps.WithLabelValues("update").Inc()
	logger.Info("message_updated", "id", id)
	return m, nil
}

// DeleteMessage removes the message and its id index, returning the removed
// record so callers can release any attachment out-of-band. The id never
// resolves again.
func (s *Store) DeleteMessage(id string) (models.Message, error) {
	l := s.lockID(id)
	l.Lock()
	defer func() {
		l.Unlock()
		s.releaseLock(id)
	}()

	m, err := s.GetMessage(id)
	if err != nil {
		return m, err
	}
	key, err := s.resolve(msgIDPrefix + id)
	if err != nil {
		return m, err
	}
	if err := s.db.Delete(key, pebble.Sync); err != nil {
		logger.Error("delete_message_failed", "id", id, "error", err)
		return m, errors.Wrap(errors.KindServer, "store delete failed", err)
	}
	if err := s.db.Delete([]byte(msgIDPrefix+id), pebble.Sync); err != nil {
		logger.Error("delete_message_index_failed", "id", id, "error", err)
		return m, errors.Wrap(errors.KindServer, "store delete failed", err)
	}
	messageOps.WithLabelValues("delete").Inc()
	logger.Info("message_deleted", "id", id)
	return m, nil
}

// ListMessages returns all messages ascending by (createdAt, insertion
// order). Full scan; history is expected to stay small enough that
// pagination is not needed.
func (s *Store) ListMessages() ([]models.Message, error) {
	out := []models.Message{}
	err := s.scan(msgPrefix, func(v []byte) error {
		var m models.Message
		if err := json.Unmarshal(v, &m); err != nil {
			return errors.Wrap(errors.KindServer, "invalid stored message", err)
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	messageOps.WithLabelValues("list").Inc()
	return out, nil
}

// InsertPoll persists a new poll and indexes it by id. Option invariants
// (question present, at least two options) are the mutation service's job.
func (s *Store) InsertPoll(p *models.Poll) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().UTC().UnixNano()
	}
	key := s.orderKey(pollPrefix, p.CreatedAt)
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(errors.KindServer, "store write failed", err)
	}
	if err := s.db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("save_poll_failed", "key", key, "error", err)
		return errors.Wrap(errors.KindServer, "store write failed", err)
	}
	if err := s.db.Set([]byte(pollIDPrefix+p.ID), []byte(key), pebble.Sync); err != nil {
		logger.Error("save_poll_index_failed", "id", p.ID, "error", err)
		return errors.Wrap(errors.KindServer, "store write failed", err)
	}
	pollOps.WithLabelValues("insert").Inc()
	logger.Info("poll_saved", "id", p.ID, "key", key)
	return nil
}

// GetPoll returns the poll with the given id.
func (s *Store) GetPoll(id string) (models.Poll, error) {
	var p models.Poll
	key, err := s.resolve(pollIDPrefix + id)
	if err != nil {
		return p, err
	}
	if err := s.getJSON(key, &p); err != nil {
		return p, err
	}
	pollOps.WithLabelValues("get").Inc()
	return p, nil
}

// ListPolls returns all polls ascending by (createdAt, insertion order).
func (s *Store) ListPolls() ([]models.Poll, error) {
	out := []models.Poll{}
	err := s.scan(pollPrefix, func(v []byte) error {
		var p models.Poll
		if err := json.Unmarshal(v, &p); err != nil {
			return errors.Wrap(errors.KindServer, "invalid stored poll", err)
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	pollOps.WithLabelValues("list").Inc()
	return out, nil
}

// VotePoll increments the vote count for one option. An out-of-range index
// fails validation and leaves counts untouched. The read-modify-write runs
// under the per-id lock so concurrent votes never lose increments.
func (s *Store) VotePoll(id string, optionIndex int) (models.Poll, error) {
	l := s.lockID(id)
	l.Lock()
	defer l.Unlock()

	p, err := s.GetPoll(id)
	if err != nil {
		return p, err
	}
	if optionIndex < 0 || optionIndex >= len(p.Options) {
		return p, errors.Newf(errors.KindValidation, "option index %d out of range", optionIndex)
	}
	key, err := s.resolve(pollIDPrefix + id)
	if err != nil {
		return p, err
	}
	p.Options[optionIndex].Votes++
	data, merr := json.Marshal(p)
	if merr != nil {
		return p, errors.Wrap(errors.KindServer, "store write failed", merr)
	}
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		logger.Error("vote_poll_failed", "id", id, "error", err)
		return p, errors.Wrap(errors.KindServer, "store write failed", err)
	}
	pollOps.WithLabelValues("vote").Inc()
	logger.Info("poll_voted", "id", id, "option", optionIndex)
	return p, nil
}

// resolve follows an id index entry to the primary key.
func (s *Store) resolve(idxKey string) ([]byte, error) {
	v, closer, err := s.db.Get([]byte(idxKey))
	if err != nil {
		if goerrors.Is(err, pebble.ErrNotFound) {
			return nil, errors.New(errors.KindNotFound, "not found")
		}
		return nil, errors.Wrap(errors.KindServer, "store read failed", err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

// getJSON reads and decodes the record at key.
func (s *Store) getJSON(key []byte, dst any) error {
	v, closer, err := s.db.Get(key)
	if err != nil {
		if goerrors.Is(err, pebble.ErrNotFound) {
			return errors.New(errors.KindNotFound, "not found")
		}
		return errors.Wrap(errors.KindServer, "store read failed", err)
	}
	defer closer.Close()
	if err := json.Unmarshal(v, dst); err != nil {
		return errors.Wrap(errors.KindServer, "invalid stored record", err)
	}
	return nil
}

// scan iterates all records under prefix in key order.
func (s *Store) scan(prefix string, fn func(v []byte) error) error {
	pfx := []byte(prefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return errors.Wrap(errors.KindServer, "store scan failed", err)
	}
	defer iter.Close()
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		v := append([]byte(nil), iter.Value()...)
		if err := fn(v); err != nil {
			return err
		}
	}
	if err := iter.Error(); err != nil {
		return errors.Wrap(errors.KindServer, "store scan failed", err)
	}
	return nil
}
