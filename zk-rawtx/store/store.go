// Package store persists raw transactions, posted transactions and the
// ledger's note commitments and nullifiers in a bbolt file.
package store

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kysee/zkrawtx/utils"
)

var (
	bucketRawTx       = []byte("rawtx")
	bucketPosted      = []byte("posted")
	bucketCommitments = []byte("commitments")
	bucketNullifiers  = []byte("nullifiers")
)

var ErrCorrupt = errors.New("store: corrupt database")

type Store struct {
	path string
	db   *bolt.DB
}

// Open opens or creates the database at path, creating parent directories
// as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("db path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	if err := bdb.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketRawTx, bucketPosted, bucketCommitments, bucketNullifiers} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &Store{path: path, db: bdb}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string { return s.path }

// ID names a stored blob: the hex MiMC hash of its bytes.
func ID(bz []byte) string {
	return hex.EncodeToString(utils.MiMCHash(bz))
}

// PutRawTx stores an encoded raw transaction and returns its id. Storing
// the same bytes twice is harmless.
func (s *Store) PutRawTx(raw []byte) (string, error) {
	id := ID(raw)
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRawTx).Put([]byte(id), raw)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetRawTx(id string) ([]byte, bool, error) {
	return s.get(bucketRawTx, id)
}

// RawTxIDs lists the stored raw transaction ids in key order.
func (s *Store) RawTxIDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRawTx).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

func (s *Store) GetPosted(id string) ([]byte, bool, error) {
	return s.get(bucketPosted, id)
}

func (s *Store) get(bucket []byte, id string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(id))
		if v == nil {
			return nil
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

// AppendCommitment stores a note commitment at the next tree position and
// returns that position.
func (s *Store) AppendCommitment(c []byte) (uint64, error) {
	var idx uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		idx, err = appendCommitment(tx.Bucket(bucketCommitments), c)
		return err
	})
	return idx, err
}

// ApplyPosted records an accepted posted transaction in one database
// transaction: the blob, its nullifiers and its output commitments.
func (s *Store) ApplyPosted(posted []byte, nullifiers, commitments [][]byte) (string, error) {
	id := ID(posted)
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketPosted).Put([]byte(id), posted); err != nil {
			return err
		}
		nb := tx.Bucket(bucketNullifiers)
		for _, nf := range nullifiers {
			if nb.Get(nf) != nil {
				return fmt.Errorf("nullifier %x already stored", nf)
			}
			if err := nb.Put(nf, []byte(id)); err != nil {
				return err
			}
		}
		cb := tx.Bucket(bucketCommitments)
		for _, c := range commitments {
			if _, err := appendCommitment(cb, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func appendCommitment(b *bolt.Bucket, c []byte) (uint64, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	idx := seq - 1
	if err := b.Put(indexKey(idx), c); err != nil {
		return 0, err
	}
	return idx, nil
}

// Commitments returns every stored commitment in tree order.
func (s *Store) Commitments() ([][]byte, error) {
	var out [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCommitments).ForEach(func(k, v []byte) error {
			if len(k) != 8 || binary.BigEndian.Uint64(k) != uint64(len(out)) {
				return fmt.Errorf("%w: commitment key %x out of sequence", ErrCorrupt, k)
			}
			out = append(out, append([]byte(nil), v...))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Nullifiers() ([][]byte, error) {
	var out [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNullifiers).ForEach(func(k, _ []byte) error {
			out = append(out, append([]byte(nil), k...))
			return nil
		})
	})
	return out, err
}

func indexKey(idx uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], idx)
	return k[:]
}
