// Package store persists reference blocks, account snapshots, and
// execution results, grounded on the teacher's node/store package (bbolt
// buckets, Open/Close lifecycle, fixed binary encodings).
package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"txkernel.dev/kernel"
)

var (
	bucketReferenceBlocks = []byte("reference_blocks_by_number")
	bucketAccounts        = []byte("accounts_by_id")
	bucketExecutions      = []byte("executions_by_account_update")
)

// DB is the kernel's reference store: everything a client needs to look up
// before or after running kernel.Execute, kept out of the kernel package
// itself since the kernel has no notion of persistence (§4.12, §9).
type DB struct {
	datadir string
	db      *bolt.DB
}

// Open opens (creating if necessary) the bbolt-backed store rooted at
// datadir.
func Open(datadir string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("store: datadir required")
	}
	if err := ensureDir(datadir); err != nil {
		return nil, err
	}
	path := filepath.Join(datadir, "txkernel.db")
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}
	d := &DB{datadir: datadir, db: bdb}
	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketReferenceBlocks, bucketAccounts, bucketExecutions} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) witnessDir() string { return filepath.Join(d.datadir, "witnesses") }

// SaveWitnessFile writes a sealed (AES-key-wrapped) witness blob under the
// store's witnesses directory, keyed by name.
func (d *DB) SaveWitnessFile(name string, sealed []byte) error {
	if filepath.Base(name) != name || name == "" {
		return fmt.Errorf("store: invalid witness file name %q", name)
	}
	dir := d.witnessDir()
	if err := ensureDir(dir); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), sealed, 0o600)
}

// LoadWitnessFile reads back a sealed witness blob previously written by
// SaveWitnessFile, rejecting any name that could escape the witnesses
// directory via path traversal.
func (d *DB) LoadWitnessFile(name string) ([]byte, error) {
	return readFileFromDir(d.witnessDir(), name)
}

func numberKey(n uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], n)
	return k[:]
}

func wordKey(w kernel.Word) []byte {
	k := make([]byte, 32)
	for i, f := range w {
		v := f.Uint64()
		for b := 0; b < 8; b++ {
			k[i*8+b] = byte(v >> (56 - 8*b))
		}
	}
	return k
}

// PutReferenceBlock records ref, keyed by its block number.
func (d *DB) PutReferenceBlock(ref kernel.ReferenceBlock) error {
	val := encodeReferenceBlock(ref)
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReferenceBlocks).Put(numberKey(ref.Number), val)
	})
}

// GetReferenceBlock looks up the reference block at number.
func (d *DB) GetReferenceBlock(number uint64) (kernel.ReferenceBlock, bool, error) {
	var out kernel.ReferenceBlock
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketReferenceBlocks).Get(numberKey(number))
		if v == nil {
			return nil
		}
		r, err := decodeReferenceBlock(v)
		if err != nil {
			return err
		}
		out, ok = r, true
		return nil
	})
	return out, ok, err
}

// PutAccountSnapshot records the serialized state of an account, keyed by
// its current commitment, so a later transaction can be replayed against
// exactly this state.
func (d *DB) PutAccountSnapshot(commitment kernel.Digest, snap AccountSnapshot) error {
	val, err := encodeAccountSnapshot(snap)
	if err != nil {
		return err
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAccounts).Put(wordKey(commitment), val)
	})
}

// GetAccountSnapshot looks up the account snapshot committing to commitment.
func (d *DB) GetAccountSnapshot(commitment kernel.Digest) (AccountSnapshot, bool, error) {
	var out AccountSnapshot
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketAccounts).Get(wordKey(commitment))
		if v == nil {
			return nil
		}
		snap, err := decodeAccountSnapshot(v)
		if err != nil {
			return err
		}
		out, ok = snap, true
		return nil
	})
	return out, ok, err
}

// PutExecutionResult records res, keyed by its account-update commitment.
func (d *DB) PutExecutionResult(res kernel.ExecutionResult) error {
	val := encodeExecutionResult(res)
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketExecutions).Put(wordKey(res.AccountUpdateCommitment), val)
	})
}

// GetExecutionResult looks up a previously recorded execution result.
func (d *DB) GetExecutionResult(accountUpdateCommitment kernel.Digest) (kernel.ExecutionResult, bool, error) {
	var out kernel.ExecutionResult
	var ok bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketExecutions).Get(wordKey(accountUpdateCommitment))
		if v == nil {
			return nil
		}
		res, err := decodeExecutionResult(v)
		if err != nil {
			return err
		}
		out, ok = res, true
		return nil
	})
	return out, ok, err
}
