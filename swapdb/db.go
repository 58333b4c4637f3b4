package swapdb

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mwcproject/mwc-swap/swap"
	bolt "go.etcd.io/bbolt"
)

const (
	dbName           = "swap.db"
	dbFilePermission = 0600
)

var (
	swapBucket = []byte("swaps")

	// byteOrder matches channeldb's convention for on-disk integers.
	byteOrder = binary.BigEndian
)

// migration mutates the bucket layout of a prior database version into the
// current one. Matches channeldb/db.go's migration shape.
type migration func(tx *bolt.Tx) error

type version struct {
	number    uint32
	migration migration
}

// dbVersions lists every schema version in order; the base version requires
// no migration.
var dbVersions = []version{
	{number: 0, migration: nil},
}

const versionKey = "db-version"

// DB is the swap record store: one bolt bucket keyed by swap ID, storing
// JSON snapshots produced by encodeSwap.
type DB struct {
	*bolt.DB
	dbPath         string
	secondaryCodec SecondaryCodec
}

// Open opens (creating if necessary) the swap database at dbPath. codec
// decodes the opaque secondary-chain blob embedded in each record; pass nil
// if the caller never persists a SecondaryData.
func Open(dbPath string, codec SecondaryCodec) (*DB, error) {
	if err := os.MkdirAll(dbPath, 0700); err != nil {
		return nil, fmt.Errorf("create swapdb directory: %w", err)
	}

	path := filepath.Join(dbPath, dbName)
	bdb, err := bolt.Open(path, dbFilePermission, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	db := &DB{DB: bdb, dbPath: dbPath, secondaryCodec: codec}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(swapBucket)
		return err
	}); err != nil {
		bdb.Close()
		return nil, fmt.Errorf("create swaps bucket: %w", err)
	}

	if err := db.syncVersions(); err != nil {
		bdb.Close()
		return nil, err
	}

	return db, nil
}

// syncVersions applies any migration functions between the database's
// recorded version and the latest known version, matching channeldb's
// per-version migration list.
func (db *DB) syncVersions() error {
	latest := dbVersions[len(dbVersions)-1].number

	var current uint32
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(swapBucket)
		if b == nil {
			return nil
		}
		v := b.Get([]byte(versionKey))
		if len(v) == 4 {
			current = byteOrder.Uint32(v)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read db version: %w", err)
	}

	if current > latest {
		return fmt.Errorf("swapdb: database version %d is newer than this build's %d", current, latest)
	}

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(swapBucket)
		for _, v := range dbVersions {
			if v.number <= current {
				continue
			}
			if v.migration != nil {
				if err := v.migration(tx); err != nil {
					return fmt.Errorf("migration to version %d: %w", v.number, err)
				}
			}
		}
		buf := make([]byte, 4)
		byteOrder.PutUint32(buf, latest)
		return b.Put([]byte(versionKey), buf)
	})
}

// PutSwap persists s, overwriting any prior record with the same ID.
func (db *DB) PutSwap(s *swap.Swap) error {
	blob, err := encodeSwap(s)
	if err != nil {
		return fmt.Errorf("encode swap %s: %w", s.ID, err)
	}
	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(swapBucket)
		return b.Put(s.ID[:], blob)
	})
}

// GetSwap loads the swap record with the given ID.
func (db *DB) GetSwap(id uuid.UUID) (*swap.Swap, error) {
	var blob []byte
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(swapBucket)
		v := b.Get(id[:])
		if v == nil {
			return fmt.Errorf("swap %s not found", id)
		}
		blob = append(blob, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeSwap(blob, db.secondaryCodec)
}

// DeleteSwap removes a swap record, e.g. once it reaches a terminal status
// and the caller has archived it elsewhere.
func (db *DB) DeleteSwap(id uuid.UUID) error {
	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(swapBucket)
		return b.Delete(id[:])
	})
}

// ListSwaps returns every persisted swap's ID.
func (db *DB) ListSwaps() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(swapBucket)
		return b.ForEach(func(k, _ []byte) error {
			if len(k) != 16 {
				return nil // skip the version-counter key
			}
			id, err := uuid.FromBytes(k)
			if err != nil {
				return nil
			}
			ids = append(ids, id)
			return nil
		})
	})
	return ids, err
}
