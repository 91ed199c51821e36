package repository

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

type DBRepository interface {
	View(fn func(txn *badger.Txn) error) error
	Update(fn func(txn *badger.Txn) error) error
	DropPrefix(prefix []byte) error
	Size() int64
	InMemory() bool
	Close() error
}

type BadgerDBRepository struct {
	db *badger.DB
}

func NewBadgerDBRepository(db *badger.DB) DBRepository {
	return &BadgerDBRepository{db: db}
}

// Open opens the badger directory at path. When the directory cannot be
// opened, for example because its files are corrupt, an empty in-memory
// database is returned together with the open error so callers can log it.
func Open(path string, logger badger.Logger) (DBRepository, error) {
	opts := badger.DefaultOptions(path).WithLogger(logger)

	db, err := badger.Open(opts)
	if err == nil {
		return NewBadgerDBRepository(db), nil
	}

	memDB, memErr := OpenInMemory(logger)
	if memErr != nil {
		return nil, fmt.Errorf("failed to open database %s: %w (in-memory fallback: %v)", path, err, memErr)
	}
	return memDB, fmt.Errorf("failed to open database %s: %w", path, err)
}

// OpenInMemory opens a badger instance that never touches the disk.
func OpenInMemory(logger badger.Logger) (DBRepository, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(logger)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return NewBadgerDBRepository(db), nil
}

func (r *BadgerDBRepository) View(fn func(txn *badger.Txn) error) error {
	return r.db.View(fn)
}

func (r *BadgerDBRepository) Update(fn func(txn *badger.Txn) error) error {
	return r.db.Update(fn)
}

func (r *BadgerDBRepository) DropPrefix(prefix []byte) error {
	return r.db.DropPrefix(prefix)
}

// Size returns the on-disk size of the LSM tree and value log.
func (r *BadgerDBRepository) Size() int64 {
	lsm, vlog := r.db.Size()
	return lsm + vlog
}

func (r *BadgerDBRepository) InMemory() bool {
	return r.db.Opts().InMemory
}

func (r *BadgerDBRepository) Close() error {
	return r.db.Close()
}
