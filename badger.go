package webstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
)

// Badger implements Driver on an embedded BadgerDB. It backs the local
// store when entries must outlive the process. Keys enumerate in byte order.
type Badger struct {
	db     *badger.DB
	closed atomic.Bool
}

var _ Driver = (*Badger)(nil)

// OpenBadger opens (or creates) a BadgerDB according to cfg.
// BadgerDB's own log output is routed to logger.
func OpenBadger(cfg LocalConfig, logger Logger) (*Badger, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: local path is empty", ErrInvalidConfig)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	if logger == nil {
		logger = defaultLogger
	}
	opts = opts.WithLogger(&badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(ctx context.Context, key string) (string, error) {
	if b.closed.Load() {
		return "", ErrClosed
	}
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (b *Badger) Set(ctx context.Context, key, value string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

func (b *Badger) Delete(ctx context.Context, key string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *Badger) Clear(ctx context.Context) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.db.DropAll()
}

func (b *Badger) Len(ctx context.Context) (int, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}
	n := 0
	err := b.scan(func(string) bool {
		n++
		return true
	})
	return n, err
}

func (b *Badger) Key(ctx context.Context, index int) (string, error) {
	if b.closed.Load() {
		return "", ErrClosed
	}
	if index < 0 {
		return "", ErrNotFound
	}
	var (
		key   string
		found bool
		i     int
	)
	err := b.scan(func(k string) bool {
		if i == index {
			key, found = k, true
			return false
		}
		i++
		return true
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	return key, nil
}

// scan walks keys in order until fn returns false.
func (b *Badger) scan(fn func(key string) bool) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if !fn(string(it.Item().KeyCopy(nil))) {
				break
			}
		}
		return nil
	})
}

// Close releases the database. Further calls return ErrClosed.
func (b *Badger) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	return b.db.Close()
}

// badgerLogger routes BadgerDB output to a Logger. BadgerDB is chatty at
// info level, so info goes to debug.
type badgerLogger struct {
	logger Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(context.Background(), "badger: "+format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(context.Background(), "badger: "+format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(context.Background(), "badger: "+format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(context.Background(), "badger: "+format, args...)
}
