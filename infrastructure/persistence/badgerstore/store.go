// Package badgerstore persists the session in an embedded BadgerDB
// database: one versioned document under a single key, plus the standalone
// keys older releases wrote before the session was versioned.
package badgerstore

import (
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	apperrors "conceptmap-backend/pkg/errors"
)

// Config holds the storage options
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory skips disk persistence entirely. Used by tests.
	InMemory bool

	// SyncWrites makes every save durable before it returns
	SyncWrites bool
}

// Open opens the database, creating the directory when needed
func Open(cfg Config, logger *zap.Logger) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, apperrors.NewInternalError("storage path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, apperrors.NewStorageError("create data directory", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger.Sugar()})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperrors.NewStorageError("open database", err)
	}
	return db, nil
}

// badgerLogger adapts zap to badger's printf-style Logger interface
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	// Badger is chatty at info level; keep its internals at debug
	l.logger.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

var _ badger.Logger = (*badgerLogger)(nil)
