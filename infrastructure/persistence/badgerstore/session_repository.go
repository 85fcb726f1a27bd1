package badgerstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"conceptmap-backend/application/ports"
	"conceptmap-backend/domain/core/aggregates"
	"conceptmap-backend/infrastructure/persistence/schema"
	apperrors "conceptmap-backend/pkg/errors"
)

// sessionKey is the single key the versioned session document lives under
const sessionKey = "session"

// Standalone keys written before the session was versioned. A database
// holding only these belongs to a pre-multi-project release.
const (
	legacyMapLayoutKey = "mapLayout"
	legacyTrayKey      = "mapTrayConceptIds"
	legacyFeedsKey     = "trackedFeeds"
	legacySeenKey      = "seenPublicationIds"
)

// SessionRepository stores the whole session as one JSON document
type SessionRepository struct {
	db     *badger.DB
	logger *zap.Logger
}

// NewSessionRepository creates a session repository over an open database
func NewSessionRepository(db *badger.DB, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

var _ ports.SessionRepository = (*SessionRepository)(nil)

// Load returns a usable session no matter what the database holds. The
// degradation chain is: versioned document, then legacy single-project
// import, then a fresh default session. Corruption is logged, never
// surfaced.
func (r *SessionRepository) Load(ctx context.Context) *aggregates.Session {
	raw, err := r.get(sessionKey)
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		r.logger.Error("reading stored session failed", zap.Error(err))
	}

	if raw != nil {
		session, err := schema.DecodeSession(raw)
		if err == nil {
			return session
		}
		r.logger.Warn("stored session is unreadable, trying legacy import", zap.Error(err))
	}

	blobs := r.readLegacyBlobs()
	if blobs.IsEmpty() {
		r.logger.Info("no stored session found, starting fresh")
	} else {
		r.logger.Info("importing legacy single-project data")
	}
	return schema.ImportLegacy(blobs)
}

// Save writes the session as one document
func (r *SessionRepository) Save(ctx context.Context, session *aggregates.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return apperrors.NewStorageError("encode session", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionKey), raw)
	})
	if err != nil {
		return apperrors.NewStorageError("save session", err)
	}
	return nil
}

// Close closes the underlying database
func (r *SessionRepository) Close() error {
	return r.db.Close()
}

// readLegacyBlobs collects whatever standalone legacy keys exist. Missing
// keys are simply absent from the result.
func (r *SessionRepository) readLegacyBlobs() schema.LegacyBlobs {
	var blobs schema.LegacyBlobs
	read := func(key string) []byte {
		raw, err := r.get(key)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			r.logger.Warn("reading legacy key failed", zap.String("key", key), zap.Error(err))
		}
		return raw
	}

	blobs.MapLayout = read(legacyMapLayoutKey)
	blobs.TrayConceptIDs = read(legacyTrayKey)
	blobs.TrackedFeeds = read(legacyFeedsKey)
	blobs.SeenPublicationIDs = read(legacySeenKey)
	return blobs
}

// get reads one key into a fresh buffer
func (r *SessionRepository) get(key string) ([]byte, error) {
	var raw []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}
