package ports

import (
	"context"

	"conceptmap-backend/domain/core/aggregates"
)

// SessionRepository persists the whole session as one blob.
//
// Load never fails: corruption, missing data and failed migrations all
// degrade to the legacy import and finally to a fresh default session, so
// the application always starts with something usable.
type SessionRepository interface {
	Load(ctx context.Context) *aggregates.Session
	Save(ctx context.Context, session *aggregates.Session) error
	Close() error
}
