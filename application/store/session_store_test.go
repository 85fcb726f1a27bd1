package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"conceptmap-backend/domain/core/aggregates"
)

// recordingRepository counts saves and can be told to fail them
type recordingRepository struct {
	saves   int
	saveErr error
	last    *aggregates.Session
}

func (r *recordingRepository) Load(ctx context.Context) *aggregates.Session {
	return aggregates.NewDefaultSession()
}

func (r *recordingRepository) Save(ctx context.Context, s *aggregates.Session) error {
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.last = s
	return nil
}

func (r *recordingRepository) Close() error { return nil }

func TestUpdatePersistsAfterEveryCommit(t *testing.T) {
	repo := &recordingRepository{}
	s := NewSessionStore(context.Background(), repo, zaptest.NewLogger(t))

	err := s.Update(context.Background(), func(session *aggregates.Session) error {
		session.CreateProject("Ethics")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.saves)
	require.NotNil(t, repo.last)
	assert.Len(t, repo.last.Projects, 2)
}

func TestUpdateDoesNotSaveWhenTransformationFails(t *testing.T) {
	repo := &recordingRepository{}
	s := NewSessionStore(context.Background(), repo, zaptest.NewLogger(t))

	sentinel := errors.New("validation failed")
	err := s.Update(context.Background(), func(session *aggregates.Session) error {
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Zero(t, repo.saves)
}

func TestUpdateKeepsMemoryStateWhenSaveFails(t *testing.T) {
	repo := &recordingRepository{saveErr: errors.New("disk full")}
	s := NewSessionStore(context.Background(), repo, zaptest.NewLogger(t))

	err := s.Update(context.Background(), func(session *aggregates.Session) error {
		session.CreateProject("Ethics")
		return nil
	})
	assert.Error(t, err)

	// The change is still served from memory; the next save catches up
	var projects int
	s.Read(func(session *aggregates.Session) {
		projects = len(session.Projects)
	})
	assert.Equal(t, 2, projects)

	repo.saveErr = nil
	require.NoError(t, s.Update(context.Background(), func(session *aggregates.Session) error {
		return nil
	}))
	require.NotNil(t, repo.last)
	assert.Len(t, repo.last.Projects, 2)
}

func TestReadSeesCommittedState(t *testing.T) {
	repo := &recordingRepository{}
	s := NewSessionStore(context.Background(), repo, zaptest.NewLogger(t))

	require.NoError(t, s.Update(context.Background(), func(session *aggregates.Session) error {
		return session.RenameProject(session.ActiveProjectID, "Phenomenology")
	}))

	var name string
	s.Read(func(session *aggregates.Session) {
		name = session.ActiveProject().Name
	})
	assert.Equal(t, "Phenomenology", name)
}
