package badgerstore

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"conceptmap-backend/domain/core/aggregates"
	"conceptmap-backend/domain/core/valueobjects"
)

func newTestRepository(t *testing.T) *SessionRepository {
	t.Helper()
	db, err := Open(Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSessionRepository(db, zaptest.NewLogger(t))
}

func TestLoadWithEmptyDatabase(t *testing.T) {
	repo := newTestRepository(t)

	session := repo.Load(context.Background())

	require.Len(t, session.Projects, 1)
	assert.Equal(t, aggregates.DefaultProjectName, session.Projects[0].Name)
	assert.Equal(t, aggregates.SchemaVersion, session.Version)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	session := aggregates.NewDefaultSession()
	session.CreateProject("Epistemology")
	require.NoError(t, session.UpdateActiveProjectData(func(data *aggregates.AppSessionData) error {
		data.MapTrayConceptIDs = append(data.MapTrayConceptIDs, "gettier")
		return nil
	}))
	require.NoError(t, repo.Save(ctx, session))

	loaded := repo.Load(ctx)

	require.Len(t, loaded.Projects, 2)
	assert.Equal(t, session.ActiveProjectID, loaded.ActiveProjectID)
	assert.Equal(t, []valueobjects.NodeID{"gettier"}, loaded.ActiveProject().Data.MapTrayConceptIDs)
}

func TestLoadFallsBackOnCorruptSession(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionKey), []byte(`{"projects": "definitely-not-a-list"`))
	})
	require.NoError(t, err)

	session := repo.Load(ctx)

	require.Len(t, session.Projects, 1)
	assert.Equal(t, aggregates.DefaultProjectName, session.Projects[0].Name)
}

func TestLoadImportsLegacyKeys(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(legacyMapLayoutKey), []byte(`{
			"nodes": [{"id": "a", "name": "A"}, {"id": "b", "name": "B"}],
			"links": [{"source": "a", "target": "b", "relationshipType": "Supportive"}]
		}`)); err != nil {
			return err
		}
		return txn.Set([]byte(legacyTrayKey), []byte(`["c1"]`))
	})
	require.NoError(t, err)

	session := repo.Load(ctx)

	require.Len(t, session.Projects, 1)
	data := session.Projects[0].Data
	assert.Len(t, data.MapLayout.Nodes, 2)
	require.Len(t, data.MapLayout.Links, 1)
	assert.Equal(t,
		[]valueobjects.RelationshipType{valueobjects.TypeSupportive},
		data.MapLayout.Links[0].RelationshipTypes,
	)
	assert.Equal(t, []valueobjects.NodeID{"c1"}, data.MapTrayConceptIDs)
}

func TestVersionedSessionWinsOverLegacyKeys(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	versioned := aggregates.NewDefaultSession()
	versioned.Projects[0].Name = "Versioned"
	require.NoError(t, repo.Save(ctx, versioned))

	err := repo.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(legacyMapLayoutKey), []byte(`{"nodes": [{"id": "x", "name": "X"}]}`))
	})
	require.NoError(t, err)

	session := repo.Load(ctx)
	assert.Equal(t, "Versioned", session.Projects[0].Name)
	assert.Empty(t, session.Projects[0].Data.MapLayout.Nodes)
}
