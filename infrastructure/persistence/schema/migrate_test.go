package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptmap-backend/domain/core/aggregates"
	"conceptmap-backend/domain/core/valueobjects"
)

func TestDecodeSessionMigratesLegacyLinkShape(t *testing.T) {
	blob := []byte(`{
		"version": 3,
		"activeProjectId": "proj-1",
		"projects": [{
			"id": "proj-1",
			"name": "Old Project",
			"data": {
				"mapLayout": {
					"nodes": [
						{"id": "a", "name": "A", "x": 0, "y": 0},
						{"id": "b", "name": "B", "x": 100, "y": 0}
					],
					"links": [{
						"source": "a",
						"target": "b",
						"relationshipType": "Causal",
						"justification": "because X"
					}]
				}
			}
		}]
	}`)

	session, err := DecodeSession(blob)
	require.NoError(t, err)

	assert.Equal(t, aggregates.SchemaVersion, session.Version)
	require.Len(t, session.Projects, 1)

	g := &session.Projects[0].Data.MapLayout
	require.Len(t, g.Links, 1)
	link := &g.Links[0]

	assert.Equal(t, []valueobjects.RelationshipType{valueobjects.TypeCausal}, link.RelationshipTypes)
	require.NotNil(t, link.Justification)
	assert.Equal(t, "because X", link.Justification.Text)
	assert.Empty(t, link.Justification.Citations)

	// Backfilled by migration and sanitation
	assert.NotNil(t, g.LogicalConstructs)
	assert.NotNil(t, session.Projects[0].Data.ProjectDiary)
	assert.NotNil(t, session.CustomRelationshipTypes)
	assert.NoError(t, g.Validate())
}

func TestDecodeSessionConvertsProvenanceFlags(t *testing.T) {
	blob := []byte(`{
		"version": 4,
		"projects": [{
			"id": "proj-1",
			"name": "P",
			"data": {
				"mapLayout": {
					"nodes": [
						{"id": "a", "name": "A", "isAiGenerated": true},
						{"id": "b", "name": "B", "isHistorical": true, "isAiGenerated": true},
						{"id": "c", "name": "C"}
					],
					"links": [{
						"source": "a",
						"target": "b",
						"relationshipTypes": ["Historical"],
						"isHistorical": true
					}]
				}
			}
		}]
	}`)

	session, err := DecodeSession(blob)
	require.NoError(t, err)

	g := &session.Projects[0].Data.MapLayout
	assert.Equal(t, valueobjects.ProvenanceAIGenerated, g.FindNode("a").Provenance)
	// Historical outranks the generic AI flag
	assert.Equal(t, valueobjects.ProvenanceHistorical, g.FindNode("b").Provenance)
	assert.Equal(t, valueobjects.ProvenanceUserDefined, g.FindNode("c").Provenance)
	assert.Equal(t, valueobjects.ProvenanceHistorical, g.Links[0].Provenance)
}

func TestDecodeSessionConvertsLegacyFieldsRegardlessOfStamp(t *testing.T) {
	// The version stamp claims current, but the document still carries
	// pre-migration field shapes. Rewrites key off field presence, so the
	// blob must converge anyway.
	blob := []byte(`{
		"version": 5,
		"projects": [{
			"id": "proj-1",
			"name": "Mis-stamped",
			"data": {
				"mapLayout": {
					"nodes": [
						{"id": "a", "name": "A", "isAiGenerated": true},
						{"id": "b", "name": "B"}
					],
					"links": [{
						"source": "a",
						"target": "b",
						"relationshipType": "Causal",
						"justification": "because X"
					}]
				}
			}
		}]
	}`)

	session, err := DecodeSession(blob)
	require.NoError(t, err)

	g := &session.Projects[0].Data.MapLayout
	require.Len(t, g.Links, 1)
	assert.Equal(t, []valueobjects.RelationshipType{valueobjects.TypeCausal}, g.Links[0].RelationshipTypes)
	require.NotNil(t, g.Links[0].Justification)
	assert.Equal(t, "because X", g.Links[0].Justification.Text)
	assert.Equal(t, valueobjects.ProvenanceAIGenerated, g.FindNode("a").Provenance)
	assert.NoError(t, g.Validate())
}

func TestMigrateIsIdempotent(t *testing.T) {
	session := aggregates.NewDefaultSession()
	session.CreateProject("Second")
	raw, err := json.Marshal(session)
	require.NoError(t, err)

	once, err := DecodeSession(raw)
	require.NoError(t, err)
	rawOnce, err := json.Marshal(once)
	require.NoError(t, err)

	twice, err := DecodeSession(rawOnce)
	require.NoError(t, err)
	rawTwice, err := json.Marshal(twice)
	require.NoError(t, err)

	assert.JSONEq(t, string(rawOnce), string(rawTwice))
}

func TestDecodeSessionRejectsGarbage(t *testing.T) {
	_, err := DecodeSession([]byte(`{not json`))
	assert.Error(t, err)

	_, err = DecodeSession([]byte(`{"version": "not-a-number", "projects": "nope"}`))
	assert.Error(t, err)
}

func TestDecodeSessionDropsUnknownDiaryEntries(t *testing.T) {
	blob := []byte(`{
		"version": 5,
		"projects": [{
			"id": "proj-1",
			"name": "P",
			"data": {
				"mapLayout": {"nodes": [], "links": [], "logicalConstructs": []},
				"projectDiary": [
					{"id": "1", "timestamp": "2024-01-01T00:00:00Z", "type": "CREATE_PROJECT", "payload": {"projectId": "proj-1", "projectName": "P"}},
					{"id": "2", "timestamp": "2024-01-02T00:00:00Z", "type": "FUTURE_THING", "payload": {}}
				]
			}
		}]
	}`)

	session, err := DecodeSession(blob)
	require.NoError(t, err)

	diary := session.Projects[0].Data.ProjectDiary
	require.Len(t, diary, 1)
	assert.Equal(t, "1", diary[0].ID)
}

func TestImportLegacy(t *testing.T) {
	t.Run("all keys absent yields one empty default project", func(t *testing.T) {
		session := ImportLegacy(LegacyBlobs{})

		assert.Equal(t, aggregates.SchemaVersion, session.Version)
		require.Len(t, session.Projects, 1)
		assert.Equal(t, aggregates.DefaultProjectName, session.Projects[0].Name)
		assert.Equal(t, session.Projects[0].ID, session.ActiveProjectID)

		data := session.Projects[0].Data
		assert.Empty(t, data.MapLayout.Nodes)
		assert.Empty(t, data.MapTrayConceptIDs)
		assert.Empty(t, data.TrackedFeeds)
		assert.Empty(t, data.SeenPublicationIDs)
	})

	t.Run("normalizes legacy layout into the current shape", func(t *testing.T) {
		blobs := LegacyBlobs{
			MapLayout: []byte(`{
				"nodes": [{"id": "a", "name": "A"}, {"id": "b", "name": "B", "isDialectic": true}],
				"links": [{"source": "a", "target": "b", "justification": "old school"}]
			}`),
			TrayConceptIDs:     []byte(`["c1", "c2"]`),
			SeenPublicationIDs: []byte(`["pub-1"]`),
		}

		session := ImportLegacy(blobs)
		data := session.Projects[0].Data

		require.Len(t, data.MapLayout.Links, 1)
		link := data.MapLayout.Links[0]
		assert.Equal(t, []valueobjects.RelationshipType{valueobjects.TypeUnclassified}, link.RelationshipTypes)
		require.NotNil(t, link.Justification)
		assert.Equal(t, "old school", link.Justification.Text)

		assert.Equal(t, valueobjects.ProvenanceDialectic, data.MapLayout.FindNode("b").Provenance)
		assert.Len(t, data.MapTrayConceptIDs, 2)
		assert.Equal(t, []string{"pub-1"}, data.SeenPublicationIDs)
	})

	t.Run("an unreadable blob degrades to its empty default", func(t *testing.T) {
		session := ImportLegacy(LegacyBlobs{
			MapLayout:      []byte(`{{{`),
			TrayConceptIDs: []byte(`["c1"]`),
		})

		assert.Empty(t, session.Projects[0].Data.MapLayout.Nodes)
		assert.Len(t, session.Projects[0].Data.MapTrayConceptIDs, 1)
	})
}
