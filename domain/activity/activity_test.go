package activity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	t.Run("stamps id and timestamp", func(t *testing.T) {
		entry, err := NewEntry(TypeCreateMapLink, CreateMapLinkPayload{
			SourceID:   "a",
			TargetID:   "b",
			SourceName: "A",
			TargetName: "B",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.Timestamp.IsZero())
		assert.Equal(t, TypeCreateMapLink, entry.Type)
	})

	t.Run("rejects a payload for a different type", func(t *testing.T) {
		_, err := NewEntry(TypeDeleteNode, CreateMapLinkPayload{SourceID: "a", TargetID: "b"})
		assert.Error(t, err)
	})

	t.Run("rejects a nil payload", func(t *testing.T) {
		_, err := NewEntry(TypeDeleteNode, nil)
		assert.Error(t, err)
	})
}

func TestEntryJSONRoundTrip(t *testing.T) {
	entry, err := NewEntry(TypeSynthesizeRegion, SynthesizeRegionPayload{
		NewConceptName:     "Dialectic",
		SourceConceptCount: 3,
		Succeeded:          true,
	})
	require.NoError(t, err)
	entry = entry.WithProvenance(Provenance{
		Model:       "gpt-4o-mini",
		Prompt:      "synthesize",
		RawResponse: `{"name":"Dialectic"}`,
	})

	raw, err := json.Marshal(entry)
	require.NoError(t, err)

	var decoded Entry
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, entry.ID, decoded.ID)
	assert.Equal(t, TypeSynthesizeRegion, decoded.Type)
	require.NotNil(t, decoded.Provenance)
	assert.Equal(t, "gpt-4o-mini", decoded.Provenance.Model)

	payload, ok := decoded.Payload.(*SynthesizeRegionPayload)
	require.True(t, ok, "payload decoded as %T", decoded.Payload)
	assert.Equal(t, "Dialectic", payload.NewConceptName)
	assert.Equal(t, 3, payload.SourceConceptCount)
	assert.True(t, payload.Succeeded)
}

func TestUnmarshalRejectsUnknownType(t *testing.T) {
	raw := []byte(`{"id":"1","timestamp":"2024-01-01T00:00:00Z","type":"SOMETHING_ELSE","payload":{}}`)

	var entry Entry
	err := json.Unmarshal(raw, &entry)
	assert.Error(t, err)
}

func TestIsKnownType(t *testing.T) {
	assert.True(t, IsKnownType(TypeCreateMapLink))
	assert.True(t, IsKnownType(TypeFindCounterExamples))
	assert.False(t, IsKnownType("NOT_A_THING"))
}

func TestEveryTypeHasAFactory(t *testing.T) {
	all := []Type{
		TypeCreateMapLink, TypeDeleteMapLink, TypeDeleteNode, TypeChangeConcept,
		TypePinCitation, TypeCreateLogicalConstruct, TypeGenerateJustification,
		TypeGenerateImplications, TypeFormalizeLink, TypeAnalyzeArgument,
		TypeAnalyzeDefinition, TypeGenerateGenealogy, TypeSynthesizeRegion,
		TypeFindCounterExamples, TypeCreateProject, TypeRenameProject, TypeDeleteProject,
	}
	for _, typ := range all {
		assert.True(t, IsKnownType(typ), "missing factory for %s", typ)
	}
}
