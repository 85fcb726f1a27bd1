package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
	apperrors "conceptmap-backend/pkg/errors"
)

func newTestGraph(t *testing.T, ids ...string) *GraphModel {
	t.Helper()
	g := NewGraphModel()
	for i, id := range ids {
		node := entities.NewMapNode(valueobjects.NodeID(id), id, valueobjects.Position{X: float64(i) * 100, Y: 0})
		require.NoError(t, g.AddNode(node))
	}
	return &g
}

func TestAddNode(t *testing.T) {
	t.Run("rejects duplicate ids", func(t *testing.T) {
		g := newTestGraph(t, "plato")

		err := g.AddNode(entities.NewMapNode("plato", "Plato", valueobjects.Position{}))
		assert.True(t, apperrors.IsConflict(err))
		assert.Len(t, g.Nodes, 1)
	})

	t.Run("rejects empty ids", func(t *testing.T) {
		g := newTestGraph(t)

		err := g.AddNode(entities.NewMapNode("", "Nameless", valueobjects.Position{}))
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestCreateLink(t *testing.T) {
	t.Run("creates a link with idle enrichment state", func(t *testing.T) {
		g := newTestGraph(t, "a", "b")

		link, err := g.CreateLink("a", "b", []valueobjects.RelationshipType{valueobjects.TypeSupportive})
		require.NoError(t, err)

		assert.Equal(t, valueobjects.EnrichmentIdle, link.JustificationState)
		assert.Equal(t, valueobjects.EnrichmentIdle, link.ImplicationsState)
		assert.Equal(t, valueobjects.EnrichmentIdle, link.FormalizationState)
	})

	t.Run("rejects reversed duplicates", func(t *testing.T) {
		g := newTestGraph(t, "a", "b")

		_, err := g.CreateLink("a", "b", []valueobjects.RelationshipType{valueobjects.TypeSupportive})
		require.NoError(t, err)

		_, err = g.CreateLink("b", "a", []valueobjects.RelationshipType{valueobjects.TypeCausal})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeDuplicateLink, apperrors.GetAppError(err).Code)

		require.Len(t, g.Links, 1)
		assert.Equal(t, []valueobjects.RelationshipType{valueobjects.TypeSupportive}, g.Links[0].RelationshipTypes)
	})

	t.Run("rejects self reference", func(t *testing.T) {
		g := newTestGraph(t, "a")

		_, err := g.CreateLink("a", "a", nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeSelfReferenceLink, apperrors.GetAppError(err).Code)
	})

	t.Run("rejects missing endpoints", func(t *testing.T) {
		g := newTestGraph(t, "a")

		_, err := g.CreateLink("a", "ghost", nil)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("empty type set collapses to Unclassified", func(t *testing.T) {
		g := newTestGraph(t, "a", "b")

		link, err := g.CreateLink("a", "b", nil)
		require.NoError(t, err)
		assert.Equal(t, []valueobjects.RelationshipType{valueobjects.TypeUnclassified}, link.RelationshipTypes)
	})
}

func TestDeleteNodeCascades(t *testing.T) {
	g := newTestGraph(t, "a", "b", "c")

	_, err := g.CreateLink("a", "b", nil)
	require.NoError(t, err)
	_, err = g.CreateLink("c", "a", nil)
	require.NoError(t, err)
	_, err = g.CreateLink("b", "c", nil)
	require.NoError(t, err)

	_, err = g.CreateLogicalConstruct([]valueobjects.NodeID{"a", "b"}, "c", entities.FormalizationChoice{})
	require.NoError(t, err)
	_, err = g.CreateLogicalConstruct([]valueobjects.NodeID{"b"}, "c", entities.FormalizationChoice{})
	require.NoError(t, err)

	g.DeleteNode("a")

	assert.False(t, g.HasNode("a"))
	for _, l := range g.Links {
		assert.False(t, l.Touches("a"), "link %s->%s survived the cascade", l.Source, l.Target)
	}
	for _, c := range g.LogicalConstructs {
		assert.False(t, c.References("a"))
	}
	// The unrelated link and construct survive
	assert.NotNil(t, g.FindLinkBetween("b", "c"))
	assert.Len(t, g.LogicalConstructs, 1)
	assert.NoError(t, g.Validate())
}

func TestDeleteNodeUnknownIDIsNoop(t *testing.T) {
	g := newTestGraph(t, "a")
	g.DeleteNode("ghost")
	assert.Len(t, g.Nodes, 1)
}

func TestUpdateLinkRelationshipTypes(t *testing.T) {
	g := newTestGraph(t, "a", "b")
	link, err := g.CreateLink("a", "b", []valueobjects.RelationshipType{valueobjects.TypeSupportive})
	require.NoError(t, err)

	t.Run("empty input collapses to Unclassified", func(t *testing.T) {
		g.UpdateLinkRelationshipTypes(link.Key(), nil)
		assert.Equal(t, []valueobjects.RelationshipType{valueobjects.TypeUnclassified}, g.FindLink(link.Key()).RelationshipTypes)
	})

	t.Run("duplicates are removed preserving order", func(t *testing.T) {
		g.UpdateLinkRelationshipTypes(link.Key(), []valueobjects.RelationshipType{
			valueobjects.TypeCausal, valueobjects.TypeSupportive, valueobjects.TypeCausal,
		})
		assert.Equal(t,
			[]valueobjects.RelationshipType{valueobjects.TypeCausal, valueobjects.TypeSupportive},
			g.FindLink(link.Key()).RelationshipTypes,
		)
	})
}

func TestReplaceNodeIdentity(t *testing.T) {
	t.Run("rewrites link endpoints and constructs", func(t *testing.T) {
		g := newTestGraph(t, "old", "b", "c")
		_, err := g.CreateLink("old", "b", nil)
		require.NoError(t, err)
		_, err = g.CreateLink("c", "old", nil)
		require.NoError(t, err)
		_, err = g.CreateLogicalConstruct([]valueobjects.NodeID{"old", "b"}, "c", entities.FormalizationChoice{})
		require.NoError(t, err)

		gen := g.FindLinkBetween("old", "b").Generation

		require.NoError(t, g.ReplaceNodeIdentity("old", "new", "New Concept"))

		assert.False(t, g.HasNode("old"))
		node := g.FindNode("new")
		require.NotNil(t, node)
		assert.Equal(t, "New Concept", node.Name)
		assert.Equal(t, valueobjects.ProvenanceUserDefined, node.Provenance)

		require.NotNil(t, g.FindLink(entities.LinkKey{Source: "new", Target: "b"}))
		require.NotNil(t, g.FindLink(entities.LinkKey{Source: "c", Target: "new"}))
		assert.Greater(t, g.FindLinkBetween("new", "b").Generation, gen)

		assert.Equal(t, valueobjects.NodeID("new"), g.LogicalConstructs[0].PremiseNodeIDs[0])
		assert.NoError(t, g.Validate())
	})

	t.Run("settles in-flight enrichment on rewritten links", func(t *testing.T) {
		g := newTestGraph(t, "old", "b")
		link, err := g.CreateLink("old", "b", nil)
		require.NoError(t, err)
		link.JustificationState = valueobjects.EnrichmentLoading
		link.ImplicationsState = valueobjects.EnrichmentSuccess

		require.NoError(t, g.ReplaceNodeIdentity("old", "new", "New Concept"))

		rewritten := g.FindLink(entities.LinkKey{Source: "new", Target: "b"})
		require.NotNil(t, rewritten)
		assert.Equal(t, valueobjects.EnrichmentIdle, rewritten.JustificationState)
		assert.Equal(t, valueobjects.EnrichmentSuccess, rewritten.ImplicationsState)
	})

	t.Run("same id only renames", func(t *testing.T) {
		g := newTestGraph(t, "a")
		require.NoError(t, g.ReplaceNodeIdentity("a", "a", "Renamed"))
		assert.Equal(t, "Renamed", g.FindNode("a").Name)
	})

	t.Run("conflict when the target id is already placed", func(t *testing.T) {
		g := newTestGraph(t, "a", "b")
		err := g.ReplaceNodeIdentity("a", "b", "B")
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestPinCitation(t *testing.T) {
	g := newTestGraph(t, "a", "b")
	link, err := g.CreateLink("a", "b", nil)
	require.NoError(t, err)

	citation := entities.Citation{Title: "Critique of Pure Reason", Source: "Kant"}
	node, err := g.PinCitation(link.Key(), citation)
	require.NoError(t, err)

	assert.True(t, node.ID.IsSynthetic())
	assert.Equal(t, valueobjects.ProvenanceCitation, node.Provenance)
	require.NotNil(t, node.CitationData)
	assert.Equal(t, "Kant", node.CitationData.Source)

	// Positioned at the link midpoint
	assert.Equal(t, 50.0, node.X)

	cited := g.FindLinkBetween("a", node.ID)
	require.NotNil(t, cited)
	assert.Equal(t, []valueobjects.RelationshipType{valueobjects.TypeCited}, cited.RelationshipTypes)
}

func TestCreateLogicalConstruct(t *testing.T) {
	g := newTestGraph(t, "a", "b", "c")

	t.Run("rejects zero premises", func(t *testing.T) {
		_, err := g.CreateLogicalConstruct(nil, "c", entities.FormalizationChoice{})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("rejects conclusion among premises", func(t *testing.T) {
		_, err := g.CreateLogicalConstruct([]valueobjects.NodeID{"a", "c"}, "c", entities.FormalizationChoice{})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("rejects missing nodes", func(t *testing.T) {
		_, err := g.CreateLogicalConstruct([]valueobjects.NodeID{"ghost"}, "c", entities.FormalizationChoice{})
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("records premises, conclusion and the chosen formalization", func(t *testing.T) {
		choice := entities.FormalizationChoice{
			Representation: "(P ∧ Q) → R",
			System:         "propositional",
			Rationale:      "the premises jointly entail the conclusion",
			Critique:       "the second premise is doing most of the work",
			Propositions: []entities.Proposition{
				{Symbol: "P", Statement: "a holds"},
				{Symbol: "Q", Statement: "b holds"},
				{Symbol: "R", Statement: "c follows"},
			},
			Candidates: []entities.FormalizationCandidate{
				{System: "propositional", Representation: "(P ∧ Q) → R"},
				{System: "first-order", Representation: "∀x (P(x) ∧ Q(x) → R(x))", Rationale: "over-general here"},
			},
		}

		construct, err := g.CreateLogicalConstruct([]valueobjects.NodeID{"a", "b"}, "c", choice)
		require.NoError(t, err)
		assert.NotEmpty(t, construct.ID)
		assert.Equal(t, "AND", construct.Operator)
		assert.Equal(t, "(P ∧ Q) → R", construct.FormalRepresentation)
		assert.Equal(t, "propositional", construct.SuggestedSystem)
		assert.Equal(t, "the premises jointly entail the conclusion", construct.Rationale)
		assert.Equal(t, "the second premise is doing most of the work", construct.Critique)
		assert.Len(t, construct.Propositions, 3)
		assert.Len(t, construct.Candidates, 2)
	})
}

func TestLinkUniquenessUnderMutationSequences(t *testing.T) {
	g := newTestGraph(t, "a", "b", "c")

	_, _ = g.CreateLink("a", "b", nil)
	_, _ = g.CreateLink("b", "a", nil)
	_, _ = g.CreateLink("b", "c", nil)
	_, _ = g.CreateLink("c", "b", nil)
	g.DeleteLink(entities.LinkKey{Source: "a", Target: "b"})
	_, _ = g.CreateLink("b", "a", nil)
	_, _ = g.CreateLink("a", "b", nil)

	require.NoError(t, g.Validate())
	assert.Len(t, g.Links, 2)
}
