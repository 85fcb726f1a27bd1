package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"conceptmap-backend/application/ports"
	"conceptmap-backend/application/store"
	"conceptmap-backend/domain/activity"
	"conceptmap-backend/domain/core/aggregates"
	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
	apperrors "conceptmap-backend/pkg/errors"
)

// memoryRepository keeps the session in memory for service tests
type memoryRepository struct{}

func (memoryRepository) Load(ctx context.Context) *aggregates.Session { return aggregates.NewDefaultSession() }
func (memoryRepository) Save(ctx context.Context, s *aggregates.Session) error { return nil }
func (memoryRepository) Close() error                                          { return nil }

// fakeGenerator returns a canned response, optionally blocking until
// released so tests can observe the in-flight window
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	text    string
	err     error
	release chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, req ports.GenerationRequest) (ports.GenerationResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return ports.GenerationResult{}, f.err
	}
	return ports.GenerationResult{Text: f.text, Raw: f.text}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newEnrichmentFixture(t *testing.T, gen *fakeGenerator) (*EnrichmentService, *store.SessionStore, entities.LinkKey) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sessionStore := store.NewSessionStore(context.Background(), memoryRepository{}, logger)

	key := entities.LinkKey{Source: "hume", Target: "causality"}
	err := sessionStore.Update(context.Background(), func(session *aggregates.Session) error {
		g := activeGraph(session)
		require.NoError(t, g.AddNode(entities.NewMapNode("hume", "Hume", valueobjects.Position{})))
		require.NoError(t, g.AddNode(entities.NewMapNode("causality", "Causality", valueobjects.Position{X: 200})))
		_, err := g.CreateLink(key.Source, key.Target, []valueobjects.RelationshipType{valueobjects.TypeCausal})
		return err
	})
	require.NoError(t, err)

	svc := NewEnrichmentService(sessionStore, gen, "test-model", logger)
	return svc, sessionStore, key
}

func findLink(s *store.SessionStore, key entities.LinkKey) *entities.MapLink {
	var link *entities.MapLink
	s.Read(func(session *aggregates.Session) {
		if found := activeGraph(session).FindLink(key); found != nil {
			clone := *found
			link = &clone
		}
	})
	return link
}

func diaryTypes(s *store.SessionStore) []activity.Type {
	var types []activity.Type
	s.Read(func(session *aggregates.Session) {
		for _, e := range session.ActiveProject().Data.ProjectDiary {
			types = append(types, e.Type)
		}
	})
	return types
}

func TestGenerateJustificationSuccess(t *testing.T) {
	gen := &fakeGenerator{text: `{"text": "constant conjunction is all we observe", "citations": [{"title": "Enquiry", "source": "Hume"}]}`}
	svc, sessionStore, key := newEnrichmentFixture(t, gen)

	require.NoError(t, svc.GenerateJustification(context.Background(), key))
	svc.Wait()

	link := findLink(sessionStore, key)
	require.NotNil(t, link)
	assert.Equal(t, valueobjects.EnrichmentSuccess, link.JustificationState)
	require.NotNil(t, link.Justification)
	assert.Equal(t, "constant conjunction is all we observe", link.Justification.Text)
	require.Len(t, link.Justification.Citations, 1)

	assert.Contains(t, diaryTypes(sessionStore), activity.TypeGenerateJustification)

	sessionStore.Read(func(session *aggregates.Session) {
		entry := session.ActiveProject().Data.ProjectDiary[0]
		require.NotNil(t, entry.Provenance)
		assert.Equal(t, "test-model", entry.Provenance.Model)
		assert.NotEmpty(t, entry.Provenance.Prompt)
	})
}

func TestGenerateJustificationFailureStoresFallback(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	svc, sessionStore, key := newEnrichmentFixture(t, gen)

	require.NoError(t, svc.GenerateJustification(context.Background(), key))
	svc.Wait()

	link := findLink(sessionStore, key)
	assert.Equal(t, valueobjects.EnrichmentError, link.JustificationState)
	require.NotNil(t, link.Justification)
	assert.NotEmpty(t, link.Justification.Text)

	sessionStore.Read(func(session *aggregates.Session) {
		entry := session.ActiveProject().Data.ProjectDiary[0]
		require.NotNil(t, entry.Provenance)
		assert.Contains(t, entry.Provenance.RawResponse, "ERROR")
	})
}

func TestGenerateJustificationMalformedResponse(t *testing.T) {
	gen := &fakeGenerator{text: "I'd rather write prose than JSON"}
	svc, sessionStore, key := newEnrichmentFixture(t, gen)

	require.NoError(t, svc.GenerateJustification(context.Background(), key))
	svc.Wait()

	link := findLink(sessionStore, key)
	assert.Equal(t, valueobjects.EnrichmentError, link.JustificationState)
}

func TestAtMostOneInFlightPerField(t *testing.T) {
	gen := &fakeGenerator{
		text:    `{"text": "ok", "citations": []}`,
		release: make(chan struct{}),
	}
	svc, _, key := newEnrichmentFixture(t, gen)

	require.NoError(t, svc.GenerateJustification(context.Background(), key))

	err := svc.GenerateJustification(context.Background(), key)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeEnrichmentInFlight, apperrors.GetAppError(err).Code)

	// A different field on the same link is independent
	require.NoError(t, svc.GenerateImplications(context.Background(), key))

	close(gen.release)
	svc.Wait()
	assert.Equal(t, 2, gen.callCount())
}

func TestStaleCompletionIsDropped(t *testing.T) {
	gen := &fakeGenerator{
		text:    `{"text": "too late", "citations": []}`,
		release: make(chan struct{}),
	}
	svc, sessionStore, key := newEnrichmentFixture(t, gen)

	require.NoError(t, svc.GenerateJustification(context.Background(), key))

	// The link disappears while the request is pending
	require.NoError(t, sessionStore.Update(context.Background(), func(session *aggregates.Session) error {
		activeGraph(session).DeleteNode(key.Source)
		return nil
	}))

	close(gen.release)
	svc.Wait()

	assert.Nil(t, findLink(sessionStore, key))
	assert.NotContains(t, diaryTypes(sessionStore), activity.TypeGenerateJustification)
}

func TestReplacedLinkDiscardsOldCompletion(t *testing.T) {
	gen := &fakeGenerator{
		text:    `{"text": "answer for the old concept", "citations": []}`,
		release: make(chan struct{}),
	}
	svc, sessionStore, key := newEnrichmentFixture(t, gen)

	require.NoError(t, svc.GenerateJustification(context.Background(), key))

	// The source concept is swapped and swapped back: the key matches again
	// but the generation stamp has moved on
	require.NoError(t, sessionStore.Update(context.Background(), func(session *aggregates.Session) error {
		g := activeGraph(session)
		if err := g.ReplaceNodeIdentity(key.Source, "kant", "Kant"); err != nil {
			return err
		}
		return g.ReplaceNodeIdentity("kant", key.Source, "Hume")
	}))

	close(gen.release)
	svc.Wait()

	link := findLink(sessionStore, key)
	require.NotNil(t, link)
	assert.Nil(t, link.Justification)

	// The discarded completion must not leave the field wedged: the
	// identity rewrite settled it back to idle, so a retry goes through
	assert.Equal(t, valueobjects.EnrichmentIdle, link.JustificationState)
	require.NoError(t, svc.GenerateJustification(context.Background(), key))
	svc.Wait()

	link = findLink(sessionStore, key)
	assert.Equal(t, valueobjects.EnrichmentSuccess, link.JustificationState)
	require.NotNil(t, link.Justification)
	assert.Equal(t, "answer for the old concept", link.Justification.Text)
}

func TestCompletionStaysOnDispatchingProject(t *testing.T) {
	gen := &fakeGenerator{
		text:    `{"text": "meant for the first project", "citations": []}`,
		release: make(chan struct{}),
	}
	svc, sessionStore, key := newEnrichmentFixture(t, gen)

	var firstProjectID string
	sessionStore.Read(func(session *aggregates.Session) {
		firstProjectID = session.ActiveProjectID
	})

	require.NoError(t, svc.GenerateJustification(context.Background(), key))

	// A second project with the same link key becomes active while the
	// request is pending
	require.NoError(t, sessionStore.Update(context.Background(), func(session *aggregates.Session) error {
		session.CreateProject("Decoy")
		g := activeGraph(session)
		if err := g.AddNode(entities.NewMapNode(key.Source, "Hume", valueobjects.Position{})); err != nil {
			return err
		}
		if err := g.AddNode(entities.NewMapNode(key.Target, "Causality", valueobjects.Position{X: 200})); err != nil {
			return err
		}
		_, err := g.CreateLink(key.Source, key.Target, nil)
		return err
	}))

	close(gen.release)
	svc.Wait()

	sessionStore.Read(func(session *aggregates.Session) {
		original := session.FindProject(firstProjectID).Data.MapLayout.FindLink(key)
		require.NotNil(t, original)
		assert.Equal(t, valueobjects.EnrichmentSuccess, original.JustificationState)
		require.NotNil(t, original.Justification)
		assert.Equal(t, "meant for the first project", original.Justification.Text)
		assert.NotEmpty(t, session.FindProject(firstProjectID).Data.ProjectDiary)

		decoy := session.ActiveProject().Data.MapLayout.FindLink(key)
		require.NotNil(t, decoy)
		assert.Equal(t, valueobjects.EnrichmentIdle, decoy.JustificationState)
		assert.Nil(t, decoy.Justification)
		assert.Empty(t, session.ActiveProject().Data.ProjectDiary)
	})
}

func TestCompletionAfterProjectDeletedIsDropped(t *testing.T) {
	gen := &fakeGenerator{
		text:    `{"text": "orphaned answer", "citations": []}`,
		release: make(chan struct{}),
	}
	svc, sessionStore, key := newEnrichmentFixture(t, gen)

	var firstProjectID string
	sessionStore.Read(func(session *aggregates.Session) {
		firstProjectID = session.ActiveProjectID
	})

	require.NoError(t, svc.GenerateJustification(context.Background(), key))

	require.NoError(t, sessionStore.Update(context.Background(), func(session *aggregates.Session) error {
		session.CreateProject("Replacement")
		return session.DeleteProject(firstProjectID)
	}))

	close(gen.release)
	svc.Wait()

	sessionStore.Read(func(session *aggregates.Session) {
		assert.Nil(t, session.FindProject(firstProjectID))
		assert.Nil(t, session.ActiveProject().Data.MapLayout.FindLink(key))
		assert.Empty(t, session.ActiveProject().Data.ProjectDiary)
	})
}

func TestGenerateGenealogyCreatesTaggedNodes(t *testing.T) {
	gen := &fakeGenerator{text: `{
		"precursors": [{"name": "Locke", "description": "empiricism"}],
		"successors": [{"name": "Kant", "description": "woke from dogmatic slumber"}]
	}`}
	svc, sessionStore, _ := newEnrichmentFixture(t, gen)

	require.NoError(t, svc.GenerateGenealogy(context.Background(), "hume"))
	svc.Wait()

	sessionStore.Read(func(session *aggregates.Session) {
		g := activeGraph(session)
		require.Len(t, g.Nodes, 4)

		var derived []entities.MapNode
		for _, n := range g.Nodes {
			if n.Provenance == valueobjects.ProvenanceHistorical {
				derived = append(derived, n)
			}
		}
		require.Len(t, derived, 2)
		for _, n := range derived {
			assert.True(t, n.ID.IsSynthetic())
			link := g.FindLinkBetween("hume", n.ID)
			require.NotNil(t, link)
			assert.Equal(t, []valueobjects.RelationshipType{valueobjects.TypeHistorical}, link.RelationshipTypes)
		}
	})

	assert.Contains(t, diaryTypes(sessionStore), activity.TypeGenerateGenealogy)
}

func TestSynthesizeRegionRequiresTwoConcepts(t *testing.T) {
	svc, _, _ := newEnrichmentFixture(t, &fakeGenerator{})

	err := svc.SynthesizeRegion(context.Background(), []valueobjects.NodeID{"hume"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestSynthesizeRegionCreatesCentroidConcept(t *testing.T) {
	gen := &fakeGenerator{text: `{"name": "Skeptical Empiricism", "explanation": "both distrust pure reason"}`}
	svc, sessionStore, _ := newEnrichmentFixture(t, gen)

	require.NoError(t, svc.SynthesizeRegion(context.Background(), []valueobjects.NodeID{"hume", "causality"}))
	svc.Wait()

	sessionStore.Read(func(session *aggregates.Session) {
		g := activeGraph(session)
		var synth *entities.MapNode
		for i := range g.Nodes {
			if g.Nodes[i].Provenance == valueobjects.ProvenanceAIGenerated {
				synth = &g.Nodes[i]
			}
		}
		require.NotNil(t, synth)
		assert.Equal(t, "Skeptical Empiricism", synth.Name)
		assert.Equal(t, 100.0, synth.X)
		require.NotNil(t, synth.SynthesisInfo)
		assert.Len(t, synth.SynthesisInfo.SourceConceptIDs, 2)
		assert.NotNil(t, g.FindLinkBetween("hume", synth.ID))
	})
}

func TestFindCounterExamplesAddsCounterNodes(t *testing.T) {
	gen := &fakeGenerator{text: `{"examples": [{"name": "Billiard balls", "description": "no necessary connection observed"}]}`}
	svc, sessionStore, key := newEnrichmentFixture(t, gen)

	require.NoError(t, svc.FindCounterExamples(context.Background(), key))
	svc.Wait()

	sessionStore.Read(func(session *aggregates.Session) {
		g := activeGraph(session)
		var counter *entities.MapNode
		for i := range g.Nodes {
			if g.Nodes[i].Provenance == valueobjects.ProvenanceCounterExample {
				counter = &g.Nodes[i]
			}
		}
		require.NotNil(t, counter)
		link := g.FindLinkBetween(counter.ID, key.Target)
		require.NotNil(t, link)
		assert.Equal(t, []valueobjects.RelationshipType{valueobjects.TypeCounterExample}, link.RelationshipTypes)
	})

	assert.Contains(t, diaryTypes(sessionStore), activity.TypeFindCounterExamples)
}
