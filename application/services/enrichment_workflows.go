package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"conceptmap-backend/application/ports"
	"conceptmap-backend/domain/activity"
	"conceptmap-backend/domain/core/aggregates"
	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
	apperrors "conceptmap-backend/pkg/errors"
)

// Workflows in this file create new graph entities on success instead of
// filling a field, so their in-flight guard lives in the service registry
// rather than on the entity.

// Placement constants for derived entities
const (
	genealogyRadius      = 260.0
	dialecticOffsetX     = 220.0
	dialecticOffsetY     = 120.0
	counterExampleOffset = 180.0
)

// tryAcquire claims the in-flight slot for a workflow key. The second
// request for the same slot is rejected, not queued.
func (s *EnrichmentService) tryAcquire(field valueobjects.EnrichmentField, entityKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := string(field) + "|" + entityKey
	if s.inflight[slot] {
		return apperrors.NewEnrichmentInFlightError(string(field))
	}
	s.inflight[slot] = true
	return nil
}

// release frees a workflow slot
func (s *EnrichmentService) release(field valueobjects.EnrichmentField, entityKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, string(field)+"|"+entityKey)
}

// nodeSnapshot captures a node at dispatch time, pinned to the project
// that dispatched it
type nodeSnapshot struct {
	projectID  string
	id         valueobjects.NodeID
	generation uint64
	name       string
	pos        valueobjects.Position
}

// snapshotNode reads one node under the store lock
func (s *EnrichmentService) snapshotNode(id valueobjects.NodeID) (nodeSnapshot, error) {
	var snap nodeSnapshot
	found := false
	s.store.Read(func(session *aggregates.Session) {
		project := session.ActiveProject()
		if project == nil {
			return
		}
		if node := project.Data.MapLayout.FindNode(id); node != nil {
			snap = nodeSnapshot{projectID: project.ID, id: node.ID, generation: node.Generation, name: node.Name, pos: node.Position()}
			found = true
		}
	})
	if !found {
		return snap, apperrors.NewNodeNotFoundError(id.String())
	}
	return snap, nil
}

// generatedConcept is one derived concept proposed by the collaborator
type generatedConcept struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// genealogyResponse is the structured result for a genealogy request
type genealogyResponse struct {
	Precursors []generatedConcept `json:"precursors"`
	Successors []generatedConcept `json:"successors"`
}

// GenerateGenealogy expands a node's intellectual history: precursor and
// successor concepts placed radially around it, linked with Historical
// relationships and historical provenance.
func (s *EnrichmentService) GenerateGenealogy(ctx context.Context, id valueobjects.NodeID) error {
	snap, err := s.snapshotNode(id)
	if err != nil {
		return err
	}
	if err := s.tryAcquire(valueobjects.FieldGenealogy, id.String()); err != nil {
		return err
	}

	req := ports.GenerationRequest{
		SystemInstruction: "You trace the intellectual genealogy of concepts: what they grew out of and what grew out of them.",
		Prompt: fmt.Sprintf(
			"Give the genealogy of %q. Respond as JSON {\"precursors\": [{\"name\", \"description\"}], \"successors\": [{\"name\", \"description\"}]}.",
			snap.name,
		),
		WantJSON: true,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(valueobjects.FieldGenealogy, id.String())

		result, genErr := s.generate(req)
		var payload genealogyResponse
		if genErr == nil {
			genErr = decodeStructured(result.Text, &payload)
		}
		if genErr == nil && len(payload.Precursors)+len(payload.Successors) == 0 {
			genErr = apperrors.NewExternalError("generator", nil).WithCode(apperrors.CodeMalformedGeneration)
		}

		prov := provenanceFor(s.model, req, result, genErr)
		applyErr := s.store.Update(context.Background(), func(session *aggregates.Session) error {
			g := projectGraph(session, snap.projectID)
			if g == nil {
				return nil
			}
			node := g.FindNode(snap.id)
			if node == nil || node.Generation != snap.generation {
				return nil // stale: the anchor is gone or replaced
			}

			precursorsAdded, successorsAdded := 0, 0
			if genErr == nil {
				total := len(payload.Precursors) + len(payload.Successors)
				positions := valueobjects.RadialAround(snap.pos, genealogyRadius, total)

				for i, concept := range payload.Precursors {
					derived := entities.NewDerivedNode(concept.Name, positions[i], valueobjects.ProvenanceHistorical)
					derived.Notes = concept.Description
					if g.AddNode(derived) != nil {
						continue
					}
					if _, err := g.CreateLink(derived.ID, snap.id, []valueobjects.RelationshipType{valueobjects.TypeHistorical}); err == nil {
						precursorsAdded++
					}
				}
				for i, concept := range payload.Successors {
					derived := entities.NewDerivedNode(concept.Name, positions[len(payload.Precursors)+i], valueobjects.ProvenanceHistorical)
					derived.Notes = concept.Description
					if g.AddNode(derived) != nil {
						continue
					}
					if _, err := g.CreateLink(snap.id, derived.ID, []valueobjects.RelationshipType{valueobjects.TypeHistorical}); err == nil {
						successorsAdded++
					}
				}
			}

			entry, entryErr := activity.NewEntry(activity.TypeGenerateGenealogy, activity.GenerateGenealogyPayload{
				NodeID:          snap.id.String(),
				NodeName:        snap.name,
				PrecursorsAdded: precursorsAdded,
				SuccessorsAdded: successorsAdded,
				Succeeded:       genErr == nil,
			})
			if entryErr == nil {
				session.AppendActivityTo(snap.projectID, entry.WithProvenance(prov))
			}
			return nil
		})
		if applyErr != nil {
			s.logger.Error("genealogy completion failed to persist", zap.Error(applyErr))
		}
	}()

	return nil
}

// synthesisResponse is the structured result for a region synthesis
type synthesisResponse struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
}

// SynthesizeRegion condenses a selected set of nodes into one new concept at
// their centroid, linked from every source and carrying a synthesisInfo
// explanation.
func (s *EnrichmentService) SynthesizeRegion(ctx context.Context, ids []valueobjects.NodeID) error {
	if len(ids) < 2 {
		return apperrors.NewValidationError("select at least two concepts to synthesize")
	}

	type sourceSnap struct {
		id   valueobjects.NodeID
		name string
		pos  valueobjects.Position
	}
	var sources []sourceSnap
	var projectID string
	s.store.Read(func(session *aggregates.Session) {
		project := session.ActiveProject()
		if project == nil {
			return
		}
		projectID = project.ID
		for _, id := range ids {
			if node := project.Data.MapLayout.FindNode(id); node != nil {
				sources = append(sources, sourceSnap{id: node.ID, name: node.Name, pos: node.Position()})
			}
		}
	})
	if len(sources) < 2 {
		return apperrors.NewValidationError("selected concepts are no longer on the map")
	}

	regionKey := make([]string, len(sources))
	names := make([]string, len(sources))
	positions := make([]valueobjects.Position, len(sources))
	for i, src := range sources {
		regionKey[i] = src.id.String()
		names[i] = src.name
		positions[i] = src.pos
	}
	slot := strings.Join(regionKey, ",")
	if err := s.tryAcquire(valueobjects.FieldSynthesis, slot); err != nil {
		return err
	}

	req := ports.GenerationRequest{
		SystemInstruction: "You synthesize a set of concepts into a single unifying concept.",
		Prompt: fmt.Sprintf(
			"Synthesize these concepts into one: %s. Respond as JSON {\"name\": string, \"explanation\": string}.",
			strings.Join(names, "; "),
		),
		WantJSON: true,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(valueobjects.FieldSynthesis, slot)

		result, genErr := s.generate(req)
		var payload synthesisResponse
		if genErr == nil {
			genErr = decodeStructured(result.Text, &payload)
		}
		if genErr == nil && strings.TrimSpace(payload.Name) == "" {
			genErr = apperrors.NewExternalError("generator", nil).WithCode(apperrors.CodeMalformedGeneration)
		}

		prov := provenanceFor(s.model, req, result, genErr)
		applyErr := s.store.Update(context.Background(), func(session *aggregates.Session) error {
			g := projectGraph(session, projectID)
			if g == nil {
				return nil
			}

			// Re-locate the sources: any that were deleted while pending
			// simply drop out of the synthesis.
			var liveIDs []valueobjects.NodeID
			for _, src := range sources {
				if g.HasNode(src.id) {
					liveIDs = append(liveIDs, src.id)
				}
			}

			if genErr == nil && len(liveIDs) >= 2 {
				derived := entities.NewDerivedNode(payload.Name, valueobjects.Centroid(positions), valueobjects.ProvenanceAIGenerated)
				derived.SynthesisInfo = &entities.SynthesisInfo{
					Explanation:      payload.Explanation,
					SourceConceptIDs: liveIDs,
				}
				if err := g.AddNode(derived); err == nil {
					for _, id := range liveIDs {
						// Pairs already linked keep their existing link.
						_, _ = g.CreateLink(id, derived.ID, []valueobjects.RelationshipType{valueobjects.TypeSupportive})
					}
				}
			}

			entry, entryErr := activity.NewEntry(activity.TypeSynthesizeRegion, activity.SynthesizeRegionPayload{
				NewConceptName:     payload.Name,
				SourceConceptCount: len(liveIDs),
				Succeeded:          genErr == nil && len(liveIDs) >= 2,
			})
			if entryErr == nil {
				session.AppendActivityTo(projectID, entry.WithProvenance(prov))
			}
			return nil
		})
		if applyErr != nil {
			s.logger.Error("synthesis completion failed to persist", zap.Error(applyErr))
		}
	}()

	return nil
}

// dialecticVoice is one counterposition proposed by an argument analysis
type dialecticVoice struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// argumentAnalysisResponse is the structured result for an argument analysis
type argumentAnalysisResponse struct {
	Critique string           `json:"critique"`
	Voices   []dialecticVoice `json:"voices"`
}

// AnalyzeArgument critiques the argument a link embodies and adds dialectic
// counter-voices offset from the link's target.
func (s *EnrichmentService) AnalyzeArgument(ctx context.Context, key entities.LinkKey) error {
	slot := key.Source.String() + "->" + key.Target.String()
	if err := s.tryAcquire(valueobjects.FieldArgumentAnalysis, slot); err != nil {
		return err
	}

	var snap linkSnapshot
	var anchorPos valueobjects.Position
	found := false
	s.store.Read(func(session *aggregates.Session) {
		project := session.ActiveProject()
		if project == nil {
			return
		}
		g := &project.Data.MapLayout
		link := g.FindLink(key)
		if link == nil {
			return
		}
		sourceName, targetName := nodeNames(g, key.Source, key.Target)
		snap = linkSnapshot{projectID: project.ID, key: key, generation: link.Generation, sourceName: sourceName, targetName: targetName}
		if target := g.FindNode(key.Target); target != nil {
			anchorPos = target.Position()
		}
		found = true
	})
	if !found {
		s.release(valueobjects.FieldArgumentAnalysis, slot)
		return apperrors.NewLinkNotFoundError(key.Source.String(), key.Target.String())
	}

	req := ports.GenerationRequest{
		SystemInstruction: "You analyze arguments dialectically, naming the strongest opposing voices.",
		Prompt: fmt.Sprintf(
			"Critique the claim that %q supports %q. Respond as JSON {\"critique\": string, \"voices\": [{\"name\", \"position\"}]}.",
			snap.sourceName, snap.targetName,
		),
		WantJSON: true,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(valueobjects.FieldArgumentAnalysis, slot)

		result, genErr := s.generate(req)
		var payload argumentAnalysisResponse
		if genErr == nil {
			genErr = decodeStructured(result.Text, &payload)
		}

		prov := provenanceFor(s.model, req, result, genErr)
		applyErr := s.store.Update(context.Background(), func(session *aggregates.Session) error {
			g := projectGraph(session, snap.projectID)
			if g == nil {
				return nil
			}
			link := g.FindLink(snap.key)
			if link == nil || link.Generation != snap.generation {
				return nil
			}

			added := 0
			if genErr == nil {
				for i, voice := range payload.Voices {
					pos := anchorPos.Offset(dialecticOffsetX, dialecticOffsetY*float64(i+1))
					derived := entities.NewDerivedNode(voice.Name, pos, valueobjects.ProvenanceDialectic)
					derived.Notes = voice.Position
					if g.AddNode(derived) != nil {
						continue
					}
					if _, err := g.CreateLink(derived.ID, snap.key.Target, []valueobjects.RelationshipType{valueobjects.TypeContradictory}); err == nil {
						added++
					}
				}
			}

			entry, entryErr := activity.NewEntry(activity.TypeAnalyzeArgument, activity.AnalyzeArgumentPayload{
				LinkEnrichmentPayload: s.linkPayload(snap, genErr == nil),
				VoicesAdded:           added,
			})
			if entryErr == nil {
				session.AppendActivityTo(snap.projectID, entry.WithProvenance(prov))
			}
			return nil
		})
		if applyErr != nil {
			s.logger.Error("argument analysis failed to persist", zap.Error(applyErr))
		}
	}()

	return nil
}

// AnalyzeDefinition examines the definitional adequacy of a link. The
// analysis itself lives in the diary entry's provenance; failures are
// surfaced to the caller's alert path since no entity field records them.
func (s *EnrichmentService) AnalyzeDefinition(ctx context.Context, key entities.LinkKey) error {
	slot := key.Source.String() + "->" + key.Target.String()
	if err := s.tryAcquire(valueobjects.FieldDefinitionAnalysis, slot); err != nil {
		return err
	}

	snap, err := s.linkSnapshotFor(key)
	if err != nil {
		s.release(valueobjects.FieldDefinitionAnalysis, slot)
		return err
	}

	req := ports.GenerationRequest{
		SystemInstruction: "You evaluate proposed definitions for necessity, sufficiency and circularity.",
		Prompt: fmt.Sprintf(
			"Evaluate %q as a definition of %q. Respond with a concise analysis.",
			snap.sourceName, snap.targetName,
		),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(valueobjects.FieldDefinitionAnalysis, slot)

		result, genErr := s.generate(req)
		if genErr == nil && strings.TrimSpace(result.Text) == "" {
			genErr = apperrors.NewExternalError("generator", nil).WithCode(apperrors.CodeMalformedGeneration)
		}

		prov := provenanceFor(s.model, req, result, genErr)
		applyErr := s.store.Update(context.Background(), func(session *aggregates.Session) error {
			g := projectGraph(session, snap.projectID)
			if g == nil {
				return nil
			}
			if link := g.FindLink(snap.key); link == nil || link.Generation != snap.generation {
				return nil
			}

			entry, entryErr := activity.NewEntry(activity.TypeAnalyzeDefinition, activity.AnalyzeDefinitionPayload{
				LinkEnrichmentPayload: s.linkPayload(snap, genErr == nil),
			})
			if entryErr == nil {
				session.AppendActivityTo(snap.projectID, entry.WithProvenance(prov))
			}
			return nil
		})
		if applyErr != nil {
			s.logger.Error("definition analysis failed to persist", zap.Error(applyErr))
		}
	}()

	return nil
}

// counterExamplesResponse is the structured result for a counter-example
// search over a definitional link
type counterExamplesResponse struct {
	Examples []generatedConcept `json:"examples"`
}

// FindCounterExamples searches for counter-examples to a definitional link
// and pins each as a counter-example node against the link's target.
func (s *EnrichmentService) FindCounterExamples(ctx context.Context, key entities.LinkKey) error {
	slot := key.Source.String() + "->" + key.Target.String()
	if err := s.tryAcquire(valueobjects.FieldCounterExamples, slot); err != nil {
		return err
	}

	snap, err := s.linkSnapshotFor(key)
	if err != nil {
		s.release(valueobjects.FieldCounterExamples, slot)
		return err
	}

	var anchorPos valueobjects.Position
	s.store.Read(func(session *aggregates.Session) {
		if g := projectGraph(session, snap.projectID); g != nil {
			if target := g.FindNode(key.Target); target != nil {
				anchorPos = target.Position()
			}
		}
	})

	req := ports.GenerationRequest{
		SystemInstruction: "You find counter-examples that break proposed definitions.",
		Prompt: fmt.Sprintf(
			"Find counter-examples to defining %q as %q. Respond as JSON {\"examples\": [{\"name\", \"description\"}]}.",
			snap.targetName, snap.sourceName,
		),
		WantJSON: true,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(valueobjects.FieldCounterExamples, slot)

		result, genErr := s.generate(req)
		var payload counterExamplesResponse
		if genErr == nil {
			genErr = decodeStructured(result.Text, &payload)
		}

		prov := provenanceFor(s.model, req, result, genErr)
		applyErr := s.store.Update(context.Background(), func(session *aggregates.Session) error {
			g := projectGraph(session, snap.projectID)
			if g == nil {
				return nil
			}
			link := g.FindLink(snap.key)
			if link == nil || link.Generation != snap.generation {
				return nil
			}

			added := 0
			if genErr == nil {
				for i, example := range payload.Examples {
					pos := anchorPos.Offset(-counterExampleOffset, counterExampleOffset*float64(i+1))
					derived := entities.NewDerivedNode(example.Name, pos, valueobjects.ProvenanceCounterExample)
					derived.Notes = example.Description
					if g.AddNode(derived) != nil {
						continue
					}
					if created, err := g.CreateLink(derived.ID, snap.key.Target, []valueobjects.RelationshipType{valueobjects.TypeCounterExample}); err == nil {
						created.Provenance = valueobjects.ProvenanceCounterExample
						added++
					}
				}
			}

			entry, entryErr := activity.NewEntry(activity.TypeFindCounterExamples, activity.FindCounterExamplesPayload{
				SourceID:      snap.key.Source.String(),
				TargetID:      snap.key.Target.String(),
				ExamplesAdded: added,
				Succeeded:     genErr == nil,
			})
			if entryErr == nil {
				session.AppendActivityTo(snap.projectID, entry.WithProvenance(prov))
			}
			return nil
		})
		if applyErr != nil {
			s.logger.Error("counter-example search failed to persist", zap.Error(applyErr))
		}
	}()

	return nil
}

// linkSnapshotFor reads a link snapshot without touching its state fields
func (s *EnrichmentService) linkSnapshotFor(key entities.LinkKey) (linkSnapshot, error) {
	var snap linkSnapshot
	found := false
	s.store.Read(func(session *aggregates.Session) {
		project := session.ActiveProject()
		if project == nil {
			return
		}
		g := &project.Data.MapLayout
		link := g.FindLink(key)
		if link == nil {
			return
		}
		sourceName, targetName := nodeNames(g, key.Source, key.Target)
		snap = linkSnapshot{
			projectID:  project.ID,
			key:        key,
			generation: link.Generation,
			sourceName: sourceName,
			targetName: targetName,
			types:      append([]valueobjects.RelationshipType{}, link.RelationshipTypes...),
		}
		found = true
	})
	if !found {
		return snap, apperrors.NewLinkNotFoundError(key.Source.String(), key.Target.String())
	}
	return snap, nil
}
