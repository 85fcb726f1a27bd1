package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"conceptmap-backend/application/ports"
	"conceptmap-backend/application/store"
	"conceptmap-backend/domain/activity"
	"conceptmap-backend/domain/core/aggregates"
	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
	apperrors "conceptmap-backend/pkg/errors"
)

// generationTimeout bounds one round trip to the AI collaborator
const generationTimeout = 2 * time.Minute

// EnrichmentService drives the per-field enrichment state machine.
//
// Each workflow runs in two store transactions around one collaborator round
// trip: a begin transaction that validates the target, rejects a duplicate
// request while the field is loading, flips the field to loading and
// captures the generation stamp; and a completion transaction that
// re-locates the target by key, discards the result when the target is gone
// or its generation moved on, and otherwise merges the payload and logs a
// diary entry with full provenance.
type EnrichmentService struct {
	store     *store.SessionStore
	generator ports.ContentGenerator
	logger    *zap.Logger
	model     string

	// inflight guards workflows that have no state field on an entity
	// (genealogy, analyses, synthesis, counter-examples).
	mu       sync.Mutex
	inflight map[string]bool

	wg sync.WaitGroup
}

// NewEnrichmentService creates an enrichment service
func NewEnrichmentService(store *store.SessionStore, generator ports.ContentGenerator, model string, logger *zap.Logger) *EnrichmentService {
	return &EnrichmentService{
		store:     store,
		generator: generator,
		logger:    logger,
		model:     model,
		inflight:  make(map[string]bool),
	}
}

// Wait blocks until every dispatched enrichment has completed. Used by
// shutdown and by tests.
func (s *EnrichmentService) Wait() {
	s.wg.Wait()
}

// linkSnapshot captures what the begin transaction learned about a link, so
// the goroutine never touches shared state. The project id pins the
// completion to the project that dispatched the request.
type linkSnapshot struct {
	projectID  string
	key        entities.LinkKey
	generation uint64
	sourceName string
	targetName string
	types      []valueobjects.RelationshipType
}

// beginLinkField validates the link, applies the at-most-one-in-flight
// guard for the field and flips it to loading
func (s *EnrichmentService) beginLinkField(ctx context.Context, key entities.LinkKey, field valueobjects.EnrichmentField) (linkSnapshot, error) {
	var snap linkSnapshot
	err := s.store.Update(ctx, func(session *aggregates.Session) error {
		project := session.ActiveProject()
		if project == nil {
			return apperrors.NewNotFoundError("active project")
		}
		g := &project.Data.MapLayout
		link := g.FindLink(key)
		if link == nil {
			return apperrors.NewLinkNotFoundError(key.Source.String(), key.Target.String())
		}
		if !link.StateOf(field).CanStart() {
			return apperrors.NewEnrichmentInFlightError(string(field))
		}

		link.SetStateOf(field, valueobjects.EnrichmentLoading)

		sourceName, targetName := nodeNames(g, key.Source, key.Target)
		snap = linkSnapshot{
			projectID:  project.ID,
			key:        key,
			generation: link.Generation,
			sourceName: sourceName,
			targetName: targetName,
			types:      append([]valueobjects.RelationshipType{}, link.RelationshipTypes...),
		}
		return nil
	})
	return snap, err
}

// completeLinkField applies a result to the link field, or silently drops it
// when the link vanished or was re-keyed while the request was pending
func (s *EnrichmentService) completeLinkField(
	snap linkSnapshot,
	field valueobjects.EnrichmentField,
	merge func(link *entities.MapLink),
	entry *activity.Entry,
) {
	err := s.store.Update(context.Background(), func(session *aggregates.Session) error {
		g := projectGraph(session, snap.projectID)
		if g == nil {
			return nil
		}
		link := g.FindLink(snap.key)
		if link == nil || link.Generation != snap.generation {
			// Stale completion: the entity this answer was for no longer
			// exists. Not an error.
			s.logger.Debug("dropping stale enrichment completion",
				zap.String("field", string(field)),
				zap.String("source", snap.key.Source.String()),
				zap.String("target", snap.key.Target.String()),
			)
			return nil
		}

		merge(link)
		if entry != nil {
			session.AppendActivityTo(snap.projectID, *entry)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("enrichment completion failed to persist", zap.Error(err))
	}
}

// generate performs one collaborator round trip with its own lifetime, so a
// closed HTTP request cannot cancel a pending enrichment
func (s *EnrichmentService) generate(req ports.GenerationRequest) (ports.GenerationResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	req.Model = s.model
	return s.generator.Generate(ctx, req)
}

// provenanceFor builds the audit block for a finished round trip
func provenanceFor(model string, req ports.GenerationRequest, result ports.GenerationResult, err error) activity.Provenance {
	raw := result.Raw
	if err != nil {
		raw = "ERROR: " + err.Error()
	}
	return activity.Provenance{
		Model:             model,
		SystemInstruction: req.SystemInstruction,
		Prompt:            req.Prompt,
		RawResponse:       raw,
	}
}

// justificationResponse is the structured result for a justification request
type justificationResponse struct {
	Text      string              `json:"text"`
	Citations []entities.Citation `json:"citations"`
}

// GenerateJustification asks the collaborator why the link holds. The error
// state on the link itself is the user-visible failure signal; no alert.
func (s *EnrichmentService) GenerateJustification(ctx context.Context, key entities.LinkKey) error {
	snap, err := s.beginLinkField(ctx, key, valueobjects.FieldJustification)
	if err != nil {
		return err
	}

	req := ports.GenerationRequest{
		SystemInstruction: "You justify relationships between concepts on a concept map, citing sources where possible.",
		Prompt: fmt.Sprintf(
			"Explain why %q relates to %q as: %s. Respond as JSON {\"text\": string, \"citations\": [{\"title\", \"source\", \"url\", \"snippet\"}]}.",
			snap.sourceName, snap.targetName, joinTypes(snap.types),
		),
		WantJSON: true,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result, genErr := s.generate(req)
		var payload justificationResponse
		if genErr == nil {
			genErr = decodeStructured(result.Text, &payload)
		}
		if genErr == nil && strings.TrimSpace(payload.Text) == "" {
			genErr = apperrors.NewExternalError("generator", nil).WithCode(apperrors.CodeMalformedGeneration)
		}

		entry := s.linkMilestone(activity.TypeGenerateJustification, snap, genErr == nil, req, result, genErr)
		s.completeLinkField(snap, valueobjects.FieldJustification, func(link *entities.MapLink) {
			if genErr != nil {
				link.JustificationState = valueobjects.EnrichmentError
				link.Justification = &entities.Justification{
					Text:      "A justification could not be generated for this link.",
					Citations: []entities.Citation{},
				}
				return
			}
			link.JustificationState = valueobjects.EnrichmentSuccess
			if payload.Citations == nil {
				payload.Citations = []entities.Citation{}
			}
			link.Justification = &entities.Justification{Text: payload.Text, Citations: payload.Citations}
		}, entry)
	}()

	return nil
}

// implicationsResponse is the structured result for an implications request
type implicationsResponse struct {
	Text      string   `json:"text"`
	Questions []string `json:"questions"`
}

// GenerateImplications asks what follows from accepting the link
func (s *EnrichmentService) GenerateImplications(ctx context.Context, key entities.LinkKey) error {
	snap, err := s.beginLinkField(ctx, key, valueobjects.FieldImplications)
	if err != nil {
		return err
	}

	req := ports.GenerationRequest{
		SystemInstruction: "You derive consequences of accepting a relationship between two concepts.",
		Prompt: fmt.Sprintf(
			"If %q relates to %q as %s, what follows? Respond as JSON {\"text\": string, \"questions\": [string]}.",
			snap.sourceName, snap.targetName, joinTypes(snap.types),
		),
		WantJSON: true,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result, genErr := s.generate(req)
		var payload implicationsResponse
		if genErr == nil {
			genErr = decodeStructured(result.Text, &payload)
		}
		if genErr == nil && strings.TrimSpace(payload.Text) == "" {
			genErr = apperrors.NewExternalError("generator", nil).WithCode(apperrors.CodeMalformedGeneration)
		}

		entry := s.linkMilestone(activity.TypeGenerateImplications, snap, genErr == nil, req, result, genErr)
		s.completeLinkField(snap, valueobjects.FieldImplications, func(link *entities.MapLink) {
			if genErr != nil {
				link.ImplicationsState = valueobjects.EnrichmentError
				link.Implications = &entities.Implications{
					Text: "Implications could not be generated for this link.",
				}
				return
			}
			link.ImplicationsState = valueobjects.EnrichmentSuccess
			link.Implications = &entities.Implications{Text: payload.Text, Questions: payload.Questions}
		}, entry)
	}()

	return nil
}

// formalizationResponse is the structured result for a formalization request
type formalizationResponse struct {
	Candidates []entities.FormalizationCandidate `json:"candidates"`
	Chosen     int                               `json:"chosen"`
}

// FormalizeLink renders the link in a formal system. Failure is alerted by
// the caller since it otherwise leaves no visible trace.
func (s *EnrichmentService) FormalizeLink(ctx context.Context, key entities.LinkKey) error {
	snap, err := s.beginLinkField(ctx, key, valueobjects.FieldFormalization)
	if err != nil {
		return err
	}

	req := ports.GenerationRequest{
		SystemInstruction: "You formalize conceptual relationships in appropriate logical systems.",
		Prompt: fmt.Sprintf(
			"Formalize the relation %q -> %q (%s). Respond as JSON {\"candidates\": [{\"system\", \"representation\", \"rationale\"}], \"chosen\": index}.",
			snap.sourceName, snap.targetName, joinTypes(snap.types),
		),
		WantJSON: true,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result, genErr := s.generate(req)
		var payload formalizationResponse
		if genErr == nil {
			genErr = decodeStructured(result.Text, &payload)
		}
		if genErr == nil && (len(payload.Candidates) == 0 || payload.Chosen < 0 || payload.Chosen >= len(payload.Candidates)) {
			genErr = apperrors.NewExternalError("generator", nil).WithCode(apperrors.CodeMalformedGeneration)
		}

		system := ""
		if genErr == nil {
			system = payload.Candidates[payload.Chosen].System
		}

		prov := provenanceFor(s.model, req, result, genErr)
		entry, entryErr := activity.NewEntry(activity.TypeFormalizeLink, activity.FormalizeLinkPayload{
			LinkEnrichmentPayload: s.linkPayload(snap, genErr == nil),
			System:                system,
		})
		var entryPtr *activity.Entry
		if entryErr == nil {
			stamped := entry.WithProvenance(prov)
			entryPtr = &stamped
		}

		s.completeLinkField(snap, valueobjects.FieldFormalization, func(link *entities.MapLink) {
			if genErr != nil {
				link.FormalizationState = valueobjects.EnrichmentError
				link.FormalRepresentation = &entities.FormalRepresentation{
					Notation: "formalization unavailable",
				}
				return
			}
			chosen := payload.Candidates[payload.Chosen]
			link.FormalizationState = valueobjects.EnrichmentSuccess
			link.FormalRepresentation = &entities.FormalRepresentation{
				Notation:  chosen.Representation,
				System:    chosen.System,
				Rationale: chosen.Rationale,
			}
		}, entryPtr)
	}()

	return nil
}

// linkPayload builds the common link milestone payload
func (s *EnrichmentService) linkPayload(snap linkSnapshot, succeeded bool) activity.LinkEnrichmentPayload {
	return activity.LinkEnrichmentPayload{
		SourceID:   snap.key.Source.String(),
		TargetID:   snap.key.Target.String(),
		SourceName: snap.sourceName,
		TargetName: snap.targetName,
		Succeeded:  succeeded,
	}
}

// linkMilestone builds a provenance-stamped diary entry for a link-field
// enrichment result
func (s *EnrichmentService) linkMilestone(
	t activity.Type,
	snap linkSnapshot,
	succeeded bool,
	req ports.GenerationRequest,
	result ports.GenerationResult,
	genErr error,
) *activity.Entry {
	base := s.linkPayload(snap, succeeded)

	var payload activity.Payload
	switch t {
	case activity.TypeGenerateJustification:
		payload = activity.GenerateJustificationPayload{LinkEnrichmentPayload: base}
	case activity.TypeGenerateImplications:
		payload = activity.GenerateImplicationsPayload{LinkEnrichmentPayload: base}
	default:
		return nil
	}

	entry, err := activity.NewEntry(t, payload)
	if err != nil {
		return nil
	}
	stamped := entry.WithProvenance(provenanceFor(s.model, req, result, genErr))
	return &stamped
}

// decodeStructured parses a JSON object out of a collaborator response,
// tolerating code fences some models wrap around their output
func decodeStructured(text string, out interface{}) error {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if err := json.Unmarshal([]byte(trimmed), out); err != nil {
		return apperrors.NewExternalError("generator", err).WithCode(apperrors.CodeMalformedGeneration)
	}
	return nil
}

// joinTypes renders a relationship-type set for prompts
func joinTypes(types []valueobjects.RelationshipType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
