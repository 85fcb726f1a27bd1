// Package activity defines the per-project diary: an append-only history of
// semantically typed user and system actions. Entry payloads form a closed
// tagged union keyed by Type, enforced at construction and on decode.
package activity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names one kind of recorded action. The set is closed: consumers
// switch on it exhaustively and unknown values fail decoding.
type Type string

const (
	TypeCreateMapLink          Type = "CREATE_MAP_LINK"
	TypeDeleteMapLink          Type = "DELETE_MAP_LINK"
	TypeDeleteNode             Type = "DELETE_NODE"
	TypeChangeConcept          Type = "CHANGE_CONCEPT"
	TypePinCitation            Type = "PIN_CITATION"
	TypeCreateLogicalConstruct Type = "CREATE_LOGICAL_CONSTRUCT"
	TypeGenerateJustification  Type = "GENERATE_JUSTIFICATION"
	TypeGenerateImplications   Type = "GENERATE_IMPLICATIONS"
	TypeFormalizeLink          Type = "FORMALIZE_LINK"
	TypeAnalyzeArgument        Type = "ANALYZE_ARGUMENT"
	TypeAnalyzeDefinition      Type = "ANALYZE_DEFINITION"
	TypeGenerateGenealogy      Type = "GENERATE_GENEALOGY"
	TypeSynthesizeRegion       Type = "SYNTHESIZE_REGION"
	TypeFindCounterExamples    Type = "FIND_COUNTER_EXAMPLES"
	TypeCreateProject          Type = "CREATE_PROJECT"
	TypeRenameProject          Type = "RENAME_PROJECT"
	TypeDeleteProject          Type = "DELETE_PROJECT"
)

// Payload is the marker interface for per-type payloads. Implementations
// live in payloads.go; the activityType method seals the union.
type Payload interface {
	activityType() Type
}

// Provenance is the audit trail for AI-assisted entries: enough to replay or
// inspect exactly what was asked and answered.
type Provenance struct {
	Model             string `json:"model"`
	SystemInstruction string `json:"systemInstruction,omitempty"`
	Prompt            string `json:"prompt"`
	RawResponse       string `json:"rawResponse"`
}

// Entry is one diary record. Entries are append-only: never mutated or
// reordered after creation.
type Entry struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Type       Type        `json:"type"`
	Payload    Payload     `json:"payload"`
	Provenance *Provenance `json:"provenance,omitempty"`
}

// NewEntry stamps a new diary entry. The payload's own type must match the
// declared type; a mismatch is a programming error surfaced immediately.
func NewEntry(t Type, payload Payload) (Entry, error) {
	if payload == nil {
		return Entry{}, fmt.Errorf("activity %s: payload is required", t)
	}
	if payload.activityType() != t {
		return Entry{}, fmt.Errorf("activity %s: payload is for %s", t, payload.activityType())
	}

	return Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Type:      t,
		Payload:   payload,
	}, nil
}

// WithProvenance attaches an audit block and returns the entry
func (e Entry) WithProvenance(p Provenance) Entry {
	e.Provenance = &p
	return e
}

// entryJSON is the storage shape of an entry
type entryJSON struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Type       Type            `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Provenance *Provenance     `json:"provenance,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (e Entry) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entryJSON{
		ID:         e.ID,
		Timestamp:  e.Timestamp,
		Type:       e.Type,
		Payload:    payload,
		Provenance: e.Provenance,
	})
}

// UnmarshalJSON implements json.Unmarshaler, decoding the payload into the
// concrete struct registered for the entry's type
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	payload, err := decodePayload(raw.Type, raw.Payload)
	if err != nil {
		return err
	}

	e.ID = raw.ID
	e.Timestamp = raw.Timestamp
	e.Type = raw.Type
	e.Payload = payload
	e.Provenance = raw.Provenance
	return nil
}

// IsKnownType reports whether t belongs to the closed activity set
func IsKnownType(t Type) bool {
	_, ok := payloadFactories[t]
	return ok
}

// decodePayload instantiates the payload struct for a type tag
func decodePayload(t Type, data json.RawMessage) (Payload, error) {
	factory, ok := payloadFactories[t]
	if !ok {
		return nil, fmt.Errorf("unknown activity type %q", t)
	}

	payload := factory()
	if len(data) > 0 {
		if err := json.Unmarshal(data, payload); err != nil {
			return nil, fmt.Errorf("activity %s: malformed payload: %w", t, err)
		}
	}
	return payload.(Payload), nil
}
