// Package schema brings persisted session blobs forward through the
// migration chain and normalizes legacy single-project data into the
// current shape. Migration works on the raw JSON document so fields that
// changed type across versions can be rewritten before the typed decode
// sees them.
package schema

import (
	"encoding/json"

	"conceptmap-backend/domain/activity"
	"conceptmap-backend/domain/core/aggregates"
	"conceptmap-backend/domain/core/valueobjects"
	apperrors "conceptmap-backend/pkg/errors"
)

// DecodeSession parses a persisted blob, migrates it to the current schema
// and sanitizes the result. An error means the blob is unusable; callers
// treat that as "no valid session" and fall through to legacy import.
func DecodeSession(raw []byte) (*aggregates.Session, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperrors.NewStorageError("decode session", err)
	}

	Migrate(doc)

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, apperrors.NewStorageError("normalize session", err)
	}

	var session aggregates.Session
	if err := json.Unmarshal(normalized, &session); err != nil {
		return nil, apperrors.NewStorageError("decode migrated session", err)
	}

	session.Version = aggregates.SchemaVersion
	session.Sanitize()
	return &session, nil
}

// Migrate rewrites a raw session document to the current schema version in
// place. Every rewrite keys off the presence of the legacy field, not the
// stored version stamp: a mis-stamped or partially migrated blob still
// converges. Idempotent, so a document already at the current version
// passes through structurally unchanged.
func Migrate(doc map[string]interface{}) {
	for _, p := range sliceField(doc, "projects") {
		project, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		data, ok := project["data"].(map[string]interface{})
		if !ok {
			continue
		}

		if _, ok := data["projectDiary"]; !ok {
			data["projectDiary"] = []interface{}{}
		}

		if layout, ok := data["mapLayout"].(map[string]interface{}); ok {
			migrateLayout(layout)
		}

		dropUnknownDiaryEntries(data)
	}

	backfillList(doc, "customRelationshipTypes")
	backfillList(doc, "disabledDefaultTypes")
	backfillList(doc, "disabledCustomTypes")

	doc["version"] = aggregates.SchemaVersion
}

// migrateLayout rewrites one graph document to the current link and node
// shapes
func migrateLayout(layout map[string]interface{}) {
	if _, ok := layout["logicalConstructs"]; !ok {
		layout["logicalConstructs"] = []interface{}{}
	}

	for _, l := range sliceField(layout, "links") {
		if link, ok := l.(map[string]interface{}); ok {
			normalizeRelationshipTypes(link)
			normalizeJustification(link)
			normalizeLinkProvenance(link)
		}
	}

	for _, n := range sliceField(layout, "nodes") {
		if node, ok := n.(map[string]interface{}); ok {
			normalizeNodeProvenance(node)
		}
	}
}

// normalizeRelationshipTypes converts a singular legacy relationshipType
// into the current slice, defaulting to Unclassified when nothing is set
func normalizeRelationshipTypes(link map[string]interface{}) {
	if types, ok := link["relationshipTypes"].([]interface{}); ok && len(types) > 0 {
		delete(link, "relationshipType")
		return
	}

	if single, ok := link["relationshipType"].(string); ok && single != "" {
		link["relationshipTypes"] = []interface{}{single}
	} else {
		link["relationshipTypes"] = []interface{}{string(valueobjects.TypeUnclassified)}
	}
	delete(link, "relationshipType")
}

// normalizeJustification wraps a legacy plain-string justification as the
// structured form
func normalizeJustification(link map[string]interface{}) {
	if text, ok := link["justification"].(string); ok {
		link["justification"] = map[string]interface{}{
			"text":      text,
			"citations": []interface{}{},
		}
	}
}

// normalizeNodeProvenance collapses the legacy boolean provenance flags into
// the single variant field
func normalizeNodeProvenance(node map[string]interface{}) {
	if _, ok := node["provenance"].(string); !ok {
		node["provenance"] = string(valueobjects.ProvenanceFromFlags(
			boolField(node, "isAiGenerated"),
			boolField(node, "isHistorical"),
			boolField(node, "isDialectic"),
			boolField(node, "isCitation"),
			boolField(node, "isCounterExample"),
		))
	}
	delete(node, "isAiGenerated")
	delete(node, "isHistorical")
	delete(node, "isUserDefined")
	delete(node, "isDialectic")
	delete(node, "isCitation")
	delete(node, "isCounterExample")
}

// normalizeLinkProvenance collapses the legacy per-link flags the same way
func normalizeLinkProvenance(link map[string]interface{}) {
	if _, ok := link["provenance"].(string); !ok {
		link["provenance"] = string(valueobjects.ProvenanceFromFlags(
			false,
			boolField(link, "isHistorical"),
			false,
			false,
			boolField(link, "isCounterExampleLink"),
		))
	}
	delete(link, "isHistorical")
	delete(link, "isCounterExampleLink")
}

// dropUnknownDiaryEntries removes diary entries whose type tag is not part
// of the closed activity set, so one unreadable entry cannot invalidate the
// whole session
func dropUnknownDiaryEntries(data map[string]interface{}) {
	diary, ok := data["projectDiary"].([]interface{})
	if !ok {
		return
	}

	kept := diary[:0]
	for _, e := range diary {
		entry, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		t, _ := entry["type"].(string)
		if activity.IsKnownType(activity.Type(t)) {
			kept = append(kept, e)
		}
	}
	data["projectDiary"] = kept
}

func boolField(doc map[string]interface{}, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

func sliceField(doc map[string]interface{}, key string) []interface{} {
	s, _ := doc[key].([]interface{})
	return s
}

func backfillList(doc map[string]interface{}, key string) {
	if _, ok := doc[key].([]interface{}); !ok {
		doc[key] = []interface{}{}
	}
}
