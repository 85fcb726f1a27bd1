package schema

import (
	"encoding/json"

	"conceptmap-backend/domain/core/aggregates"
	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
)

// LegacyBlobs holds the standalone storage values written before the
// versioned session existed. Any field may be nil.
type LegacyBlobs struct {
	MapLayout          []byte
	TrayConceptIDs     []byte
	TrackedFeeds       []byte
	SeenPublicationIDs []byte
}

// IsEmpty reports whether nothing legacy was found at all
func (b LegacyBlobs) IsEmpty() bool {
	return b.MapLayout == nil && b.TrayConceptIDs == nil && b.TrackedFeeds == nil && b.SeenPublicationIDs == nil
}

// ImportLegacy wraps pre-versioning single-project data into a fresh
// session. Every piece decodes best-effort: a missing or unreadable blob
// degrades to its empty default, so this path never fails.
func ImportLegacy(blobs LegacyBlobs) *aggregates.Session {
	session := aggregates.NewDefaultSession()
	data := &session.Projects[0].Data

	if blobs.MapLayout != nil {
		if layout, ok := decodeLegacyLayout(blobs.MapLayout); ok {
			data.MapLayout = layout
		}
	}
	if blobs.TrayConceptIDs != nil {
		var tray []valueobjects.NodeID
		if json.Unmarshal(blobs.TrayConceptIDs, &tray) == nil && tray != nil {
			data.MapTrayConceptIDs = tray
		}
	}
	if blobs.TrackedFeeds != nil {
		var feeds []entities.FeedSubscription
		if json.Unmarshal(blobs.TrackedFeeds, &feeds) == nil && feeds != nil {
			data.TrackedFeeds = feeds
		}
	}
	if blobs.SeenPublicationIDs != nil {
		var seen []string
		if json.Unmarshal(blobs.SeenPublicationIDs, &seen) == nil && seen != nil {
			data.SeenPublicationIDs = seen
		}
	}

	session.Sanitize()
	return session
}

// decodeLegacyLayout normalizes a pre-versioning graph document with the
// same rewrites the migration chain applies, then decodes it
func decodeLegacyLayout(raw []byte) (aggregates.GraphModel, bool) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return aggregates.GraphModel{}, false
	}

	migrateLayout(doc)

	normalized, err := json.Marshal(doc)
	if err != nil {
		return aggregates.GraphModel{}, false
	}

	var layout aggregates.GraphModel
	if err := json.Unmarshal(normalized, &layout); err != nil {
		return aggregates.GraphModel{}, false
	}
	return layout, true
}
