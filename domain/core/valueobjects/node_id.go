package valueobjects

import (
	"strings"

	"github.com/google/uuid"
)

// NodeID identifies a node within one project's map.
// It is either a reference into the external concept catalog (opaque catalog
// id) or a locally minted synthetic id for nodes that exist only in this map
// (syntheses, dialectic voices, pinned citations, counter-examples).
type NodeID string

// syntheticPrefix marks ids minted by this core rather than the catalog.
const syntheticPrefix = "syn-"

// NewSyntheticNodeID mints a fresh local node id
func NewSyntheticNodeID() NodeID {
	return NodeID(syntheticPrefix + uuid.New().String())
}

// String returns the string representation
func (id NodeID) String() string {
	return string(id)
}

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool {
	return id == ""
}

// IsSynthetic reports whether the id was minted locally rather than
// referencing the concept catalog
func (id NodeID) IsSynthetic() bool {
	return strings.HasPrefix(string(id), syntheticPrefix)
}
