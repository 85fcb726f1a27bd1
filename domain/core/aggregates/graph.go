package aggregates

import (
	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
	apperrors "conceptmap-backend/pkg/errors"
)

// GraphModel is one project's map: nodes, links and logical constructs.
// All mutation goes through the methods below, which uphold the structural
// invariants the rest of the system relies on:
//
//   - node ids are unique within the graph
//   - a pair of nodes carries at most one link, in either direction
//   - a link's relationship-type set is never empty
//   - deleting a node cascades to its links and constructs in one step
type GraphModel struct {
	Nodes             []entities.MapNode          `json:"nodes"`
	Links             []entities.MapLink          `json:"links"`
	LogicalConstructs []entities.LogicalConstruct `json:"logicalConstructs"`
}

// NewGraphModel creates an empty graph
func NewGraphModel() GraphModel {
	return GraphModel{
		Nodes:             []entities.MapNode{},
		Links:             []entities.MapLink{},
		LogicalConstructs: []entities.LogicalConstruct{},
	}
}

// FindNode returns a pointer to the node with the given id, or nil
func (g *GraphModel) FindNode(id valueobjects.NodeID) *entities.MapNode {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// FindLink returns a pointer to the link with the exact ordered key, or nil
func (g *GraphModel) FindLink(key entities.LinkKey) *entities.MapLink {
	for i := range g.Links {
		if g.Links[i].Key() == key {
			return &g.Links[i]
		}
	}
	return nil
}

// FindLinkBetween returns the link connecting two ids in either direction,
// or nil
func (g *GraphModel) FindLinkBetween(a, b valueobjects.NodeID) *entities.MapLink {
	for i := range g.Links {
		if g.Links[i].Connects(a, b) {
			return &g.Links[i]
		}
	}
	return nil
}

// HasNode reports whether a node with the id exists
func (g *GraphModel) HasNode(id valueobjects.NodeID) bool {
	return g.FindNode(id) != nil
}

// AddNode places a node on the map. Adding an id that already exists is a
// conflict; callers re-adding from the tray should treat it as already placed.
func (g *GraphModel) AddNode(node entities.MapNode) error {
	if node.ID.IsZero() {
		return apperrors.NewValidationError("node id is required")
	}
	if g.HasNode(node.ID) {
		return apperrors.NewConflictError("node already exists on the map")
	}

	g.Nodes = append(g.Nodes, node)
	return nil
}

// CreateLink connects two existing nodes. The duplicate check runs in both
// directions: (a,b) and (b,a) describe the same conceptual relationship.
// All enrichment fields start idle.
func (g *GraphModel) CreateLink(sourceID, targetID valueobjects.NodeID, types []valueobjects.RelationshipType) (*entities.MapLink, error) {
	if sourceID == targetID {
		return nil, apperrors.NewValidationError("cannot link a concept to itself").
			WithCode(apperrors.CodeSelfReferenceLink)
	}
	if !g.HasNode(sourceID) {
		return nil, apperrors.NewNodeNotFoundError(sourceID.String())
	}
	if !g.HasNode(targetID) {
		return nil, apperrors.NewNodeNotFoundError(targetID.String())
	}
	if g.FindLinkBetween(sourceID, targetID) != nil {
		return nil, apperrors.NewDuplicateLinkError(sourceID.String(), targetID.String())
	}

	link := entities.NewMapLink(sourceID, targetID, types)
	g.Links = append(g.Links, link)
	return &g.Links[len(g.Links)-1], nil
}

// DeleteLink removes the link with the exact ordered key. Missing keys are a
// no-op: the link may already have been removed by a cascade.
func (g *GraphModel) DeleteLink(key entities.LinkKey) {
	for i := range g.Links {
		if g.Links[i].Key() == key {
			g.Links = append(g.Links[:i], g.Links[i+1:]...)
			return
		}
	}
}

// DeleteNode removes the node, every link touching it and every logical
// construct referencing it as premise or conclusion. The three-way cascade is
// a single state transition: no intermediate state ever has a dangling
// reference. Deleting an unknown id is a no-op.
func (g *GraphModel) DeleteNode(id valueobjects.NodeID) {
	if !g.HasNode(id) {
		return
	}

	nodes := g.Nodes[:0]
	for _, n := range g.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	g.Nodes = nodes

	links := g.Links[:0]
	for _, l := range g.Links {
		if !l.Touches(id) {
			links = append(links, l)
		}
	}
	g.Links = links

	constructs := g.LogicalConstructs[:0]
	for _, c := range g.LogicalConstructs {
		if !c.References(id) {
			constructs = append(constructs, c)
		}
	}
	g.LogicalConstructs = constructs
}

// UpdateLinkRelationshipTypes replaces a link's type set. An empty input
// collapses to [Unclassified]. Unknown keys are a no-op.
func (g *GraphModel) UpdateLinkRelationshipTypes(key entities.LinkKey, types []valueobjects.RelationshipType) {
	if link := g.FindLink(key); link != nil {
		link.RelationshipTypes = valueobjects.NormalizeRelationshipTypes(types)
	}
}

// UpdateLinkPathStyle sets a link's path geometry. Unknown keys are a no-op.
func (g *GraphModel) UpdateLinkPathStyle(key entities.LinkKey, style entities.PathStyle) {
	if link := g.FindLink(key); link != nil {
		link.PathStyle = style
	}
}

// UpdateNodeShape sets a node's outline. Unknown ids are a no-op.
func (g *GraphModel) UpdateNodeShape(id valueobjects.NodeID, shape entities.NodeShape) {
	if node := g.FindNode(id); node != nil {
		node.Shape = shape
	}
}

// SetNodeTextColor sets a node's label color. Unknown ids are a no-op.
func (g *GraphModel) SetNodeTextColor(id valueobjects.NodeID, color string) {
	if node := g.FindNode(id); node != nil {
		node.TextColor = color
	}
}

// RenameNode changes a node's display name. Unknown ids are a no-op.
func (g *GraphModel) RenameNode(id valueobjects.NodeID, name string) {
	if node := g.FindNode(id); node != nil {
		node.Name = name
	}
}

// SaveNote stores a node's free-form note. Unknown ids are a no-op.
func (g *GraphModel) SaveNote(id valueobjects.NodeID, note string) {
	if node := g.FindNode(id); node != nil {
		node.Notes = note
	}
}

// MoveNode updates a node's map position. Unknown ids are a no-op.
func (g *GraphModel) MoveNode(id valueobjects.NodeID, pos valueobjects.Position) {
	if node := g.FindNode(id); node != nil {
		node.X = pos.X
		node.Y = pos.Y
	}
}

// ReplaceNodeIdentity repoints a node at a different catalog concept,
// keeping its edges. This is the one operation that changes an entity's
// primary key: every link endpoint referencing the old id is rewritten, link
// generations advance so in-flight enrichments against the old keys are
// discarded, and constructs follow the node to its new id.
func (g *GraphModel) ReplaceNodeIdentity(oldID, newID valueobjects.NodeID, newName string) error {
	node := g.FindNode(oldID)
	if node == nil {
		return apperrors.NewNodeNotFoundError(oldID.String())
	}
	if oldID == newID {
		node.Name = newName
		return nil
	}
	if g.HasNode(newID) {
		return apperrors.NewConflictError("the target concept is already on the map")
	}

	node.ReplaceIdentity(newID, newName)

	for i := range g.Links {
		link := &g.Links[i]
		rewritten := false
		if link.Source == oldID {
			link.Source = newID
			rewritten = true
		}
		if link.Target == oldID {
			link.Target = newID
			rewritten = true
		}
		if rewritten {
			link.Generation++
			// Any enrichment issued against the old identity will be
			// discarded on the generation mismatch; unlock its field so the
			// new identity can be enriched without a restart.
			link.JustificationState = settleEnrichment(link.JustificationState)
			link.ImplicationsState = settleEnrichment(link.ImplicationsState)
			link.FormalizationState = settleEnrichment(link.FormalizationState)
		}
	}

	for i := range g.LogicalConstructs {
		c := &g.LogicalConstructs[i]
		if c.ConclusionNodeID == oldID {
			c.ConclusionNodeID = newID
		}
		for j := range c.PremiseNodeIDs {
			if c.PremiseNodeIDs[j] == oldID {
				c.PremiseNodeIDs[j] = newID
			}
		}
	}

	return nil
}

// PinCitation materializes a citation from a link's justification as its own
// node at the link midpoint, connected from the link's source by a Cited
// link.
func (g *GraphModel) PinCitation(key entities.LinkKey, citation entities.Citation) (*entities.MapNode, error) {
	link := g.FindLink(key)
	if link == nil {
		return nil, apperrors.NewLinkNotFoundError(key.Source.String(), key.Target.String())
	}

	source := g.FindNode(link.Source)
	target := g.FindNode(link.Target)
	if source == nil || target == nil {
		return nil, apperrors.NewInternalError("link endpoints missing from graph")
	}

	pos := valueobjects.Midpoint(source.Position(), target.Position())
	node := entities.NewDerivedNode(citation.Title, pos, valueobjects.ProvenanceCitation)
	node.CitationData = &citation

	g.Nodes = append(g.Nodes, node)
	if _, err := g.CreateLink(link.Source, node.ID, []valueobjects.RelationshipType{valueobjects.TypeCited}); err != nil {
		return nil, err
	}

	return g.FindNode(node.ID), nil
}

// CreateLogicalConstruct records a combined argument over existing nodes.
// Shape rules (≥1 premise, exactly one conclusion) are enforced by the
// entity constructor; this adds the existence checks.
func (g *GraphModel) CreateLogicalConstruct(premiseIDs []valueobjects.NodeID, conclusionID valueobjects.NodeID, choice entities.FormalizationChoice) (*entities.LogicalConstruct, error) {
	construct, err := entities.NewLogicalConstruct(premiseIDs, conclusionID, choice)
	if err != nil {
		return nil, err
	}

	for _, p := range premiseIDs {
		if !g.HasNode(p) {
			return nil, apperrors.NewNodeNotFoundError(p.String())
		}
	}
	if !g.HasNode(conclusionID) {
		return nil, apperrors.NewNodeNotFoundError(conclusionID.String())
	}

	g.LogicalConstructs = append(g.LogicalConstructs, construct)
	return &g.LogicalConstructs[len(g.LogicalConstructs)-1], nil
}

// FindConstruct returns a pointer to the construct with the id, or nil
func (g *GraphModel) FindConstruct(id string) *entities.LogicalConstruct {
	for i := range g.LogicalConstructs {
		if g.LogicalConstructs[i].ID == id {
			return &g.LogicalConstructs[i]
		}
	}
	return nil
}

// Validate checks the structural invariants. It is exercised by tests and by
// the persistence layer after migration.
func (g *GraphModel) Validate() error {
	seen := make(map[valueobjects.NodeID]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			return apperrors.NewInternalError("duplicate node id: " + n.ID.String())
		}
		seen[n.ID] = true
	}

	pairs := make(map[entities.LinkKey]bool, len(g.Links))
	for _, l := range g.Links {
		if !seen[l.Source] {
			return apperrors.NewInternalError("link references missing source node: " + l.Source.String())
		}
		if !seen[l.Target] {
			return apperrors.NewInternalError("link references missing target node: " + l.Target.String())
		}
		if len(l.RelationshipTypes) == 0 {
			return apperrors.NewInternalError("link has empty relationship-type set")
		}
		if pairs[l.Key()] || pairs[l.Key().Reversed()] {
			return apperrors.NewInternalError("duplicate link between " + l.Source.String() + " and " + l.Target.String())
		}
		pairs[l.Key()] = true
	}

	for _, c := range g.LogicalConstructs {
		if !seen[c.ConclusionNodeID] {
			return apperrors.NewInternalError("construct references missing conclusion node")
		}
		for _, p := range c.PremiseNodeIDs {
			if !seen[p] {
				return apperrors.NewInternalError("construct references missing premise node")
			}
		}
	}

	return nil
}
