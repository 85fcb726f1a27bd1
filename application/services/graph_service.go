package services

import (
	"context"

	"go.uber.org/zap"

	"conceptmap-backend/application/store"
	"conceptmap-backend/domain/activity"
	"conceptmap-backend/domain/core/aggregates"
	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
)

// GraphService routes graph mutations through the active project's data.
// Each operation is a single store transformation, so the persisted session
// always reflects a complete mutation or none of it.
type GraphService struct {
	store  *store.SessionStore
	logger *zap.Logger
}

// NewGraphService creates a graph service
func NewGraphService(store *store.SessionStore, logger *zap.Logger) *GraphService {
	return &GraphService{store: store, logger: logger}
}

// activeGraph resolves the active project's graph inside a transformation
func activeGraph(session *aggregates.Session) *aggregates.GraphModel {
	project := session.ActiveProject()
	if project == nil {
		return nil
	}
	return &project.Data.MapLayout
}

// projectGraph resolves a specific project's graph. Async completions use
// this with the project id captured at dispatch time, so a project switch
// while a request is pending cannot reroute the result.
func projectGraph(session *aggregates.Session, projectID string) *aggregates.GraphModel {
	project := session.FindProject(projectID)
	if project == nil {
		return nil
	}
	return &project.Data.MapLayout
}

// Snapshot returns a copy of the active project's graph
func (s *GraphService) Snapshot() aggregates.GraphModel {
	var out aggregates.GraphModel
	s.store.Read(func(session *aggregates.Session) {
		if g := activeGraph(session); g != nil {
			out.Nodes = append([]entities.MapNode{}, g.Nodes...)
			out.Links = append([]entities.MapLink{}, g.Links...)
			out.LogicalConstructs = append([]entities.LogicalConstruct{}, g.LogicalConstructs...)
		}
	})
	return out
}

// PlaceNode puts a catalog concept (or re-places a tray concept) on the map
func (s *GraphService) PlaceNode(ctx context.Context, id valueobjects.NodeID, name string, pos valueobjects.Position) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		g := activeGraph(session)
		if g == nil {
			return nil
		}
		return g.AddNode(entities.NewMapNode(id, name, pos))
	})
}

// CreateLink connects two concepts. A pair already linked in either
// direction is rejected by the mutation engine.
func (s *GraphService) CreateLink(ctx context.Context, sourceID, targetID valueobjects.NodeID, types []valueobjects.RelationshipType) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		g := activeGraph(session)
		if g == nil {
			return nil
		}

		link, err := g.CreateLink(sourceID, targetID, types)
		if err != nil {
			return err
		}

		sourceName, targetName := nodeNames(g, sourceID, targetID)
		relationships := make([]string, len(link.RelationshipTypes))
		for i, t := range link.RelationshipTypes {
			relationships[i] = string(t)
		}

		entry, err := activity.NewEntry(activity.TypeCreateMapLink, activity.CreateMapLinkPayload{
			SourceID:      sourceID.String(),
			TargetID:      targetID.String(),
			SourceName:    sourceName,
			TargetName:    targetName,
			Relationships: relationships,
		})
		if err == nil {
			session.AppendActivity(entry)
		}
		return nil
	})
}

// DeleteLink removes a link by its exact ordered key
func (s *GraphService) DeleteLink(ctx context.Context, key entities.LinkKey) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		g := activeGraph(session)
		if g == nil || g.FindLink(key) == nil {
			return nil
		}

		sourceName, targetName := nodeNames(g, key.Source, key.Target)
		g.DeleteLink(key)

		entry, err := activity.NewEntry(activity.TypeDeleteMapLink, activity.DeleteMapLinkPayload{
			SourceID:   key.Source.String(),
			TargetID:   key.Target.String(),
			SourceName: sourceName,
			TargetName: targetName,
		})
		if err == nil {
			session.AppendActivity(entry)
		}
		return nil
	})
}

// DeleteNode removes a node and cascades to its links and constructs
func (s *GraphService) DeleteNode(ctx context.Context, id valueobjects.NodeID) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		g := activeGraph(session)
		if g == nil {
			return nil
		}
		node := g.FindNode(id)
		if node == nil {
			return nil
		}

		name := node.Name
		linksBefore := len(g.Links)
		constructsBefore := len(g.LogicalConstructs)

		g.DeleteNode(id)

		entry, err := activity.NewEntry(activity.TypeDeleteNode, activity.DeleteNodePayload{
			NodeID:            id.String(),
			NodeName:          name,
			RemovedLinks:      linksBefore - len(g.Links),
			RemovedConstructs: constructsBefore - len(g.LogicalConstructs),
		})
		if err == nil {
			session.AppendActivity(entry)
		}
		return nil
	})
}

// UpdateLinkRelationshipTypes replaces a link's type set
func (s *GraphService) UpdateLinkRelationshipTypes(ctx context.Context, key entities.LinkKey, types []valueobjects.RelationshipType) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		if g := activeGraph(session); g != nil {
			g.UpdateLinkRelationshipTypes(key, types)
		}
		return nil
	})
}

// UpdateLinkPathStyle sets a link's path geometry
func (s *GraphService) UpdateLinkPathStyle(ctx context.Context, key entities.LinkKey, style entities.PathStyle) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		if g := activeGraph(session); g != nil {
			g.UpdateLinkPathStyle(key, style)
		}
		return nil
	})
}

// UpdateNodeShape sets a node's outline
func (s *GraphService) UpdateNodeShape(ctx context.Context, id valueobjects.NodeID, shape entities.NodeShape) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		if g := activeGraph(session); g != nil {
			g.UpdateNodeShape(id, shape)
		}
		return nil
	})
}

// SetNodeTextColor sets a node's label color
func (s *GraphService) SetNodeTextColor(ctx context.Context, id valueobjects.NodeID, color string) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		if g := activeGraph(session); g != nil {
			g.SetNodeTextColor(id, color)
		}
		return nil
	})
}

// RenameNode changes a node's display name
func (s *GraphService) RenameNode(ctx context.Context, id valueobjects.NodeID, name string) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		if g := activeGraph(session); g != nil {
			g.RenameNode(id, name)
		}
		return nil
	})
}

// SaveNote stores a node's free-form note
func (s *GraphService) SaveNote(ctx context.Context, id valueobjects.NodeID, note string) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		if g := activeGraph(session); g != nil {
			g.SaveNote(id, note)
		}
		return nil
	})
}

// MoveNode updates a node's map position
func (s *GraphService) MoveNode(ctx context.Context, id valueobjects.NodeID, pos valueobjects.Position) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		if g := activeGraph(session); g != nil {
			g.MoveNode(id, pos)
		}
		return nil
	})
}

// ReplaceNodeIdentity repoints a node at a different catalog concept
func (s *GraphService) ReplaceNodeIdentity(ctx context.Context, oldID, newID valueobjects.NodeID, newName string) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		g := activeGraph(session)
		if g == nil {
			return nil
		}
		node := g.FindNode(oldID)
		if node == nil {
			return nil
		}
		oldName := node.Name

		if err := g.ReplaceNodeIdentity(oldID, newID, newName); err != nil {
			return err
		}

		entry, err := activity.NewEntry(activity.TypeChangeConcept, activity.ChangeConceptPayload{
			OldID:   oldID.String(),
			NewID:   newID.String(),
			OldName: oldName,
			NewName: newName,
		})
		if err == nil {
			session.AppendActivity(entry)
		}
		return nil
	})
}

// PinCitation materializes a citation node from a link's justification
func (s *GraphService) PinCitation(ctx context.Context, key entities.LinkKey, citation entities.Citation) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		g := activeGraph(session)
		if g == nil {
			return nil
		}

		node, err := g.PinCitation(key, citation)
		if err != nil {
			return err
		}

		entry, err := activity.NewEntry(activity.TypePinCitation, activity.PinCitationPayload{
			SourceID:      key.Source.String(),
			TargetID:      key.Target.String(),
			CitationTitle: citation.Title,
			NewNodeID:     node.ID.String(),
		})
		if err == nil {
			session.AppendActivity(entry)
		}
		return nil
	})
}

// CreateLogicalConstruct records a combined argument. Shape violations are
// rejected synchronously with no state change.
func (s *GraphService) CreateLogicalConstruct(ctx context.Context, premiseIDs []valueobjects.NodeID, conclusionID valueobjects.NodeID, choice entities.FormalizationChoice) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		g := activeGraph(session)
		if g == nil {
			return nil
		}

		construct, err := g.CreateLogicalConstruct(premiseIDs, conclusionID, choice)
		if err != nil {
			return err
		}

		premiseNames := make([]string, 0, len(premiseIDs))
		for _, p := range premiseIDs {
			if n := g.FindNode(p); n != nil {
				premiseNames = append(premiseNames, n.Name)
			}
		}
		conclusionName := ""
		if n := g.FindNode(conclusionID); n != nil {
			conclusionName = n.Name
		}

		entry, err := activity.NewEntry(activity.TypeCreateLogicalConstruct, activity.CreateLogicalConstructPayload{
			ConstructID:    construct.ID,
			PremiseNames:   premiseNames,
			ConclusionName: conclusionName,
		})
		if err == nil {
			session.AppendActivity(entry)
		}
		return nil
	})
}

// nodeNames resolves display names for a pair of ids, tolerating absences
func nodeNames(g *aggregates.GraphModel, a, b valueobjects.NodeID) (string, string) {
	nameA, nameB := a.String(), b.String()
	if n := g.FindNode(a); n != nil {
		nameA = n.Name
	}
	if n := g.FindNode(b); n != nil {
		nameB = n.Name
	}
	return nameA, nameB
}
