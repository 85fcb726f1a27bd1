package services

import (
	"time"

	"go.uber.org/zap"

	"conceptmap-backend/application/store"
	"conceptmap-backend/domain/core/aggregates"
)

// ExportService produces a read-only projection of the active project's
// graph for downstream tools. The export is not a format the backend
// re-imports.
type ExportService struct {
	store  *store.SessionStore
	logger *zap.Logger
}

// NewExportService creates an export service
func NewExportService(store *store.SessionStore, logger *zap.Logger) *ExportService {
	return &ExportService{store: store, logger: logger}
}

// ExportMetadata describes the exported project
type ExportMetadata struct {
	ProjectName string    `json:"projectName"`
	ExportedAt  time.Time `json:"exportedAt"`
}

// ExportNode is one concept in the export projection
type ExportNode struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	AIGenerated bool   `json:"aiGenerated"`
}

// ExportEdge is one relationship in the export projection
type ExportEdge struct {
	Source            string   `json:"source"`
	Target            string   `json:"target"`
	RelationshipTypes []string `json:"relationshipTypes"`
	Justification     string   `json:"justification,omitempty"`
	CitationCount     int      `json:"citationCount,omitempty"`
}

// ExportGraph is the graph section of an export document
type ExportGraph struct {
	Metadata ExportMetadata `json:"metadata"`
	Nodes    []ExportNode   `json:"nodes"`
	Edges    []ExportEdge   `json:"edges"`
}

// ExportDocument is the top-level export shape
type ExportDocument struct {
	Graph ExportGraph `json:"graph"`
}

// ExportActiveProject projects the active project's graph into the export
// document. An empty session yields an empty graph, never an error.
func (s *ExportService) ExportActiveProject() ExportDocument {
	doc := ExportDocument{
		Graph: ExportGraph{
			Metadata: ExportMetadata{ExportedAt: time.Now().UTC()},
			Nodes:    []ExportNode{},
			Edges:    []ExportEdge{},
		},
	}

	s.store.Read(func(session *aggregates.Session) {
		project := session.ActiveProject()
		if project == nil {
			return
		}
		doc.Graph.Metadata.ProjectName = project.Name

		g := &project.Data.MapLayout
		for i := range g.Nodes {
			node := &g.Nodes[i]
			doc.Graph.Nodes = append(doc.Graph.Nodes, ExportNode{
				ID:          node.ID.String(),
				Label:       node.Name,
				AIGenerated: node.Provenance.IsAIDerived(),
			})
		}
		for i := range g.Links {
			link := &g.Links[i]
			edge := ExportEdge{
				Source:            link.Source.String(),
				Target:            link.Target.String(),
				RelationshipTypes: make([]string, len(link.RelationshipTypes)),
			}
			for j, t := range link.RelationshipTypes {
				edge.RelationshipTypes[j] = string(t)
			}
			if link.Justification != nil {
				edge.Justification = link.Justification.Text
				edge.CitationCount = len(link.Justification.Citations)
			}
			doc.Graph.Edges = append(doc.Graph.Edges, edge)
		}
	})

	s.logger.Debug("exported active project",
		zap.Int("nodes", len(doc.Graph.Nodes)),
		zap.Int("edges", len(doc.Graph.Edges)),
	)
	return doc
}
