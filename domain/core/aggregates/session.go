package aggregates

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"conceptmap-backend/domain/activity"
	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
	apperrors "conceptmap-backend/pkg/errors"
)

// SchemaVersion is the current persisted-session schema version. It is
// incremented on every schema-breaking change; the migration chain in
// infrastructure/persistence/schema brings older blobs forward.
const SchemaVersion = 5

// DefaultProjectName names projects the system synthesizes on its own
const DefaultProjectName = "My First Project"

// AppSessionData is everything one project owns beyond its name
type AppSessionData struct {
	MapLayout          GraphModel                 `json:"mapLayout"`
	MapTrayConceptIDs  []valueobjects.NodeID      `json:"mapTrayConceptIds"`
	TrackedFeeds       []entities.FeedSubscription `json:"trackedFeeds"`
	SeenPublicationIDs []string                   `json:"seenPublicationIds"`
	ProjectDiary       []activity.Entry           `json:"projectDiary"`
}

// NewAppSessionData creates empty project data
func NewAppSessionData() AppSessionData {
	return AppSessionData{
		MapLayout:          NewGraphModel(),
		MapTrayConceptIDs:  []valueobjects.NodeID{},
		TrackedFeeds:       []entities.FeedSubscription{},
		SeenPublicationIDs: []string{},
		ProjectDiary:       []activity.Entry{},
	}
}

// Project wraps one independent concept map and its bookkeeping
type Project struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Data AppSessionData `json:"data"`
}

// NewProject mints a project with a fresh unique id and empty data.
// The id combines a timestamp with a random suffix so ids stay unique even
// when projects are created within the same millisecond.
func NewProject(name string) Project {
	if strings.TrimSpace(name) == "" {
		name = DefaultProjectName
	}
	return Project{
		ID:   fmt.Sprintf("proj-%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8]),
		Name: name,
		Data: NewAppSessionData(),
	}
}

// Session is the full persisted state for one device: every project plus
// session-level relationship-type administration.
//
// Invariants: ActiveProjectID is empty or names a member of Projects, and
// Projects is non-empty after any load (repaired by Sanitize).
type Session struct {
	Version                 int                                `json:"version"`
	ActiveProjectID         string                             `json:"activeProjectId,omitempty"`
	Projects                []Project                          `json:"projects"`
	CustomRelationshipTypes []valueobjects.RelationshipTypeDef `json:"customRelationshipTypes"`
	DisabledDefaultTypes    []string                           `json:"disabledDefaultTypes"`
	DisabledCustomTypes     []string                           `json:"disabledCustomTypes"`
}

// NewDefaultSession creates the session minted on first load: one empty
// default project, active.
func NewDefaultSession() *Session {
	project := NewProject(DefaultProjectName)
	return &Session{
		Version:                 SchemaVersion,
		ActiveProjectID:         project.ID,
		Projects:                []Project{project},
		CustomRelationshipTypes: []valueobjects.RelationshipTypeDef{},
		DisabledDefaultTypes:    []string{},
		DisabledCustomTypes:     []string{},
	}
}

// FindProject returns a pointer to the project with the id, or nil
func (s *Session) FindProject(id string) *Project {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return &s.Projects[i]
		}
	}
	return nil
}

// ActiveProject returns the active project, falling back to the first
// project, or nil when the session holds none (cannot occur post-load).
func (s *Session) ActiveProject() *Project {
	if p := s.FindProject(s.ActiveProjectID); p != nil {
		return p
	}
	if len(s.Projects) > 0 {
		return &s.Projects[0]
	}
	return nil
}

// CreateProject appends a fresh project and makes it active
func (s *Session) CreateProject(name string) *Project {
	project := NewProject(name)
	s.Projects = append(s.Projects, project)
	s.ActiveProjectID = project.ID
	return &s.Projects[len(s.Projects)-1]
}

// SwitchProject activates the project with the id; unknown ids are a no-op
func (s *Session) SwitchProject(id string) {
	if s.FindProject(id) != nil {
		s.ActiveProjectID = id
	}
}

// DeleteProject removes the project with the id. The session never ends up
// without a project: deleting the last one synthesizes a fresh default.
// When the removed project was active, the first remaining becomes active.
func (s *Session) DeleteProject(id string) error {
	idx := -1
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.NewProjectNotFoundError(id)
	}

	s.Projects = append(s.Projects[:idx], s.Projects[idx+1:]...)

	if len(s.Projects) == 0 {
		replacement := NewProject(DefaultProjectName)
		s.Projects = []Project{replacement}
		s.ActiveProjectID = replacement.ID
		return nil
	}

	if s.ActiveProjectID == id {
		s.ActiveProjectID = s.Projects[0].ID
	}
	return nil
}

// RenameProject renames a project without touching its data
func (s *Session) RenameProject(id, newName string) error {
	project := s.FindProject(id)
	if project == nil {
		return apperrors.NewProjectNotFoundError(id)
	}
	if strings.TrimSpace(newName) == "" {
		return apperrors.NewValidationError("project name cannot be empty")
	}
	project.Name = newName
	return nil
}

// UpdateActiveProjectData applies fn to the active project's data only.
// This is the single choke point for all graph/tray/feed/diary mutation:
// nothing else in the system touches a non-active project's data.
// No-op when there is no active project.
func (s *Session) UpdateActiveProjectData(fn func(*AppSessionData) error) error {
	project := s.ActiveProject()
	if project == nil {
		return nil
	}
	return fn(&project.Data)
}

// AppendActivity prepends a diary entry to the active project (newest
// first). Silent no-op when there is no active project: logging must never
// fail an operation.
func (s *Session) AppendActivity(entry activity.Entry) {
	project := s.ActiveProject()
	if project == nil {
		return
	}
	project.Data.ProjectDiary = append([]activity.Entry{entry}, project.Data.ProjectDiary...)
}

// AppendActivityTo prepends a diary entry to a specific project. Async
// completions use this so an entry lands on the project that dispatched
// the work, not whichever one is active when it finishes. No-op when the
// project is gone.
func (s *Session) AppendActivityTo(projectID string, entry activity.Entry) {
	project := s.FindProject(projectID)
	if project == nil {
		return
	}
	project.Data.ProjectDiary = append([]activity.Entry{entry}, project.Data.ProjectDiary...)
}

// Sanitize runs the unconditional post-load repairs: transient feed state is
// cleared, nil collections are backfilled, the session is guaranteed at
// least one project, and a dangling active id is re-pointed at the first
// project. Idempotent by construction.
func (s *Session) Sanitize() {
	if s.Projects == nil {
		s.Projects = []Project{}
	}
	if len(s.Projects) == 0 {
		project := NewProject(DefaultProjectName)
		s.Projects = []Project{project}
		s.ActiveProjectID = project.ID
	}

	for i := range s.Projects {
		data := &s.Projects[i].Data
		if data.MapLayout.Nodes == nil {
			data.MapLayout.Nodes = []entities.MapNode{}
		}
		if data.MapLayout.Links == nil {
			data.MapLayout.Links = []entities.MapLink{}
		}
		if data.MapLayout.LogicalConstructs == nil {
			data.MapLayout.LogicalConstructs = []entities.LogicalConstruct{}
		}
		if data.MapTrayConceptIDs == nil {
			data.MapTrayConceptIDs = []valueobjects.NodeID{}
		}
		if data.TrackedFeeds == nil {
			data.TrackedFeeds = []entities.FeedSubscription{}
		}
		if data.SeenPublicationIDs == nil {
			data.SeenPublicationIDs = []string{}
		}
		if data.ProjectDiary == nil {
			data.ProjectDiary = []activity.Entry{}
		}

		// In-flight state cannot survive a reload.
		for j := range data.TrackedFeeds {
			data.TrackedFeeds[j].ClearTransientState()
		}
		for j := range data.MapLayout.Links {
			link := &data.MapLayout.Links[j]
			link.JustificationState = settleEnrichment(link.JustificationState)
			link.ImplicationsState = settleEnrichment(link.ImplicationsState)
			link.FormalizationState = settleEnrichment(link.FormalizationState)
		}
	}

	if s.FindProject(s.ActiveProjectID) == nil {
		s.ActiveProjectID = s.Projects[0].ID
	}

	if s.CustomRelationshipTypes == nil {
		s.CustomRelationshipTypes = []valueobjects.RelationshipTypeDef{}
	}
	if s.DisabledDefaultTypes == nil {
		s.DisabledDefaultTypes = []string{}
	}
	if s.DisabledCustomTypes == nil {
		s.DisabledCustomTypes = []string{}
	}
}

// settleEnrichment resets enrichment state that only makes sense while the
// process that set it is alive
func settleEnrichment(s valueobjects.EnrichmentState) valueobjects.EnrichmentState {
	if s == valueobjects.EnrichmentLoading {
		return valueobjects.EnrichmentIdle
	}
	return s.OrIdle()
}
