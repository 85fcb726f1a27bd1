package services

import (
	"context"

	"go.uber.org/zap"

	"conceptmap-backend/application/store"
	"conceptmap-backend/domain/activity"
	"conceptmap-backend/domain/core/aggregates"
	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
	apperrors "conceptmap-backend/pkg/errors"
)

// ProjectService exposes project-level structural operations plus the
// tray/feed/relationship-type bookkeeping that lives on session data.
type ProjectService struct {
	store  *store.SessionStore
	logger *zap.Logger
}

// NewProjectService creates a project service
func NewProjectService(store *store.SessionStore, logger *zap.Logger) *ProjectService {
	return &ProjectService{store: store, logger: logger}
}

// ProjectSummary is the listing shape for projects
type ProjectSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
	Nodes    int    `json:"nodes"`
	Links    int    `json:"links"`
}

// ListProjects returns summaries of every project
func (s *ProjectService) ListProjects() []ProjectSummary {
	var out []ProjectSummary
	s.store.Read(func(session *aggregates.Session) {
		out = make([]ProjectSummary, 0, len(session.Projects))
		for i := range session.Projects {
			p := &session.Projects[i]
			out = append(out, ProjectSummary{
				ID:       p.ID,
				Name:     p.Name,
				IsActive: p.ID == session.ActiveProjectID,
				Nodes:    len(p.Data.MapLayout.Nodes),
				Links:    len(p.Data.MapLayout.Links),
			})
		}
	})
	return out
}

// CreateProject mints a project with empty data and makes it active
func (s *ProjectService) CreateProject(ctx context.Context, name string) (ProjectSummary, error) {
	var summary ProjectSummary
	err := s.store.Update(ctx, func(session *aggregates.Session) error {
		project := session.CreateProject(name)
		summary = ProjectSummary{ID: project.ID, Name: project.Name, IsActive: true}

		entry, err := activity.NewEntry(activity.TypeCreateProject, activity.CreateProjectPayload{
			ProjectID:   project.ID,
			ProjectName: project.Name,
		})
		if err == nil {
			session.AppendActivity(entry)
		}
		return nil
	})
	return summary, err
}

// SwitchProject activates the project with the id; unknown ids are a no-op
func (s *ProjectService) SwitchProject(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		session.SwitchProject(id)
		return nil
	})
}

// DeleteProject removes a project. The session is repaired to always hold at
// least one project, and the active project is reassigned when needed.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		project := session.FindProject(id)
		if project == nil {
			return apperrors.NewProjectNotFoundError(id)
		}
		name := project.Name

		if err := session.DeleteProject(id); err != nil {
			return err
		}

		entry, err := activity.NewEntry(activity.TypeDeleteProject, activity.DeleteProjectPayload{
			ProjectID:   id,
			ProjectName: name,
		})
		if err == nil {
			session.AppendActivity(entry)
		}

		s.logger.Info("project deleted",
			zap.String("projectId", id),
			zap.Int("remaining", len(session.Projects)),
		)
		return nil
	})
}

// RenameProject renames a project without touching its data
func (s *ProjectService) RenameProject(ctx context.Context, id, newName string) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		project := session.FindProject(id)
		if project == nil {
			return apperrors.NewProjectNotFoundError(id)
		}
		oldName := project.Name

		if err := session.RenameProject(id, newName); err != nil {
			return err
		}

		entry, err := activity.NewEntry(activity.TypeRenameProject, activity.RenameProjectPayload{
			ProjectID: id,
			OldName:   oldName,
			NewName:   newName,
		})
		if err == nil {
			session.AppendActivity(entry)
		}
		return nil
	})
}

// ActiveProject returns a copy of the active project, or nil
func (s *ProjectService) ActiveProject() *aggregates.Project {
	var out *aggregates.Project
	s.store.Read(func(session *aggregates.Session) {
		if p := session.ActiveProject(); p != nil {
			clone := *p
			out = &clone
		}
	})
	return out
}

// Diary returns the active project's diary, newest first
func (s *ProjectService) Diary() []activity.Entry {
	var out []activity.Entry
	s.store.Read(func(session *aggregates.Session) {
		if p := session.ActiveProject(); p != nil {
			out = append([]activity.Entry{}, p.Data.ProjectDiary...)
		}
	})
	return out
}

// AddTrayConcept appends a concept id to the active project's tray.
// Duplicates are ignored.
func (s *ProjectService) AddTrayConcept(ctx context.Context, id valueobjects.NodeID) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		return session.UpdateActiveProjectData(func(data *aggregates.AppSessionData) error {
			for _, existing := range data.MapTrayConceptIDs {
				if existing == id {
					return nil
				}
			}
			data.MapTrayConceptIDs = append(data.MapTrayConceptIDs, id)
			return nil
		})
	})
}

// RemoveTrayConcept drops a concept id from the active project's tray
func (s *ProjectService) RemoveTrayConcept(ctx context.Context, id valueobjects.NodeID) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		return session.UpdateActiveProjectData(func(data *aggregates.AppSessionData) error {
			for i, existing := range data.MapTrayConceptIDs {
				if existing == id {
					data.MapTrayConceptIDs = append(data.MapTrayConceptIDs[:i], data.MapTrayConceptIDs[i+1:]...)
					return nil
				}
			}
			return nil
		})
	})
}

// TrackFeed subscribes the active project to a feed URL; re-subscribing an
// already tracked URL is a no-op
func (s *ProjectService) TrackFeed(ctx context.Context, url, title string) error {
	if url == "" {
		return apperrors.NewValidationError("feed url is required")
	}
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		return session.UpdateActiveProjectData(func(data *aggregates.AppSessionData) error {
			for _, f := range data.TrackedFeeds {
				if f.URL == url {
					return nil
				}
			}
			data.TrackedFeeds = append(data.TrackedFeeds, entities.FeedSubscription{URL: url, Title: title})
			return nil
		})
	})
}

// UntrackFeed removes a feed subscription by URL
func (s *ProjectService) UntrackFeed(ctx context.Context, url string) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		return session.UpdateActiveProjectData(func(data *aggregates.AppSessionData) error {
			for i, f := range data.TrackedFeeds {
				if f.URL == url {
					data.TrackedFeeds = append(data.TrackedFeeds[:i], data.TrackedFeeds[i+1:]...)
					return nil
				}
			}
			return nil
		})
	})
}

// MarkPublicationsSeen records publication ids the user has already seen
func (s *ProjectService) MarkPublicationsSeen(ctx context.Context, ids []string) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		return session.UpdateActiveProjectData(func(data *aggregates.AppSessionData) error {
			seen := make(map[string]bool, len(data.SeenPublicationIDs))
			for _, id := range data.SeenPublicationIDs {
				seen[id] = true
			}
			for _, id := range ids {
				if !seen[id] {
					data.SeenPublicationIDs = append(data.SeenPublicationIDs, id)
					seen[id] = true
				}
			}
			return nil
		})
	})
}

// RelationshipTypeSettings is the session-level type administration view
type RelationshipTypeSettings struct {
	DefaultTypes         []valueobjects.RelationshipType    `json:"defaultTypes"`
	CustomTypes          []valueobjects.RelationshipTypeDef `json:"customTypes"`
	DisabledDefaultTypes []string                           `json:"disabledDefaultTypes"`
	DisabledCustomTypes  []string                           `json:"disabledCustomTypes"`
}

// RelationshipTypes returns the current type administration state
func (s *ProjectService) RelationshipTypes() RelationshipTypeSettings {
	var out RelationshipTypeSettings
	s.store.Read(func(session *aggregates.Session) {
		out = RelationshipTypeSettings{
			DefaultTypes:         valueobjects.DefaultRelationshipTypes(),
			CustomTypes:          append([]valueobjects.RelationshipTypeDef{}, session.CustomRelationshipTypes...),
			DisabledDefaultTypes: append([]string{}, session.DisabledDefaultTypes...),
			DisabledCustomTypes:  append([]string{}, session.DisabledCustomTypes...),
		}
	})
	return out
}

// AddCustomRelationshipType registers a user-defined relationship type
func (s *ProjectService) AddCustomRelationshipType(ctx context.Context, def valueobjects.RelationshipTypeDef) error {
	if def.Name == "" {
		return apperrors.NewValidationError("relationship type name is required")
	}
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		for _, existing := range session.CustomRelationshipTypes {
			if existing.Name == def.Name {
				return apperrors.NewConflictError("a relationship type with this name already exists")
			}
		}
		session.CustomRelationshipTypes = append(session.CustomRelationshipTypes, def)
		return nil
	})
}

// SetTypeDisabled toggles a default or custom relationship type. Disabling
// affects only type pickers; existing links keep their types.
func (s *ProjectService) SetTypeDisabled(ctx context.Context, name string, custom, disabled bool) error {
	return s.store.Update(ctx, func(session *aggregates.Session) error {
		list := &session.DisabledDefaultTypes
		if custom {
			list = &session.DisabledCustomTypes
		}

		idx := -1
		for i, n := range *list {
			if n == name {
				idx = i
				break
			}
		}

		switch {
		case disabled && idx < 0:
			*list = append(*list, name)
		case !disabled && idx >= 0:
			*list = append((*list)[:idx], (*list)[idx+1:]...)
		}
		return nil
	})
}
