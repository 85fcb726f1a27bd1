package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptmap-backend/domain/activity"
	"conceptmap-backend/domain/core/entities"
	"conceptmap-backend/domain/core/valueobjects"
	apperrors "conceptmap-backend/pkg/errors"
)

func TestNewDefaultSession(t *testing.T) {
	s := NewDefaultSession()

	assert.Equal(t, SchemaVersion, s.Version)
	require.Len(t, s.Projects, 1)
	assert.Equal(t, DefaultProjectName, s.Projects[0].Name)
	assert.Equal(t, s.Projects[0].ID, s.ActiveProjectID)
}

func TestProjectIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		p := NewProject("P")
		assert.False(t, seen[p.ID], "duplicate project id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestCreateProjectActivates(t *testing.T) {
	s := NewDefaultSession()

	p := s.CreateProject("Second")
	assert.Equal(t, p.ID, s.ActiveProjectID)
	assert.Len(t, s.Projects, 2)
}

func TestSwitchProject(t *testing.T) {
	s := NewDefaultSession()
	first := s.Projects[0].ID
	s.CreateProject("Second")

	s.SwitchProject(first)
	assert.Equal(t, first, s.ActiveProjectID)

	// Unknown ids leave the active project untouched
	s.SwitchProject("proj-unknown")
	assert.Equal(t, first, s.ActiveProjectID)
}

func TestDeleteProject(t *testing.T) {
	t.Run("unknown id is an error", func(t *testing.T) {
		s := NewDefaultSession()
		err := s.DeleteProject("proj-unknown")
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("deleting the active project activates the first remaining", func(t *testing.T) {
		s := NewDefaultSession()
		first := s.Projects[0].ID
		second := s.CreateProject("Second")

		require.NoError(t, s.DeleteProject(second.ID))
		assert.Equal(t, first, s.ActiveProjectID)
	})

	t.Run("deleting the last project synthesizes a new default", func(t *testing.T) {
		s := NewDefaultSession()
		only := s.Projects[0].ID

		require.NoError(t, s.DeleteProject(only))

		require.Len(t, s.Projects, 1)
		assert.NotEqual(t, only, s.Projects[0].ID)
		assert.Equal(t, DefaultProjectName, s.Projects[0].Name)
		assert.Equal(t, s.Projects[0].ID, s.ActiveProjectID)
		assert.Empty(t, s.Projects[0].Data.MapLayout.Nodes)
	})
}

func TestRenameProject(t *testing.T) {
	s := NewDefaultSession()
	id := s.Projects[0].ID

	require.NoError(t, s.RenameProject(id, "Metaphysics"))
	assert.Equal(t, "Metaphysics", s.Projects[0].Name)

	err := s.RenameProject(id, "  ")
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateActiveProjectDataTouchesOnlyTheActiveProject(t *testing.T) {
	s := NewDefaultSession()
	first := s.Projects[0].ID
	s.CreateProject("Second")

	err := s.UpdateActiveProjectData(func(data *AppSessionData) error {
		data.MapTrayConceptIDs = append(data.MapTrayConceptIDs, "concept-1")
		return nil
	})
	require.NoError(t, err)

	assert.Empty(t, s.FindProject(first).Data.MapTrayConceptIDs)
	assert.Len(t, s.ActiveProject().Data.MapTrayConceptIDs, 1)
}

func TestAppendActivityIsNewestFirst(t *testing.T) {
	s := NewDefaultSession()

	older, err := activity.NewEntry(activity.TypeCreateProject, activity.CreateProjectPayload{ProjectID: "p1", ProjectName: "One"})
	require.NoError(t, err)
	newer, err := activity.NewEntry(activity.TypeRenameProject, activity.RenameProjectPayload{ProjectID: "p1", OldName: "One", NewName: "Two"})
	require.NoError(t, err)

	s.AppendActivity(older)
	s.AppendActivity(newer)

	diary := s.ActiveProject().Data.ProjectDiary
	require.Len(t, diary, 2)
	assert.Equal(t, activity.TypeRenameProject, diary[0].Type)
	assert.Equal(t, activity.TypeCreateProject, diary[1].Type)
}

func TestSanitize(t *testing.T) {
	t.Run("repairs an empty session", func(t *testing.T) {
		s := &Session{}
		s.Sanitize()

		require.Len(t, s.Projects, 1)
		assert.Equal(t, s.Projects[0].ID, s.ActiveProjectID)
		assert.NotNil(t, s.CustomRelationshipTypes)
		assert.NotNil(t, s.DisabledDefaultTypes)
		assert.NotNil(t, s.DisabledCustomTypes)
	})

	t.Run("re-points a dangling active id", func(t *testing.T) {
		s := NewDefaultSession()
		s.ActiveProjectID = "proj-gone"
		s.Sanitize()
		assert.Equal(t, s.Projects[0].ID, s.ActiveProjectID)
	})

	t.Run("clears transient feed state", func(t *testing.T) {
		s := NewDefaultSession()
		s.Projects[0].Data.TrackedFeeds = []entities.FeedSubscription{
			{URL: "https://example.org/feed", IsLoading: true, Error: "timeout"},
		}
		s.Sanitize()

		feed := s.Projects[0].Data.TrackedFeeds[0]
		assert.False(t, feed.IsLoading)
		assert.Empty(t, feed.Error)
	})

	t.Run("settles in-flight enrichment state", func(t *testing.T) {
		s := NewDefaultSession()
		g := &s.Projects[0].Data.MapLayout
		require.NoError(t, g.AddNode(entities.NewMapNode("a", "A", valueobjects.Position{})))
		require.NoError(t, g.AddNode(entities.NewMapNode("b", "B", valueobjects.Position{})))
		link, err := g.CreateLink("a", "b", nil)
		require.NoError(t, err)
		link.JustificationState = valueobjects.EnrichmentLoading
		link.ImplicationsState = valueobjects.EnrichmentSuccess
		link.FormalizationState = ""

		s.Sanitize()

		link = g.FindLink(link.Key())
		assert.Equal(t, valueobjects.EnrichmentIdle, link.JustificationState)
		assert.Equal(t, valueobjects.EnrichmentSuccess, link.ImplicationsState)
		assert.Equal(t, valueobjects.EnrichmentIdle, link.FormalizationState)
	})

	t.Run("is idempotent", func(t *testing.T) {
		s := NewDefaultSession()
		s.Sanitize()
		before := *s
		s.Sanitize()
		assert.Equal(t, before.ActiveProjectID, s.ActiveProjectID)
		assert.Len(t, s.Projects, len(before.Projects))
	})
}
