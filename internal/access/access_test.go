package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/reelpoint/reelpoint-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func newVideo(org string, owner uuid.UUID) *models.Video {
	return &models.Video{
		Id:           uuid.New(),
		UploadedBy:   owner,
		Organization: org,
	}
}

func TestCanStream(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	t.Run("organization mismatch denies regardless of role", func(t *testing.T) {
		video := newVideo("acme", owner)
		for _, role := range []string{models.RoleAdmin, models.RoleEditor, models.RoleViewer} {
			actor := Actor{ID: other, Role: role, Organization: "globex"}
			assert.ErrorIs(t, CanStream(actor, video), ErrDifferentOrganization, "role %s", role)
		}
	})

	t.Run("organization is checked before ownership", func(t *testing.T) {
		video := newVideo("acme", owner)
		actor := Actor{ID: owner, Role: models.RoleEditor, Organization: "globex"}
		assert.ErrorIs(t, CanStream(actor, video), ErrDifferentOrganization)
	})

	t.Run("super organization bypasses tenant scoping", func(t *testing.T) {
		video := newVideo("acme", owner)
		actor := Actor{ID: other, Role: models.RoleAdmin, Organization: models.OrgSuper}
		assert.NoError(t, CanStream(actor, video))
	})

	t.Run("admin always allowed within org", func(t *testing.T) {
		video := newVideo("acme", owner)
		actor := Actor{ID: other, Role: models.RoleAdmin, Organization: "acme"}
		assert.NoError(t, CanStream(actor, video))
	})

	t.Run("editor allowed only for own records", func(t *testing.T) {
		video := newVideo("acme", owner)
		assert.NoError(t, CanStream(Actor{ID: owner, Role: models.RoleEditor, Organization: "acme"}, video))
		assert.ErrorIs(t, CanStream(Actor{ID: other, Role: models.RoleEditor, Organization: "acme"}, video), ErrNotOwner)
	})

	t.Run("viewer allowed when assigned", func(t *testing.T) {
		viewer := uuid.New()
		video := newVideo("acme", owner)
		video.AssignedTo = []uuid.UUID{viewer}
		assert.NoError(t, CanStream(Actor{ID: viewer, Role: models.RoleViewer, Organization: "acme"}, video))
	})

	t.Run("viewer allowed when record is public", func(t *testing.T) {
		video := newVideo("acme", owner)
		video.Is_Public = true
		assert.NoError(t, CanStream(Actor{ID: other, Role: models.RoleViewer, Organization: "acme"}, video))
	})

	t.Run("viewer denied when neither assigned nor public", func(t *testing.T) {
		video := newVideo("acme", owner)
		actor := Actor{ID: other, Role: models.RoleViewer, Organization: "acme"}
		assert.ErrorIs(t, CanStream(actor, video), ErrNotAssigned)
	})

	t.Run("ownership grants access regardless of role label", func(t *testing.T) {
		video := newVideo("acme", owner)
		actor := Actor{ID: owner, Role: models.RoleViewer, Organization: "acme"}
		assert.NoError(t, CanStream(actor, video))
	})
}

func TestCanMutate(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	t.Run("owner allowed", func(t *testing.T) {
		video := newVideo("acme", owner)
		assert.NoError(t, CanMutate(Actor{ID: owner, Role: models.RoleEditor, Organization: "acme"}, video))
	})

	t.Run("admin allowed within org", func(t *testing.T) {
		video := newVideo("acme", owner)
		assert.NoError(t, CanMutate(Actor{ID: other, Role: models.RoleAdmin, Organization: "acme"}, video))
	})

	t.Run("cross-org admin denied unless super", func(t *testing.T) {
		video := newVideo("acme", owner)
		assert.ErrorIs(t, CanMutate(Actor{ID: other, Role: models.RoleAdmin, Organization: "globex"}, video), ErrDifferentOrganization)
		assert.NoError(t, CanMutate(Actor{ID: other, Role: models.RoleAdmin, Organization: models.OrgSuper}, video))
	})

	t.Run("non-owner viewer and editor denied", func(t *testing.T) {
		video := newVideo("acme", owner)
		assert.ErrorIs(t, CanMutate(Actor{ID: other, Role: models.RoleViewer, Organization: "acme"}, video), ErrNotAuthorized)
		assert.ErrorIs(t, CanMutate(Actor{ID: other, Role: models.RoleEditor, Organization: "acme"}, video), ErrNotAuthorized)
	})
}

func TestListScope(t *testing.T) {
	actorID := uuid.New()

	t.Run("admin sees whole org", func(t *testing.T) {
		scope := ListScope(Actor{ID: actorID, Role: models.RoleAdmin, Organization: "acme"})
		assert.False(t, scope.All)
		assert.Equal(t, "acme", scope.Organization)
		assert.False(t, scope.OwnerOnly)
		assert.False(t, scope.AssignedOrPublic)
	})

	t.Run("super admin sees everything", func(t *testing.T) {
		scope := ListScope(Actor{ID: actorID, Role: models.RoleAdmin, Organization: models.OrgSuper})
		assert.True(t, scope.All)
	})

	t.Run("editor restricted to own records", func(t *testing.T) {
		scope := ListScope(Actor{ID: actorID, Role: models.RoleEditor, Organization: "acme"})
		assert.True(t, scope.OwnerOnly)
		assert.Equal(t, actorID, scope.OwnerID)
	})

	t.Run("viewer restricted to assigned or public", func(t *testing.T) {
		scope := ListScope(Actor{ID: actorID, Role: models.RoleViewer, Organization: "acme"})
		assert.True(t, scope.AssignedOrPublic)
		assert.False(t, scope.OwnerOnly)
	})
}
