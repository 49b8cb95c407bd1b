package access

import (
	"errors"

	"github.com/google/uuid"
	"github.com/reelpoint/reelpoint-server/internal/models"
)

// Organization mismatch is always checked before any role rule, so callers can
// tell the two denial reasons apart in their responses.
var (
	ErrDifferentOrganization = errors.New("not authorized to access this video - different organization")
	ErrNotAssigned           = errors.New("not authorized to access this video - not assigned to you")
	ErrNotOwner              = errors.New("not authorized to access this video - not your video")
	ErrNotAuthorized         = errors.New("not authorized to access this video")
)

// Actor is the identity an authorization decision is made for.
type Actor struct {
	ID           uuid.UUID
	Role         string
	Organization string
}

func ActorFromUser(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Organization: u.Organization}
}

func sameOrg(actor Actor, video *models.Video) bool {
	return actor.Organization == video.Organization || actor.Organization == models.OrgSuper
}

func isAssigned(actor Actor, video *models.Video) bool {
	for _, id := range video.AssignedTo {
		if id == actor.ID {
			return true
		}
	}
	return false
}

// CanStream decides whether actor may stream or view video. Ownership grants
// access regardless of role label; the organization boundary is unconditional.
func CanStream(actor Actor, video *models.Video) error {
	if !sameOrg(actor, video) {
		return ErrDifferentOrganization
	}
	if video.UploadedBy == actor.ID {
		return nil
	}

	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleEditor:
		return ErrNotOwner
	case models.RoleViewer:
		if isAssigned(actor, video) || video.Is_Public {
			return nil
		}
		return ErrNotAssigned
	default:
		return ErrNotAuthorized
	}
}

// CanMutate decides whether actor may edit, delete or reassign video.
// Owner or admin only; cross-org admins are still denied unless "super".
func CanMutate(actor Actor, video *models.Video) error {
	if !sameOrg(actor, video) {
		return ErrDifferentOrganization
	}
	if video.UploadedBy == actor.ID {
		return nil
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}
	return ErrNotAuthorized
}

// Scope narrows a listing query to the records actor may see. The store layer
// translates it into WHERE clauses.
type Scope struct {
	// All disables organization filtering entirely ("super" actors).
	All bool
	// Organization is the tenant filter applied when All is false.
	Organization string
	// OwnerOnly restricts results to records uploaded by OwnerID (editors).
	OwnerOnly bool
	// AssignedOrPublic restricts results to records assigned to OwnerID or
	// marked public (viewers).
	AssignedOrPublic bool
	OwnerID          uuid.UUID
}

func ListScope(actor Actor) Scope {
	scope := Scope{
		Organization: actor.Organization,
		OwnerID:      actor.ID,
		All:          actor.Organization == models.OrgSuper,
	}

	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleEditor:
		scope.OwnerOnly = true
	default:
		scope.AssignedOrPublic = true
	}
	return scope
}
