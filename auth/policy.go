// Package auth holds the actor identity extracted from access tokens and the
// pure role-evaluation policy gating form mutations.
package auth

import "github.com/formmind/formmind/model"

// Actor is the authenticated principal performing a request.
type Actor struct {
	UserID   int64
	TenantID int64
	Role     model.Role
}

// CanMutate reports whether a role may change a resource created by
// creatorID. OWNER and ADMIN have tenant-wide authority; EDITOR only touches
// resources it created.
func CanMutate(role model.Role, actorID, creatorID int64) bool {
	switch role {
	case model.RoleOwner, model.RoleAdmin:
		return true
	case model.RoleEditor:
		return actorID == creatorID
	}
	return false
}

// CanView uses the same gate as CanMutate.
func CanView(role model.Role, actorID, creatorID int64) bool {
	return CanMutate(role, actorID, creatorID)
}
