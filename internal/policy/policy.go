// Package policy is the capability table: which roles may perform which
// route intents, and how ownership modifies the answer. Every failure is a
// Forbidden error; requests are never silently downgraded.
package policy

import (
	id "felicity/pkg/domain"
	dErrors "felicity/pkg/domain-errors"
)

// Capability names a route intent.
type Capability string

const (
	CapCreateEvent      Capability = "createEvent"
	CapMutateEvent      Capability = "mutateEvent"
	CapRegisterForEvent Capability = "registerForEvent"
	CapListIdentities   Capability = "listAllIdentities"
	CapReadIdentity     Capability = "readIdentity"
	CapCreateOrganizer  Capability = "createOrganizer"
)

// allowedRoles is the authoritative capability table. Ownership-scoped
// capabilities (CapMutateEvent, CapReadIdentity) list the roles that may act
// on records they own; Admin bypasses ownership via AuthorizeOwner.
var allowedRoles = map[Capability][]id.Role{
	CapCreateEvent:      {id.RoleOrganizer, id.RoleAdmin},
	CapMutateEvent:      {id.RoleOrganizer, id.RoleAdmin},
	CapRegisterForEvent: {id.RoleParticipant},
	CapListIdentities:   {id.RoleAdmin},
	CapReadIdentity:     {id.RoleParticipant, id.RoleOrganizer, id.RoleAdmin},
	CapCreateOrganizer:  {id.RoleAdmin},
}

// Allows reports whether the role appears in the capability's allowed set.
func Allows(capability Capability, role id.Role) bool {
	for _, allowed := range allowedRoles[capability] {
		if allowed == role {
			return true
		}
	}
	return false
}

// Authorize gates a pure role check.
func Authorize(role id.Role, capability Capability) error {
	if !Allows(capability, role) {
		return dErrors.New(dErrors.CodeForbidden, "insufficient role for this operation")
	}
	return nil
}

// AuthorizeOwner gates an ownership-scoped capability: admins always pass;
// other allowed roles pass only when acting on their own record.
func AuthorizeOwner(role id.Role, capability Capability, actor, owner id.IdentityID) error {
	if role == id.RoleAdmin {
		return nil
	}
	if err := Authorize(role, capability); err != nil {
		return err
	}
	if actor != owner {
		return dErrors.New(dErrors.CodeForbidden, "not the owner of this resource")
	}
	return nil
}
