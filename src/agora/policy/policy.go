// Package policy holds the stateless authorization predicates. Callers must
// resolve the resource first; not-found beats forbidden.
package policy

import "github.com/opencivic/agora/src/agora/types"

func CanEditPetition(actor types.User, p types.Petition) bool {
	return actor.ID == p.AuthorID
}

func CanDeletePetition(actor types.User, p types.Petition) bool {
	return actor.ID == p.AuthorID
}

// CanChangePetitionStatus is role-gated only; ownership is irrelevant.
func CanChangePetitionStatus(actor types.User) bool {
	return actor.Role == types.RoleOfficer
}

func CanEditPoll(actor types.User, p types.Poll) bool {
	return actor.ID == p.CreatedBy || actor.Role == types.RoleOfficer
}

func CanDeletePoll(actor types.User, p types.Poll) bool {
	return CanEditPoll(actor, p)
}

func CanMarkNotificationRead(actor types.User, n types.Notification) bool {
	return actor.ID == n.UserID
}
