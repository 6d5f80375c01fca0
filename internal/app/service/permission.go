package service

import (
	"fmt"

	"creativerse/internal/common"
	"creativerse/internal/domain/model"
)

type Capability string

const (
	CapCreateContest    Capability = "contest:create"
	CapManageOwnContest Capability = "contest:manage_own"
	CapManageAnyContest Capability = "contest:manage_any"
	CapModerateContest  Capability = "contest:moderate"
	CapParticipate      Capability = "contest:participate"
	CapDeclareWinner    Capability = "contest:declare_winner"
	CapManageUsers      Capability = "users:manage"
)

var roleCapabilities = map[string]map[Capability]bool{
	model.RoleUser: {
		CapParticipate: true,
	},
	model.RoleCreator: {
		CapCreateContest:    true,
		CapManageOwnContest: true,
		CapDeclareWinner:    true,
	},
	model.RoleAdmin: {
		CapCreateContest:    true,
		CapManageOwnContest: true,
		CapManageAnyContest: true,
		CapModerateContest:  true,
		CapDeclareWinner:    true,
		CapManageUsers:      true,
	},
}

// Can reports whether the principal's role grants c.
func Can(p model.Principal, c Capability) bool {
	if p.IsAnonymous() {
		return false
	}
	return roleCapabilities[p.Role][c]
}

func requireCap(p model.Principal, c Capability) error {
	if !Can(p, c) {
		return fmt.Errorf("role %q lacks %s: %w", p.Role, c, common.ErrForbidden)
	}
	return nil
}

// canManageContest covers edits, deletes and winner declaration on a specific contest.
func canManageContest(p model.Principal, c *model.Contest) bool {
	if Can(p, CapManageAnyContest) {
		return true
	}
	return Can(p, CapManageOwnContest) && c.CreatorID == p.UserID
}
