package session

import (
	"github.com/trezcool/darasa/core/group"
)

// RoleAssignment pairs a group member with the functional role they hold for
// one session.
type RoleAssignment struct {
	UserID string
	Role   string
}

// assignRoles distributes the functional roles over the group's active
// members, rotation-fair across the group's session history.
//
// Members must already be sorted by user ID (group.Group.ActiveMembers
// guarantees this). The rotation offset is rederived from the count of the
// group's FINISHED sessions instead of a stored rotation pointer, so there is
// no second source of truth to drift: role i goes to
// members[(i+finishedCount) mod N], for i in 0..min(N,5)-1. Groups with more
// than 5 active members leave the remainder without a distinguished role.
func assignRoles(members []group.Member, finishedCount int) []RoleAssignment {
	n := len(members)
	if n == 0 {
		return nil
	}
	offset := finishedCount % n

	count := n
	if count > len(AssignedRoles) {
		count = len(AssignedRoles)
	}

	assignments := make([]RoleAssignment, 0, count)
	for i := 0; i < count; i++ {
		assignments = append(assignments, RoleAssignment{
			UserID: members[(i+offset)%n].UserID,
			Role:   AssignedRoles[i],
		})
	}
	return assignments
}
