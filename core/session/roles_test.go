package session

import (
	"testing"

	"github.com/trezcool/darasa/core/group"
)

func members(userIDs ...string) []group.Member {
	mbrs := make([]group.Member, 0, len(userIDs))
	for _, id := range userIDs {
		mbrs = append(mbrs, group.Member{UserID: id, Status: group.StatusActive})
	}
	return mbrs
}

func TestAssignRoles(t *testing.T) {
	tests := []struct {
		name          string
		members       []group.Member
		finishedCount int
		want          map[string]string // userID -> role
	}{
		{
			name: "empty group",
		},
		{
			name:          "first session",
			members:       members("a", "b", "c"),
			finishedCount: 0,
			want:          map[string]string{"a": RoleFacilitator, "b": RoleTimekeeper, "c": RoleClarifier},
		},
		{
			name:          "rotated by one",
			members:       members("a", "b", "c"),
			finishedCount: 1,
			want:          map[string]string{"b": RoleFacilitator, "c": RoleTimekeeper, "a": RoleClarifier},
		},
		{
			name:          "full cycle wraps around",
			members:       members("a", "b", "c"),
			finishedCount: 3,
			want:          map[string]string{"a": RoleFacilitator, "b": RoleTimekeeper, "c": RoleClarifier},
		},
		{
			name:          "wrap plus one",
			members:       members("a", "b", "c"),
			finishedCount: 4,
			want:          map[string]string{"b": RoleFacilitator, "c": RoleTimekeeper, "a": RoleClarifier},
		},
		{
			name:          "five members get all roles",
			members:       members("a", "b", "c", "d", "e"),
			finishedCount: 0,
			want: map[string]string{
				"a": RoleFacilitator, "b": RoleTimekeeper, "c": RoleClarifier,
				"d": RoleConnector, "e": RoleScribe,
			},
		},
		{
			name:          "more members than roles leaves the rest unassigned",
			members:       members("a", "b", "c", "d", "e", "f", "g"),
			finishedCount: 2,
			want: map[string]string{
				"c": RoleFacilitator, "d": RoleTimekeeper, "e": RoleClarifier,
				"f": RoleConnector, "g": RoleScribe,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assignRoles(tt.members, tt.finishedCount)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d assignments; got %d", len(tt.want), len(got))
			}
			for _, ra := range got {
				if role, ok := tt.want[ra.UserID]; !ok || role != ra.Role {
					t.Errorf("user %s: expected role %q; got %q", ra.UserID, tt.want[ra.UserID], ra.Role)
				}
			}
		})
	}
}

func TestDefaultTimers(t *testing.T) {
	l1 := DefaultTimers(LayerL1)
	if l1.VoteSecs != 60 || l1.DiscussSecs != 180 || l1.RevoteSecs != 60 || l1.ExplainSecs != 180 {
		t.Errorf("unexpected L1 timing: %+v", l1)
	}
	for _, layer := range []string{LayerL2, LayerL3} {
		timing := DefaultTimers(layer)
		if timing.VoteSecs != 90 || timing.DiscussSecs != 240 || timing.RevoteSecs != 90 || timing.ExplainSecs != 240 {
			t.Errorf("unexpected %s timing: %+v", layer, timing)
		}
	}
}
