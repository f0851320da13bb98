package group_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
	testutil "github.com/trezcool/darasa/tests"
)

type testEnv struct {
	usrRepo user.Repository
	grpRepo group.Repository
	grpSvc  group.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	conf := &core.Config{AppName: "darasa", TestMode: true, DefaultFromEmail: "noreply@localhost"}

	db, err := dummydb.Open()
	require.NoError(t, err)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrRepo := dummydb.NewUserRepository(db)
	grpRepo := dummydb.NewGroupRepository(db)
	usrSvc := user.NewServiceMock(db, usrRepo, mailSvc, conf)
	grpSvc := group.NewService(db, grpRepo, usrSvc, mailSvc, conf)

	return &testEnv{usrRepo: usrRepo, grpRepo: grpRepo, grpSvc: grpSvc}
}

func (env *testEnv) createUser(t *testing.T, uname string) user.User {
	t.Helper()
	return testutil.CreateUser(t, env.usrRepo, uname, uname, uname+"@test.cd", "", []string{user.RoleStudent}, true)
}

func TestGroupCreate(t *testing.T) {
	env := setup(t)
	owner := env.createUser(t, "owner")

	grp, err := env.grpSvc.Create(owner.ID, group.NewGroup{Name: "Biology 101", Description: "weekly study"})
	require.NoError(t, err)
	assert.NotEmpty(t, grp.ID)
	require.Len(t, grp.Members, 1)
	assert.Equal(t, owner.ID, grp.Members[0].UserID)
	assert.Equal(t, group.RoleOwner, grp.Members[0].Role)
	assert.Equal(t, group.StatusActive, grp.Members[0].Status)

	groups, err := env.grpSvc.QueryByUser(owner.ID)
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestGroupInviteFlow(t *testing.T) {
	env := setup(t)
	owner := env.createUser(t, "owner")
	invitee := env.createUser(t, "invitee")
	outsider := env.createUser(t, "outsider")

	grp, err := env.grpSvc.Create(owner.ID, group.NewGroup{Name: "Chemistry"})
	require.NoError(t, err)

	// only owners and mods may invite
	_, err = env.grpSvc.InviteMember(grp.ID, outsider.ID, group.InviteMember{Email: invitee.Email, Role: group.RoleMember})
	var permErr *core.PermissionError
	assert.ErrorAs(t, err, &permErr)

	// unknown email is a field error
	_, err = env.grpSvc.InviteMember(grp.ID, owner.ID, group.InviteMember{Email: "ghost@test.cd", Role: group.RoleMember})
	var valErr *core.ValidationError
	assert.ErrorAs(t, err, &valErr)

	mbr, err := env.grpSvc.InviteMember(grp.ID, owner.ID, group.InviteMember{Email: invitee.Email, Role: group.RoleMember})
	require.NoError(t, err)
	assert.Equal(t, group.StatusInvited, mbr.Status)

	// invited members are not active yet
	assert.Error(t, env.grpSvc.AssertActiveMember(grp.ID, invitee.ID))

	// double invite is rejected
	_, err = env.grpSvc.InviteMember(grp.ID, owner.ID, group.InviteMember{Email: invitee.Email, Role: group.RoleMember})
	assert.ErrorAs(t, err, &valErr)

	// accepting requires a pending invite
	_, err = env.grpSvc.AcceptInvite(grp.ID, outsider.ID)
	assert.Error(t, err)

	mbr, err = env.grpSvc.AcceptInvite(grp.ID, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, group.StatusActive, mbr.Status)
	assert.NoError(t, env.grpSvc.AssertActiveMember(grp.ID, invitee.ID))

	// re-accepting is a validation error
	_, err = env.grpSvc.AcceptInvite(grp.ID, invitee.ID)
	assert.ErrorAs(t, err, &valErr)
}

func TestGroupRemoveMember(t *testing.T) {
	env := setup(t)
	owner := env.createUser(t, "owner")
	member := env.createUser(t, "member")

	grp, err := env.grpSvc.Create(owner.ID, group.NewGroup{Name: "Physics"})
	require.NoError(t, err)

	_, err = env.grpSvc.InviteMember(grp.ID, owner.ID, group.InviteMember{Email: member.Email, Role: group.RoleMember})
	require.NoError(t, err)
	_, err = env.grpSvc.AcceptInvite(grp.ID, member.ID)
	require.NoError(t, err)

	// plain members cannot remove others
	err = env.grpSvc.RemoveMember(grp.ID, member.ID, owner.ID)
	var permErr *core.PermissionError
	assert.ErrorAs(t, err, &permErr)

	// but may leave on their own
	require.NoError(t, env.grpSvc.RemoveMember(grp.ID, member.ID, member.ID))
	assert.Error(t, env.grpSvc.AssertActiveMember(grp.ID, member.ID))

	// removing again is a no-op
	assert.NoError(t, env.grpSvc.RemoveMember(grp.ID, owner.ID, member.ID))

	// a removed member can be re-invited
	mbr, err := env.grpSvc.InviteMember(grp.ID, owner.ID, group.InviteMember{Email: member.Email, Role: group.RoleMod})
	require.NoError(t, err)
	assert.Equal(t, group.StatusInvited, mbr.Status)
	assert.Equal(t, group.RoleMod, mbr.Role)
}

func TestGroupLastOwnerGuard(t *testing.T) {
	env := setup(t)
	owner := env.createUser(t, "owner")

	grp, err := env.grpSvc.Create(owner.ID, group.NewGroup{Name: "History"})
	require.NoError(t, err)

	err = env.grpSvc.RemoveMember(grp.ID, owner.ID, owner.ID)
	var valErr *core.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, group.ErrLastOwner.Error(), valErr.Error())

	// a second active owner lifts the guard
	co := env.createUser(t, "coowner")
	now := time.Now().UTC()
	_, err = env.grpRepo.CreateGroupMember(context.Background(), group.Member{
		GroupID:   grp.ID,
		UserID:    co.ID,
		Role:      group.RoleOwner,
		Status:    group.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, env.grpSvc.RemoveMember(grp.ID, owner.ID, owner.ID))
}

func TestGroupRoleOf(t *testing.T) {
	env := setup(t)
	owner := env.createUser(t, "owner")
	stranger := env.createUser(t, "stranger")

	grp, err := env.grpSvc.Create(owner.ID, group.NewGroup{Name: "Geography"})
	require.NoError(t, err)

	role, err := env.grpSvc.RoleOf(grp.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, group.RoleOwner, role)

	_, err = env.grpSvc.RoleOf(grp.ID, stranger.ID)
	assert.Equal(t, group.ErrMemberNotFound, err)
}
