package boiledrepos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/sqlboiler/models"
)

type groupRepository struct {
	exec core.DBExecutor
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(exec core.DBExecutor) group.Repository {
	return &groupRepository{exec: exec}
}

func (repo groupRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo groupRepository) unboilGroup(grp *models.StudyGroup) group.Group {
	if grp == nil {
		return group.Group{}
	}
	return group.Group{
		ID:          grp.ID,
		Name:        grp.Name,
		Description: grp.Description,
		CreatedAt:   grp.CreatedAt,
		UpdatedAt:   grp.UpdatedAt,
	}
}

func (repo groupRepository) unboilMember(mbr *models.GroupMember) group.Member {
	if mbr == nil {
		return group.Member{}
	}
	return group.Member{
		ID:        mbr.ID,
		GroupID:   mbr.GroupID,
		UserID:    mbr.UserID,
		Role:      mbr.Role,
		Status:    mbr.Status,
		CreatedAt: mbr.CreatedAt,
		UpdatedAt: mbr.UpdatedAt,
	}
}

// loadMembers fetches a group's members with their users attached, ordered
// by user ID for a stable rotation order.
func (repo groupRepository) loadMembers(ctx context.Context, exe core.DBExecutor, groupID string) ([]group.Member, error) {
	slice, err := models.GroupMembers(
		qm.Where(models.GroupMemberColumns.GroupID+" = ?", groupID),
		qm.OrderBy(models.GroupMemberColumns.UserID),
	).All(ctx, exe)
	if err != nil {
		return nil, errors.Wrap(err, "querying group members")
	}

	members := make([]group.Member, 0, len(slice))
	userIDs := make([]string, 0, len(slice))
	for _, m := range slice {
		members = append(members, repo.unboilMember(m))
		userIDs = append(userIDs, m.UserID)
	}
	if len(userIDs) == 0 {
		return members, nil
	}

	usrSlice, err := models.Users(qm.WhereIn(fmt.Sprintf("%s IN ?", models.UserColumns.ID), idArgs(userIDs)...)).
		All(ctx, exe)
	if err != nil {
		return nil, errors.Wrap(err, "querying member users")
	}
	usrRepo := userRepository{}
	usersByID := make(map[string]user.User, len(usrSlice))
	for _, u := range usrSlice {
		usersByID[u.ID] = usrRepo.unboil(u)
	}
	for i := range members {
		if usr, ok := usersByID[members[i].UserID]; ok {
			u := usr
			members[i].User = &u
		}
	}
	return members, nil
}

func (repo groupRepository) CreateGroup(ctx context.Context, grp group.Group, exec ...core.DBExecutor) (group.Group, error) {
	grp.ID = uuid.New().String()
	g := &models.StudyGroup{
		ID:          grp.ID,
		Name:        grp.Name,
		Description: grp.Description,
		CreatedAt:   grp.CreatedAt.UTC(),
		UpdatedAt:   grp.UpdatedAt.UTC(),
	}
	if err := g.Insert(ctx, repo.getExec(exec)); err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return repo.unboilGroup(g), nil
}

func (repo groupRepository) GetGroupByID(ctx context.Context, id string, exec ...core.DBExecutor) (group.Group, error) {
	if _, err := uuid.Parse(id); err != nil {
		return group.Group{}, group.ErrNotFound
	}
	exe := repo.getExec(exec)

	g, err := models.FindStudyGroup(ctx, exe, id)
	if err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound, "finding group")
	}
	grp := repo.unboilGroup(g)
	if grp.Members, err = repo.loadMembers(ctx, exe, id); err != nil {
		return group.Group{}, err
	}
	return grp, nil
}

func (repo groupRepository) QueryGroupsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]group.Group, error) {
	slice, err := models.StudyGroups(
		qm.InnerJoin(fmt.Sprintf(
			`"%s" ON "%s".%s = "%s".%s`,
			models.TableNames.GroupMember,
			models.TableNames.GroupMember, models.GroupMemberColumns.GroupID,
			models.TableNames.StudyGroup, models.StudyGroupColumns.ID)),
		qm.Where(fmt.Sprintf(`"%s".%s = ?`, models.TableNames.GroupMember, models.GroupMemberColumns.UserID), userID),
		qm.Where(fmt.Sprintf(`"%s".%s != ?`, models.TableNames.GroupMember, models.GroupMemberColumns.Status), group.StatusRemoved),
		qm.OrderBy(fmt.Sprintf(`"%s".%s`, models.TableNames.StudyGroup, models.StudyGroupColumns.CreatedAt)),
	).All(ctx, repo.getExec(exec))
	if err != nil {
		return nil, errors.Wrap(err, "querying groups by user")
	}

	groups := make([]group.Group, 0, len(slice))
	for _, g := range slice {
		groups = append(groups, repo.unboilGroup(g))
	}
	return groups, nil
}

func (repo groupRepository) CreateGroupMember(ctx context.Context, mbr group.Member, exec ...core.DBExecutor) (group.Member, error) {
	mbr.ID = uuid.New().String()
	m := &models.GroupMember{
		ID:        mbr.ID,
		GroupID:   mbr.GroupID,
		UserID:    mbr.UserID,
		Role:      mbr.Role,
		Status:    mbr.Status,
		CreatedAt: mbr.CreatedAt.UTC(),
		UpdatedAt: mbr.UpdatedAt.UTC(),
	}
	if err := m.Insert(ctx, repo.getExec(exec)); err != nil {
		return group.Member{}, errors.Wrap(err, "inserting group member")
	}
	return repo.unboilMember(m), nil
}

func (repo groupRepository) GetGroupMember(ctx context.Context, groupID, userID string, exec ...core.DBExecutor) (group.Member, error) {
	m, err := models.GroupMembers(
		qm.Where(models.GroupMemberColumns.GroupID+" = ?", groupID),
		qm.Where(models.GroupMemberColumns.UserID+" = ?", userID),
	).One(ctx, repo.getExec(exec))
	if err != nil {
		return group.Member{}, trapNoRowsErr(err, group.ErrMemberNotFound, "finding group member")
	}
	return repo.unboilMember(m), nil
}

func (repo groupRepository) UpdateGroupMember(ctx context.Context, mbr group.Member, exec ...core.DBExecutor) (group.Member, error) {
	m := &models.GroupMember{
		ID:        mbr.ID,
		Role:      mbr.Role,
		Status:    mbr.Status,
		UpdatedAt: mbr.UpdatedAt.UTC(),
	}
	n, err := m.Update(ctx, repo.getExec(exec))
	if err != nil {
		return group.Member{}, errors.Wrap(err, "updating group member")
	}
	if n == 0 {
		return group.Member{}, group.ErrMemberNotFound
	}
	mbr.UpdatedAt = m.UpdatedAt
	return mbr, nil
}
