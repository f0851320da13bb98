package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) members(groupID string) []group.Member {
	members := make([]group.Member, 0)
	for _, m := range repo.db.groupMembers {
		if m.GroupID == groupID {
			mbr := *m
			if usr, ok := repo.db.users[mbr.UserID]; ok {
				u := *usr
				mbr.User = &u
			}
			members = append(members, mbr)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members
}

func (repo *groupRepository) CreateGroup(_ context.Context, grp group.Group, _ ...core.DBExecutor) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	grp.ID = uuid.New().String()
	repo.db.groups[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) GetGroupByID(_ context.Context, id string, _ ...core.DBExecutor) (group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grp, ok := repo.db.groups[id]
	if !ok {
		return group.Group{}, group.ErrNotFound
	}
	res := *grp
	res.Members = repo.members(id)
	return res, nil
}

func (repo *groupRepository) QueryGroupsByUser(_ context.Context, userID string, _ ...core.DBExecutor) ([]group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	groups := make([]group.Group, 0)
	for _, m := range repo.db.groupMembers {
		if m.UserID == userID && m.Status != group.StatusRemoved {
			if grp, ok := repo.db.groups[m.GroupID]; ok {
				groups = append(groups, *grp)
			}
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt.Before(groups[j].CreatedAt) })
	return groups, nil
}

func (repo *groupRepository) CreateGroupMember(_ context.Context, mbr group.Member, _ ...core.DBExecutor) (group.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	mbr.ID = uuid.New().String()
	repo.db.groupMembers[mbr.ID] = &mbr
	return mbr, nil
}

func (repo *groupRepository) GetGroupMember(_ context.Context, groupID, userID string, _ ...core.DBExecutor) (group.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, m := range repo.db.groupMembers {
		if m.GroupID == groupID && m.UserID == userID {
			return *m, nil
		}
	}
	return group.Member{}, group.ErrMemberNotFound
}

func (repo *groupRepository) UpdateGroupMember(_ context.Context, mbr group.Member, _ ...core.DBExecutor) (group.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.groupMembers[mbr.ID]
	if !ok {
		return group.Member{}, group.ErrMemberNotFound
	}
	if mbr.Role != "" {
		orig.Role = mbr.Role
	}
	if mbr.Status != "" {
		orig.Status = mbr.Status
	}
	if !mbr.UpdatedAt.IsZero() {
		orig.UpdatedAt = mbr.UpdatedAt
	}
	return *orig, nil
}
