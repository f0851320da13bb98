package group

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("group not found")
	ErrMemberNotFound  = errors.New("group member not found")
	ErrAlreadyMember   = errors.New("user is already a member of this group")
	ErrNotInvited      = errors.New("user has not been invited to this group")
	ErrLastOwner       = errors.New("a group must keep at least one owner")
	errNotActiveMember = "not an active member of this group"
	errMemberForbidden = "only group owners and moderators may do this"
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, grp Group, exec ...core.DBExecutor) (Group, error)
		// GetGroupByID loads the group with its members and their users.
		GetGroupByID(ctx context.Context, id string, exec ...core.DBExecutor) (Group, error)
		QueryGroupsByUser(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Group, error)
		CreateGroupMember(ctx context.Context, mbr Member, exec ...core.DBExecutor) (Member, error)
		GetGroupMember(ctx context.Context, groupID, userID string, exec ...core.DBExecutor) (Member, error)
		UpdateGroupMember(ctx context.Context, mbr Member, exec ...core.DBExecutor) (Member, error)
	}

	Service interface {
		Create(creatorID string, ng NewGroup) (Group, error)
		GetByID(id string) (Group, error)
		QueryByUser(userID string) ([]Group, error)
		InviteMember(groupID, inviterID string, im InviteMember) (Member, error)
		AcceptInvite(groupID, userID string) (Member, error)
		RemoveMember(groupID, removerID, userID string) error

		// Membership authority; gates for the session engine.
		AssertActiveMember(groupID, userID string) error
		ActiveMembers(groupID string) ([]Member, error)
		RoleOf(groupID, userID string) (string, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrSvc user.Service, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		db:      db,
		repo:    repo,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) Create(creatorID string, ng NewGroup) (Group, error) {
	ctx := context.Background()
	now := time.Now().UTC()

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Group{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	grp, err := svc.repo.CreateGroup(ctx, Group{
		Name:        ng.Name,
		Description: ng.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, tx)
	if err != nil {
		return Group{}, errors.Wrap(err, "creating group")
	}

	// the creator is the first OWNER
	mbr, err := svc.repo.CreateGroupMember(ctx, Member{
		GroupID:   grp.ID,
		UserID:    creatorID,
		Role:      RoleOwner,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, tx)
	if err != nil {
		return Group{}, errors.Wrap(err, "creating owner membership")
	}

	if err = tx.Commit(); err != nil {
		return Group{}, errors.Wrap(err, "committing transaction")
	}

	grp.Members = []Member{mbr}
	return grp, nil
}

func (svc *service) GetByID(id string) (Group, error) {
	return svc.repo.GetGroupByID(context.Background(), id)
}

func (svc *service) QueryByUser(userID string) ([]Group, error) {
	return svc.repo.QueryGroupsByUser(context.Background(), userID)
}

func (svc *service) InviteMember(groupID, inviterID string, im InviteMember) (Member, error) {
	ctx := context.Background()

	if err := svc.assertOwnerOrMod(ctx, groupID, inviterID); err != nil {
		return Member{}, err
	}

	invitee, err := svc.usrSvc.GetByEmail(im.Email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Member{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: "no user with this email"})
		}
		return Member{}, errors.Wrap(err, "finding invitee")
	}

	if mbr, err := svc.repo.GetGroupMember(ctx, groupID, invitee.ID); err == nil {
		if mbr.Status == StatusRemoved {
			// re-invite a previously removed member
			mbr.Status = StatusInvited
			mbr.Role = im.Role
			mbr.UpdatedAt = time.Now().UTC()
			mbr, err = svc.repo.UpdateGroupMember(ctx, mbr)
			if err != nil {
				return Member{}, errors.Wrap(err, "updating membership")
			}
			svc.sendInviteMail(groupID, invitee)
			return mbr, nil
		}
		return Member{}, core.NewValidationError(ErrAlreadyMember)
	} else if errors.Cause(err) != ErrMemberNotFound {
		return Member{}, errors.Wrap(err, "finding membership")
	}

	now := time.Now().UTC()
	mbr, err := svc.repo.CreateGroupMember(ctx, Member{
		GroupID:   groupID,
		UserID:    invitee.ID,
		Role:      im.Role,
		Status:    StatusInvited,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Member{}, errors.Wrap(err, "creating membership")
	}
	svc.sendInviteMail(groupID, invitee)
	return mbr, nil
}

func (svc *service) sendInviteMail(groupID string, invitee user.User) {
	grp, err := svc.GetByID(groupID)
	if err != nil {
		return
	}
	go svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: invitee.Name, Address: invitee.Email}},
		Subject:      fmt.Sprintf("%s - You have been invited to join %q", svc.conf.AppName, grp.Name),
		TemplateName: "group-invite",
		TemplateData: struct {
			User  user.User
			Group Group
		}{invitee, grp},
	})
}

func (svc *service) AcceptInvite(groupID, userID string) (Member, error) {
	ctx := context.Background()

	mbr, err := svc.repo.GetGroupMember(ctx, groupID, userID)
	if err != nil {
		return Member{}, err
	}
	if mbr.Status != StatusInvited {
		return Member{}, core.NewValidationError(ErrNotInvited)
	}
	mbr.Status = StatusActive
	mbr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGroupMember(ctx, mbr)
}

func (svc *service) RemoveMember(groupID, removerID, userID string) error {
	ctx := context.Background()

	// members may leave on their own; removing someone else takes OWNER/MOD
	if removerID != userID {
		if err := svc.assertOwnerOrMod(ctx, groupID, removerID); err != nil {
			return err
		}
	}

	mbr, err := svc.repo.GetGroupMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if mbr.Status == StatusRemoved {
		return nil
	}

	if mbr.Role == RoleOwner {
		owners, err := svc.countActiveOwners(ctx, groupID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return core.NewValidationError(ErrLastOwner)
		}
	}

	mbr.Status = StatusRemoved
	mbr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateGroupMember(ctx, mbr)
	return err
}

func (svc *service) countActiveOwners(ctx context.Context, groupID string) (int, error) {
	grp, err := svc.repo.GetGroupByID(ctx, groupID)
	if err != nil {
		return 0, err
	}
	var owners int
	for _, m := range grp.ActiveMembers() {
		if m.Role == RoleOwner {
			owners++
		}
	}
	return owners, nil
}

func (svc *service) assertOwnerOrMod(ctx context.Context, groupID, userID string) error {
	mbr, err := svc.repo.GetGroupMember(ctx, groupID, userID)
	if err != nil {
		if errors.Cause(err) == ErrMemberNotFound {
			return core.NewPermissionError(errNotActiveMember)
		}
		return err
	}
	if mbr.Status != StatusActive {
		return core.NewPermissionError(errNotActiveMember)
	}
	if !(mbr.Role == RoleOwner || mbr.Role == RoleMod) {
		return core.NewPermissionError(errMemberForbidden)
	}
	return nil
}

func (svc *service) AssertActiveMember(groupID, userID string) error {
	mbr, err := svc.repo.GetGroupMember(context.Background(), groupID, userID)
	if err != nil {
		if errors.Cause(err) == ErrMemberNotFound {
			return core.NewPermissionError(errNotActiveMember)
		}
		return err
	}
	if mbr.Status != StatusActive {
		return core.NewPermissionError(errNotActiveMember)
	}
	return nil
}

func (svc *service) ActiveMembers(groupID string) ([]Member, error) {
	grp, err := svc.repo.GetGroupByID(context.Background(), groupID)
	if err != nil {
		return nil, err
	}
	return grp.ActiveMembers(), nil
}

func (svc *service) RoleOf(groupID, userID string) (string, error) {
	mbr, err := svc.repo.GetGroupMember(context.Background(), groupID, userID)
	if err != nil {
		return "", err
	}
	if mbr.Status != StatusActive {
		return "", ErrMemberNotFound
	}
	return mbr.Role, nil
}
