// Package boiledrepos implements the core repositories on Postgres via the
// sqlboiler runtime.
package boiledrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/sqlboiler/models"
)

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo userRepository) boil(usr user.User) *models.User {
	return &models.User{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     null.BoolFromPtr(usr.IsActive),
		Roles:        usr.Roles,
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unboil(usr *models.User) user.User {
	if usr == nil {
		return user.User{}
	}
	return user.User{
		ID:           usr.ID,
		Name:         usr.Name,
		Username:     usr.Username,
		Email:        usr.Email,
		IsActive:     usr.IsActive.Ptr(),
		Roles:        usr.Roles,
		PasswordHash: usr.PasswordHash.Bytes,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
		LastLogin:    usr.LastLogin.Time,
	}
}

func (repo userRepository) unboilSlice(slice models.UserSlice) []user.User {
	users := make([]user.User, 0, len(slice))
	for _, u := range slice {
		users = append(users, repo.unboil(u))
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to the domain's not-found error
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func idArgs(ids []string) []interface{} {
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	mods := []qm.QueryMod{
		qm.Expr(qm.Where(fmt.Sprintf("%s = ? OR %s = ?", models.UserColumns.Username, models.UserColumns.Email), username, email)),
	}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		mods = append(mods, qm.WhereNotIn(fmt.Sprintf("%s NOT IN ?", models.UserColumns.ID), idArgs(ids)...))
	}

	exists, err := models.Users(mods...).Exists(ctx, repo.getExec(exec))
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrUserExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	u := repo.boil(usr)
	if err := u.Insert(ctx, repo.getExec(exec)); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.unboil(u), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var mods []qm.QueryMod

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			mods = append(mods, qm.Expr(qm.Where(
				fmt.Sprintf(
					"%s ILIKE ? OR %s ILIKE ? OR %s ILIKE ?",
					models.UserColumns.Name, models.UserColumns.Username, models.UserColumns.Email),
				val, val, val)))
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleMods := make([]qm.QueryMod, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				roleMods = append(roleMods, qm.Or2(qm.Where(
					fmt.Sprintf(
						"%s IN (SELECT %s FROM \"%s\", UNNEST(%s) user_role WHERE user_role ILIKE ?)",
						models.UserColumns.ID, models.UserColumns.ID, models.TableNames.User, models.UserColumns.Roles), role+"%")))
			}
			mods = append(mods, qm.Expr(roleMods...))
		}
		if filter.IsActive != nil {
			mods = append(mods, qm.Where(models.UserColumns.IsActive+" = ?", *filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			mods = append(mods, qm.Where(models.UserColumns.CreatedAt+" >= ?", filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			mods = append(mods, qm.Where(models.UserColumns.CreatedAt+" <= ?", filter.CreatedTo.UTC()))
		}
	}

	if ordering != nil {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		mods = append(mods, qm.OrderBy(strings.Join(orderList, ", ")))
	}

	users, err := models.Users(mods...).All(ctx, repo.getExec(exec))
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.unboilSlice(users), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var usr *models.User
	var err error
	exe := repo.getExec(exec)

	if filter.ID != "" {
		if _, err = uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		usr, err = models.FindUser(ctx, exe, filter.ID)
		if err != nil {
			return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
		}
	} else {
		var mod qm.QueryMod

		if filter.Username != "" {
			mod = qm.Where(models.UserColumns.Username+" = ?", filter.Username)
		} else if filter.Email != "" {
			mod = qm.Where(models.UserColumns.Email+" = ?", filter.Email)
		} else if filter.UsernameOrEmail != nil {
			var email string
			uname := filter.UsernameOrEmail[0]
			if len(filter.UsernameOrEmail) == 2 {
				email = filter.UsernameOrEmail[1]
			}
			if email == "" {
				email = uname
			} else if uname == "" {
				uname = email
			}
			if email != "" && uname != "" {
				mod = qm.Where(fmt.Sprintf("%s = ? OR %s = ?", models.UserColumns.Username, models.UserColumns.Email), uname, email)
			}
		}

		usr, err = models.Users(mod).One(ctx, exe)
		if err != nil {
			return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
		}
	}

	return repo.unboil(usr), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	exe := repo.getExec(exec)

	// merge set fields over the stored row; callers send partial updates
	orig, err := models.FindUser(ctx, exe, usr.ID)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.IsActive != nil {
		orig.IsActive = null.BoolFromPtr(usr.IsActive)
	}
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = null.BytesFrom(usr.PasswordHash)
	}
	if !usr.LastLogin.IsZero() {
		orig.LastLogin = null.TimeFrom(usr.LastLogin.UTC())
	}
	if !usr.UpdatedAt.IsZero() {
		orig.UpdatedAt = usr.UpdatedAt.UTC()
	}

	if _, err = orig.Update(ctx, exe); err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return repo.unboil(orig), nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	cnt, err := models.Users(qm.WhereIn(fmt.Sprintf("%s IN ?", models.UserColumns.ID), idArgs(ids)...)).
		DeleteAll(ctx, repo.getExec(exec))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}
