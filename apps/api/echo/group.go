package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/group"
)

type groupApi struct {
	svc      group.Service
	validate *validator.Validate
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc group.Service, validate *validator.Validate) {
	api := groupApi{svc: svc, validate: validate}

	gg := g.Group("/groups", jwt)
	gg.POST("", api.create)
	gg.GET("", api.query)

	dg := gg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.POST("/invite", api.invite)
	dg.POST("/accept-invite", api.acceptInvite)
	dg.DELETE("/members/:userID", api.removeMember)
}

// Handlers

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	grp, err := api.svc.Create(claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	groups, err := api.svc.QueryByUser(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// non-members get a 404, not a 403: the group's existence is not theirs to know
	if _, err = api.svc.RoleOf(ctx.Param("id"), claims.Subject); err != nil {
		if errors.Cause(err) == group.ErrMemberNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "checking membership")
	}

	grp, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding group by ID")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) invite(ctx echo.Context) error {
	var data group.InviteMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InviteMember")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	mbr, err := api.svc.InviteMember(ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "inviting member")
	}
	return ctx.JSON(http.StatusCreated, mbr)
}

func (api *groupApi) acceptInvite(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	mbr, err := api.svc.AcceptInvite(ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "accepting invite")
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *groupApi) removeMember(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err = api.svc.RemoveMember(ctx.Param("id"), claims.Subject, ctx.Param("userID")); err != nil {
		return errors.Wrap(err, "removing member")
	}
	return ctx.NoContent(http.StatusNoContent)
}
