package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/content"
)

type contentApi struct {
	svc      content.Service
	validate *validator.Validate
}

func registerContentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc content.Service, validate *validator.Validate) {
	api := contentApi{svc: svc, validate: validate}

	cg := g.Group("/contents", jwt)
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.DELETE("", api.destroyMultiple)
	cg.GET("/:id", api.retrieve)
}

// Handlers

func (api *contentApi) create(ctx echo.Context) error {
	var data content.NewContent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cnt, err := api.svc.Add(claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "adding content")
	}
	return ctx.JSON(http.StatusCreated, cnt)
}

func (api *contentApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	contents, err := api.svc.QueryOwned(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying contents")
	}
	if contents == nil {
		contents = []content.Content{}
	}
	return ctx.JSON(http.StatusOK, contents)
}

func (api *contentApi) retrieve(ctx echo.Context) error {
	cnt, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding content by ID")
	}
	return ctx.JSON(http.StatusOK, cnt)
}

func (api *contentApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Remove(query.IDs...); err != nil {
		return errors.Wrap(err, "removing contents")
	}
	return ctx.NoContent(http.StatusNoContent)
}
