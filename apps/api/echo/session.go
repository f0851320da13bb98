package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

type sessionApi struct {
	svc        session.Service
	validate   *validator.Validate
	subscriber Subscriber
}

func registerSessionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc session.Service,
	validate *validator.Validate,
	subscriber Subscriber,
) {
	api := sessionApi{svc: svc, validate: validate, subscriber: subscriber}

	// collection endpoints hang off the owning group
	gg := g.Group("/groups/:id/sessions", jwt)
	gg.POST("", api.create)
	gg.GET("", api.query)

	sg := g.Group("/sessions/:id", jwt)
	sg.GET("", api.retrieve)
	sg.POST("/start", api.start)
	sg.PUT("/status", api.updateStatus)
	sg.POST("/join", api.join)
	sg.POST("/leave", api.leave)
	sg.POST("/events", api.submitEvent)
	sg.GET("/events", api.queryEvents)
	sg.GET("/shared-cards", api.querySharedCards)
	sg.GET("/ws", api.subscribe)

	rg := sg.Group("/rounds/:index")
	rg.PUT("/prompt", api.updatePrompt)
	rg.POST("/advance", api.advanceRound)
}

func roundIndexParam(ctx echo.Context) (int, error) {
	idx, err := strconv.Atoi(ctx.Param("index"))
	if err != nil || idx < 1 {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "index", Error: "must be a positive integer"})
	}
	return idx, nil
}

// Handlers

func (api *sessionApi) create(ctx echo.Context) error {
	var data session.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sess, err := api.svc.Create(ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *sessionApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sessions, err := api.svc.QueryByGroup(ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sess, err := api.svc.GetByID(ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding session by ID")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) start(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sess, err := api.svc.Start(ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "starting session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) updateStatus(ctx echo.Context) error {
	var data session.UpdateSessionStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSessionStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sess, err := api.svc.UpdateStatus(ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating session status")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *sessionApi) join(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	mbr, err := api.svc.Join(ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "joining session")
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *sessionApi) leave(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	mbr, err := api.svc.Leave(ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "leaving session")
	}
	return ctx.JSON(http.StatusOK, mbr)
}

func (api *sessionApi) updatePrompt(ctx echo.Context) error {
	idx, err := roundIndexParam(ctx)
	if err != nil {
		return err
	}

	var data session.UpdatePrompt
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePrompt")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rnd, err := api.svc.UpdatePrompt(ctx.Param("id"), idx, claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating round prompt")
	}
	return ctx.JSON(http.StatusOK, rnd)
}

func (api *sessionApi) advanceRound(ctx echo.Context) error {
	idx, err := roundIndexParam(ctx)
	if err != nil {
		return err
	}

	var data session.AdvanceRound
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdvanceRound")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rnd, err := api.svc.AdvanceRound(ctx.Param("id"), idx, claims.Subject, data.Status)
	if err != nil {
		return errors.Wrap(err, "advancing round")
	}
	return ctx.JSON(http.StatusOK, rnd)
}

func (api *sessionApi) submitEvent(ctx echo.Context) error {
	var data session.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	evt, err := api.svc.SubmitEvent(ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "submitting event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

func (api *sessionApi) queryEvents(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var events []session.Event
	if raw := ctx.QueryParam("round"); raw != "" {
		idx, convErr := strconv.Atoi(raw)
		if convErr != nil || idx < 1 {
			return core.NewValidationError(nil, core.FieldError{Field: "round", Error: "must be a positive integer"})
		}
		events, err = api.svc.Events(ctx.Param("id"), claims.Subject, idx)
	} else {
		events, err = api.svc.Events(ctx.Param("id"), claims.Subject)
	}
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []session.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *sessionApi) querySharedCards(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	cards, err := api.svc.SharedCards(ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying shared cards")
	}
	if cards == nil {
		cards = []session.SharedCard{}
	}
	return ctx.JSON(http.StatusOK, cards)
}
