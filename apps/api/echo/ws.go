package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Subscriber attaches an HTTP request to a live update channel, typically by
// upgrading it to a websocket.
type Subscriber interface {
	Subscribe(w http.ResponseWriter, r *http.Request, channel string) error
}

// subscribe upgrades the connection and streams the session's bus events.
// Membership is checked the same way as the detail endpoint before upgrading.
func (api *sessionApi) subscribe(ctx echo.Context) error {
	if api.subscriber == nil {
		return errHttpNotFound
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sess, err := api.svc.GetByID(ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding session by ID")
	}

	if err = api.subscriber.Subscribe(ctx.Response(), ctx.Request(), sess.ID); err != nil {
		return errors.Wrap(err, "subscribing to session updates")
	}
	return nil
}
