package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/schedule"
	"github.com/kayembi/ratiba/core/user"
)

type scheduleApi struct {
	svc    schedule.Service
	usrSvc user.Service
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := scheduleApi{
		svc:    deps.ScheduleSvc,
		usrSvc: deps.UserSvc,
	}

	sg := g.Group("/schedule", jwt)
	sg.GET("/users/:id/date/:date", api.resolve, selfOrAdminMiddleware(api.usrSvc))
}

// resolve returns the effective schedule of a user on a date, with calendar
// events already applied.
func (api *scheduleApi) resolve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	date, err := core.ParseDate(ctx.Param("date"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be in YYYY-MM-DD format"})
	}

	sched, err := api.svc.Resolve(ctx.Request().Context(), usr.ID, date)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sched)
}
