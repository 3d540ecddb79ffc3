package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/academic"
)

type academicApi struct{}

func registerAcademicAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	api := academicApi{}

	ag := g.Group("/academic", jwt)
	ag.GET("/current", api.current)
	ag.GET("/week-dates", api.weekDates)
}

// current reports where today falls in the academic calendar.
func (api *academicApi) current(ctx echo.Context) error {
	now := time.Now()
	conf := academic.ConfigFor(now)
	term := academic.CurrentTerm(now)

	return ctx.JSON(http.StatusOK, AcademicInfoResponse{
		AcademicYear:      conf.AcademicYear,
		AcademicYearLabel: conf.Label(),
		CurrentSemester:   term.Semester,
		CurrentWeek:       term.Week,
		IsVacation:        term.IsVacation,
		Semester1:         conf.Semester1,
		Semester2:         conf.Semester2,
	})
}

func (api *academicApi) weekDates(ctx echo.Context) error {
	semester, err := strconv.Atoi(ctx.QueryParam("semester"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "semester", Error: "semester must be an integer"})
	}
	week, err := strconv.Atoi(ctx.QueryParam("week"))
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "week", Error: "week must be an integer"})
	}

	dates, err := academic.WeekDatesFor(time.Now(), semester, week)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dates)
}

type AcademicInfoResponse struct {
	AcademicYear      int             `json:"academic_year"`
	AcademicYearLabel string          `json:"academic_year_label"`
	CurrentSemester   int             `json:"current_semester"`
	CurrentWeek       int             `json:"current_week"`
	IsVacation        bool            `json:"is_vacation"`
	Semester1         academic.Window `json:"semester1"`
	Semester2         academic.Window `json:"semester2"`
}
