package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/gameserver"
)

type classroomApi struct {
	service *gameserver.ClassroomService
}

func registerClassroomAPI(g *echo.Group, svc *gameserver.ClassroomService) {
	api := classroomApi{service: svc}

	tg := g.Group("/tasks")
	tg.POST("", api.taskCreate)
	tg.GET("", api.taskQuery)
	tg.POST("/:id/deactivate", api.taskDeactivate)
	tg.POST("/:id/submissions", api.taskSubmit)
	tg.GET("/:id/submissions", api.submissionQuery)
	g.POST("/submissions/:id/review", api.submissionReview)

	g.POST("/messages", api.messageSend)
	g.POST("/messages/:id/read", api.messageRead)
	g.GET("/players/:id/inbox", api.inbox)

	sg := g.Group("/surveys")
	sg.POST("", api.surveyCreate)
	sg.GET("", api.surveyQuery)
	sg.POST("/:id/responses", api.surveyRespond)
}

type answer struct {
	Answer string `json:"answer" validate:"required"`
}

type surveyAnswers struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

type surveyResponse struct {
	Response *game.SurveyResponse `json:"response"`
	Player   *game.Player         `json:"player"`
}

func (api *classroomApi) taskCreate(c echo.Context) error {
	teacherID, err := actor(c)
	if err != nil {
		return err
	}
	data := new(gameserver.NewTask)
	if err := bind(c, data); err != nil {
		return err
	}
	t, err := api.service.CreateTask(c.Request().Context(), teacherID, *data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (api *classroomApi) taskQuery(c echo.Context) error {
	tasks, err := api.service.ListTasks(c.Request().Context(), c.QueryParam("group"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

func (api *classroomApi) taskDeactivate(c echo.Context) error {
	t, err := api.service.DeactivateTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (api *classroomApi) taskSubmit(c echo.Context) error {
	playerID, err := actor(c)
	if err != nil {
		return err
	}
	data := new(answer)
	if err := bind(c, data); err != nil {
		return err
	}
	sub, err := api.service.Submit(c.Request().Context(), playerID, c.Param("id"), data.Answer)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}

func (api *classroomApi) submissionQuery(c echo.Context) error {
	subs, err := api.service.Submissions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, subs)
}

func (api *classroomApi) submissionReview(c echo.Context) error {
	data := new(gameserver.Review)
	if err := bind(c, data); err != nil {
		return err
	}
	sub, err := api.service.ReviewSubmission(c.Request().Context(), c.Param("id"), *data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

// messageSend delivers to one player, or to a whole group when no
// recipient is named
func (api *classroomApi) messageSend(c echo.Context) error {
	from, err := actor(c)
	if err != nil {
		return err
	}
	data := new(gameserver.NewMessage)
	if err := bind(c, data); err != nil {
		return err
	}

	if data.To == "" && data.Group != "" {
		msgs, err := api.service.SendToGroup(c.Request().Context(), from, *data)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, msgs)
	}
	msg, err := api.service.SendMessage(c.Request().Context(), from, *data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

func (api *classroomApi) messageRead(c echo.Context) error {
	playerID, err := actor(c)
	if err != nil {
		return err
	}
	msg, err := api.service.MarkRead(c.Request().Context(), c.Param("id"), playerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

func (api *classroomApi) inbox(c echo.Context) error {
	msgs, err := api.service.Inbox(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

func (api *classroomApi) surveyCreate(c echo.Context) error {
	data := new(gameserver.NewSurvey)
	if err := bind(c, data); err != nil {
		return err
	}
	sv, err := api.service.CreateSurvey(c.Request().Context(), *data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sv)
}

func (api *classroomApi) surveyQuery(c echo.Context) error {
	surveys, err := api.service.ActiveSurveys(c.Request().Context(), c.QueryParam("group"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, surveys)
}

func (api *classroomApi) surveyRespond(c echo.Context) error {
	playerID, err := actor(c)
	if err != nil {
		return err
	}
	data := new(surveyAnswers)
	if err := bind(c, data); err != nil {
		return err
	}
	resp, p, err := api.service.RespondSurvey(c.Request().Context(), playerID, c.Param("id"), data.Answers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, surveyResponse{Response: resp, Player: p})
}
