package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/production"
	"github.com/eduland/eduland-server/internal/gameserver"
)

type playerApi struct {
	city    *gameserver.CityService
	science *gameserver.ScienceService
}

func registerPlayerAPI(g *echo.Group, svc *gameserver.Server) {
	api := playerApi{city: svc.City, science: svc.Science}

	pg := g.Group("/players")
	pg.POST("", api.playerCreate)
	pg.GET("", api.playerQuery)

	dg := pg.Group("/:id")
	dg.GET("", api.playerRetrieve)
	dg.POST("/touch", api.playerTouch)
	dg.POST("/production/collect", api.productionCollect)
	dg.GET("/effects", api.playerEffects)

	dg.POST("/buildings/:b/upgrade", api.buildingUpgrade)
	dg.POST("/build-queue/complete", api.buildQueueComplete)
	dg.POST("/buildings/:b/workers", api.workerAssign)
	dg.DELETE("/buildings/:b/workers", api.workerUnassign)
	dg.PUT("/buildings/:b/position", api.buildingPlace)
}

type accrualResponse struct {
	Player  *game.Player       `json:"player"`
	Accrual production.Accrual `json:"accrual"`
}

type placement struct {
	// Cell is nil to take the building off the map
	Cell *core.CellIndex `json:"cell"`
}

func (api *playerApi) playerCreate(c echo.Context) error {
	data := new(gameserver.NewPlayer)
	if err := bind(c, data); err != nil {
		return err
	}
	p, err := api.city.CreatePlayer(c.Request().Context(), *data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (api *playerApi) playerQuery(c echo.Context) error {
	players, err := api.city.ListPlayers(c.Request().Context(), c.QueryParam("group"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, players)
}

func (api *playerApi) playerRetrieve(c echo.Context) error {
	p, err := api.city.GetPlayer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *playerApi) playerTouch(c echo.Context) error {
	p, acc, err := api.city.Touch(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accrualResponse{Player: p, Accrual: acc})
}

func (api *playerApi) productionCollect(c echo.Context) error {
	p, acc, err := api.city.CollectProduction(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accrualResponse{Player: p, Accrual: acc})
}

func (api *playerApi) playerEffects(c echo.Context) error {
	bag, err := api.science.Effects(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bag)
}

func (api *playerApi) buildingUpgrade(c echo.Context) error {
	p, err := api.city.StartUpgrade(c.Request().Context(), c.Param("id"), c.Param("b"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *playerApi) buildQueueComplete(c echo.Context) error {
	p, err := api.city.CompleteUpgrade(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *playerApi) workerAssign(c echo.Context) error {
	p, err := api.city.AssignWorker(c.Request().Context(), c.Param("id"), c.Param("b"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *playerApi) workerUnassign(c echo.Context) error {
	p, err := api.city.UnassignWorker(c.Request().Context(), c.Param("id"), c.Param("b"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *playerApi) buildingPlace(c echo.Context) error {
	data := new(placement)
	if err := bind(c, data); err != nil {
		return err
	}
	p, err := api.city.PlaceBuilding(c.Request().Context(), c.Param("id"), c.Param("b"), data.Cell)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
