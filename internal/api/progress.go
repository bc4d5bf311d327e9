package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/gameserver"
)

// progressApi serves science, castle, missions and the season pass
type progressApi struct {
	science  *gameserver.ScienceService
	castle   *gameserver.CastleService
	missions *gameserver.MissionService
}

func registerProgressAPI(g *echo.Group, svc *gameserver.Server) {
	api := progressApi{science: svc.Science, castle: svc.Castle, missions: svc.Missions}

	dg := g.Group("/players/:id")
	dg.POST("/sciences/complete", api.researchComplete)
	dg.POST("/sciences/:s/start", api.researchStart)

	dg.POST("/castle/upgrade", api.castleUpgrade)
	dg.PUT("/castle/skin", api.castleSkin)

	dg.GET("/missions", api.missionQuery)
	dg.POST("/missions/rotate", api.missionRotate)
	dg.POST("/missions/:m/claim", api.missionClaim)
	dg.POST("/actions", api.actionReport)
	dg.POST("/season/:tier/claim", api.seasonClaim)
}

type skinChange struct {
	Skin string `json:"skin" validate:"required"`
}

type missionClaimResponse struct {
	Mission *game.PlayerMission `json:"mission"`
	Player  *game.Player        `json:"player"`
}

func (api *progressApi) researchStart(c echo.Context) error {
	p, err := api.science.StartResearch(c.Request().Context(), c.Param("id"), c.Param("s"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *progressApi) researchComplete(c echo.Context) error {
	p, err := api.science.CompleteResearch(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *progressApi) castleUpgrade(c echo.Context) error {
	p, err := api.castle.UpgradeCastle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *progressApi) castleSkin(c echo.Context) error {
	data := new(skinChange)
	if err := bind(c, data); err != nil {
		return err
	}
	p, err := api.castle.SetSkin(c.Request().Context(), c.Param("id"), data.Skin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *progressApi) missionQuery(c echo.Context) error {
	missions, err := api.missions.ListMissions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, missions)
}

func (api *progressApi) missionRotate(c echo.Context) error {
	missions, err := api.missions.RotateMissions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, missions)
}

func (api *progressApi) missionClaim(c echo.Context) error {
	m, p, err := api.missions.ClaimMission(c.Request().Context(), c.Param("id"), c.Param("m"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, missionClaimResponse{Mission: m, Player: p})
}

func (api *progressApi) actionReport(c echo.Context) error {
	data := new(catalog.ActionReport)
	if err := bind(c, data); err != nil {
		return err
	}
	changed, err := api.missions.ReportAction(c.Request().Context(), c.Param("id"), *data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, changed)
}

func (api *progressApi) seasonClaim(c echo.Context) error {
	tier, err := intParam(c, "tier")
	if err != nil {
		return err
	}
	p, err := api.missions.ClaimSeasonTier(c.Request().Context(), c.Param("id"), tier)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
