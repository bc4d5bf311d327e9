package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/gameserver"
)

type worldApi struct {
	mines   *gameserver.MineService
	domains *gameserver.DomainService
}

func registerWorldAPI(g *echo.Group, svc *gameserver.Server) {
	api := worldApi{mines: svc.Mines, domains: svc.Domains}

	cg := g.Group("/players/:id/cells/:cell")
	cg.POST("/research", api.cellResearch)
	cg.POST("/reveal", api.cellReveal)
	cg.POST("/mine", api.mineBuild)
	cg.POST("/collect", api.mineCollect)
	cg.POST("/upgrade", api.mineUpgrade)

	dg := g.Group("/domains")
	dg.GET("", api.domainQuery)
	dg.GET("/:x/:y", api.domainInspect)
	dg.POST("/:x/:y/claim", api.domainClaim)
	dg.POST("/:x/:y/collect", api.domainCollect)
	dg.POST("/:x/:y/abandon", api.domainAbandon)
}

type mineYieldResponse struct {
	Player *game.Player         `json:"player"`
	Yield  gameserver.MineYield `json:"yield"`
}

type domainResponse struct {
	Domain    *game.OuterDomain `json:"domain,omitempty"`
	Player    *game.Player      `json:"player"`
	Collected int               `json:"collected"`
}

func (api *worldApi) cellResearch(c echo.Context) error {
	idx, err := cellParam(c)
	if err != nil {
		return err
	}
	p, err := api.mines.StartCellResearch(c.Request().Context(), c.Param("id"), idx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *worldApi) cellReveal(c echo.Context) error {
	idx, err := cellParam(c)
	if err != nil {
		return err
	}
	p, err := api.mines.CompleteCellResearch(c.Request().Context(), c.Param("id"), idx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *worldApi) mineBuild(c echo.Context) error {
	idx, err := cellParam(c)
	if err != nil {
		return err
	}
	p, err := api.mines.BuildMine(c.Request().Context(), c.Param("id"), idx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *worldApi) mineCollect(c echo.Context) error {
	idx, err := cellParam(c)
	if err != nil {
		return err
	}
	p, y, err := api.mines.CollectMine(c.Request().Context(), c.Param("id"), idx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mineYieldResponse{Player: p, Yield: y})
}

func (api *worldApi) mineUpgrade(c echo.Context) error {
	idx, err := cellParam(c)
	if err != nil {
		return err
	}
	p, err := api.mines.UpgradeMine(c.Request().Context(), c.Param("id"), idx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (api *worldApi) domainQuery(c echo.Context) error {
	domains, err := api.domains.ListDomains(c.Request().Context(), c.QueryParam("owner"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domains)
}

func coordinates(c echo.Context) (int, int, error) {
	x, err := intParam(c, "x")
	if err != nil {
		return 0, 0, err
	}
	y, err := intParam(c, "y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func (api *worldApi) domainInspect(c echo.Context) error {
	x, y, err := coordinates(c)
	if err != nil {
		return err
	}
	view, err := api.domains.Inspect(c.Request().Context(), x, y)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (api *worldApi) domainClaim(c echo.Context) error {
	playerID, err := actor(c)
	if err != nil {
		return err
	}
	x, y, err := coordinates(c)
	if err != nil {
		return err
	}
	d, p, err := api.domains.ClaimDomain(c.Request().Context(), playerID, x, y)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, domainResponse{Domain: d, Player: p})
}

func (api *worldApi) domainCollect(c echo.Context) error {
	playerID, err := actor(c)
	if err != nil {
		return err
	}
	x, y, err := coordinates(c)
	if err != nil {
		return err
	}
	d, p, amount, err := api.domains.CollectDomain(c.Request().Context(), playerID, x, y)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domainResponse{Domain: d, Player: p, Collected: amount})
}

func (api *worldApi) domainAbandon(c echo.Context) error {
	playerID, err := actor(c)
	if err != nil {
		return err
	}
	x, y, err := coordinates(c)
	if err != nil {
		return err
	}
	p, amount, err := api.domains.AbandonDomain(c.Request().Context(), playerID, x, y)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, domainResponse{Player: p, Collected: amount})
}
