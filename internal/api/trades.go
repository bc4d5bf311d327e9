package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/gameserver"
)

type tradeApi struct {
	service *gameserver.TradeService
}

func registerTradeAPI(g *echo.Group, svc *gameserver.TradeService) {
	api := tradeApi{service: svc}

	g.GET("/players/:id/trades", api.tradeQuery)

	tg := g.Group("/trades")
	tg.POST("", api.tradeCreate)
	tg.POST("/:id/accept", api.resolve(svc.AcceptTrade))
	tg.POST("/:id/reject", api.resolve(svc.RejectTrade))
	tg.POST("/:id/cancel", api.resolve(svc.CancelTrade))
}

func (api *tradeApi) tradeCreate(c echo.Context) error {
	from, err := actor(c)
	if err != nil {
		return err
	}
	data := new(gameserver.TradeOffer)
	if err := bind(c, data); err != nil {
		return err
	}
	t, err := api.service.CreateTrade(c.Request().Context(), from, *data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (api *tradeApi) tradeQuery(c echo.Context) error {
	trades, err := api.service.ListTrades(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trades)
}

// resolve adapts accept, reject and cancel, which share a signature
func (api *tradeApi) resolve(op func(ctx context.Context, tradeID, actorID string) (*game.Trade, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		playerID, err := actor(c)
		if err != nil {
			return err
		}
		t, err := op(c.Request().Context(), c.Param("id"), playerID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, t)
	}
}
