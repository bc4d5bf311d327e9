// Package api exposes the game services over a JSON HTTP API and pushes
// player updates over WebSocket.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/gameserver"
	"github.com/eduland/eduland-server/internal/monitoring"
)

// ActorHeader carries the id of the player acting on a shared document
const ActorHeader = "X-Player-ID"

type (
	// Options configures the HTTP server
	Options struct {
		Address        string
		DisableReqLogs bool
		Game           *gameserver.Server
		// Hub serves /ws/players/:id when set
		Hub *Hub
		// Monitor serves /debug/runtime when set
		Monitor *monitoring.Monitor
		Logger  zerolog.Logger
	}

	// Server is the echo application
	Server struct {
		opts   Options
		app    *echo.Echo
		logger zerolog.Logger
	}
)

var _ http.Handler = (*Server)(nil)

// NewServer builds the echo application and registers every route
func NewServer(opts Options) *Server {
	s := &Server{
		opts:   opts,
		app:    echo.New(),
		logger: opts.Logger.With().Str("component", "http_api").Logger(),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(requestLogger(s.logger))
	}
	s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.logger.Error().Err(err).Bytes("stack", stack).Str("path", c.Path()).Msg("Handler panicked")
			return err
		},
	}))

	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.logger)
	s.app.Validator = newValidator()

	s.app.GET("/", home)

	v1 := s.app.Group("/v1", idempotency(s.opts.Game.Idempotency))

	registerPlayerAPI(v1, s.opts.Game)
	registerWorldAPI(v1, s.opts.Game)
	registerProgressAPI(v1, s.opts.Game)
	registerTradeAPI(v1, s.opts.Game.Trades)
	registerClassroomAPI(v1, s.opts.Game.Classroom)
	v1.GET("/catalog", func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.opts.Game.Catalog())
	})

	if s.opts.Hub != nil {
		s.app.GET("/ws/players/:id", s.playerStream)
	}
	if s.opts.Monitor != nil {
		s.app.GET("/debug/runtime", func(c echo.Context) error {
			return c.JSON(http.StatusOK, s.opts.Monitor.Metrics())
		})
	}
}

// playerStream opens the push channel of an existing player
func (s *Server) playerStream(c echo.Context) error {
	id := c.Param("id")
	if _, err := s.opts.Game.City.GetPlayer(c.Request().Context(), id); err != nil {
		return err
	}
	return s.opts.Hub.Serve(c.Response(), c.Request(), id)
}

// Start listens until Stop is called
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.opts.Address).Msg("HTTP API listening")
	if err := s.app.Start(s.opts.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the listener down and waits for in-flight requests
func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(c echo.Context) error {
	return c.String(http.StatusOK, "Eduland API")
}
