package api

import (
	"bufio"
	"bytes"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/gameserver"
)

const (
	// IdempotencyHeader names the client-chosen key of a mutating request
	IdempotencyHeader = "Idempotency-Key"
	// ReplayHeader is set on responses served from the idempotency cache
	ReplayHeader = "Idempotent-Replayed"
)

// requestLogger writes one zerolog line per request
func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.Info()
			if v.Status >= http.StatusInternalServerError {
				event = logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("actor", c.Request().Header.Get(ActorHeader)).
				Msg("HTTP request")
			return nil
		},
	})
}

// idempotency replays the recorded response of a successful mutating
// request when the same actor repeats its Idempotency-Key on the same route.
// Concurrent repeats wait for the first one instead of running again.
// Failed requests are not recorded so that a retry can still succeed.
func idempotency(im *gameserver.IdempotencyManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			key := req.Header.Get(IdempotencyHeader)
			if key == "" || req.Method == http.MethodGet || req.Method == http.MethodHead {
				return next(c)
			}

			scope := req.Header.Get(ActorHeader) + " " + req.Method + " " + req.URL.Path
			cached, replayed, err := im.Do(scope, key, func() (*gameserver.CachedResponse, error) {
				rec := &bodyRecorder{ResponseWriter: c.Response().Writer}
				c.Response().Writer = rec
				if err := next(c); err != nil {
					return nil, err
				}
				res := c.Response()
				if res.Status < http.StatusOK || res.Status >= http.StatusMultipleChoices {
					return nil, nil
				}
				return &gameserver.CachedResponse{
					Status:      res.Status,
					ContentType: res.Header().Get(echo.HeaderContentType),
					Body:        rec.body.Bytes(),
				}, nil
			})
			if replayed {
				c.Response().Header().Set(ReplayHeader, "true")
				return c.Blob(cached.Status, cached.ContentType, cached.Body)
			}
			return err
		}
	}
}

// bodyRecorder tees the response body
type bodyRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *bodyRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(w.ResponseWriter).Hijack()
}
