package api

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/eduland/eduland-server/internal/game/core"
)

type requestValidator struct {
	validate *validator.Validate
}

func newValidator() *requestValidator {
	v := validator.New()
	// field errors are keyed by the JSON name the client sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

// Validate implements echo.Validator
func (rv *requestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// bind decodes the body into data and validates it
func bind(c echo.Context, data interface{}) error {
	if err := c.Bind(data); err != nil {
		return err
	}
	return c.Validate(data)
}

// actor returns the acting player from the request header
func actor(c echo.Context) (string, error) {
	id := strings.TrimSpace(c.Request().Header.Get(ActorHeader))
	if id == "" {
		return "", errMissingActor
	}
	return id, nil
}

func intParam(c echo.Context, name string) (int, error) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, errBadNumber
	}
	return n, nil
}

func cellParam(c echo.Context) (core.CellIndex, error) {
	n, err := strconv.Atoi(c.Param("cell"))
	if err != nil {
		return 0, errBadCell
	}
	return core.CellIndex(n), nil
}
