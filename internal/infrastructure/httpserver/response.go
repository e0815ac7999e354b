package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/avatarctic/ledger/internal/core/domain/asset"
	"github.com/avatarctic/ledger/internal/core/domain/ledger"
)

// envelope is the body shape the mini-program client expects for every JSON response.
type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, envelope{Code: http.StatusOK, Msg: "success", Data: data})
}

type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{v: validator.New()}
}

func (rv *requestValidator) Validate(i interface{}) error {
	if err := rv.v.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s: failed %s", fe.Field(), fe.Tag()))
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// handleError renders every error in the envelope format.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
		if he.Internal != nil && s.logger != nil {
			s.logger.WithError(he.Internal).WithField("path", c.Path()).Debug("internal error detail")
		}
	} else if s.logger != nil {
		s.logger.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, envelope{Code: code, Msg: msg, Data: nil})
	}
	if werr != nil && s.logger != nil {
		s.logger.WithError(werr).Error("failed to write error response")
	}
}

// serviceError maps domain errors onto HTTP errors. fallback is used for
// anything unrecognised, e.g. 502 for upstream AI failures.
func (s *Server) serviceError(err error, fallback int, action string) error {
	switch {
	case errors.Is(err, asset.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, ledger.ErrAccountNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ledger.ErrAccountNotFound.Error())
	case errors.Is(err, asset.ErrEmptyPayload):
		return echo.NewHTTPError(http.StatusBadRequest, asset.ErrEmptyPayload.Error())
	case errors.Is(err, asset.ErrStorageUnavailable), errors.Is(err, asset.ErrAIUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, rootMessage(err))
	case errors.Is(err, asset.ErrUpstreamBusy):
		return echo.NewHTTPError(http.StatusServiceUnavailable, action+": upstream service busy")
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, action+": timed out")
	}
	if s.logger != nil {
		s.logger.WithError(err).WithField("action", action).Error("request failed")
	}
	msg := action
	if fallback != http.StatusInternalServerError {
		msg = action + ": " + err.Error()
	}
	return echo.NewHTTPError(fallback, msg).SetInternal(err)
}

func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
