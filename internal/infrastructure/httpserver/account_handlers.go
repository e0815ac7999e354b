package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/ledger/internal/core/domain/ledger"
	"github.com/avatarctic/ledger/internal/infrastructure/httpserver/helpers"
)

const maxPageSize = 500

func (s *Server) bindFilter(c echo.Context) (*ledger.AccountFilter, error) {
	var f ledger.AccountFilter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	for _, d := range []string{f.StartDate, f.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(ledger.DateLayout, d); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "dates must use YYYY-MM-DD")
		}
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "limit and offset must not be negative")
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	return &f, nil
}

// listAccounts returns the matching records newest first. The total is
// reported in X-Total-Count so the data field stays a plain array.
func (s *Server) listAccounts(c echo.Context) error {
	f, err := s.bindFilter(c)
	if err != nil {
		return err
	}
	accounts, total, err := s.accountSvc.ListAccounts(c.Request().Context(), f)
	if err != nil {
		return s.serviceError(err, http.StatusInternalServerError, "failed to list accounts")
	}
	c.Response().Header().Set("X-Total-Count", strconv.Itoa(total))
	return success(c, accounts)
}

func (s *Server) summarizeAccounts(c echo.Context) error {
	f, err := s.bindFilter(c)
	if err != nil {
		return err
	}
	sum, err := s.accountSvc.Summarize(c.Request().Context(), f)
	if err != nil {
		return s.serviceError(err, http.StatusInternalServerError, "failed to summarize accounts")
	}
	return success(c, sum)
}

func (s *Server) exportAccounts(c echo.Context) error {
	f, err := s.bindFilter(c)
	if err != nil {
		return err
	}
	file, err := s.accountSvc.ExportAccounts(c.Request().Context(), f)
	if err != nil {
		return s.serviceError(err, http.StatusInternalServerError, "failed to export accounts")
	}
	name := fmt.Sprintf("ledger-%s%s", time.Now().Format("20060102"), file.Extension)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}

func (s *Server) getAccount(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	a, err := s.accountSvc.GetAccount(c.Request().Context(), id)
	if err != nil {
		return s.serviceError(err, http.StatusInternalServerError, "failed to get account")
	}
	return success(c, a)
}

func (s *Server) createAccount(c echo.Context) error {
	var req ledger.CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	a, err := s.accountSvc.CreateAccount(c.Request().Context(), &req)
	if err != nil {
		return s.serviceError(err, http.StatusInternalServerError, "failed to create account")
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"account_id": a.ID, "subject": helpers.GetSubject(c)}).Debug("account created via api")
	}
	return success(c, a)
}

func (s *Server) batchCreateAccounts(c echo.Context) error {
	var req ledger.BatchCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	res, err := s.accountSvc.BatchCreateAccounts(c.Request().Context(), req.Accounts)
	if err != nil {
		return s.serviceError(err, http.StatusInternalServerError, "failed to create accounts")
	}
	return success(c, res)
}

func (s *Server) updateAccount(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req ledger.UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	a, err := s.accountSvc.UpdateAccount(c.Request().Context(), id, &req)
	if err != nil {
		return s.serviceError(err, http.StatusInternalServerError, "failed to update account")
	}
	return success(c, a)
}

func (s *Server) deleteAccount(c echo.Context) error {
	id, err := helpers.ParseIDParam(c, "id")
	if err != nil {
		return err
	}
	if err := s.accountSvc.DeleteAccount(c.Request().Context(), id); err != nil {
		return s.serviceError(err, http.StatusInternalServerError, "failed to delete account")
	}
	return success(c, nil)
}
