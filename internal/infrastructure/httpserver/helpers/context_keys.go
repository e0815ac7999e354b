package helpers

import (
	"github.com/labstack/echo/v4"
)

type ctxKey string

const keySubject ctxKey = "subject"

func SetSubject(c echo.Context, subject string) { c.Set(string(keySubject), subject) }

// GetSubjectRaw returns the token subject set by the JWT middleware.
func GetSubjectRaw(c echo.Context) (string, bool) {
	v, ok := c.Get(string(keySubject)).(string)
	return v, ok && v != ""
}
