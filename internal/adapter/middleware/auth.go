package middleware

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

const callerKey = "cdp.caller"

// TokenParser resolves a bearer token to the caller's account.
type TokenParser interface {
	Parse(token string) (common.Address, error)
}

// JWTAuth requires "Authorization: Bearer <jwt>" and stores the caller in the
// echo context.
func JWTAuth(p TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, ok := strings.Cut(strings.TrimSpace(raw), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"code": "unauthorized", "error": "missing bearer token"})
			}
			caller, err := p.Parse(strings.TrimSpace(token))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"code": "unauthorized", "error": "invalid token"})
			}
			SetCaller(c, caller)
			return next(c)
		}
	}
}

func SetCaller(c echo.Context, caller common.Address) { c.Set(callerKey, caller) }

// CallerFrom returns the authenticated caller, if any.
func CallerFrom(c echo.Context) (common.Address, bool) {
	v, ok := c.Get(callerKey).(common.Address)
	return v, ok
}
