// Package middleware provides HTTP middleware for the inbox API.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/seatea-inbox/internal/api/response"
	"github.com/welldanyogia/seatea-inbox/internal/logger"
)

// ContextKeyUserID is where JWTAuth stores the authenticated user id
const ContextKeyUserID = "user_id"

// TokenParser verifies a bearer token and returns the user id it carries
type TokenParser interface {
	Parse(token string) (uint, error)
}

// JWTAuth requires "Authorization: Bearer <jwt>" and stores the subject in the context.
func JWTAuth(tokens TokenParser, secLogger *logger.SecurityLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				if secLogger != nil {
					secLogger.AuthFailure(c.RealIP(), c.Path(), "missing_authorization")
				}
				return response.Unauthorized(c, "missing authorization header")
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				if secLogger != nil {
					secLogger.AuthFailure(c.RealIP(), c.Path(), "malformed_authorization")
				}
				return response.Unauthorized(c, "authorization header must be a bearer token")
			}

			userID, err := tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				if secLogger != nil {
					secLogger.TokenRejected(c.RealIP(), c.Path(), err.Error())
				}
				return response.Unauthorized(c, "invalid or expired token")
			}

			c.Set(ContextKeyUserID, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or 0 outside JWTAuth
func UserID(c echo.Context) uint {
	id, _ := c.Get(ContextKeyUserID).(uint)
	return id
}
