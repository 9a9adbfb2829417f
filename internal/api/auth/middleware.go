package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chatterfeed/pkg/models"
)

// ContextKey represents keys for context values
type ContextKey string

// UserContextKey is where middleware stores the authenticated user.
const UserContextKey ContextKey = "user"

// RequireAuth validates the Bearer token and stores the user in the request
// context. Requests without a valid token get a 401.
func RequireAuth(tokenService *TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			user, err := tokenService.ValidateAccessToken(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(string(UserContextKey), user)
			return next(c)
		}
	}
}

// OptionalAuth stores the user in context when a valid Bearer token is
// present and lets the request through anonymously otherwise. Feed endpoints
// use it so the same route serves both logged-in and logged-out readers.
func OptionalAuth(tokenService *TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return next(c)
			}

			user, err := tokenService.ValidateAccessToken(tokenString)
			if err == nil {
				c.Set(string(UserContextKey), user)
			}
			return next(c)
		}
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
	}

	return tokenParts[1], nil
}

// GetUser extracts user from echo context
func GetUser(c echo.Context) *models.User {
	userInterface := c.Get(string(UserContextKey))
	if userInterface == nil {
		return nil
	}
	return userInterface.(*models.User)
}
