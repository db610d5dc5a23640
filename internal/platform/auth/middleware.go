package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Role identifies which side of the network a token acts for.
const (
	RoleDoctor  = "doctor"
	RoleClinic  = "clinic"
	RolePatient = "patient"
)

type contextKey string

const actorKey contextKey = "actor"

// Actor is the authenticated party making a request: a doctor, clinic or
// patient identified by its directory record.
type Actor struct {
	Role string
	ID   uuid.UUID
}

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type JWTConfig struct {
	Issuer     string
	SigningKey []byte
}

// JWTMiddleware validates HMAC-signed bearer tokens and binds the acting
// party into the request context. The token subject is the party's record id
// and the role claim names its side.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			opts := []jwt.ParserOption{
				jwt.WithValidMethods([]string{"HS256"}),
			}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}

			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			}, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			id, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}
			if !validRole(claims.Role) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token role")
			}

			ctx := context.WithValue(c.Request().Context(), actorKey, Actor{Role: claims.Role, ID: id})
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// DevAuthMiddleware identifies the acting party from X-Acting-Role and
// X-Acting-ID headers instead of a signed token. Development only.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := c.Request().Header.Get("X-Acting-Role")
			if role == "" {
				return next(c)
			}
			if !validRole(role) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid acting role")
			}
			id, err := uuid.Parse(c.Request().Header.Get("X-Acting-ID"))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid acting id")
			}

			ctx := context.WithValue(c.Request().Context(), actorKey, Actor{Role: role, ID: id})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func validRole(role string) bool {
	switch role {
	case RoleDoctor, RoleClinic, RolePatient:
		return true
	}
	return false
}

// ActorFromContext retrieves the acting party, if any, from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// WithActor binds an acting party into a context. Used by tests and the dev
// middleware.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}
