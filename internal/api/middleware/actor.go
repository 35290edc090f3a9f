package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/securedoc/account-service/internal/core/domain"
)

// ActorKey is the echo.Context key holding the resolved domain.ActorID.
const ActorKey = "actor"

var errMissingSubject = errors.New("token has no subject")

// Actor resolves who is acting for each request and places it in the
// request context. A bearer token signed with jwtSecret contributes its
// subject; requests without one act as anonymous. Any actor left in the
// incoming context is cleared first, and the original request is put back
// once the chain returns.
func Actor(jwtSecret string, anonymous domain.ActorID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			original := c.Request()
			defer c.SetRequest(original)

			ctx := domain.ClearActor(original.Context())

			actor := anonymous
			if authHeader := original.Header.Get("Authorization"); authHeader != "" {
				sub, err := bearerSubject(authHeader, jwtSecret)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				actor = domain.ActorID(sub)
			}

			c.Set(ActorKey, actor)
			c.SetRequest(original.WithContext(domain.WithActor(ctx, actor)))
			return next(c)
		}
	}
}

func bearerSubject(authHeader, jwtSecret string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("invalid authorization header")
	}
	if jwtSecret == "" {
		return "", errors.New("bearer tokens are not accepted")
	}

	claims := jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], &claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !tkn.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}
