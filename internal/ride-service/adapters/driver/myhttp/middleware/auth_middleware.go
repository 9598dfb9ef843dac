package middleware

import (
	"errors"
	"net/http"

	"travelo/internal/ride-service/adapters/driver/myhttp/handle"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
)

// TokenParser turns a bearer token into the authenticated caller.
type TokenParser interface {
	ParseToken(token string) (model.Caller, error)
}

type AuthMiddleware struct {
	tokens TokenParser
}

func NewAuthMiddleware(tokens TokenParser) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
	}
}

func (am *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			handle.JsonError(w, http.StatusUnauthorized, errors.New("missing authorization token"))
			return
		}

		caller, err := am.tokens.ParseToken(tokenString)
		if err != nil {
			handle.JsonError(w, http.StatusUnauthorized, errors.New(myerrors.Public(err)))
			return
		}

		next.ServeHTTP(w, r.WithContext(model.ContextWithCaller(r.Context(), caller)))
	})
}
