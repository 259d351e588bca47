// Package middlewares holds the authentication middleware shared by the API
// routes: bearer token verification plus extraction of the acting principal
// from token claims.
package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"

	"github.com/formmind/formmind/auth"
	"github.com/formmind/formmind/config"
	"github.com/formmind/formmind/model"
)

type contextKey string

const actorKey contextKey = "actor"

// Authenticated verifies the bearer token and resolves the acting principal
// from its claims. Requests without a valid token get a 401; tokens missing
// identity claims get a 403.
func Authenticated(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(cfg.TokenSecret, nil), withActor).Handler(next)
	}
}

func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(oauth.ClaimsContext).(map[string]string)
		if !ok {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		actor, ok := actorFromClaims(claims)
		if !ok {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFromClaims(claims map[string]string) (actor auth.Actor, ok bool) {
	userID, err := strconv.ParseInt(claims["user_id"], 10, 64)
	if err != nil {
		return auth.Actor{}, false
	}
	tenantID, err := strconv.ParseInt(claims["tenant_id"], 10, 64)
	if err != nil {
		return auth.Actor{}, false
	}
	role := model.Role(claims["role"])
	switch role {
	case model.RoleOwner, model.RoleAdmin, model.RoleEditor:
	default:
		return auth.Actor{}, false
	}
	return auth.Actor{UserID: userID, TenantID: tenantID, Role: role}, true
}

// MaybeAuthenticated resolves the actor when a bearer token is present but
// lets anonymous requests through untouched. Used on the public submission
// endpoints, where authenticated respondents are identified by user id and
// guests by IP.
func MaybeAuthenticated(cfg config.Config) func(http.Handler) http.Handler {
	authenticated := Authenticated(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if strings.HasPrefix(strings.ToLower(header), "bearer ") {
				authenticated(next).ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Actor returns the principal resolved by Authenticated, or ok=false on
// anonymous requests.
func Actor(r *http.Request) (auth.Actor, bool) {
	actor, ok := r.Context().Value(actorKey).(auth.Actor)
	return actor, ok
}
