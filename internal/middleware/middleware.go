package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"

	usertype "github.com/dangminhtuanan/storefront/internal/types/user"
	"github.com/dangminhtuanan/storefront/internal/user"
	"github.com/golang-jwt/jwt/v4"
)

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func GzipHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") == "gzip" {
			gzr, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(rw, "Failed to create gzip reader", http.StatusBadRequest)
				return
			}
			defer gzr.Close()
			r.Body = io.NopCloser(gzr)
		}

		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			rw.Header().Set("Content-Encoding", "gzip")
			gzw := gzip.NewWriter(rw)
			defer gzw.Close()

			gzrw := gzipResponseWriter{Writer: gzw, ResponseWriter: rw}
			next.ServeHTTP(gzrw, r)
		} else {
			next.ServeHTTP(rw, r)
		}
	})
}

type ctxKeyActor struct{}

func resolveActor(r *http.Request, secret []byte, repo user.UserRepository) (usertype.Actor, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return usertype.Actor{}, false
	}
	tokenStr := strings.TrimPrefix(auth, "Bearer ")

	claims := &user.Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return usertype.Actor{}, false
	}

	role, ok := usertype.ParseRole(claims.Role)
	if !ok {
		return usertype.Actor{}, false
	}

	u, err := repo.FindByLogin(r.Context(), claims.Subject)
	if err != nil {
		return usertype.Actor{}, false
	}
	return usertype.Actor{UserID: u.ID, Role: role}, true
}

// JWTMiddleware требует валидный токен и кладёт Actor в контекст.
func JWTMiddleware(secret []byte, repo user.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := resolveActor(r, secret, repo)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyActor{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalJWT — как JWTMiddleware, но без токена пропускает как гостя.
// Нужен для гостевого оформления заказа.
func OptionalJWT(secret []byte, repo user.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := resolveActor(r, secret, repo)
			if !ok {
				actor = usertype.Actor{Role: usertype.RoleCustomer, Guest: true}
			}
			ctx := context.WithValue(r.Context(), ctxKeyActor{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает только актора с ролью не ниже min.
func RequireRole(min usertype.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor.Guest || !actor.Role.AtLeast(min) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ActorFromContext(ctx context.Context) usertype.Actor {
	actor, _ := ctx.Value(ctxKeyActor{}).(usertype.Actor)
	return actor
}

func ContextWithActor(ctx context.Context, actor usertype.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor{}, actor)
}
