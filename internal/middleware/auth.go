package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/blogservice/internal/auth"
	"github.com/2beens/blogservice/internal/telemetry/tracing"
	"github.com/2beens/blogservice/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type identityVerifier interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
}

// AuthMiddlewareHandler guards the mutating requests under protectedPrefix.
// Reads are public.
type AuthMiddlewareHandler struct {
	verifier        identityVerifier
	protectedPrefix string
}

func NewAuthMiddlewareHandler(
	verifier identityVerifier,
	protectedPrefix string,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		verifier:        verifier,
		protectedPrefix: protectedPrefix,
	}
}

func (h *AuthMiddlewareHandler) isProtected(r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return false
	}
	return r.URL.Path == h.protectedPrefix || strings.HasPrefix(r.URL.Path, h.protectedPrefix+"/")
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if !h.isProtected(r) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			token, err := auth.BearerToken(r)
			if err != nil {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				pkg.WriteMessage(w, "Unauthorized", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			identity, err := h.verifier.Verify(ctx, token)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
					span.SetStatus(codes.Error, "invalid-token")
				} else {
					log.Errorf("[failed token check] => %s: %s", r.URL.Path, err)
					span.SetStatus(codes.Error, "verify-token-err")
					span.RecordError(err)
				}
				pkg.WriteMessage(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}
