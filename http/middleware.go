package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sagarc03/soundmap"
)

// TokenVerifier validates a raw bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*soundmap.Claims, error)
}

type claimsKey struct{}

// ClaimsFromContext returns the claims stored by ValidateCredential.
func ClaimsFromContext(ctx context.Context) (*soundmap.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*soundmap.Claims)
	return claims, ok
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *soundmap.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// ValidateCredential creates middleware that requires a valid bearer token.
// A missing token yields 401 "Requires authentication", an invalid one 401
// "Bad credentials". A nil verifier rejects every request.
func ValidateCredential(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				HandleError(w, fmt.Errorf("validate credential: %w", ErrMissingCredential), "")
				return
			}

			if verifier == nil {
				HandleError(w, fmt.Errorf("validate credential: no verifier configured: %w", soundmap.ErrUnauthenticated), "")
				return
			}

			claims, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				HandleError(w, err, "")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireScopes creates middleware that requires every listed scope on the
// claims stored by ValidateCredential.
func RequireScopes(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				HandleError(w, fmt.Errorf("require scopes: %w", ErrMissingCredential), "")
				return
			}

			if !claims.HasScopes(scopes...) {
				HandleError(w, fmt.Errorf("require scopes %v: subject %q: %w", scopes, claims.Subject, soundmap.ErrForbidden), "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request once the response is written.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			slog.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote_ip", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// Recoverer turns a panic into a 500 JSON response and logs the stack.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
				panic(rec)
			}

			slog.Error("panic serving request",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			WriteError(w, http.StatusInternalServerError, MsgInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
