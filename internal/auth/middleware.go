package auth

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bidwatch/bid-api/internal/config"
	"github.com/bidwatch/bid-api/internal/domain"
)

// Identity headers set by the trusted gateway in front of this service.
// The gateway terminates the session and asserts who the caller is; this
// service never sees credentials.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUsername = "X-User-Name"
	HeaderUserRole = "X-User-Role"
	HeaderAPIKey   = "x-api-key"
)

// Middleware handles caller identity for HTTP requests
type Middleware struct {
	apiKey string
	logger *zap.Logger
}

// NewMiddleware creates a new identity middleware
func NewMiddleware(cfg *config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{
		apiKey: cfg.ApiKey.Value,
		logger: logger,
	}
}

// Authenticate resolves the caller identity from gateway headers or an API
// key. Requests without either are rejected.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Service-to-service calls use the shared API key and act as system
		if apiKey := r.Header.Get(HeaderAPIKey); apiKey != "" {
			if !m.validateAPIKey(apiKey) {
				m.logger.Warn("invalid API key attempt",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userCtx := &UserContext{
				Username: "system",
				Role:     domain.RoleAdmin,
			}
			ctx := WithUserContext(r.Context(), userCtx)

			m.logger.Info("request authenticated",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("auth_type", "api_key"),
				zap.Duration("auth_duration", time.Since(start)),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		username := r.Header.Get(HeaderUsername)
		if username == "" {
			http.Error(w, "Unauthorized: missing identity headers", http.StatusUnauthorized)
			return
		}

		role := domain.UserRole(r.Header.Get(HeaderUserRole))
		if !role.IsValid() {
			role = domain.RoleSalesperson
		}

		userCtx := &UserContext{
			Username: username,
			Role:     role,
		}
		if rawID := r.Header.Get(HeaderUserID); rawID != "" {
			if id, err := strconv.ParseInt(rawID, 10, 64); err == nil {
				userCtx.UserID = id
			}
		}

		m.logger.Info("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("auth_type", "gateway"),
			zap.String("username", userCtx.Username),
			zap.String("role", string(userCtx.Role)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		ctx := WithUserContext(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole middleware ensures user has one of the specified roles
func (m *Middleware) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Forbidden: no user context", http.StatusForbidden)
				return
			}

			if !userCtx.HasAnyRole(roles...) {
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin middleware ensures user has the admin role
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "Forbidden: no user context", http.StatusForbidden)
			return
		}

		if !userCtx.IsAdmin() {
			http.Error(w, "Forbidden: admin access required", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	// Constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}
