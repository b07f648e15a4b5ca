package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dhcpwatch/dhcpwatch/internal/config"
)

// AuthMiddleware handles optional bearer-token authentication. With no
// token configured every request passes.
type AuthMiddleware struct {
	token     string
	tokenHash string
	logger    *slog.Logger
}

// NewAuthMiddleware creates the auth middleware from the API config. When
// both a plaintext token and a hash are set, the hash wins.
func NewAuthMiddleware(cfg config.APIConfig, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		token:     cfg.AuthToken,
		tokenHash: cfg.AuthTokenHash,
		logger:    logger,
	}
}

// Enabled reports whether any credential is configured.
func (a *AuthMiddleware) Enabled() bool {
	return a.token != "" || a.tokenHash != ""
}

// RequireAuth wraps a handler to require a valid bearer token.
func (a *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	if !a.Enabled() {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.authenticate(r) {
			JSONError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next(w, r)
	}
}

func (a *AuthMiddleware) authenticate(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	presented := strings.TrimPrefix(header, "Bearer ")

	if a.tokenHash != "" {
		err := bcrypt.CompareHashAndPassword([]byte(a.tokenHash), []byte(presented))
		if err != nil {
			a.logger.Debug("rejected bearer token", "remote", r.RemoteAddr)
			return false
		}
		return true
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(a.token)) != 1 {
		a.logger.Debug("rejected bearer token", "remote", r.RemoteAddr)
		return false
	}
	return true
}
