package actors

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alumnihub/alumnihub/internal/shared"
)

// Identify attaches the principal named by header to the request context.
// The header is set by the upstream identity provider. Requests with a
// missing, malformed or unknown id continue anonymously and are rejected by
// any route that requires a permission.
func (s *Service) Identify(header string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := s.Principal(r.Context(), id)
			if err != nil {
				if !errors.Is(err, ErrNotFound) && logger != nil {
					logger.Warn("identify actor", slog.Int64("actor_id", id), slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}
