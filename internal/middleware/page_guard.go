package middleware

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/smartvest/smartvest/internal/service"
)

// TokenCookie is the access-token cookie checked by the page guard.
const TokenCookie = "token"

// PageGuard redirects unauthenticated browsers to the sign-up page. It is a
// pure policy gate: no state, validation is local token verification.
type PageGuard struct {
	jwtService *service.JWTService
	logger     *logrus.Logger
}

func NewPageGuard(jwtService *service.JWTService, logger *logrus.Logger) *PageGuard {
	return &PageGuard{
		jwtService: jwtService,
		logger:     logger,
	}
}

var exemptPrefixes = []string{"/api"}

var exemptPaths = map[string]bool{
	"/":            true,
	"/signup":      true,
	"/health":      true,
	"/favicon.ico": true,
}

func (g *PageGuard) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.exempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(TokenCookie)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/signup", http.StatusFound)
			return
		}

		claims, err := g.jwtService.VerifyToken(cookie.Value)
		if err != nil || claims.Type != "access" {
			g.logger.WithError(err).Debug("Page guard rejected token")
			g.clearCookie(w)
			http.Redirect(w, r, "/signup", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *PageGuard) exempt(path string) bool {
	if exemptPaths[path] {
		return true
	}
	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (g *PageGuard) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
