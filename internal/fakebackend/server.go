package fakebackend

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tourneyhub/tourney-client/infrastructure/http/handler"
	"github.com/tourneyhub/tourney-client/infrastructure/http/middleware"
	"github.com/tourneyhub/tourney-client/infrastructure/http/response"
)

type RouterOptions struct {
	// AllowUserIDHeader admits X-User-Id naming an admin on /admin routes.
	AllowUserIDHeader bool
}

// Router mounts the /auth, /tournaments and /admin routes over b.
func (b *Backend) Router(opts RouterOptions) http.Handler {
	var admins middleware.AdminDirectory
	if opts.AllowUserIDHeader {
		admins = b
	}
	auth := middleware.NewAuthMiddleware(b, admins)

	r := mux.NewRouter()
	handler.NewAuthHandler(b).RegisterRoutes(r, auth)
	handler.NewTournamentHandler(b).RegisterRoutes(r, auth)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return middleware.CorrelationIDMiddleware(middleware.RequestLogger(b.log)(r))
}
