package bootstrap

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"NovaTalkAPI/internal/config"
	"NovaTalkAPI/internal/controller"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/middleware"
	"NovaTalkAPI/internal/service"
)

type Route struct {
	cfg          *config.AppConfig
	chi          *chi.Mux
	authService  *service.AuthService
	wsController *controller.WebSocketController
}

func NewRoute(cfg *config.AppConfig, chiMux *chi.Mux, authService *service.AuthService, wsController *controller.WebSocketController) *Route {
	return &Route{
		cfg:          cfg,
		chi:          chiMux,
		authService:  authService,
		wsController: wsController,
	}
}

func (route *Route) Register() {
	route.chi.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Welcome to NovaTalkAPI"))
	})

	route.chi.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		helper.WriteSuccess(w, map[string]string{"status": "ok"})
	})

	authMiddleware := middleware.NewAuthMiddleware(route.authService)

	route.chi.Group(func(r chi.Router) {
		r.Use(authMiddleware.VerifyWSToken)
		r.Get("/ws", route.wsController.ServeWS)
	})
}
