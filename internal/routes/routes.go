package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quartierboard/board-api/internal/handlers"
	"github.com/quartierboard/board-api/internal/middleware"
	"github.com/quartierboard/board-api/internal/token"
)

// Setup mounts every route. Registration, login and the sorted info
// listing are public, matching the original surface; everything else
// sits behind the session-token middleware.
func Setup(r *chi.Mux, h *handlers.Handlers, tokens *token.Service) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Real-time event stream
	r.Get("/ws", h.WebSocket)

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/user/register", h.Register)
		r.Post("/user/login", h.Login)
		r.Get("/infos", h.GetInfos)

		// Session required
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))

			r.Post("/infos", h.CreateInfo)
			r.Get("/infos/id/{id}", h.GetInfoByID)
			r.Get("/infos/user/{id}", h.GetInfosByUser)
			r.Put("/infos/{id}", h.UpdateInfo)
			r.Delete("/infos/{id}", h.DeleteInfo)

			r.Post("/infos/{id}/join", h.JoinEvent)
			r.Post("/infos/{id}/leave", h.LeaveEvent)

			r.Post("/infos/{id}/comments", h.AddComment)
			r.Put("/infos/{infoID}/comments/{commentID}", h.EditComment)
			r.Delete("/infos/{infoID}/comments/{commentID}", h.DeleteComment)

			r.Post("/infos/{id}/vote/{votetype}", h.CastVote)

			r.Get("/infos/{id}/subscription/{device}", h.CheckSubscription)
			r.Post("/infos/{id}/subscribe", h.Subscribe)
			r.Delete("/infos/{id}/unsubscribe/{device}", h.Unsubscribe)

			r.Get("/users", h.GetUsers)
			r.Get("/user/id/{id}", h.GetUserByID)
			r.Get("/user/name/{name}", h.GetUserByName)
			r.Get("/user/myprofile", h.MyProfile)
			r.Put("/user", h.UpdateProfile)
			r.Delete("/user/delete", h.DeleteAccount)
			r.Delete("/user/disconnect", h.Disconnect)
		})
	})
}
