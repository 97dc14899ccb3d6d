package cmd

import (
	"net/http"

	"meetup-api/internal/handlers"
	"meetup-api/internal/services"
	"meetup-api/internal/store"
	"meetup-api/models"
	"meetup-api/security"
	"meetup-api/utils"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type routeHandlers struct {
	events   *services.EventService
	sessions *services.SessionService
	users    *services.UserService
	limiter  *security.RateLimiter
	redis    *redis.Client
}

func registerRoutes(se *core.ServeEvent, h routeHandlers) {
	eventHandler := handlers.NewEventHandler(h.events)
	sessionHandler := handlers.NewSessionHandler(h.sessions)
	settingsHandler := handlers.NewSettingsHandler(h.events, h.sessions)
	userHandler := handlers.NewUserHandler(h.users)

	requireUser := apis.RequireAuth(store.UsersCollection)

	api := se.Router.Group("/api/v1")

	// Event endpoints
	api.GET("/events", eventHandler.ListEvents)
	api.POST("/events", eventHandler.CreateEvent).Bind(requireUser)
	api.GET("/events/old", eventHandler.ListOldEvents)
	api.GET("/events/tags", eventHandler.ListTags)
	api.GET("/events/{slug}", eventHandler.GetEvent)
	api.PUT("/events/{slug}", eventHandler.UpdateEvent).Bind(requireUser)
	api.PATCH("/events/{slug}", eventHandler.UpdateEvent).Bind(requireUser)
	api.DELETE("/events/{slug}", eventHandler.DeleteEvent).Bind(requireUser)
	api.POST("/events/{slug}/signup", eventHandler.SignUp).
		Bind(requireUser).
		BindFunc(security.AntiBot(), h.limiter.Limit("signup"))
	api.GET("/events/{slug}/attendees", eventHandler.ListAttendees)
	api.GET("/events/{slug}/speakers", eventHandler.ListSpeakers)
	api.GET("/events/{slug}/export/attendees", eventHandler.ExportAttendees).Bind(requireUser)

	// Session endpoints
	api.GET("/events/{slug}/proposers", sessionHandler.List(models.StatusDraft))
	api.POST("/events/{slug}/proposers", sessionHandler.Propose).
		Bind(requireUser).
		BindFunc(h.limiter.Limit("propose"))
	api.GET("/events/{slug}/proposers/{session}", sessionHandler.Get(models.StatusDraft))
	api.PUT("/events/{slug}/proposers/{session}", sessionHandler.UpdateProposal).Bind(requireUser)
	api.PATCH("/events/{slug}/proposers/{session}", sessionHandler.UpdateProposal).Bind(requireUser)
	api.DELETE("/events/{slug}/proposers/{session}", sessionHandler.DeleteProposal).Bind(requireUser)
	api.GET("/events/{slug}/sessions", sessionHandler.List(models.StatusAccepted))
	api.GET("/events/{slug}/sessions/{session}", sessionHandler.Get(models.StatusAccepted))
	api.GET("/events/{slug}/denied", sessionHandler.List(models.StatusDenied))
	api.GET("/events/{slug}/denied/{session}", sessionHandler.Get(models.StatusDenied))

	// Settings endpoints
	api.POST("/events/{slug}/settings/session/{session}", settingsHandler.SessionStatus).Bind(requireUser)
	api.POST("/events/{slug}/settings/attendee", settingsHandler.Attendance).Bind(requireUser)
	api.POST("/events/{slug}/settings/organizers", settingsHandler.Organizers).Bind(requireUser)

	// Profile endpoints
	api.GET("/users/me", userHandler.Me).Bind(requireUser)
	api.PATCH("/users/me", userHandler.UpdateMe).Bind(requireUser)

	// Health check
	se.Router.GET("/health", func(e *core.RequestEvent) error {
		if err := utils.RedisHealthCheck(e.Request.Context(), h.redis); err != nil {
			return e.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
}
