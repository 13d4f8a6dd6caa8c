package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/propfeed/propfeed/internal/handler"
	"github.com/propfeed/propfeed/internal/middleware"
)

// SetupPropertyRoutes configures the public feed and the owner-facing
// property and reservation routes.
func SetupPropertyRoutes(r chi.Router, propertyHandler *handler.PropertyHandler, resolver middleware.UserResolver) {
	// Public feed; anonymous requests pass through, a valid cookie still
	// resolves the user into context
	r.Group(func(feedRouter chi.Router) {
		feedRouter.Use(middleware.OptionalCookieAuth(resolver))

		feedRouter.Get("/api/feed", propertyHandler.Feed)
		feedRouter.Get("/api/feed/{slug}", propertyHandler.FeedProperty)
	})

	// Protected listing management
	r.Group(func(authRouter chi.Router) {
		authRouter.Use(middleware.CookieAuth(resolver))

		authRouter.Post("/api/feed", propertyHandler.Create)

		authRouter.Get("/api/properties", propertyHandler.ListOwn)
		authRouter.Get("/api/properties/{slug}", propertyHandler.GetOwn)
		authRouter.Put("/api/properties/{slug}", propertyHandler.Update)
		authRouter.Delete("/api/properties/{slug}", propertyHandler.Delete)

		authRouter.Post("/api/properties/{slug}/reservations", propertyHandler.CreateReservation)
		authRouter.Get("/api/properties/{slug}/reservations", propertyHandler.ListReservations)
		authRouter.Put("/api/properties/{slug}/reservations", propertyHandler.UpdateReservation)
	})
}
