package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/propfeed/propfeed/internal/handler"
	"github.com/propfeed/propfeed/internal/middleware"
)

// SetupAuthRoutes configures registration, session and profile routes.
func SetupAuthRoutes(r chi.Router, authHandler *handler.AuthHandler, resolver middleware.UserResolver) {
	// Public auth routes
	r.Post("/api/auth/register", authHandler.Register)
	r.Get("/api/auth/verify", authHandler.Verify)
	r.Post("/api/auth/login", authHandler.Login)
	r.Post("/api/auth/refresh", authHandler.Refresh)
	r.Post("/api/auth/logout", authHandler.Logout)
	r.Post("/api/auth/recover_password", authHandler.RecoverPassword)
	// Both verbs accepted; clients have shipped with each.
	r.Post("/api/auth/reset", authHandler.ResetPassword)
	r.Put("/api/auth/reset", authHandler.ResetPassword)

	// Protected profile routes (require the access_token cookie)
	r.Group(func(authRouter chi.Router) {
		authRouter.Use(middleware.CookieAuth(resolver))

		authRouter.Get("/api/auth/profile", authHandler.GetProfile)
		authRouter.Put("/api/auth/profile", authHandler.UpdateProfile)
	})
}
