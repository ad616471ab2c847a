package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"siteulation/internal/handlers"
	"siteulation/internal/middleware"
)

// SetupRoutes registers every route. The SPA catch-all must stay last.
func SetupRoutes(app *fiber.App, h *handlers.Handler, m *middleware.Middleware, frontendDir string) {
	app.Get("/health", h.Health)

	api := app.Group("/api")

	// Auth proxying
	api.Post("/auth/signup", h.Signup)
	api.Post("/auth/signin", h.Signin)
	api.Get("/auth/user", m.RequireUser, h.Me)

	// Carts
	api.Get("/carts", h.ListCarts)
	api.Get("/carts/random", h.RandomCart)
	api.Get("/carts/:id", h.GetCart)
	api.Patch("/carts/:id", m.RequireUser, h.PatchCart)
	api.Delete("/carts/:id", m.RequireUser, middleware.RequireAdmin, h.DeleteCart)
	api.Post("/carts/:id/view", h.IncrementViews)
	api.Get("/carts/:id/download", h.DownloadCart)

	// Generation
	api.Post("/generate", m.RequireUser, h.Generate)

	// Credits
	api.Post("/credits/request", m.RequireUser, h.RequestCredits)

	// Admin
	admin := api.Group("/admin", m.RequireUser, middleware.RequireAdmin)
	admin.Post("/ban", h.BanUser)
	admin.Get("/credits", h.ListCreditRequests)
	admin.Post("/credits/:id/approve", h.ApproveCreditRequest)
	admin.Post("/credits/:id/deny", h.DenyCreditRequest)

	// Real-time relay for multiplayer carts
	app.Get("/socket", h.WebSocketUpgrade, websocket.New(h.HandleWebSocket))

	// Generated apps and social previews
	app.Get("/view/:id", h.Preview)
	app.Get("/run/:id", h.ServeCartFile)
	app.Get("/run/:id/*", h.ServeCartFile)

	// Static assets and SPA fallback
	app.Static("/frontend", frontendDir)
	app.Get("/*", h.ServeSPA)
}
