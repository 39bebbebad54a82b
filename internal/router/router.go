package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing

	"github.com/iliyamo/notes-api/internal/cache"      // shared key/value store
	"github.com/iliyamo/notes-api/internal/config"     // rate-limit and cache settings
	"github.com/iliyamo/notes-api/internal/handler"    // handlers implementing the endpoints
	"github.com/iliyamo/notes-api/internal/middleware" // JWT, session, rate-limit and cache middleware
	"github.com/iliyamo/notes-api/internal/session"    // session manager
)

// Deps bundles everything the route table needs.  Keeping registration in
// one place makes the limiter class assigned to each route easy to audit.
type Deps struct {
	Auth    *handler.AuthHandler
	Notes   *handler.NoteHandler
	Uploads *handler.UploadHandler
	Exports *handler.ExportHandler

	Sessions     *session.Manager
	Store        cache.Store
	RateLimits   config.RateLimitConfig
	CacheCfg     config.CacheConfig
	AccessSecret string
	UploadDir    string
}

// Register wires every route.  The general limiter and the session loader
// cover the whole /api surface; stricter per-class limiters stack on top of
// individual routes.
func Register(e *echo.Echo, d Deps) {
	// Liveness probe outside /api so load balancers are never rate limited.
	e.GET("/health", handler.Health)

	// Uploaded images are served statically, mirroring the upload handler's
	// /uploads/<file> locations.
	e.Static("/uploads", d.UploadDir)

	rl := d.RateLimits
	limit := func(class config.RateLimitClass) echo.MiddlewareFunc {
		return middleware.RateLimit(rl, class, d.Store)
	}

	api := e.Group("/api",
		limit(rl.General),
		middleware.LoadSession(d.Sessions),
	)

	// Authentication endpoints.  Register and login share the strict auth
	// class; successful attempts are compensated out of the counter.
	api.POST("/register", d.Auth.Register, limit(rl.Auth))
	api.POST("/login", d.Auth.Login, limit(rl.Auth))
	api.PUT("/refresh-token", d.Auth.Refresh)
	api.DELETE("/logout", d.Auth.Logout)

	// Session-gated identity endpoint; exercises the server-side session
	// rather than the bearer token.
	api.GET("/me", d.Auth.Me, middleware.RequireSession())

	// Notes CRUD sits behind the JWT gate.  Reads additionally go through
	// the response cache.
	jwt := middleware.JWTAuth(d.AccessSecret)
	respCache := middleware.ResponseCache(d.CacheCfg, d.Store)

	// Revokes every refresh token at once, so it identifies the caller by
	// access token instead of resolving a single refresh token.
	api.DELETE("/logout-all", d.Auth.LogoutEverywhere, jwt)

	notes := api.Group("/notes", jwt)
	notes.POST("", d.Notes.Create, limit(rl.Write))
	notes.GET("", d.Notes.List, limit(rl.Read), respCache)
	notes.GET("/:id", d.Notes.Get, limit(rl.Read), respCache)
	notes.PUT("/:id", d.Notes.Update, limit(rl.Write))
	notes.DELETE("/:id", d.Notes.Delete, limit(rl.Write))

	// File uploads and note exports, each with their own hourly class.
	api.POST("/uploads/images", d.Uploads.Image, jwt, limit(rl.Upload))
	api.POST("/exports/notes", d.Exports.Notes, jwt, limit(rl.Export))
}
